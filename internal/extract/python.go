// Copyright 2026 Hybridcore
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/hybridcore/ragcore/internal/graph"
	"github.com/hybridcore/ragcore/internal/identity"
)

// PythonExtractor walks a Python file's Tree-sitter AST and produces one
// MODULE artifact plus CLASS/FUNCTION/METHOD, IMPORT and CALL artifacts.
type PythonExtractor struct{}

// NewPythonExtractor returns a PythonExtractor.
func NewPythonExtractor() *PythonExtractor {
	return &PythonExtractor{}
}

// Extract implements Extractor.
func (e *PythonExtractor) Extract(relativePath string, content []byte) ([]*graph.Artifact, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("extract: parse %s: %w", relativePath, err)
	}
	defer tree.Close()

	module := &graph.Artifact{
		Type:         graph.ArtifactModule,
		ID:           identity.BuildModuleCanonicalID(relativePath),
		Name:         relativePath,
		RelativePath: relativePath,
		Text:         string(content),
		StartLine:    1,
	}

	w := &pythonWalker{
		relativePath: relativePath,
		content:      content,
		artifacts:    []*graph.Artifact{module},
		callCounters: make(map[string]int),
	}
	w.walkChildren(tree.RootNode(), module, "")

	return w.artifacts, nil
}

type pythonWalker struct {
	relativePath string
	content      []byte
	artifacts    []*graph.Artifact
	callCounters map[string]int // parent canonical_id -> next call index
}

func (w *pythonWalker) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.content[n.StartByte():n.EndByte()])
}

// walkChildren visits node's direct children, recursing into nested blocks
// so that definitions and calls at arbitrary control-flow depth (inside an
// if/for/try) still attach to the nearest enclosing scope, which is
// tracked as parent/symbolPrefix rather than rediscovered structurally.
func (w *pythonWalker) walkChildren(node *sitter.Node, parent *graph.Artifact, symbolPrefix string) {
	if node == nil {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkNode(node.Child(i), parent, symbolPrefix)
	}
}

func (w *pythonWalker) walkNode(node *sitter.Node, parent *graph.Artifact, symbolPrefix string) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "class_definition":
		w.handleClass(node, parent, symbolPrefix)
		return
	case "function_definition":
		w.handleFunction(node, parent, symbolPrefix)
		return
	case "import_statement":
		w.handleImport(node, parent)
		return
	case "import_from_statement":
		w.handleImportFrom(node, parent)
		return
	case "call":
		w.handleCall(node, parent)
		// fall through: still walk into arguments for nested calls
	}

	w.walkChildren(node, parent, symbolPrefix)
}

func (w *pythonWalker) handleClass(node *sitter.Node, parent *graph.Artifact, symbolPrefix string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	symbolPath := joinSymbolPath(symbolPrefix, name)

	artifact := &graph.Artifact{
		Type:         graph.ArtifactClass,
		ID:           identity.BuildSymbolCanonicalID(w.relativePath, symbolPath),
		Name:         name,
		ParentID:     parent.ID,
		RelativePath: w.relativePath,
		Text:         w.text(node),
		StartLine:    int(node.StartPoint().Row) + 1,
	}
	w.artifacts = append(w.artifacts, artifact)

	if body := node.ChildByFieldName("body"); body != nil {
		w.walkChildren(body, artifact, symbolPath)
	}
}

func (w *pythonWalker) handleFunction(node *sitter.Node, parent *graph.Artifact, symbolPrefix string) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	symbolPath := joinSymbolPath(symbolPrefix, name)
	isMethod := parent.Type == graph.ArtifactClass

	artifactType := graph.ArtifactFunction
	if isMethod {
		artifactType = graph.ArtifactMethod
	}

	artifact := &graph.Artifact{
		Type:         artifactType,
		ID:           identity.BuildSymbolCanonicalID(w.relativePath, symbolPath),
		Name:         name,
		ParentID:     parent.ID,
		RelativePath: w.relativePath,
		Text:         w.text(node),
		StartLine:    int(node.StartPoint().Row) + 1,
		Function:     &graph.FunctionMeta{IsMethod: isMethod},
	}
	w.artifacts = append(w.artifacts, artifact)

	if body := node.ChildByFieldName("body"); body != nil {
		w.walkChildren(body, artifact, symbolPath)
	}
}

func (w *pythonWalker) handleImport(node *sitter.Node, parent *graph.Artifact) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			w.emitImport(parent, w.text(child), "")
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			w.emitImport(parent, w.text(nameNode), w.text(aliasNode))
		}
	}
}

func (w *pythonWalker) handleImportFrom(node *sitter.Node, parent *graph.Artifact) {
	moduleNode := node.ChildByFieldName("module_name")
	moduleName := w.text(moduleNode)

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			if child == moduleNode {
				continue
			}
			w.emitImport(parent, moduleName+"."+w.text(child), "")
		case "aliased_import":
			nameNode := child.ChildByFieldName("name")
			aliasNode := child.ChildByFieldName("alias")
			w.emitImport(parent, moduleName+"."+w.text(nameNode), w.text(aliasNode))
		case "wildcard_import":
			w.emitImport(parent, moduleName+".*", "")
		}
	}
}

func (w *pythonWalker) emitImport(parent *graph.Artifact, importedModule, alias string) {
	if importedModule == "" {
		return
	}
	id := fmt.Sprintf("%s#import_%d", parent.ID, len(w.artifacts))
	w.artifacts = append(w.artifacts, &graph.Artifact{
		Type:         graph.ArtifactImport,
		ID:           id,
		Name:         importedModule,
		ParentID:     parent.ID,
		RelativePath: w.relativePath,
		Import: &graph.ImportMeta{
			ImportedModule: importedModule,
			Alias:          alias,
		},
	})
}

func (w *pythonWalker) handleCall(node *sitter.Node, parent *graph.Artifact) {
	funcNode := node.ChildByFieldName("function")
	callee := w.calleeName(funcNode)

	idx := w.callCounters[parent.ID]
	w.callCounters[parent.ID] = idx + 1

	w.artifacts = append(w.artifacts, &graph.Artifact{
		Type:         graph.ArtifactCall,
		ID:           fmt.Sprintf("%s#call%d", parent.ID, idx),
		ParentID:     parent.ID,
		RelativePath: w.relativePath,
		StartLine:    int(node.StartPoint().Row) + 1,
		Call:         &graph.CallMeta{Callee: callee},
	})
}

// calleeName implements spec §4.1: "<receiver>.<attr>" for attribute
// access, the raw callee expression otherwise, or UnknownCallee if neither
// yields non-empty text.
func (w *pythonWalker) calleeName(funcNode *sitter.Node) string {
	if funcNode == nil {
		return graph.UnknownCallee
	}
	if funcNode.Type() == "attribute" {
		object := funcNode.ChildByFieldName("object")
		attr := funcNode.ChildByFieldName("attribute")
		objectText := w.text(object)
		attrText := w.text(attr)
		if objectText != "" && attrText != "" {
			return objectText + "." + attrText
		}
	}
	if raw := w.text(funcNode); raw != "" {
		return raw
	}
	return graph.UnknownCallee
}

func joinSymbolPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
