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

package graph

import "strings"

// Builder assembles a RepoGraph from the artifacts extracted out of a
// repository's files, deriving DEFINES, CALL and DOCUMENTS relationships.
//
// Artifacts must be appended in file-discovery order (the order Walk visits
// files) so that the symbol table's last-write-wins behavior is
// deterministic for a given repository layout.
type Builder struct {
	graph     *RepoGraph
	ordered   []*Artifact
	imports   map[string]map[string]string // file relative_path -> alias -> imported module
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		graph:   NewRepoGraph(),
		imports: make(map[string]map[string]string),
	}
}

// AddFile appends all artifacts extracted from a single file to the
// builder, in the order the extractor produced them (module first).
func (b *Builder) AddFile(artifacts []*Artifact) {
	for _, a := range artifacts {
		b.graph.AddArtifact(a)
		b.ordered = append(b.ordered, a)
		if a.Type == ArtifactImport && a.Import != nil {
			alias := a.Import.Alias
			if alias == "" {
				alias = a.Import.ImportedModule
			}
			if b.imports[a.RelativePath] == nil {
				b.imports[a.RelativePath] = make(map[string]string)
			}
			b.imports[a.RelativePath][alias] = a.Import.ImportedModule
		}
	}
}

// Build derives DEFINES, then CALL, then DOCUMENTS relationships and
// returns the completed graph. It never returns an error for symbol misses:
// those produce no edge, per spec §4.1/§7.
func (b *Builder) Build() (*RepoGraph, error) {
	b.deriveDefines()

	symbols := BuildSymbolTable(b.ordered)
	b.resolveCalls(symbols)
	b.linkDocuments(symbols)

	if err := b.graph.Validate(); err != nil {
		return nil, err
	}
	return b.graph, nil
}

func (b *Builder) deriveDefines() {
	for _, a := range b.ordered {
		if !a.IsDefinition() {
			continue
		}
		if a.ParentID == "" {
			continue
		}
		_ = b.graph.AddRelationship(Relationship{
			FromCanonicalID: a.ParentID,
			ToCanonicalID:   a.ID,
			Type:            RelationDefines,
		})
	}
}

// resolveCalls implements spec §4.1's three-step CALL resolution: local
// lexical scope first, then the flat symbol table, then drop. A call whose
// receiver is an import alias recorded for its file is dropped up front.
func (b *Builder) resolveCalls(symbols *SymbolTable) {
	for _, a := range b.ordered {
		if a.Type != ArtifactCall || a.Call == nil {
			continue
		}
		if a.Call.Callee == UnknownCallee {
			continue
		}
		if dot := strings.Index(a.Call.Callee, "."); dot > 0 {
			if _, imported := b.imports[a.RelativePath][a.Call.Callee[:dot]]; imported {
				continue // call through an imported module: external, dropped
			}
		}
		owner, ok := b.graph.Artifacts[a.ParentID]
		if !ok {
			continue
		}

		if target, confidence, ok := b.resolveLocal(owner, a.Call.Callee); ok {
			b.emitCall(owner.ID, target, confidence)
			continue
		}
		if target, ok := symbols.Lookup(a.Call.Callee); ok {
			b.emitCall(owner.ID, target.ID, ConfidenceTable)
		}
		// else: external call, silently dropped.
	}
}

// resolveLocal walks owner's ancestor chain looking for a definition whose
// simple Name matches callee. A hit here is a local lexical-scope match,
// which spec §4.1 step 1 (and scenario 3) requires take priority over the
// global symbol table even when a free function of the same name exists.
func (b *Builder) resolveLocal(owner *Artifact, callee string) (targetID string, confidence float64, ok bool) {
	simple := simpleCalleeName(callee)
	cur := owner
	for cur != nil {
		if cur.Name == simple && cur.IsDefinition() {
			return cur.ID, ConfidenceLocal, true
		}
		if cur.ParentID == "" {
			break
		}
		cur = b.graph.Artifacts[cur.ParentID]
	}
	return "", 0, false
}

// simpleCalleeName strips a "<receiver>." prefix, since local lexical scope
// resolution compares against a definition's bare Name (e.g. "go"), not the
// receiver-qualified call text (e.g. "self.go").
func simpleCalleeName(callee string) string {
	if idx := strings.LastIndex(callee, "."); idx >= 0 {
		return callee[idx+1:]
	}
	return callee
}

func (b *Builder) emitCall(fromID, toID string, confidence float64) {
	_ = b.graph.AddRelationship(Relationship{
		FromCanonicalID: fromID,
		ToCanonicalID:   toID,
		Type:            RelationCall,
		Metadata:        map[string]any{MetaConfidence: confidence},
	})
}

// linkDocuments implements spec §4.1's DOCUMENTS derivation: each
// MARKDOWN_SECTION's heading is looked up verbatim, then lowercased and
// stripped, against the symbol table.
func (b *Builder) linkDocuments(symbols *SymbolTable) {
	for _, a := range b.ordered {
		if a.Type != ArtifactMarkdownSection || a.Section == nil {
			continue
		}
		heading := a.Section.Heading

		target, ok := symbols.Lookup(heading)
		if !ok {
			normalized := strings.TrimSpace(strings.ToLower(heading))
			target, ok = symbols.Lookup(normalized)
		}
		if !ok || target.ID == a.ID {
			continue
		}
		if !isDocumentable(target.Type) {
			continue
		}
		_ = b.graph.AddRelationship(Relationship{
			FromCanonicalID: a.ID,
			ToCanonicalID:   target.ID,
			Type:            RelationDocuments,
			Metadata: map[string]any{
				MetaMatchStrategy: MatchStrategyExactName,
				MetaSectionName:   heading,
				MetaConfidence:    ConfidenceLocal,
			},
		})
	}
}

func isDocumentable(t ArtifactType) bool {
	switch t {
	case ArtifactClass, ArtifactFunction, ArtifactMethod, ArtifactModule:
		return true
	default:
		return false
	}
}
