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

// Package extract turns repository files into internal/graph.Artifact
// slices: a Python extractor (tree-sitter AST walk) and a Markdown
// extractor (heading-level stack). File discovery skips dot-prefixed path
// components and only visits .py/.md suffixes.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hybridcore/ragcore/internal/graph"
)

// Extractor turns one file's bytes into artifacts rooted at relativePath.
// A nil error with zero artifacts is not a failure: an empty file or one
// with no recognizable symbols simply contributes nothing to the graph.
type Extractor interface {
	Extract(relativePath string, content []byte) ([]*graph.Artifact, error)
}

// Registry selects an Extractor by file suffix.
type Registry struct {
	bySuffix map[string]Extractor
}

// NewRegistry returns a Registry with the Python and Markdown extractors
// wired under their conventional suffixes.
func NewRegistry() *Registry {
	return &Registry{
		bySuffix: map[string]Extractor{
			".py": NewPythonExtractor(),
			".md": NewMarkdownExtractor(),
		},
	}
}

// For returns the extractor registered for relativePath's suffix, if any.
func (r *Registry) For(relativePath string) (Extractor, bool) {
	ext, ok := r.bySuffix[filepath.Ext(relativePath)]
	return ext, ok
}

// FileArtifacts pairs a discovered file with the artifacts extracted from
// it, preserving walk order so callers can feed graph.Builder.AddFile in
// file-discovery order (required for symbol-table determinism).
type FileArtifacts struct {
	RelativePath string
	Artifacts    []*graph.Artifact
	Err          error
}

// Walk recursively visits root, skipping any path with a dot-prefixed
// component, selecting an extractor by suffix (.py, .md), and running it
// against every matching file. Per-file extraction errors are captured on
// the returned FileArtifacts rather than aborting the walk, matching the
// builder's per-file failure model: one bad file does not stop ingestion.
func Walk(root string, registry *Registry) ([]FileArtifacts, error) {
	var results []FileArtifacts

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		if hasDotComponent(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		extractor, ok := registry.For(rel)
		if !ok {
			return nil
		}

		relSlash := filepath.ToSlash(rel)
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			results = append(results, FileArtifacts{RelativePath: relSlash, Err: readErr})
			return nil
		}

		artifacts, extractErr := extractor.Extract(relSlash, content)
		results = append(results, FileArtifacts{RelativePath: relSlash, Artifacts: artifacts, Err: extractErr})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extract: walk %s: %w", root, err)
	}
	return results, nil
}

func hasDotComponent(relPath string) bool {
	for _, part := range strings.Split(filepath.ToSlash(relPath), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return true
		}
	}
	return false
}
