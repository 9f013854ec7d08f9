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

// Package graph implements the in-memory repository artifact graph: typed
// artifacts, DEFINES/CALL/DOCUMENTS relationships, the symbol-resolution
// algorithm, and the canonical-id traversal used at query time.
package graph

// ArtifactType discriminates the kind of artifact extracted from a source
// file. Each non-MODULE artifact carries exactly one lexical parent.
type ArtifactType string

const (
	ArtifactModule          ArtifactType = "MODULE"
	ArtifactClass           ArtifactType = "CLASS"
	ArtifactFunction        ArtifactType = "FUNCTION"
	ArtifactMethod          ArtifactType = "METHOD"
	ArtifactImport          ArtifactType = "IMPORT"
	ArtifactCall            ArtifactType = "CALL"
	ArtifactMarkdownModule  ArtifactType = "MARKDOWN_MODULE"
	ArtifactMarkdownSection ArtifactType = "MARKDOWN_SECTION"
)

// UnknownCallee is the sentinel callee name for calls whose target
// expression could not be named (e.g. a call through a computed index).
const UnknownCallee = "<unknown>"

// Artifact is a tagged union over every kind of thing the extractors
// produce. Shared fields live directly on the struct; type-specific data
// lives in the pointer-valued *Meta fields, exactly one of which is set
// according to Type.
type Artifact struct {
	Type         ArtifactType
	ID           string // canonical_id
	Name         string
	ParentID     string // canonical_id of lexical parent; empty for MODULE
	RelativePath string
	Text         string
	StartLine    int

	Call     *CallMeta     // set iff Type == ArtifactCall
	Section  *SectionMeta  // set iff Type == ArtifactMarkdownSection
	Import   *ImportMeta   // set iff Type == ArtifactImport
	Function *FunctionMeta // set iff Type == ArtifactFunction || Type == ArtifactMethod
}

// CallMeta carries the metadata specific to a CALL artifact.
type CallMeta struct {
	// Callee is "<receiver>.<attr>" for attribute-access calls, the raw
	// callee expression otherwise, or UnknownCallee if neither could be
	// determined.
	Callee string
}

// SectionMeta carries the metadata specific to a MARKDOWN_SECTION artifact.
type SectionMeta struct {
	Level      int // heading level, e.g. 1 for "#", 2 for "##"
	Slug       string
	ParentSlug string // empty for a top-level section
	Heading    string // raw heading text, used by DOCUMENTS lookups
}

// ImportMeta carries the metadata specific to an IMPORT artifact.
type ImportMeta struct {
	ImportedModule string
	Alias          string // empty if no "as" clause
}

// FunctionMeta carries the metadata specific to FUNCTION/METHOD artifacts.
type FunctionMeta struct {
	IsMethod bool
}

// IsDefinition reports whether a is a definition artifact eligible to
// participate in a DEFINES relationship as the child.
func (a *Artifact) IsDefinition() bool {
	switch a.Type {
	case ArtifactClass, ArtifactFunction, ArtifactMethod, ArtifactMarkdownSection:
		return true
	default:
		return false
	}
}
