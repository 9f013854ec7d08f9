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

// RelationType enumerates the relation classes the builder derives.
type RelationType string

const (
	RelationDefines   RelationType = "DEFINES"
	RelationCall      RelationType = "CALL"
	RelationDocuments RelationType = "DOCUMENTS"
	RelationImport    RelationType = "IMPORT"
)

// Relationship is a directed, typed edge between two canonical ids.
type Relationship struct {
	FromCanonicalID string
	ToCanonicalID   string
	Type            RelationType
	Metadata        map[string]any
}

// MetaConfidence is the Metadata key carrying a CALL or DOCUMENTS
// relationship's confidence.
const MetaConfidence = "confidence"

// Confidence levels the call resolver can assign. Local lexical-scope
// matches are fully confident; symbol-table matches are half confident
// because the flat table may have resolved to the wrong file's definition
// of a same-named symbol (see SymbolTable's documented simplification).
const (
	ConfidenceLocal = 1.0
	ConfidenceTable = 0.5
)

// DOCUMENTS metadata keys.
const (
	MetaMatchStrategy = "match_strategy"
	MetaSectionName   = "section_name"

	MatchStrategyExactName = "exact_name"
)
