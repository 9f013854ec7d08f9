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

// Package retrievalplan implements the immutable RetrievalPlan data
// structure and its DFS expansion operator. No other package imports it:
// the document-only path is a plain vector search, and the repo-aware path
// expands over internal/graph's CodebaseGraph and reports its own summary.
package retrievalplan

import "sort"

// ExpansionEdge records why a document entered the expanded set: the
// source document whose outgoing relationship was followed, and that
// relationship's type.
type ExpansionEdge struct {
	SourceDocumentID string
	RelationType     string
}

// Constraints bounds an expansion and makes a Plan self-describing.
type Constraints struct {
	MaxDepth             int
	AllowedRelationTypes []string // nil means unrestricted
}

func (c Constraints) allows(relationType string) bool {
	if len(c.AllowedRelationTypes) == 0 {
		return true
	}
	for _, t := range c.AllowedRelationTypes {
		if t == relationType {
			return true
		}
	}
	return false
}

// Plan is immutable: Expand returns a new Plan rather than mutating the
// receiver. It records which documents entered as seeds, which were added
// by traversal, and the single edge that justified each addition.
type Plan struct {
	SeedDocumentIDs     map[string]bool
	ExpandedDocumentIDs map[string]bool
	ExpansionMetadata   map[string]ExpansionEdge // document_id -> edge, expanded ids only
	Constraints         Constraints
}

// New returns a Plan with the given seeds and no expansion yet.
func New(seedDocumentIDs []string, constraints Constraints) *Plan {
	seeds := make(map[string]bool, len(seedDocumentIDs))
	for _, id := range seedDocumentIDs {
		seeds[id] = true
	}
	return &Plan{
		SeedDocumentIDs:     seeds,
		ExpandedDocumentIDs: make(map[string]bool),
		ExpansionMetadata:   make(map[string]ExpansionEdge),
		Constraints:         constraints,
	}
}

// RelationshipFetcher fetches a document's outgoing relationships, used by
// Expand to DFS the document graph. Implementations return relationships
// in any order; Expand sorts them by target document id itself for
// deterministic traversal.
type RelationshipFetcher func(documentID string) ([]OutgoingRelationship, error)

// OutgoingRelationship is one edge discovered by a RelationshipFetcher.
type OutgoingRelationship struct {
	TargetDocumentID string
	RelationType     string
}

// Expand runs spec §4.4's expand_retrieval_plan algorithm: for each seed,
// DFS to p.Constraints.MaxDepth, sorting each hop's relationships by target
// document id for deterministic exploration, skipping relation types not
// in AllowedRelationTypes, and recording expansion metadata for every
// newly-visited document. It returns a new Plan; p is left unmodified.
func (p *Plan) Expand(fetch RelationshipFetcher) (*Plan, error) {
	next := &Plan{
		SeedDocumentIDs:     p.SeedDocumentIDs,
		ExpandedDocumentIDs: cloneSet(p.ExpandedDocumentIDs),
		ExpansionMetadata:   cloneMetadata(p.ExpansionMetadata),
		Constraints:         p.Constraints,
	}

	visited := make(map[string]bool)
	for id := range p.SeedDocumentIDs {
		visited[id] = true
	}
	for id := range p.ExpandedDocumentIDs {
		visited[id] = true
	}

	seeds := sortedKeys(p.SeedDocumentIDs)
	for _, seed := range seeds {
		if err := dfsExpand(seed, seed, 0, p.Constraints, fetch, visited, next); err != nil {
			return nil, err
		}
	}

	return next, nil
}

func dfsExpand(
	currentDocumentID, sourceDocumentID string,
	depth int,
	constraints Constraints,
	fetch RelationshipFetcher,
	visited map[string]bool,
	next *Plan,
) error {
	if depth >= constraints.MaxDepth {
		return nil
	}

	rels, err := fetch(currentDocumentID)
	if err != nil {
		return err
	}
	sort.Slice(rels, func(i, j int) bool {
		return rels[i].TargetDocumentID < rels[j].TargetDocumentID
	})

	for _, rel := range rels {
		if !constraints.allows(rel.RelationType) {
			continue
		}
		if visited[rel.TargetDocumentID] {
			continue
		}
		visited[rel.TargetDocumentID] = true
		next.ExpandedDocumentIDs[rel.TargetDocumentID] = true
		next.ExpansionMetadata[rel.TargetDocumentID] = ExpansionEdge{
			SourceDocumentID: currentDocumentID,
			RelationType:     rel.RelationType,
		}
		if err := dfsExpand(rel.TargetDocumentID, currentDocumentID, depth+1, constraints, fetch, visited, next); err != nil {
			return err
		}
	}
	return nil
}

func cloneSet(s map[string]bool) map[string]bool {
	out := make(map[string]bool, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func cloneMetadata(m map[string]ExpansionEdge) map[string]ExpansionEdge {
	out := make(map[string]ExpansionEdge, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
