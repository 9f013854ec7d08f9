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

package store

import (
	"context"

	"github.com/hybridcore/ragcore/internal/graph"
)

// GraphAdapter satisfies graph.GraphClient against a Repository. The
// repository's relationships are keyed by document_id (the address an
// HTTP client uses); the graph builder works in canonical_id space. The
// adapter does the translation, skipping any edge whose endpoint no
// longer has a node (the underlying document was deleted out from
// under a stale relationship row).
type GraphAdapter struct {
	Repo Repository
}

// NewGraphAdapter wraps repo as a graph.GraphClient.
func NewGraphAdapter(repo Repository) *GraphAdapter {
	return &GraphAdapter{Repo: repo}
}

func (a *GraphAdapter) LoadRelationships(ctx context.Context, repoID string) ([]graph.Relationship, error) {
	rels, err := a.Repo.RelationshipsByRepo(ctx, repoID)
	if err != nil {
		return nil, err
	}

	docIndex, err := a.canonicalIndex(ctx, repoID)
	if err != nil {
		return nil, err
	}

	out := make([]graph.Relationship, 0, len(rels))
	for _, rel := range rels {
		from, ok := docIndex[rel.FromDocumentID]
		if !ok {
			continue
		}
		to, ok := docIndex[rel.ToDocumentID]
		if !ok {
			continue
		}
		out = append(out, graph.Relationship{
			FromCanonicalID: from,
			ToCanonicalID:   to,
			Type:            graph.RelationType(rel.RelationType),
			Metadata:        rel.Metadata,
		})
	}
	return out, nil
}

// canonicalIndex maps document_id -> canonical_id for every node in repoID.
func (a *GraphAdapter) canonicalIndex(ctx context.Context, repoID string) (map[string]string, error) {
	nodes, err := a.Repo.AllNodes(ctx, repoID)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]string, len(nodes))
	for _, n := range nodes {
		idx[n.DocumentID] = n.CanonicalID
	}
	return idx, nil
}
