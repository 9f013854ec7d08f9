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
	"fmt"
	"sort"
	"sync"
)

// MemoryRepository is a process-local Repository backed by plain maps.
// It is the reference implementation: simple enough to trust by
// inspection, used by tests and by single-shot CLI invocations that
// don't need a Badger directory on disk.
type MemoryRepository struct {
	mu sync.RWMutex

	nodesByRepo map[string]map[string]DocumentNode // repoID -> canonicalID -> node
	nodeByDocID map[string]DocumentNode             // documentID -> node

	relsByRepo  map[string][]DocumentRelationship // repoID -> edges
	relsByDocID map[string][]DocumentRelationship // fromDocumentID -> edges

	repoMeta map[string]RepoSummary
}

// NewMemoryRepository builds an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nodesByRepo: make(map[string]map[string]DocumentNode),
		nodeByDocID: make(map[string]DocumentNode),
		relsByRepo:  make(map[string][]DocumentRelationship),
		relsByDocID: make(map[string][]DocumentRelationship),
		repoMeta:    make(map[string]RepoSummary),
	}
}

func (r *MemoryRepository) ReplaceRepo(ctx context.Context, repoID string, nodes []DocumentNode, relationships []DocumentRelationship) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.nodesByRepo[repoID]; ok {
		for _, n := range existing {
			delete(r.nodeByDocID, n.DocumentID)
		}
	}
	for _, rel := range r.relsByRepo[repoID] {
		delete(r.relsByDocID, rel.FromDocumentID)
	}

	byCanonical := make(map[string]DocumentNode, len(nodes))
	for _, n := range nodes {
		byCanonical[n.CanonicalID] = n
		r.nodeByDocID[n.DocumentID] = n
	}
	r.nodesByRepo[repoID] = byCanonical

	r.relsByRepo[repoID] = relationships
	for _, rel := range relationships {
		r.relsByDocID[rel.FromDocumentID] = append(r.relsByDocID[rel.FromDocumentID], rel)
	}

	summary := r.repoMeta[repoID]
	summary.ID = repoID
	summary.NodeCount = len(nodes)
	r.repoMeta[repoID] = summary

	return nil
}

func (r *MemoryRepository) GetNodeByCanonicalID(ctx context.Context, repoID, canonicalID string) (DocumentNode, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nodes, ok := r.nodesByRepo[repoID]
	if !ok {
		return DocumentNode{}, false, nil
	}
	n, ok := nodes[canonicalID]
	return n, ok, nil
}

func (r *MemoryRepository) ResolveDocumentIDs(ctx context.Context, repoID string, canonicalIDs []string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(canonicalIDs))
	nodes := r.nodesByRepo[repoID]
	for _, id := range canonicalIDs {
		if n, ok := nodes[id]; ok {
			out[id] = n.DocumentID
		}
	}
	return out, nil
}

func (r *MemoryRepository) NodesByCanonicalIDs(ctx context.Context, repoID string, canonicalIDs []string) ([]DocumentNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nodes := r.nodesByRepo[repoID]
	out := make([]DocumentNode, 0, len(canonicalIDs))
	for _, id := range canonicalIDs {
		if n, ok := nodes[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *MemoryRepository) AllNodes(ctx context.Context, repoID string) ([]DocumentNode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nodes := r.nodesByRepo[repoID]
	out := make([]DocumentNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	return out, nil
}

func (r *MemoryRepository) RelationshipsByRepo(ctx context.Context, repoID string) ([]DocumentRelationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DocumentRelationship, len(r.relsByRepo[repoID]))
	copy(out, r.relsByRepo[repoID])
	return out, nil
}

func (r *MemoryRepository) RelationshipsByDocumentID(ctx context.Context, documentID string) ([]DocumentRelationship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DocumentRelationship, len(r.relsByDocID[documentID]))
	copy(out, r.relsByDocID[documentID])
	return out, nil
}

func (r *MemoryRepository) ListRepos(ctx context.Context) ([]RepoSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RepoSummary, 0, len(r.repoMeta))
	for _, s := range r.repoMeta {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) UpdateSummary(ctx context.Context, ingestionID, summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	canonicalID := fmt.Sprintf("file_document_%s", ingestionID)
	for repoID, nodes := range r.nodesByRepo {
		n, ok := nodes[canonicalID]
		if !ok {
			continue
		}
		n.Summary = summary
		nodes[canonicalID] = n
		r.nodeByDocID[n.DocumentID] = n
		r.nodesByRepo[repoID] = nodes
		return nil
	}
	return fmt.Errorf("store: no node found for ingestion %q", ingestionID)
}

func (r *MemoryRepository) Close() error { return nil }
