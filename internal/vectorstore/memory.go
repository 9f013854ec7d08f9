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

package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is a brute-force, in-process Store: cosine similarity over a
// linear scan. It is the reference implementation used by tests and by
// deployments too small to need the external vector_store service.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Add(ctx context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
	return nil
}

func (s *MemoryStore) SimilaritySearch(ctx context.Context, queryVector []float32, k int, filter Filter) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		record Record
		score  float32
	}
	var candidates []scored
	for _, r := range s.records {
		if !matchesFilter(r.SourceMetadata, filter) {
			continue
		}
		candidates = append(candidates, scored{record: r, score: cosineSimilarity(queryVector, r.Vector)})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}

	out := make([]Result, len(candidates))
	for i, c := range candidates {
		out[i] = toResult(c.record, c.score)
	}
	return out, nil
}

// GetChunksByDocumentID returns documentID's chunks in chunk_index
// ascending order (spec §9 Open Question: deterministic ordering rather
// than arbitrary storage order), capped at k.
func (s *MemoryStore) GetChunksByDocumentID(ctx context.Context, documentID string, k int) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Record
	for _, r := range s.records {
		if r.DocumentID == documentID {
			matches = append(matches, r)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ChunkIndex < matches[j].ChunkIndex
	})
	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}

	out := make([]Result, len(matches))
	for i, r := range matches {
		out[i] = toResult(r, 0)
	}
	return out, nil
}

func (s *MemoryStore) DeleteByIngestionID(ctx context.Context, ingestionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	for _, r := range s.records {
		if r.IngestionID != ingestionID {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

func toResult(r Record, score float32) Result {
	meta := make(map[string]any, len(r.SourceMetadata)+1)
	for k, v := range r.SourceMetadata {
		meta[k] = v
	}
	meta["source_metadata"] = r.SourceMetadata
	return Result{
		ChunkID:    r.ChunkID,
		Text:       r.ChunkText,
		DocumentID: r.DocumentID,
		Score:      score,
		Metadata:   meta,
	}
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// matchesFilter evaluates Filter predicate forms against metadata:
// equality (plain value), {"ne": v} (a missing key counts as not-equal,
// satisfying predicates like {source_type: {ne: "code"}}), and
// {"in": [...]} (membership).
func matchesFilter(metadata map[string]any, filter Filter) bool {
	for key, predicate := range filter {
		value, present := metadata[key]
		switch p := predicate.(type) {
		case map[string]any:
			if ne, ok := p["ne"]; ok {
				if present && value == ne {
					return false
				}
				continue
			}
			if in, ok := p["in"]; ok {
				list, ok := in.([]any)
				if !ok || !present {
					return false
				}
				found := false
				for _, item := range list {
					if item == value {
						found = true
						break
					}
				}
				if !found {
					return false
				}
				continue
			}
			return false
		default:
			if !present || value != predicate {
				return false
			}
		}
	}
	return true
}
