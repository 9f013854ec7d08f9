// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SimilaritySearchRanksByCosine(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []Record{
		{ChunkID: "close", Vector: []float32{1, 0}},
		{ChunkID: "far", Vector: []float32{0, 1}},
	}))

	results, err := s.SimilaritySearch(ctx, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "close", results[0].ChunkID)
	assert.Equal(t, "far", results[1].ChunkID)
}

func TestMemoryStore_SimilaritySearchRespectsK(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []Record{
		{ChunkID: "a", Vector: []float32{1, 0}},
		{ChunkID: "b", Vector: []float32{1, 0}},
		{ChunkID: "c", Vector: []float32{1, 0}},
	}))

	results, err := s.SimilaritySearch(ctx, []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemoryStore_EqualityFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []Record{
		{ChunkID: "code", Vector: []float32{1}, SourceMetadata: map[string]any{"doc_type": "code"}},
		{ChunkID: "doc", Vector: []float32{1}, SourceMetadata: map[string]any{"doc_type": "prose"}},
	}))

	results, err := s.SimilaritySearch(ctx, []float32{1}, 10, Filter{"doc_type": "code"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "code", results[0].ChunkID)
}

// TestMemoryStore_NotEqualFilterTreatsMissingKeyAsMatch covers spec §4.3:
// {ne: "code"} must also match rows where source_type is absent entirely,
// since the document-only retrieval path relies on this to include
// documents that were never tagged with a source_type.
func TestMemoryStore_NotEqualFilterTreatsMissingKeyAsMatch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []Record{
		{ChunkID: "code", Vector: []float32{1}, SourceMetadata: map[string]any{"source_type": "code"}},
		{ChunkID: "prose", Vector: []float32{1}, SourceMetadata: map[string]any{"source_type": "prose"}},
		{ChunkID: "untagged", Vector: []float32{1}, SourceMetadata: map[string]any{}},
	}))

	results, err := s.SimilaritySearch(ctx, []float32{1}, 10, Filter{"source_type": map[string]any{"ne": "code"}})
	require.NoError(t, err)

	var ids []string
	for _, r := range results {
		ids = append(ids, r.ChunkID)
	}
	assert.ElementsMatch(t, []string{"prose", "untagged"}, ids)
}

func TestMemoryStore_InFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []Record{
		{ChunkID: "a", Vector: []float32{1}, SourceMetadata: map[string]any{"lang": "python"}},
		{ChunkID: "b", Vector: []float32{1}, SourceMetadata: map[string]any{"lang": "markdown"}},
		{ChunkID: "c", Vector: []float32{1}, SourceMetadata: map[string]any{"lang": "go"}},
	}))

	results, err := s.SimilaritySearch(ctx, []float32{1}, 10, Filter{
		"lang": map[string]any{"in": []any{"python", "markdown"}},
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestMemoryStore_GetChunksByDocumentID_OrderedByChunkIndex(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []Record{
		{ChunkID: "c2", DocumentID: "doc1", ChunkIndex: 2},
		{ChunkID: "c0", DocumentID: "doc1", ChunkIndex: 0},
		{ChunkID: "c1", DocumentID: "doc1", ChunkIndex: 1},
		{ChunkID: "other", DocumentID: "doc2", ChunkIndex: 0},
	}))

	results, err := s.GetChunksByDocumentID(ctx, "doc1", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"c0", "c1", "c2"}, []string{results[0].ChunkID, results[1].ChunkID, results[2].ChunkID})
}

func TestMemoryStore_DeleteByIngestionIDPurgesOnlyThoseRecords(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Add(ctx, []Record{
		{ChunkID: "a", IngestionID: "ing-1", Vector: []float32{1}},
		{ChunkID: "b", IngestionID: "ing-2", Vector: []float32{1}},
	}))

	require.NoError(t, s.DeleteByIngestionID(ctx, "ing-1"))

	results, err := s.SimilaritySearch(ctx, []float32{1}, 10, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ChunkID)
}
