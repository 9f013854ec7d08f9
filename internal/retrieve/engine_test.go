// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package retrieve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybridcore/ragcore/internal/graph"
	"github.com/hybridcore/ragcore/internal/llmfacade"
	"github.com/hybridcore/ragcore/internal/vectorstore"
)

type constantEmbedder struct{ vector []float32 }

func (e constantEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.vector, nil
}

type fakeGraphClient struct{ relationships []graph.Relationship }

func (c fakeGraphClient) LoadRelationships(ctx context.Context, repoID string) ([]graph.Relationship, error) {
	return c.relationships, nil
}

type mapResolver map[string]string

func (m mapResolver) ResolveDocumentIDs(ctx context.Context, repoID string, canonicalIDs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, id := range canonicalIDs {
		if docID, ok := m[id]; ok {
			out[id] = docID
		}
	}
	return out, nil
}

func newTestEngine(t *testing.T, store vectorstore.Store, resolver GraphResolver, rels []graph.Relationship, llm llmfacade.Provider) *Engine {
	t.Helper()
	return &Engine{
		Embedder:      constantEmbedder{vector: []float32{1, 0}},
		Vectors:       store,
		GraphCache:    graph.NewCache(fakeGraphClient{relationships: rels}),
		GraphResolver: resolver,
		LLM:           llm,
	}
}

func TestQuery_FallsBackToUnfilteredSearchWhenCodeFilterEmpty(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	require.NoError(t, store.Add(ctx, []vectorstore.Record{
		{
			ChunkID: "c1", DocumentID: "doc1", Vector: []float32{1, 0}, ChunkText: "robot module text",
			SourceMetadata: map[string]any{"doc_type": "prose", "canonical_id": "robot.py"},
		},
	}))

	mock := &llmfacade.MockProvider{
		ChatFunc: func(ctx context.Context, req llmfacade.ChatRequest) (*llmfacade.ChatResponse, error) {
			return &llmfacade.ChatResponse{Message: llmfacade.Message{Role: "assistant", Content: "answer"}, Done: true}, nil
		},
	}

	e := newTestEngine(t, store, mapResolver{}, nil, mock)
	resp, err := e.Query(ctx, Request{Query: "what methods does Robot define", RepoID: "repo1"})
	require.NoError(t, err)
	assert.Equal(t, "answer", resp.Answer)
	assert.Contains(t, resp.Sources, "doc1")
}

func TestQuery_ExpandsViaGraphAndHydratesMissingDocument(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	require.NoError(t, store.Add(ctx, []vectorstore.Record{
		{
			ChunkID: "seed-chunk", DocumentID: "doc-seed", Vector: []float32{1, 0}, ChunkText: "seed text",
			SourceMetadata: map[string]any{"doc_type": "code", "canonical_id": "robot.py#Robot"},
		},
		{
			ChunkID: "expanded-chunk", DocumentID: "doc-expanded", ChunkIndex: 0, Vector: []float32{1, 0}, ChunkText: "expanded text",
			SourceMetadata: map[string]any{"doc_type": "code", "canonical_id": "robot.py#Robot.run"},
		},
	}))

	rels := []graph.Relationship{
		{FromCanonicalID: "robot.py#Robot", ToCanonicalID: "robot.py#Robot.run", Type: graph.RelationDefines},
	}
	resolver := mapResolver{
		"robot.py#Robot":     "doc-seed",
		"robot.py#Robot.run": "doc-expanded",
	}

	mock := &llmfacade.MockProvider{
		ChatFunc: func(ctx context.Context, req llmfacade.ChatRequest) (*llmfacade.ChatResponse, error) {
			return &llmfacade.ChatResponse{Message: llmfacade.Message{Role: "assistant", Content: "answer"}, Done: true}, nil
		},
	}

	e := newTestEngine(t, store, resolver, rels, mock)
	resp, err := e.Query(ctx, Request{Query: "what methods does Robot have", RepoID: "repo1", TopK: 1})
	require.NoError(t, err)

	assert.Equal(t, []string{"doc-seed"}, resp.Plan.SeedDocs)
	assert.Equal(t, []string{"doc-expanded"}, resp.Plan.ExpandedDocs)
	assert.Equal(t, 2, resp.Plan.TotalDocs)
	assert.Equal(t, []string{"doc-seed", "doc-expanded"}, resp.Sources)
}

func TestQuerySimple_ExcludesCodeSourceType(t *testing.T) {
	ctx := context.Background()
	store := vectorstore.NewMemoryStore()
	require.NoError(t, store.Add(ctx, []vectorstore.Record{
		{ChunkID: "code-chunk", DocumentID: "doc-code", Vector: []float32{1, 0}, ChunkText: "code", SourceMetadata: map[string]any{"source_type": "code"}},
		{ChunkID: "prose-chunk", DocumentID: "doc-prose", Vector: []float32{1, 0}, ChunkText: "prose", SourceMetadata: map[string]any{"source_type": "prose"}},
	}))

	mock := &llmfacade.MockProvider{
		ChatFunc: func(ctx context.Context, req llmfacade.ChatRequest) (*llmfacade.ChatResponse, error) {
			return &llmfacade.ChatResponse{Message: llmfacade.Message{Role: "assistant", Content: "simple answer"}, Done: true}, nil
		},
	}

	e := newTestEngine(t, store, nil, nil, mock)
	resp, err := e.QuerySimple(ctx, Request{Query: "general question"})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc-prose"}, resp.Sources)
}

func TestExecutePlan_RejectsChunksMismatchedToBucket(t *testing.T) {
	chunks := map[string][]vectorstore.Result{
		"doc1": {
			{ChunkID: "a", DocumentID: "doc1", Text: "a"},
			{ChunkID: "wrong-bucket", DocumentID: "doc2", Text: "should be dropped"},
		},
	}
	flattened := executePlan([]string{"doc1"}, chunks, 10)
	require.Len(t, flattened, 1)
	assert.Equal(t, "a", flattened[0].ChunkID)
}

func TestExecutePlan_CapsPerDocument(t *testing.T) {
	chunks := map[string][]vectorstore.Result{
		"doc1": {
			{ChunkID: "a", DocumentID: "doc1", Text: "a"},
			{ChunkID: "b", DocumentID: "doc1", Text: "b"},
			{ChunkID: "c", DocumentID: "doc1", Text: "c"},
		},
	}
	flattened := executePlan([]string{"doc1"}, chunks, 2)
	assert.Len(t, flattened, 2)
}

func TestExtractCanonicalID_ChecksNestedSourceMetadata(t *testing.T) {
	direct := extractCanonicalID(map[string]any{"canonical_id": "a.py"})
	assert.Equal(t, "a.py", direct)

	nested := extractCanonicalID(map[string]any{"source_metadata": map[string]any{"canonical_id": "b.py"}})
	assert.Equal(t, "b.py", nested)

	assert.Equal(t, "", extractCanonicalID(nil))
}

func TestLongest_PicksMostSpecificCanonicalID(t *testing.T) {
	assert.Equal(t, "robot.py#Robot.run", longest([]string{"robot.py", "robot.py#Robot.run", "robot.py#Robot"}))
}
