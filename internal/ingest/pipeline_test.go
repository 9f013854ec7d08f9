// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybridcore/ragcore/internal/metrics"
	"github.com/hybridcore/ragcore/internal/store"
	"github.com/hybridcore/ragcore/internal/vectorstore"
)

func newTestPipeline(t *testing.T) (*Pipeline, store.Repository, vectorstore.Store) {
	t.Helper()
	repo := store.NewMemoryRepository()
	vectors := vectorstore.NewMemoryStore()
	reg := prometheus.NewRegistry()
	p := &Pipeline{
		Embedder: &MockEmbedder{Dimensions: 16},
		Vectors:  vectors,
		Repo:     repo,
		Metrics:  metrics.NewIngestion(reg),
		Provider: "mock",
	}
	return p, repo, vectors
}

func TestIngestText_CreatesOneNodeAndEmbedsChunks(t *testing.T) {
	p, repo, vectors := newTestPipeline(t)
	ctx := context.Background()

	result, err := p.IngestText(ctx, TextRequest{
		IngestionID:  "ing-1",
		SourceType:   "file",
		RelativePath: "notes.txt",
		Text:         "the quick brown fox jumps over the lazy dog. it was a good day for a walk in the park.",
	})
	require.NoError(t, err)
	assert.Equal(t, "ing-1", result.IngestionID)
	assert.Len(t, result.DocumentIDs, 1)
	assert.Greater(t, result.ChunksWritten, 0)

	node, ok, err := repo.GetNodeByCanonicalID(ctx, "ing-1", "file_document_ing-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, result.DocumentIDs[0], node.DocumentID)

	mem := vectors.(*vectorstore.MemoryStore)
	chunks, err := mem.GetChunksByDocumentID(ctx, node.DocumentID, 100)
	require.NoError(t, err)
	assert.Equal(t, result.ChunksWritten, len(chunks))
	assert.Equal(t, "file_document_ing-1", chunks[0].Metadata["canonical_id"])
}

func TestIngestPDF_EmbedsPreChunkedPages(t *testing.T) {
	p, _, vectors := newTestPipeline(t)
	ctx := context.Background()

	written, err := p.embedAndPersist(ctx, "ing-pdf", "doc-1", "pdf_document_ing-pdf", "document", "pdf", "doc.pdf", "",
		ToChunks([]PageChunk{{Page: 1, Text: "hello from page one"}, {Page: 2, Text: "hello from page two"}}))
	require.NoError(t, err)
	assert.Equal(t, 2, written)

	mem := vectors.(*vectorstore.MemoryStore)
	results, err := mem.SimilaritySearch(ctx, make([]float32, 16), 5, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestIngestMarkdown_CreatesNodePerSection(t *testing.T) {
	p, repo, _ := newTestPipeline(t)
	ctx := context.Background()

	md := "# Title\n\nIntro text.\n\n## Section One\n\nBody one.\n\n## Section Two\n\nBody two.\n"
	result, err := p.IngestMarkdown(ctx, SectionedRequest{
		IngestionID:  "ing-md",
		RelativePath: "README.md",
		Markdown:     md,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(result.DocumentIDs), 2)

	rels, err := repo.RelationshipsByRepo(ctx, "ing-md")
	require.NoError(t, err)
	assert.NotEmpty(t, rels)
}

func TestIngestRepo_RequiresLoader(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	_, err := p.IngestRepo(context.Background(), RepoRequest{RepoID: "r1"})
	assert.Error(t, err)
}

func TestIngestRepo_WalksLocalDirectory(t *testing.T) {
	p, repo, _ := newTestPipeline(t)
	p.Loader = NewRepoLoader(nil, "")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("def greet():\n    return 'hi'\n"), 0o644))

	result, err := p.IngestRepo(context.Background(), RepoRequest{
		RepoID: "repo-x",
		Source: RepoSource{Type: "local_path", Value: dir},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.FilesChunked)
	assert.Equal(t, 0, result.FilesSkipped)

	nodes, err := repo.AllNodes(context.Background(), "repo-x")
	require.NoError(t, err)
	assert.NotEmpty(t, nodes)
}

func TestIngestRepoDelta_TracksAddedAndUnchanged(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	p.Loader = NewRepoLoader(nil, "")
	mgr, err := NewCheckpointManager(t.TempDir())
	require.NoError(t, err)
	p.Checkpoints = mgr

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte("def greet():\n    return 'hi'\n"), 0o644))

	req := RepoRequest{RepoID: "repo-delta", Source: RepoSource{Type: "local_path", Value: dir}}

	first, err := p.IngestRepoDelta(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.FilesAdded)
	assert.Equal(t, 0, first.FilesUnchanged)

	second, err := p.IngestRepoDelta(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.FilesAdded)
	assert.Equal(t, 1, second.FilesUnchanged)
}
