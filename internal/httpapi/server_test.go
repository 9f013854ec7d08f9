// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybridcore/ragcore/internal/graph"
	"github.com/hybridcore/ragcore/internal/ingest"
	"github.com/hybridcore/ragcore/internal/llmfacade"
	"github.com/hybridcore/ragcore/internal/metrics"
	"github.com/hybridcore/ragcore/internal/retrieve"
	"github.com/hybridcore/ragcore/internal/store"
	"github.com/hybridcore/ragcore/internal/vectorstore"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	repo := store.NewMemoryRepository()
	vectors := vectorstore.NewMemoryStore()
	status := store.NewMemoryIngestionStatusStore()
	reg := prometheus.NewRegistry()

	pipeline := &ingest.Pipeline{
		Embedder: ingest.NewMockEmbedder(16),
		Vectors:  vectors,
		Repo:     repo,
		Metrics:  metrics.NewIngestion(reg),
		Provider: "mock",
	}

	graphAdapter := store.NewGraphAdapter(repo)
	graphCache := graph.NewCache(graphAdapter)

	engine := &retrieve.Engine{
		Embedder:      &retrieveEmbedderAdapter{pipeline.Embedder},
		Vectors:       vectors,
		GraphCache:    graphCache,
		GraphResolver: repo,
		LLM:           &llmfacade.MockProvider{},
	}

	s := &Server{
		Pipeline: pipeline,
		Tasks:    ingest.NewTaskRunner(status, nil),
		Status:   status,
		Repo:     repo,
		Graph:    graphAdapter,
		Vectors:  vectors,
		Engine:   engine,
	}

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

// retrieveEmbedderAdapter adapts ingest.MockEmbedder's Embed signature to
// retrieve.Embedder (identical signature, separate interface types).
type retrieveEmbedderAdapter struct {
	inner ingest.Embedder
}

func (a *retrieveEmbedderAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return a.inner.Embed(ctx, text)
}

func waitForIngestionPhase(t *testing.T, srv *httptest.Server, ingestionID string, phase string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(srv.URL + "/v1/ingest/" + ingestionID)
		require.NoError(t, err)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		if body["status"] == phase {
			return body
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("ingestion %s did not reach phase %s in time", ingestionID, phase)
	return nil
}

func TestHandleIngestFile_TextUpload(t *testing.T) {
	_, srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("the quick brown fox jumps over the lazy dog near the river bank."))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("metadata", `{"source_type":"file"}`))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/ingest/file", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted acceptedResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted))
	assert.Equal(t, "accepted", accepted.Status)
	require.NotEmpty(t, accepted.IngestionID)

	body := waitForIngestionPhase(t, srv, accepted.IngestionID, "complete")
	assert.Equal(t, accepted.IngestionID, body["ingestion_id"])
}

func TestHandleIngestStatus_UnknownID(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/ingest/" + "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleIngestStatus_InvalidUUID(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/ingest/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleIngestRepo_RequiresExactlyOneSource(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.PostForm(srv.URL+"/v1/ingest-repo", map[string][]string{})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp2, err := http.PostForm(srv.URL+"/v1/ingest-repo", map[string][]string{
		"git_url":    {"https://example.test/repo.git"},
		"local_path": {"/tmp/repo"},
	})
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestHandleListRepos_Empty(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/repos")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body["repos"])
}

func TestHandleSummary_UpdatesNode(t *testing.T) {
	s, srv := newTestServer(t)
	ctx := context.Background()

	_, err := s.Pipeline.IngestText(ctx, ingest.TextRequest{
		IngestionID:  "ing-summary",
		SourceType:   "file",
		RelativePath: "a.txt",
		Text:         "hello world, this is a short document about nothing in particular.",
	})
	require.NoError(t, err)

	payload := `{"ingestion_id":"ing-summary","summary":"a short note"}`
	resp, err := http.Post(srv.URL+"/v1/summary", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	node, ok, err := s.Repo.GetNodeByCanonicalID(ctx, "ing-summary", "file_document_ing-summary")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a short note", node.Summary)
}

func TestHandleVectorsBatchAndSearch(t *testing.T) {
	_, srv := newTestServer(t)

	batchPayload := `{"records":[{"vector":[1,0,0],"metadata":{"document_id":"doc-1","ingestion_id":"ing-1","chunk_id":"c1","chunk_index":0,"chunk_strategy":"fixed","chunk_text":"hello","source_metadata":{"canonical_id":"x"},"provider":"mock"}}]}`
	resp, err := http.Post(srv.URL+"/v1/vectors/batch", "application/json", strings.NewReader(batchPayload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var batchBody map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&batchBody))
	assert.Equal(t, float64(1), batchBody["count"])

	searchPayload := `{"query_vector":[1,0,0],"k":5}`
	searchResp, err := http.Post(srv.URL+"/v1/vectors/search", "application/json", strings.NewReader(searchPayload))
	require.NoError(t, err)
	defer searchResp.Body.Close()
	require.Equal(t, http.StatusOK, searchResp.StatusCode)

	var searchBody struct {
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.NewDecoder(searchResp.Body).Decode(&searchBody))
	require.Len(t, searchBody.Results, 1)
	assert.Equal(t, "c1", searchBody.Results[0]["chunk_id"])

	deleteReq, err := http.NewRequest(http.MethodDelete, srv.URL+"/v1/vectors/by-ingestion/ing-1", nil)
	require.NoError(t, err)
	deleteResp, err := http.DefaultClient.Do(deleteReq)
	require.NoError(t, err)
	defer deleteResp.Body.Close()
	assert.Equal(t, http.StatusOK, deleteResp.StatusCode)
}

func TestHandleRAGSimple_ReturnsAnswer(t *testing.T) {
	s, srv := newTestServer(t)
	ctx := context.Background()

	_, err := s.Pipeline.IngestText(ctx, ingest.TextRequest{
		IngestionID:  "ing-rag",
		SourceType:   "code",
		RelativePath: "a.txt",
		Text:         "the retrieval engine hydrates chunks by document id and canonical id.",
	})
	require.NoError(t, err)

	payload := `{"query":"how does retrieval work","top_k":3}`
	resp, err := http.Post(srv.URL+"/v1/rag/simple", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body retrieve.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Answer)
}
