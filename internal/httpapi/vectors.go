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

// This file implements the server side of the wire protocol
// internal/vectorstore.HTTPStore speaks as a client, so that ragcore can
// stand in for the external vector-store service it otherwise depends on.
package httpapi

import (
	"net/http"

	"github.com/hybridcore/ragcore/internal/apierr"
	"github.com/hybridcore/ragcore/internal/vectorstore"
)

type vectorBatchRequest struct {
	Records []vectorBatchRecord `json:"records"`
}

type vectorBatchRecord struct {
	Vector   []float32      `json:"vector"`
	Metadata map[string]any `json:"metadata"`
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func mapField(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

// handleVectorsBatch implements POST /v1/vectors/batch.
func (s *Server) handleVectorsBatch(w http.ResponseWriter, r *http.Request) {
	var req vectorBatchRequest
	if err := decodeJSON(r, &req); err != nil {
		apierr.WriteHTTP(w, err)
		return
	}

	records := make([]vectorstore.Record, len(req.Records))
	for i, rec := range req.Records {
		meta := rec.Metadata
		records[i] = vectorstore.Record{
			Vector:         rec.Vector,
			DocumentID:     stringField(meta, "document_id"),
			IngestionID:    stringField(meta, "ingestion_id"),
			ChunkID:        stringField(meta, "chunk_id"),
			ChunkIndex:     intField(meta, "chunk_index"),
			ChunkStrategy:  stringField(meta, "chunk_strategy"),
			ChunkText:      stringField(meta, "chunk_text"),
			SourceMetadata: mapField(meta, "source_metadata"),
			Provider:       stringField(meta, "provider"),
		}
	}

	if err := s.Vectors.Add(r.Context(), records); err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("writing vector batch failed", err.Error(), "", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "count": len(records)})
}

type wireResult struct {
	ChunkID    string         `json:"chunk_id"`
	Text       string         `json:"text"`
	DocumentID string         `json:"document_id"`
	Score      float32        `json:"score"`
	Metadata   map[string]any `json:"metadata"`
}

func toWireResults(results []vectorstore.Result) []wireResult {
	out := make([]wireResult, len(results))
	for i, res := range results {
		out[i] = wireResult{
			ChunkID:    res.ChunkID,
			Text:       res.Text,
			DocumentID: res.DocumentID,
			Score:      res.Score,
			Metadata:   res.Metadata,
		}
	}
	return out
}

// handleVectorsSearch implements POST /v1/vectors/search.
func (s *Server) handleVectorsSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QueryVector    []float32          `json:"query_vector"`
		K              int                `json:"k"`
		MetadataFilter vectorstore.Filter `json:"metadata_filter"`
	}
	if err := decodeJSON(r, &req); err != nil {
		apierr.WriteHTTP(w, err)
		return
	}
	if len(req.QueryVector) == 0 {
		apierr.WriteHTTP(w, apierr.NewValidationError("query_vector is required", "", nil))
		return
	}

	results, err := s.Vectors.SimilaritySearch(r.Context(), req.QueryVector, req.K, req.MetadataFilter)
	if err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("vector search failed", err.Error(), "", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": toWireResults(results)})
}

// handleVectorsSearchByDoc implements POST /v1/vectors/search-by-doc.
func (s *Server) handleVectorsSearchByDoc(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID string `json:"document_id"`
		K          int    `json:"k"`
	}
	if err := decodeJSON(r, &req); err != nil {
		apierr.WriteHTTP(w, err)
		return
	}
	if req.DocumentID == "" {
		apierr.WriteHTTP(w, apierr.NewValidationError("document_id is required", "", nil))
		return
	}

	results, err := s.Vectors.GetChunksByDocumentID(r.Context(), req.DocumentID, req.K)
	if err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("vector lookup by document failed", err.Error(), "", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": toWireResults(results)})
}

// handleVectorsDeleteByIngestion implements DELETE /v1/vectors/by-ingestion/{id}.
func (s *Server) handleVectorsDeleteByIngestion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.Vectors.DeleteByIngestionID(r.Context(), id); err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("vector deletion failed", err.Error(), "", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
