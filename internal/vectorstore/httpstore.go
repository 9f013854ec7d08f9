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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPStore is a thin client for the external vector_store service (spec
// §6's "Vector store HTTP API"), which the specification treats as an
// out-of-core collaborator: this package only needs to speak its wire
// protocol, not reimplement its ANN index.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore returns an HTTPStore pointed at baseURL, with timeout
// applied per call via the client's deadline.
func NewHTTPStore(baseURL string, timeout time.Duration) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type batchRequest struct {
	Records []batchRecord `json:"records"`
}

type batchRecord struct {
	Vector   []float32      `json:"vector"`
	Metadata map[string]any `json:"metadata"`
}

func (s *HTTPStore) Add(ctx context.Context, records []Record) error {
	payload := batchRequest{Records: make([]batchRecord, len(records))}
	for i, r := range records {
		payload.Records[i] = batchRecord{
			Vector: r.Vector,
			Metadata: map[string]any{
				"ingestion_id":    r.IngestionID,
				"chunk_id":        r.ChunkID,
				"chunk_index":     r.ChunkIndex,
				"chunk_strategy":  r.ChunkStrategy,
				"chunk_text":      r.ChunkText,
				"source_metadata": r.SourceMetadata,
				"provider":        r.Provider,
				"document_id":     r.DocumentID,
			},
		}
	}

	var result struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	return s.post(ctx, "/v1/vectors/batch", payload, &result)
}

func (s *HTTPStore) SimilaritySearch(ctx context.Context, queryVector []float32, k int, filter Filter) ([]Result, error) {
	payload := map[string]any{
		"query_vector": queryVector,
		"k":            k,
	}
	if len(filter) > 0 {
		payload["metadata_filter"] = filter
	}

	var result struct {
		Results []wireResult `json:"results"`
	}
	if err := s.post(ctx, "/v1/vectors/search", payload, &result); err != nil {
		return nil, err
	}
	return toResults(result.Results), nil
}

func (s *HTTPStore) GetChunksByDocumentID(ctx context.Context, documentID string, k int) ([]Result, error) {
	payload := map[string]any{"document_id": documentID, "k": k}

	var result struct {
		Results []wireResult `json:"results"`
	}
	if err := s.post(ctx, "/v1/vectors/search-by-doc", payload, &result); err != nil {
		return nil, err
	}
	return toResults(result.Results), nil
}

func (s *HTTPStore) DeleteByIngestionID(ctx context.Context, ingestionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/v1/vectors/by-ingestion/"+ingestionID, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("vectorstore: delete by ingestion id: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("vectorstore: delete by ingestion id: status %d", resp.StatusCode)
	}
	return nil
}

type wireResult struct {
	ChunkID    string         `json:"chunk_id"`
	Text       string         `json:"text"`
	DocumentID string         `json:"document_id"`
	Score      float32        `json:"score"`
	Metadata   map[string]any `json:"metadata"`
}

func toResults(wire []wireResult) []Result {
	out := make([]Result, len(wire))
	for i, w := range wire {
		out[i] = Result{ChunkID: w.ChunkID, Text: w.Text, DocumentID: w.DocumentID, Score: w.Score, Metadata: w.Metadata}
	}
	return out
}

func (s *HTTPStore) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("vectorstore: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("vectorstore: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("vectorstore: %s: status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
