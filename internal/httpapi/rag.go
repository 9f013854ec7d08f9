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

package httpapi

import (
	"net/http"

	"github.com/hybridcore/ragcore/internal/apierr"
	"github.com/hybridcore/ragcore/internal/retrieve"
)

const defaultTopK = 8

type ragRequest struct {
	Query    string `json:"query"`
	RepoID   string `json:"repo_id"`
	TopK     int    `json:"top_k"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (req ragRequest) toEngineRequest() retrieve.Request {
	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return retrieve.Request{
		Query:    req.Query,
		RepoID:   req.RepoID,
		TopK:     topK,
		Provider: req.Provider,
		Model:    req.Model,
	}
}

// handleRAG implements POST /v1/rag: graph-expanded retrieval over a
// repo plus answer synthesis.
func (s *Server) handleRAG(w http.ResponseWriter, r *http.Request) {
	var req ragRequest
	if err := decodeJSON(r, &req); err != nil {
		apierr.WriteHTTP(w, err)
		return
	}
	if req.Query == "" {
		apierr.WriteHTTP(w, apierr.NewValidationError("query is required", "", nil))
		return
	}

	resp, err := s.Engine.Query(r.Context(), req.toEngineRequest())
	if err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("retrieval failed", err.Error(), "", err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRAGSimple implements POST /v1/rag/simple: document-only
// retrieval with source_type=code excluded, no graph expansion.
func (s *Server) handleRAGSimple(w http.ResponseWriter, r *http.Request) {
	var req ragRequest
	if err := decodeJSON(r, &req); err != nil {
		apierr.WriteHTTP(w, err)
		return
	}
	if req.Query == "" {
		apierr.WriteHTTP(w, apierr.NewValidationError("query is required", "", nil))
		return
	}

	resp, err := s.Engine.QuerySimple(r.Context(), req.toEngineRequest())
	if err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("retrieval failed", err.Error(), "", err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
