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
	"sort"
	"strings"

	"github.com/hybridcore/ragcore/internal/apierr"
	"github.com/hybridcore/ragcore/internal/store"
)

type repoSummaryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Status      string `json:"status"`
	IngestionID string `json:"ingestion_id"`
	IngestedAt  string `json:"ingested_at"`
	FileCount   int    `json:"file_count"`
	NodeCount   int    `json:"node_count"`
}

// handleListRepos implements GET /v1/repos. The store sorts by id; this
// handler re-sorts by ingested_at, newest first, since that is the
// ordering the endpoint promises.
func (s *Server) handleListRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := s.Repo.ListRepos(r.Context())
	if err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("listing repos failed", err.Error(), "", err))
		return
	}

	sort.SliceStable(repos, func(i, j int) bool {
		return repos[i].IngestedAt > repos[j].IngestedAt
	})

	out := make([]repoSummaryResponse, len(repos))
	for i, rs := range repos {
		out[i] = repoSummaryResponse{
			ID:          rs.ID,
			Name:        rs.Name,
			DisplayName: rs.DisplayName,
			Status:      rs.Status,
			IngestionID: rs.IngestionID,
			IngestedAt:  rs.IngestedAt,
			FileCount:   rs.FileCount,
			NodeCount:   rs.NodeCount,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"repos": out})
}

type graphNodeResponse struct {
	DocumentID   string `json:"document_id"`
	CanonicalID  string `json:"canonical_id"`
	RelativePath string `json:"relative_path"`
	Title        string `json:"title"`
	DocType      string `json:"doc_type"`
}

// handleGraphNodes implements GET /v1/graph/repos/{repo_id}/nodes.
func (s *Server) handleGraphNodes(w http.ResponseWriter, r *http.Request) {
	repoID := r.PathValue("repo_id")
	raw := r.URL.Query().Get("canonical_ids")
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		apierr.WriteHTTP(w, apierr.NewValidationError("canonical_ids query parameter is required", "", nil))
		return
	}

	nodes, err := s.Repo.NodesByCanonicalIDs(r.Context(), repoID, ids)
	if err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("looking up nodes failed", err.Error(), "", err))
		return
	}

	out := make([]graphNodeResponse, len(nodes))
	for i, n := range nodes {
		out[i] = nodeToResponse(n)
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": out, "total": len(out)})
}

func nodeToResponse(n store.DocumentNode) graphNodeResponse {
	return graphNodeResponse{
		DocumentID:   n.DocumentID,
		CanonicalID:  n.CanonicalID,
		RelativePath: n.RelativePath,
		Title:        n.Title,
		DocType:      n.DocType,
	}
}

type graphEdgeResponse struct {
	ToCanonicalID string `json:"to_canonical_id"`
	RelationType  string `json:"relation_type"`
}

// handleGraphRepo implements GET /v1/graph/repos/{repo_id}: the whole
// node set plus the relationship set keyed by canonical_id, the shape
// internal/graph.Cache and internal/retrieve consume natively.
func (s *Server) handleGraphRepo(w http.ResponseWriter, r *http.Request) {
	repoID := r.PathValue("repo_id")
	ctx := r.Context()

	nodes, err := s.Repo.AllNodes(ctx, repoID)
	if err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("loading repo nodes failed", err.Error(), "", err))
		return
	}

	rels, err := s.Graph.LoadRelationships(ctx, repoID)
	if err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("loading repo relationships failed", err.Error(), "", err))
		return
	}

	nodeOut := make([]graphNodeResponse, len(nodes))
	for i, n := range nodes {
		nodeOut[i] = nodeToResponse(n)
	}

	byFrom := make(map[string][]graphEdgeResponse)
	for _, rel := range rels {
		byFrom[rel.FromCanonicalID] = append(byFrom[rel.FromCanonicalID], graphEdgeResponse{
			ToCanonicalID: rel.ToCanonicalID,
			RelationType:  string(rel.Type),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"nodes":         nodeOut,
		"relationships": byFrom,
		"total_nodes":   len(nodeOut),
	})
}

type docRelationshipResponse struct {
	TargetDocumentID string `json:"target_document_id"`
	RelationType     string `json:"relation_type"`
}

// handleDocRelationships implements GET /v1/graph/docs/{document_id}/relationships.
func (s *Server) handleDocRelationships(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("document_id")

	rels, err := s.Repo.RelationshipsByDocumentID(r.Context(), documentID)
	if err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("loading document relationships failed", err.Error(), "", err))
		return
	}

	out := make([]docRelationshipResponse, len(rels))
	for i, rel := range rels {
		out[i] = docRelationshipResponse{
			TargetDocumentID: rel.ToDocumentID,
			RelationType:     rel.RelationType,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id":   documentID,
		"relationships": out,
		"total":         len(out),
	})
}
