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

// Package store persists DocumentNode and DocumentRelationship records —
// the durable form of a RepoGraph — behind a swappable Repository
// interface: an in-memory reference implementation for tests and a
// Badger-backed implementation for single-process durability.
package store

import "context"

// DocumentNode is the persisted form of an Artifact: one row per
// canonical_id within a repo, carrying enough text and metadata for
// retrieval to hydrate a chunk's provenance back to a readable document.
type DocumentNode struct {
	DocumentID  string
	RepoID      string
	CanonicalID string
	RelativePath string
	SymbolPath  string // empty for MODULE nodes
	DocType     string
	Title       string
	Summary     string
	Text        string
	IngestionID string
}

// DocumentRelationship is the persisted form of a graph.Relationship,
// addressed by document_id rather than canonical_id.
type DocumentRelationship struct {
	FromDocumentID string
	ToDocumentID   string
	RelationType   string
	Metadata       map[string]any
}

// RepoSummary is one row of GET /v1/repos.
type RepoSummary struct {
	ID          string
	Name        string
	DisplayName string
	Status      string
	IngestionID string
	IngestedAt  string
	FileCount   int
	NodeCount   int
}

// Repository is the persistence boundary the ingestion pipeline and
// retrieval engine depend on.
type Repository interface {
	// ReplaceRepo performs the repo-level replacement spec §4.2 requires:
	// delete all of repoID's existing DocumentNodes (cascading to their
	// DocumentRelationships and, by the vector store's own ingestion_id
	// scoping, their chunks), then insert nodes and relationships inside
	// one call. Nodes must be committed before relationships reference
	// them.
	ReplaceRepo(ctx context.Context, repoID string, nodes []DocumentNode, relationships []DocumentRelationship) error

	// GetNodeByCanonicalID looks up a single node; ok is false if absent.
	GetNodeByCanonicalID(ctx context.Context, repoID, canonicalID string) (node DocumentNode, ok bool, err error)

	// ResolveDocumentIDs satisfies retrieve.GraphResolver: canonical_id ->
	// document_id for every id found, silently omitting misses.
	ResolveDocumentIDs(ctx context.Context, repoID string, canonicalIDs []string) (map[string]string, error)

	// NodesByCanonicalIDs is the backing call for
	// GET /v1/graph/repos/{repo_id}/nodes?canonical_ids=...
	NodesByCanonicalIDs(ctx context.Context, repoID string, canonicalIDs []string) ([]DocumentNode, error)

	// AllNodes returns every node in repoID, used by GraphAdapter to build
	// the document_id -> canonical_id index a CodebaseGraph needs.
	AllNodes(ctx context.Context, repoID string) ([]DocumentNode, error)

	// RelationshipsByRepo returns the full edge set used to build a repo's
	// CodebaseGraph; GraphAdapter wraps it to satisfy graph.GraphClient.
	RelationshipsByRepo(ctx context.Context, repoID string) ([]DocumentRelationship, error)

	// RelationshipsByDocumentID is the backing call for
	// GET /v1/graph/docs/{document_id}/relationships.
	RelationshipsByDocumentID(ctx context.Context, documentID string) ([]DocumentRelationship, error)

	// ListRepos is the backing call for GET /v1/repos.
	ListRepos(ctx context.Context) ([]RepoSummary, error)

	// UpdateSummary updates the node whose canonical_id is
	// file_document_<ingestionID> (spec §6's POST /v1/summary).
	UpdateSummary(ctx context.Context, ingestionID, summary string) error

	// Close releases any resources the implementation holds open.
	Close() error
}
