// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRepo(t *testing.T, repo Repository) {
	t.Helper()
	nodes := []DocumentNode{
		{DocumentID: "doc-robot", RepoID: "repo1", CanonicalID: "robot.py#Robot", DocType: "code"},
		{DocumentID: "doc-run", RepoID: "repo1", CanonicalID: "robot.py#Robot.run", DocType: "code"},
	}
	rels := []DocumentRelationship{
		{FromDocumentID: "doc-robot", ToDocumentID: "doc-run", RelationType: "DEFINES"},
	}
	require.NoError(t, repo.ReplaceRepo(context.Background(), "repo1", nodes, rels))
}

func TestMemoryRepository_ReplaceRepoThenResolve(t *testing.T) {
	repo := NewMemoryRepository()
	seedRepo(t, repo)

	resolved, err := repo.ResolveDocumentIDs(context.Background(), "repo1", []string{"robot.py#Robot", "robot.py#Robot.run", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"robot.py#Robot":     "doc-robot",
		"robot.py#Robot.run": "doc-run",
	}, resolved)
}

func TestMemoryRepository_ReplaceRepoEvictsPriorGeneration(t *testing.T) {
	repo := NewMemoryRepository()
	seedRepo(t, repo)

	require.NoError(t, repo.ReplaceRepo(context.Background(), "repo1", []DocumentNode{
		{DocumentID: "doc-new", RepoID: "repo1", CanonicalID: "robot.py#Robot", DocType: "code"},
	}, nil))

	_, ok, err := repo.GetNodeByCanonicalID(context.Background(), "repo1", "robot.py#Robot.run")
	require.NoError(t, err)
	assert.False(t, ok, "prior generation's node must be gone after ReplaceRepo")

	rels, err := repo.RelationshipsByDocumentID(context.Background(), "doc-robot")
	require.NoError(t, err)
	assert.Empty(t, rels, "prior generation's relationships must be gone after ReplaceRepo")
}

func TestMemoryRepository_RelationshipsByDocumentID(t *testing.T) {
	repo := NewMemoryRepository()
	seedRepo(t, repo)

	rels, err := repo.RelationshipsByDocumentID(context.Background(), "doc-robot")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "doc-run", rels[0].ToDocumentID)
}

func TestMemoryRepository_UpdateSummary(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.ReplaceRepo(context.Background(), "repo1", []DocumentNode{
		{DocumentID: "doc-file", RepoID: "repo1", CanonicalID: "file_document_ing-1", DocType: "document"},
	}, nil))

	require.NoError(t, repo.UpdateSummary(context.Background(), "ing-1", "a concise summary"))

	node, ok, err := repo.GetNodeByCanonicalID(context.Background(), "repo1", "file_document_ing-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a concise summary", node.Summary)
}

func TestMemoryRepository_UpdateSummaryErrorsWhenMissing(t *testing.T) {
	repo := NewMemoryRepository()
	err := repo.UpdateSummary(context.Background(), "nope", "x")
	assert.Error(t, err)
}

func TestMemoryRepository_ListRepos(t *testing.T) {
	repo := NewMemoryRepository()
	seedRepo(t, repo)

	summaries, err := repo.ListRepos(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "repo1", summaries[0].ID)
	assert.Equal(t, 2, summaries[0].NodeCount)
}
