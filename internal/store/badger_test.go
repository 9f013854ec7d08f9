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

func setupTestRepository(t *testing.T) *BadgerRepository {
	t.Helper()
	repo, err := OpenBadgerRepository(BadgerOptions{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestBadgerRepository_ReplaceRepoThenResolve(t *testing.T) {
	repo := setupTestRepository(t)
	seedRepo(t, repo)

	resolved, err := repo.ResolveDocumentIDs(context.Background(), "repo1", []string{"robot.py#Robot", "robot.py#Robot.run", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"robot.py#Robot":     "doc-robot",
		"robot.py#Robot.run": "doc-run",
	}, resolved)
}

func TestBadgerRepository_ReplaceRepoEvictsPriorGeneration(t *testing.T) {
	repo := setupTestRepository(t)
	seedRepo(t, repo)

	require.NoError(t, repo.ReplaceRepo(context.Background(), "repo1", []DocumentNode{
		{DocumentID: "doc-new", RepoID: "repo1", CanonicalID: "robot.py#Robot", DocType: "code"},
	}, nil))

	_, ok, err := repo.GetNodeByCanonicalID(context.Background(), "repo1", "robot.py#Robot.run")
	require.NoError(t, err)
	assert.False(t, ok)

	rels, err := repo.RelationshipsByDocumentID(context.Background(), "doc-robot")
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestBadgerRepository_AllNodesAndRelationshipsByRepo(t *testing.T) {
	repo := setupTestRepository(t)
	seedRepo(t, repo)

	nodes, err := repo.AllNodes(context.Background(), "repo1")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	rels, err := repo.RelationshipsByRepo(context.Background(), "repo1")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "doc-robot", rels[0].FromDocumentID)
}

func TestBadgerRepository_UpdateSummary(t *testing.T) {
	repo := setupTestRepository(t)
	require.NoError(t, repo.ReplaceRepo(context.Background(), "repo1", []DocumentNode{
		{DocumentID: "doc-file", RepoID: "repo1", CanonicalID: "file_document_ing-1", DocType: "document"},
	}, nil))

	require.NoError(t, repo.UpdateSummary(context.Background(), "ing-1", "a concise summary"))

	node, ok, err := repo.GetNodeByCanonicalID(context.Background(), "repo1", "file_document_ing-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a concise summary", node.Summary)
}

func TestBadgerRepository_ListRepos(t *testing.T) {
	repo := setupTestRepository(t)
	seedRepo(t, repo)

	summaries, err := repo.ListRepos(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "repo1", summaries[0].ID)
	assert.Equal(t, 2, summaries[0].NodeCount)
}
