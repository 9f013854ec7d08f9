// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybridcore/ragcore/internal/graph"
)

func TestGraphAdapter_TranslatesDocumentIDsToCanonicalIDs(t *testing.T) {
	repo := NewMemoryRepository()
	seedRepo(t, repo)

	adapter := NewGraphAdapter(repo)
	rels, err := adapter.LoadRelationships(context.Background(), "repo1")
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "robot.py#Robot", rels[0].FromCanonicalID)
	assert.Equal(t, "robot.py#Robot.run", rels[0].ToCanonicalID)
	assert.Equal(t, graph.RelationDefines, rels[0].Type)
}

func TestGraphAdapter_SkipsEdgesWithDeletedEndpoints(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.ReplaceRepo(context.Background(), "repo1", []DocumentNode{
		{DocumentID: "doc-robot", RepoID: "repo1", CanonicalID: "robot.py#Robot"},
	}, []DocumentRelationship{
		{FromDocumentID: "doc-robot", ToDocumentID: "doc-gone", RelationType: "DEFINES"},
	}))

	adapter := NewGraphAdapter(repo)
	rels, err := adapter.LoadRelationships(context.Background(), "repo1")
	require.NoError(t, err)
	assert.Empty(t, rels)
}
