// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointManager_LoadMissingReturnsEmpty(t *testing.T) {
	mgr, err := NewCheckpointManager(t.TempDir())
	require.NoError(t, err)

	cp, err := mgr.Load("repo1")
	require.NoError(t, err)
	assert.Empty(t, cp.FileHashes)
	assert.Equal(t, "repo1", cp.RepoID)
}

func TestCheckpointManager_SaveThenLoadRoundTrips(t *testing.T) {
	mgr, err := NewCheckpointManager(t.TempDir())
	require.NoError(t, err)

	cp := Checkpoint{
		RepoID:         "repo1",
		LastHeadSHA:    "abc123",
		FileHashes:     map[string]string{"main.py": "deadbeef"},
		FilesProcessed: 3,
		ChunksWritten:  9,
		StartTime:      time.Unix(1000, 0).UTC(),
		LastUpdateTime: time.Unix(2000, 0).UTC(),
	}
	require.NoError(t, mgr.Save(cp))

	got, err := mgr.Load("repo1")
	require.NoError(t, err)
	assert.Equal(t, cp.LastHeadSHA, got.LastHeadSHA)
	assert.Equal(t, cp.FileHashes, got.FileHashes)
	assert.Equal(t, cp.FilesProcessed, got.FilesProcessed)
}

func TestCheckpointManager_Clear(t *testing.T) {
	mgr, err := NewCheckpointManager(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, mgr.Save(Checkpoint{RepoID: "repo1", FileHashes: map[string]string{}}))

	require.NoError(t, mgr.Clear("repo1"))

	cp, err := mgr.Load("repo1")
	require.NoError(t, err)
	assert.Empty(t, cp.FileHashes)
}

func TestCheckpointManager_ClearMissingIsNotError(t *testing.T) {
	mgr, err := NewCheckpointManager(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, mgr.Clear("never-existed"))
}
