// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGitDiffLine_Added(t *testing.T) {
	fd, err := parseGitDiffLine("A\tmain.py")
	require.NoError(t, err)
	assert.Equal(t, ChangeAdded, fd.Change)
	assert.Equal(t, "main.py", fd.Path)
}

func TestParseGitDiffLine_Renamed(t *testing.T) {
	fd, err := parseGitDiffLine("R100\told.py\tnew.py")
	require.NoError(t, err)
	assert.Equal(t, ChangeRenamed, fd.Change)
	assert.Equal(t, "old.py", fd.OldPath)
	assert.Equal(t, "new.py", fd.Path)
}

func TestParseGitDiffLine_Malformed(t *testing.T) {
	_, err := parseGitDiffLine("not a diff line")
	assert.Error(t, err)
}

func TestParseGitDiffLine_UnrecognizedStatus(t *testing.T) {
	_, err := parseGitDiffLine("Z\tfile.py")
	assert.Error(t, err)
}

func TestGitDelta_HasChanges(t *testing.T) {
	empty := &GitDelta{}
	assert.False(t, empty.HasChanges())

	withChanges := &GitDelta{All: []FileDelta{{Change: ChangeAdded, Path: "a.py"}}}
	assert.True(t, withChanges.HasChanges())
}

func TestUnquoteGitPath_PlainPathUnchanged(t *testing.T) {
	assert.Equal(t, "plain/path.py", unquoteGitPath("plain/path.py"))
}
