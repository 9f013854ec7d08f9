// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildTestGraph() *CodebaseGraph {
	return BuildCodebaseGraph([]Relationship{
		{FromCanonicalID: "pkg/a.py#Widget", ToCanonicalID: "pkg/a.py#Widget.render", Type: RelationDefines},
		{FromCanonicalID: "pkg/a.py#Widget", ToCanonicalID: "pkg/a.py#Widget.resize", Type: RelationDefines},
		{FromCanonicalID: "pkg/a.py#Widget.render", ToCanonicalID: "pkg/a.py#draw", Type: RelationCall},
		{FromCanonicalID: "pkg/a.py#main", ToCanonicalID: "pkg/a.py#Widget.render", Type: RelationCall},
		{FromCanonicalID: "pkg/a.py", ToCanonicalID: "pkg/b.py", Type: RelationImport},
	})
}

func TestBFS_ForwardDefinesDepth1(t *testing.T) {
	g := buildTestGraph()
	got := BFS(g, "pkg/a.py#Widget", map[RelationType]bool{RelationDefines: true}, DirectionForward, 1)
	assert.Equal(t, []string{"pkg/a.py#Widget.render", "pkg/a.py#Widget.resize"}, got)
}

func TestBFS_ReverseCallFindsCallers(t *testing.T) {
	g := buildTestGraph()
	got := BFS(g, "pkg/a.py#Widget.render", map[RelationType]bool{RelationCall: true}, DirectionReverse, 1)
	assert.Equal(t, []string{"pkg/a.py#main"}, got)
}

func TestBFS_MaxDepthZeroReturnsNothing(t *testing.T) {
	g := buildTestGraph()
	assert.Nil(t, BFS(g, "pkg/a.py#Widget", map[RelationType]bool{RelationDefines: true}, DirectionForward, 0))
}

func TestBFS_NeverRevisitsStartNode(t *testing.T) {
	g := BuildCodebaseGraph([]Relationship{
		{FromCanonicalID: "a", ToCanonicalID: "b", Type: RelationCall},
		{FromCanonicalID: "b", ToCanonicalID: "a", Type: RelationCall},
	})
	got := BFS(g, "a", map[RelationType]bool{RelationCall: true}, DirectionForward, 5)
	assert.Equal(t, []string{"b"}, got)
}

func TestBFS_UnknownStartReturnsEmpty(t *testing.T) {
	g := buildTestGraph()
	assert.Empty(t, BFS(g, "pkg/a.py#nope", nil, DirectionForward, 2))
}
