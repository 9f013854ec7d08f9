// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hybridcore/ragcore/internal/graph"
)

func sectionsByID(artifacts []*graph.Artifact) map[string]*graph.Artifact {
	out := make(map[string]*graph.Artifact)
	for _, a := range artifacts {
		out[a.ID] = a
	}
	return out
}

// TestMarkdownExtractor_NestingFollowsHeadingLevel covers spec §8 scenario
// 1: a level-2 heading nested under a level-1 heading produces a
// "<parent_slug>.<slug>" canonical_id.
func TestMarkdownExtractor_NestingFollowsHeadingLevel(t *testing.T) {
	content := []byte("# Install\n\nSome intro text.\n\n## Docker\n\nDocker instructions.\n")
	artifacts, err := NewMarkdownExtractor().Extract("README.md", content)
	require.NoError(t, err)

	byID := sectionsByID(artifacts)
	require.Contains(t, byID, "README.md")
	require.Contains(t, byID, "README.md#install")
	require.Contains(t, byID, "README.md#install.docker")

	docker := byID["README.md#install.docker"]
	assert.Equal(t, "README.md#install", docker.ParentID)
	assert.Equal(t, 2, docker.Section.Level)
	assert.Equal(t, "install", docker.Section.ParentSlug)
}

// TestMarkdownExtractor_PopsStackOnShallowerHeading covers a level-1 heading
// following a level-2 section: the new heading must attach to the module,
// not to the previous level-2 section.
func TestMarkdownExtractor_PopsStackOnShallowerHeading(t *testing.T) {
	content := []byte("# Install\n\n## Docker\n\nDocker bits.\n\n# Usage\n\nUsage bits.\n")
	artifacts, err := NewMarkdownExtractor().Extract("README.md", content)
	require.NoError(t, err)

	byID := sectionsByID(artifacts)
	usage := byID["README.md#usage"]
	require.NotNil(t, usage)
	assert.Equal(t, "README.md", usage.ParentID)
}

// TestMarkdownExtractor_DuplicateHeadingsGetSuffixedSlugs covers spec §8
// scenario 2.
func TestMarkdownExtractor_DuplicateHeadingsGetSuffixedSlugs(t *testing.T) {
	content := []byte("# Setup\n\nFirst.\n\n# Setup\n\nSecond.\n")
	artifacts, err := NewMarkdownExtractor().Extract("doc.md", content)
	require.NoError(t, err)

	byID := sectionsByID(artifacts)
	require.Contains(t, byID, "doc.md#setup")
	require.Contains(t, byID, "doc.md#setup_2")
}

func TestMarkdownExtractor_SectionTextStopsAtNextHeadingOfEqualOrShallowerLevel(t *testing.T) {
	content := []byte("# A\n\nbody a\n\n## B\n\nbody b\n\n# C\n\nbody c\n")
	artifacts, err := NewMarkdownExtractor().Extract("doc.md", content)
	require.NoError(t, err)

	byID := sectionsByID(artifacts)
	a := byID["doc.md#a"]
	assert.NotContains(t, a.Text, "body c")
	assert.Contains(t, a.Text, "body a")
	assert.Contains(t, a.Text, "body b")
}

func TestMarkdownExtractor_NoHeadingsYieldsOnlyModule(t *testing.T) {
	content := []byte("just some text\nwith no headings\n")
	artifacts, err := NewMarkdownExtractor().Extract("doc.md", content)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, graph.ArtifactMarkdownModule, artifacts[0].Type)
	assert.Equal(t, content, []byte(artifacts[0].Text))
}

func TestMarkdownExtractor_IgnoresHeadingLikeTextInsideFencedCodeBlock(t *testing.T) {
	content := []byte("# Real Heading\n\n```\n# not a heading\n```\n")
	artifacts, err := NewMarkdownExtractor().Extract("doc.md", content)
	require.NoError(t, err)

	byID := sectionsByID(artifacts)
	assert.Contains(t, byID, "doc.md#real_heading")
	assert.NotContains(t, byID, "doc.md#not_a_heading")
}
