// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func artifact(typ ArtifactType, id, name, parentID string) *Artifact {
	return &Artifact{Type: typ, ID: id, Name: name, ParentID: parentID}
}

func TestBuilder_DeriveDefines(t *testing.T) {
	b := NewBuilder()
	mod := artifact(ArtifactModule, "pkg/a.py", "a.py", "")
	cls := artifact(ArtifactClass, "pkg/a.py#Widget", "Widget", "pkg/a.py")
	method := artifact(ArtifactMethod, "pkg/a.py#Widget.render", "render", "pkg/a.py#Widget")
	b.AddFile([]*Artifact{mod, cls, method})

	g, err := b.Build()
	require.NoError(t, err)

	assert.Contains(t, g.Relationships, Relationship{
		FromCanonicalID: "pkg/a.py",
		ToCanonicalID:   "pkg/a.py#Widget",
		Type:            RelationDefines,
	})
	assert.Contains(t, g.Relationships, Relationship{
		FromCanonicalID: "pkg/a.py#Widget",
		ToCanonicalID:   "pkg/a.py#Widget.render",
		Type:            RelationDefines,
	})
}

// TestBuilder_LocalCallPreferredOverSymbolTable covers the local lexical
// step: a call to "self.go" made inside a function nested in method
// Robot.go resolves up the ancestor chain to Robot.go, even though a free
// function named "go" also exists elsewhere in the repo.
func TestBuilder_LocalCallPreferredOverSymbolTable(t *testing.T) {
	b := NewBuilder()

	mod := artifact(ArtifactModule, "pkg/a.py", "a.py", "")
	cls := artifact(ArtifactClass, "pkg/a.py#Robot", "Robot", "pkg/a.py")
	run := artifact(ArtifactFunction, "pkg/a.py#Robot.go.run", "run", "pkg/a.py#Robot.go")
	localGo := artifact(ArtifactMethod, "pkg/a.py#Robot.go", "go", "pkg/a.py#Robot")
	call := artifact(ArtifactCall, "pkg/a.py#Robot.go.run#call0", "", "pkg/a.py#Robot.go.run")
	call.Call = &CallMeta{Callee: "self.go"}

	otherMod := artifact(ArtifactModule, "pkg/b.py", "b.py", "")
	freeGo := artifact(ArtifactFunction, "pkg/b.py#go", "go", "pkg/b.py")

	b.AddFile([]*Artifact{mod, cls, run, localGo, call})
	b.AddFile([]*Artifact{otherMod, freeGo})

	g, err := b.Build()
	require.NoError(t, err)

	assert.Contains(t, g.Relationships, Relationship{
		FromCanonicalID: "pkg/a.py#Robot.go.run",
		ToCanonicalID:   "pkg/a.py#Robot.go",
		Type:            RelationCall,
		Metadata:        map[string]any{MetaConfidence: ConfidenceLocal},
	})
}

// TestBuilder_CallFallsBackToSymbolTable covers the case where no enclosing
// scope defines the callee: the flat symbol table resolves it instead, at
// reduced confidence.
func TestBuilder_CallFallsBackToSymbolTable(t *testing.T) {
	b := NewBuilder()

	mod := artifact(ArtifactModule, "pkg/a.py", "a.py", "")
	fn := artifact(ArtifactFunction, "pkg/a.py#main", "main", "pkg/a.py")
	call := artifact(ArtifactCall, "pkg/a.py#main#call0", "", "pkg/a.py#main")
	call.Call = &CallMeta{Callee: "helper"}

	otherMod := artifact(ArtifactModule, "pkg/b.py", "b.py", "")
	helper := artifact(ArtifactFunction, "pkg/b.py#helper", "helper", "pkg/b.py")

	b.AddFile([]*Artifact{mod, fn, call})
	b.AddFile([]*Artifact{otherMod, helper})

	g, err := b.Build()
	require.NoError(t, err)

	assert.Contains(t, g.Relationships, Relationship{
		FromCanonicalID: "pkg/a.py#main",
		ToCanonicalID:   "pkg/b.py#helper",
		Type:            RelationCall,
		Metadata:        map[string]any{MetaConfidence: ConfidenceTable},
	})
}

// TestBuilder_UnresolvedCallDropped covers an external/unknown callee: no
// CALL edge is emitted and Build still succeeds.
func TestBuilder_UnresolvedCallDropped(t *testing.T) {
	b := NewBuilder()
	mod := artifact(ArtifactModule, "pkg/a.py", "a.py", "")
	fn := artifact(ArtifactFunction, "pkg/a.py#main", "main", "pkg/a.py")
	call := artifact(ArtifactCall, "pkg/a.py#main#call0", "", "pkg/a.py#main")
	call.Call = &CallMeta{Callee: "os.getenv"}
	b.AddFile([]*Artifact{mod, fn, call})

	g, err := b.Build()
	require.NoError(t, err)

	for _, r := range g.Relationships {
		assert.NotEqual(t, RelationCall, r.Type)
	}
}

func TestBuilder_UnknownCalleeSkipped(t *testing.T) {
	b := NewBuilder()
	mod := artifact(ArtifactModule, "pkg/a.py", "a.py", "")
	fn := artifact(ArtifactFunction, "pkg/a.py#main", "main", "pkg/a.py")
	call := artifact(ArtifactCall, "pkg/a.py#main#call0", "", "pkg/a.py#main")
	call.Call = &CallMeta{Callee: UnknownCallee}
	b.AddFile([]*Artifact{mod, fn, call})

	g, err := b.Build()
	require.NoError(t, err)
	assert.Empty(t, g.Relationships)
}

// TestBuilder_DocumentsExactHeadingMatch covers spec §8 scenario 4: a
// Markdown section whose heading names a class verbatim links to it.
func TestBuilder_DocumentsExactHeadingMatch(t *testing.T) {
	b := NewBuilder()
	mod := artifact(ArtifactModule, "pkg/a.py", "a.py", "")
	cls := artifact(ArtifactClass, "pkg/a.py#Widget", "Widget", "pkg/a.py")

	readme := artifact(ArtifactMarkdownModule, "README.md", "README.md", "")
	section := artifact(ArtifactMarkdownSection, "README.md#widget", "Widget", "README.md")
	section.Section = &SectionMeta{Level: 1, Slug: "widget", Heading: "Widget"}

	b.AddFile([]*Artifact{mod, cls})
	b.AddFile([]*Artifact{readme, section})

	g, err := b.Build()
	require.NoError(t, err)

	assert.Contains(t, g.Relationships, Relationship{
		FromCanonicalID: "README.md#widget",
		ToCanonicalID:   "pkg/a.py#Widget",
		Type:            RelationDocuments,
		Metadata: map[string]any{
			MetaMatchStrategy: MatchStrategyExactName,
			MetaSectionName:   "Widget",
			MetaConfidence:    ConfidenceLocal,
		},
	})
}

// TestBuilder_DocumentsFallsBackToLowercasedHeading covers the
// case-insensitive fallback lookup.
func TestBuilder_DocumentsFallsBackToLowercasedHeading(t *testing.T) {
	b := NewBuilder()
	mod := artifact(ArtifactModule, "pkg/a.py", "a.py", "")
	fn := artifact(ArtifactFunction, "pkg/a.py#widget", "widget", "pkg/a.py")

	readme := artifact(ArtifactMarkdownModule, "README.md", "README.md", "")
	section := artifact(ArtifactMarkdownSection, "README.md#widget", "Widget", "README.md")
	section.Section = &SectionMeta{Level: 1, Slug: "widget", Heading: " Widget "}

	b.AddFile([]*Artifact{mod, fn})
	b.AddFile([]*Artifact{readme, section})

	g, err := b.Build()
	require.NoError(t, err)

	assert.Contains(t, g.Relationships, Relationship{
		FromCanonicalID: "README.md#widget",
		ToCanonicalID:   "pkg/a.py#widget",
		Type:            RelationDocuments,
		Metadata: map[string]any{
			MetaMatchStrategy: MatchStrategyExactName,
			MetaSectionName:   " Widget ",
			MetaConfidence:    ConfidenceLocal,
		},
	})
}

func TestBuilder_DocumentsSkipsSelfReference(t *testing.T) {
	b := NewBuilder()
	readme := artifact(ArtifactMarkdownModule, "README.md", "README.md", "")
	section := artifact(ArtifactMarkdownSection, "README.md#install", "Install", "README.md")
	section.Section = &SectionMeta{Level: 1, Slug: "install", Heading: "Install"}
	// Nothing else shares the name "Install" except the section itself
	// were it (incorrectly) indexed; confirm no self-loop is produced.
	b.AddFile([]*Artifact{readme, section})

	g, err := b.Build()
	require.NoError(t, err)
	assert.Empty(t, g.Relationships)
}

func TestRepoGraph_ValidateRejectsDanglingParent(t *testing.T) {
	g := NewRepoGraph()
	g.AddArtifact(artifact(ArtifactClass, "pkg/a.py#Widget", "Widget", "pkg/a.py"))
	assert.Error(t, g.Validate())
}

func TestRepoGraph_AddRelationshipRejectsSelfLoop(t *testing.T) {
	g := NewRepoGraph()
	err := g.AddRelationship(Relationship{FromCanonicalID: "x", ToCanonicalID: "x", Type: RelationCall})
	assert.Error(t, err)
}

func TestRepoGraph_AddRelationshipDedupsExactTriples(t *testing.T) {
	g := NewRepoGraph()
	r := Relationship{FromCanonicalID: "a", ToCanonicalID: "b", Type: RelationCall}
	require.NoError(t, g.AddRelationship(r))
	require.NoError(t, g.AddRelationship(r))
	assert.Len(t, g.Relationships, 1)
}
