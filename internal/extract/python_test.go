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

func findArtifact(artifacts []*graph.Artifact, id string) *graph.Artifact {
	for _, a := range artifacts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func TestPythonExtractor_ModuleAndFunction(t *testing.T) {
	src := `def greet(name):
    return "hi " + name
`
	artifacts, err := NewPythonExtractor().Extract("pkg/a.py", []byte(src))
	require.NoError(t, err)

	mod := findArtifact(artifacts, "pkg/a.py")
	require.NotNil(t, mod)
	assert.Equal(t, graph.ArtifactModule, mod.Type)

	fn := findArtifact(artifacts, "pkg/a.py#greet")
	require.NotNil(t, fn)
	assert.Equal(t, graph.ArtifactFunction, fn.Type)
	assert.Equal(t, "pkg/a.py", fn.ParentID)
	assert.False(t, fn.Function.IsMethod)
}

func TestPythonExtractor_ClassMethodIsMethodNotFunction(t *testing.T) {
	src := `class Widget:
    def render(self):
        pass
`
	artifacts, err := NewPythonExtractor().Extract("pkg/a.py", []byte(src))
	require.NoError(t, err)

	cls := findArtifact(artifacts, "pkg/a.py#Widget")
	require.NotNil(t, cls)
	assert.Equal(t, graph.ArtifactClass, cls.Type)

	method := findArtifact(artifacts, "pkg/a.py#Widget.render")
	require.NotNil(t, method)
	assert.Equal(t, graph.ArtifactMethod, method.Type)
	assert.True(t, method.Function.IsMethod)
	assert.Equal(t, "pkg/a.py#Widget", method.ParentID)
}

func TestPythonExtractor_AttributeCallUsesReceiverDotAttr(t *testing.T) {
	src := `class Robot:
    def run(self):
        self.go()

    def go(self):
        pass
`
	artifacts, err := NewPythonExtractor().Extract("pkg/a.py", []byte(src))
	require.NoError(t, err)

	var calls []*graph.Artifact
	for _, a := range artifacts {
		if a.Type == graph.ArtifactCall {
			calls = append(calls, a)
		}
	}
	require.Len(t, calls, 1)
	assert.Equal(t, "self.go", calls[0].Call.Callee)
	assert.Equal(t, "pkg/a.py#Robot.run", calls[0].ParentID)
}

func TestPythonExtractor_PlainImport(t *testing.T) {
	src := "import os\n"
	artifacts, err := NewPythonExtractor().Extract("pkg/a.py", []byte(src))
	require.NoError(t, err)

	var imports []*graph.Artifact
	for _, a := range artifacts {
		if a.Type == graph.ArtifactImport {
			imports = append(imports, a)
		}
	}
	require.Len(t, imports, 1)
	assert.Equal(t, "os", imports[0].Import.ImportedModule)
}

func TestPythonExtractor_FromImportWithAlias(t *testing.T) {
	src := "from collections import OrderedDict as OD\n"
	artifacts, err := NewPythonExtractor().Extract("pkg/a.py", []byte(src))
	require.NoError(t, err)

	var imports []*graph.Artifact
	for _, a := range artifacts {
		if a.Type == graph.ArtifactImport {
			imports = append(imports, a)
		}
	}
	require.Len(t, imports, 1)
	assert.Equal(t, "collections.OrderedDict", imports[0].Import.ImportedModule)
	assert.Equal(t, "OD", imports[0].Import.Alias)
}

func TestPythonExtractor_EmptyFileProducesOnlyModule(t *testing.T) {
	artifacts, err := NewPythonExtractor().Extract("pkg/empty.py", []byte(""))
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, graph.ArtifactModule, artifacts[0].Type)
}
