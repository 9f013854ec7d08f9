// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRepoID_NormalizationEquivalence(t *testing.T) {
	base := "https://github.com/acme/widgets"

	want := BuildRepoID(base)

	assert.Equal(t, want, BuildRepoID(base+"/"))
	assert.Equal(t, want, BuildRepoID(base+".git"))
	assert.Equal(t, want, BuildRepoID(strings_ToUpper(base)))
}

func strings_ToUpper(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func TestBuildRepoID_DifferentURLsDiffer(t *testing.T) {
	a := BuildRepoID("https://github.com/acme/widgets")
	b := BuildRepoID("https://github.com/acme/gadgets")
	assert.NotEqual(t, a, b)
}

func TestBuildModuleCanonicalID(t *testing.T) {
	assert.Equal(t, "pkg/util.py", BuildModuleCanonicalID("pkg/util.py"))
}

func TestBuildSymbolCanonicalID(t *testing.T) {
	assert.Equal(t, "pkg/util.py#Widget.render", BuildSymbolCanonicalID("pkg/util.py", "Widget.render"))
}

func TestBuildSymbolCanonicalID_StripsDoublePrefix(t *testing.T) {
	got := BuildSymbolCanonicalID("pkg/util.py", "pkg/util.py#Widget.render")
	assert.Equal(t, "pkg/util.py#Widget.render", got)
}

func TestBuildSectionCanonicalID(t *testing.T) {
	assert.Equal(t, "README.md#install", BuildSectionCanonicalID("README.md", "install"))
}

func TestBuildNestedSectionCanonicalID(t *testing.T) {
	assert.Equal(t, "README.md#install.docker", BuildNestedSectionCanonicalID("README.md", "install", "docker"))
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Install":       "install",
		"Docker Setup!": "docker_setup",
		"  spaced  ":    "spaced",
		"C++ Guide":     "c_guide",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestSlugDeduper(t *testing.T) {
	d := NewSlugDeduper()
	assert.Equal(t, "setup", d.Dedupe("Setup"))
	assert.Equal(t, "setup_2", d.Dedupe("Setup"))
	assert.Equal(t, "setup_3", d.Dedupe("Setup"))
	assert.Equal(t, "install", d.Dedupe("Install"))
}
