// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectStrategies(t *testing.T) {
	cases := []struct {
		query string
		want  []Strategy
	}{
		{"what methods are in the Widget class", []Strategy{strategyDefinesForward}},
		{"who calls render", []Strategy{strategyCallReverse}},
		{"what does render call", []Strategy{strategyCallForward}},
		{"what does this file import", []Strategy{strategyImportReverse}},
		{"tell me about widgets", defaultStrategies},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SelectStrategies(c.query), "query %q", c.query)
	}
}

func TestRunStrategies_DedupsByCanonicalID(t *testing.T) {
	g := BuildCodebaseGraph([]Relationship{
		{FromCanonicalID: "pkg/a.py#Widget", ToCanonicalID: "pkg/a.py#Widget.render", Type: RelationDefines},
		{FromCanonicalID: "caller1", ToCanonicalID: "pkg/a.py#Widget.render", Type: RelationCall},
	})
	got := RunStrategies(g, "pkg/a.py#Widget.render", []Strategy{strategyCallReverse, strategyCallReverse})
	assert.Equal(t, []string{"caller1"}, got)
}
