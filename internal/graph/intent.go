// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import "strings"

// Strategy is a partially-applied traversal: a relation type, a direction,
// and (implicitly, per spec §4.5) depth 1. Modeling strategies as values
// rather than a type switch lets the selector below return a plain slice
// that the retrieval engine executes uniformly.
type Strategy struct {
	Relation  RelationType
	Direction Direction
}

// Run executes the strategy against g starting at startCID, returning
// discovered canonical_ids (excluding the start node).
func (s Strategy) Run(g *CodebaseGraph, startCID string) []string {
	allowed := map[RelationType]bool{s.Relation: true}
	return BFS(g, startCID, allowed, s.Direction, 1)
}

var (
	strategyDefinesForward = Strategy{Relation: RelationDefines, Direction: DirectionForward}
	strategyCallReverse    = Strategy{Relation: RelationCall, Direction: DirectionReverse}
	strategyCallForward    = Strategy{Relation: RelationCall, Direction: DirectionForward}
	strategyImportReverse  = Strategy{Relation: RelationImport, Direction: DirectionReverse}
)

// intentRule pairs a set of token triggers with the strategies they select.
// Rules are tried in order; the first whose trigger appears in the query
// wins (spec §4.5's "first match wins").
type intentRule struct {
	triggers   []string
	strategies []Strategy
}

var intentRules = []intentRule{
	{
		triggers:   []string{"method", "methods", "function", "functions", "class", "classes", "in"},
		strategies: []Strategy{strategyDefinesForward},
	},
	{
		triggers:   []string{"callers", "called by", "who calls"},
		strategies: []Strategy{strategyCallReverse},
	},
	{
		triggers:   []string{"calls", "call"},
		strategies: []Strategy{strategyCallForward},
	},
	{
		triggers:   []string{"import"},
		strategies: []Strategy{strategyImportReverse},
	},
}

// defaultStrategies is used when no rule's trigger matches the query.
var defaultStrategies = []Strategy{strategyDefinesForward, strategyCallForward}

// SelectStrategies maps a natural-language query to the set of traversal
// strategies that should expand a vector-search seed, per spec §4.5's
// query-token table.
func SelectStrategies(query string) []Strategy {
	lower := strings.ToLower(query)
	for _, rule := range intentRules {
		for _, trigger := range rule.triggers {
			if strings.Contains(lower, trigger) {
				return rule.strategies
			}
		}
	}
	return defaultStrategies
}

// RunStrategies executes every strategy from startCID and returns the
// concatenated results, deduplicated by canonical_id while preserving first
// occurrence order.
func RunStrategies(g *CodebaseGraph, startCID string, strategies []Strategy) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range strategies {
		for _, id := range s.Run(g, startCID) {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
