// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import "sort"

// Direction selects which adjacency a BFS traversal follows.
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionReverse Direction = "reverse"
)

// BFS walks g starting at startCID, following edges of direction dir whose
// relation type is in allowed (or any type, if allowed is nil), up to
// maxDepth hops. It returns visited nodes in discovery order, excluding the
// start node, never revisiting a node.
//
// Edges at each node are walked in a stable order (sorted by target id)
// even though discovery order across the whole BFS is queue order, so that
// traversal over an equivalent graph is reproducible (spec §5).
func BFS(g *CodebaseGraph, startCID string, allowed map[RelationType]bool, dir Direction, maxDepth int) []string {
	if maxDepth <= 0 {
		return nil
	}

	type queued struct {
		id    string
		depth int
	}

	visited := map[string]bool{startCID: true}
	order := make([]string, 0)
	queue := []queued{{id: startCID, depth: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}

		node, ok := g.Nodes[cur.id]
		if !ok {
			continue
		}

		for _, target := range neighbors(node, dir, allowed) {
			if visited[target] {
				continue
			}
			visited[target] = true
			order = append(order, target)
			queue = append(queue, queued{id: target, depth: cur.depth + 1})
		}
	}

	return order
}

// neighbors returns node's adjacency for direction dir, restricted to
// allowed relation types (all types, if allowed is nil), sorted by target
// canonical_id for deterministic exploration order.
func neighbors(node *Node, dir Direction, allowed map[RelationType]bool) []string {
	adjacency := node.Out
	if dir == DirectionReverse {
		adjacency = node.In
	}

	var out []string
	for relation, targets := range adjacency {
		if allowed != nil && !allowed[relation] {
			continue
		}
		out = append(out, targets...)
	}
	sort.Strings(out)
	return out
}
