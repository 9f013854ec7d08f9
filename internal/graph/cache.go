// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"context"
	"sync"
)

// GraphClient loads the persisted relationship export for a repository so a
// Cache can materialize its CodebaseGraph. The store package implements
// this against its DocumentRelationship repository; tests can supply a
// fake.
type GraphClient interface {
	LoadRelationships(ctx context.Context, repoID string) ([]Relationship, error)
}

// Cache is a process-wide, lazily-populated repo_id -> CodebaseGraph cache.
//
// The source system keeps this kind of cache as a bare module-level global.
// Per the accompanying redesign note, Cache here is an explicitly
// constructed value with its own lifetime: callers hold a *Cache (typically
// one per process, wired at startup) rather than reaching for a package
// global, which keeps it mockable in tests and avoids hidden shared state
// across unrelated test binaries.
type Cache struct {
	client GraphClient

	mu    sync.RWMutex
	graphs map[string]*CodebaseGraph
}

// NewCache returns a Cache backed by client.
func NewCache(client GraphClient) *Cache {
	return &Cache{
		client: client,
		graphs: make(map[string]*CodebaseGraph),
	}
}

// Get returns the CodebaseGraph for repoID, building and caching it on
// first access.
func (c *Cache) Get(ctx context.Context, repoID string) (*CodebaseGraph, error) {
	c.mu.RLock()
	g, ok := c.graphs[repoID]
	c.mu.RUnlock()
	if ok {
		return g, nil
	}

	rels, err := c.client.LoadRelationships(ctx, repoID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if g, ok := c.graphs[repoID]; ok {
		// another goroutine populated it while we were loading.
		return g, nil
	}
	g = BuildCodebaseGraph(rels)
	c.graphs[repoID] = g
	return g, nil
}

// Invalidate drops repoID's cached graph, if any, so the next Get rebuilds
// it from storage. Callers invoke this after an ingestion run mutates a
// repository's relationships.
func (c *Cache) Invalidate(repoID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.graphs, repoID)
}
