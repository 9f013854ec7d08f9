// Copyright 2026 Hybridcore
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package retrieve implements the hybrid retrieval engine: vector search,
// canonical_id extraction, intent-classified graph traversal, document-id
// resolution, per-document chunk hydration, and token-budgeted context
// assembly ahead of an LLM call.
package retrieve

import (
	"context"
	"fmt"

	"github.com/hybridcore/ragcore/internal/graph"
	"github.com/hybridcore/ragcore/internal/llmfacade"
	"github.com/hybridcore/ragcore/internal/vectorstore"
)

// Embedder maps a query string to a single embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GraphResolver resolves canonical_ids to document_ids within a repo — the
// "graph API" export spec §4.6 step 5 calls out, backed in production by
// internal/store's DocumentNode repository.
type GraphResolver interface {
	ResolveDocumentIDs(ctx context.Context, repoID string, canonicalIDs []string) (map[string]string, error)
}

const (
	defaultTopK             = 8
	defaultTopKPerDocument  = 5
	defaultTokenBudget      = 3000
	canonicalIDMetadataKey  = "canonical_id"
	sourceMetadataKey       = "source_metadata"
	documentOnlyCodeFilter  = "code"
	documentTypeMetadataKey = "doc_type"
	sourceTypeMetadataKey   = "source_type"
)

// Engine wires the retrieval-time collaborators together. Tests supply fakes
// for the interfaces and for the GraphClient behind GraphCache; httpapi wires
// the real implementations.
type Engine struct {
	Embedder      Embedder
	Vectors       vectorstore.Store
	GraphCache    *graph.Cache
	GraphResolver GraphResolver
	LLM           llmfacade.Provider

	// ProviderFactory resolves a per-request provider override (spec §6's
	// `provider` field on /v1/rag and /v1/rag/simple). Optional; when nil
	// or the request leaves Provider empty, LLM is used unchanged.
	ProviderFactory func(providerType string) (llmfacade.Provider, error)

	TokenCounter TokenCounter
	TokenBudget  int
}

func (e *Engine) resolveProvider(providerType string) (llmfacade.Provider, error) {
	if providerType == "" || e.ProviderFactory == nil {
		return e.LLM, nil
	}
	return e.ProviderFactory(providerType)
}

// Request is a /v1/rag request.
type Request struct {
	Query    string
	RepoID   string // required by Query; ignored by QuerySimple
	TopK     int
	Provider string
	Model    string
}

// PlanSummary is the retrieval_plan object returned to the caller, per
// spec §6's /v1/rag response shape.
type PlanSummary struct {
	SeedCanonicalIDs     []string `json:"seed_canonical_ids"`
	ExpandedCanonicalIDs []string `json:"expanded_canonical_ids"`
	SeedDocs             []string `json:"seed_docs"`
	ExpandedDocs         []string `json:"expanded_docs"`
	TotalDocs            int      `json:"total_docs"`
}

// Response is the result of a retrieval + synthesis run.
type Response struct {
	Answer  string      `json:"answer"`
	Sources []string    `json:"sources"`
	RepoID  string      `json:"repo_id,omitempty"`
	Plan    PlanSummary `json:"retrieval_plan,omitempty"`
}

func (e *Engine) tokenBudget() int {
	if e.TokenBudget > 0 {
		return e.TokenBudget
	}
	return defaultTokenBudget
}

func (e *Engine) tokenCounter() TokenCounter {
	if e.TokenCounter != nil {
		return e.TokenCounter
	}
	return NewTokenCounter()
}

func topKOrDefault(k, def int) int {
	if k > 0 {
		return k
	}
	return def
}

// Query runs the repo-aware hybrid retrieval path (spec §4.6 steps 1-8) and
// returns a synthesized answer plus the retrieval plan summary.
func (e *Engine) Query(ctx context.Context, req Request) (*Response, error) {
	if req.RepoID == "" {
		return nil, fmt.Errorf("retrieve: repo_id is required for the repo-aware path")
	}

	topK := topKOrDefault(req.TopK, defaultTopK)

	queryVector, err := e.Embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed query: %w", err)
	}

	// Step 2: vector search, code-focused first, falling back to
	// unfiltered retrieval when nothing tagged doc_type=code is found.
	seedResults, err := e.Vectors.SimilaritySearch(ctx, queryVector, topK, vectorstore.Filter{documentTypeMetadataKey: documentOnlyCodeFilter})
	if err != nil {
		return nil, fmt.Errorf("retrieve: similarity search: %w", err)
	}
	if len(seedResults) == 0 {
		seedResults, err = e.Vectors.SimilaritySearch(ctx, queryVector, topK, nil)
		if err != nil {
			return nil, fmt.Errorf("retrieve: similarity search (unfiltered): %w", err)
		}
	}

	// Step 3: collect seed chunks, seed document order (first-seen, i.e.
	// rank order) and seed canonical_ids.
	chunksByDocument := map[string][]vectorstore.Result{}
	var seedDocumentOrder []string
	seedDocumentSet := map[string]bool{}
	var seedCanonicalIDs []string
	seenCanonicalID := map[string]bool{}

	for _, r := range seedResults {
		if r.DocumentID != "" && !seedDocumentSet[r.DocumentID] {
			seedDocumentSet[r.DocumentID] = true
			seedDocumentOrder = append(seedDocumentOrder, r.DocumentID)
		}
		if r.DocumentID != "" {
			chunksByDocument[r.DocumentID] = append(chunksByDocument[r.DocumentID], r)
		}
		if cid := extractCanonicalID(r.Metadata); cid != "" && !seenCanonicalID[cid] {
			seenCanonicalID[cid] = true
			seedCanonicalIDs = append(seedCanonicalIDs, cid)
		}
	}

	// Step 4: load the cached graph, pick the longest seed canonical_id as
	// the traversal start, run the intent-selected strategies.
	var expandedCanonicalIDs []string
	if len(seedCanonicalIDs) > 0 {
		g, err := e.GraphCache.Get(ctx, req.RepoID)
		if err != nil {
			return nil, fmt.Errorf("retrieve: load codebase graph: %w", err)
		}
		start := longest(seedCanonicalIDs)
		strategies := graph.SelectStrategies(req.Query)
		expandedCanonicalIDs = graph.RunStrategies(g, start, strategies)
	}

	// Step 5: resolve (seed ∪ expanded) canonical_ids to document_ids,
	// then find the expansions missing from the seed chunk set.
	allCanonicalIDs := append(append([]string{}, seedCanonicalIDs...), expandedCanonicalIDs...)
	resolved := map[string]string{}
	if e.GraphResolver != nil && len(allCanonicalIDs) > 0 {
		resolved, err = e.GraphResolver.ResolveDocumentIDs(ctx, req.RepoID, allCanonicalIDs)
		if err != nil {
			return nil, fmt.Errorf("retrieve: resolve canonical_ids: %w", err)
		}
	}

	var missingDocumentOrder []string
	seenMissing := map[string]bool{}
	for _, cid := range expandedCanonicalIDs {
		docID, ok := resolved[cid]
		if !ok || docID == "" {
			continue
		}
		if seedDocumentSet[docID] || seenMissing[docID] {
			continue
		}
		seenMissing[docID] = true
		missingDocumentOrder = append(missingDocumentOrder, docID)
	}

	// Step 6: hydrate each missing document's chunks.
	for _, docID := range missingDocumentOrder {
		chunks, err := e.Vectors.GetChunksByDocumentID(ctx, docID, topKOrDefault(req.TopK, defaultTopKPerDocument))
		if err != nil {
			return nil, fmt.Errorf("retrieve: hydrate document %s: %w", docID, err)
		}
		chunksByDocument[docID] = chunks
	}

	// Step 7: deterministic plan execution — seeds first, then expanded,
	// capped per document, rejecting chunks whose document_id mismatches
	// the bucket they were filed under.
	documentOrder := append(append([]string{}, seedDocumentOrder...), missingDocumentOrder...)
	flattened := executePlan(documentOrder, chunksByDocument, defaultTopKPerDocument)

	// Step 8: assemble a token-budgeted context and invoke the LLM.
	context := assembleContext(flattened, e.tokenCounter(), e.tokenBudget())

	provider, err := e.resolveProvider(req.Provider)
	if err != nil {
		return nil, fmt.Errorf("retrieve: resolve provider override: %w", err)
	}
	answer, err := llmfacade.Answer(ctx, provider, llmfacade.ContextPrompt{Query: req.Query, Context: context}, req.Model)
	if err != nil {
		return nil, err
	}

	return &Response{
		Answer:  answer,
		Sources: documentOrder,
		RepoID:  req.RepoID,
		Plan: PlanSummary{
			SeedCanonicalIDs:     seedCanonicalIDs,
			ExpandedCanonicalIDs: expandedCanonicalIDs,
			SeedDocs:             seedDocumentOrder,
			ExpandedDocs:         missingDocumentOrder,
			TotalDocs:            len(documentOrder),
		},
	}, nil
}

// QuerySimple runs the document-only path used by /v1/rag/simple: a plain
// vector search with source_type=code excluded, no graph traversal.
func (e *Engine) QuerySimple(ctx context.Context, req Request) (*Response, error) {
	topK := topKOrDefault(req.TopK, defaultTopK)

	queryVector, err := e.Embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("retrieve: embed query: %w", err)
	}

	results, err := e.Vectors.SimilaritySearch(ctx, queryVector, topK, vectorstore.Filter{
		sourceTypeMetadataKey: map[string]any{"ne": documentOnlyCodeFilter},
	})
	if err != nil {
		return nil, fmt.Errorf("retrieve: similarity search: %w", err)
	}

	var documentOrder []string
	seen := map[string]bool{}
	chunksByDocument := map[string][]vectorstore.Result{}
	for _, r := range results {
		if r.DocumentID != "" && !seen[r.DocumentID] {
			seen[r.DocumentID] = true
			documentOrder = append(documentOrder, r.DocumentID)
		}
		if r.DocumentID != "" {
			chunksByDocument[r.DocumentID] = append(chunksByDocument[r.DocumentID], r)
		}
	}

	flattened := executePlan(documentOrder, chunksByDocument, defaultTopKPerDocument)
	context := assembleContext(flattened, e.tokenCounter(), e.tokenBudget())

	provider, err := e.resolveProvider(req.Provider)
	if err != nil {
		return nil, fmt.Errorf("retrieve: resolve provider override: %w", err)
	}
	answer, err := llmfacade.Answer(ctx, provider, llmfacade.ContextPrompt{Query: req.Query, Context: context}, req.Model)
	if err != nil {
		return nil, err
	}

	return &Response{Answer: answer, Sources: documentOrder}, nil
}

// extractCanonicalID reads canonical_id from either the flat metadata map
// or its nested source_metadata, per spec §4.6 step 3.
func extractCanonicalID(metadata map[string]any) string {
	if metadata == nil {
		return ""
	}
	if v, ok := metadata[canonicalIDMetadataKey].(string); ok && v != "" {
		return v
	}
	if nested, ok := metadata[sourceMetadataKey].(map[string]any); ok {
		if v, ok := nested[canonicalIDMetadataKey].(string); ok {
			return v
		}
	}
	return ""
}

// longest returns the longest string, used as a proxy for "most specific"
// canonical_id (spec §4.5).
func longest(ids []string) string {
	best := ids[0]
	for _, id := range ids[1:] {
		if len(id) > len(best) {
			best = id
		}
	}
	return best
}

// executePlan flattens chunksByDocument into a single ordered slice,
// following documentOrder, capping each document's contribution at
// perDocumentCap, and dropping any chunk whose DocumentID doesn't match
// the bucket it was filed under (spec §4.6 step 7).
func executePlan(documentOrder []string, chunksByDocument map[string][]vectorstore.Result, perDocumentCap int) []vectorstore.Result {
	var flattened []vectorstore.Result
	for _, docID := range documentOrder {
		chunks := chunksByDocument[docID]
		taken := 0
		for _, c := range chunks {
			if c.DocumentID != docID {
				continue
			}
			flattened = append(flattened, c)
			taken++
			if taken >= perDocumentCap {
				break
			}
		}
	}
	return flattened
}

// assembleContext accumulates chunk text into a single string until the
// token budget is reached.
func assembleContext(chunks []vectorstore.Result, counter TokenCounter, budget int) string {
	b := newBudgetedBuilder(counter, budget)
	for _, c := range chunks {
		if !b.Add(c.Text) {
			break
		}
	}
	return b.String()
}
