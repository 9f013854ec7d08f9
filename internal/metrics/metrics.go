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

// Package metrics holds the Prometheus counters and histograms for the
// ingestion pipeline and the retrieval engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Ingestion holds per-stage counters for the ingestion pipeline (§4.2).
type Ingestion struct {
	once sync.Once

	FilesChunked    prometheus.Counter
	ChunksEmbedded  prometheus.Counter
	ChunksPersisted prometheus.Counter
	FilesSkipped    prometheus.Counter
	IngestionFailed prometheus.Counter
	FileErrors      prometheus.Counter

	ChunkDuration  prometheus.Histogram
	EmbedDuration  prometheus.Histogram
	WriteDuration  prometheus.Histogram
	TotalDuration  prometheus.Histogram
}

// NewIngestion builds and registers an Ingestion metrics set against reg.
// Pass prometheus.DefaultRegisterer for the process-wide registry, or a
// fresh prometheus.NewRegistry() in tests to avoid collisions across
// parallel test binaries.
func NewIngestion(reg prometheus.Registerer) *Ingestion {
	m := &Ingestion{}
	m.once.Do(func() {
		m.FilesChunked = prometheus.NewCounter(prometheus.CounterOpts{Name: "ragcore_ingest_files_chunked_total", Help: "Files successfully split into chunks"})
		m.ChunksEmbedded = prometheus.NewCounter(prometheus.CounterOpts{Name: "ragcore_ingest_chunks_embedded_total", Help: "Chunks successfully embedded"})
		m.ChunksPersisted = prometheus.NewCounter(prometheus.CounterOpts{Name: "ragcore_ingest_chunks_persisted_total", Help: "Chunks written to the vector store"})
		m.FilesSkipped = prometheus.NewCounter(prometheus.CounterOpts{Name: "ragcore_ingest_files_skipped_total", Help: "Per-file extractor errors recovered by skipping the file"})
		m.IngestionFailed = prometheus.NewCounter(prometheus.CounterOpts{Name: "ragcore_ingest_failed_total", Help: "Ingestion requests that reached the failed terminal state"})
		m.FileErrors = prometheus.NewCounter(prometheus.CounterOpts{Name: "ragcore_ingest_file_errors_total", Help: "Per-file errors recovered during a repository ingestion"})

		m.ChunkDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ragcore_ingest_chunk_seconds", Help: "Chunking stage duration", Buckets: latencyBuckets})
		m.EmbedDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ragcore_ingest_embed_seconds", Help: "Embedding stage duration", Buckets: latencyBuckets})
		m.WriteDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ragcore_ingest_write_seconds", Help: "Persistence stage duration", Buckets: latencyBuckets})
		m.TotalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ragcore_ingest_total_seconds", Help: "Total ingestion pipeline duration", Buckets: latencyBuckets})

		reg.MustRegister(
			m.FilesChunked, m.ChunksEmbedded, m.ChunksPersisted, m.FilesSkipped, m.IngestionFailed, m.FileErrors,
			m.ChunkDuration, m.EmbedDuration, m.WriteDuration, m.TotalDuration,
		)
	})
	return m
}

// Retrieval holds counters for the hybrid retrieval engine (§4.6).
type Retrieval struct {
	once sync.Once

	VectorHits         prometheus.Counter
	CodeFilterFallback prometheus.Counter
	GraphExpansions    prometheus.Counter
	MissingDocsHydrated prometheus.Counter

	QueryDuration prometheus.Histogram
}

// NewRetrieval builds and registers a Retrieval metrics set against reg.
func NewRetrieval(reg prometheus.Registerer) *Retrieval {
	m := &Retrieval{}
	m.once.Do(func() {
		m.VectorHits = prometheus.NewCounter(prometheus.CounterOpts{Name: "ragcore_retrieve_vector_hits_total", Help: "Vector search calls that returned at least one result"})
		m.CodeFilterFallback = prometheus.NewCounter(prometheus.CounterOpts{Name: "ragcore_retrieve_fallback_triggered_total", Help: "Code-filtered searches that fell back to an unfiltered retry"})
		m.GraphExpansions = prometheus.NewCounter(prometheus.CounterOpts{Name: "ragcore_retrieve_graph_expansions_total", Help: "Queries that expanded seed documents via graph traversal"})
		m.MissingDocsHydrated = prometheus.NewCounter(prometheus.CounterOpts{Name: "ragcore_retrieve_missing_docs_hydrated_total", Help: "Expanded documents hydrated via chunk lookup"})

		m.QueryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ragcore_retrieve_query_seconds", Help: "End-to-end query duration", Buckets: latencyBuckets})

		reg.MustRegister(m.VectorHits, m.CodeFilterFallback, m.GraphExpansions, m.MissingDocsHydrated, m.QueryDuration)
	})
	return m
}
