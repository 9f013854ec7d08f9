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

// Package config builds Settings, the process-wide configuration object.
//
// The source system keeps this kind of thing as a bare module-level
// global populated lazily from the environment. Per spec §9's "process-wide
// caches → typed singletons with explicit lifetime" note, Settings here is
// an explicitly constructed value built once by Load() and threaded through
// constructors rather than read off a package global — this keeps it
// mockable in tests and avoids hidden shared state across unrelated test
// binaries.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Settings holds every environment-derived knob the core depends on.
// Load() is idempotent: calling it twice with the same environment
// produces equal values.
type Settings struct {
	// DataDir is where the on-disk store (Badger) and ingestion checkpoints
	// live. Defaults to ~/.ragcore/data/<project_id>. The project file lives
	// separately, under .ragcore/ in the directory `ragcore init` ran in.
	DataDir string

	// ProjectID names the current project; required by Load.
	ProjectID string

	// StoreBackend selects the internal/store implementation: "memory" or
	// "badger". Defaults to "badger".
	StoreBackend string

	// EmbeddingDimensions is the vector size produced by the configured
	// embedder. Defaults to 768 (nomic-embed-text); set 1536 for OpenAI
	// embeddings.
	EmbeddingDimensions int

	// Embedding selects internal/ingest's embedding backend: "mock",
	// "ollama", or "openai". Defaults to "mock" so a bare install works
	// with no external services configured.
	EmbeddingProvider string
	EmbeddingModel    string
	EmbeddingBaseURL  string
	EmbeddingAPIKey   string

	// LLMProvider selects internal/llmfacade's default provider: "ollama",
	// "openai", "anthropic", or "mock". Defaults to "ollama".
	LLMProvider string
	LLMModel    string
	LLMAPIKey   string
	LLMBaseURL  string

	// TokenBudget bounds internal/retrieve's context assembly (spec §4.6
	// step 8). Defaults to 3000.
	TokenBudget int

	// TopK is loaded from RAGCORE_TOP_K and defaults to 8. Neither the
	// retrieval engine nor the HTTP API reads it; both fall back to their own
	// default of 8 when a request omits top_k.
	TopK int

	// HTTPAddr is the internal/httpapi listen address. Defaults to ":8080".
	HTTPAddr string

	// GitHubToken, when set, makes internal/ingest.RepoLoader prefer the
	// GitHub API tarball path over shelling out to git clone.
	GitHubToken string

	// LogLevel and LogJSON configure internal/obs.NewLogger.
	LogLevel string
	LogJSON  bool

	// NoColor disables internal/obs's colored CLI output.
	NoColor bool
}

// Option overrides a Settings field after environment defaults are
// applied; used by tests and by CLI flag parsing to take precedence over
// the environment.
type Option func(*Settings)

// WithProjectID overrides ProjectID.
func WithProjectID(id string) Option {
	return func(s *Settings) { s.ProjectID = id }
}

// WithDataDir overrides DataDir.
func WithDataDir(dir string) Option {
	return func(s *Settings) { s.DataDir = dir }
}

// WithStoreBackend overrides StoreBackend.
func WithStoreBackend(backend string) Option {
	return func(s *Settings) { s.StoreBackend = backend }
}

// Load builds Settings from the environment, applying opts afterward so
// callers (CLI flags, tests) can take precedence. ProjectID is required
// either via RAGCORE_PROJECT_ID or WithProjectID.
func Load(opts ...Option) (*Settings, error) {
	s := &Settings{
		ProjectID:           os.Getenv("RAGCORE_PROJECT_ID"),
		StoreBackend:        envOrDefault("RAGCORE_STORE_BACKEND", "badger"),
		EmbeddingDimensions: envIntOrDefault("RAGCORE_EMBEDDING_DIMENSIONS", 768),
		EmbeddingProvider:   envOrDefault("RAGCORE_EMBEDDING_PROVIDER", "mock"),
		EmbeddingModel:      envOrDefault("RAGCORE_EMBEDDING_MODEL", "nomic-embed-text"),
		EmbeddingBaseURL:    envOrDefault("RAGCORE_EMBEDDING_BASE_URL", "http://localhost:11434"),
		EmbeddingAPIKey:     os.Getenv("RAGCORE_EMBEDDING_API_KEY"),
		LLMProvider:         envOrDefault("RAGCORE_LLM_PROVIDER", "ollama"),
		LLMModel:            os.Getenv("RAGCORE_LLM_MODEL"),
		LLMAPIKey:           os.Getenv("RAGCORE_LLM_API_KEY"),
		LLMBaseURL:          os.Getenv("RAGCORE_LLM_BASE_URL"),
		TokenBudget:         envIntOrDefault("RAGCORE_TOKEN_BUDGET", 3000),
		TopK:                envIntOrDefault("RAGCORE_TOP_K", 8),
		HTTPAddr:            envOrDefault("RAGCORE_HTTP_ADDR", ":8080"),
		GitHubToken:         os.Getenv("RAGCORE_GITHUB_TOKEN"),
		LogLevel:            envOrDefault("RAGCORE_LOG_LEVEL", "info"),
		LogJSON:             envBoolOrDefault("RAGCORE_LOG_JSON", false),
		NoColor:             envBoolOrDefault("NO_COLOR", false) || os.Getenv("NO_COLOR") != "",
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.ProjectID == "" {
		return nil, fmt.Errorf("config: project_id is required (set RAGCORE_PROJECT_ID or pass WithProjectID)")
	}

	if s.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolving home directory: %w", err)
		}
		s.DataDir = filepath.Join(homeDir, ".ragcore", "data", s.ProjectID)
	}

	return s, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolOrDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
