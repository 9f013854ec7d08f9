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

package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hybridcore/ragcore/internal/config"
	"github.com/hybridcore/ragcore/internal/extract"
	"github.com/hybridcore/ragcore/internal/graph"
	"github.com/hybridcore/ragcore/internal/ingest"
	"github.com/hybridcore/ragcore/internal/llmfacade"
	"github.com/hybridcore/ragcore/internal/metrics"
	"github.com/hybridcore/ragcore/internal/obs"
	"github.com/hybridcore/ragcore/internal/retrieve"
	"github.com/hybridcore/ragcore/internal/store"
	"github.com/hybridcore/ragcore/internal/vectorstore"
)

// app holds every collaborator a subcommand might need, built once from
// Settings. Subcommands use only the fields they need; app does no work
// beyond construction.
type app struct {
	settings *config.Settings
	logger   *slog.Logger
	registry *prometheus.Registry

	repo    store.Repository
	graph   *store.GraphAdapter
	vectors vectorstore.Store
	status  store.IngestionStatusStore

	pipeline *ingest.Pipeline
	tasks    *ingest.TaskRunner
	engine   *retrieve.Engine

	closers []func() error
}

// resolveSettings loads Settings, preferring the .ragcore/project.yaml in
// the current directory (the file `ragcore init` writes) over requiring
// RAGCORE_PROJECT_ID on every invocation, mirroring cmd/cie's
// configPath-or-default-location lookup.
func resolveSettings(projectIDFlag string) (*config.Settings, error) {
	var opts []config.Option
	if projectIDFlag != "" {
		opts = append(opts, config.WithProjectID(projectIDFlag))
	} else if pf, err := config.ReadProjectFile("."); err == nil {
		opts = append(opts, config.WithProjectID(pf.ProjectID))
		if pf.DataDir != "" {
			opts = append(opts, config.WithDataDir(pf.DataDir))
		}
		if pf.StoreBackend != "" {
			opts = append(opts, config.WithStoreBackend(pf.StoreBackend))
		}
	}
	return config.Load(opts...)
}

// newApp wires every collaborator index/query/serve/status share. debug
// enables slog.LevelDebug regardless of settings.LogLevel.
func newApp(settings *config.Settings, debug bool) (*app, error) {
	level := settings.LogLevel
	if debug {
		level = "debug"
	}
	logger := obs.NewLogger(obs.LoggerOptions{Level: level, JSON: settings.LogJSON})

	reg := prometheus.NewRegistry()

	a := &app{settings: settings, logger: logger, registry: reg}

	repo, closeRepo, err := openRepository(settings)
	if err != nil {
		return nil, err
	}
	a.repo = repo
	if closeRepo != nil {
		a.closers = append(a.closers, closeRepo)
	}

	a.vectors = vectorstore.NewMemoryStore()
	a.status = store.NewMemoryIngestionStatusStore()

	embedder, err := ingest.NewEmbedder(settings.EmbeddingProvider, settings.EmbeddingBaseURL, settings.EmbeddingAPIKey, settings.EmbeddingModel, settings.EmbeddingDimensions)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: building embedder: %w", err)
	}

	checkpointDir := filepath.Join(settings.DataDir, "checkpoints")
	checkpoints, err := ingest.NewCheckpointManager(checkpointDir)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: building checkpoint manager: %w", err)
	}

	graphAdapter := store.NewGraphAdapter(a.repo)
	graphCache := graph.NewCache(graphAdapter)
	a.graph = graphAdapter

	a.pipeline = &ingest.Pipeline{
		Embedder:    embedder,
		Vectors:     a.vectors,
		Repo:        a.repo,
		GraphCache:  graphCache,
		Metrics:     metrics.NewIngestion(reg),
		Logger:      logger,
		Provider:    settings.EmbeddingProvider,
		Loader:      ingest.NewRepoLoader(logger, settings.GitHubToken),
		Registry:    extract.NewRegistry(),
		Checkpoints: checkpoints,
	}
	a.tasks = ingest.NewTaskRunner(a.status, logger)

	llmProvider, err := llmfacade.NewProvider(llmfacade.ProviderConfig{
		Type:         settings.LLMProvider,
		BaseURL:      settings.LLMBaseURL,
		APIKey:       settings.LLMAPIKey,
		DefaultModel: settings.LLMModel,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: building LLM provider: %w", err)
	}

	a.engine = &retrieve.Engine{
		Embedder:      embedder,
		Vectors:       a.vectors,
		GraphCache:    graphCache,
		GraphResolver: a.repo,
		LLM:           llmProvider,
		ProviderFactory: func(providerType string) (llmfacade.Provider, error) {
			return llmfacade.NewProvider(llmfacade.ProviderConfig{Type: providerType, BaseURL: settings.LLMBaseURL, APIKey: settings.LLMAPIKey})
		},
		TokenBudget: settings.TokenBudget,
	}

	return a, nil
}

func (a *app) Close() {
	for _, closeFn := range a.closers {
		_ = closeFn()
	}
}

func openRepository(settings *config.Settings) (store.Repository, func() error, error) {
	switch settings.StoreBackend {
	case "memory":
		return store.NewMemoryRepository(), nil, nil
	case "badger", "":
		repo, err := store.OpenBadgerRepository(store.BadgerOptions{Dir: filepath.Join(settings.DataDir, "documents")})
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: opening document store: %w", err)
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("bootstrap: unknown store backend %q", settings.StoreBackend)
	}
}
