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
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/hybridcore/ragcore/internal/apierr"
	"github.com/hybridcore/ragcore/internal/ingest"
	"github.com/hybridcore/ragcore/internal/obs"
)

// runIndex executes the 'index' CLI command: it ingests the current
// directory as a repository, writing chunks, embeddings and the document
// graph into the configured store.
//
// Flags:
//   - --full: ignore the checkpoint and ingest every file
//   - --exclude: additional glob to skip, repeatable
//   - --max-file-size: skip files larger than this many bytes
//   - --metrics-addr: serve Prometheus metrics while indexing
func runIndex(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	full := fs.Bool("full", false, "Ignore the checkpoint; ingest every file")
	exclude := fs.StringArray("exclude", nil, "Additional glob to exclude (repeatable)")
	maxFileSize := fs.Int64("max-file-size", 1<<20, "Skip files larger than this many bytes")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ragcore index [options]

Indexes the current directory using configuration from .ragcore/project.yaml
and the environment. Data is stored in the configured store backend.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	settings, err := resolveSettings(globals.ProjectID)
	if err != nil {
		apierr.FatalError(apierr.NewConfigError("cannot resolve project settings", err.Error(), "run 'ragcore init' first or set RAGCORE_PROJECT_ID", err), globals.JSON)
	}

	a, err := newApp(settings, globals.Debug)
	if err != nil {
		apierr.FatalError(apierr.NewInternalError("cannot initialize ragcore", err.Error(), "", err), globals.JSON)
	}
	defer a.Close()

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			a.logger.Info("metrics.http.start", "addr", *metricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		a.logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	cwd, err := os.Getwd()
	if err != nil {
		apierr.FatalError(apierr.NewInternalError("cannot get current directory", err.Error(), "", err), globals.JSON)
	}

	progress := newProgressConfig(globals)
	spinner := newSpinner(progress, "indexing "+cwd)
	spinnerCtx, stopSpinner := context.WithCancel(ctx)
	if spinner != nil {
		go spinWhileRunning(spinnerCtx, spinner)
	}
	defer stopSpinner()

	req := ingest.RepoRequest{
		RepoID:       settings.ProjectID,
		Source:       ingest.RepoSource{Type: "local_path", Value: cwd},
		ExcludeGlobs: *exclude,
		MaxFileSize:  *maxFileSize,
	}

	start := time.Now()
	var (
		filesChunked, chunksWritten int
		filesSkipped                int
		summary                     string
	)
	if *full || settings.StoreBackend == "memory" {
		result, err := a.pipeline.IngestRepo(ctx, req)
		if err != nil {
			apierr.FatalError(apierr.NewInternalError("indexing failed", err.Error(), "", err), globals.JSON)
		}
		filesChunked, filesSkipped, chunksWritten = result.FilesChunked, result.FilesSkipped, result.ChunksWritten
		summary = fmt.Sprintf("full reindex of %s", settings.ProjectID)
	} else {
		result, err := a.pipeline.IngestRepoDelta(ctx, req)
		if err != nil {
			apierr.FatalError(apierr.NewInternalError("indexing failed", err.Error(), "", err), globals.JSON)
		}
		filesChunked, filesSkipped, chunksWritten = result.FilesChunked, result.FilesSkipped, result.ChunksWritten
		summary = fmt.Sprintf("delta: %d added, %d modified, %d deleted, %d unchanged",
			result.FilesAdded, result.FilesModified, result.FilesDeleted, result.FilesUnchanged)
	}
	stopSpinner()

	printIndexResult(settings.ProjectID, summary, filesChunked, filesSkipped, chunksWritten, time.Since(start))
}

func printIndexResult(projectID, summary string, filesChunked, filesSkipped, chunksWritten int, elapsed time.Duration) {
	fmt.Println()
	obs.Header("Indexing Complete")
	fmt.Printf("Project ID: %s\n", projectID)
	fmt.Printf("Mode: %s\n", summary)
	fmt.Printf("Files Chunked: %d\n", filesChunked)
	fmt.Printf("Files Skipped: %d\n", filesSkipped)
	fmt.Printf("Chunks Written: %d\n", chunksWritten)
	fmt.Printf("Elapsed: %s\n", elapsed.Round(time.Millisecond))
	fmt.Println()
}
