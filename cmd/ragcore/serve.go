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
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/hybridcore/ragcore/internal/apierr"
	"github.com/hybridcore/ragcore/internal/httpapi"
)

// runServe executes the 'serve' CLI command: it starts the HTTP API on
// Settings.HTTPAddr (or --addr) and, if requested, a separate Prometheus
// endpoint, blocking until SIGINT/SIGTERM.
func runServe(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "HTTP listen address (default: Settings.HTTPAddr, typically :8080)")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Grace period for in-flight requests on shutdown")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ragcore serve [options]

Starts the HTTP API described in the retrieval core's endpoint contract:
ingestion, graph queries, RAG queries and the vector-store protocol.

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

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = settings.HTTPAddr
	}

	server := &httpapi.Server{
		Pipeline: a.pipeline,
		Tasks:    a.tasks,
		Status:   a.status,
		Repo:     a.repo,
		Graph:    a.graph,
		Vectors:  a.vectors,
		Engine:   a.engine,
		Logger:   a.logger,
	}

	httpServer := &http.Server{Addr: listenAddr, Handler: server.Handler()}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
			metricsServer := &http.Server{Addr: *metricsAddr, Handler: mux}
			a.logger.Info("metrics.http.start", "addr", *metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http.server.start", "addr", listenAddr)
		serveErr <- httpServer.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			apierr.FatalError(apierr.NewInternalError("http server failed", err.Error(), "", err), globals.JSON)
		}
	case sig := <-sigChan:
		a.logger.Info("shutdown.signal", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			a.logger.Warn("http.server.shutdown.error", "err", err)
		}
	}
}
