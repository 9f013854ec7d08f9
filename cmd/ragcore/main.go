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

// Package main implements the ragcore CLI: a local hybrid vector+graph
// retrieval core for indexing a repository or document set and querying it.
//
// Usage:
//
//	ragcore init                   Create .ragcore/project.yaml configuration
//	ragcore index                  Index the current repository
//	ragcore query <text>           Run a retrieval-augmented query
//	ragcore serve                  Start the HTTP API
//	ragcore [--json] status        Show project status
//	ragcore reset --yes            Delete local project data
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hybridcore/ragcore/internal/obs"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags carries the flags every subcommand inherits, mirroring the
// teacher's top-level --json/--no-color/--project-id convention.
type GlobalFlags struct {
	ProjectID string
	Debug     bool
	JSON      bool
	NoColor   bool
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		projectID   = flag.String("project-id", "", "Project identifier (default: read from .ragcore/project.yaml)")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		jsonOutput  = flag.Bool("json", false, "Output machine-readable JSON where supported")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `ragcore - hybrid vector + graph retrieval core

Usage:
  ragcore <command> [options]

Commands:
  init      Create .ragcore/project.yaml configuration
  index     Index the current repository
  query     Run a retrieval-augmented query
  serve     Start the HTTP API
  status    Show project status
  reset     Delete local project data (destructive!)

Global Options:
  --project-id  Project identifier (default: read from .ragcore/project.yaml)
  --debug       Enable debug logging
  --json        Output machine-readable JSON where supported
  --no-color    Disable colored output
  --version     Show version and exit

Environment Variables:
  RAGCORE_PROJECT_ID          Project identifier, if not using .ragcore/project.yaml
  RAGCORE_EMBEDDING_PROVIDER  Embedding backend: mock, ollama, openai (default: mock)
  RAGCORE_LLM_PROVIDER        Synthesis backend: mock, ollama, openai, anthropic (default: ollama)

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("ragcore version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	obs.InitColors(*noColor)

	globals := GlobalFlags{
		ProjectID: *projectID,
		Debug:     *debug,
		JSON:      *jsonOutput,
		NoColor:   *noColor,
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, globals)
	case "index":
		runIndex(cmdArgs, globals)
	case "query":
		runQuery(cmdArgs, globals)
	case "serve":
		runServe(cmdArgs, globals)
	case "status":
		runStatus(cmdArgs, globals)
	case "reset":
		runReset(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
