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
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/hybridcore/ragcore/internal/obs"
	"github.com/hybridcore/ragcore/internal/store"
)

// StatusResult is the project status report, in both the --json and the
// formatted-text output.
type StatusResult struct {
	ProjectID string              `json:"project_id"`
	DataDir   string              `json:"data_dir"`
	Connected bool                `json:"connected"`
	Repos     []store.RepoSummary `json:"repos"`
	Error     string              `json:"error,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// runStatus executes the 'status' CLI command, listing every repo ingested
// into the project's store along with its node and file counts.
func runStatus(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ragcore status [options]

Shows project status: which repos are indexed and how large they are.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	settings, err := resolveSettings(globals.ProjectID)
	if err != nil {
		result := &StatusResult{Connected: false, Error: err.Error(), Timestamp: time.Now()}
		emitStatus(result, globals.JSON)
		os.Exit(1)
	}

	result := &StatusResult{ProjectID: settings.ProjectID, DataDir: settings.DataDir, Timestamp: time.Now()}

	repo, closeRepo, err := openRepository(settings)
	if err != nil {
		result.Error = err.Error()
		emitStatus(result, globals.JSON)
		os.Exit(1)
	}
	if closeRepo != nil {
		defer func() { _ = closeRepo() }()
	}

	result.Connected = true
	repos, err := repo.ListRepos(context.Background())
	if err != nil {
		result.Error = fmt.Sprintf("listing repos: %v", err)
		emitStatus(result, globals.JSON)
		os.Exit(1)
	}
	result.Repos = repos

	emitStatus(result, globals.JSON)
}

func emitStatus(result *StatusResult, jsonOutput bool) {
	if jsonOutput {
		_ = obs.JSON(result)
		return
	}
	printStatus(result)
}

func printStatus(result *StatusResult) {
	obs.Header("ragcore Project Status")
	fmt.Printf("Project ID: %s\n", result.ProjectID)
	fmt.Printf("Data Dir:   %s\n", result.DataDir)
	fmt.Println()

	if result.Error != "" {
		obs.Warning(result.Error)
		return
	}
	if len(result.Repos) == 0 {
		fmt.Println("No repos indexed yet. Run 'ragcore index' to index the current directory.")
		return
	}

	obs.SubHeader("Repos")
	for _, r := range result.Repos {
		fmt.Printf("  %s  status=%s  files=%d  nodes=%d  ingested=%s\n", r.Name, r.Status, r.FileCount, r.NodeCount, r.IngestedAt)
	}
}
