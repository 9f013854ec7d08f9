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
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/hybridcore/ragcore/internal/apierr"
	"github.com/hybridcore/ragcore/internal/obs"
	"github.com/hybridcore/ragcore/internal/retrieve"
)

// runQuery executes the 'query' CLI command: a retrieval-augmented query
// against the indexed project, optionally scoped to one repo and expanded
// through the document graph.
//
// Usage: ragcore query [options] <question text>
func runQuery(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	repoID := fs.String("repo-id", "", "Restrict retrieval to one repo (graph expansion requires this)")
	topK := fs.Int("top-k", 0, "Number of chunks to retrieve (0 = server default)")
	provider := fs.String("provider", "", "Override the synthesis LLM provider for this query")
	model := fs.String("model", "", "Override the synthesis LLM model for this query")
	simple := fs.Bool("simple", false, "Skip graph expansion, retrieve only from documents whose source_type is not code")
	timeout := fs.Duration("timeout", 60*time.Second, "Query timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ragcore query [options] <question>

Runs a retrieval-augmented query against the indexed project.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ragcore query "how does the ingestion pipeline chunk markdown files?"
  ragcore query --repo-id my-repo --top-k 12 "where is the retry budget enforced?"
`)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: question text required\n")
		fs.Usage()
		os.Exit(1)
	}
	question := strings.Join(fs.Args(), " ")

	settings, err := resolveSettings(globals.ProjectID)
	if err != nil {
		apierr.FatalError(apierr.NewConfigError("cannot resolve project settings", err.Error(), "run 'ragcore init' first or set RAGCORE_PROJECT_ID", err), globals.JSON)
	}

	a, err := newApp(settings, globals.Debug)
	if err != nil {
		apierr.FatalError(apierr.NewInternalError("cannot initialize ragcore", err.Error(), "", err), globals.JSON)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	req := retrieve.Request{
		Query:    question,
		RepoID:   *repoID,
		TopK:     *topK,
		Provider: *provider,
		Model:    *model,
	}

	var resp *retrieve.Response
	if *simple {
		resp, err = a.engine.QuerySimple(ctx, req)
	} else {
		resp, err = a.engine.Query(ctx, req)
	}
	if err != nil {
		apierr.FatalError(apierr.NewInternalError("query failed", err.Error(), "", err), globals.JSON)
	}

	if globals.JSON {
		_ = obs.JSON(resp)
		return
	}
	printQueryResponse(resp)
}

func printQueryResponse(resp *retrieve.Response) {
	obs.Header("Answer")
	fmt.Println(resp.Answer)
	fmt.Println()
	if len(resp.Sources) > 0 {
		obs.SubHeader("Sources")
		for _, src := range resp.Sources {
			fmt.Printf("  - %s\n", src)
		}
		fmt.Println()
	}
}
