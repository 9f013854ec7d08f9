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
	"os"

	flag "github.com/spf13/pflag"

	"github.com/hybridcore/ragcore/internal/apierr"
	"github.com/hybridcore/ragcore/internal/obs"
)

// runReset executes the 'reset' CLI command, deleting the project's data
// directory (checkpoints, the badger document store, everything under
// Settings.DataDir). Vector storage kept in an external vectorstore.Store
// implementation is unaffected; this only clears what ragcore owns locally.
func runReset(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ragcore reset --yes

Deletes the project's local data directory: the document store, graph and
ingestion checkpoints. This cannot be undone.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		fmt.Fprintf(os.Stderr, "Error: pass --yes to confirm the reset\n")
		fmt.Fprintf(os.Stderr, "This will delete all indexed data for the project.\n")
		os.Exit(1)
	}

	settings, err := resolveSettings(globals.ProjectID)
	if err != nil {
		apierr.FatalError(apierr.NewConfigError("cannot resolve project settings", err.Error(), "run 'ragcore init' first or set RAGCORE_PROJECT_ID", err), globals.JSON)
	}

	if _, err := os.Stat(settings.DataDir); os.IsNotExist(err) {
		obs.Info(fmt.Sprintf("No local data found for project %s", settings.ProjectID))
		os.Exit(0)
	}

	obs.Info(fmt.Sprintf("Resetting project %s (deleting %s)...", settings.ProjectID, settings.DataDir))
	if err := os.RemoveAll(settings.DataDir); err != nil {
		apierr.FatalError(apierr.NewInternalError("failed to delete data", err.Error(), "", err), globals.JSON)
	}

	obs.Success("Reset complete. All local indexed data has been deleted.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  ragcore index --full    Reindex the project")
}
