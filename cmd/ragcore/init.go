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
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hybridcore/ragcore/internal/config"
	"github.com/hybridcore/ragcore/internal/obs"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force, nonInteractive bool
	projectID             string
	storeBackend          string
}

func runInit(args []string, globals GlobalFlags) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get current directory: %v\n", err)
		os.Exit(1)
	}

	path := config.ProjectFilePath(cwd)
	if _, err := os.Stat(path); err == nil && !flags.force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Use --force to overwrite.\n", path)
		os.Exit(1)
	}

	pf := config.ProjectFile{
		ProjectID:    flags.projectID,
		StoreBackend: flags.storeBackend,
	}
	if pf.ProjectID == "" {
		pf.ProjectID = filepath.Base(cwd)
	}

	reader := bufio.NewReader(os.Stdin)
	if !flags.nonInteractive {
		fmt.Println("ragcore Project Configuration")
		fmt.Println("=============================")
		fmt.Println()
		pf.ProjectID = prompt(reader, "Project ID", pf.ProjectID)
		fmt.Println()
		fmt.Println("Store backends: badger (persistent), memory (process-lifetime only)")
		pf.StoreBackend = prompt(reader, "Store backend", pf.StoreBackend)
	}

	if err := config.WriteProjectFile(cwd, pf); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save configuration: %v\n", err)
		os.Exit(1)
	}
	obs.Success(fmt.Sprintf("Created %s", config.ProjectFilePath(cwd)))
	addToGitignore(cwd)

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit .ragcore/project.yaml if needed")
	fmt.Println("  2. Set RAGCORE_EMBEDDING_PROVIDER / RAGCORE_LLM_PROVIDER if not using mock")
	fmt.Println("  3. Run 'ragcore index' to index your repository")
	fmt.Println("  4. Run 'ragcore status' to verify indexing")
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVar(&f.nonInteractive, "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier")
	fs.StringVar(&f.storeBackend, "store-backend", "badger", "Document store backend (badger, memory)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ragcore init [options]

Creates .ragcore/project.yaml configuration file.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

// prompt displays an interactive prompt and reads a line from stdin,
// returning defaultValue if the user presses Enter without typing
// anything.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore adds .ragcore/ to the project's .gitignore if present and
// not already listed. Silently does nothing if .gitignore is absent or
// unwritable.
func addToGitignore(dir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath)
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == ".ragcore/" || line == ".ragcore" || line == "/.ragcore/" || line == "/.ragcore" {
			return
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}
	_, _ = f.WriteString("\n# ragcore configuration\n.ragcore/\n")
	obs.Info("Added .ragcore/ to .gitignore")
}
