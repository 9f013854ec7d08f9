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

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the on-disk record `ragcore init` writes and every other
// subcommand reads to learn a project's data directory without requiring
// RAGCORE_PROJECT_ID to be re-specified on every invocation.
type ProjectFile struct {
	ProjectID    string `yaml:"project_id"`
	DataDir      string `yaml:"data_dir"`
	StoreBackend string `yaml:"store_backend"`
}

// projectFileName is relative to the working directory `ragcore init` was
// run from, mirroring the teacher's `.cie/project.yaml` convention.
const projectFileDir = ".ragcore"
const projectFileName = "project.yaml"

// ProjectFilePath returns the path init/load use, rooted at dir (pass "."
// for the current working directory).
func ProjectFilePath(dir string) string {
	return filepath.Join(dir, projectFileDir, projectFileName)
}

// WriteProjectFile serializes pf to ProjectFilePath(dir), creating the
// .ragcore directory if necessary.
func WriteProjectFile(dir string, pf ProjectFile) error {
	if err := os.MkdirAll(filepath.Join(dir, projectFileDir), 0o755); err != nil {
		return fmt.Errorf("config: creating project directory: %w", err)
	}
	raw, err := yaml.Marshal(pf)
	if err != nil {
		return fmt.Errorf("config: encoding project file: %w", err)
	}
	if err := os.WriteFile(ProjectFilePath(dir), raw, 0o644); err != nil {
		return fmt.Errorf("config: writing project file: %w", err)
	}
	return nil
}

// ReadProjectFile loads the project file at dir. Callers should treat a
// os.IsNotExist error as "run ragcore init first".
func ReadProjectFile(dir string) (ProjectFile, error) {
	var pf ProjectFile
	raw, err := os.ReadFile(ProjectFilePath(dir))
	if err != nil {
		return pf, err
	}
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return pf, fmt.Errorf("config: decoding project file: %w", err)
	}
	return pf, nil
}
