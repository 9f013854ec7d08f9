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

package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint is the on-disk record a delta re-ingestion run reads and
// writes so the next run knows what it last saw. Slimmed from the
// teacher's pkg/ingestion/checkpoint.go: the Datalog-specific fields
// (DatalogScript, Batches, SentBatchRequestIDs) have no analog against a
// vectorstore/DocumentNode backend and are dropped; FileHashes is the
// directly reusable part: Pipeline.IngestRepoDelta compares it against the
// current tree without DeltaDetector, whether or not the repository is a
// git working tree.
type Checkpoint struct {
	RepoID         string            `json:"repo_id"`
	LastHeadSHA    string            `json:"last_head_sha"`
	FileHashes     map[string]string `json:"file_hashes"` // relative_path -> sha256
	FilesProcessed int               `json:"files_processed"`
	ChunksWritten  int               `json:"chunks_written"`
	StartTime      time.Time         `json:"start_time"`
	LastUpdateTime time.Time         `json:"last_update_time"`
}

// CheckpointManager persists Checkpoints under a directory, one JSON file
// per repo_id.
type CheckpointManager struct {
	dir string
}

// NewCheckpointManager returns a manager rooted at dir, creating it if
// necessary.
func NewCheckpointManager(dir string) (*CheckpointManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ingest: creating checkpoint directory: %w", err)
	}
	return &CheckpointManager{dir: dir}, nil
}

func (m *CheckpointManager) path(repoID string) string {
	return filepath.Join(m.dir, repoID+".json")
}

// Load reads repoID's checkpoint. A missing file returns a Checkpoint
// carrying only RepoID and an empty FileHashes map, and no error — callers
// treat an empty FileHashes map as "no prior run".
func (m *CheckpointManager) Load(repoID string) (Checkpoint, error) {
	raw, err := os.ReadFile(m.path(repoID))
	if os.IsNotExist(err) {
		return Checkpoint{RepoID: repoID, FileHashes: map[string]string{}}, nil
	}
	if err != nil {
		return Checkpoint{}, fmt.Errorf("ingest: reading checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return Checkpoint{}, fmt.Errorf("ingest: decoding checkpoint: %w", err)
	}
	if cp.FileHashes == nil {
		cp.FileHashes = map[string]string{}
	}
	return cp, nil
}

// Save writes cp atomically: encode to a temp file in the same directory,
// then rename over the final path, so a crash mid-write never leaves a
// corrupt checkpoint behind.
func (m *CheckpointManager) Save(cp Checkpoint) error {
	raw, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("ingest: encoding checkpoint: %w", err)
	}

	final := m.path(cp.RepoID)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("ingest: writing checkpoint: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("ingest: committing checkpoint: %w", err)
	}
	return nil
}

// Clear removes repoID's checkpoint, if any.
func (m *CheckpointManager) Clear(repoID string) error {
	err := os.Remove(m.path(repoID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ingest: clearing checkpoint: %w", err)
	}
	return nil
}
