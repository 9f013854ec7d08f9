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
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hybridcore/ragcore/internal/store"
)

// RepoLock serializes ingestion runs per repo_id, so a delta re-ingestion
// can never race a full ingestion of the same repository (spec's Open
// Question #1 on concurrent writers is resolved this way: one in-flight
// ingestion per repo_id, first writer wins, a second caller is told to
// retry rather than blocking indefinitely — see DESIGN.md).
type RepoLock struct {
	mu      sync.Mutex
	holders map[string]struct{}
}

// NewRepoLock returns an empty lock set.
func NewRepoLock() *RepoLock {
	return &RepoLock{holders: make(map[string]struct{})}
}

// TryAcquire reports whether repoID was free and, if so, marks it held.
func (l *RepoLock) TryAcquire(repoID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.holders[repoID]; held {
		return false
	}
	l.holders[repoID] = struct{}{}
	return true
}

// Release frees repoID for the next caller.
func (l *RepoLock) Release(repoID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.holders, repoID)
}

// ErrRepoBusy is returned when a second ingestion of the same repo_id is
// requested while one is already running.
type ErrRepoBusy struct {
	RepoID string
}

func (e *ErrRepoBusy) Error() string {
	return fmt.Sprintf("ingest: repo %q has an ingestion already running", e.RepoID)
}

// Job is one unit of work a TaskRunner executes in the background: it
// receives a context bound to the run's lifetime and returns the file and
// chunk counts to fold into the ingestion status row.
type Job func(ctx context.Context) (filesProcessed, chunksWritten int, err error)

// TaskRunner replaces the teacher's bare "go func" ingestion dispatch with
// an observable background task: the status row is created in
// PhaseAccepted before the goroutine is spawned (so GET /v1/ingest/{id}
// never races a missing row), a supervisor goroutine recovers panics and
// records them as PhaseFailed, and RepoLock prevents two concurrent runs
// against the same repository.
type TaskRunner struct {
	Status store.IngestionStatusStore
	Lock   *RepoLock
	Logger *slog.Logger
}

// NewTaskRunner returns a TaskRunner backed by status, with a fresh
// RepoLock.
func NewTaskRunner(status store.IngestionStatusStore, logger *slog.Logger) *TaskRunner {
	return &TaskRunner{Status: status, Lock: NewRepoLock(), Logger: logger}
}

func (r *TaskRunner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Start records ingestionID as PhaseAccepted against repoID, acquires
// repoID's lock, and runs job on a new goroutine, updating the status row
// to PhaseRunning then PhaseComplete or PhaseFailed as it proceeds. It
// returns ErrRepoBusy immediately, without spawning anything, if repoID
// already has a run in flight.
func (r *TaskRunner) Start(ctx context.Context, ingestionID, repoID string, job Job) error {
	if !r.Lock.TryAcquire(repoID) {
		return &ErrRepoBusy{RepoID: repoID}
	}
	if err := r.Status.Create(ctx, ingestionID, repoID); err != nil {
		r.Lock.Release(repoID)
		return fmt.Errorf("ingest: recording ingestion status: %w", err)
	}

	runCtx := context.WithoutCancel(ctx)
	go r.run(runCtx, ingestionID, repoID, job)
	return nil
}

func (r *TaskRunner) run(ctx context.Context, ingestionID, repoID string, job Job) {
	defer r.Lock.Release(repoID)

	if err := r.Status.Update(ctx, ingestionID, func(s *store.IngestionStatus) {
		s.Phase = store.PhaseRunning
	}); err != nil {
		r.logger().Error("ingest.task.status_update_failed", "ingestion_id", ingestionID, "error", err)
	}

	filesProcessed, chunksWritten, err := r.runRecovered(ctx, job)

	_ = r.Status.Update(ctx, ingestionID, func(s *store.IngestionStatus) {
		s.FilesProcessed = filesProcessed
		s.ChunksWritten = chunksWritten
		if err != nil {
			s.Phase = store.PhaseFailed
			s.Error = err.Error()
			return
		}
		s.Phase = store.PhaseComplete
	})

	if err != nil {
		r.logger().Error("ingest.task.failed", "ingestion_id", ingestionID, "repo_id", repoID, "error", err)
		return
	}
	r.logger().Info("ingest.task.complete", "ingestion_id", ingestionID, "repo_id", repoID,
		"files_processed", filesProcessed, "chunks_written", chunksWritten)
}

// runRecovered invokes job and converts a panic into an error, so one
// ingestion's crash can never take the hosting process down with it.
func (r *TaskRunner) runRecovered(ctx context.Context, job Job) (filesProcessed, chunksWritten int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("ingest: job panicked: %v", rec)
		}
	}()
	return job(ctx)
}
