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

package obs

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LoggerOptions configures NewLogger.
type LoggerOptions struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string
	// JSON selects slog.JSONHandler over slog.TextHandler. Servers run
	// JSON; the CLI runs text, matching the teacher's "readable CLI,
	// structured server" split.
	JSON bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// NewLogger builds a *slog.Logger per opts. Events are logged with dotted
// names (ingest.repo.start, retrieve.plan.expand, …), mirroring the
// teacher's bootstrap.project.init.start convention.
func NewLogger(opts LoggerOptions) *slog.Logger {
	level := parseLevel(opts.Level)
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(out, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
