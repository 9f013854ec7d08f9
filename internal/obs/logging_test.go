// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package obs

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger_JSONEmitsDottedEventNames(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{JSON: true, Output: &buf})
	logger.Info("ingest.repo.start", "repo_id", "repo1")

	out := buf.String()
	if !strings.Contains(out, "ingest.repo.start") {
		t.Errorf("expected dotted event name in output, got: %s", out)
	}
	if !strings.Contains(out, "repo1") {
		t.Errorf("expected attribute value in output, got: %s", out)
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerOptions{Level: "warn", Output: &buf})
	logger.Info("retrieve.plan.expand")
	if buf.Len() != 0 {
		t.Errorf("info log should be filtered out at warn level, got: %s", buf.String())
	}
	logger.Warn("retrieve.plan.fallback")
	if buf.Len() == 0 {
		t.Error("warn log should have been emitted")
	}
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	if got := parseLevel(""); got != slog.LevelInfo {
		t.Errorf("parseLevel(\"\") = %v, want %v", got, slog.LevelInfo)
	}
	if got := parseLevel("DEBUG"); got != slog.LevelDebug {
		t.Errorf("parseLevel(\"DEBUG\") = %v, want %v", got, slog.LevelDebug)
	}
}
