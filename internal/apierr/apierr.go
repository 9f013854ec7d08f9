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

// Package apierr provides structured error handling shared by the CLI and
// the HTTP API.
//
// It defines UserError, a type that carries structured error information
// including what went wrong, why it happened, and how to fix it, plus
// consistent exit codes for CLI use and a stable error_code for HTTP use.
//
// # Usage Example
//
// Creating and displaying errors:
//
//	err := apierr.NewConfigError(
//	    "Cannot load ragcore configuration",
//	    "The project file .ragcore/project.yaml is missing",
//	    "Run: ragcore init",
//	    underlyingErr,
//	)
//	if err != nil {
//	    apierr.FatalError(err, false)
//	}
//
// For HTTP handlers:
//
//	err := apierr.NewValidationError("git_url and local_path are mutually exclusive", "both were set", nil)
//	apierr.WriteHTTP(w, err)
package apierr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes for different error categories (CLI use).
const (
	ExitSuccess    = 0
	ExitConfig     = 1
	ExitDatabase   = 2
	ExitNetwork    = 3
	ExitInput      = 4
	ExitPermission = 5
	ExitNotFound   = 6
	ExitInternal   = 10
)

// Stable error_code values for the HTTP envelope spec §6/§7 define.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternal       = "INTERNAL_ERROR"
)

// UserError represents an error with structured context for end users.
//
// It provides three levels of information:
//   - Message: what went wrong (user-facing error description)
//   - Cause: why it happened (diagnostic information)
//   - Fix: how to fix it (actionable suggestion)
//
// UserError also carries a CLI exit code, an HTTP error_code, and an HTTP
// status, and optionally wraps an underlying error for error chain
// compatibility.
type UserError struct {
	Message string
	Cause   string
	Fix     string

	ExitCode   int
	HTTPStatus int
	ErrorCode  string

	Err error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a configuration error (ExitConfig, 500/INTERNAL_ERROR).
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitConfig, HTTPStatus: http.StatusInternalServerError, ErrorCode: CodeInternal, Err: err}
}

// NewDatabaseError creates a storage-layer error (ExitDatabase, 500/INTERNAL_ERROR).
func NewDatabaseError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitDatabase, HTTPStatus: http.StatusInternalServerError, ErrorCode: CodeInternal, Err: err}
}

// NewNetworkError creates an upstream-service error (ExitNetwork, 500/INTERNAL_ERROR):
// vector store, LLM provider, or graph export calls that failed after any
// documented fallback was already exhausted.
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitNetwork, HTTPStatus: http.StatusInternalServerError, ErrorCode: CodeInternal, Err: err}
}

// NewValidationError creates an input-validation error (ExitInput, 400/INVALID_REQUEST):
// bad UUID, missing required field, malformed JSON, mutually exclusive
// fields both set.
func NewValidationError(msg, cause string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, ExitCode: ExitInput, HTTPStatus: http.StatusBadRequest, ErrorCode: CodeInvalidRequest, Err: err}
}

// NewPermissionError creates a permission-denied error (ExitPermission, 500/INTERNAL_ERROR).
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitPermission, HTTPStatus: http.StatusInternalServerError, ErrorCode: CodeInternal, Err: err}
}

// NewNotFoundError creates a resource-not-found error (ExitNotFound, 404/INVALID_REQUEST):
// an unknown ingestion_id, repo_id, or document_id.
func NewNotFoundError(msg, cause string) *UserError {
	return &UserError{Message: msg, Cause: cause, ExitCode: ExitNotFound, HTTPStatus: http.StatusNotFound, ErrorCode: CodeInvalidRequest}
}

// NewInternalError creates an internal error (ExitInternal, 500/INTERNAL_ERROR):
// assertion failures, unexpected nil values, unhandled cases.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: ExitInternal, HTTPStatus: http.StatusInternalServerError, ErrorCode: CodeInternal, Err: err}
}

var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display. Color
// output respects NO_COLOR and can be explicitly disabled with noColor.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}
	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}
	return out.String()
}

// Envelope is the spec §6/§7 HTTP error body: {error_code, message, details?}.
type Envelope struct {
	ErrorCode string            `json:"error_code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// ToEnvelope converts the UserError into the HTTP error envelope. Cause,
// when present, is folded into Details under "cause" since the envelope
// has no dedicated cause field.
func (e *UserError) ToEnvelope() Envelope {
	env := Envelope{ErrorCode: e.ErrorCode, Message: e.Message}
	if e.Cause != "" {
		env.Details = map[string]string{"cause": e.Cause}
	}
	return env
}

// WriteHTTP writes err as the spec's JSON error envelope with the
// appropriate status code. Non-UserError values are treated as internal
// errors without leaking their message verbatim.
func WriteHTTP(w http.ResponseWriter, err error) {
	ue, ok := err.(*UserError)
	if !ok {
		ue = NewInternalError("internal error", "", "", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ue.HTTPStatus)
	_ = json.NewEncoder(w).Encode(ue.ToEnvelope())
}

// ErrorJSON is the CLI's --json output shape, distinct from the HTTP
// envelope since CLI output also carries fix text and an exit code.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{Error: e.Message, Cause: e.Cause, Fix: e.Fix, ExitCode: e.ExitCode}
}

// FatalError prints err and exits with the appropriate code. It returns
// only when err is nil, in which case it does nothing.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	if ue, ok := err.(*UserError); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ue.Format(false))
		}
		os.Exit(ue.ExitCode)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}
