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

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hybridcore/ragcore/internal/apierr"
	"github.com/hybridcore/ragcore/internal/identity"
	"github.com/hybridcore/ragcore/internal/ingest"
	"github.com/hybridcore/ragcore/internal/store"
)

const maxUploadBytes = 32 << 20 // 32 MiB

type acceptedResponse struct {
	IngestionID string `json:"ingestion_id"`
	Status      string `json:"status"`
}

type ingestFileMetadata struct {
	SourceType   string `json:"source_type"`
	RelativePath string `json:"relative_path"`
}

// handleIngestFile implements POST /v1/ingest/file: a multipart upload
// with a "file" part and a "metadata" JSON part. The entry point spec
// §4.2 routes to is chosen by the upload's extension — .pdf goes through
// the pre-chunked path, .md/.markdown through the sectioned path,
// everything else through raw text.
func (s *Server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apierr.WriteHTTP(w, apierr.NewValidationError("could not parse multipart upload", err.Error(), err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierr.WriteHTTP(w, apierr.NewValidationError("missing \"file\" part", err.Error(), err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("reading uploaded file failed", err.Error(), "", err))
		return
	}

	var meta ingestFileMetadata
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			apierr.WriteHTTP(w, apierr.NewValidationError("\"metadata\" part is not valid JSON", err.Error(), err))
			return
		}
	}
	if meta.RelativePath == "" {
		meta.RelativePath = header.Filename
	}

	ingestionID := uuid.New().String()
	ext := strings.ToLower(filepath.Ext(meta.RelativePath))

	var job ingest.Job
	switch ext {
	case ".pdf":
		job = s.pdfIngestJob(ingestionID, meta.RelativePath, content)
	case ".md", ".markdown":
		sourceType := meta.SourceType
		if sourceType == "" {
			sourceType = "markdown"
		}
		job = func(ctx context.Context) (int, int, error) {
			res, err := s.Pipeline.IngestMarkdown(ctx, ingest.SectionedRequest{
				IngestionID:  ingestionID,
				SourceType:   sourceType,
				RelativePath: meta.RelativePath,
				Markdown:     string(content),
			})
			if err != nil {
				return 0, 0, err
			}
			return res.FilesChunked, res.ChunksWritten, nil
		}
	default:
		sourceType := meta.SourceType
		if sourceType == "" {
			sourceType = "file"
		}
		job = func(ctx context.Context) (int, int, error) {
			res, err := s.Pipeline.IngestText(ctx, ingest.TextRequest{
				IngestionID:  ingestionID,
				SourceType:   sourceType,
				RelativePath: meta.RelativePath,
				Text:         string(content),
			})
			if err != nil {
				return 0, 0, err
			}
			return res.FilesChunked, res.ChunksWritten, nil
		}
	}

	if err := s.Tasks.Start(context.WithoutCancel(r.Context()), ingestionID, ingestionID, job); err != nil {
		s.writeStartError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{IngestionID: ingestionID, Status: string(store.PhaseAccepted)})
}

// pdfIngestJob writes content to a temp file so PDFExtractor can open it
// by path, removing the file once the job returns regardless of outcome.
func (s *Server) pdfIngestJob(ingestionID, relativePath string, content []byte) ingest.Job {
	return func(ctx context.Context) (int, int, error) {
		tmp, err := os.CreateTemp("", "ragcore-upload-*.pdf")
		if err != nil {
			return 0, 0, err
		}
		path := tmp.Name()
		defer os.Remove(path)
		if _, err := tmp.Write(content); err != nil {
			tmp.Close()
			return 0, 0, err
		}
		if err := tmp.Close(); err != nil {
			return 0, 0, err
		}

		res, err := s.Pipeline.IngestPDF(ctx, ingest.PDFRequest{
			IngestionID:  ingestionID,
			RelativePath: relativePath,
			PDFPath:      path,
		})
		if err != nil {
			return 0, 0, err
		}
		return res.FilesChunked, res.ChunksWritten, nil
	}
}

type ingestRepoRequest struct {
	GitURL    string
	LocalPath string
	Provider  string
}

// handleIngestRepo implements POST /v1/ingest-repo: form fields git_url,
// local_path, provider. Exactly one of git_url/local_path is required.
func (s *Server) handleIngestRepo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		apierr.WriteHTTP(w, apierr.NewValidationError("could not parse form body", err.Error(), err))
		return
	}
	req := ingestRepoRequest{
		GitURL:    r.FormValue("git_url"),
		LocalPath: r.FormValue("local_path"),
		Provider:  r.FormValue("provider"),
	}

	var source ingest.RepoSource
	var repoSeed string
	switch {
	case req.GitURL != "" && req.LocalPath != "":
		apierr.WriteHTTP(w, apierr.NewValidationError("exactly one of git_url or local_path is required", "both were set", nil))
		return
	case req.GitURL != "":
		source = ingest.RepoSource{Type: "git_url", Value: req.GitURL}
		repoSeed = req.GitURL
	case req.LocalPath != "":
		source = ingest.RepoSource{Type: "local_path", Value: req.LocalPath}
		repoSeed = req.LocalPath
	default:
		apierr.WriteHTTP(w, apierr.NewValidationError("exactly one of git_url or local_path is required", "neither was set", nil))
		return
	}

	if req.Provider != "" {
		s.logger().Warn("httpapi.ingest_repo.provider_override_ignored", "requested", req.Provider)
	}

	repoID := identity.BuildRepoID(repoSeed).String()
	ingestionID := uuid.New().String()

	job := func(ctx context.Context) (int, int, error) {
		res, err := s.Pipeline.IngestRepo(ctx, ingest.RepoRequest{
			IngestionID: ingestionID,
			RepoID:      repoID,
			Source:      source,
		})
		if err != nil {
			return 0, 0, err
		}
		return res.FilesChunked, res.ChunksWritten, nil
	}

	if err := s.Tasks.Start(context.WithoutCancel(r.Context()), ingestionID, repoID, job); err != nil {
		s.writeStartError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, acceptedResponse{IngestionID: ingestionID, Status: string(store.PhaseAccepted)})
}

func (s *Server) writeStartError(w http.ResponseWriter, err error) {
	var busy *ingest.ErrRepoBusy
	if errors.As(err, &busy) {
		apierr.WriteHTTP(w, &apierr.UserError{
			Message:    err.Error(),
			ExitCode:   1,
			HTTPStatus: http.StatusConflict,
			ErrorCode:  "INVALID_REQUEST",
			Err:        err,
		})
		return
	}
	apierr.WriteHTTP(w, apierr.NewInternalError("starting ingestion failed", err.Error(), "", err))
}

type ingestStatusResponse struct {
	IngestionID string `json:"ingestion_id"`
	Status      string `json:"status"`
}

// handleIngestStatus implements GET /v1/ingest/{id} and
// GET /v1/ingest-repo/{id}.
func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := requireValidUUID("id", id); err != nil {
		apierr.WriteHTTP(w, err)
		return
	}

	row, ok, err := s.Status.Get(r.Context(), id)
	if err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("looking up ingestion status failed", err.Error(), "", err))
		return
	}
	if !ok {
		apierr.WriteHTTP(w, apierr.NewNotFoundError("unknown ingestion_id", id))
		return
	}
	writeJSON(w, http.StatusOK, ingestStatusResponse{IngestionID: row.IngestionID, Status: string(row.Phase)})
}

// handleSummary implements POST /v1/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IngestionID string `json:"ingestion_id"`
		Summary     string `json:"summary"`
	}
	if err := decodeJSON(r, &req); err != nil {
		apierr.WriteHTTP(w, err)
		return
	}
	if req.IngestionID == "" {
		apierr.WriteHTTP(w, apierr.NewValidationError("ingestion_id is required", "", nil))
		return
	}

	if err := s.Repo.UpdateSummary(r.Context(), req.IngestionID, req.Summary); err != nil {
		apierr.WriteHTTP(w, apierr.NewInternalError("updating summary failed", err.Error(), "", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
