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

// Package ingest implements the ingestion pipeline: repository loading,
// chunking, embedding, and persistence across the three entry points spec
// §4.2 describes (raw text, pre-chunked, sectioned) plus full repository
// ingestion.
package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

// maxEmbedChars truncates chunk text before embedding, matching the
// teacher's code-token-limit heuristic in pkg/ingestion/embedding.go.
const maxEmbedChars = 2000

// Embedder maps a chunk of text to a single embedding vector. Mirrors
// internal/retrieve.Embedder's shape so the same provider value can serve
// both ingestion-time and query-time embedding without a shared interface
// type forcing a cross-package dependency.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

func truncateForEmbedding(text string) string {
	if len(text) <= maxEmbedChars {
		return text
	}
	return text[:maxEmbedChars]
}

// normalizeEmbedding scales v to unit L2 norm in place, matching every
// provider in the teacher's pkg/ingestion/embedding.go so cosine similarity
// search behaves identically regardless of which provider produced a
// vector.
func normalizeEmbedding(v []float32) {
	var sumSquares float64
	for _, x := range v {
		sumSquares += float64(x) * float64(x)
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

// RetryConfig bounds an Embedder's retry/backoff behavior, ported from the
// teacher's EmbeddingGenerator retry loop.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig matches the teacher's embedding.go defaults.
var DefaultRetryConfig = RetryConfig{MaxAttempts: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second}

func computeBackoffWithJitter(cfg RetryConfig, attempt int, rng *rand.Rand) time.Duration {
	delay := cfg.BaseDelay * time.Duration(1<<uint(attempt))
	if delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	jitter := time.Duration(rng.Int63n(int64(delay)/2 + 1))
	return delay/2 + jitter
}

func isRetryableEmbeddingError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"timeout", "connection reset", "eof", "503", "502", "429", "temporarily unavailable"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// withRetry runs fn up to cfg.MaxAttempts times, backing off between
// retryable failures. The last error is returned if every attempt fails.
func withRetry(ctx context.Context, cfg RetryConfig, rng *rand.Rand, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryableEmbeddingError(lastErr) || attempt == cfg.MaxAttempts-1 {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(computeBackoffWithJitter(cfg, attempt, rng)):
		}
	}
	return lastErr
}

// MockEmbedder derives a deterministic pseudo-random unit vector from the
// hash of its input text, for tests and for running the full pipeline
// without a live embedding backend. Grounded on
// pkg/ingestion/embedding.go's MockEmbeddingProvider.
type MockEmbedder struct {
	Dimensions int
}

// NewMockEmbedder returns a MockEmbedder producing vectors of dims length.
func NewMockEmbedder(dims int) *MockEmbedder {
	return &MockEmbedder{Dimensions: dims}
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	dims := m.Dimensions
	if dims <= 0 {
		dims = 768
	}
	sum := sha256.Sum256([]byte(truncateForEmbedding(text)))
	seed := int64(binary.BigEndian.Uint64(sum[:8]))
	rng := rand.New(rand.NewSource(seed))
	v := make([]float32, dims)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	normalizeEmbedding(v)
	return v, nil
}

var _ Embedder = (*MockEmbedder)(nil)

// OllamaEmbedder calls an Ollama server's /api/embeddings endpoint,
// grounded on pkg/ingestion/embedding.go's OllamaEmbeddingProvider.
type OllamaEmbedder struct {
	BaseURL string
	Model   string
	HTTP    *http.Client
	Retry   RetryConfig

	rng *rand.Rand
}

// NewOllamaEmbedder returns an OllamaEmbedder targeting baseURL with model.
// baseURL defaults to "http://localhost:11434"; model defaults to
// "nomic-embed-text".
func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaEmbedder{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Model:   model,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		Retry:   DefaultRetryConfig,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (o *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := withRetry(ctx, o.Retry, o.rng, func() error {
		vec, err := o.embedOnce(ctx, text)
		if err != nil {
			return err
		}
		out = vec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: ollama embedding: %w", err)
	}
	return out, nil
}

func (o *OllamaEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: o.Model, Prompt: truncateForEmbedding(text)})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embeddings endpoint returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed ollamaEmbedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding ollama embeddings response: %w", err)
	}
	normalizeEmbedding(parsed.Embedding)
	return parsed.Embedding, nil
}

var _ Embedder = (*OllamaEmbedder)(nil)

// OpenAIEmbedder calls an OpenAI-compatible /v1/embeddings endpoint,
// grounded on pkg/ingestion/embedding.go's OpenAIEmbeddingProvider.
type OpenAIEmbedder struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
	Retry   RetryConfig

	rng *rand.Rand
}

// NewOpenAIEmbedder returns an OpenAIEmbedder. baseURL defaults to
// "https://api.openai.com/v1"; model defaults to "text-embedding-3-small".
func NewOpenAIEmbedder(baseURL, apiKey, model string) *OpenAIEmbedder {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		APIKey:  apiKey,
		Model:   model,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		Retry:   DefaultRetryConfig,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type openAIEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var out []float32
	err := withRetry(ctx, o.Retry, o.rng, func() error {
		vec, err := o.embedOnce(ctx, text)
		if err != nil {
			return err
		}
		out = vec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: openai embedding: %w", err)
	}
	return out, nil
}

func (o *OpenAIEmbedder) embedOnce(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(openAIEmbedRequest{Model: o.Model, Input: truncateForEmbedding(text)})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if o.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.APIKey)
	}

	resp, err := o.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai embeddings endpoint returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed openAIEmbedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decoding openai embeddings response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings response carried no data")
	}
	normalizeEmbedding(parsed.Data[0].Embedding)
	return parsed.Data[0].Embedding, nil
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewEmbedder dispatches on providerType ("mock", "ollama", "openai"),
// mirroring pkg/ingestion/embedding.go's CreateEmbeddingProvider factory.
func NewEmbedder(providerType, baseURL, apiKey, model string, dims int) (Embedder, error) {
	switch strings.ToLower(providerType) {
	case "", "mock":
		return NewMockEmbedder(dims), nil
	case "ollama":
		return NewOllamaEmbedder(baseURL, model), nil
	case "openai":
		return NewOpenAIEmbedder(baseURL, apiKey, model), nil
	default:
		return nil, fmt.Errorf("ingest: unknown embedding provider %q", providerType)
	}
}
