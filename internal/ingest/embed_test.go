// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestMockEmbedder_DeterministicAndUnitNorm(t *testing.T) {
	m := NewMockEmbedder(32)
	v1, err := m.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	v2, err := m.Embed(context.Background(), "hello world")
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Len(t, v1, 32)
	assert.InDelta(t, 1.0, vectorNorm(v1), 1e-4)
}

func TestMockEmbedder_DifferentTextDifferentVector(t *testing.T) {
	m := NewMockEmbedder(16)
	v1, err := m.Embed(context.Background(), "alpha")
	require.NoError(t, err)
	v2, err := m.Embed(context.Background(), "beta")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)
}

func TestOllamaEmbedder_ParsesAndNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		_, _ = w.Write([]byte(`{"embedding": [3, 4]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text")
	v, err := e.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)
}

func TestOllamaEmbedder_RetriesOnRetryableError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"embedding": [1, 0]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "")
	e.Retry = RetryConfig{MaxAttempts: 3, BaseDelay: 0, MaxDelay: 0}
	v, err := e.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, v, 2)
}

func TestOpenAIEmbedder_ParsesDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data": [{"embedding": [1, 1]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL, "sk-test", "")
	v, err := e.Embed(context.Background(), "text")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vectorNorm(v), 1e-6)
}

func TestNewEmbedder_Dispatch(t *testing.T) {
	e, err := NewEmbedder("mock", "", "", "", 8)
	require.NoError(t, err)
	assert.IsType(t, &MockEmbedder{}, e)

	_, err = NewEmbedder("unknown", "", "", "", 8)
	assert.Error(t, err)
}

func TestTruncateForEmbedding_CapsAt2000Chars(t *testing.T) {
	long := make([]byte, 3000)
	for i := range long {
		long[i] = 'a'
	}
	out := truncateForEmbedding(string(long))
	assert.Len(t, out, maxEmbedChars)
}
