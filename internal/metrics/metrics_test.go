// Copyright 2026 Hybridcore
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestNewIngestion_RegistersAndIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewIngestion(reg)

	m.FilesChunked.Inc()
	m.ChunksEmbedded.Add(3)

	assert.Equal(t, 1.0, counterValue(t, m.FilesChunked))
	assert.Equal(t, 3.0, counterValue(t, m.ChunksEmbedded))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewRetrieval_RegistersAndIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRetrieval(reg)

	m.CodeFilterFallback.Inc()
	assert.Equal(t, 1.0, counterValue(t, m.CodeFilterFallback))
}
