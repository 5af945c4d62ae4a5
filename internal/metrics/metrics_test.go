// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := New()
	m.DeliveryProcessed()
	m.Instruction(OutcomeAccepted)
	m.Instruction(OutcomeAccepted)
	m.Instruction(OutcomeConflict)
	m.Table(OutcomeFailed)
	m.Rebuild(OutcomeSucceeded)
	m.RowsExtracted(5)
	m.DocumentsWritten(4)

	assert.InDelta(t, 1, testutil.ToFloat64(m.deliveries), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.instructions.WithLabelValues(OutcomeAccepted)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.instructions.WithLabelValues(OutcomeConflict)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.tables.WithLabelValues(OutcomeFailed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.rebuilds.WithLabelValues(OutcomeSucceeded)), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.rows), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(m.documents), 0)

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `ingest_instructions_total{outcome="accepted"} 2`)
	assert.Contains(t, string(body), "ingest_rows_extracted_total 5")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.DeliveryProcessed()
		m.Instruction(OutcomeMalformed)
		m.Table(OutcomeSkipped)
		m.Rebuild(OutcomeFailed)
		m.RowsExtracted(1)
		m.DocumentsWritten(1)
	})
}
