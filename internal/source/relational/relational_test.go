// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package relational

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/ingest/internal/resource"
	"github.com/mia-platform/ingest/internal/source"
)

var peopleIDs = []string{
	"3fa85f64-5717-4562-b3fc-2c963f66afa6",
	"0b7c9a3e-8d2f-4c1a-9e5b-6f4d3c2b1a09",
	"5d1e2f3a-4b5c-4d6e-8f70-8192a3b4c5d6",
	"9a8b7c6d-5e4f-4a3b-a2c1-d0e9f8a7b6c5",
	"c1d2e3f4-a5b6-4c7d-98e9-f0a1b2c3d4e5",
}

func newTestSource(t *testing.T) *Source {
	t.Helper()

	src, err := newSource(config{
		Driver:          driverSQLite,
		DSN:             filepath.Join(t.TempDir(), "ingest.db"),
		MaxOpenConns:    2,
		ConnMaxIdleTime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, src.Close(context.Background()))
	})

	db, err := src.initDB(t.Context())
	require.NoError(t, err)

	_, err = db.ExecContext(t.Context(), `CREATE TABLE people (
		"id" TEXT PRIMARY KEY,
		"name" TEXT,
		"categoryLvl1" TEXT,
		"age" INTEGER,
		"$.Contact[0].type" TEXT,
		"$.Contact[0].email" TEXT
	)`)
	require.NoError(t, err)

	for i, id := range peopleIDs {
		_, err := db.ExecContext(t.Context(),
			`INSERT INTO people VALUES (?, ?, ?, ?, ?, ?)`,
			id, fmt.Sprintf("person-%d", i), "people", 20+i, "Email", fmt.Sprintf("p%d@example.com", i),
		)
		require.NoError(t, err)
	}
	return src
}

func TestExtractBatches(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		batchSize     int
		expectedSizes []int
	}{
		"rows split in full batches and a remainder": {
			batchSize:     2,
			expectedSizes: []int{2, 2, 1},
		},
		"exact multiple has no trailing batch": {
			batchSize:     5,
			expectedSizes: []int{5},
		},
		"default batch size": {
			batchSize:     0,
			expectedSizes: []int{5},
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			src := newTestSource(t)
			sizes := make([]int, 0)
			ids := make([]string, 0)
			err := src.Extract(t.Context(), source.FullScan("people"), test.batchSize, func(_ context.Context, rows []resource.Row) error {
				sizes = append(sizes, len(rows))
				for _, row := range rows {
					ids = append(ids, row.ID)
				}
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, test.expectedSizes, sizes)
			assert.Equal(t, peopleIDs, ids)
		})
	}
}

func TestExtractRowShape(t *testing.T) {
	t.Parallel()

	src := newTestSource(t)
	query, ok := source.FilteredScan("people", []string{peopleIDs[1], "not-a-uuid"})
	require.True(t, ok)

	var rows []resource.Row
	err := src.Extract(t.Context(), query, 10, func(_ context.Context, batch []resource.Row) error {
		rows = append(rows, batch...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, resource.Row{
		ID:           peopleIDs[1],
		Name:         "person-1",
		CategoryLvl1: "people",
		Columns: []resource.Column{
			{Name: "age", Value: int64(21)},
			{Name: "$.Contact[0].type", Value: "Email"},
			{Name: "$.Contact[0].email", Value: "p1@example.com"},
		},
	}, rows[0])
}

func TestExtractSingleFlight(t *testing.T) {
	t.Parallel()

	src := newTestSource(t)

	var inFlight, maxInFlight atomic.Int32
	calls := 0
	err := src.Extract(t.Context(), source.FullScan("people"), 1, func(_ context.Context, _ []resource.Row) error {
		current := inFlight.Add(1)
		defer inFlight.Add(-1)
		if current > maxInFlight.Load() {
			maxInFlight.Store(current)
		}
		calls++
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, len(peopleIDs), calls)
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestExtractBatchError(t *testing.T) {
	t.Parallel()

	src := newTestSource(t)
	errBatch := errors.New("bulk failed")

	calls := 0
	err := src.Extract(t.Context(), source.FullScan("people"), 2, func(_ context.Context, _ []resource.Row) error {
		calls++
		return errBatch
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBatch)
	assert.ErrorIs(t, err, ErrRelationalSource)
	assert.Equal(t, 1, calls)
}

func TestExtractErrors(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		query       source.Query
		expectedErr error
	}{
		"invalid identifier": {
			query:       source.FullScan("people; DROP TABLE people"),
			expectedErr: ErrInvalidIdentifier,
		},
		"missing table": {
			query:       source.FullScan("missing"),
			expectedErr: ErrRelationalSource,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			src := newTestSource(t)
			err := src.Extract(t.Context(), test.query, 10, func(context.Context, []resource.Row) error {
				t.Error("batch function must not be called")
				return nil
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, test.expectedErr)
		})
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	src := newTestSource(t)
	require.NoError(t, src.Close(t.Context()))
	require.NoError(t, src.Close(t.Context()))

	// the pool is opened again on demand
	err := src.Extract(t.Context(), source.FullScan("sqlite_master"), 10, func(context.Context, []resource.Row) error {
		return nil
	})
	require.NoError(t, err)
}
