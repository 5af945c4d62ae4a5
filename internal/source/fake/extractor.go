// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/mia-platform/ingest/internal/resource"
	"github.com/mia-platform/ingest/internal/source"
)

// FakeExtractor serves rows from memory and records every query it receives.
type FakeExtractor interface {
	source.ClosableExtractor

	// Queries returns the queries received so far.
	Queries() []source.Query
	// Closed reports how many times Close was called.
	Closed() int
}

var _ FakeExtractor = &fakeExtractor{}

type fakeExtractor struct {
	tb testing.TB

	tables map[string][]resource.Row
	errs   map[string]error

	lock    sync.Mutex
	queries []source.Query
	closed  int
}

// NewFakeExtractor returns a FakeExtractor serving tables. Extracting a table listed in errs
// fails with the matching error before any batch is produced.
func NewFakeExtractor(tb testing.TB, tables map[string][]resource.Row, errs map[string]error) FakeExtractor {
	tb.Helper()

	return &fakeExtractor{
		tb:     tb,
		tables: tables,
		errs:   errs,
	}
}

func (f *fakeExtractor) Extract(ctx context.Context, query source.Query, batchSize int, onBatch source.BatchFunc) error {
	f.tb.Helper()

	f.lock.Lock()
	f.queries = append(f.queries, query)
	f.lock.Unlock()

	if err := f.errs[query.Table]; err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = source.DefaultBatchSize
	}

	batch := make([]resource.Row, 0, batchSize)
	for _, row := range f.tables[query.Table] {
		if query.Filtered() && !slices.Contains(query.IDs, row.ID) {
			continue
		}

		batch = append(batch, row)
		if len(batch) == batchSize {
			if err := onBatch(ctx, batch); err != nil {
				return err
			}
			batch = make([]resource.Row, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		return onBatch(ctx, batch)
	}
	return nil
}

func (f *fakeExtractor) Close(context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.closed++
	return nil
}

func (f *fakeExtractor) Queries() []source.Query {
	f.lock.Lock()
	defer f.lock.Unlock()
	return slices.Clone(f.queries)
}

func (f *fakeExtractor) Closed() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.closed
}
