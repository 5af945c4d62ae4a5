// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"context"
	"sync"
	"testing"

	"github.com/mia-platform/ingest/internal/destination"
	"github.com/mia-platform/ingest/internal/resource"
)

var _ destination.ClosableWriter = &FakeDestination{}

// FakeDestination records every call. Errors keyed by index are returned by both operations.
type FakeDestination struct {
	tb testing.TB

	lock      sync.Mutex
	Errs      map[string]error
	Rebuilt   []string
	Upserted  map[string][]resource.Resource
	BulkCalls int
	Closed    int
}

func NewFakeDestination(tb testing.TB) *FakeDestination {
	tb.Helper()
	return &FakeDestination{
		tb:       tb,
		Errs:     make(map[string]error),
		Upserted: make(map[string][]resource.Resource),
	}
}

func (f *FakeDestination) Rebuild(_ context.Context, index string) error {
	f.tb.Helper()
	f.lock.Lock()
	defer f.lock.Unlock()

	if err := f.Errs[index]; err != nil {
		return err
	}
	f.Rebuilt = append(f.Rebuilt, index)
	delete(f.Upserted, index)
	return nil
}

func (f *FakeDestination) BulkUpsert(_ context.Context, index string, resources []resource.Resource) error {
	f.tb.Helper()
	f.lock.Lock()
	defer f.lock.Unlock()

	f.BulkCalls++
	if err := destination.CheckIDs(resources); err != nil {
		return err
	}
	if err := f.Errs[index]; err != nil {
		return err
	}
	f.Upserted[index] = append(f.Upserted[index], resources...)
	return nil
}

func (f *FakeDestination) Close(context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Closed++
	return nil
}

// Documents returns a copy of the documents upserted into index.
func (f *FakeDestination) Documents(index string) []resource.Resource {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]resource.Resource(nil), f.Upserted[index]...)
}
