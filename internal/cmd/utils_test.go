// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/mia-platform/ingest/internal/destination"
	fakedestination "github.com/mia-platform/ingest/internal/destination/fake"
	"github.com/mia-platform/ingest/internal/metrics"
	"github.com/mia-platform/ingest/internal/queue"
	"github.com/mia-platform/ingest/internal/resource"
	"github.com/mia-platform/ingest/internal/server"
	fakeserver "github.com/mia-platform/ingest/internal/server/fake"
	"github.com/mia-platform/ingest/internal/source"
	fakesource "github.com/mia-platform/ingest/internal/source/fake"
)

const (
	aliceID = "3f2b8c1e-9a4d-4e6f-8b2a-1c3d5e7f9a0b"
	teamID  = "a1b2c3d4-e5f6-4a7b-9c8d-0e1f2a3b4c5d"
)

func testTables() map[string][]resource.Row {
	return map[string][]resource.Row{
		"dbo.People": {
			resource.NewRow([]string{resource.ColumnID, resource.ColumnName}, []any{aliceID, "Alice"}),
		},
		"dbo.Teams": {
			resource.NewRow([]string{resource.ColumnID, resource.ColumnName}, []any{teamID, "Platform"}),
		},
	}
}

// testEnvironment holds the fakes returned by testDependencies.
type testEnvironment struct {
	extractor   fakesource.FakeExtractor
	destination *fakedestination.FakeDestination
	server      *fakeserver.Server
	consumer    *fakeConsumer
}

// testDependencies returns dependencies backed by in memory fakes.
func testDependencies(tb testing.TB, sourceErrs map[string]error) (dependencies, *testEnvironment) {
	tb.Helper()

	env := &testEnvironment{
		extractor:   fakesource.NewFakeExtractor(tb, testTables(), sourceErrs),
		destination: fakedestination.NewFakeDestination(tb),
		server:      fakeserver.NewFakeServer(tb),
		consumer:    &fakeConsumer{started: make(chan queue.Result, 1)},
	}

	return dependencies{
		extractor: func() (source.Extractor, error) {
			return env.extractor, nil
		},
		writer: func(io.Writer, bool) (destination.Writer, error) {
			return env.destination, nil
		},
		consumer: func() (consumer, error) {
			return env.consumer, nil
		},
		server: func(context.Context, *metrics.Metrics) (server.Server, error) {
			return env.server, nil
		},
	}, env
}

// fakeConsumer hands Delivery to the handler once, then waits for the context to be cancelled.
type fakeConsumer struct {
	Delivery queue.Delivery

	started chan queue.Result

	lock   sync.Mutex
	closed int
}

func (c *fakeConsumer) Start(ctx context.Context, handler queue.Handler) error {
	c.started <- handler(ctx, c.Delivery)
	<-ctx.Done()
	return nil
}

func (c *fakeConsumer) Close(context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.closed++
	return nil
}

func (c *fakeConsumer) Closed() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closed
}
