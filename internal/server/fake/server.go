// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package fake

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mia-platform/ingest/internal/queue"
	"github.com/mia-platform/ingest/internal/server"
)

var _ server.Server = &Server{}

// ErrNoHandler is returned by Deliver when no handler has been registered.
var ErrNoHandler = errors.New("no delivery handler registered")

// Server records the handler and the readiness set by the code under test, and lets the test
// push deliveries to it.
type Server struct {
	tb testing.TB

	lock    sync.Mutex
	handler queue.Handler
	ready   bool

	startOnce   sync.Once
	stopOnce    sync.Once
	startedChan chan struct{}
	closedChan  chan struct{}
}

func NewFakeServer(tb testing.TB) *Server {
	tb.Helper()

	return &Server{
		tb:          tb,
		startedChan: make(chan struct{}),
		closedChan:  make(chan struct{}),
	}
}

func (s *Server) HandleDeliveries(handler queue.Handler) {
	s.tb.Helper()
	s.lock.Lock()
	defer s.lock.Unlock()
	s.handler = handler
}

func (s *Server) SetReady(ready bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.ready = ready
}

// Ready returns the last value passed to SetReady.
func (s *Server) Ready() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.ready
}

func (s *Server) Start() error {
	s.tb.Helper()
	s.startOnce.Do(func() { close(s.startedChan) })
	<-s.closedChan
	return nil
}

func (s *Server) Stop() error {
	s.tb.Helper()
	s.stopOnce.Do(func() { close(s.closedChan) })
	return nil
}

func (s *Server) StartAsync(_ context.Context) {
	s.tb.Helper()
	s.startOnce.Do(func() { close(s.startedChan) })
}

func (s *Server) StartedServer() <-chan struct{} {
	return s.startedChan
}

func (s *Server) StoppedServer() <-chan struct{} {
	return s.closedChan
}

// Deliver hands delivery to the registered handler as the push endpoint would.
func (s *Server) Deliver(ctx context.Context, delivery queue.Delivery) (queue.Result, error) {
	s.lock.Lock()
	handler := s.handler
	s.lock.Unlock()

	if handler == nil {
		return queue.Result{}, ErrNoHandler
	}
	return handler(ctx, delivery), nil
}
