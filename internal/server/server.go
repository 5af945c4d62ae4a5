// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/mia-platform/ingest/internal/info"
	"github.com/mia-platform/ingest/internal/logger"
	"github.com/mia-platform/ingest/internal/metrics"
	"github.com/mia-platform/ingest/internal/queue"
)

const (
	loggerName = "ingest:server"

	statusPrefix   = "/-/"
	healthzPath    = "/-/healthz"
	readyPath      = "/-/ready"
	metricsPath    = "/-/metrics"
	deliveriesPath = "/deliveries"
)

// Server is the HTTP surface of the service.
type Server interface {
	// HandleDeliveries registers handler on the push endpoint.
	HandleDeliveries(handler queue.Handler)
	// SetReady changes the answer of the readiness route.
	SetReady(ready bool)
	Start() error
	Stop() error
	StartAsync(ctx context.Context)
}

type impServer struct {
	config

	app   *fiber.App
	ready atomic.Bool
}

var (
	ErrServerListen   = errors.New("server listen error")
	ErrServerShutdown = errors.New("server shutdown error")
)

// NewServer returns a Server configured from the environment. The metrics route is served
// only when m is not nil.
func NewServer(ctx context.Context, m *metrics.Metrics) (Server, error) {
	cfg, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               info.AppName,
		DisableStartupMessage: cfg.DisableStartupMessage,
		Immutable:             true,
	})
	log := logger.FromContext(ctx)
	app.Use(logger.RequestMiddlewareLogger(log, []string{statusPrefix}))

	srv := &impServer{
		app:    app,
		config: *cfg,
	}
	srv.statusRoutes(m)
	return srv, nil
}

func (s *impServer) statusRoutes(m *metrics.Metrics) {
	s.app.Get(healthzPath, func(c *fiber.Ctx) error {
		return c.JSON(statusBody("OK"))
	})

	s.app.Get(readyPath, func(c *fiber.Ctx) error {
		if !s.ready.Load() {
			return c.Status(http.StatusServiceUnavailable).JSON(statusBody("KO"))
		}
		return c.JSON(statusBody("OK"))
	})

	if m != nil {
		s.app.Get(metricsPath, adaptor.HTTPHandler(m.Handler()))
	}
}

func statusBody(status string) fiber.Map {
	return fiber.Map{
		"status":  status,
		"name":    info.AppName,
		"version": info.Version,
	}
}

func (s *impServer) HandleDeliveries(handler queue.Handler) {
	s.app.Post(deliveriesPath, func(c *fiber.Ctx) error {
		delivery, err := queue.DecodeEvent(c.Body())
		if err != nil {
			logger.FromContext(c.UserContext()).WithName(loggerName).Error("rejected delivery", "error", err.Error())
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{
				"statusCode": http.StatusBadRequest,
				"error":      http.StatusText(http.StatusBadRequest),
				"message":    err.Error(),
			})
		}

		result := handler(c.UserContext(), delivery)
		return c.Status(http.StatusOK).JSON(queue.NewResponse(result))
	})
}

func (s *impServer) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *impServer) Start() error {
	if err := s.app.Listen(s.address()); err != nil {
		return fmt.Errorf("%w: %w", ErrServerListen, err)
	}
	return nil
}

func (s *impServer) Stop() error {
	if err := s.app.Shutdown(); err != nil {
		return fmt.Errorf("%w: %w", ErrServerShutdown, err)
	}
	return nil
}

func (s *impServer) StartAsync(ctx context.Context) {
	log := logger.FromContext(ctx).WithName(loggerName)
	go func() {
		if err := s.Start(); err != nil {
			log.Error(err.Error())
		}
	}()
}
