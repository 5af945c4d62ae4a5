// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	forwardedHostHeaderKey = "x-forwarded-host"
	forwardedForHeaderKey  = "x-forwarded-for"
	requestIDHeaderName    = "x-request-id"

	IncomingRequestMessage  = "incoming request"
	RequestCompletedMessage = "request completed"
)

type httpRequest struct {
	Method    string `json:"method,omitempty"`
	UserAgent string `json:"userAgent,omitempty"`
}

type httpResponse struct {
	StatusCode int `json:"statusCode,omitempty"`
	BodyBytes  int `json:"bodyBytes,omitempty"`
}

type httpHost struct {
	Hostname      string `json:"hostname,omitempty"`
	ForwardedHost string `json:"forwardedHost,omitempty"`
	IP            string `json:"ip,omitempty"`
}

// requestID returns the caller supplied request id or a fresh random one.
func requestID(c *fiber.Ctx) string {
	if id := c.Get(requestIDHeaderName); id != "" {
		return id
	}
	return uuid.NewString()
}

func hostOf(c *fiber.Ctx) httpHost {
	return httpHost{
		Hostname:      strings.Split(string(c.Request().Host()), ":")[0],
		ForwardedHost: c.Get(forwardedHostHeaderKey),
		IP:            c.Get(forwardedForHeaderKey),
	}
}

// statusOf reports the status code that will be sent, honoring fiber errors returned by handlers.
func statusOf(c *fiber.Ctx, err error) (int, int) {
	if fiberErr, ok := err.(*fiber.Error); ok {
		return fiberErr.Code, len(fiberErr.Message)
	}
	return c.Response().StatusCode(), len(c.Response().Body())
}

// RequestMiddlewareLogger is a fiber middleware that logs every request that does not start
// with one of excludedPrefix, and stores a request scoped logger in the user context.
func RequestMiddlewareLogger(logger Logger, excludedPrefix []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		for _, prefix := range excludedPrefix {
			if strings.HasPrefix(path, prefix) {
				return c.Next()
			}
		}

		start := time.Now()
		log := logger.WithName("request").With("requestId", requestID(c))
		c.SetUserContext(WithContext(c.UserContext(), log))

		request := httpRequest{Method: c.Method(), UserAgent: c.Get(fiber.HeaderUserAgent)}
		log.Trace(IncomingRequestMessage, "http", request, "url", path, "host", hostOf(c))

		err := c.Next()
		statusCode, size := statusOf(c, err)
		log.Info(RequestCompletedMessage,
			"http", request,
			"response", httpResponse{StatusCode: statusCode, BodyBytes: size},
			"url", path,
			"host", hostOf(c),
			"responseTime", float64(time.Since(start).Milliseconds()),
		)
		return err
	}
}
