// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package server exposes the HTTP surface of the service using the Fiber framework.
// It serves the status routes used by the orchestrator, the Prometheus metrics and, when a
// handler is registered, the push endpoint accepting queue deliveries.
package server
