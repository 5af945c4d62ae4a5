// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package logger wraps hclog behind a small interface shared by every ingest component.
// Loggers travel through context.Context so deliveries, tables and HTTP requests can
// carry their own named and annotated instance.
package logger
