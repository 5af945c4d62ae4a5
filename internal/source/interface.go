// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package source

import (
	"context"

	"github.com/mia-platform/ingest/internal/resource"
)

// DefaultBatchSize is the number of rows handed to a BatchFunc when no other size is configured.
const DefaultBatchSize = 1000

// BatchFunc consumes one batch of rows. The Extractor does not read further rows until it returns.
// The rows slice is not reused after the call returns.
type BatchFunc func(ctx context.Context, rows []resource.Row) error

// Extractor streams the rows selected by a Query.
type Extractor interface {
	// Extract runs query and calls onBatch with consecutive batches of at most batchSize rows,
	// preserving source order. Only one onBatch call is in flight at any time. An error from
	// the cursor or from onBatch stops the extraction; batches already consumed are not rolled back.
	Extract(ctx context.Context, query Query, batchSize int, onBatch BatchFunc) error
}

// ClosableExtractor is an Extractor holding a connection that must be released.
type ClosableExtractor interface {
	Extractor

	// Close releases the connection. Calling it more than once is a no-op.
	Close(ctx context.Context) error
}
