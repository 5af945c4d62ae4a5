// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package destination

import (
	"context"
	"errors"
	"fmt"

	"github.com/mia-platform/ingest/internal/resource"
)

var (
	// ErrMissingID is returned when a document without id is handed to BulkUpsert.
	ErrMissingID = errors.New("document missing required id field")
)

// Writer stores documents into a search index.
type Writer interface {
	// Rebuild deletes index, if present, and creates it again empty with the fixed settings and mappings.
	Rebuild(ctx context.Context, index string) error
	// BulkUpsert merges every resource into the document with the same id, creating it when absent.
	// The whole call fails when a resource has no id, and when any single document fails.
	BulkUpsert(ctx context.Context, index string, resources []resource.Resource) error
}

// ClosableWriter is a Writer holding a connection that must be released.
type ClosableWriter interface {
	Writer

	// Close releases the connection. Calling it more than once is a no-op.
	Close(ctx context.Context) error
}

// CheckIDs returns ErrMissingID when at least one resource has an empty id.
func CheckIDs(resources []resource.Resource) error {
	for position, res := range resources {
		if res.ID == "" {
			return fmt.Errorf("%w: document at position %d", ErrMissingID, position)
		}
	}
	return nil
}
