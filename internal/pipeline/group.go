// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pipeline

import (
	"context"

	"github.com/mia-platform/ingest/internal/logger"
	"github.com/mia-platform/ingest/internal/queue"
)

// TableBatch is the work requested for one table within a delivery.
type TableBatch struct {
	Table string
	Index string
	// IDs accumulates the ids of every merged instruction, duplicates included.
	IDs []string
	// DeliveryID is the message reported as failed when the table fails: the first message
	// that named the table.
	DeliveryID string
}

// Group merges the instructions of delivery per table, in arrival order.
// Instructions missing a table, an index or ids, and instructions naming a different index for
// an already grouped table, are returned as errors and leave the grouped batches untouched.
func Group(ctx context.Context, delivery queue.Delivery) ([]*TableBatch, []*InstructionError) {
	log := logger.FromContext(ctx).WithName(loggerName)
	batches := make([]*TableBatch, 0)
	byTable := make(map[string]*TableBatch)
	rejected := make([]*InstructionError, 0)

	for _, msg := range delivery {
		instruction := queue.ParseInstruction(msg)
		if instruction.Priority {
			log.Warn("priority ingestion is not supported, instruction is queued", "messageId", instruction.ID)
		}

		if instruction.Table == "" || instruction.Index == "" || len(instruction.IDs) == 0 {
			log.Error("malformed instruction", "messageId", instruction.ID, "table", instruction.Table, "index", instruction.Index, "ids", len(instruction.IDs))
			rejected = append(rejected, &InstructionError{ID: instruction.ID, err: ErrMalformedInstruction})
			continue
		}

		batch, found := byTable[instruction.Table]
		if !found {
			batch = &TableBatch{
				Table:      instruction.Table,
				Index:      instruction.Index,
				IDs:        append([]string(nil), instruction.IDs...),
				DeliveryID: instruction.ID,
			}
			byTable[instruction.Table] = batch
			batches = append(batches, batch)
			continue
		}

		if batch.Index != instruction.Index {
			log.Error("cannot batch a table into multiple indices", "messageId", instruction.ID, "table", instruction.Table, "index", instruction.Index, "groupedIndex", batch.Index)
			rejected = append(rejected, &InstructionError{ID: instruction.ID, err: ErrConflictingIndex})
			continue
		}

		batch.IDs = append(batch.IDs, instruction.IDs...)
	}

	return batches, rejected
}
