// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package queue

import (
	"context"
	"strconv"
	"strings"
)

// Names of the message attributes read from every queue host.
const (
	AttributeTable    = "Table"
	AttributeIndex    = "Index"
	AttributePriority = "Priority"

	idSeparator = ","
)

// Message is a raw queue message as received from the host.
type Message struct {
	// ID identifies the message for redelivery.
	ID         string
	Body       string
	Attributes map[string]string
}

// Delivery is the set of messages handed over by the host in one call.
type Delivery []Message

// Instruction is the ingestion work requested by a single message.
type Instruction struct {
	ID    string
	Table string
	Index string
	// IDs lists the requested document ids. Empty entries of the body are dropped; the
	// remaining ones are not validated yet.
	IDs []string
	// Priority asks for the documents to be applied immediately. It is not supported and the
	// instruction is processed as any other one.
	Priority bool
}

// Result is the outcome of a delivery.
type Result struct {
	// Failed lists the ids of the messages to deliver again. An empty list acknowledges everything.
	Failed []string
}

// Handler processes a delivery to completion.
type Handler func(ctx context.Context, delivery Delivery) Result

// ParseInstruction reads the instruction carried by msg. Missing attributes are left empty.
func ParseInstruction(msg Message) Instruction {
	instruction := Instruction{
		ID:    msg.ID,
		Table: strings.TrimSpace(msg.Attributes[AttributeTable]),
		Index: strings.TrimSpace(msg.Attributes[AttributeIndex]),
		IDs:   SplitIDs(msg.Body),
	}

	if priority, err := strconv.ParseBool(strings.TrimSpace(msg.Attributes[AttributePriority])); err == nil {
		instruction.Priority = priority
	}
	return instruction
}

// SplitIDs splits a comma separated list of ids, dropping empty entries.
func SplitIDs(body string) []string {
	ids := make([]string, 0)
	for id := range strings.SplitSeq(body, idSeparator) {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
