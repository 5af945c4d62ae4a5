// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package queue

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedEvent is returned when a push event cannot be decoded.
	ErrMalformedEvent = errors.New("malformed event")
)

// Event is a batch of messages pushed over HTTP, in the shape used by SQS batch events.
type Event struct {
	Records []Record `json:"Records"`
}

// Record is a single pushed message.
type Record struct {
	MessageID         string                      `json:"messageId"`
	Body              string                      `json:"body"`
	MessageAttributes map[string]MessageAttribute `json:"messageAttributes"`
}

// MessageAttribute is a typed message attribute. Only string values are read.
type MessageAttribute struct {
	StringValue string `json:"stringValue"`
	DataType    string `json:"dataType,omitempty"`
}

// Response reports the records that must be delivered again.
type Response struct {
	BatchItemFailures []ItemFailure `json:"batchItemFailures"`
}

// ItemFailure identifies a record to deliver again.
type ItemFailure struct {
	ItemIdentifier string `json:"itemIdentifier"`
}

// DecodeEvent parses a pushed event into a Delivery.
func DecodeEvent(data []byte) (Delivery, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	delivery := make(Delivery, 0, len(event.Records))
	for position, record := range event.Records {
		if record.MessageID == "" {
			return nil, fmt.Errorf("%w: record at position %d has no messageId", ErrMalformedEvent, position)
		}

		attributes := make(map[string]string, len(record.MessageAttributes))
		for name, attribute := range record.MessageAttributes {
			attributes[name] = attribute.StringValue
		}
		delivery = append(delivery, Message{
			ID:         record.MessageID,
			Body:       record.Body,
			Attributes: attributes,
		})
	}
	return delivery, nil
}

// NewResponse converts result into the response expected by the pushing host.
func NewResponse(result Result) Response {
	failures := make([]ItemFailure, 0, len(result.Failed))
	for _, id := range result.Failed {
		failures = append(failures, ItemFailure{ItemIdentifier: id})
	}
	return Response{BatchItemFailures: failures}
}
