// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package opensearch

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

var (
	// ErrNotAcknowledged is returned when the cluster does not acknowledge an index operation.
	ErrNotAcknowledged = errors.New("request not acknowledged")
	// ErrPartialFailure is returned when at least one document of a bulk request failed.
	ErrPartialFailure = errors.New("bulk request partially failed")
)

// Error wraps every failure of the OpenSearch writer.
type Error struct {
	err error
}

func (e *Error) Error() string {
	return "opensearch: " + e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Is(target error) bool {
	ose, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.err.Error() == ose.err.Error()
}

func handleError(err error) error {
	if err == nil {
		return nil
	}

	var parseErr env.AggregateError
	if errors.As(err, &parseErr) {
		err = parseErr.Errors[0]
	}

	var osErr *Error
	if errors.As(err, &osErr) {
		return err
	}

	return &Error{
		err: err,
	}
}
