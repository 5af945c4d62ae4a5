// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pipeline

import "errors"

var (
	// ErrMalformedInstruction is reported for an instruction missing its table, its index or its ids.
	ErrMalformedInstruction = errors.New("malformed instruction")
	// ErrConflictingIndex is reported for an instruction naming a different index for an already grouped table.
	ErrConflictingIndex = errors.New("cannot batch a table into multiple indices")
)

// InstructionError reports why an instruction was rejected while grouping.
type InstructionError struct {
	ID  string
	err error
}

func (e *InstructionError) Error() string {
	return "instruction " + e.ID + ": " + e.err.Error()
}

func (e *InstructionError) Unwrap() error {
	return e.err
}
