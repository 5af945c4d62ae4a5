// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package mapper

import "errors"

// Ensure InvalidPathError implements the error interface.
var _ error = &InvalidPathError{}

var (
	// ErrInvalidPath is the sentinel wrapped by every InvalidPathError.
	ErrInvalidPath = errors.New("invalid attribute path")
)

// InvalidPathError reports a path expression that cannot address a location.
type InvalidPathError struct {
	Path   string
	Reason string
}

func NewInvalidPathError(path, reason string) *InvalidPathError {
	return &InvalidPathError{
		Path:   path,
		Reason: reason,
	}
}

func (e *InvalidPathError) Error() string {
	msg := ErrInvalidPath.Error() + " " + `"` + e.Path + `"`
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidPathError) Unwrap() error {
	return ErrInvalidPath
}

func (e *InvalidPathError) Is(target error) bool {
	if e == nil || target == nil {
		return e == target
	}

	if t, ok := target.(*InvalidPathError); ok {
		return e.Error() == t.Error()
	}

	return false
}
