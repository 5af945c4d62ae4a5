// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package mapper

import (
	"strconv"
	"strings"

	"github.com/mia-platform/ingest/internal/resource"
)

// SetPath writes value into root at the location addressed by path.
//
// A path is the root marker "$" followed by ".name" and "[index]" segments, for example
// "$.Contact[0]". Missing intermediate containers are created: an array when the next
// segment is numeric, an object otherwise. Arrays grow with holes to reach an index; a hole
// encodes as null but, unlike an explicit null value, is skipped when attributes are validated.
// A string value holding valid JSON is stored as the decoded structure.
func SetPath(path string, root *resource.Object, value any) error {
	tokens := tokenize(path)
	if len(tokens) == 0 {
		return NewInvalidPathError(path, "no segments")
	}

	if text, ok := value.(string); ok {
		if decoded, err := resource.DecodeJSON([]byte(text)); err == nil {
			value = decoded
		}
	}

	_, err := assign(path, root, tokens, value)
	return err
}

// hole fills the array positions a sparse assignment skipped over.
type hole struct{}

func (hole) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

func isHole(value any) bool {
	_, ok := value.(hole)
	return ok
}

func tokenize(path string) []string {
	path = strings.TrimPrefix(path, resource.PathRoot)
	fields := strings.FieldsFunc(path, func(r rune) bool {
		return r == '.' || r == '[' || r == ']'
	})
	return fields
}

// arrayIndex reports whether token is a non negative integer usable as an array index.
func arrayIndex(token string) (int, bool) {
	index, err := strconv.Atoi(token)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}

func newContainer(nextToken string) any {
	if _, ok := arrayIndex(nextToken); ok {
		return make([]any, 0)
	}
	return resource.NewObject()
}

func isContainer(value any) bool {
	switch value.(type) {
	case *resource.Object, []any:
		return true
	default:
		return false
	}
}

// assign walks container along tokens and returns it, possibly reallocated, with value set.
func assign(path string, container any, tokens []string, value any) (any, error) {
	token := tokens[0]
	if len(tokens) == 1 {
		return put(path, container, token, value)
	}

	child := get(container, token)
	if !isContainer(child) {
		child = newContainer(tokens[1])
	}

	updated, err := assign(path, child, tokens[1:], value)
	if err != nil {
		return nil, err
	}
	return put(path, container, token, updated)
}

func get(container any, token string) any {
	switch c := container.(type) {
	case *resource.Object:
		value, _ := c.Get(token)
		return value
	case []any:
		if index, ok := arrayIndex(token); ok && index < len(c) {
			return c[index]
		}
	}
	return nil
}

func put(path string, container any, token string, value any) (any, error) {
	switch c := container.(type) {
	case *resource.Object:
		c.Set(token, value)
		return c, nil
	case []any:
		index, ok := arrayIndex(token)
		if !ok {
			return nil, NewInvalidPathError(path, "segment "+strconv.Quote(token)+" addresses an array")
		}
		for len(c) <= index {
			c = append(c, hole{})
		}
		c[index] = value
		return c, nil
	default:
		return nil, NewInvalidPathError(path, "segment "+strconv.Quote(token)+" addresses a scalar")
	}
}
