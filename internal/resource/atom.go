// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package resource

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// TypeField is the discriminator every Atom must carry as a string.
const TypeField = "type"

// Atom is a single typed attribute value: a flat set of named fields, one of which is "type".
type Atom struct {
	fields *Object
}

// Attribute is the list of atoms stored under one attribute name.
type Attribute []Atom

// Field is one named value of an Atom.
type Field struct {
	Name  string
	Value any
}

// NewAtom wraps fields as an Atom. The atom is typed only when fields holds a string "type".
func NewAtom(fields *Object) Atom {
	if fields == nil {
		fields = NewObject()
	}
	return Atom{fields: fields}
}

// AtomFromValue converts a decoded value into an Atom, reporting whether it is a typed atom.
func AtomFromValue(value any) (Atom, bool) {
	object, ok := value.(*Object)
	if !ok {
		return Atom{}, false
	}

	atom := NewAtom(object)
	_, typed := atom.Type()
	return atom, typed
}

// Type returns the atom discriminator and whether it is present as a string.
func (a Atom) Type() (string, bool) {
	value, ok := a.fields.Get(TypeField)
	if !ok {
		return "", false
	}
	typeName, ok := value.(string)
	return typeName, ok
}

// Fields returns every field of the atom, "type" included, in declaration order.
func (a Atom) Fields() []Field {
	keys := a.fields.Keys()
	fields := make([]Field, 0, len(keys))
	for _, key := range keys {
		value, _ := a.fields.Get(key)
		fields = append(fields, Field{Name: key, Value: value})
	}
	return fields
}

// MarshalJSON encodes the atom fields in declaration order.
func (a Atom) MarshalJSON() ([]byte, error) {
	return a.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object into the atom.
func (a *Atom) UnmarshalJSON(data []byte) error {
	object := NewObject()
	if err := object.UnmarshalJSON(data); err != nil {
		return err
	}
	a.fields = object
	return nil
}

// Stringify renders a field value as plain text. Structured values are rendered as JSON.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v)
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}
