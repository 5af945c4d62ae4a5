// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package mapper

import (
	"strings"

	"github.com/mia-platform/ingest/internal/resource"
)

const (
	facetSeparator  = "|"
	facetTerminator = "\n"
)

var facetValueCleaner = strings.NewReplacer("\n", "", "\t", "")

// ValidateAttribute reports whether value is a list in which every element is a typed atom.
// Holes left by sparse path assignments are ignored, explicit null elements are not.
func ValidateAttribute(value any) bool {
	list, ok := value.([]any)
	if !ok {
		return false
	}

	for _, element := range list {
		if isHole(element) {
			continue
		}
		if _, typed := resource.AtomFromValue(element); !typed {
			return false
		}
	}
	return true
}

// ToFacet encodes every field of atom, type included, as "name|value\n" in declaration order.
// Newlines and tabs inside values are removed. It returns false when the atom is untyped.
func ToFacet(atom resource.Atom) (string, bool) {
	if _, typed := atom.Type(); !typed {
		return "", false
	}

	builder := new(strings.Builder)
	for _, field := range atom.Fields() {
		builder.WriteString(field.Name)
		builder.WriteString(facetSeparator)
		builder.WriteString(facetValueCleaner.Replace(resource.Stringify(field.Value)))
		builder.WriteString(facetTerminator)
	}
	return builder.String(), true
}

// ToSearchable returns the text of every field of atom except its type.
func ToSearchable(atom resource.Atom) []string {
	if _, typed := atom.Type(); !typed {
		return nil
	}

	fields := atom.Fields()
	searchables := make([]string, 0, len(fields))
	for _, field := range fields {
		if field.Name == resource.TypeField {
			continue
		}
		searchables = append(searchables, resource.Stringify(field.Value))
	}
	return searchables
}

// toAttribute converts a validated list into an Attribute, dropping holes.
func toAttribute(list []any) resource.Attribute {
	attribute := make(resource.Attribute, 0, len(list))
	for _, element := range list {
		if atom, typed := resource.AtomFromValue(element); typed {
			attribute = append(attribute, atom)
		}
	}
	return attribute
}
