// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package source

import (
	"strings"

	"github.com/google/uuid"
)

// Query selects the rows of a table, optionally restricted to a set of ids.
type Query struct {
	// Table is the name of the table to read, optionally schema qualified.
	Table string
	// IDs restricts the scan to the rows with these ids. A nil slice selects every row.
	IDs []string
}

// Filtered reports whether the query restricts the rows by id.
func (q Query) Filtered() bool {
	return q.IDs != nil
}

// FullScan returns a query selecting every row of table.
func FullScan(table string) Query {
	return Query{Table: table}
}

// FilteredScan returns a query selecting the rows of table whose id is in ids.
// Ids that are not canonical UUIDv4 strings are discarded; when none is left it returns
// false and no query must be issued.
func FilteredScan(table string, ids []string) (Query, bool) {
	sanitized := SanitizeIDs(ids)
	if len(sanitized) == 0 {
		return Query{}, false
	}
	return Query{Table: table, IDs: sanitized}, true
}

// SanitizeIDs returns the ids that are canonical UUIDv4 strings, in their original order.
// Duplicates are kept.
func SanitizeIDs(ids []string) []string {
	sanitized := make([]string, 0, len(ids))
	for _, id := range ids {
		if IsUUIDv4(id) {
			sanitized = append(sanitized, id)
		}
	}
	return sanitized
}

const canonicalUUIDLength = 36

// IsUUIDv4 reports whether id is a UUID version 4 with the RFC 4122 variant written in the
// canonical hyphenated form. Letters may be upper or lower case.
func IsUUIDv4(id string) bool {
	if len(id) != canonicalUUIDLength || strings.Count(id, "-") != 4 {
		return false
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return false
	}
	return parsed.Version() == 4 && parsed.Variant() == uuid.RFC4122
}
