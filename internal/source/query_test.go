// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUUIDv4(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		id       string
		expected bool
	}{
		"lower case v4":             {id: "3fa85f64-5717-4562-b3fc-2c963f66afa6", expected: true},
		"upper case v4":             {id: "3FA85F64-5717-4562-B3FC-2C963F66AFA6", expected: true},
		"version 1":                 {id: "3fa85f64-5717-1562-b3fc-2c963f66afa6"},
		"wrong variant":             {id: "3fa85f64-5717-4562-c3fc-2c963f66afa6"},
		"not a uuid":                {id: "not-a-uuid"},
		"empty":                     {id: ""},
		"urn form":                  {id: "urn:uuid:3fa85f64-5717-4562-b3fc-2c963f66afa6"},
		"braced form":               {id: "{3fa85f64-5717-4562-b3fc-2c963f66afa6}"},
		"no hyphens":                {id: "3fa85f6457174562b3fc2c963f66afa6"},
		"sql injection":             {id: "3fa85f64-5717-4562-b3fc-2c963f66af')"},
		"surrounding whitespace":    {id: " 3fa85f64-5717-4562-b3fc-2c963f66afa6"},
		"variant b":                 {id: "3fa85f64-5717-4562-bfff-2c963f66afa6", expected: true},
		"variant 8":                 {id: "3fa85f64-5717-4562-8000-2c963f66afa6", expected: true},
		"variant 7 is not rfc 4122": {id: "3fa85f64-5717-4562-7000-2c963f66afa6"},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, test.expected, IsUUIDv4(test.id))
		})
	}
}

func TestFilteredScan(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		ids           []string
		expected      Query
		expectedFound bool
	}{
		"invalid ids are dropped": {
			ids:           []string{"not-a-uuid", "3fa85f64-5717-4562-b3fc-2c963f66afa6"},
			expected:      Query{Table: "people", IDs: []string{"3fa85f64-5717-4562-b3fc-2c963f66afa6"}},
			expectedFound: true,
		},
		"duplicates are kept": {
			ids: []string{"3fa85f64-5717-4562-b3fc-2c963f66afa6", "3fa85f64-5717-4562-b3fc-2c963f66afa6"},
			expected: Query{Table: "people", IDs: []string{
				"3fa85f64-5717-4562-b3fc-2c963f66afa6",
				"3fa85f64-5717-4562-b3fc-2c963f66afa6",
			}},
			expectedFound: true,
		},
		"only invalid ids": {
			ids: []string{"not-a-uuid"},
		},
		"no ids": {},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			query, found := FilteredScan("people", test.ids)
			assert.Equal(t, test.expectedFound, found)
			assert.Equal(t, test.expected, query)
			if found {
				assert.True(t, query.Filtered())
			}
		})
	}
}

func TestFullScan(t *testing.T) {
	t.Parallel()

	query := FullScan("dbo.people")
	assert.Equal(t, "dbo.people", query.Table)
	assert.False(t, query.Filtered())
}
