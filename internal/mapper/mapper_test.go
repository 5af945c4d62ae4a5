// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package mapper

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/ingest/internal/logger"
	"github.com/mia-platform/ingest/internal/resource"
)

func TestToResource(t *testing.T) {
	t.Parallel()

	testCases := map[string]struct {
		row      resource.Row
		expected string
	}{
		"fixed columns only": {
			row: resource.Row{
				ID:           "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				Name:         "Ada",
				CategoryLvl1: "people",
				CreatedDate:  "2024-01-01T00:00:00Z",
			},
			expected: `{
				"id": "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				"name": "Ada",
				"categoryLvl1": "people",
				"createdDate": "2024-01-01T00:00:00Z",
				"attributes": {},
				"facets": {},
				"facetNames": [],
				"searchables": {},
				"searchableNames": []
			}`,
		},
		"attributes from path columns": {
			row: resource.Row{
				ID: "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				Columns: []resource.Column{
					{Name: "$.Contact[0].type", Value: "Person"},
					{Name: "$.Contact[0].name", Value: "A\tB"},
					{Name: "$.Tag", Value: `[{"type":"Tag","value":"red"}]`},
					{Name: "notAPath", Value: "ignored"},
				},
			},
			expected: `{
				"id": "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				"attributes": {
					"Contact": [{"type":"Person","name":"A\tB"}],
					"Tag": [{"type":"Tag","value":"red"}]
				},
				"facets": {
					"Contact": ["type|Person\nname|AB\n"],
					"Tag": ["type|Tag\nvalue|red\n"]
				},
				"facetNames": ["Contact", "Tag"],
				"searchables": {
					"Contact": ["A\tB"],
					"Tag": ["red"]
				},
				"searchableNames": ["Contact", "Tag"]
			}`,
		},
		"attribute with an untyped atom is dropped everywhere": {
			row: resource.Row{
				ID: "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				Columns: []resource.Column{
					{Name: "$.Contact[0].type", Value: "Person"},
					{Name: "$.Contact[1].name", Value: "orphan"},
					{Name: "$.Tag[0]", Value: `{"type":"Tag","value":"red"}`},
				},
			},
			expected: `{
				"id": "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				"attributes": {"Tag": [{"type":"Tag","value":"red"}]},
				"facets": {"Tag": ["type|Tag\nvalue|red\n"]},
				"facetNames": ["Tag"],
				"searchables": {"Tag": ["red"]},
				"searchableNames": ["Tag"]
			}`,
		},
		"type only atoms have facets but no searchables": {
			row: resource.Row{
				ID: "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				Columns: []resource.Column{
					{Name: "$.Flag[0].type", Value: "Flag"},
				},
			},
			expected: `{
				"id": "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				"attributes": {"Flag": [{"type":"Flag"}]},
				"facets": {"Flag": ["type|Flag\n"]},
				"facetNames": ["Flag"],
				"searchables": {},
				"searchableNames": []
			}`,
		},
		"sparse holes are compacted": {
			row: resource.Row{
				ID: "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				Columns: []resource.Column{
					{Name: "$.Tag[2].type", Value: "Tag"},
				},
			},
			expected: `{
				"id": "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				"attributes": {"Tag": [{"type":"Tag"}]},
				"facets": {"Tag": ["type|Tag\n"]},
				"facetNames": ["Tag"],
				"searchables": {},
				"searchableNames": []
			}`,
		},
		"null atoms drop the attribute": {
			row: resource.Row{
				ID: "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				Columns: []resource.Column{
					{Name: "$.Contact", Value: "[null]"},
					{Name: "$.Tag[0]", Value: nil},
					{Name: "$.Flag[1].type", Value: "Flag"},
				},
			},
			expected: `{
				"id": "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				"attributes": {"Flag": [{"type":"Flag"}]},
				"facets": {"Flag": ["type|Flag\n"]},
				"facetNames": ["Flag"],
				"searchables": {},
				"searchableNames": []
			}`,
		},
		"explicit attributes container and invalid paths": {
			row: resource.Row{
				ID: "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				Columns: []resource.Column{
					{Name: "$.attributes.Tag[0].type", Value: "Tag"},
					{Name: "$", Value: "broken"},
					{Name: "$.Scalar", Value: "text"},
				},
			},
			expected: `{
				"id": "3fa85f64-5717-4562-b3fc-2c963f66afa6",
				"attributes": {"Tag": [{"type":"Tag"}]},
				"facets": {"Tag": ["type|Tag\n"]},
				"facetNames": ["Tag"],
				"searchables": {},
				"searchableNames": []
			}`,
		},
	}

	for name, test := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out := New().ToResource(t.Context(), test.row)
			encoded, err := json.Marshal(out)
			require.NoError(t, err)
			assert.JSONEq(t, test.expected, string(encoded))
		})
	}
}

func TestToResourceLogsDroppedAttributes(t *testing.T) {
	t.Parallel()

	buffer := new(bytes.Buffer)
	log := logger.NewLogger(buffer)
	log.SetLevel(logger.DEBUG)
	ctx := logger.WithContext(t.Context(), log)

	row := resource.Row{
		ID: "3fa85f64-5717-4562-b3fc-2c963f66afa6",
		Columns: []resource.Column{
			{Name: "$.Contact[0].name", Value: "orphan"},
		},
	}
	out := New().ToResource(ctx, row)
	assert.Empty(t, out.Attributes)

	assert.Contains(t, buffer.String(), `"@message":"attribute dropped"`)
	assert.Contains(t, buffer.String(), `"attribute":"Contact"`)
	assert.Contains(t, buffer.String(), `"@module":"ingest:mapper"`)
}
