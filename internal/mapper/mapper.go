// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package mapper

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mia-platform/ingest/internal/logger"
	"github.com/mia-platform/ingest/internal/resource"
)

const (
	loggerName = "ingest:mapper"

	// attributesPrefix is accepted in front of column paths for compatibility with columns
	// that address the attributes container explicitly.
	attributesPrefix = resource.PathRoot + ".attributes"
)

// Mapper builds the search document for a single source row.
type Mapper interface {
	// ToResource converts row into a Resource. It never fails: column values that cannot be
	// merged and attributes that are not lists of typed atoms are dropped.
	ToResource(ctx context.Context, row resource.Row) resource.Resource
}

var _ Mapper = &internalMapper{}

type internalMapper struct{}

// New returns the default Mapper.
func New() Mapper {
	return &internalMapper{}
}

func (m *internalMapper) ToResource(ctx context.Context, row resource.Row) resource.Resource {
	log := logger.FromContext(ctx).WithName(loggerName)

	out := resource.Resource{
		ID:              row.ID,
		Name:            row.Name,
		Description:     row.Description,
		TextDescription: row.TextDescription,
		CategoryLvl1:    row.CategoryLvl1,
		CategoryLvl2:    row.CategoryLvl2,
		CategoryLvl3:    row.CategoryLvl3,
		CategoryLvl4:    row.CategoryLvl4,
		CreatedDate:     row.CreatedDate,
		UpdatedDate:     row.UpdatedDate,
		DeletedDate:     row.DeletedDate,
		Attributes:      make(map[string]resource.Attribute),
		Facets:          make(map[string][]string),
		FacetNames:      make([]string, 0),
		Searchables:     make(map[string][]string),
		SearchableNames: make([]string, 0),
	}

	attributes := resource.NewObject()
	for _, column := range row.Columns {
		if !strings.HasPrefix(column.Name, resource.PathRoot) {
			continue
		}

		if err := SetPath(attributePath(column.Name), attributes, column.Value); err != nil {
			log.Debug("column dropped", "id", row.ID, "column", column.Name, "error", err.Error())
		}
	}

	for _, name := range attributes.Keys() {
		value, _ := attributes.Get(name)
		if !ValidateAttribute(value) {
			log.Debug("attribute dropped", "id", row.ID, "attribute", name)
			continue
		}

		attribute := toAttribute(value.([]any))
		out.Attributes[name] = attribute

		facets := make([]string, 0, len(attribute))
		searchables := make([]string, 0, len(attribute))
		for _, atom := range attribute {
			if facet, ok := ToFacet(atom); ok {
				facets = append(facets, facet)
			}
			searchables = append(searchables, ToSearchable(atom)...)
		}

		if len(facets) > 0 {
			out.Facets[name] = facets
			out.FacetNames = append(out.FacetNames, name)
		}
		if len(searchables) > 0 {
			out.Searchables[name] = searchables
			out.SearchableNames = append(out.SearchableNames, name)
		}
	}

	if dump, err := json.Marshal(out); err == nil {
		log.Trace("resource built", "id", row.ID, "resource", string(dump))
	}
	return out
}

// attributePath strips the explicit attributes container from path, leaving a path relative to it.
func attributePath(path string) string {
	rest, found := strings.CutPrefix(path, attributesPrefix)
	if !found || (rest != "" && rest[0] != '.' && rest[0] != '[') {
		return path
	}
	return resource.PathRoot + rest
}
