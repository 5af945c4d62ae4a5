// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package resource

// Resource is the document indexed into the search engine.
type Resource struct {
	// ID uniquely identifies the document in its index.
	ID string `json:"id,omitempty"`
	// Name is the human readable name.
	Name string `json:"name,omitempty"`
	// Description is rendered HTML, stored but not indexed.
	Description string `json:"description,omitempty"`
	// TextDescription is Description without markup, used for full text search.
	TextDescription string `json:"textDescription,omitempty"`

	CategoryLvl1 string `json:"categoryLvl1,omitempty"`
	CategoryLvl2 string `json:"categoryLvl2,omitempty"`
	CategoryLvl3 string `json:"categoryLvl3,omitempty"`
	CategoryLvl4 string `json:"categoryLvl4,omitempty"`

	CreatedDate string `json:"createdDate,omitempty"`
	UpdatedDate string `json:"updatedDate,omitempty"`
	DeletedDate string `json:"deletedDate,omitempty"`

	// Attributes holds the source atoms, kept for display in search results.
	Attributes map[string]Attribute `json:"attributes"`

	// Facets holds one keyword encoded string per atom of every facetable attribute.
	Facets     map[string][]string `json:"facets"`
	FacetNames []string            `json:"facetNames"`

	// Searchables holds the plain text tokens of every searchable attribute.
	Searchables     map[string][]string `json:"searchables"`
	SearchableNames []string            `json:"searchableNames"`
}
