// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package opensearch

// facetKeywordMaxLength raises the keyword length limit to fit packed facet strings.
const facetKeywordMaxLength = 8191

type object = map[string]any

func facetedText() object {
	return object{
		"type": "text",
		"fields": object{
			"keyword": object{"type": "keyword"},
		},
	}
}

// indexSettings targets a single node cluster and replaces the default analyzer with a
// whitespace tokenizer followed by lowercase and english stopwords filters.
func indexSettings() object {
	return object{
		"index": object{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"analysis": object{
			"filter": object{
				"english_stop": object{
					"type":      "stop",
					"stopwords": "_english_",
				},
			},
			"analyzer": object{
				"default": object{
					"tokenizer": "whitespace",
					"filter":    []string{"lowercase", "english_stop"},
				},
			},
		},
	}
}

// indexMappings must stay compatible with Elasticsearch 7.10.
func indexMappings() object {
	return object{
		"dynamic_templates": []object{
			{
				// plain text, without the default keyword sub field
				"searchable_attributes": object{
					"path_match": "searchables.*",
					"mapping":    object{"type": "text"},
				},
			},
			{
				"faceted_attributes": object{
					"path_match": "facets.*",
					"mapping": object{
						"type": "text",
						"fields": object{
							"keyword": object{
								"type":         "keyword",
								"ignore_above": facetKeywordMaxLength,
							},
						},
					},
				},
			},
			{
				"related_resources": object{
					"path_match": "related.*",
					"mapping":    object{"type": "keyword"},
				},
			},
		},
		"properties": object{
			"id":           facetedText(),
			"name":         facetedText(),
			"categoryLvl1": facetedText(),
			"categoryLvl2": facetedText(),
			"categoryLvl3": facetedText(),
			"categoryLvl4": facetedText(),

			"createdDate": object{"type": "date"},
			"updatedDate": object{"type": "date"},
			"deletedDate": object{"type": "date"},

			// html content is stored for display only
			"description":     object{"type": "text", "index": false},
			"textDescription": object{"type": "text"},

			"attributes":      object{"type": "object"},
			"searchables":     object{"type": "object"},
			"searchableNames": object{"type": "keyword"},
			"facets":          object{"type": "object"},
			"facetNames":      object{"type": "keyword"},
		},
	}
}

func indexBody() object {
	return object{
		"settings": indexSettings(),
		"mappings": indexMappings(),
	}
}
