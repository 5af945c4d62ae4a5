// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package opensearch

type config struct {
	Servers  []string `env:"OPENSEARCH_SERVER,required,notEmpty" envSeparator:","`
	User     string   `env:"OPENSEARCH_USER"`
	Password string   `env:"OPENSEARCH_PASS"`

	Sniff       bool `env:"OPENSEARCH_SNIFF" envDefault:"false"`
	Healthcheck bool `env:"OPENSEARCH_HEALTHCHECK" envDefault:"true"`

	// BulkMaxDocuments caps the number of documents sent in a single bulk request.
	BulkMaxDocuments int `env:"OPENSEARCH_BULK_MAX_DOCUMENTS" envDefault:"500"`
}
