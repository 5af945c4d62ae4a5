// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package resource defines the data flowing through the ingestion pipeline: rows read from
// the relational source, the typed attribute values found in them, and the documents
// written to the search index.
package resource
