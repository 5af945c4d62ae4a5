// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package opensearch implements destination.Writer for OpenSearch clusters through the
// Elasticsearch 7 REST API that OpenSearch is compatible with.
package opensearch
