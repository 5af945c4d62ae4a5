// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package pipeline drives the ingestion of a queue delivery.
// The instructions of a delivery are grouped per table, then every table batch is extracted
// from the relational source, mapped to documents and upserted into its index. A failing table
// only fails the message that introduced it.
package pipeline
