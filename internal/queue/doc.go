// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package queue defines the ingestion message contract shared by every queue host.
// A Message carries a table, an index and a comma separated list of ids; a Delivery is the set
// of messages handed over together, and a Result lists the messages that must be delivered again.
package queue
