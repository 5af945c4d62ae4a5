// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package source defines the contract used to stream rows out of the relational store.
// An Extractor reads the rows selected by a Query and hands them over in batches, waiting for
// each batch to be consumed before reading further.
package source
