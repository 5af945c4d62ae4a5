// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package writer implements a destination that prints the rebuilt indices and the upserted
// documents to the given io.Writer instance.
// It is primarily useful for debugging purposes, or for checking the documents built from
// a table before writing them to a real search engine.
package writer
