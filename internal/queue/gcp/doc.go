// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package gcp hosts the ingestion queue on a Google Cloud Pub/Sub subscription.
// Messages received within a short window are assembled into a single delivery; after the
// delivery is processed the succeeded messages are acked and the failed ones nacked so that
// Pub/Sub delivers them again.
package gcp
