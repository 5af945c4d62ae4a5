// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package destination defines the contract implemented by the stores that receive the
// documents built from the relational rows.
package destination
