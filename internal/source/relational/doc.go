// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

// Package relational implements source.Extractor over database/sql.
// SQL Server is the default backend; PostgreSQL, MySQL and SQLite are supported through
// their database/sql drivers. The connection pool is opened on first use and reused until Close.
package relational
