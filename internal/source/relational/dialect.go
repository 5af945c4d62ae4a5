// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package relational

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	mssql "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/mia-platform/ingest/internal/resource"
	"github.com/mia-platform/ingest/internal/source"
)

const (
	driverSQLServer = "sqlserver"
	driverPostgres  = "pgx"
	driverMySQL     = "mysql"
	driverSQLite    = "sqlite"

	uniqueIdentifierType = "UNIQUEIDENTIFIER"
)

var (
	// ErrInvalidIdentifier reports a table name that cannot be safely used in a statement.
	ErrInvalidIdentifier = errors.New("invalid table identifier")

	identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

	dialects = map[string]dialect{
		driverSQLServer: {
			driverName: "sqlserver",
			quote:      func(name string) string { return "[" + name + "]" },
		},
		driverPostgres: {
			driverName: "pgx",
			quote:      func(name string) string { return `"` + name + `"` },
		},
		driverMySQL: {
			driverName: "mysql",
			quote:      func(name string) string { return "`" + name + "`" },
		},
		driverSQLite: {
			driverName: "sqlite",
			quote:      func(name string) string { return `"` + name + `"` },
		},
	}
)

// dialect holds what changes between database backends.
type dialect struct {
	driverName string
	quote      func(name string) string
}

func (d dialect) quoteIdentifier(identifier string) (string, error) {
	if !identifierRegex.MatchString(identifier) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}

	parts := strings.Split(identifier, ".")
	for i, part := range parts {
		parts[i] = d.quote(part)
	}
	return strings.Join(parts, "."), nil
}

// selectStatement renders query as SQL. Ids are written as literals and must already be
// sanitized: anything that is not a UUIDv4 is dropped again here.
func (d dialect) selectStatement(query source.Query) (string, error) {
	table, err := d.quoteIdentifier(query.Table)
	if err != nil {
		return "", err
	}

	statement := "SELECT * FROM " + table
	if !query.Filtered() {
		return statement, nil
	}

	ids := source.SanitizeIDs(query.IDs)
	literals := make([]string, 0, len(ids))
	for _, id := range ids {
		literals = append(literals, "'"+id+"'")
	}
	if len(literals) == 0 {
		// an empty IN list is not valid SQL; select nothing instead
		return statement + " WHERE 1 = 0", nil
	}
	return statement + " WHERE " + d.quote(resource.ColumnID) + " IN (" + strings.Join(literals, ",") + ")", nil
}

// normalizeValue converts a scanned column value into a JSON friendly one.
func normalizeValue(databaseType string, value any) any {
	switch v := value.(type) {
	case []byte:
		if strings.EqualFold(databaseType, uniqueIdentifierType) {
			var guid mssql.UniqueIdentifier
			if err := guid.Scan(v); err == nil {
				return guid.String()
			}
		}
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	default:
		return v
	}
}
