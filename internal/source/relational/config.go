// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package relational

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/mia-platform/ingest/internal/info"
)

var (
	// ErrMissingEnvVariable reports missing mandatory environment variables.
	ErrMissingEnvVariable = errors.New("missing environment variable")
	// ErrUnsupportedDriver reports a DATABASE_DRIVER value with no known dialect.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	// ErrInvalidDSN reports a connection string rejected by the driver.
	ErrInvalidDSN = errors.New("invalid database connection string")
)

type config struct {
	Driver string `env:"DATABASE_DRIVER" envDefault:"sqlserver"`
	DSN    string `env:"DATABASE_DSN"`

	Host     string `env:"DATABASE_HOST"`
	Port     int    `env:"DATABASE_PORT" envDefault:"1433"`
	User     string `env:"DATABASE_USER"`
	Password string `env:"DATABASE_PASS"`
	Name     string `env:"DATABASE_NAME"`
	Encrypt  string `env:"DATABASE_ENCRYPT" envDefault:"disable"`

	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`
	ConnMaxIdleTime time.Duration `env:"DATABASE_CONN_MAX_IDLE_TIME" envDefault:"30s"`
}

func (c config) validate() error {
	if _, ok := dialects[c.Driver]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Driver)
	}

	if c.DSN != "" {
		return nil
	}

	missingEnvs := make([]string, 0)
	if c.Driver != driverSQLServer {
		missingEnvs = append(missingEnvs, "DATABASE_DSN")
	} else {
		if c.Host == "" {
			missingEnvs = append(missingEnvs, "DATABASE_HOST")
		}
		if c.User == "" {
			missingEnvs = append(missingEnvs, "DATABASE_USER")
		}
		if c.Password == "" {
			missingEnvs = append(missingEnvs, "DATABASE_PASS")
		}
		if c.Name == "" {
			missingEnvs = append(missingEnvs, "DATABASE_NAME")
		}
	}

	if len(missingEnvs) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingEnvVariable, strings.Join(missingEnvs, ", "))
	}
	return nil
}

// connectionString returns the DSN handed to sql.Open. SQL Server connection strings
// are assembled from their parts when DATABASE_DSN is empty and are always checked with msdsn.
func (c config) connectionString() (string, error) {
	dsn := c.DSN
	if c.Driver != driverSQLServer {
		return dsn, nil
	}

	if dsn == "" {
		query := url.Values{}
		query.Set("database", c.Name)
		query.Set("encrypt", c.Encrypt)
		query.Set("app name", info.AppName)

		dsnURL := &url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(c.User, c.Password),
			Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
			RawQuery: query.Encode(),
		}
		dsn = dsnURL.String()
	}

	if _, err := msdsn.Parse(dsn); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidDSN, err)
	}
	return dsn, nil
}
