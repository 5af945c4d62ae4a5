// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/caarlos0/env/v11"
	"golang.org/x/sync/errgroup"

	"github.com/mia-platform/ingest/internal/logger"
	"github.com/mia-platform/ingest/internal/resource"
	"github.com/mia-platform/ingest/internal/source"
)

const (
	loggerName = "ingest:source:relational"
)

var (
	// ErrRelationalSource wraps errors emitted by the relational source.
	ErrRelationalSource = errors.New("relational source")
)

var _ source.ClosableExtractor = &Source{}

// Source streams table rows through a leased database/sql connection pool.
type Source struct {
	config  config
	dialect dialect

	db atomic.Pointer[sql.DB]
}

// NewSource reads the database configuration from the environment and returns a Source.
// No connection is opened until the first extraction.
func NewSource() (*Source, error) {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return nil, handleError(err)
	}
	return newSource(cfg)
}

func newSource(cfg config) (*Source, error) {
	if err := cfg.validate(); err != nil {
		return nil, handleError(err)
	}

	return &Source{
		config:  cfg,
		dialect: dialects[cfg.Driver],
	}, nil
}

// initDB opens the connection pool once and reuses it afterwards.
func (s *Source) initDB(ctx context.Context) (*sql.DB, error) {
	if db := s.db.Load(); db != nil {
		return db, nil
	}

	dsn, err := s.config.connectionString()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(s.dialect.driverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(s.config.MaxOpenConns)
	db.SetConnMaxIdleTime(s.config.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if !s.db.CompareAndSwap(nil, db) {
		_ = db.Close()
		return s.db.Load(), nil
	}
	return db, nil
}

// Close releases the connection pool. It is a no-op when no pool is open.
func (s *Source) Close(ctx context.Context) error {
	log := logger.FromContext(ctx).WithName(loggerName)
	log.Debug("closing database connection")

	db := s.db.Swap(nil)
	if db == nil {
		return nil
	}

	if err := db.Close(); err != nil {
		return handleError(err)
	}
	log.Debug("closed database connection")
	return nil
}

// Extract streams the rows selected by query. A reader goroutine scans the cursor and hands
// full batches to the caller goroutine; it then waits for onBatch to return before scanning
// further, so at most one batch is held in memory.
func (s *Source) Extract(ctx context.Context, query source.Query, batchSize int, onBatch source.BatchFunc) error {
	log := logger.FromContext(ctx).WithName(loggerName)
	if batchSize <= 0 {
		batchSize = source.DefaultBatchSize
	}

	statement, err := s.dialect.selectStatement(query)
	if err != nil {
		return handleError(err)
	}

	db, err := s.initDB(ctx)
	if err != nil {
		return handleError(err)
	}

	log.Debug("starting extraction", "table", query.Table, "ids", len(query.IDs), "batchSize", batchSize)
	log.Trace("running query", "statement", statement)

	batches := make(chan []resource.Row)
	resume := make(chan struct{})
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer close(batches)
		return s.readRows(groupCtx, db, statement, batchSize, batches, resume)
	})

	extracted := 0
	group.Go(func() error {
		for batch := range batches {
			if err := onBatch(groupCtx, batch); err != nil {
				return err
			}
			extracted += len(batch)

			select {
			case resume <- struct{}{}:
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return handleError(err)
	}

	log.Debug("extraction completed", "table", query.Table, "rows", extracted)
	return nil
}

func (s *Source) readRows(ctx context.Context, db *sql.DB, statement string, batchSize int, batches chan<- []resource.Row, resume <-chan struct{}) error {
	rows, err := db.QueryContext(ctx, statement)
	if err != nil {
		return err
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return err
	}

	names := make([]string, len(columnTypes))
	for i, columnType := range columnTypes {
		names[i] = columnType.Name()
	}

	flush := func(buffer []resource.Row) error {
		select {
		case batches <- buffer:
		case <-ctx.Done():
			return ctx.Err()
		}

		select {
		case <-resume:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	buffer := make([]resource.Row, 0, batchSize)
	for rows.Next() {
		values := make([]any, len(columnTypes))
		pointers := make([]any, len(columnTypes))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return err
		}
		for i, columnType := range columnTypes {
			values[i] = normalizeValue(columnType.DatabaseTypeName(), values[i])
		}

		buffer = append(buffer, resource.NewRow(names, values))
		if len(buffer) >= batchSize {
			if err := flush(buffer); err != nil {
				return err
			}
			buffer = make([]resource.Row, 0, batchSize)
		}
	}

	if err := rows.Err(); err != nil {
		return err
	}

	if len(buffer) > 0 {
		return flush(buffer)
	}
	return nil
}

// handleError wraps err with ErrRelationalSource.
func handleError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrRelationalSource) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrRelationalSource, err)
}
