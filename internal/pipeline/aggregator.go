// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/panjf2000/ants/v2"

	"github.com/mia-platform/ingest/internal/destination"
	"github.com/mia-platform/ingest/internal/logger"
	"github.com/mia-platform/ingest/internal/mapper"
	"github.com/mia-platform/ingest/internal/metrics"
	"github.com/mia-platform/ingest/internal/queue"
	"github.com/mia-platform/ingest/internal/resource"
	"github.com/mia-platform/ingest/internal/source"
)

const (
	loggerName = "ingest:pipeline"
)

// Config tunes how deliveries are processed.
type Config struct {
	// BatchSize is the number of rows extracted, mapped and written together.
	BatchSize int `env:"INGEST_BATCH_SIZE" envDefault:"1000"`
	// TableConcurrency is the number of table batches of a delivery processed at the same time.
	TableConcurrency int `env:"INGEST_TABLE_CONCURRENCY" envDefault:"1"`
}

// ConfigFromEnv reads Config from environment variables.
func ConfigFromEnv() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}
	if cfg.BatchSize < 1 || cfg.TableConcurrency < 1 {
		return Config{}, errors.New("INGEST_BATCH_SIZE and INGEST_TABLE_CONCURRENCY must be greater than zero")
	}
	return cfg, nil
}

// Aggregator turns queue deliveries into index writes.
type Aggregator struct {
	extractor source.Extractor
	mapper    mapper.Mapper
	writer    destination.Writer
	metrics   *metrics.Metrics
	config    Config

	// processing serializes deliveries.
	processing sync.Mutex
}

// New returns an Aggregator. m may be nil.
func New(extractor source.Extractor, mapper mapper.Mapper, writer destination.Writer, m *metrics.Metrics, config Config) *Aggregator {
	if config.BatchSize < 1 {
		config.BatchSize = source.DefaultBatchSize
	}
	if config.TableConcurrency < 1 {
		config.TableConcurrency = 1
	}

	return &Aggregator{
		extractor: extractor,
		mapper:    mapper,
		writer:    writer,
		metrics:   m,
		config:    config,
	}
}

// Process handles delivery to completion and returns the ids of the messages to deliver again.
// Tables are processed independently: a failing table fails only the message that introduced it.
// Concurrent calls wait for the running delivery to complete.
func (a *Aggregator) Process(ctx context.Context, delivery queue.Delivery) queue.Result {
	a.processing.Lock()
	defer a.processing.Unlock()

	log := logger.FromContext(ctx).WithName(loggerName)
	defer a.metrics.DeliveryProcessed()

	log.Debug("grouping delivery", "messages", len(delivery))
	batches, rejected := Group(ctx, delivery)

	failed := make([]string, 0, len(rejected))
	for _, instructionErr := range rejected {
		failed = append(failed, instructionErr.ID)
		a.metrics.Instruction(instructionOutcome(instructionErr))
	}
	for range len(delivery) - len(rejected) {
		a.metrics.Instruction(metrics.OutcomeAccepted)
	}

	tableErrs := a.dispatch(ctx, batches)
	for i, batch := range batches {
		if tableErrs[i] != nil {
			log.Error("table ingestion failed", "table", batch.Table, "index", batch.Index, "messageId", batch.DeliveryID, "error", tableErrs[i].Error())
			failed = append(failed, batch.DeliveryID)
		}
	}

	log.Info("delivery processed", "messages", len(delivery), "tables", len(batches), "failed", len(failed))
	return queue.Result{Failed: failed}
}

// dispatch runs every batch on a pool of TableConcurrency workers and returns the error of
// each batch at its position.
func (a *Aggregator) dispatch(ctx context.Context, batches []*TableBatch) []error {
	errs := make([]error, len(batches))
	if len(batches) == 0 {
		return errs
	}

	pool, err := ants.NewPool(a.config.TableConcurrency)
	if err != nil {
		for i := range errs {
			errs[i] = err
		}
		return errs
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, batch := range batches {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			errs[i] = a.upsertTable(ctx, batch)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = submitErr
		}
	}
	wg.Wait()
	return errs
}

func (a *Aggregator) upsertTable(ctx context.Context, batch *TableBatch) error {
	log := logger.FromContext(ctx).WithName(loggerName)

	query, ok := source.FilteredScan(batch.Table, batch.IDs)
	if !ok {
		log.Debug("no valid ids for table, skipping extraction", "table", batch.Table, "ids", len(batch.IDs))
		a.metrics.Table(metrics.OutcomeSkipped)
		return nil
	}

	if err := a.load(ctx, batch.Index, query); err != nil {
		a.metrics.Table(metrics.OutcomeFailed)
		return err
	}

	a.metrics.Table(metrics.OutcomeSucceeded)
	return nil
}

// Rebuild recreates index and loads every row of table into it.
func (a *Aggregator) Rebuild(ctx context.Context, index, table string) error {
	log := logger.FromContext(ctx).WithName(loggerName)

	log.Info("rebuilding index", "index", index, "table", table)
	if err := a.writer.Rebuild(ctx, index); err != nil {
		a.metrics.Rebuild(metrics.OutcomeFailed)
		return err
	}

	if err := a.load(ctx, index, source.FullScan(table)); err != nil {
		a.metrics.Rebuild(metrics.OutcomeFailed)
		return err
	}

	a.metrics.Rebuild(metrics.OutcomeSucceeded)
	log.Info("index rebuilt", "index", index, "table", table)
	return nil
}

// load streams the rows selected by query into index.
func (a *Aggregator) load(ctx context.Context, index string, query source.Query) error {
	log := logger.FromContext(ctx).WithName(loggerName)

	written := 0
	err := a.extractor.Extract(ctx, query, a.config.BatchSize, func(ctx context.Context, rows []resource.Row) error {
		a.metrics.RowsExtracted(len(rows))

		resources := make([]resource.Resource, 0, len(rows))
		for _, row := range rows {
			resources = append(resources, a.mapper.ToResource(ctx, row))
		}

		if err := a.writer.BulkUpsert(ctx, index, resources); err != nil {
			return err
		}

		written += len(resources)
		a.metrics.DocumentsWritten(len(resources))
		log.Debug("batch written", "table", query.Table, "index", index, "documents", len(resources))
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug("table loaded", "table", query.Table, "index", index, "documents", written)
	return nil
}

func instructionOutcome(err *InstructionError) string {
	if errors.Is(err, ErrConflictingIndex) {
		return metrics.OutcomeConflict
	}
	return metrics.OutcomeMalformed
}
