// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package opensearch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/caarlos0/env/v11"
	"github.com/olivere/elastic/v7"

	"github.com/mia-platform/ingest/internal/destination"
	"github.com/mia-platform/ingest/internal/info"
	"github.com/mia-platform/ingest/internal/logger"
	"github.com/mia-platform/ingest/internal/resource"
)

const (
	loggerName = "ingest:destination:opensearch"
)

var _ destination.ClosableWriter = &Writer{}

// Writer writes documents into OpenSearch indices. The client is created on first use.
type Writer struct {
	config config

	initLock sync.Mutex
	client   atomic.Pointer[elastic.Client]
}

// NewWriter returns a Writer configured from environment variables.
func NewWriter() (*Writer, error) {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return nil, handleError(err)
	}

	return newWriter(cfg), nil
}

func newWriter(cfg config) *Writer {
	if cfg.BulkMaxDocuments <= 0 {
		cfg.BulkMaxDocuments = 500
	}
	return &Writer{config: cfg}
}

// initClient creates the client once and reuses it afterwards.
func (w *Writer) initClient(ctx context.Context) (*elastic.Client, error) {
	if client := w.client.Load(); client != nil {
		return client, nil
	}

	w.initLock.Lock()
	defer w.initLock.Unlock()
	if client := w.client.Load(); client != nil {
		return client, nil
	}

	headers := http.Header{}
	headers.Set("User-Agent", info.UserAgent())

	options := []elastic.ClientOptionFunc{
		elastic.SetURL(w.config.Servers...),
		elastic.SetSniff(w.config.Sniff),
		elastic.SetHealthcheck(w.config.Healthcheck),
		elastic.SetHeaders(headers),
	}
	if w.config.User != "" {
		options = append(options, elastic.SetBasicAuth(w.config.User, w.config.Password))
	}

	client, err := elastic.DialContext(ctx, options...)
	if err != nil {
		return nil, err
	}

	w.client.Store(client)
	return client, nil
}

// Close stops the client when it was previously created.
func (w *Writer) Close(ctx context.Context) error {
	log := logger.FromContext(ctx).WithName(loggerName)
	log.Debug("closing opensearch client")

	if client := w.client.Swap(nil); client != nil {
		client.Stop()
	}

	log.Debug("closed opensearch client")
	return nil
}

// Rebuild deletes index, ignoring a missing index, and creates it again with fixed settings and mappings.
func (w *Writer) Rebuild(ctx context.Context, index string) error {
	log := logger.FromContext(ctx).WithName(loggerName)
	client, err := w.initClient(ctx)
	if err != nil {
		return handleError(err)
	}

	log.Info("deleting index", "index", index)
	deleted, err := client.DeleteIndex(index).Do(ctx)
	switch {
	case elastic.IsNotFound(err):
		log.Debug("index not found", "index", index)
	case err != nil:
		return handleError(err)
	case !deleted.Acknowledged:
		return handleError(fmt.Errorf("%w: delete index %s", ErrNotAcknowledged, index))
	}

	log.Info("creating index", "index", index)
	created, err := client.CreateIndex(index).BodyJson(indexBody()).Do(ctx)
	if err != nil {
		return handleError(err)
	}
	if !created.Acknowledged {
		return handleError(fmt.Errorf("%w: create index %s", ErrNotAcknowledged, index))
	}

	return nil
}

// BulkUpsert sends every resource as an update with doc_as_upsert, in requests of at most
// OPENSEARCH_BULK_MAX_DOCUMENTS documents. All the requests are sent even when one reports
// failed documents; the call then fails with the overall failed and total counts.
func (w *Writer) BulkUpsert(ctx context.Context, index string, resources []resource.Resource) error {
	log := logger.FromContext(ctx).WithName(loggerName)
	if err := destination.CheckIDs(resources); err != nil {
		return handleError(err)
	}

	if len(resources) == 0 {
		return nil
	}

	client, err := w.initClient(ctx)
	if err != nil {
		return handleError(err)
	}

	log.Debug("bulk indexing documents", "index", index, "documents", len(resources))
	failed := 0
	for start := 0; start < len(resources); start += w.config.BulkMaxDocuments {
		end := min(start+w.config.BulkMaxDocuments, len(resources))

		bulk := client.Bulk()
		for _, res := range resources[start:end] {
			bulk.Add(elastic.NewBulkUpdateRequest().
				Index(index).
				Id(res.ID).
				Doc(res).
				DocAsUpsert(true),
			)
		}

		response, err := bulk.Do(ctx)
		if err != nil {
			return handleError(err)
		}

		for _, item := range response.Failed() {
			failed++
			reason := ""
			if item.Error != nil {
				reason = item.Error.Reason
			}
			log.Debug("document failed to index", "index", index, "id", item.Id, "status", item.Status, "reason", reason)
		}
	}

	if failed > 0 {
		return handleError(fmt.Errorf("%w: %d / %d failed to index", ErrPartialFailure, failed, len(resources)))
	}

	log.Debug("bulk indexing completed", "index", index, "documents", len(resources))
	return nil
}
