// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mia-platform/ingest/internal/logger"
	"github.com/mia-platform/ingest/internal/mapper"
	"github.com/mia-platform/ingest/internal/metrics"
	"github.com/mia-platform/ingest/internal/pipeline"
	"github.com/mia-platform/ingest/internal/server"
)

// runFlags holds the flags for the "run" command.
type runFlags struct {
	commonFlags
}

// toOptions converts the run flags to runOptions enriching it with the passed arguments.
func (f *runFlags) toOptions(cmd *cobra.Command, args []string) (*runOptions, error) {
	integrationName := ""
	if len(args) > 0 {
		integrationName = args[0]
	}

	if err := f.loadEnvFile(); err != nil {
		return nil, err
	}

	return &runOptions{
		integrationName: strings.ToLower(integrationName),
		localOutput:     f.localOutput,
		out:             cmd.OutOrStdout(),
		deps:            defaultDependencies,
	}, nil
}

// runOptions holds the options set for the current run function.
type runOptions struct {
	integrationName string
	localOutput     bool
	out             io.Writer
	deps            dependencies

	lock sync.Mutex
}

// validate validates the run options and returns an error if something is wrong.
func (o *runOptions) validate() error {
	if o.integrationName == "" {
		return errNoArguments
	}

	if _, ok := availableIntegrations[o.integrationName]; !ok {
		return fmt.Errorf("%w: %s", errInvalidIntegration, o.integrationName)
	}

	return nil
}

// execute wires the pipeline and serves deliveries until ctx is cancelled.
func (o *runOptions) execute(ctx context.Context) error {
	if !o.lock.TryLock() {
		return nil
	}
	defer o.lock.Unlock()

	log := logger.FromContext(ctx).WithName(loggerName)
	cfg, err := pipeline.ConfigFromEnv()
	if err != nil {
		return err
	}

	extractor, err := o.deps.extractor()
	if err != nil {
		return err
	}
	defer closeAll(ctx, extractor)

	writer, err := o.deps.writer(o.out, o.localOutput)
	if err != nil {
		return err
	}
	defer closeAll(ctx, writer)

	m := metrics.New()
	aggregator := pipeline.New(extractor, mapper.New(), writer, m, cfg)

	srv, err := o.deps.server(ctx, m)
	if err != nil {
		return err
	}

	log.Info("starting integration", "integration", o.integrationName, "localOutput", o.localOutput)
	switch o.integrationName {
	case gcpIntegration:
		return o.consume(ctx, srv, aggregator)
	default:
		return o.serve(ctx, srv, aggregator)
	}
}

// consume pulls deliveries from the queue host while srv exposes the status routes.
func (o *runOptions) consume(ctx context.Context, srv server.Server, aggregator *pipeline.Aggregator) error {
	queueConsumer, err := o.deps.consumer()
	if err != nil {
		return err
	}
	defer closeAll(ctx, queueConsumer)

	srv.StartAsync(ctx)
	defer func() {
		_ = srv.Stop()
	}()

	srv.SetReady(true)
	return queueConsumer.Start(ctx, aggregator.Process)
}

// serve accepts pushed deliveries on srv until ctx is cancelled.
func (o *runOptions) serve(ctx context.Context, srv server.Server, aggregator *pipeline.Aggregator) error {
	srv.HandleDeliveries(aggregator.Process)
	srv.SetReady(true)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	srv.SetReady(false)
	if err := srv.Stop(); err != nil {
		return err
	}
	return <-errChan
}
