// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/spf13/cobra"

	"github.com/mia-platform/ingest/internal/config"
	"github.com/mia-platform/ingest/internal/logger"
	"github.com/mia-platform/ingest/internal/mapper"
	"github.com/mia-platform/ingest/internal/metrics"
	"github.com/mia-platform/ingest/internal/pipeline"
)

const (
	planPathFlagName  = "plan-file"
	planPathFlagShort = "f"
	planPathFlagUsage = "Path to a YAML file listing the indices to rebuild and their tables"

	scheduleFlagName  = "schedule"
	scheduleFlagUsage = "Cron expression repeating the rebuild until the process is stopped"
)

// rebuildFlags holds the flags for the "rebuild" command.
type rebuildFlags struct {
	commonFlags

	planPath string
	schedule string
}

// addFlags adds the cli flags to the cobra command.
func (f *rebuildFlags) addFlags(cmd *cobra.Command) {
	f.commonFlags.addFlags(cmd)
	cmd.Flags().StringVarP(&f.planPath, planPathFlagName, planPathFlagShort, "", planPathFlagUsage)
	cmd.Flags().StringVar(&f.schedule, scheduleFlagName, "", scheduleFlagUsage)
}

// toOptions converts the rebuild flags to rebuildOptions, reading the plan from the arguments
// or from the plan file.
func (f *rebuildFlags) toOptions(cmd *cobra.Command, args []string) (*rebuildOptions, error) {
	var plan *config.RebuildPlan
	var err error

	switch {
	case len(args) == 0 && f.planPath == "":
		return nil, errNoRebuilds
	case len(args) > 0 && f.planPath != "":
		return nil, fmt.Errorf("%w: INDEX and TABLE cannot be used together with --%s", errInvalidArguments, planPathFlagName)
	case len(args) > 0 && len(args) != 2:
		return nil, fmt.Errorf("%w: expected INDEX and TABLE, got %d arguments", errInvalidArguments, len(args))
	case len(args) == 2:
		plan, err = config.NewRebuildPlan(args[0], args[1])
	default:
		plan, err = config.NewRebuildPlanFromPath(f.planPath)
	}
	if err != nil {
		return nil, err
	}

	if err := f.loadEnvFile(); err != nil {
		return nil, err
	}

	return &rebuildOptions{
		plan:        plan,
		schedule:    f.schedule,
		localOutput: f.localOutput,
		out:         cmd.OutOrStdout(),
		deps:        defaultDependencies,
		nextTick:    gronx.NextTickAfter,
	}, nil
}

// rebuildOptions holds the options set for the current rebuild function.
type rebuildOptions struct {
	plan        *config.RebuildPlan
	schedule    string
	localOutput bool
	out         io.Writer
	deps        dependencies
	nextTick    func(expr string, ref time.Time, inclRefTime bool) (time.Time, error)

	lock sync.Mutex
}

// validate validates the rebuild options and returns an error if something is wrong.
func (o *rebuildOptions) validate() error {
	if o.schedule != "" && !gronx.IsValid(o.schedule) {
		return fmt.Errorf("%w: %q", errInvalidSchedule, o.schedule)
	}
	return nil
}

// execute runs the plan once, or on every tick of the schedule until ctx is cancelled.
func (o *rebuildOptions) execute(ctx context.Context) error {
	if !o.lock.TryLock() {
		return nil
	}
	defer o.lock.Unlock()

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

	aggregator := pipeline.New(extractor, mapper.New(), writer, metrics.New(), cfg)
	if o.schedule == "" {
		return o.rebuild(ctx, aggregator)
	}
	return o.scheduled(ctx, aggregator)
}

// rebuild runs every job of the plan in order. A failing job does not stop the following ones.
func (o *rebuildOptions) rebuild(ctx context.Context, aggregator *pipeline.Aggregator) error {
	log := logger.FromContext(ctx).WithName(loggerName)

	errs := make([]error, 0)
	for _, job := range o.plan.Rebuilds {
		start := time.Now()
		if err := aggregator.Rebuild(ctx, job.Index, job.Table); err != nil {
			log.Error("rebuild failed", "index", job.Index, "table", job.Table, "error", err.Error())
			errs = append(errs, fmt.Errorf("rebuild %s: %w", job, err))
			continue
		}
		log.Info("rebuild completed", "index", job.Index, "table", job.Table, "elapsed", time.Since(start).String())
	}

	return errors.Join(errs...)
}

func (o *rebuildOptions) scheduled(ctx context.Context, aggregator *pipeline.Aggregator) error {
	log := logger.FromContext(ctx).WithName(loggerName)

	for {
		next, err := o.nextTick(o.schedule, time.Now(), false)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidSchedule, err)
		}

		log.Info("next rebuild scheduled", "schedule", o.schedule, "at", next.Format(time.RFC3339))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("rebuild scheduler stopped")
			return nil
		case <-timer.C:
		}

		if err := o.rebuild(ctx, aggregator); err != nil {
			log.Warn("scheduled rebuild completed with errors", "error", err.Error())
		}
	}
}
