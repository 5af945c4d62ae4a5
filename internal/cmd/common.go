// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mia-platform/ingest/internal/destination"
	"github.com/mia-platform/ingest/internal/destination/opensearch"
	"github.com/mia-platform/ingest/internal/destination/writer"
	"github.com/mia-platform/ingest/internal/logger"
	"github.com/mia-platform/ingest/internal/metrics"
	"github.com/mia-platform/ingest/internal/queue"
	"github.com/mia-platform/ingest/internal/queue/gcp"
	"github.com/mia-platform/ingest/internal/server"
	"github.com/mia-platform/ingest/internal/source"
	"github.com/mia-platform/ingest/internal/source/relational"
)

const (
	loggerName = "ingest:cmd"

	gcpIntegration  = "gcp"
	httpIntegration = "http"
)

var (
	errNoArguments        = errors.New("no integration name provided")
	errNoRebuilds         = errors.New("no rebuild requested")
	errInvalidIntegration = errors.New("invalid integration name provided")
	errInvalidArguments   = errors.New("invalid arguments")
	errInvalidSchedule    = errors.New("invalid schedule expression")

	// availableIntegrations holds the list of available queue integrations and their description
	// for command completion and help messages.
	availableIntegrations = map[string]string{
		gcpIntegration:  "Google Cloud Pub/Sub pull subscription",
		httpIntegration: "HTTP push endpoint",
	}
)

// handleError will do custom print error handling based on the type of error received.
// it will return nil if the command must return 0 exit code, otherwise it will return
// the original error.
func handleError(cmd *cobra.Command, err error) error {
	switch {
	case errors.Is(err, errNoArguments), errors.Is(err, errNoRebuilds):
		_ = cmd.Usage() // do not check error as we cannot do much about it
		return nil
	case errors.Is(err, errInvalidIntegration), errors.Is(err, errInvalidArguments):
		cmd.PrintErrln(err)
		_ = cmd.Usage() // do not check error as we cannot do much about it
		return err
	default:
		cmd.PrintErrln(err)
		return err
	}
}

func validArgsFunc(integrations map[string]string) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var comps []string
		if len(args) == 0 {
			for name, description := range integrations {
				if strings.HasPrefix(name, toComplete) {
					comps = append(comps, cobra.CompletionWithDesc(name, description))
				}
			}
		}

		return comps, cobra.ShellCompDirectiveNoFileComp
	}
}

// consumer receives deliveries from a queue host until its context is cancelled.
type consumer interface {
	Start(ctx context.Context, handler queue.Handler) error
	Close(ctx context.Context) error
}

// closer is implemented by the collaborators holding remote connections.
type closer interface {
	Close(ctx context.Context) error
}

// dependencies builds the collaborators wired by the commands. It can be overridden for
// testing purposes.
type dependencies struct {
	extractor func() (source.Extractor, error)
	writer    func(out io.Writer, localOutput bool) (destination.Writer, error)
	consumer  func() (consumer, error)
	server    func(ctx context.Context, m *metrics.Metrics) (server.Server, error)
}

var defaultDependencies = dependencies{
	extractor: func() (source.Extractor, error) {
		return relational.NewSource()
	},
	writer: func(out io.Writer, localOutput bool) (destination.Writer, error) {
		if localOutput {
			return writer.NewDestination(out), nil
		}
		return opensearch.NewWriter()
	},
	consumer: func() (consumer, error) {
		return gcp.NewConsumer()
	},
	server: server.NewServer,
}

// closeAll closes every value holding remote connections, logging failures.
func closeAll(ctx context.Context, values ...any) {
	log := logger.FromContext(ctx).WithName(loggerName)
	for _, value := range values {
		c, ok := value.(closer)
		if !ok {
			continue
		}
		if err := c.Close(context.WithoutCancel(ctx)); err != nil {
			log.Warn("error while closing connection", "error", err.Error())
		}
	}
}
