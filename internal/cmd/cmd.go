// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
)

const (
	runCmdUsageTemplate = "run [%s]"
	runCmdShort         = "start consuming ingestion instructions from a queue"
	runCmdLong          = `Start consuming ingestion instructions from a queue.
	Every message names a table, a target index and a comma separated list of ids;
	the rows are read from the relational database, converted to search documents
	and upserted in the index. Failed messages are delivered again by the host.

	The available integrations are:
	- gcp: pull messages from a Google Cloud Pub/Sub subscription
	- http: accept batches of messages on the POST /deliveries endpoint`

	runCmdExample = `# Pull instructions from Google Cloud Pub/Sub
	ingest run gcp

	# Accept pushed instructions and print the documents instead of indexing them
	ingest run http --local-output`

	rebuildCmdUsage = "rebuild [INDEX TABLE]"
	rebuildCmdShort = "recreate search indices from whole tables"
	rebuildCmdLong  = `Recreate search indices from whole tables.
	Every index is deleted, created again with the default settings and mappings,
	and filled with all the rows of its table. The jobs can be passed as arguments
	or listed in a plan file, and can be repeated on a cron schedule.`

	rebuildCmdExample = `# Rebuild a single index
	ingest rebuild people dbo.People

	# Rebuild every index of a plan each night
	ingest rebuild -f rebuilds.yaml --schedule "0 2 * * *"`
)

// RunCmd returns the Cobra command that consumes queue deliveries.
func RunCmd() *cobra.Command {
	flags := &runFlags{}
	allIntegrations := slices.Sorted(maps.Keys(availableIntegrations))
	cmd := &cobra.Command{
		Use:     fmt.Sprintf(runCmdUsageTemplate, strings.Join(allIntegrations, "|")),
		Short:   heredoc.Doc(runCmdShort),
		Long:    heredoc.Doc(runCmdLong),
		Example: heredoc.Doc(runCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: validArgsFunc(availableIntegrations),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.toOptions(cmd, args)
			if err != nil {
				return handleError(cmd, err)
			}

			if err := opts.validate(); err != nil {
				return handleError(cmd, err)
			}

			if err := opts.execute(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}

// RebuildCmd returns the Cobra command that recreates indices from whole tables.
func RebuildCmd() *cobra.Command {
	flags := &rebuildFlags{}
	cmd := &cobra.Command{
		Use:     rebuildCmdUsage,
		Short:   heredoc.Doc(rebuildCmdShort),
		Long:    heredoc.Doc(rebuildCmdLong),
		Example: heredoc.Doc(rebuildCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: cobra.NoFileCompletions,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.toOptions(cmd, args)
			if err != nil {
				return handleError(cmd, err)
			}

			if err := opts.validate(); err != nil {
				return handleError(cmd, err)
			}

			if err := opts.execute(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}
