package main

import (
	"github.com/spf13/cobra"

	"curator/internal/curation"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Process pending queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDriver(func(driver *curation.Driver) error {
				summary, err := driver.ProcessPending(cmd.Context())
				printSummary(cmd.OutOrStdout(), summary)
				return err
			})
		},
	}
}

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transcript <url>",
		Short: "Fetch, archive, and publish one item by URL",
		Long:  "Processes a single YouTube, Bilibili, or Xiaoyuzhou URL even when it is already in the ledger.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDriver(func(driver *curation.Driver) error {
				summary, err := driver.ProcessURL(cmd.Context(), args[0])
				printSummary(cmd.OutOrStdout(), summary)
				return err
			})
		},
	}
}
