package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/config"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <item-dir>",
		Short: "Publish an archived item to the Feishu table",
		Long:  "Uploads the cover and creates or updates the Bitable record for an item directory that already has rewritten.md.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			pub, err := ctx.publisher(logger)
			if err != nil {
				return err
			}
			recordID, err := pub.Publish(cmd.Context(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Published record %s\n", recordID)
			return nil
		},
	}
}
