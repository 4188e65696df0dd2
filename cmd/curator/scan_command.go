package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/curation"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var platform string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List new items from enabled sources without processing them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withDriver(func(driver *curation.Driver) error {
				items, err := driver.Scan(cmd.Context(), limit, platform)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No new items")
					return nil
				}
				printCandidates(cmd.OutOrStdout(), items)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Only scan sources of this platform")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Items listed per source (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print candidates as JSON")
	return cmd
}
