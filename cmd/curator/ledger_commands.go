package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"curator/internal/ledger"
	"curator/internal/logging"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect processed items",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerStatsCommand(ctx))
	ledgerCmd.AddCommand(newLedgerCheckCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var platformFlag string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var platform ledger.Platform
			if platformFlag != "" {
				p, ok := ledger.ParsePlatform(platformFlag)
				if !ok {
					return fmt.Errorf("unknown platform %q", platformFlag)
				}
				platform = p
			}
			store, err := ctx.openLedger(logging.NewNop())
			if err != nil {
				return err
			}
			entries := store.Entries(platform)
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			if asJSON {
				return writeJSON(cmd, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Ledger is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					string(e.Platform),
					e.ContentID,
					e.Title,
					e.SourceName,
					e.ProcessedAt,
					yesNo(e.Success),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Platform", "ID", "Title", "Source", "Processed", "Transcript"},
				rows,
				nil,
			))
			return nil
		},
	}
	cmd.Flags().StringVarP(&platformFlag, "platform", "p", "", "Only list this platform")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum entries to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}

func newLedgerStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show ledger totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger(logging.NewNop())
			if err != nil {
				return err
			}
			stats := store.Stats()
			if asJSON {
				return writeJSON(cmd, stats)
			}
			rows := [][]string{
				{"Total", strconv.Itoa(stats.TotalProcessed)},
				{"With transcript", strconv.Itoa(stats.TotalSucceeded)},
				{"Without transcript", strconv.Itoa(stats.TotalFailed)},
			}
			platforms := make([]string, 0, len(stats.ByPlatform))
			for p := range stats.ByPlatform {
				platforms = append(platforms, string(p))
			}
			sort.Strings(platforms)
			for _, p := range platforms {
				rows = append(rows, []string{"  " + p, strconv.Itoa(stats.ByPlatform[ledger.Platform(p)])})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			if updated := store.LastUpdated(); updated != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Last updated %s (%s)\n", updated, sinceLabel(updated))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print stats as JSON")
	return cmd
}

func newLedgerCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <url>",
		Short: "Report whether a URL was already processed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			platform, id, err := ledger.ExtractContentID(args[0])
			if err != nil {
				return err
			}
			store, err := ctx.openLedger(logging.NewNop())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !store.IsProcessed(platform, id) {
				fmt.Fprintf(out, "%s/%s has not been processed\n", platform, id)
				return nil
			}
			for _, e := range store.Entries(platform) {
				if e.ContentID == id {
					fmt.Fprintf(out, "%s/%s processed at %s (%s, transcript: %s)\n", platform, id, e.ProcessedAt, sinceLabel(e.ProcessedAt), yesNo(e.Success))
					break
				}
			}
			return nil
		},
	}
}
