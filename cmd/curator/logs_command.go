package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/logging"
	"curator/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var eventType string
	var component string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the curator log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var terms []string
			if eventType != "" {
				terms = append(terms, eventType)
			}
			if component != "" {
				terms = append(terms, component)
			}
			keep := logs.Match(terms...)
			out := cmd.OutOrStdout()
			path := cfg.LogFilePath()

			tail, offset, err := logs.Last(path, lines, keep)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, logs.DefaultPoll, keep, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&eventType, "event", "", "Only lines containing this "+logging.FieldEventType)
	cmd.Flags().StringVar(&component, "component", "", "Only lines containing this component name")
	return cmd
}
