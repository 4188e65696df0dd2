package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"curator/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check binaries, directories, and remote credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			healthy := true

			var depRows [][]string
			for _, dep := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				status := "ok"
				switch {
				case dep.Available:
				case dep.Optional:
					status = "optional"
				default:
					status = "missing"
					healthy = false
				}
				depRows = append(depRows, []string{dep.Name, dep.Command, status, dep.Version, dep.Detail})
			}
			fmt.Fprint(out, renderTable([]string{"Binary", "Command", "Status", "Version", "Detail"}, depRows, nil))

			results := append(preflight.RunAll(cmd.Context(), cfg), preflight.CheckTranscriptAPI(cfg))
			checkRows := make([][]string, 0, len(results))
			for _, r := range results {
				checkRows = append(checkRows, []string{r.Name, passLabel(r.Passed), r.Detail})
			}
			fmt.Fprint(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows, nil))

			if failed := preflight.Failed(results); len(failed) > 0 {
				healthy = false
			}
			sources := cfg.EnabledSources()
			fmt.Fprintf(out, "Enabled sources: %d\n", len(sources))
			if len(sources) == 0 {
				fmt.Fprintln(out, "No enabled sources; add [[sources]] entries to scan anything.")
			}
			if !healthy {
				return errors.New("doctor found problems")
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}

func passLabel(passed bool) string {
	if passed {
		return "ok"
	}
	return "fail"
}
