package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"curator/internal/curation"
	"curator/internal/scanner"
)

const selectionPrompt = "Select items (e.g. 1,3-5 | all | youtube | q to quit): "

func newRunCommand(ctx *commandContext) *cobra.Command {
	var selectAll bool
	var selection string
	var platform string
	var limit int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scan sources, choose items, and process them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if selectAll && strings.TrimSpace(selection) != "" {
				return errors.New("specify only one of --all or --select")
			}
			selector, err := buildSelector(cmd, selectAll, selection)
			if err != nil {
				return err
			}
			return ctx.withDriver(func(driver *curation.Driver) error {
				summary, err := driver.Run(cmd.Context(), curation.RunOptions{
					Limit:    limit,
					Platform: platform,
					Selector: selector,
				})
				printSummary(cmd.OutOrStdout(), summary)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&selectAll, "all", false, "Process every new item without prompting")
	cmd.Flags().StringVar(&selection, "select", "", "Selection to process, e.g. 1,3-5")
	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Only scan sources of this platform")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Items listed per source (default from config)")
	return cmd
}

func buildSelector(cmd *cobra.Command, selectAll bool, selection string) (curation.Selector, error) {
	out := cmd.OutOrStdout()
	switch {
	case selectAll:
		return func(_ context.Context, items []scanner.CandidateItem) ([]scanner.CandidateItem, error) {
			printCandidates(out, items)
			return items, nil
		}, nil
	case strings.TrimSpace(selection) != "":
		return func(_ context.Context, items []scanner.CandidateItem) ([]scanner.CandidateItem, error) {
			printCandidates(out, items)
			return curation.ParseSelection(selection, items)
		}, nil
	}
	in := cmd.InOrStdin()
	if !isTerminal(in) {
		return nil, errors.New("stdin is not a terminal; pass --all or --select")
	}
	return func(ctx context.Context, items []scanner.CandidateItem) ([]scanner.CandidateItem, error) {
		printCandidates(out, items)
		return promptSelection(ctx, in, out, items)
	}, nil
}

// promptSelection asks until the input selects something, the user quits,
// or input ends.
func promptSelection(ctx context.Context, in io.Reader, out io.Writer, items []scanner.CandidateItem) ([]scanner.CandidateItem, error) {
	reader := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprint(out, selectionPrompt)
		if !reader.Scan() {
			fmt.Fprintln(out)
			return nil, reader.Err()
		}
		selected, err := curation.ParseSelection(reader.Text(), items)
		if err != nil {
			fmt.Fprintf(out, "%v\n", err)
			continue
		}
		return selected, nil
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
