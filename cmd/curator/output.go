package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"curator/internal/curation"
	"curator/internal/scanner"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// sinceLabel renders an RFC 3339 stamp relative to now ("3 hours ago").
// Unparseable stamps are returned unchanged.
func sinceLabel(stamp string) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return stamp
	}
	return humanize.Time(t)
}

func candidateRows(items []scanner.CandidateItem) [][]string {
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(item.Platform),
			item.SourceName,
			item.Title,
			item.DurationDisplay,
			item.PublishedAt,
			strconv.Itoa(item.Views),
		})
	}
	return rows
}

func printCandidates(out io.Writer, items []scanner.CandidateItem) {
	fmt.Fprint(out, renderTable(
		[]string{"#", "Platform", "Source", "Title", "Duration", "Published", "Views"},
		candidateRows(items),
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
	))
}

func printSummary(out io.Writer, summary curation.Summary) {
	if len(summary.Outcomes) == 0 {
		fmt.Fprintln(out, "Nothing to process")
		return
	}
	rows := make([][]string, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		detail := o.TranscriptMethod
		if o.Err != nil {
			detail = o.Err.Error()
		}
		rows = append(rows, []string{
			strconv.FormatInt(o.ItemID, 10),
			o.Platform,
			o.Title,
			string(o.Status),
			detail,
			o.Duration.Round(100 * time.Millisecond).String(),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"ID", "Platform", "Title", "Status", "Detail", "Took"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
	fmt.Fprintf(out, "Processed %d: %d succeeded, %d failed (%s)\n",
		summary.Processed, summary.Succeeded, summary.Failed, summary.Duration.Round(100 * time.Millisecond))
}
