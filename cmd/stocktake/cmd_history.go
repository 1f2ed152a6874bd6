package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yairfalse/stocktake/internal/archive"
	"github.com/yairfalse/stocktake/pkg/resource"
)

var (
	historyLimit  int
	historyLatest bool
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived inventory runs",
	Long: `List the runs stored by 'stocktake inventory --archive' or
'stocktake watch --archive', newest first, with per-type counts.`,
	Example: `  stocktake history --archive runs.db            # All runs
  stocktake history --archive runs.db --limit 5  # Five newest runs
  stocktake history --archive runs.db --latest   # Newest document as JSON`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().String("archive", "", "Bolt database holding archived runs")
	configFlag(historyCmd.Flags(), "archive", "archive.path")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Show at most this many runs (0 for all)")
	historyCmd.Flags().BoolVar(&historyLatest, "latest", false, "Print the newest archived document")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if cfg.Archive.Path == "" {
		return fmt.Errorf("no archive configured: pass --archive or set archive.path")
	}

	a, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := cmd.OutOrStdout()

	if historyLatest {
		_, raw, err := a.Latest()
		if errors.Is(err, archive.ErrEmpty) {
			fmt.Fprintln(out, "No runs archived yet")
			return nil
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(raw))
		return err
	}

	entries, err := a.List(historyLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No runs archived yet")
		return nil
	}
	return printHistory(out, entries)
}

func printHistory(out io.Writer, entries []archive.Entry) error {
	types := resource.Types()

	header := []string{"TIMESTAMP", "REGION", "ACCOUNT"}
	for _, t := range types {
		header = append(header, strings.ToUpper(t.String()))
	}
	header = append(header, "TOTAL")

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, e := range entries {
		row := []string{e.Timestamp, e.Region, e.AccountID}
		for _, t := range types {
			row = append(row, fmt.Sprint(e.Summary[t]))
		}
		row = append(row, fmt.Sprint(e.Total()))
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	return w.Flush()
}
