package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yairfalse/stocktake/internal/export"
	"github.com/yairfalse/stocktake/pkg/resource"
)

var (
	exportOutput string
	exportFormat string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <type>",
	Short: "Collect the inventory and export one resource type",
	Long: `Run a full collection and write a single resource type to one file.

With --format json or yaml the whole inventory tree is written; with
--format csv only the selected type is written as a table. An
unknown type is reported and nothing is written.`,
	Example: `  stocktake export compute --output compute.csv --format csv
  stocktake export storage --output inventory.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default <type>.<format>)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json, yaml, csv")
}

func runExport(cmd *cobra.Command, args []string) error {
	t, ok := resource.ParseType(args[0])
	if !ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: unsupported resource type %q (must be one of: %s)\n",
			args[0], typeNames())
		return nil
	}

	format, err := export.ParseFormat(exportFormat)
	if err != nil {
		return fmt.Errorf("invalid export format: %s (must be one of: json, yaml, csv)", exportFormat)
	}

	path := exportOutput
	if path == "" {
		path = t.String() + "." + format.Ext()
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.shutdown(ctx)

	doc := a.aggregator.Run(ctx, cfg.AWS.Region)

	if format == export.FormatCSV {
		written, err := export.ExportTable(path, doc, t)
		if err != nil {
			return err
		}
		if !written {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s resources found, nothing written\n", t)
			return nil
		}
	} else if err := export.ExportDocument(path, doc, format); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", t, path)
	return nil
}

func typeNames() string {
	names := make([]string, 0, len(resource.Types()))
	for _, t := range resource.Types() {
		names = append(names, t.String())
	}
	return strings.Join(names, ", ")
}
