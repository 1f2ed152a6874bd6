package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// inventoryCmd represents the inventory command
var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Collect every resource type and write the inventory",
	Long: `Collect compute instances, storage buckets, managed databases and
serverless functions, then write the full inventory tree to
<output-dir>/aws_inventory.json (or .yaml) and, with --csv, one
<type>.csv table per resource type.

A resource type whose listing fails is reported with an empty list;
the run itself only fails when an output cannot be written.`,
	Example: `  stocktake inventory                          # Inventory us-east-1 into ./aws_inventory.json
  stocktake inventory --region eu-west-1 --csv # Also write compute.csv, storage.csv, ...
  stocktake inventory --format yaml -o reports # Write reports/aws_inventory.yaml
  stocktake inventory --policy                 # Audit Environment/Owner tags
  stocktake inventory --archive runs.db        # Keep the run for 'stocktake history'`,
	Args: cobra.NoArgs,
	RunE: runInventory,
}

func init() {
	rootCmd.AddCommand(inventoryCmd)

	addOutputFlags(inventoryCmd.Flags())
}

// addOutputFlags defines the flags shared by every command that writes inventories.
func addOutputFlags(fs *pflag.FlagSet) {
	fs.StringP("output-dir", "o", "", "Directory to write output files (default .)")
	fs.StringP("format", "f", "", "Document format: json, yaml (default json)")
	fs.Bool("csv", false, "Also write one CSV table per resource type")
	fs.Bool("policy", false, "Audit records against the tag policy")
	fs.String("policy-file", "", "Rego policy file (default built-in policy)")
	fs.String("archive", "", "Bolt database to archive runs in")

	configFlag(fs, "output-dir", "output.dir")
	configFlag(fs, "format", "output.format")
	configFlag(fs, "csv", "output.csv")
	configFlag(fs, "policy", "policy.enabled")
	configFlag(fs, "policy-file", "policy.path")
	configFlag(fs, "archive", "archive.path")
}

func runInventory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	out, err := outputs(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Warn().Err(err).Msg("close outputs failed")
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.shutdown(ctx)

	doc, err := a.collect(ctx, out)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Inventoried %d resources in %s (account %s) into %s\n",
		doc.Total(), doc.Region, doc.AccountID, cfg.Output.Dir)
	return nil
}
