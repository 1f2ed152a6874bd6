package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yairfalse/stocktake/internal/awsprofile"
)

// profilesCmd represents the profiles command
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List AWS profiles usable with --profile",
	Long: `List the profiles found in the AWS shared config and credentials
files (AWS_CONFIG_FILE and AWS_SHARED_CREDENTIALS_FILE are honored).`,
	Args: cobra.NoArgs,
	RunE: runProfiles,
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}

func runProfiles(cmd *cobra.Command, _ []string) error {
	configPath, credentialsPath := awsprofile.DefaultPaths()

	profiles, err := awsprofile.List(configPath, credentialsPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(profiles) == 0 {
		fmt.Fprintln(out, "No AWS profiles found")
		return nil
	}

	if cfg.AWS.Profile != "" && !awsprofile.Exists(profiles, cfg.AWS.Profile) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: configured profile %q not found\n", cfg.AWS.Profile)
	}

	return printProfiles(out, profiles)
}

func printProfiles(out io.Writer, profiles []awsprofile.Profile) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROFILE\tREGION\tCREDENTIALS")
	for _, p := range profiles {
		region := p.Region
		if region == "" {
			region = "-"
		}
		creds := "no"
		if p.HasCredentials {
			creds = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, region, creds)
	}
	return w.Flush()
}
