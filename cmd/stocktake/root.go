package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/yairfalse/stocktake/internal/config"
	"github.com/yairfalse/stocktake/internal/telemetry"
)

var (
	version = "0.1.0"

	configPath string
	debug      bool

	// cfg is resolved once per invocation by loadConfig.
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "stocktake",
		Short: "Cloud resource inventory",
		Long: `Stocktake - Cloud Resource Inventory

Stocktake lists the compute instances, storage buckets, managed
databases and serverless functions of one AWS account and region,
normalizes them into flat records with tag attribution, and writes
the result as a JSON or YAML document plus optional CSV tables.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
	}
)

// Execute runs the root command, cancelling its context on SIGINT or SIGTERM.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(`Stocktake {{.Version}} - Cloud Resource Inventory
`)

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to TOML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringP("region", "r", "", "AWS region to inventory (default us-east-1)")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "AWS shared config profile")
	configFlag(rootCmd.PersistentFlags(), "region", "aws.region")
	configFlag(rootCmd.PersistentFlags(), "profile", "aws.profile")
}

// loadConfig sets up logging and resolves configuration from the config
// file, the .env file, STOCKTAKE_* variables and flags, in rising precedence.
func loadConfig(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	} else {
		cfg = config.Default()
	}

	v := viper.New()
	if err := bindFlags(v, cmd); err != nil {
		return err
	}
	if err := config.ApplyOverrides(cfg, v); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	setupLogging(cfg.Log.Level, debug)
	return nil
}

// configKey is the flag annotation naming the config key a flag overrides.
const configKey = "stocktake/config-key"

// configFlag marks flag name in fs as an override of config key.
func configFlag(fs *pflag.FlagSet, name, key string) {
	if err := fs.SetAnnotation(name, configKey, []string{key}); err != nil {
		panic(err)
	}
}

// bindFlags binds every annotated flag of cmd, inherited ones included.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[configKey]
		if err != nil || len(keys) == 0 {
			return
		}
		if bindErr := v.BindPFlag(keys[0], f); bindErr != nil {
			err = fmt.Errorf("bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

func setupLogging(level string, debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Hook(telemetry.OTELHook{})
}
