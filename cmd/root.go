package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/forvo-grabber/internal/app"
	"github.com/oshokin/forvo-grabber/internal/config"
	"github.com/oshokin/forvo-grabber/internal/logger"
	"github.com/oshokin/forvo-grabber/internal/version"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "forvo-grabber [flags] {words or .txt files}",
		Short: "Download the best Forvo pronunciation of each word.",
		Long: `Forvo Grabber is a CLI tool for downloading word pronunciations from Forvo.

For every word it:
- removes stress marks (соба́ка is looked up as собака)
- asks Forvo for all recordings in the configured language
- picks the recording with the most votes, favoring trusted contributors
- saves it as <word>.mp3 and, optionally, adds it to Anki's media folder

Words can be passed directly or in .txt files, one word per line.
Set your Forvo API key once with 'forvo-grabber key set <api-key>'.`,
		Version:          version.Full(),
		Args:             cobra.MinimumNArgs(1),
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, words []string) {
			if err := bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
				logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
			}

			logger.SetLevel(appConfig.ParsedLogLevel)

			app.ExecuteRootCommand(cmd.Context(), appConfig, words)
		},
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	go func() {
		defer stop()

		err := rootCmd.ExecuteContext(ctx)
		cobra.CheckErr(err)
	}()

	<-ctx.Done()
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	rootCmdFlags := rootCmd.Flags()

	rootCmdFlags.StringP(
		"output",
		"o",
		"",
		"directory to save downloaded files (the path will be created if it doesn’t exist).")

	rootCmdFlags.StringP(
		"language",
		"l",
		"",
		"Forvo language code, for example: ru, uk, en, pt_br.")

	rootCmdFlags.StringP(
		"key",
		"k",
		"",
		"Forvo API key, overrides the one from the configuration file.")

	rootCmdFlags.BoolP(
		"anki",
		"a",
		false,
		"store downloaded files in Anki's media folder through AnkiConnect.")

	rootCmdFlags.BoolP(
		"dry-run",
		"n",
		false,
		"select recordings without downloading them.")

	rootCmdFlags.StringP(
		"speed-limit",
		"s",
		"",
		"set download speed limit, for example: 500 kbps, 1 mbps, 1.5 mbps.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	if level, ok := logger.ParseLogLevel(appConfig.LogLevel); ok {
		logger.SetLevel(level)
	}
}

func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("output"); flag != nil && flag.Changed {
		cfg.OutputPath, _ = flags.GetString("output")
	}

	if flag := flags.Lookup("language"); flag != nil && flag.Changed {
		cfg.Language, _ = flags.GetString("language")
	}

	if flag := flags.Lookup("key"); flag != nil && flag.Changed {
		cfg.APIKey, _ = flags.GetString("key")
	}

	if flag := flags.Lookup("anki"); flag != nil && flag.Changed {
		cfg.StoreInAnki, _ = flags.GetBool("anki")
	}

	if flag := flags.Lookup("dry-run"); flag != nil && flag.Changed {
		cfg.DryRun, _ = flags.GetBool("dry-run")
	}

	if flag := flags.Lookup("speed-limit"); flag != nil && flag.Changed {
		cfg.DownloadSpeedLimit, _ = flags.GetString("speed-limit")
	}

	return config.ValidateConfig(cfg)
}
