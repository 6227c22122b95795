package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/forvo-grabber/internal/app"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition for proper command-line parsing.
	keyCmd = &cobra.Command{
		Use:   "key",
		Short: "Forvo API key management commands",
		Long: `Manage the Forvo API key stored in the configuration file.

Use 'key set <api-key>' to save your key. You can get one at https://api.forvo.com.`,
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition for proper command-line parsing.
	keySetCmd = &cobra.Command{
		Use:   "set <api-key>",
		Short: "Save the Forvo API key to the configuration file",
		Long: `Saves the Forvo API key to the configuration file.

Other settings and comments in the file are kept as they are.
If the file does not exist, it is created with default settings.`,
		Args:             cobra.ExactArgs(1),
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, args []string) {
			app.ExecuteKeySetCommand(cmd.Context(), appConfig, args[0])
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to set up commands.
func init() {
	keyCmd.AddCommand(keySetCmd)

	rootCmd.AddCommand(keyCmd)
}
