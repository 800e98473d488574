package cli

import (
	"github.com/spf13/cobra"
)

const defaultConfigPath = "config.yaml"

// globalOptions holds flags shared by every subcommand.
type globalOptions struct {
	configPath string
	envFile    string
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "hostwatch",
		Short: "Host resource monitor with email alerts",
		Long: `hostwatch samples disk, CPU, memory and NVIDIA GPU usage on a fixed
schedule and emails an alert when a resource crosses its configured
threshold. Repeated alerts for the same resource are suppressed for the
configured cooldown.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config (ignored when missing)")

	root.AddCommand(
		newRunCommand(opts),
		newCheckCommand(opts),
		newTestAlertCommand(opts),
	)
	return root
}
