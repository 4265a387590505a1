package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "idbuilder",
		Short:         "Generate snowflake, auto-increment and formatted IDs.",
		Long:          "idbuilder generates snowflake IDs locally from a configured or server-assigned layout, and requests auto-increment and formatted IDs from an IDBuilder service.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default: ./idbuilder.yaml or ./config/idbuilder.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug|info|warn|error)")

	root.AddCommand(
		newSnowflakeCmd(flags),
		newIncrementCmd(flags),
		newFormattedCmd(flags),
	)
	return root
}
