package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "modloader",
	Short: "Inspect and exercise the module loader core from the command line",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfigPath, "config", "c", "", "path to a loader config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(automockCmd)
}

// Execute runs the root command; main delegates to it so tests can
// invoke the command tree without going through os.Exit.
func Execute() error {
	return rootCmd.Execute()
}
