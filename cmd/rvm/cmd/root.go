// Package cmd wires the rvm command-line surface: the REPL, the
// assembler, and the bytecode runner, all as cobra subcommands.
package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "rvm",
	Short: "register VM toolkit",
	Long:  `rvm assembles and runs programs for the 32-register, flat-memory virtual machine.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

// Execute runs the root command, exiting the process with status 1 on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(assembleCmd)
	rootCmd.AddCommand(runCmd)
}
