package cmd

import (
	"fmt"
	"os"

	"github.com/keegananderson/rvm32/pkg/asm"
	"github.com/spf13/cobra"
)

var assembleOut string

var assembleCmd = &cobra.Command{
	Use:   "assemble <file>",
	Short: "assemble a source file into bytecode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("assemble: %w", err)
		}
		bytecode, err := asm.Assemble(string(source))
		if err != nil {
			return fmt.Errorf("assemble: %w", err)
		}
		if assembleOut == "" {
			_, err = os.Stdout.Write(bytecode)
			return err
		}
		return os.WriteFile(assembleOut, bytecode, 0o644)
	},
}

func init() {
	assembleCmd.Flags().StringVarP(&assembleOut, "output", "o", "", "write bytecode to this file instead of stdout")
}
