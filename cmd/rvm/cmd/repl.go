package cmd

import (
	"fmt"

	"github.com/keegananderson/rvm32/internal/repl"
	"github.com/keegananderson/rvm32/pkg/vm"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "start an interactive session against a fresh VM",
	RunE: func(cmd *cobra.Command, args []string) error {
		session := repl.New(vm.New())
		if err := session.Run(); err != nil {
			return fmt.Errorf("repl: %w", err)
		}
		return nil
	},
}
