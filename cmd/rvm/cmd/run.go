package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/keegananderson/rvm32/pkg/asm"
	"github.com/keegananderson/rvm32/pkg/vm"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runAssemble bool

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "run a bytecode or (with --asm) assembly file to completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}

		var program []byte
		if runAssemble {
			program, err = asm.Assemble(string(raw))
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
		} else {
			program = raw
		}

		machine := vm.New()
		machine.AddBytes(program)

		for {
			logrus.WithFields(logrus.Fields{
				"pc":         machine.PC,
				"registers":  machine.Registers,
				"is_equal":   machine.IsEqual,
				"is_greater": machine.IsGreater,
			}).Debug("step")

			state, err := machine.RunOnce()
			if err != nil {
				if errors.Is(err, vm.ErrIllegalInstruction) {
					return fmt.Errorf("run: %w", err)
				}
				return fmt.Errorf("run: fault: %w", err)
			}
			if state != vm.Continue {
				break
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runAssemble, "asm", false, "treat the input file as assembly source instead of raw bytecode")
}
