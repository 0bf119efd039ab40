// Package repl implements the interactive shell collaborator described in
// spec.md §6: it consumes the assembler's ParseProgram/ResolveLabels/ToBytes
// entry points and the vm package's API surface, dispatches dot-prefixed
// meta-commands, and optionally accepts raw hex-paste bytecode.
package repl

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/keegananderson/rvm32/pkg/asm"
	"github.com/keegananderson/rvm32/pkg/vm"
	"github.com/peterh/liner"
	"github.com/sirupsen/logrus"
)

// Banner is printed once when the REPL starts.
const Banner = "register VM REPL — type an instruction, or a .command"

// Prompt is printed before reading each line.
const Prompt = "> "

// CommandPrefix marks a line as a meta-command rather than assembly.
const CommandPrefix = "."

// REPL drives one interactive session against a single VM instance.
type REPL struct {
	VM      *vm.VM
	Out     func(string)
	history []string
	hexMode bool
	line    *liner.State
	logger  *logrus.Logger
}

// New builds a REPL around machine. If machine is nil, a fresh VM is
// created.
func New(machine *vm.VM) *REPL {
	if machine == nil {
		machine = vm.New()
	}
	return &REPL{
		VM:     machine,
		Out:    func(s string) { fmt.Println(s) },
		line:   liner.NewLiner(),
		logger: logrus.StandardLogger(),
	}
}

// Close releases the underlying line editor. Run calls it before
// returning.
func (r *REPL) Close() error {
	return r.line.Close()
}

// Run starts the read-eval-print loop. It blocks until a `.exit`/`.quit`
// command or an unrecoverable input error.
func (r *REPL) Run() error {
	defer r.Close()
	r.line.SetCtrlCAborts(true)
	r.Out(color.New(color.FgCyan).Sprint(Banner))

	for {
		input, err := r.line.Prompt(Prompt)
		if err != nil {
			if err == liner.ErrPromptAborted || err == liner.ErrNotTerminalOutput {
				return nil
			}
			return err
		}
		r.line.AppendHistory(input)
		r.history = append(r.history, input)

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, CommandPrefix) {
			if quit := r.execute(trimmed); quit {
				return nil
			}
			continue
		}
		r.feed(trimmed)
	}
}

// feed assembles (or, in hex mode, decodes) one line of input, appends
// the resulting bytes to the VM's program, and single-steps the VM.
func (r *REPL) feed(line string) {
	if r.hexMode {
		bytes, err := parseHex(line)
		if err != nil {
			r.Out("Unable to decode hex string. Please enter groups of 2 hex characters.")
			return
		}
		r.VM.AddBytes(bytes)
	} else {
		program, err := asm.ParseProgram(line)
		if err != nil {
			r.Out("Unable to parse instruction.")
			return
		}
		if err := program.ResolveLabels(); err != nil {
			r.Out(fmt.Sprintf("Unable to resolve labels: %v", err))
			return
		}
		bytes, err := program.ToBytes()
		if err != nil {
			r.Out(fmt.Sprintf("Unable to encode instruction: %v", err))
			return
		}
		r.VM.AddBytes(bytes)
	}

	if _, err := r.VM.RunOnce(); err != nil {
		r.Out(color.New(color.FgRed).Sprintf("fault: %v", err))
	}
}

// parseHex decodes whitespace-separated two-hex-digit groups into bytes.
func parseHex(line string) ([]byte, error) {
	fields := strings.Fields(line)
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		if len(f) != 2 {
			return nil, fmt.Errorf("malformed hex group %q", f)
		}
		b, err := hex.DecodeString(f)
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// execute dispatches a dot-prefixed meta-command. It returns true if the
// REPL should exit.
func (r *REPL) execute(line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]
	switch cmd {
	case ".exit", ".quit":
		r.quit()
		return true
	case ".history":
		r.showHistory()
	case ".program":
		r.showProgram()
	case ".clear_program":
		r.VM.Program = nil
	case ".clear_registers":
		r.clearRegisters()
	case ".registers":
		r.showRegisters()
	case ".register":
		r.showRegister(args)
	case ".hex_mode":
		r.setHexMode(args)
	default:
		r.Out("Invalid command!")
	}
	return false
}

func (r *REPL) quit() {
	r.Out("Quiting...")
}

func (r *REPL) showHistory() {
	r.Out(fmt.Sprintf("%v", r.history))
}

func (r *REPL) showProgram() {
	r.Out("Listing instructions currently in VM's program vector: ")
	r.Out(fmt.Sprintf("%v", r.VM.Program))
	r.Out("End of Program Listing")
}

func (r *REPL) clearRegisters() {
	r.Out("Setting all registers to 0")
	for i := range r.VM.Registers {
		r.VM.Registers[i] = 0
	}
	r.Out("Done!")
}

func (r *REPL) showRegisters() {
	r.Out("Listing registers and all contents:")
	r.Out(fmt.Sprintf("%v", r.VM.Registers))
	r.Out("End of Register Listing")
}

func (r *REPL) showRegister(args []string) {
	if len(args) != 1 {
		r.Out(fmt.Sprintf("Register 0 contains the value %d", r.VM.Registers[0]))
		return
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 0 || idx >= len(r.VM.Registers) {
		r.Out("Invalid register index")
		return
	}
	r.Out(fmt.Sprintf("Register %d contains the value %d", idx, r.VM.Registers[idx]))
}

func (r *REPL) setHexMode(args []string) {
	if len(args) != 1 {
		r.Out("Entering hex mode")
		r.hexMode = true
		return
	}
	if args[0] == "disable" || args[0] == "off" {
		r.Out("Exiting hex mode")
		r.hexMode = false
	}
}
