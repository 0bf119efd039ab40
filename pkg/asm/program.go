package asm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/keegananderson/rvm32/pkg/isa"
)

// ErrUndefinedLabel is returned by ResolveLabels when a LabelUsage token
// has no matching label declaration anywhere in the program.
var ErrUndefinedLabel = errors.New("asm: undefined label")

// ErrLabelUsageNotAllowed is returned by ResolveLabels when a LabelUsage
// token appears in an argument slot that isn't an immediate. Every
// jump-family opcode decodes its single argument as a register index (it
// jumps to that register's value, register-indirect), not a direct byte
// offset, so a raw resolved address has nowhere to go except SET's
// immediate operand: load the address into a register with `set $r
// @label`, then jump through that register with e.g. `jmp $r`.
var ErrLabelUsageNotAllowed = errors.New("asm: label usage is only valid as an immediate (set) operand")

// AsmProgram is an ordered sequence of AsmInstruction.
type AsmProgram struct {
	Instructions []AsmInstruction
}

// ParseError reports a malformed line, along with the unconsumed
// remainder of the source starting at the offending line, per the
// assembler's recoverable-parse-error contract.
type ParseError struct {
	Line      int
	Remainder string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseProgram parses assembly source text into an AsmProgram. Blank
// lines are skipped; a trailing newline is tolerated. At least one
// instruction line is required.
func ParseProgram(source string) (*AsmProgram, error) {
	lines := strings.Split(source, "\n")
	prog := &AsmProgram{}
	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineno := i + 1
		ai, err := ParseLine(lineno, line)
		if err != nil {
			return nil, &ParseError{
				Line:      lineno,
				Remainder: strings.Join(lines[i:], "\n"),
				Err:       err,
			}
		}
		if ai != nil {
			prog.Instructions = append(prog.Instructions, *ai)
		}
	}
	if len(prog.Instructions) == 0 {
		return nil, &ParseError{Line: 0, Remainder: source, Err: errors.New("no instructions in program")}
	}
	return prog, nil
}

// ResolveLabels performs the second pass of assembly: it walks every
// instruction's Label declaration to build a name -> byte-offset table,
// tracking the running byte total as it goes (a directive-only
// instruction contributes 0 bytes; an opcode instruction contributes 4,
// or more for oversized arguments — see AsmInstruction.EncodedLength),
// then rewrites every
// LabelUsage argument into the resolved Integer token. It must be called
// before ToBytes if the program contains any @name usages.
//
// A resolved label is only meaningful as an immediate: every jump-family
// opcode reads its single argument as a register index and jumps to that
// register's value, never to a direct address, so a LabelUsage appearing
// anywhere but SET's immediate operand is rejected with
// ErrLabelUsageNotAllowed rather than silently producing an address
// nothing will ever consume as one.
func (p *AsmProgram) ResolveLabels() error {
	labels := make(map[string]int32, len(p.Instructions))
	offset := int32(0)
	for i := range p.Instructions {
		instr := &p.Instructions[i]
		if instr.Label != nil {
			labels[instr.Label.Name] = offset
		}
		offset += int32(instr.EncodedLength())
	}

	for i := range p.Instructions {
		instr := &p.Instructions[i]
		slots := []struct {
			arg **Token
			pos int
		}{{&instr.Arg1, 1}, {&instr.Arg2, 2}, {&instr.Arg3, 3}}
		for _, s := range slots {
			if *s.arg == nil || (*s.arg).Kind != KindLabelUsage {
				continue
			}
			if !allowsLabelUsage(instr, s.pos) {
				return fmt.Errorf("line %d: %w", instr.Lineno, ErrLabelUsageNotAllowed)
			}
			off, ok := labels[(*s.arg).Name]
			if !ok {
				return fmt.Errorf("line %d: %w %q", instr.Lineno, ErrUndefinedLabel, (*s.arg).Name)
			}
			resolved := IntegerToken(off)
			*s.arg = &resolved
		}
	}
	return nil
}

// allowsLabelUsage reports whether argument slot pos (1-indexed: Arg1,
// Arg2, Arg3) of instr structurally takes an immediate. Only SET's second
// argument does; every other opcode's arguments are register indices.
func allowsLabelUsage(instr *AsmInstruction, pos int) bool {
	return instr.Opcode != nil && instr.Opcode.Opcode == isa.SET && pos == 2
}

// ToBytes is the concatenation of every instruction's encoding, in order.
// Call ResolveLabels first if the program uses labels.
func (p *AsmProgram) ToBytes() ([]byte, error) {
	var out []byte
	for i := range p.Instructions {
		b, err := p.Instructions[i].ToBytes()
		if err != nil {
			return nil, err
		}
		out = append(out, b...)
	}
	return out, nil
}

// Assemble is the convenience entry point: parse, resolve labels, encode.
func Assemble(source string) ([]byte, error) {
	prog, err := ParseProgram(source)
	if err != nil {
		return nil, err
	}
	if err := prog.ResolveLabels(); err != nil {
		return nil, err
	}
	return prog.ToBytes()
}
