// Package vm implements the register-based virtual machine: a fixed
// register file, program counter, comparison flags, and the
// fetch/decode/execute loop that interprets the assembler's 4-byte
// instructions.
package vm

import (
	"errors"
	"fmt"

	"github.com/keegananderson/rvm32/pkg/isa"
	"github.com/sirupsen/logrus"
)

// NumRegisters is the number of general-purpose registers.
const NumRegisters = 32

// State is the result of one execution step.
type State int

const (
	// Continue means the step executed an ordinary instruction; the VM
	// is ready for another step.
	Continue State = iota
	// Halted means the step executed HLT.
	Halted
	// NotContinuing means pc was already past the end of the program;
	// the step was a no-op.
	NotContinuing
	// Illegal means the step decoded IGL; execution cannot proceed.
	Illegal
)

func (s State) String() string {
	switch s {
	case Continue:
		return "continue"
	case Halted:
		return "halt"
	case NotContinuing:
		return "not continuing"
	case Illegal:
		return "illegal"
	default:
		return "unknown"
	}
}

// The following errors are the VM's fatal runtime faults (spec §7): they
// terminate the current Run rather than the process, but for any given
// faulting bytecode they are deterministic and unrecoverable.
var (
	// ErrIllegalInstruction is returned when the decoded opcode is IGL.
	ErrIllegalInstruction = errors.New("vm: illegal instruction")
	// ErrRegisterOutOfRange is returned when an instruction addresses a
	// register index >= NumRegisters.
	ErrRegisterOutOfRange = errors.New("vm: register index out of range")
	// ErrDivideByZero is returned by DIV when the divisor register is zero.
	ErrDivideByZero = errors.New("vm: division by zero")
	// ErrJumpUnderflow is returned by JMPB when the jump distance exceeds pc.
	ErrJumpUnderflow = errors.New("vm: jmpb would underflow pc")
	// ErrTruncatedInstruction is returned when an opcode's operands run
	// past the end of the program.
	ErrTruncatedInstruction = errors.New("vm: truncated instruction")
)

// VM is a single virtual machine instance. It is not goroutine-safe; a
// single goroutine (the host) must drive it.
type VM struct {
	Registers [NumRegisters]int32
	PC        uint32
	Program   []byte
	Remainder uint32
	IsEqual   bool
	IsGreater bool

	// Logger receives structured diagnostics (illegal instructions,
	// faults). It defaults to logrus's standard logger.
	Logger *logrus.Logger
}

// New returns a freshly zeroed VM, ready to accept program bytes.
func New() *VM {
	return &VM{Logger: logrus.StandardLogger()}
}

// AddByte appends a single byte to the program.
func (vm *VM) AddByte(b byte) {
	vm.Program = append(vm.Program, b)
}

// AddBytes appends bs to the program.
func (vm *VM) AddBytes(bs []byte) {
	vm.Program = append(vm.Program, bs...)
}

// next8 reads one byte at pc and advances pc by 1.
func (vm *VM) next8() (byte, error) {
	if vm.PC >= uint32(len(vm.Program)) {
		return 0, fmt.Errorf("%w at pc=%d", ErrTruncatedInstruction, vm.PC)
	}
	b := vm.Program[vm.PC]
	vm.PC++
	return b, nil
}

// next16 reads two bytes at pc, advances pc by 2, and combines them as
// (hi<<8)|lo.
func (vm *VM) next16() (uint16, error) {
	hi, err := vm.next8()
	if err != nil {
		return 0, err
	}
	lo, err := vm.next8()
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// reg returns the value of register i, or ErrRegisterOutOfRange.
func (vm *VM) reg(i byte) (int32, error) {
	if int(i) >= NumRegisters {
		return 0, fmt.Errorf("%w: register %d", ErrRegisterOutOfRange, i)
	}
	return vm.Registers[i], nil
}

// setReg stores v into register i, or returns ErrRegisterOutOfRange.
func (vm *VM) setReg(i byte, v int32) error {
	if int(i) >= NumRegisters {
		return fmt.Errorf("%w: register %d", ErrRegisterOutOfRange, i)
	}
	vm.Registers[i] = v
	return nil
}

// RunOnce executes a single instruction and reports the resulting state.
// If pc is already past the end of the program, it is a no-op that
// reports NotContinuing. A fatal fault (illegal instruction, out-of-range
// register, division by zero, JMPB underflow, or a truncated instruction)
// is reported as a non-nil error alongside the State that triggered it.
func (vm *VM) RunOnce() (State, error) {
	if vm.PC >= uint32(len(vm.Program)) {
		return NotContinuing, nil
	}

	opcodeByte := vm.Program[vm.PC]
	vm.PC++
	op := isa.FromByte(opcodeByte)

	switch op {
	case isa.SET:
		register, err := vm.next8()
		if err != nil {
			return Continue, err
		}
		imm, err := vm.next16()
		if err != nil {
			return Continue, err
		}
		if err := vm.setReg(register, int32(imm)); err != nil {
			return Continue, err
		}

	case isa.HLT:
		fmt.Println("HLT encountered")
		return Halted, nil

	case isa.ADD, isa.SUB, isa.MUL, isa.DIV:
		a, b, d, err := vm.readABD()
		if err != nil {
			return Continue, err
		}
		ra, err := vm.reg(a)
		if err != nil {
			return Continue, err
		}
		rb, err := vm.reg(b)
		if err != nil {
			return Continue, err
		}
		var result int32
		switch op {
		case isa.ADD:
			result = ra + rb
		case isa.SUB:
			result = ra - rb
		case isa.MUL:
			result = ra * rb
		case isa.DIV:
			if rb == 0 {
				return Continue, fmt.Errorf("%w: register %d", ErrDivideByZero, b)
			}
			result = ra / rb
			vm.Remainder = uint32(ra % rb)
		}
		if err := vm.setReg(d, result); err != nil {
			return Continue, err
		}

	case isa.JMP:
		t, err := vm.next8()
		if err != nil {
			return Continue, err
		}
		rt, err := vm.reg(t)
		if err != nil {
			return Continue, err
		}
		vm.PC = uint32(rt)

	case isa.JMPF:
		t, err := vm.next8()
		if err != nil {
			return Continue, err
		}
		rt, err := vm.reg(t)
		if err != nil {
			return Continue, err
		}
		vm.PC += uint32(rt)

	case isa.JMPB:
		t, err := vm.next8()
		if err != nil {
			return Continue, err
		}
		rt, err := vm.reg(t)
		if err != nil {
			return Continue, err
		}
		offset := uint32(rt)
		if offset > vm.PC {
			return Continue, fmt.Errorf("%w: pc=%d offset=%d", ErrJumpUnderflow, vm.PC, offset)
		}
		vm.PC -= offset

	case isa.EQ, isa.NEQ, isa.GT, isa.LT, isa.GTQ, isa.LTQ:
		a, b, _, err := vm.readABD() // third byte is padding, still consumed
		if err != nil {
			return Continue, err
		}
		ra, err := vm.reg(a)
		if err != nil {
			return Continue, err
		}
		rb, err := vm.reg(b)
		if err != nil {
			return Continue, err
		}
		switch op {
		case isa.EQ:
			vm.IsEqual = ra == rb
		case isa.NEQ:
			vm.IsEqual = ra != rb
		case isa.GT:
			vm.IsGreater = ra > rb
		case isa.LT:
			vm.IsGreater = ra < rb
		case isa.GTQ:
			// Preserved anomaly: both flags are set identically,
			// regardless of strict-vs-equal outcome.
			ok := ra >= rb
			vm.IsEqual, vm.IsGreater = ok, ok
		case isa.LTQ:
			ok := ra <= rb
			vm.IsEqual, vm.IsGreater = ok, ok
		}

	case isa.JEQ:
		t, err := vm.next8()
		if err != nil {
			return Continue, err
		}
		if vm.IsEqual {
			rt, err := vm.reg(t)
			if err != nil {
				return Continue, err
			}
			vm.PC = uint32(rt)
		}

	case isa.JNEQ:
		t, err := vm.next8()
		if err != nil {
			return Continue, err
		}
		if !vm.IsEqual {
			rt, err := vm.reg(t)
			if err != nil {
				return Continue, err
			}
			vm.PC = uint32(rt)
		}

	case isa.IGL:
		err := fmt.Errorf("%w: opcode byte %d at pc=%d", ErrIllegalInstruction, opcodeByte, vm.PC-1)
		vm.Logger.WithFields(logrus.Fields{"opcode_byte": opcodeByte, "pc": vm.PC - 1}).Error(err)
		return Illegal, err
	}

	return Continue, nil
}

// readABD reads the three register-index operands shared by the
// arithmetic and comparison opcodes.
func (vm *VM) readABD() (a, b, d byte, err error) {
	if a, err = vm.next8(); err != nil {
		return
	}
	if b, err = vm.next8(); err != nil {
		return
	}
	if d, err = vm.next8(); err != nil {
		return
	}
	return
}

// Run executes instructions until HLT, program exhaustion, or a fatal
// fault. It returns the fault's error, or nil on a clean halt or
// exhaustion.
func (vm *VM) Run() error {
	for {
		state, err := vm.RunOnce()
		if err != nil {
			return err
		}
		if state != Continue {
			return nil
		}
	}
}
