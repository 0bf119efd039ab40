package vm_test

import (
	"testing"

	"github.com/keegananderson/rvm32/pkg/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVM() *vm.VM {
	m := vm.New()
	m.Registers[0] = 5
	m.Registers[1] = 1
	return m
}

func TestCreateVM(t *testing.T) {
	m := vm.New()
	assert.Equal(t, int32(0), m.Registers[0])
	assert.Equal(t, uint32(0), m.PC)
}

func TestHltOpcode(t *testing.T) {
	m := vm.New()
	m.AddBytes([]byte{5, 0, 0, 0})
	state, err := m.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, vm.Halted, state)
	assert.Equal(t, uint32(1), m.PC)
}

func TestSetOpcode(t *testing.T) {
	m := newTestVM()
	m.AddBytes([]byte{0, 0, 1, 244})
	require.NoError(t, m.Run())
	assert.Equal(t, int32(500), m.Registers[0])
	assert.Equal(t, uint32(4), m.PC)
}

func TestSetOpcodeSmallImmediate(t *testing.T) {
	m := newTestVM()
	m.AddBytes([]byte{0, 0, 0, 10})
	require.NoError(t, m.Run())
	assert.Equal(t, int32(10), m.Registers[0])
	assert.Equal(t, uint32(4), m.PC)
}

func TestAddOpcode(t *testing.T) {
	m := newTestVM()
	m.AddBytes([]byte{1, 1, 1, 2})
	require.NoError(t, m.Run())
	assert.Equal(t, int32(2), m.Registers[2])
}

func TestSubOpcode(t *testing.T) {
	m := newTestVM()
	m.AddBytes([]byte{2, 1, 1, 2})
	require.NoError(t, m.Run())
	assert.Equal(t, int32(0), m.Registers[2])
}

func TestMulOpcode(t *testing.T) {
	m := newTestVM()
	m.AddBytes([]byte{3, 1, 1, 2})
	require.NoError(t, m.Run())
	assert.Equal(t, int32(1), m.Registers[2])
}

func TestDivOpcode(t *testing.T) {
	m := newTestVM()
	m.AddBytes([]byte{4, 1, 1, 2})
	require.NoError(t, m.Run())
	assert.Equal(t, int32(1), m.Registers[2])
	assert.Equal(t, uint32(0), m.Remainder)
}

func TestDivByZeroIsFatal(t *testing.T) {
	m := newTestVM()
	m.Registers[1] = 0
	m.AddBytes([]byte{4, 1, 1, 2})
	err := m.Run()
	assert.ErrorIs(t, err, vm.ErrDivideByZero)
}

func TestJmpOpcode(t *testing.T) {
	m := newTestVM()
	m.Registers[1] = 1
	m.AddBytes([]byte{6, 1, 0, 0})
	_, err := m.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), m.PC)
}

func TestJmpfOpcode(t *testing.T) {
	m := newTestVM()
	m.Registers[0] = 2
	m.AddBytes([]byte{7, 0, 0, 0, 6, 0, 0, 0})
	_, err := m.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), m.PC)
}

func TestJmpbOpcode(t *testing.T) {
	// The leading SET instruction consumes bytes 0..3 and leaves pc at the
	// JMPB that follows. The JMPB reads its opcode and register bytes
	// (pc=6), then jumps back by r1=6 to pc=0.
	m := newTestVM()
	m.Registers[1] = 6
	m.AddBytes([]byte{0, 0, 0, 10, 8, 1, 0, 0})
	_, err := m.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), m.PC)
	_, err = m.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, uint32(0), m.PC)
}

func TestJmpbUnderflowIsFatal(t *testing.T) {
	m := newTestVM()
	m.Registers[1] = 100
	m.AddBytes([]byte{8, 1, 0, 0})
	err := m.Run()
	assert.ErrorIs(t, err, vm.ErrJumpUnderflow)
}

func TestEqOpcode(t *testing.T) {
	m := newTestVM()
	m.Registers[0] = 10
	m.Registers[1] = 10
	m.AddBytes([]byte{9, 0, 1, 0, 9, 0, 1, 0})
	_, err := m.RunOnce()
	require.NoError(t, err)
	assert.True(t, m.IsEqual)
	m.Registers[1] = 20
	_, err = m.RunOnce()
	require.NoError(t, err)
	assert.False(t, m.IsEqual)
}

func TestNeqOpcode(t *testing.T) {
	m := newTestVM()
	m.Registers[0] = 10
	m.Registers[1] = 10
	m.AddBytes([]byte{10, 0, 1, 0, 10, 0, 1, 0})
	_, err := m.RunOnce()
	require.NoError(t, err)
	assert.False(t, m.IsEqual)
	m.Registers[1] = 20
	_, err = m.RunOnce()
	require.NoError(t, err)
	assert.True(t, m.IsEqual)
}

func TestGtOpcode(t *testing.T) {
	m := newTestVM()
	m.Registers[0] = 10
	m.Registers[1] = 10
	m.AddBytes([]byte{11, 0, 1, 0, 11, 0, 1, 0})
	_, err := m.RunOnce()
	require.NoError(t, err)
	assert.False(t, m.IsGreater)
	m.Registers[1] = 9
	_, err = m.RunOnce()
	require.NoError(t, err)
	assert.True(t, m.IsGreater)
}

func TestLtOpcode(t *testing.T) {
	m := newTestVM()
	m.Registers[0] = 10
	m.Registers[1] = 10
	m.AddBytes([]byte{12, 0, 1, 0, 12, 0, 1, 0})
	_, err := m.RunOnce()
	require.NoError(t, err)
	assert.False(t, m.IsGreater)
	m.Registers[1] = 20
	_, err = m.RunOnce()
	require.NoError(t, err)
	assert.True(t, m.IsGreater)
}

func TestGtqOpcodeSetsBothFlagsIdentically(t *testing.T) {
	m := newTestVM()
	m.Registers[0] = 10
	m.Registers[1] = 10
	m.AddBytes([]byte{13, 0, 1, 0, 13, 0, 1, 0})
	_, err := m.RunOnce()
	require.NoError(t, err)
	assert.True(t, m.IsGreater)
	assert.True(t, m.IsEqual)
	m.Registers[1] = 20
	_, err = m.RunOnce()
	require.NoError(t, err)
	assert.False(t, m.IsGreater)
	assert.False(t, m.IsEqual)
}

func TestLtqOpcodeSetsBothFlagsIdentically(t *testing.T) {
	m := newTestVM()
	m.Registers[0] = 10
	m.Registers[1] = 10
	m.AddBytes([]byte{14, 0, 1, 0, 14, 0, 1, 0})
	_, err := m.RunOnce()
	require.NoError(t, err)
	assert.True(t, m.IsGreater)
	assert.True(t, m.IsEqual)
	m.Registers[1] = 20
	_, err = m.RunOnce()
	require.NoError(t, err)
	assert.True(t, m.IsGreater)
	assert.True(t, m.IsEqual)
}

func TestJeqOpcode(t *testing.T) {
	m := newTestVM()
	m.Registers[0] = 7
	m.IsEqual = true
	m.AddBytes([]byte{15, 0, 0, 0, 17, 0, 0, 0, 17, 0, 0, 0})
	_, err := m.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), m.PC)
}

func TestJneqOpcode(t *testing.T) {
	m := newTestVM()
	m.Registers[0] = 7
	m.IsEqual = false
	m.AddBytes([]byte{16, 0, 0, 0, 17, 0, 0, 0, 17, 0, 0, 0})
	_, err := m.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), m.PC)
}

func TestIglOpcodeIsFatal(t *testing.T) {
	m := vm.New()
	m.AddBytes([]byte{100, 0, 0, 0})
	state, err := m.RunOnce()
	assert.Equal(t, vm.Illegal, state)
	assert.ErrorIs(t, err, vm.ErrIllegalInstruction)
}

func TestRunOnceIsNoOpPastEndOfProgram(t *testing.T) {
	m := vm.New()
	state, err := m.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, vm.NotContinuing, state)
	assert.Equal(t, uint32(0), m.PC)
}

func TestOutOfRangeRegisterIsFatal(t *testing.T) {
	m := vm.New()
	m.AddBytes([]byte{0, 40, 0, 1}) // SET r40 #1
	err := m.Run()
	assert.ErrorIs(t, err, vm.ErrRegisterOutOfRange)
}

func TestDeterminismAcrossFreshVMs(t *testing.T) {
	program := []byte{
		0, 0, 0, 5, // set $0 #5
		0, 1, 0, 3, // set $1 #3
		1, 0, 1, 2, // add $0 $1 $2
		9, 0, 1, 0, // eq $0 $1
		5, 0, 0, 0, // hlt
	}
	a, b := vm.New(), vm.New()
	a.AddBytes(program)
	b.AddBytes(program)
	require.NoError(t, a.Run())
	require.NoError(t, b.Run())
	assert.Equal(t, a.Registers, b.Registers)
	assert.Equal(t, a.PC, b.PC)
	assert.Equal(t, a.IsEqual, b.IsEqual)
	assert.Equal(t, a.IsGreater, b.IsGreater)
	assert.Equal(t, a.Remainder, b.Remainder)
}
