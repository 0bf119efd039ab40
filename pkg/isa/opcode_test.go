package isa_test

import (
	"strings"
	"testing"

	"github.com/keegananderson/rvm32/pkg/isa"
	"github.com/stretchr/testify/assert"
)

var canonical = []struct {
	mnemonic string
	op       isa.Opcode
	code     byte
}{
	{"set", isa.SET, 0},
	{"add", isa.ADD, 1},
	{"sub", isa.SUB, 2},
	{"mul", isa.MUL, 3},
	{"div", isa.DIV, 4},
	{"hlt", isa.HLT, 5},
	{"jmp", isa.JMP, 6},
	{"jmpf", isa.JMPF, 7},
	{"jmpb", isa.JMPB, 8},
	{"eq", isa.EQ, 9},
	{"neq", isa.NEQ, 10},
	{"gt", isa.GT, 11},
	{"lt", isa.LT, 12},
	{"gtq", isa.GTQ, 13},
	{"ltq", isa.LTQ, 14},
	{"jeq", isa.JEQ, 15},
	{"jneq", isa.JNEQ, 16},
}

func TestByteAssignmentIsStable(t *testing.T) {
	for _, c := range canonical {
		assert.Equal(t, c.code, c.op.Byte(), "mnemonic %s", c.mnemonic)
	}
	assert.Equal(t, byte(100), isa.IGL.Byte())
}

func TestOpcodeBijection(t *testing.T) {
	for _, c := range canonical {
		assert.Equal(t, c.op, isa.FromByte(c.op.Byte()))
	}
	assert.Equal(t, isa.IGL, isa.FromByte(100))
	assert.Equal(t, isa.IGL, isa.FromByte(255))
}

func TestMnemonicLookupIsCaseInsensitive(t *testing.T) {
	for _, c := range canonical {
		assert.Equal(t, c.op, isa.FromMnemonic(c.mnemonic))
		assert.Equal(t, c.op, isa.FromMnemonic(strings.ToUpper(c.mnemonic)))
	}
}

func TestUnknownMnemonicIsIllegal(t *testing.T) {
	assert.Equal(t, isa.IGL, isa.FromMnemonic("nope"))
	assert.Equal(t, isa.IGL, isa.FromMnemonic(""))
}
