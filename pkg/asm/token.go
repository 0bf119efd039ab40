// Package asm implements the assembler front-end: a tokenizer, an
// instruction/program parser, and an encoder that turns assembly source
// into the bytecode the vm package executes.
package asm

import "github.com/keegananderson/rvm32/pkg/isa"

// Kind tags which variant a Token holds.
type Kind int

const (
	KindOpcode Kind = iota
	KindRegister
	KindInteger
	KindLabel
	KindLabelUsage
	KindDirective
)

func (k Kind) String() string {
	switch k {
	case KindOpcode:
		return "opcode"
	case KindRegister:
		return "register"
	case KindInteger:
		return "integer"
	case KindLabel:
		return "label"
	case KindLabelUsage:
		return "label-usage"
	case KindDirective:
		return "directive"
	default:
		return "unknown"
	}
}

// Token is a value object produced by the tokenizer. Each Token owns its
// payload; only the fields relevant to Kind are meaningful.
type Token struct {
	Kind     Kind
	Opcode   isa.Opcode
	Register uint8
	Integer  int32
	Name     string
}

// OpcodeToken builds a Token carrying a resolved opcode.
func OpcodeToken(op isa.Opcode) Token {
	return Token{Kind: KindOpcode, Opcode: op}
}

// RegisterToken builds a Token carrying a register index.
func RegisterToken(num uint8) Token {
	return Token{Kind: KindRegister, Register: num}
}

// IntegerToken builds a Token carrying a signed 32-bit immediate.
func IntegerToken(num int32) Token {
	return Token{Kind: KindInteger, Integer: num}
}

// LabelToken builds a Token for a label declaration ("name:").
func LabelToken(name string) Token {
	return Token{Kind: KindLabel, Name: name}
}

// LabelUsageToken builds a Token for a label usage ("@name").
func LabelUsageToken(name string) Token {
	return Token{Kind: KindLabelUsage, Name: name}
}

// DirectiveToken builds a Token for a directive (".name").
func DirectiveToken(name string) Token {
	return Token{Kind: KindDirective, Name: name}
}
