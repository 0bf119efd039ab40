package asm

import "fmt"

// AsmInstruction is one logical source line: an optional opcode, an
// optional label declaration, an optional directive, and up to three
// argument tokens. Opcode and Directive are mutually exclusive and
// exactly one of them must be present.
type AsmInstruction struct {
	Lineno    int
	Opcode    *Token
	Directive *Token
	Label     *Token
	Arg1      *Token
	Arg2      *Token
	Arg3      *Token
}

// Args returns the present arguments in order, skipping absent slots.
func (ai *AsmInstruction) Args() []*Token {
	var args []*Token
	for _, a := range []*Token{ai.Arg1, ai.Arg2, ai.Arg3} {
		if a != nil {
			args = append(args, a)
		}
	}
	return args
}

// EncodedLength reports how many bytes ToBytes will produce for ai, without
// requiring its arguments to already be resolved (a label usage counts as
// the 2-byte integer it resolves to). An opcode instruction occupies 4
// bytes, or more when its arguments need more than 3 bytes; a
// directive-only instruction occupies none.
// AsmProgram.ResolveLabels uses this to compute label offsets from a
// running byte total rather than assuming a fixed per-instruction size.
func (ai *AsmInstruction) EncodedLength() int {
	if ai.Opcode == nil {
		return 0
	}
	n := 1
	for _, arg := range ai.Args() {
		switch arg.Kind {
		case KindRegister:
			n++
		case KindInteger, KindLabelUsage:
			n += 2
		}
	}
	if n < 4 {
		return 4
	}
	return n
}

// ParseLine tokenizes and structurally assembles one source line into an
// AsmInstruction. It returns (nil, nil) for a blank line. lineno is used
// only for error reporting.
func ParseLine(lineno int, line string) (*AsmInstruction, error) {
	tokens, err := tokenizeLine(line)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lineno, err)
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	ai := &AsmInstruction{Lineno: lineno}
	i := 0
	for ; i < len(tokens) && tokens[i].Kind == KindLabel; i++ {
		if ai.Label != nil {
			return nil, fmt.Errorf("line %d: more than one label declaration", lineno)
		}
		cp := tokens[i]
		ai.Label = &cp
	}
	if i == len(tokens) {
		return nil, fmt.Errorf("line %d: expected an opcode or a directive after the label declaration", lineno)
	}

	head := tokens[i]
	switch head.Kind {
	case KindOpcode:
		h := head
		ai.Opcode = &h
	case KindDirective:
		h := head
		ai.Directive = &h
	default:
		return nil, fmt.Errorf("line %d: expected an opcode or a directive, found a %s", lineno, head.Kind)
	}
	i++

	var args []*Token
	for ; i < len(tokens); i++ {
		t := tokens[i]
		if len(args) == 3 {
			return nil, fmt.Errorf("line %d: more than three arguments", lineno)
		}
		cp := t
		args = append(args, &cp)
	}
	if len(args) > 0 {
		ai.Arg1 = args[0]
	}
	if len(args) > 1 {
		ai.Arg2 = args[1]
	}
	if len(args) > 2 {
		ai.Arg3 = args[2]
	}
	return ai, nil
}

// ToBytes encodes the instruction. A directive-only instruction encodes to
// no bytes at all: directives are parsed but do not affect the program
// image. An opcode instruction encodes to the opcode byte, then each
// argument (one byte for a register, two big-endian bytes for an
// integer), right-padded with zeroes to 4 bytes; arguments needing more
// than 3 bytes yield a longer, unpadded encoding.
//
// Encoding assumes label usages have already been resolved to Integer
// tokens by AsmProgram.ResolveLabels; any other argument kind reaching
// this point is a programmer-logic fault and is reported as an error.
func (ai *AsmInstruction) ToBytes() ([]byte, error) {
	switch {
	case ai.Opcode != nil:
		// fallthrough to encoding below
	case ai.Directive != nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("line %d: instruction has neither an opcode nor a directive", ai.Lineno)
	}

	bytes := make([]byte, 0, 4)
	bytes = append(bytes, ai.Opcode.Opcode.Byte())
	for _, arg := range ai.Args() {
		switch arg.Kind {
		case KindRegister:
			bytes = append(bytes, arg.Register)
		case KindInteger:
			v := uint16(arg.Integer)
			bytes = append(bytes, byte(v>>8), byte(v))
		default:
			return nil, fmt.Errorf("line %d: invalid argument kind %s for encoding", ai.Lineno, arg.Kind)
		}
	}
	// Instructions longer than 4 bytes are structurally permitted (no
	// well-formed mnemonic in this ISA produces one); only pad up to 4.
	for len(bytes) < 4 {
		bytes = append(bytes, 0)
	}
	return bytes, nil
}
