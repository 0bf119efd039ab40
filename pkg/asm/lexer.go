package asm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/keegananderson/rvm32/pkg/isa"
)

// isIdentifier reports whether s is a non-empty run of letters and digits,
// the "alphanumeric identifier" the grammar uses for labels and directives.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// tokenizeLine lexes one line of source into its tokens. A leading run of
// "name:" words is lexed as label declarations; the first word after them
// is either an opcode (a run of letters, mapped through the Opcode Table;
// an unknown mnemonic yields Opcode(IGL), never an error, while a word with
// any non-letter character is rejected) or a directive, and everything after
// that is classified by its leading sigil. A blank line yields no tokens
// and no error.
func tokenizeLine(line string) ([]Token, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}

	tokens := make([]Token, 0, len(fields))
	i := 0
	for ; i < len(fields) && strings.HasSuffix(fields[i], ":"); i++ {
		tok, err := lexWord(fields[i])
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	if i == len(fields) {
		return nil, fmt.Errorf("line has a label declaration but no opcode or directive")
	}

	head := fields[i]
	if strings.HasPrefix(head, ".") {
		name := head[1:]
		if !isIdentifier(name) {
			return nil, fmt.Errorf("malformed directive %q", head)
		}
		tokens = append(tokens, DirectiveToken(name))
	} else {
		for _, r := range head {
			if !unicode.IsLetter(r) {
				return nil, fmt.Errorf("malformed opcode %q", head)
			}
		}
		tokens = append(tokens, OpcodeToken(isa.FromMnemonic(head)))
	}

	for _, word := range fields[i+1:] {
		tok, err := lexWord(word)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// lexWord classifies a single non-opcode word: register, immediate, label
// usage, directive, or label declaration.
func lexWord(word string) (Token, error) {
	switch {
	case strings.HasPrefix(word, "$"):
		digits := word[1:]
		n, err := strconv.ParseUint(digits, 10, 8)
		if digits == "" || err != nil {
			return Token{}, fmt.Errorf("malformed register operand %q", word)
		}
		return RegisterToken(uint8(n)), nil

	case strings.HasPrefix(word, "#"):
		rest := word[1:]
		n, err := strconv.ParseInt(rest, 10, 32)
		if rest == "" || rest == "-" || err != nil {
			return Token{}, fmt.Errorf("malformed immediate operand %q", word)
		}
		return IntegerToken(int32(n)), nil

	case strings.HasPrefix(word, "@"):
		name := word[1:]
		if !isIdentifier(name) {
			return Token{}, fmt.Errorf("malformed label usage %q", word)
		}
		return LabelUsageToken(name), nil

	case strings.HasPrefix(word, "."):
		name := word[1:]
		if !isIdentifier(name) {
			return Token{}, fmt.Errorf("malformed directive %q", word)
		}
		return DirectiveToken(name), nil

	case strings.HasSuffix(word, ":"):
		name := word[:len(word)-1]
		if !isIdentifier(name) {
			return Token{}, fmt.Errorf("malformed label declaration %q", word)
		}
		return LabelToken(name), nil

	default:
		return Token{}, fmt.Errorf("unrecognized token %q", word)
	}
}
