package charset

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// EncodeOptions controls how matrix text is decoded.
type EncodeOptions struct {
	// NAAsMissing reads '-' as missing data instead of inapplicable.
	NAAsMissing bool

	// Logger receives a warning for every skipped token. Nil discards them.
	Logger *log.Logger
}

// Warning describes a malformed token that was skipped.
type Warning struct {
	Offset int    // byte offset of the token in the input
	Token  string // offending text
	Reason string
}

func (w Warning) String() string {
	return fmt.Sprintf("offset %d: %s (%q)", w.Offset, w.Reason, w.Token)
}

// Encode decodes a token stream into state sets, one per cell, in input order.
// Decoding stops at the first ';' or at the end of text. Malformed tokens never
// fail the call: they are dropped and returned as warnings.
func Encode(text string, opts EncodeOptions) ([]StateSet, []Warning) {
	e := encoder{text: text, opts: opts}
	e.run()
	return e.cells, e.warnings
}

type encoder struct {
	text     string
	pos      int
	opts     EncodeOptions
	cells    []StateSet
	warnings []Warning
}

func (e *encoder) run() {
	for e.pos < len(e.text) {
		r, size := utf8.DecodeRuneInString(e.text[e.pos:])
		switch {
		case r == ';':
			return
		case unicode.IsSpace(r):
			e.pos += size
		case r == '?':
			e.cells = append(e.cells, Missing)
			e.pos += size
		case r == '-':
			e.cells = append(e.cells, e.gap())
			e.pos += size
		case r == '{' || r == '(':
			e.polymorphism(r)
		default:
			if s := symbolState(r); s >= 0 {
				e.cells = append(e.cells, State(s))
			} else {
				e.warn(e.pos, e.text[e.pos:e.pos+size], "unknown state symbol")
			}
			e.pos += size
		}
	}
}

func (e *encoder) gap() StateSet {
	if e.opts.NAAsMissing {
		return Missing
	}
	return Inapplicable
}

// polymorphism reads a bracketed state list starting at the opening bracket.
func (e *encoder) polymorphism(open rune) {
	closer := '}'
	if open == '(' {
		closer = ')'
	}
	start := e.pos
	e.pos++

	var set StateSet
	valid := true
	for e.pos < len(e.text) {
		r, size := utf8.DecodeRuneInString(e.text[e.pos:])
		e.pos += size
		switch {
		case r == closer:
			switch {
			case !valid:
				e.warn(start, e.text[start:e.pos], "invalid symbol in polymorphism")
			case set == 0:
				e.warn(start, e.text[start:e.pos], "empty polymorphism")
			default:
				e.cells = append(e.cells, set)
			}
			return
		case r == ';':
			e.pos -= size
			e.warn(start, e.text[start:e.pos], "unterminated polymorphism")
			return
		case r == ',' || unicode.IsSpace(r):
		case r == '-':
			set |= e.gap()
		default:
			if s := symbolState(r); s >= 0 {
				set |= State(s)
			} else {
				valid = false
			}
		}
	}
	e.warn(start, e.text[start:], "unterminated polymorphism")
}

func (e *encoder) warn(offset int, token, reason string) {
	w := Warning{Offset: offset, Token: token, Reason: reason}
	e.warnings = append(e.warnings, w)
	if e.opts.Logger != nil {
		e.opts.Logger.Warn("skipping malformed token", "offset", offset, "token", token, "reason", reason)
	}
}
