package parser

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"unsafe"

	"github.com/ChristianF88/gcodex/gcode"
)

// Tokenizer states. Semicolon comments, block deletes and program markers
// consume the remainder of the line directly and need no state of their own.
type tokState uint8

const (
	stateIdle tokState = iota
	stateAfterLetter
	stateNumber
	stateString
	stateParenComment
	stateSkipUnknown
)

// tokenizer converts one delimiter-stripped line into words. The word and
// string scratch buffers are reused across lines; line-number state persists
// for the lifetime of the stream.
type tokenizer struct {
	opts    *Options
	words   []gcode.Word
	scratch []byte

	lastLine float64
	haveLast bool
}

func (t *tokenizer) reset() {
	t.words = t.words[:0]
}

// tokenize runs the state machine over one line and reports whether any
// words were produced. Words are appended to t.words, which is reused after
// the next reset; string payloads are copied out of t.scratch.
func (t *tokenizer) tokenize(line []byte) (bool, error) {
	if t.opts.ValidateChecksum {
		payload, err := verifyChecksum(line)
		if err != nil {
			return false, err
		}
		line = payload
	}

	var (
		state  = stateIdle
		letter byte
		start  int
	)

	n := len(line)
	i := 0
	for i < n {
		c := line[i]

		switch state {
		case stateIdle:
			switch {
			case c == ' ' || c == '\t' || c == '\r':
				i++
			case c == ';' || c == '%':
				// Comment or program marker: rest of the line is ignored.
				i = n
			case c == '/' && i == 0:
				// Block delete: the whole line is ignored.
				i = n
			case c == '(':
				state = stateParenComment
				i++
			case c >= '0' && c <= '9':
				return false, fmt.Errorf("%w: digit %q without command letter at offset %d", gcode.ErrUnexpectedCharacter, c, i)
			case isAlpha(c):
				if t.opts.Addresses.Accepts(c) {
					letter = t.opts.Addresses.Normalize(c)
					state = stateAfterLetter
				} else {
					state = stateSkipUnknown
				}
				i++
			default:
				if !t.opts.IgnoreUnknownCharacters {
					return false, fmt.Errorf("%w: %q at offset %d", gcode.ErrUnexpectedCharacter, c, i)
				}
				i++
			}

		case stateAfterLetter:
			if t.opts.SupportQuotedStrings && c == '"' {
				t.scratch = t.scratch[:0]
				state = stateString
				i++
			} else {
				// Re-inspect c as the first value byte.
				start = i
				state = stateNumber
			}

		case stateNumber:
			if isNumberByte(c) {
				i++
			} else {
				if err := t.finishNumber(line, letter, start, i); err != nil {
					return false, err
				}
				// Re-inspect the terminating byte in idle.
				state = stateIdle
			}

		case stateString:
			if c == '"' {
				if i+1 < n && line[i+1] == '"' {
					// Escaped quote: "" collapses to a literal ".
					t.scratch = append(t.scratch, '"')
					i += 2
				} else {
					if err := t.pushString(letter); err != nil {
						return false, err
					}
					state = stateIdle
					i++
				}
			} else {
				t.scratch = append(t.scratch, c)
				i++
			}

		case stateParenComment:
			if c == ')' {
				state = stateIdle
			}
			i++

		case stateSkipUnknown:
			if isNumberByte(c) || isAlpha(c) {
				i++
			} else {
				state = stateIdle
			}
		}
	}

	// End-of-line finalization.
	switch state {
	case stateAfterLetter:
		// Letter with nothing after it: finalize an empty number value.
		if err := t.finishNumber(line, letter, n, n); err != nil {
			return false, err
		}
	case stateNumber:
		if err := t.finishNumber(line, letter, start, n); err != nil {
			return false, err
		}
	case stateParenComment:
		if t.opts.StrictComments {
			return false, gcode.ErrUnclosedComment
		}
	case stateString:
		return false, gcode.ErrUnclosedString
	}

	return len(t.words) > 0, nil
}

// verifyChecksum handles the *NNN trailer: XOR of every byte before the last
// '*' compared against the 1-3 decimal digits after it. Returns the payload
// to tokenize. A trailing '\r' after the digits is tolerated so CRLF input
// keeps verifying.
func verifyChecksum(line []byte) ([]byte, error) {
	star := bytes.LastIndexByte(line, '*')
	if star < 0 {
		return line, nil
	}

	var sum byte
	for _, b := range line[:star] {
		sum ^= b
	}

	digits := line[star+1:]
	if m := len(digits); m > 0 && digits[m-1] == '\r' {
		digits = digits[:m-1]
	}
	if len(digits) == 0 || len(digits) > 3 {
		return nil, fmt.Errorf("%w: expected 1-3 digits after '*', got %d bytes", gcode.ErrInvalidChecksum, len(digits))
	}

	want := 0
	for _, d := range digits {
		if d < '0' || d > '9' {
			return nil, fmt.Errorf("%w: %q is not decimal", gcode.ErrInvalidChecksum, digits)
		}
		want = want*10 + int(d&0x0F)
	}

	if want != int(sum) {
		return nil, fmt.Errorf("%w: line computes to %d, declared %d", gcode.ErrChecksumMismatch, sum, want)
	}
	return line[:star], nil
}

// finishNumber parses line[start:end] as the numeric value for letter and
// appends the word. Scientific notation is rejected; N words are validated
// against the running line-number state when enabled.
func (t *tokenizer) finishNumber(line []byte, letter byte, start, end int) error {
	raw := line[start:end]
	if len(raw) == 0 {
		return fmt.Errorf("%w: letter %q has no value", gcode.ErrEmptyValue, letter)
	}

	// The scan only admits digits, '.', '-' and '+', but guard against
	// exponent bytes before handing off to strconv.
	for _, b := range raw {
		if b == 'e' || b == 'E' {
			return fmt.Errorf("%w: scientific notation %q", gcode.ErrInvalidNumber, raw)
		}
	}

	v, err := strconv.ParseFloat(bytesToString(raw), t.opts.FloatBits)
	if err != nil {
		return fmt.Errorf("%w: %q", gcode.ErrInvalidNumber, raw)
	}

	if (letter == 'N' || letter == 'n') && t.opts.ValidateLineNumbers {
		if v < 0 || v != math.Floor(v) {
			return fmt.Errorf("%w: %q is not a non-negative integer", gcode.ErrInvalidLineNumber, raw)
		}
		if t.haveLast && v <= t.lastLine {
			return fmt.Errorf("%w: %v does not increase on %v", gcode.ErrInvalidLineNumber, v, t.lastLine)
		}
		t.lastLine = v
		t.haveLast = true
	}

	return t.push(gcode.Word{Letter: letter, Kind: gcode.KindNumber, Number: v})
}

// pushString materializes the string scratch as an owned value and appends
// the word.
func (t *tokenizer) pushString(letter byte) error {
	return t.push(gcode.Word{Letter: letter, Kind: gcode.KindString, Str: string(t.scratch)})
}

func (t *tokenizer) push(w gcode.Word) error {
	if max := t.opts.Limits.MaxWordsPerBlock; max > 0 && len(t.words) >= max {
		return fmt.Errorf("%w: more than %d words", gcode.ErrBlockTooLarge, max)
	}
	t.words = append(t.words, w)
	return nil
}

// TokenizeLine runs the state machine over a single delimiter-stripped line
// with fresh stream state and returns owned words. Returns nil words for a
// line that produces none.
func TokenizeLine(line []byte, opts Options) ([]gcode.Word, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	t := tokenizer{opts: &opts}
	produced, err := t.tokenize(line)
	if err != nil {
		return nil, err
	}
	if !produced {
		return nil, nil
	}
	return t.words, nil
}

func isAlpha(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isNumberByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+'
}

// bytesToString converts a byte slice to a string without copying. Safe here
// because strconv.ParseFloat does not retain its argument.
func bytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
