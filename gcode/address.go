package gcode

import "fmt"

// AddressConfig is the compiled set of accepted command letters. Accept
// testing is a single 256-entry table lookup; the config is immutable after
// construction.
type AddressConfig struct {
	accepted      [256]bool
	caseSensitive bool
}

// NewAddressConfig compiles an address-letter set from the ASCII letters in
// the given string. When caseSensitive is false both cases of every letter
// are accepted and emitted letters are normalized to uppercase.
func NewAddressConfig(letters string, caseSensitive bool) (*AddressConfig, error) {
	if len(letters) == 0 {
		return nil, ErrEmptyLetterSet
	}

	cfg := &AddressConfig{caseSensitive: caseSensitive}
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		if c >= 0x80 || !isASCIIAlpha(c) {
			return nil, fmt.Errorf("%w: 0x%02x", ErrNonASCIILetter, c)
		}
		cfg.accepted[c] = true
		if !caseSensitive {
			cfg.accepted[c^0x20] = true // flip ASCII case bit
		}
	}
	return cfg, nil
}

var full = mustAddressConfig("ABCDEFGHIJKLMNOPQRSTUVWXYZ", false)

// Full returns the default dialect: every letter A-Z, case-insensitive.
func Full() *AddressConfig {
	return full
}

func mustAddressConfig(letters string, caseSensitive bool) *AddressConfig {
	cfg, err := NewAddressConfig(letters, caseSensitive)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Accepts reports whether b is an accepted command letter.
func (c *AddressConfig) Accepts(b byte) bool {
	return c.accepted[b]
}

// CaseSensitive reports whether the config distinguishes letter case.
func (c *AddressConfig) CaseSensitive() bool {
	return c.caseSensitive
}

// Normalize maps an accepted letter to its emitted form: uppercase when the
// config is case-insensitive, unchanged otherwise.
func (c *AddressConfig) Normalize(b byte) byte {
	if !c.caseSensitive && b >= 'a' && b <= 'z' {
		return b &^ 0x20
	}
	return b
}

func isASCIIAlpha(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
