package parser

import (
	"fmt"

	"github.com/ChristianF88/gcodex/gcode"
)

// Limits bounds the resources one parser instance may consume. A zero value
// means unbounded for that dimension.
type Limits struct {
	// MaxInputSize is the total number of bytes the driver may consume,
	// including line delimiters.
	MaxInputSize uint64
	// MaxBlocks is the total number of blocks the driver may emit.
	MaxBlocks uint64
	// MaxWordsPerBlock caps the words produced by a single line.
	MaxWordsPerBlock int
	// MaxLineLength caps the bytes of a single line (delimiter excluded).
	MaxLineLength int
	// MaxLines is the total number of delimited lines the driver may read.
	MaxLines uint64
}

// DefaultLimits returns the standard resource envelope.
func DefaultLimits() Limits {
	return Limits{
		MaxInputSize:     100 * 1024 * 1024,
		MaxBlocks:        10_000_000,
		MaxWordsPerBlock: 50,
		MaxLineLength:    256 * 1024,
		MaxLines:         5_000_000,
	}
}

// Options configures tokenizer behavior and resource limits. Construct with
// DefaultOptions and override fields; the zero value is not usable (it has
// no address config and a zero float precision).
type Options struct {
	// Addresses is the accepted command-letter set. nil selects gcode.Full().
	Addresses *gcode.AddressConfig
	Limits    Limits

	// StrictComments fails on an unclosed '(' comment at end of line;
	// otherwise the comment is silently treated as closed.
	StrictComments bool
	// SkipEmptyLines is carried for configuration compatibility; lines that
	// produce no words never emit a block either way.
	SkipEmptyLines bool
	// IgnoreUnknownCharacters skips non-structural bytes between words
	// instead of failing.
	IgnoreUnknownCharacters bool
	// SupportQuotedStrings enables "..." values after a command letter,
	// with "" as an escaped literal quote.
	SupportQuotedStrings bool
	// ValidateChecksum verifies a trailing *NNN XOR checksum when present.
	ValidateChecksum bool
	// ValidateLineNumbers requires N words to be strictly increasing
	// non-negative integers across the stream.
	ValidateLineNumbers bool

	// FloatBits selects the numeric parse precision: 32 or 64.
	FloatBits int
}

// DefaultOptions returns the standard configuration: full dialect, default
// limits, all toggles on, 64-bit floats.
func DefaultOptions() Options {
	return Options{
		Addresses:               gcode.Full(),
		Limits:                  DefaultLimits(),
		StrictComments:          true,
		SkipEmptyLines:          true,
		IgnoreUnknownCharacters: true,
		SupportQuotedStrings:    true,
		ValidateChecksum:        true,
		ValidateLineNumbers:     true,
		FloatBits:               64,
	}
}

func (o *Options) validate() error {
	if o.Addresses == nil {
		o.Addresses = gcode.Full()
	}
	if o.FloatBits != 32 && o.FloatBits != 64 {
		return fmt.Errorf("unsupported float precision %d: must be 32 or 64", o.FloatBits)
	}
	return nil
}
