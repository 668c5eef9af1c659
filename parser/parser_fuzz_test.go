package parser

import (
	"io"
	"testing"
)

func FuzzTokenizeLine(f *testing.F) {
	seeds := []string{
		"G1 X1.0 Y-2 Z0",
		"N10 G1 X5",
		`M117 P"hello ""world"""`,
		"G0 X0*63",
		"(comment) G4 P0",
		"/deleted",
		"%marker",
		"",
		"   \t\r",
		"X1.2.3",
		"123",
		"G1 (unclosed",
		`P"unclosed`,
		"g1 x-0.5",
		"X" + string(make([]byte, 4096)),
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}

	f.Fuzz(func(t *testing.T, line []byte) {
		// Must never panic; errors are fine.
		TokenizeLine(line, DefaultOptions())

		opts := DefaultOptions()
		opts.ValidateChecksum = false
		opts.IgnoreUnknownCharacters = false
		opts.SupportQuotedStrings = false
		TokenizeLine(line, opts)
	})
}

func FuzzParser(f *testing.F) {
	seeds := []string{
		"G1 X1\nG1 X2\n",
		"N10 G1\nN20 G1\n",
		"G1 X1\r\nG1 X2\r\n",
		"; only comments\n\n\n",
		"G1 X1",
		"\n\n\n",
		"G0 X0*63\nG0 X0*63\n",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		opts := DefaultOptions()
		opts.Limits.MaxLineLength = 4096
		opts.Limits.MaxInputSize = 1 << 20

		p, err := NewBytes(data, opts)
		if err != nil {
			t.Fatalf("construction must not fail: %v", err)
		}
		for {
			blk, err := p.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				break
			}
			if len(blk.Words) == 0 {
				t.Fatal("parser emitted an empty block")
			}
		}
	})
}
