package parser

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/ChristianF88/gcodex/gcode"
)

func drain(t *testing.T, p *Parser) []gcode.Block {
	t.Helper()
	var blocks []gcode.Block
	for {
		blk, err := p.Next()
		if err == io.EOF {
			return blocks
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		blocks = append(blocks, blk.Clone())
	}
}

func TestParser_SingleBlock(t *testing.T) {
	p, err := NewBytes([]byte("G1 X1.0 Y-2 Z0\n"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	blk, err := p.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if blk.LineNumber != 1 {
		t.Errorf("expected line 1, got %d", blk.LineNumber)
	}
	if len(blk.Words) != 4 {
		t.Fatalf("expected 4 words, got %d", len(blk.Words))
	}
	wantNumber(t, blk.Words[0], 'G', 1)
	wantNumber(t, blk.Words[1], 'X', 1)
	wantNumber(t, blk.Words[2], 'Y', -2)
	wantNumber(t, blk.Words[3], 'Z', 0)

	if _, err := p.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after last block, got %v", err)
	}
}

func TestParser_MixedDelimiters(t *testing.T) {
	p, err := NewBytes([]byte("G1 X1\r\nG1 X2\nG1 X3\r"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	blocks := drain(t, p)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	for i, blk := range blocks {
		if blk.LineNumber != uint64(i+1) {
			t.Errorf("block %d: expected line %d, got %d", i, i+1, blk.LineNumber)
		}
		if len(blk.Words) != 2 {
			t.Errorf("block %d: expected 2 words, got %d", i, len(blk.Words))
		}
		wantNumber(t, blk.Words[1], 'X', float64(i+1))
	}
}

func TestParser_LineNumbersAcrossStream(t *testing.T) {
	p, err := NewBytes([]byte("N10 G1\nN5 G1\n"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Next(); err != nil {
		t.Fatalf("first block failed: %v", err)
	}

	_, err = p.Next()
	if !errors.Is(err, gcode.ErrInvalidLineNumber) {
		t.Fatalf("expected ErrInvalidLineNumber, got %v", err)
	}

	var perr *gcode.ParseError
	if !errors.As(err, &perr) {
		t.Fatal("expected a *gcode.ParseError")
	}
	if perr.Line != 2 {
		t.Errorf("expected error on line 2, got %d", perr.Line)
	}
	if p.LineNumber() != 2 {
		t.Errorf("expected parser line counter 2 after error, got %d", p.LineNumber())
	}
}

func TestParser_UnclosedCommentAcrossLines(t *testing.T) {
	input := []byte("(unclosed\nG1 X1\n")

	opts := DefaultOptions()
	opts.StrictComments = false
	p, err := NewBytes(input, opts)
	if err != nil {
		t.Fatal(err)
	}
	blocks := drain(t, p)
	if len(blocks) != 1 {
		t.Fatalf("lenient: expected 1 block, got %d", len(blocks))
	}
	if blocks[0].LineNumber != 2 {
		t.Errorf("lenient: expected block on line 2, got %d", blocks[0].LineNumber)
	}

	p, err = NewBytes(input, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Next()
	if !errors.Is(err, gcode.ErrUnclosedComment) {
		t.Errorf("strict: expected ErrUnclosedComment, got %v", err)
	}
}

func TestParser_OnlyNoise(t *testing.T) {
	input := "; comment only\n\n   \n(closed)\n/deleted G1 X1\n%marker\n"
	p, err := NewBytes([]byte(input), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	blocks := drain(t, p)
	if len(blocks) != 0 {
		t.Errorf("expected no blocks from noise-only input, got %d", len(blocks))
	}
	if p.BlocksParsed() != 0 {
		t.Errorf("expected zero blocks parsed, got %d", p.BlocksParsed())
	}
}

func TestParser_EmptyInput(t *testing.T) {
	p, err := NewBytes(nil, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Next(); err != io.EOF {
		t.Errorf("expected io.EOF on empty input, got %v", err)
	}
}

func TestParser_EphemeralWords(t *testing.T) {
	p, err := NewBytes([]byte("G1 X1\nG2 X2\n"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	first, err := p.Next()
	if err != nil {
		t.Fatal(err)
	}
	owned := first.Clone()

	if _, err := p.Next(); err != nil {
		t.Fatal(err)
	}

	// The ephemeral view now holds the second block's words; the clone keeps
	// the first block's.
	wantNumber(t, first.Words[0], 'G', 2)
	wantNumber(t, owned.Words[0], 'G', 1)
}

func TestParser_ErrorIsSticky(t *testing.T) {
	p, err := NewBytes([]byte("G1 X\nG1 X1\n"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	_, first := p.Next()
	if first == nil {
		t.Fatal("expected an error")
	}
	_, second := p.Next()
	if second != first {
		t.Errorf("expected the same terminal error, got %v then %v", first, second)
	}
}

func TestParser_MaxInputSize(t *testing.T) {
	opts := DefaultOptions()
	opts.Limits.MaxInputSize = 6

	p, err := NewBytes([]byte("G1 X1\nG1 X2\n"), opts)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := p.Next(); err != nil {
		t.Fatalf("first block within budget failed: %v", err)
	}
	if p.BytesRead() != 6 {
		t.Errorf("expected 6 bytes read, got %d", p.BytesRead())
	}

	_, err = p.Next()
	if !errors.Is(err, gcode.ErrInputTooLarge) {
		t.Errorf("expected ErrInputTooLarge, got %v", err)
	}
}

func TestParser_InputBudgetCapsLine(t *testing.T) {
	opts := DefaultOptions()
	opts.Limits.MaxInputSize = 3

	p, err := NewBytes([]byte("G1 X1\n"), opts)
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Next()
	if !errors.Is(err, gcode.ErrLineTooLong) {
		t.Errorf("expected ErrLineTooLong when the budget truncates the line, got %v", err)
	}
}

func TestParser_MaxLines(t *testing.T) {
	opts := DefaultOptions()
	opts.Limits.MaxLines = 1

	p, err := NewBytes([]byte("G1 X1\nG1 X2\n"), opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Next(); err != nil {
		t.Fatalf("first line failed: %v", err)
	}
	_, err = p.Next()
	if !errors.Is(err, gcode.ErrTooManyLines) {
		t.Errorf("expected ErrTooManyLines, got %v", err)
	}
}

func TestParser_FinalLineWithoutDelimiterSkipsMaxLines(t *testing.T) {
	opts := DefaultOptions()
	opts.Limits.MaxLines = 1

	// The second line is never delimited, so it does not count.
	p, err := NewBytes([]byte("G1 X1\nG1 X2"), opts)
	if err != nil {
		t.Fatal(err)
	}
	blocks := drain(t, p)
	if len(blocks) != 2 {
		t.Errorf("expected 2 blocks, got %d", len(blocks))
	}
}

func TestParser_MaxBlocks(t *testing.T) {
	opts := DefaultOptions()
	opts.Limits.MaxBlocks = 1

	p, err := NewBytes([]byte("G1 X1\nG1 X2\n"), opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Next(); err != nil {
		t.Fatalf("first block failed: %v", err)
	}
	_, err = p.Next()
	if !errors.Is(err, gcode.ErrTooManyBlocks) {
		t.Errorf("expected ErrTooManyBlocks, got %v", err)
	}
}

func TestParser_MaxLineLengthBoundary(t *testing.T) {
	opts := DefaultOptions()
	opts.Limits.MaxLineLength = 5

	// Exactly at the cap, newline-terminated: fine.
	p, err := NewBytes([]byte("G1 X1\n"), opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Next(); err != nil {
		t.Errorf("line exactly at cap should pass, got %v", err)
	}

	// One byte over the cap.
	p, err = NewBytes([]byte("G1 X12\n"), opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Next(); !errors.Is(err, gcode.ErrLineTooLong) {
		t.Errorf("expected ErrLineTooLong, got %v", err)
	}

	// Exactly at the cap, EOF-terminated: still the last line.
	p, err = NewBytes([]byte("G1 X1"), opts)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Next(); err != nil {
		t.Errorf("EOF line exactly at cap should pass, got %v", err)
	}
}

func TestParser_LongLineSpansReadBuffer(t *testing.T) {
	// A line larger than the bufio buffer must still come out whole.
	var sb strings.Builder
	sb.WriteString("M117 P\"")
	for sb.Len() < readBufferSize+1024 {
		sb.WriteString("abcdefgh")
	}
	sb.WriteString("\"\nG1 X1\n")

	opts := DefaultOptions()
	p, err := NewBytes([]byte(sb.String()), opts)
	if err != nil {
		t.Fatal(err)
	}

	blk, err := p.Next()
	if err != nil {
		t.Fatalf("long line failed: %v", err)
	}
	if len(blk.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(blk.Words))
	}
	if blk.Words[1].Kind != gcode.KindString || len(blk.Words[1].Str) < readBufferSize {
		t.Errorf("expected a string payload spanning the read buffer")
	}

	if blk, err = p.Next(); err != nil || blk.LineNumber != 2 {
		t.Errorf("expected second block on line 2, got %v / %v", blk.LineNumber, err)
	}
}

func TestParser_BytesAccounting(t *testing.T) {
	p, err := NewBytes([]byte("G1 X1\nG2 X2"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	drain(t, p)

	// 5 content bytes + newline for line one, 5 content bytes for the
	// undelimited last line.
	if p.BytesRead() != 11 {
		t.Errorf("expected 11 bytes read, got %d", p.BytesRead())
	}
}

func TestParser_ReaderSource(t *testing.T) {
	p, err := New(strings.NewReader("G1 X1\nG1 X2\n"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	blocks := drain(t, p)
	if len(blocks) != 2 {
		t.Errorf("expected 2 blocks from reader source, got %d", len(blocks))
	}
	// No owned handle: Close is a no-op.
	if err := p.Close(); err != nil {
		t.Errorf("Close on reader source: %v", err)
	}
}

func TestParser_FileSource(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "prog_*.gcode")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmp.WriteString("G1 X1\nG1 X2\nG1 X3\n"); err != nil {
		t.Fatal(err)
	}
	tmp.Close()

	p, err := NewFile(tmp.Name(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	blocks := drain(t, p)
	if len(blocks) != 3 {
		t.Errorf("expected 3 blocks, got %d", len(blocks))
	}
	if err := p.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestParser_FileMissing(t *testing.T) {
	_, err := NewFile("/nonexistent/program.gcode", DefaultOptions())
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParser_WordSumProperty(t *testing.T) {
	input := "G1 X1 Y1\nN10 G0\n; skip\nM117 P\"hi\"\n"
	p, err := NewBytes([]byte(input), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	total := 0
	for _, blk := range drain(t, p) {
		total += len(blk.Words)
	}
	if total != 7 {
		t.Errorf("expected 7 words across the stream, got %d", total)
	}
}

func TestParser_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.FloatBits = 48
	if _, err := NewBytes(nil, opts); err == nil {
		t.Error("expected invalid float precision to fail construction")
	}
}
