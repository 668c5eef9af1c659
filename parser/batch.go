package parser

import (
	"io"

	"github.com/ChristianF88/gcodex/gcode"
)

// Result is the owned output of a batch collection. Words is one contiguous
// buffer; every block's word slice is a subrange of it.
type Result struct {
	Blocks []gcode.Block
	Words  []gcode.Word
}

// blockHeader records a block's word subrange while the buffer may still
// reallocate; slices are fixed up once collection finishes.
type blockHeader struct {
	start, n int
	line     uint64
}

// Collect drains the parser into an owned Result. Capacity is pre-allocated
// from the limit hints to reduce reallocation. On a parse error the
// partially-built state is dropped and the error propagates.
func (p *Parser) Collect() (*Result, error) {
	blockHint := 1000
	if max := p.opts.Limits.MaxBlocks; max > 0 && max < uint64(blockHint) {
		blockHint = int(max)
	}
	wordHint := p.opts.Limits.MaxWordsPerBlock
	if wordHint <= 0 {
		wordHint = 8
	}

	headers := make([]blockHeader, 0, blockHint)
	words := make([]gcode.Word, 0, blockHint*wordHint)

	for {
		blk, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		start := len(words)
		words = append(words, blk.Words...)
		headers = append(headers, blockHeader{start: start, n: len(blk.Words), line: blk.LineNumber})
	}

	blocks := make([]gcode.Block, len(headers))
	for i, h := range headers {
		blocks[i] = gcode.Block{
			Words:      words[h.start : h.start+h.n : h.start+h.n],
			LineNumber: h.line,
		}
	}
	return &Result{Blocks: blocks, Words: words}, nil
}

// ParseBytes batch-parses an in-memory G-code program.
func ParseBytes(data []byte, opts Options) (*Result, error) {
	p, err := NewBytes(data, opts)
	if err != nil {
		return nil, err
	}
	return p.Collect()
}

// ParseFile batch-parses the G-code file at path.
func ParseFile(path string, opts Options) (*Result, error) {
	p, err := NewFile(path, opts)
	if err != nil {
		return nil, err
	}
	defer p.Close()
	return p.Collect()
}
