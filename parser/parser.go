package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ChristianF88/gcodex/gcode"
)

// readBufferSize is the bufio buffer wrapped around every source. Large
// enough to amortize per-byte overhead on typical G-code line lengths.
const readBufferSize = 64 * 1024

// Parser is a streaming cursor over one byte source. It yields blocks in
// source order with O(max line length) steady-state memory: the line, string
// and word buffers are cleared but not freed between iterations.
//
// A Parser is not safe for concurrent use. Once Next returns an error the
// stream is terminal and the parser should be discarded; independent
// parsers over independent sources are fully independent.
type Parser struct {
	opts   Options
	r      *bufio.Reader
	closer io.Closer

	tok     tokenizer
	lineBuf []byte

	bytesRead    uint64
	lineNumber   uint64
	blocksParsed uint64
	err          error
}

// New creates a parser over an externally-owned reader. The reader is not
// closed at teardown.
func New(r io.Reader, opts Options) (*Parser, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	p := &Parser{
		opts: opts,
		r:    bufio.NewReaderSize(r, readBufferSize),
	}
	p.tok.opts = &p.opts
	return p, nil
}

// NewFile creates a parser that owns the file at path; Close releases the
// handle.
func NewFile(path string, opts Options) (*Parser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	p, err := New(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.closer = f
	return p, nil
}

// NewBytes creates a parser over an in-memory byte slice. The slice must not
// be mutated while the parser is in use.
func NewBytes(data []byte, opts Options) (*Parser, error) {
	return New(bytes.NewReader(data), opts)
}

// Next yields the next non-empty block, io.EOF when the source is exhausted,
// or a terminal parse error. The returned block's Words slice is valid only
// until the following Next call; use Block.Clone to retain it.
func (p *Parser) Next() (gcode.Block, error) {
	if p.err != nil {
		return gcode.Block{}, p.err
	}

	for {
		if max := p.opts.Limits.MaxInputSize; max > 0 && p.bytesRead >= max {
			return p.fail(fmt.Errorf("%w: %d bytes consumed, limit is %d", gcode.ErrInputTooLarge, p.bytesRead, max))
		}

		delim, eof, err := p.readLine()
		if err != nil {
			return p.fail(err)
		}
		if eof && len(p.lineBuf) == 0 {
			p.err = io.EOF
			return gcode.Block{}, io.EOF
		}

		p.bytesRead += uint64(len(p.lineBuf))
		if delim {
			p.bytesRead++
		}
		p.lineNumber++
		if delim {
			if max := p.opts.Limits.MaxLines; max > 0 && p.lineNumber > max {
				return p.fail(fmt.Errorf("%w: limit is %d", gcode.ErrTooManyLines, max))
			}
		}

		p.tok.reset()
		produced, err := p.tok.tokenize(p.lineBuf)
		if err != nil {
			return p.fail(&gcode.ParseError{Line: p.lineNumber, Err: err})
		}
		if !produced {
			continue
		}

		p.blocksParsed++
		if max := p.opts.Limits.MaxBlocks; max > 0 && p.blocksParsed > max {
			return p.fail(fmt.Errorf("%w: limit is %d", gcode.ErrTooManyBlocks, max))
		}
		return gcode.Block{Words: p.tok.words, LineNumber: p.lineNumber}, nil
	}
}

// readLine fills p.lineBuf with the next line, delimiter stripped. delim
// reports whether a '\n' was consumed; eof reports end of source. The line
// cap is the smaller of the remaining input budget and MaxLineLength;
// overrunning it before a newline fails with ErrLineTooLong.
func (p *Parser) readLine() (delim, eof bool, err error) {
	p.lineBuf = p.lineBuf[:0]
	limit := p.lineLimit()

	for {
		frag, rerr := p.r.ReadSlice('\n')
		if len(frag) > 0 && frag[len(frag)-1] == '\n' {
			p.lineBuf = append(p.lineBuf, frag[:len(frag)-1]...)
			if limit >= 0 && len(p.lineBuf) > limit {
				return false, false, fmt.Errorf("%w: %d bytes, cap is %d", gcode.ErrLineTooLong, len(p.lineBuf), limit)
			}
			return true, false, nil
		}

		p.lineBuf = append(p.lineBuf, frag...)
		if limit >= 0 && len(p.lineBuf) > limit {
			return false, false, fmt.Errorf("%w: %d bytes without delimiter, cap is %d", gcode.ErrLineTooLong, len(p.lineBuf), limit)
		}

		switch rerr {
		case bufio.ErrBufferFull:
			// Line spans the read buffer; keep accumulating.
		case io.EOF:
			return false, true, nil
		case nil:
			// ReadSlice without delimiter or error does not happen; loop.
		default:
			return false, false, fmt.Errorf("read failed: %w", rerr)
		}
	}
}

// lineLimit returns the per-line byte cap, or -1 when unbounded.
func (p *Parser) lineLimit() int {
	limit := -1
	if p.opts.Limits.MaxLineLength > 0 {
		limit = p.opts.Limits.MaxLineLength
	}
	if max := p.opts.Limits.MaxInputSize; max > 0 {
		remaining := max - p.bytesRead
		if limit < 0 || remaining < uint64(limit) {
			limit = int(remaining)
		}
	}
	return limit
}

func (p *Parser) fail(err error) (gcode.Block, error) {
	p.err = err
	return gcode.Block{}, err
}

// Close releases the file handle when the parser owns one. Parsers over
// external readers or byte slices close nothing.
func (p *Parser) Close() error {
	if p.closer != nil {
		c := p.closer
		p.closer = nil
		return c.Close()
	}
	return nil
}

// BytesRead returns the total bytes consumed from the source, delimiters
// included.
func (p *Parser) BytesRead() uint64 { return p.bytesRead }

// LineNumber returns the 1-based number of the most recently acquired line.
// Readable after an error for diagnostics.
func (p *Parser) LineNumber() uint64 { return p.lineNumber }

// BlocksParsed returns the number of blocks emitted so far.
func (p *Parser) BlocksParsed() uint64 { return p.blocksParsed }

// Err returns the terminal error, io.EOF after clean exhaustion, or nil
// while the stream is still live.
func (p *Parser) Err() error { return p.err }
