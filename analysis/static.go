package analysis

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ChristianF88/gcodex/gcode"
	"github.com/ChristianF88/gcodex/output"
	"github.com/ChristianF88/gcodex/parser"
)

// letterAgg accumulates per-letter stats while streaming.
type letterAgg struct {
	count   uint64
	numbers uint64
	strings uint64
	min     float64
	max     float64
}

// fileStats is the complete outcome of streaming one file.
type fileStats struct {
	letters   [256]letterAgg
	histogram output.LetterHistogram
	lines     uint64
	blocks    uint64
	words     uint64
	bytes     uint64
	duration  time.Duration
	err       error
	errLine   uint64
}

// streamFile drains one parser over the file at path, aggregating counters.
// A parse error stops the stream but the counters collected so far are kept.
func streamFile(path string, opts parser.Options) *fileStats {
	stats := &fileStats{}
	start := time.Now()

	p, err := parser.NewFile(path, opts)
	if err != nil {
		stats.err = err
		return stats
	}
	defer p.Close()

	for {
		blk, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			stats.err = err
			stats.errLine = p.LineNumber()
			break
		}
		stats.blocks++
		stats.words += uint64(len(blk.Words))
		for _, w := range blk.Words {
			agg := &stats.letters[w.Letter]
			agg.count++
			if w.Kind == gcode.KindString {
				agg.strings++
			} else {
				if agg.numbers == 0 || w.Number < agg.min {
					agg.min = w.Number
				}
				if agg.numbers == 0 || w.Number > agg.max {
					agg.max = w.Number
				}
				agg.numbers++
				stats.histogram.Add(w.Letter, w.Number)
			}
		}
	}

	stats.lines = p.LineNumber()
	stats.bytes = p.BytesRead()
	stats.duration = time.Since(start)
	return stats
}

// letterStats flattens the per-letter aggregates in letter order.
func (s *fileStats) letterStats() []output.LetterStat {
	var out []output.LetterStat
	for c := 0; c < 256; c++ {
		agg := s.letters[c]
		if agg.count == 0 {
			continue
		}
		out = append(out, output.LetterStat{
			Letter:  string(rune(c)),
			Count:   agg.count,
			Numbers: agg.numbers,
			Strings: agg.strings,
			Min:     agg.min,
			Max:     agg.max,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Letter < out[j].Letter })
	return out
}

func (s *fileStats) fileResult(path string) output.FileResult {
	res := output.FileResult{
		File:       path,
		Lines:      s.lines,
		Blocks:     s.blocks,
		Words:      s.words,
		Bytes:      s.bytes,
		DurationMS: s.duration.Milliseconds(),
	}
	if s.err != nil {
		res.Error = s.err.Error()
		res.ErrorLine = s.errLine
	}
	return res
}

// Static streams one file and builds the stats report plus the value
// histogram for plotting. The returned error is the parse failure, if any;
// the report is valid either way and carries the error entry.
func Static(path string, opts parser.Options) (*output.JSONOutput, *output.LetterHistogram, error) {
	analysisStart := time.Now()
	jsonOutput := output.NewJSONOutput("static", analysisStart)

	stats := streamFile(path, opts)

	jsonOutput.General.File = path
	jsonOutput.General.TotalLines = stats.lines
	jsonOutput.General.TotalBlocks = stats.blocks
	jsonOutput.General.TotalWords = stats.words
	jsonOutput.General.TotalBytes = stats.bytes
	jsonOutput.General.Parsing.DurationMS = stats.duration.Milliseconds()
	if secs := stats.duration.Seconds(); secs > 0 {
		jsonOutput.General.Parsing.BlocksPerSecond = int64(float64(stats.blocks) / secs)
	}
	jsonOutput.Letters = stats.letterStats()

	if stats.err != nil {
		jsonOutput.AddError("parse", stats.err.Error(), 1)
	} else if stats.blocks == 0 {
		jsonOutput.AddWarning("empty_file", fmt.Sprintf("no blocks found in %s", path), 1)
	}

	jsonOutput.UpdateDuration(analysisStart)
	return jsonOutput, &stats.histogram, stats.err
}

// CheckFiles validates every file sequentially and reports per-file results.
// Line-number state is per file: each file gets a fresh parser.
func CheckFiles(paths []string, opts parser.Options) (*output.JSONOutput, bool) {
	analysisStart := time.Now()
	jsonOutput := output.NewJSONOutput("check", analysisStart)

	ok := true
	for _, path := range paths {
		stats := streamFile(path, opts)
		jsonOutput.AddFileResult(stats.fileResult(path))
		jsonOutput.General.TotalLines += stats.lines
		jsonOutput.General.TotalBlocks += stats.blocks
		jsonOutput.General.TotalWords += stats.words
		jsonOutput.General.TotalBytes += stats.bytes
		if stats.err != nil {
			ok = false
		}
	}

	jsonOutput.UpdateDuration(analysisStart)
	return jsonOutput, ok
}
