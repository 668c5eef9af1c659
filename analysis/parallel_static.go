package analysis

import (
	"runtime"
	"sync"
	"time"

	"github.com/ChristianF88/gcodex/output"
	"github.com/ChristianF88/gcodex/parser"
	"github.com/alphadose/haxmap"
)

// ParallelStatic streams every file with its own parser, one worker per
// core (capped at 8, memory bandwidth bound like the single-file path), and
// merges the per-file counters into one combined report. Per-file parse
// errors are recorded, not fatal to the whole run.
func ParallelStatic(paths []string, opts parser.Options) (*output.JSONOutput, *output.LetterHistogram) {
	analysisStart := time.Now()
	jsonOutput := output.NewJSONOutput("parallel-static", analysisStart)

	workerCount := runtime.NumCPU()
	if workerCount > 8 {
		workerCount = 8
	}
	if workerCount > len(paths) {
		workerCount = len(paths)
	}

	// Workers publish into a concurrent map keyed by path; merging happens
	// once after the barrier so the hot loop never contends on shared
	// counters.
	results := haxmap.New[string, *fileStats](uintptr(len(paths) + 1))
	jobs := make(chan string, len(paths))

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results.Set(path, streamFile(path, opts))
			}
		}()
	}

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	merged := &fileStats{}
	for _, path := range paths {
		stats, ok := results.Get(path)
		if !ok {
			continue
		}
		jsonOutput.AddFileResult(stats.fileResult(path))
		merged.lines += stats.lines
		merged.blocks += stats.blocks
		merged.words += stats.words
		merged.bytes += stats.bytes
		for c := 0; c < 256; c++ {
			agg := stats.letters[c]
			if agg.count == 0 {
				continue
			}
			m := &merged.letters[c]
			if agg.numbers > 0 {
				if m.numbers == 0 || agg.min < m.min {
					m.min = agg.min
				}
				if m.numbers == 0 || agg.max > m.max {
					m.max = agg.max
				}
			}
			m.count += agg.count
			m.numbers += agg.numbers
			m.strings += agg.strings
		}
		for l := range stats.histogram {
			for b := range stats.histogram[l] {
				merged.histogram[l][b] += stats.histogram[l][b]
			}
		}
		if stats.err != nil {
			jsonOutput.AddError("parse", path+": "+stats.err.Error(), 1)
		}
	}

	jsonOutput.General.TotalLines = merged.lines
	jsonOutput.General.TotalBlocks = merged.blocks
	jsonOutput.General.TotalWords = merged.words
	jsonOutput.General.TotalBytes = merged.bytes
	jsonOutput.Letters = merged.letterStats()
	jsonOutput.UpdateDuration(analysisStart)
	return jsonOutput, &merged.histogram
}
