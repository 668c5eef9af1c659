package output

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ChristianF88/gcodex/pools"
	"github.com/ChristianF88/gcodex/version"
)

// JSONOutput represents the complete analysis output structure
type JSONOutput struct {
	Metadata  Metadata     `json:"metadata"`
	General   General      `json:"general"`
	Letters   []LetterStat `json:"letters,omitempty"`
	Files     []FileResult `json:"files,omitempty"`
	LiveStats *LiveStats   `json:"live_stats,omitempty"`
	Warnings  []Warning    `json:"warnings"`
	Errors    []Error      `json:"errors"`

	// Mutex for thread-safe warning/error appending
	mu sync.Mutex `json:"-"`
}

// Metadata contains information about the analysis run
type Metadata struct {
	GeneratedAt  time.Time `json:"generated_at"`
	AnalysisType string    `json:"analysis_type"`
	Version      string    `json:"version"`
	DurationMS   int64     `json:"duration_ms"`
}

// General contains overall stream statistics
type General struct {
	File        string  `json:"file,omitempty"`
	TotalLines  uint64  `json:"total_lines"`
	TotalBlocks uint64  `json:"total_blocks"`
	TotalWords  uint64  `json:"total_words"`
	TotalBytes  uint64  `json:"total_bytes"`
	Parsing     Parsing `json:"parsing"`
}

// Parsing contains parsing performance metrics
type Parsing struct {
	DurationMS      int64 `json:"duration_ms"`
	BlocksPerSecond int64 `json:"blocks_per_second"`
}

// LetterStat aggregates all words seen for one address letter
type LetterStat struct {
	Letter  string  `json:"letter"`
	Count   uint64  `json:"count"`
	Numbers uint64  `json:"numbers"`
	Strings uint64  `json:"strings"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
}

// FileResult is the per-file outcome of a check or multi-file run
type FileResult struct {
	File       string `json:"file"`
	Lines      uint64 `json:"lines"`
	Blocks     uint64 `json:"blocks"`
	Words      uint64 `json:"words"`
	Bytes      uint64 `json:"bytes"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
	ErrorLine  uint64 `json:"error_line,omitempty"`
}

// LiveStats contains statistics for live mode
type LiveStats struct {
	WindowSize     int          `json:"window_size"`
	ProcessedBatch int          `json:"processed_batch"`
	LoopDurationMS int64        `json:"loop_duration_ms"`
	Letters        []LetterStat `json:"letters"`
	RejectedLines  uint64       `json:"rejected_lines"`
}

// Warning represents a warning message
type Warning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// Error represents an error message
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// NewJSONOutput creates a new JSONOutput with default metadata
func NewJSONOutput(analysisType string, startTime time.Time) *JSONOutput {
	return &JSONOutput{
		Metadata: Metadata{
			GeneratedAt:  time.Now().UTC(),
			AnalysisType: analysisType,
			Version:      version.Version,
			DurationMS:   time.Since(startTime).Milliseconds(),
		},
		Warnings: []Warning{},
		Errors:   []Error{},
	}
}

// ToJSON converts the output to pretty-printed JSON
func (j *JSONOutput) ToJSON() ([]byte, error) {
	return json.MarshalIndent(j, "", "  ")
}

// ToCompactJSON converts the output to compact JSON
func (j *JSONOutput) ToCompactJSON() ([]byte, error) {
	return json.Marshal(j)
}

// AddWarning adds a warning to the output (thread-safe)
func (j *JSONOutput) AddWarning(warningType, message string, count int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Warnings = append(j.Warnings, Warning{
		Type:    warningType,
		Message: message,
		Count:   count,
	})
}

// AddError adds an error to the output (thread-safe)
func (j *JSONOutput) AddError(errorType, message string, count int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Errors = append(j.Errors, Error{
		Type:    errorType,
		Message: message,
		Count:   count,
	})
}

// AddFileResult appends a per-file outcome (thread-safe)
func (j *JSONOutput) AddFileResult(res FileResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Files = append(j.Files, res)
}

// UpdateDuration updates the duration in metadata
func (j *JSONOutput) UpdateDuration(startTime time.Time) {
	j.Metadata.DurationMS = time.Since(startTime).Milliseconds()
}

// RenderPlain renders the report as human-readable text.
func (j *JSONOutput) RenderPlain() string {
	b := pools.Pools.GetBuilder()
	defer pools.Pools.ReturnBuilder(b)

	fmt.Fprintf(b, "%s report (v%s)\n", j.Metadata.AnalysisType, j.Metadata.Version)
	if j.General.File != "" {
		fmt.Fprintf(b, "file:    %s\n", j.General.File)
	}
	fmt.Fprintf(b, "lines:   %d\n", j.General.TotalLines)
	fmt.Fprintf(b, "blocks:  %d\n", j.General.TotalBlocks)
	fmt.Fprintf(b, "words:   %d\n", j.General.TotalWords)
	fmt.Fprintf(b, "bytes:   %d\n", j.General.TotalBytes)
	if j.General.Parsing.DurationMS > 0 {
		fmt.Fprintf(b, "rate:    %d blocks/s\n", j.General.Parsing.BlocksPerSecond)
	}

	if len(j.Letters) > 0 {
		b.WriteString("\nletters:\n")
		for _, l := range j.Letters {
			fmt.Fprintf(b, "  %s  count=%d numbers=%d strings=%d", l.Letter, l.Count, l.Numbers, l.Strings)
			if l.Numbers > 0 {
				fmt.Fprintf(b, " min=%g max=%g", l.Min, l.Max)
			}
			b.WriteByte('\n')
		}
	}

	for _, f := range j.Files {
		if f.Error != "" {
			fmt.Fprintf(b, "\n%s: FAILED at line %d: %s\n", f.File, f.ErrorLine, f.Error)
		} else {
			fmt.Fprintf(b, "\n%s: ok (%d blocks, %d words)\n", f.File, f.Blocks, f.Words)
		}
	}

	for _, w := range j.Warnings {
		fmt.Fprintf(b, "warning [%s]: %s\n", w.Type, w.Message)
	}
	for _, e := range j.Errors {
		fmt.Fprintf(b, "error [%s]: %s\n", e.Type, e.Message)
	}

	return b.String()
}
