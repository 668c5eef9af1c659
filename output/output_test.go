package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestJSONOutput_RoundTrip(t *testing.T) {
	out := NewJSONOutput("stats", time.Now())
	out.General.File = "program.gcode"
	out.General.TotalBlocks = 3
	out.General.TotalWords = 9
	out.Letters = []LetterStat{{Letter: "G", Count: 3, Numbers: 3}}
	out.AddWarning("empty_file", "no blocks found", 1)
	out.AddError("parse", "line 7: invalid number", 1)

	data, err := out.ToJSON()
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["general"].(map[string]any)["file"] != "program.gcode" {
		t.Error("expected file in general section")
	}

	compact, err := out.ToCompactJSON()
	if err != nil {
		t.Fatal(err)
	}
	if len(compact) >= len(data) {
		t.Error("expected compact JSON to be smaller than pretty JSON")
	}
}

func TestJSONOutput_ConcurrentAppends(t *testing.T) {
	out := NewJSONOutput("check", time.Now())

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				out.AddWarning("w", "warning", 1)
				out.AddError("e", "error", 1)
				out.AddFileResult(FileResult{File: "f.gcode"})
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	if len(out.Warnings) != 800 || len(out.Errors) != 800 || len(out.Files) != 800 {
		t.Errorf("lost appends: %d warnings, %d errors, %d files",
			len(out.Warnings), len(out.Errors), len(out.Files))
	}
}

func TestRenderPlain(t *testing.T) {
	out := NewJSONOutput("stats", time.Now())
	out.General.File = "program.gcode"
	out.General.TotalBlocks = 2
	out.Letters = []LetterStat{
		{Letter: "G", Count: 2, Numbers: 2, Min: 0, Max: 1},
		{Letter: "P", Count: 1, Strings: 1},
	}
	out.Files = []FileResult{
		{File: "ok.gcode", Blocks: 2, Words: 4},
		{File: "bad.gcode", Error: "invalid number", ErrorLine: 3},
	}

	text := out.RenderPlain()
	for _, want := range []string{"program.gcode", "blocks:  2", "G  count=2", "bad.gcode: FAILED at line 3"} {
		if !strings.Contains(text, want) {
			t.Errorf("plain output missing %q:\n%s", want, text)
		}
	}
}

func TestValueBucket(t *testing.T) {
	cases := []struct {
		v    float64
		want int
	}{
		{-0.5, 0}, {0, 1}, {0.5, 2}, {1, 2}, {5, 3}, {10, 3},
		{99, 4}, {500, 5}, {9999, 6}, {1e6, 7},
	}
	for _, tc := range cases {
		if got := ValueBucket(tc.v); got != tc.want {
			t.Errorf("ValueBucket(%v) = %d, want %d", tc.v, got, tc.want)
		}
	}
}

func TestLetterHistogram_Add(t *testing.T) {
	var hist LetterHistogram
	hist.Add('G', 1)
	hist.Add('g', 1)   // folds to G
	hist.Add('?', 1)   // ignored
	hist.Add('X', -10) // negative bucket

	if hist[6][2] != 2 {
		t.Errorf("expected 2 G words in (0,1], got %d", hist[6][2])
	}
	if hist['X'-'A'][0] != 1 {
		t.Errorf("expected 1 negative X word, got %d", hist['X'-'A'][0])
	}
}

func TestPlotHeatmap(t *testing.T) {
	var hist LetterHistogram
	hist.Add('G', 1)
	hist.Add('X', 12.5)
	hist.Add('X', -3)

	path := filepath.Join(t.TempDir(), "heatmap.html")
	if err := PlotHeatmap(&hist, path); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "echarts") {
		t.Error("expected rendered echarts page")
	}
}
