package testutil

import (
	"os"
	"strings"
	"testing"
)

// GenerateTestGCodeFile creates a temporary G-code file with numLines of
// fictional but well-formed program lines; a numLines below 1000 is raised
// to 1000. Returns the file path and a cleanup function.
func GenerateTestGCodeFile(t testing.TB, numLines int) (string, func()) {
	t.Helper()

	if numLines < 1000 {
		numLines = 1000
	}

	tmpFile, err := os.CreateTemp("", "test_program_*.gcode")
	if err != nil {
		t.Fatalf("Failed to create temp gcode file: %v", err)
	}

	// Sample lines covering the common word shapes: motion, arcs, comments,
	// block deletes, tool changes and quoted strings.
	sampleLines := []string{
		`G1 X12.5 Y-3.75 Z0.2 F1500`,
		`G0 X0 Y0 Z5`,
		`G1 X25.0 Y25.0 E4.25 ; perimeter`,
		`M104 S210 T0`,
		`G2 X10 Y10 I5 J0 F900`,
		`(rapid to start) G0 X-50.5 Y80`,
		`M117 P"layer done"`,
		`/G1 X999 Y999`,
		`G28 W1`,
		`G92 E0`,
	}

	var content strings.Builder
	for i := 0; i < numLines; i++ {
		content.WriteString(sampleLines[i%len(sampleLines)])
		content.WriteString("\n")
	}

	if _, err := tmpFile.WriteString(content.String()); err != nil {
		t.Fatalf("Failed to write to temp gcode file: %v", err)
	}

	tmpFile.Close()

	cleanup := func() {
		os.Remove(tmpFile.Name())
	}

	return tmpFile.Name(), cleanup
}

// TempFilePath returns a cross-platform temporary file path with the given
// pattern. Does not create the file.
func TempFilePath(t *testing.T, pattern string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	path := tmpFile.Name()
	tmpFile.Close()
	os.Remove(path)

	return path
}
