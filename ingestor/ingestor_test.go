package ingestor

import (
	"testing"
	"time"
)

func TestParseEvent_MissingMessageField(t *testing.T) {
	evt := map[string]interface{}{}
	var line Line
	err := parseEvent(evt, &line)
	if err == nil || err.Error() != "missing message field" {
		t.Errorf("expected missing message field error, got %v", err)
	}
}

func TestParseEvent_ExtractsLine(t *testing.T) {
	evt := map[string]interface{}{"message": "G1 X1.5 Y-2"}
	var line Line
	if err := parseEvent(evt, &line); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Text != "G1 X1.5 Y-2" {
		t.Errorf("expected line text, got %q", line.Text)
	}
}

func TestParseEvent_StripsTrailingNewline(t *testing.T) {
	evt := map[string]interface{}{"message": "G1 X1\n"}
	var line Line
	if err := parseEvent(evt, &line); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Text != "G1 X1" {
		t.Errorf("expected delimiter stripped, got %q", line.Text)
	}
}

func TestParseEvent_Source(t *testing.T) {
	evt := map[string]interface{}{"message": "M104 S210", "source": "printer-3"}
	var line Line
	if err := parseEvent(evt, &line); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.Source != "printer-3" {
		t.Errorf("expected source printer-3, got %q", line.Source)
	}
}

func TestParseEvent_NonStringMessage(t *testing.T) {
	evt := map[string]interface{}{"message": 42}
	var line Line
	if err := parseEvent(evt, &line); err == nil {
		t.Error("expected non-string message to fail")
	}
}

func TestTCPIngestor_ListenAndClose(t *testing.T) {
	ing, err := NewTCPIngestor("127.0.0.1:0", time.Second)
	if err != nil {
		t.Fatal(err)
	}

	if err := ing.Accept(); err != nil {
		t.Fatal(err)
	}
	if ing.IsClosed() {
		t.Error("expected running ingestor to not report closed")
	}

	lines, err := ing.ReadBatch()
	if err != nil {
		t.Fatalf("ReadBatch on empty queue: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines, got %d", len(lines))
	}

	if err := ing.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestTCPIngestor_BadAddress(t *testing.T) {
	if _, err := NewTCPIngestor("256.0.0.1:99999", time.Second); err == nil {
		t.Error("expected invalid address to fail")
	}
}
