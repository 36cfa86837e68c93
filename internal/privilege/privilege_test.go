package privilege

import (
	"strings"
	"testing"
)

func TestAbortMessage(t *testing.T) {
	msg := AbortMessage()

	if !strings.HasSuffix(msg, "\n") {
		t.Error("Abort message should end with a newline")
	}

	lines := strings.Split(strings.TrimSuffix(msg, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected exactly 2 instruction lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "administrator") {
		t.Errorf("First line should name the missing privilege, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "Run as administrator") {
		t.Errorf("Second line should tell the user how to elevate, got %q", lines[1])
	}
}

func TestCheckIsConclusive(t *testing.T) {
	st := Check()

	if st.Method == "none" {
		t.Errorf("Expected at least one conclusive probe on this platform, got %+v", st)
	}
}

func TestProbesReportNames(t *testing.T) {
	for _, p := range Probes() {
		if p.Name == "" {
			t.Errorf("Probe with empty name: %+v", p)
		}
	}
}
