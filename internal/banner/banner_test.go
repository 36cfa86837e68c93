package banner

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestPrintVerbatim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "about.txt")
	content := "MEMO for Windows\n=================\nTalking-head generation, packaged for Windows.\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write about file: %v", err)
	}

	var buf bytes.Buffer
	if err := Print(&buf, path); err != nil {
		t.Fatalf("Print failed: %v", err)
	}

	if buf.String() != content {
		t.Errorf("Print output = %q, want verbatim %q", buf.String(), content)
	}
}

func TestPrintAppendsNewline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "about.txt")
	if err := os.WriteFile(path, []byte("no trailing newline"), 0644); err != nil {
		t.Fatalf("Failed to write about file: %v", err)
	}

	var buf bytes.Buffer
	if err := Print(&buf, path); err != nil {
		t.Fatalf("Print failed: %v", err)
	}

	if got, want := buf.String(), "no trailing newline\n"; got != want {
		t.Errorf("Print output = %q, want %q", got, want)
	}
}

func TestPrintMissingFile(t *testing.T) {
	var buf bytes.Buffer
	err := Print(&buf, filepath.Join(t.TempDir(), "about.txt"))
	if err == nil {
		t.Fatal("Expected error for missing about file")
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no output on error, got %q", buf.String())
	}
}

func TestPrintEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "about.txt")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("Failed to write about file: %v", err)
	}

	var buf bytes.Buffer
	if err := Print(&buf, path); err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected empty output for empty file, got %q", buf.String())
	}
}
