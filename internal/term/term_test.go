package term

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestWaitForKeyWithRedirectedStdin(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	orig := os.Stdin
	os.Stdin = r
	defer func() {
		os.Stdin = orig
		r.Close()
	}()

	go func() {
		fmt.Fprintln(w)
		w.Close()
	}()

	var buf bytes.Buffer
	WaitForKey(&buf, DefaultPrompt)

	if !strings.Contains(buf.String(), "Press any key") {
		t.Errorf("Expected prompt in output, got %q", buf.String())
	}
}

func TestWaitForKeyClosedStdin(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	w.Close()
	orig := os.Stdin
	os.Stdin = r
	defer func() {
		os.Stdin = orig
		r.Close()
	}()

	var buf bytes.Buffer
	// Must return, not block, when no input will ever arrive
	WaitForKey(&buf, "")
}
