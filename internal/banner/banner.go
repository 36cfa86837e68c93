// Package banner prints the informational text shipped next to the
// launcher. The original distribution types an about file to the console
// before starting the app; the contents are written through verbatim so
// the file's own formatting survives.
package banner

import (
	"fmt"
	"io"
	"os"
)

// Print writes the file at path to w exactly as stored. When the file
// does not end with a newline, one is appended so the next line of
// console output starts cleanly.
func Print(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read about file %s: %w", path, err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to print about file %s: %w", path, err)
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		if _, err := io.WriteString(w, "\n"); err != nil {
			return fmt.Errorf("failed to print about file %s: %w", path, err)
		}
	}

	return nil
}
