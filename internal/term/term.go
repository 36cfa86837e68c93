// Package term implements the pause-for-keypress used on abort paths, so
// a console opened by double-click does not vanish before the user can
// read the error.
package term

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/eiannone/keyboard"
)

// DefaultPrompt matches the wording users know from the console pause.
const DefaultPrompt = "Press any key to continue . . . "

// WaitForKey prints prompt to w and blocks until the user presses a key.
// With a real terminal a single keypress suffices; with redirected stdin
// it degrades to reading one line, and returns immediately when stdin is
// closed.
func WaitForKey(w io.Writer, prompt string) {
	if prompt != "" {
		fmt.Fprint(w, prompt)
	}

	if interactive() {
		if _, _, err := keyboard.GetSingleKey(); err == nil {
			fmt.Fprintln(w)
			return
		}
	}

	reader := bufio.NewReader(os.Stdin)
	_, _ = reader.ReadString('\n')
	fmt.Fprintln(w)
}

// interactive reports whether stdin is attached to a character device.
func interactive() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
