package launch

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"sync"
)

// OutputRelay forwards child output verbatim while feeding each
// completed line to a callback. Lines end at \n or at \r, which covers
// both normal prints and the in-place progress updates the app emits
// during inference.
type OutputRelay struct {
	dst    io.Writer
	onLine func(string)

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewOutputRelay wraps dst. onLine may be nil.
func NewOutputRelay(dst io.Writer, onLine func(string)) *OutputRelay {
	return &OutputRelay{dst: dst, onLine: onLine}
}

func (r *OutputRelay) Write(p []byte) (int, error) {
	n, err := r.dst.Write(p)

	if r.onLine != nil && n > 0 {
		r.mu.Lock()
		r.buf.Write(p[:n])
		r.drainLines()
		r.mu.Unlock()
	}

	return n, err
}

// Flush emits any trailing partial line. Called once after the child
// exits so a final unterminated message is not lost.
func (r *OutputRelay) Flush() {
	if r.onLine == nil {
		return
	}
	r.mu.Lock()
	rest := strings.TrimSpace(r.buf.String())
	r.buf.Reset()
	r.mu.Unlock()

	if rest != "" {
		r.onLine(rest)
	}
}

func (r *OutputRelay) drainLines() {
	for {
		data := r.buf.Bytes()
		i := bytes.IndexAny(data, "\r\n")
		if i < 0 {
			return
		}

		line := strings.TrimSpace(string(data[:i]))
		r.buf.Next(i + 1)

		if line != "" {
			r.onLine(line)
		}
	}
}

const (
	localURLMarker  = "Running on local URL:"
	publicURLMarker = "Running on public URL:"
)

// ExtractURL recognizes the server-ready announcement in the app's
// output and returns the URL it names.
func ExtractURL(line string) (string, bool) {
	for _, marker := range []string{localURLMarker, publicURLMarker} {
		if i := strings.Index(line, marker); i >= 0 {
			url := strings.TrimSpace(line[i+len(marker):])
			if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
				return url, true
			}
		}
	}
	return "", false
}

// ExtractProgress parses the percentage from a progress-bar line such
// as "12%|████      | 12/100". Anything without the %| signature is
// rejected.
func ExtractProgress(line string) (float64, bool) {
	i := strings.Index(line, "%|")
	if i <= 0 {
		return 0, false
	}

	start := i
	for start > 0 {
		c := line[start-1]
		if c < '0' || c > '9' {
			break
		}
		start--
	}
	if start == i {
		return 0, false
	}

	pct, err := strconv.ParseFloat(line[start:i], 64)
	if err != nil || pct < 0 || pct > 100 {
		return 0, false
	}
	return pct, true
}
