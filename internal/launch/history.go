package launch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Outcome classifies how a launch ended.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeError       Outcome = "error"
	OutcomeSpawnFailed Outcome = "spawn-failed"
	OutcomeAborted     Outcome = "aborted"
)

// Record is one launch in the history file.
type Record struct {
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	Environment     string    `json:"environment"`
	EntryPoint      string    `json:"entry_point"`
	Interpreter     string    `json:"interpreter,omitempty"`
	PID             int       `json:"pid,omitempty"`
	ExitCode        int       `json:"exit_code"`
	Outcome         Outcome   `json:"outcome"`
	URL             string    `json:"url,omitempty"`
	Restarts        int       `json:"restarts,omitempty"`
}

// History persists launch records as a JSON file, newest last, pruned
// to a fixed cap. Writes are atomic so a crash never corrupts it.
type History struct {
	path string
	max  int
	mu   sync.Mutex
}

const defaultHistoryCap = 50

type historyFile struct {
	Version string   `json:"version"`
	Records []Record `json:"records"`
}

// NewHistory manages the history file at path.
func NewHistory(path string) *History {
	return &History{path: path, max: defaultHistoryCap}
}

// Load returns all records, oldest first. A missing file means an
// empty history.
func (h *History) Load() ([]Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load()
}

func (h *History) load() ([]Record, error) {
	data, err := os.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var hf historyFile
	if err := json.Unmarshal(data, &hf); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}
	return hf.Records, nil
}

// Append adds a record and saves, dropping the oldest entries beyond
// the cap.
func (h *History) Append(rec Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	records, err := h.load()
	if err != nil {
		// A corrupt history should not block launches; start over
		records = nil
	}

	records = append(records, rec)
	if len(records) > h.max {
		records = records[len(records)-h.max:]
	}

	return h.save(records)
}

func (h *History) save(records []Record) error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(historyFile{Version: "1", Records: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tempPath := h.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp history file: %w", err)
	}

	if err := os.Rename(tempPath, h.path); err != nil {
		return fmt.Errorf("failed to rename temp history file: %w", err)
	}

	return nil
}
