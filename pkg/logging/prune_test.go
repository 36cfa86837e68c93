package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPruneBackupsKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "launcher.log")

	stamps := []string{
		"20250101-000000",
		"20250102-000000",
		"20250103-000000",
		"20250104-000000",
	}
	for _, s := range stamps {
		if err := os.WriteFile(path+"."+s, []byte("old"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	// Neighbors that are not rotation backups must survive
	if err := os.WriteFile(path, []byte("current"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path+".tmp", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	removed, err := PruneBackups(path, 2)
	if err != nil {
		t.Fatalf("PruneBackups failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 files removed, got %d", removed)
	}

	for _, s := range stamps[:2] {
		if _, err := os.Stat(path + "." + s); !os.IsNotExist(err) {
			t.Errorf("Expected backup %s to be pruned", s)
		}
	}
	for _, s := range stamps[2:] {
		if _, err := os.Stat(path + "." + s); err != nil {
			t.Errorf("Expected backup %s to survive: %v", s, err)
		}
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected live log to survive: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); err != nil {
		t.Errorf("Expected unrelated file to survive: %v", err)
	}
}

func TestPruneBackupsUnderLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "launcher.log")

	if err := os.WriteFile(path+".20250101-000000", []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	removed, err := PruneBackups(path, 5)
	if err != nil {
		t.Fatalf("PruneBackups failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected no files removed, got %d", removed)
	}
}

func TestIsBackupSuffix(t *testing.T) {
	tests := []struct {
		desc   string
		suffix string
		want   bool
	}{
		{"valid timestamp", "20250824-153000", true},
		{"temp file", "tmp", false},
		{"too short", "20250824", false},
		{"missing separator", "202508241530000", false},
		{"letters in date", "2025082a-153000", false},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := isBackupSuffix(tt.suffix); got != tt.want {
				t.Errorf("isBackupSuffix(%q) = %v, want %v", tt.suffix, got, tt.want)
			}
		})
	}
}
