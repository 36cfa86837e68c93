package apphome

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromDir(t *testing.T) {
	dir := t.TempDir()

	home, err := FromDir(dir)
	if err != nil {
		t.Fatalf("FromDir(%s) failed: %v", dir, err)
	}

	if home.Dir() != dir {
		t.Errorf("Dir() = %s, want %s", home.Dir(), dir)
	}

	want := filepath.Join(dir, "about.txt")
	if got := home.Path("about.txt"); got != want {
		t.Errorf("Path(about.txt) = %s, want %s", got, want)
	}
}

func TestFromDirMissing(t *testing.T) {
	_, err := FromDir(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestFromDirFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain-file")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err := FromDir(file)
	if err == nil {
		t.Error("Expected error when home path is a file")
	}
}

func TestResolveHonorsOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvOverride, dir)

	home, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if home.Dir() != dir {
		t.Errorf("Resolve() = %s, want override %s", home.Dir(), dir)
	}
}

func TestDerivedPaths(t *testing.T) {
	dir := t.TempDir()
	home, err := FromDir(dir)
	if err != nil {
		t.Fatalf("FromDir failed: %v", err)
	}

	if got, want := home.LogPath(), filepath.Join(dir, "logs", "launcher.log"); got != want {
		t.Errorf("LogPath() = %s, want %s", got, want)
	}
	if got, want := home.HistoryPath(), filepath.Join(dir, "logs", "launch-history.json"); got != want {
		t.Errorf("HistoryPath() = %s, want %s", got, want)
	}
}
