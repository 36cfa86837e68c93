package logging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PruneBackups deletes rotated backups of the log at path, keeping only
// the newest keep files. Backups are what RotateIfNeeded leaves behind,
// named <path>.<timestamp>; the timestamp format orders lexicographically,
// so name order is age order. Returns how many files were removed.
func PruneBackups(path string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}

	matches, err := filepath.Glob(path + ".*")
	if err != nil {
		return 0, err
	}

	var backups []string
	for _, m := range matches {
		if isBackupSuffix(strings.TrimPrefix(m, path+".")) {
			backups = append(backups, m)
		}
	}

	if len(backups) <= keep {
		return 0, nil
	}

	// All candidates share the path prefix, so sorting the full names
	// sorts the timestamps
	sort.Strings(backups)

	removed := 0
	for _, old := range backups[:len(backups)-keep] {
		if err := os.Remove(old); err != nil {
			return removed, err
		}
		removed++
	}

	return removed, nil
}

// isBackupSuffix matches the timestamp RotateIfNeeded appends, e.g.
// 20250824-153000. Anything else next to the log file is left alone.
func isBackupSuffix(s string) bool {
	const layout = "20060102-150405"
	if len(s) != len(layout) {
		return false
	}
	for i, r := range s {
		if i == 8 {
			if r != '-' {
				return false
			}
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
