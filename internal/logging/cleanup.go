package logging

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Cleaner removes log files older than a retention period.
type Cleaner struct {
	baseDir       string
	retentionDays int
}

// NewCleaner creates a new Cleaner with the specified base directory and retention period.
func NewCleaner(baseDir string, retentionDays int) *Cleaner {
	return &Cleaner{baseDir: baseDir, retentionDays: retentionDays}
}

// Cleanup removes .log files last written before the retention period, then
// prunes the month and year directories left empty.
// Returns the number of files deleted.
func (c *Cleaner) Cleanup() (int, error) {
	if c.retentionDays <= 0 {
		return 0, nil
	}

	threshold := time.Now().AddDate(0, 0, -c.retentionDays)
	var deleted int

	err := filepath.WalkDir(c.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".log") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().Before(threshold) {
			if err := os.Remove(path); err == nil {
				deleted++
			}
		}
		return nil
	})

	c.cleanEmptyDirs()

	return deleted, err
}

// cleanEmptyDirs removes empty directories below the base directory, deepest
// first, so a month directory going empty can empty its year.
func (c *Cleaner) cleanEmptyDirs() {
	var dirs []string
	filepath.WalkDir(c.baseDir, func(path string, d os.DirEntry, err error) error {
		if err == nil && d.IsDir() && path != c.baseDir {
			dirs = append(dirs, path)
		}
		return nil
	})

	// WalkDir visits parents before children.
	for i := len(dirs) - 1; i >= 0; i-- {
		if entries, err := os.ReadDir(dirs[i]); err == nil && len(entries) == 0 {
			os.Remove(dirs[i])
		}
	}
}
