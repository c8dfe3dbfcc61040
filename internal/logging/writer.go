package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DailyWriter appends to one log file per day:
// baseDir/YYYY/MM/slashdispatch-YYYY-MM-DD.log
type DailyWriter struct {
	baseDir string
	now     func() time.Time

	mu   sync.Mutex
	day  string
	file *os.File
}

// NewDailyWriter creates a writer rooted at baseDir. Files are opened lazily.
func NewDailyWriter(baseDir string) *DailyWriter {
	return &DailyWriter{baseDir: baseDir, now: time.Now}
}

// Path returns the file a write at t goes to.
func (w *DailyWriter) Path(t time.Time) string {
	return filepath.Join(
		w.baseDir,
		t.Format("2006"),
		t.Format("01"),
		"slashdispatch-"+t.Format("2006-01-02")+".log",
	)
}

// Write implements io.Writer, switching files when the day changes.
func (w *DailyWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if day := now.Format("2006-01-02"); day != w.day || w.file == nil {
		if err := w.open(now); err != nil {
			return 0, err
		}
		w.day = day
	}

	return w.file.Write(p)
}

func (w *DailyWriter) open(t time.Time) error {
	if w.file != nil {
		w.file.Close()
		w.file = nil
	}

	path := w.Path(t)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	w.file = f
	return nil
}

// Close closes the current file.
func (w *DailyWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
