package logging

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Options configures the process-wide logrus logger.
type Options struct {
	Level  string // panic, fatal, error, warn, info, debug, trace
	Format string // text or json
	Dir    string // optional directory for daily log files
}

// Setup configures the standard logrus logger. When opts.Dir is set, output
// goes to stderr and a DailyWriter; the returned closer closes the file.
func Setup(opts Options) (io.Closer, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		var err error
		level, err = log.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
	}
	log.SetLevel(level)

	switch opts.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	if opts.Dir == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	w := NewDailyWriter(opts.Dir)
	log.SetOutput(io.MultiWriter(os.Stderr, w))
	return w, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
