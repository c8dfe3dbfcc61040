package logging

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("package", "logging")

// CleanupScheduler runs a Cleaner on a fixed interval.
type CleanupScheduler struct {
	cleaner  *Cleaner
	ticker   *time.Ticker
	stop     chan struct{}
	stopOnce sync.Once
}

func NewCleanupScheduler(cleaner *Cleaner, interval time.Duration) *CleanupScheduler {
	return &CleanupScheduler{
		cleaner: cleaner,
		ticker:  time.NewTicker(interval),
		stop:    make(chan struct{}),
	}
}

// Start runs one cleanup immediately and then one per tick.
func (s *CleanupScheduler) Start() {
	go func() {
		s.runCleanup()
		for {
			select {
			case <-s.ticker.C:
				s.runCleanup()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *CleanupScheduler) runCleanup() {
	deleted, err := s.cleaner.Cleanup()
	if err != nil {
		logger.WithError(err).Warn("Log cleanup failed")
	} else if deleted > 0 {
		logger.WithField("deleted", deleted).Info("Cleaned up old log files")
	}
}

func (s *CleanupScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.ticker.Stop()
		close(s.stop)
	})
}
