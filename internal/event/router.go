package event

import (
	"context"
	"time"

	"github.com/drewdunne/slashdispatch/internal/config"
	"github.com/drewdunne/slashdispatch/internal/metrics"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("package", "event")

// Handler processes a comment event that passed filtering.
type Handler func(ctx context.Context, event *Event) error

// Router filters comment events and passes candidate commands to a handler.
type Router struct {
	handler   Handler
	debouncer *Debouncer
}

// NewRouter creates a new event router.
func NewRouter(serverCfg *config.Config, handler Handler) *Router {
	window := time.Duration(serverCfg.Events.DedupeSeconds) * time.Second
	if window == 0 {
		window = 5 * time.Minute
	}
	return &Router{
		handler:   handler,
		debouncer: NewDebouncer(window, serverCfg.Events.DedupeSize),
	}
}

// Route processes an event through the filtering pipeline. Events that are
// filtered out return nil.
func (r *Router) Route(ctx context.Context, event *Event) error {
	entry := logger.WithField("event", event.Key()).WithField("delivery", event.DeliveryID)

	if reason := r.skipReason(event); reason != "" {
		entry.WithField("reason", reason).Debug("Ignoring comment")
		metrics.CommentIgnored()
		return nil
	}

	if !r.debouncer.ShouldProcess(event) {
		entry.Info("Ignoring redelivered comment")
		metrics.CommentIgnored()
		return nil
	}

	metrics.CommentReceived()
	return r.handler(ctx, event)
}

// Accepts reports whether the event passes the trigger filter. It does not
// consult or update the redelivery window.
func (r *Router) Accepts(event *Event) bool {
	return r.skipReason(event) == ""
}

func (r *Router) skipReason(event *Event) string {
	switch {
	case event.Action != ActionCreated:
		return "action " + event.Action
	case !event.IsPullRequest:
		return "not a pull request"
	case !LooksLikeCommand(event.CommentBody):
		return "not a slash command"
	default:
		return ""
	}
}
