package metrics

import (
	"sync/atomic"
)

// Metrics tracks operational metrics.
type Metrics struct {
	WebhooksReceived   uint64 `json:"webhooks_received"`
	CommentsReceived   uint64 `json:"comments_received"`
	CommentsIgnored    uint64 `json:"comments_ignored"`
	CommandsParsed     uint64 `json:"commands_parsed"`
	ParseFailures      uint64 `json:"parse_failures"`
	PermissionDenials  uint64 `json:"permission_denials"`
	LookupFailures     uint64 `json:"lookup_failures"`
	CommandsDispatched uint64 `json:"commands_dispatched"`
	DispatchFailures   uint64 `json:"dispatch_failures"`
	ErrorsReported     uint64 `json:"errors_reported"`
}

var global = &Metrics{}

// WebhookReceived increments the count of authenticated webhooks received.
func WebhookReceived() { atomic.AddUint64(&global.WebhooksReceived, 1) }

// CommentReceived increments the count of comments handed to the handler.
func CommentReceived() { atomic.AddUint64(&global.CommentsReceived, 1) }

// CommentIgnored increments the count of comments dropped by filtering.
func CommentIgnored() { atomic.AddUint64(&global.CommentsIgnored, 1) }

// CommandParsed increments the count of comments that parsed as a command.
func CommandParsed() { atomic.AddUint64(&global.CommandsParsed, 1) }

// ParseFailure increments the count of comments that failed to parse.
func ParseFailure() { atomic.AddUint64(&global.ParseFailures, 1) }

// PermissionDenied increments the count of commenters lacking permission.
func PermissionDenied() { atomic.AddUint64(&global.PermissionDenials, 1) }

// LookupFailure increments the count of failed pull request lookups.
func LookupFailure() { atomic.AddUint64(&global.LookupFailures, 1) }

// CommandDispatched increments the count of successful dispatches.
func CommandDispatched() { atomic.AddUint64(&global.CommandsDispatched, 1) }

// DispatchFailure increments the count of failed dispatches.
func DispatchFailure() { atomic.AddUint64(&global.DispatchFailures, 1) }

// ErrorReported increments the count of errors written back to comments.
func ErrorReported() { atomic.AddUint64(&global.ErrorsReported, 1) }

// Get returns a snapshot of the current metrics.
func Get() Metrics {
	return Metrics{
		WebhooksReceived:   atomic.LoadUint64(&global.WebhooksReceived),
		CommentsReceived:   atomic.LoadUint64(&global.CommentsReceived),
		CommentsIgnored:    atomic.LoadUint64(&global.CommentsIgnored),
		CommandsParsed:     atomic.LoadUint64(&global.CommandsParsed),
		ParseFailures:      atomic.LoadUint64(&global.ParseFailures),
		PermissionDenials:  atomic.LoadUint64(&global.PermissionDenials),
		LookupFailures:     atomic.LoadUint64(&global.LookupFailures),
		CommandsDispatched: atomic.LoadUint64(&global.CommandsDispatched),
		DispatchFailures:   atomic.LoadUint64(&global.DispatchFailures),
		ErrorsReported:     atomic.LoadUint64(&global.ErrorsReported),
	}
}

// Reset resets all metrics to zero (useful for testing).
func Reset() {
	atomic.StoreUint64(&global.WebhooksReceived, 0)
	atomic.StoreUint64(&global.CommentsReceived, 0)
	atomic.StoreUint64(&global.CommentsIgnored, 0)
	atomic.StoreUint64(&global.CommandsParsed, 0)
	atomic.StoreUint64(&global.ParseFailures, 0)
	atomic.StoreUint64(&global.PermissionDenials, 0)
	atomic.StoreUint64(&global.LookupFailures, 0)
	atomic.StoreUint64(&global.CommandsDispatched, 0)
	atomic.StoreUint64(&global.DispatchFailures, 0)
	atomic.StoreUint64(&global.ErrorsReported, 0)
}
