package event

import (
	"fmt"
	"strings"
	"time"
)

// Actions a comment event can carry, normalized across providers.
const (
	ActionCreated = "created"
	ActionEdited  = "edited"
	ActionDeleted = "deleted"
)

// Event represents a normalized comment event.
type Event struct {
	// Provider is the git provider (github, gitlab).
	Provider string

	// Repository information.
	RepoOwner string
	RepoName  string

	// Number is the pull request number (GitHub) or merge request IID (GitLab).
	Number int

	// IsPullRequest is false for comments on plain issues or commits.
	IsPullRequest bool

	// Action is one of the Action* constants.
	Action string

	// Comment information.
	CommentID     int64
	CommentBody   string
	CommentAuthor string

	// DeliveryID is the provider's webhook delivery identifier, if any.
	DeliveryID string

	// Timestamp of the event.
	Timestamp time.Time

	// RawPayload is the original webhook payload.
	RawPayload []byte
}

// Repository returns owner/name.
func (e *Event) Repository() string {
	return e.RepoOwner + "/" + e.RepoName
}

// Key returns a unique key for the comment (used for de-duplication).
func (e *Event) Key() string {
	return e.Provider + "/" + e.RepoOwner + "/" + e.RepoName + "/" + fmt.Sprint(e.Number) + "/" + fmt.Sprint(e.CommentID)
}

// LooksLikeCommand reports whether the comment body starts with a slash.
func LooksLikeCommand(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), "/")
}

func splitFullName(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository name: %q", fullName)
	}
	return parts[0], parts[1], nil
}
