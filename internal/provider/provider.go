package provider

import "context"

// Provider defines the interface for git provider operations.
type Provider interface {
	// Name returns the provider name (github, gitlab).
	Name() string

	// GetPullRequest fetches a pull request (merge request) by number.
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error)

	// GetComment fetches a comment on a pull request.
	GetComment(ctx context.Context, owner, repo string, number int, commentID int64) (*Comment, error)

	// EditComment replaces the body of an existing comment.
	EditComment(ctx context.Context, owner, repo string, number int, commentID int64, body string) error

	// AddReaction reacts to a comment.
	AddReaction(ctx context.Context, owner, repo string, number int, commentID int64, reaction Reaction) error

	// GetPermission returns the user's effective permission on the repository.
	GetPermission(ctx context.Context, owner, repo, user string) (Permission, error)

	// ReadFile reads a file from the repository at ref. An empty ref means
	// the default branch. Missing files return config.ErrConfigNotFound.
	ReadFile(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
}
