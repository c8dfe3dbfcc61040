package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/drewdunne/slashdispatch/internal/config"
	"github.com/drewdunne/slashdispatch/internal/provider"
	"github.com/google/go-github/v60/github"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var logger = log.WithField("package", "provider/github")

// GitHubProvider implements provider.Provider for GitHub.
type GitHubProvider struct {
	client *github.Client
}

// Ensure GitHubProvider implements provider.Provider.
var _ provider.Provider = (*GitHubProvider)(nil)

// Option configures the GitHub provider.
type Option func(*GitHubProvider)

// WithBaseURL sets a custom base URL (for testing and GitHub Enterprise).
func WithBaseURL(url string) Option {
	return func(p *GitHubProvider) {
		p.client.BaseURL, _ = p.client.BaseURL.Parse(url + "/")
	}
}

// New creates a new GitHub provider authenticated with token.
func New(token string, opts ...Option) *GitHubProvider {
	p := &GitHubProvider{client: NewClient(token)}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// NewClient returns a go-github client that sends token as a bearer token.
func NewClient(token string) *github.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return github.NewClient(oauth2.NewClient(context.Background(), ts))
}

// Client exposes the underlying go-github client.
func (p *GitHubProvider) Client() *github.Client {
	return p.client
}

// Name returns the provider name.
func (p *GitHubProvider) Name() string {
	return "github"
}

// GetPullRequest fetches a pull request by number.
func (p *GitHubProvider) GetPullRequest(ctx context.Context, owner, repo string, number int) (*provider.PullRequest, error) {
	pr, _, err := p.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request: %w", err)
	}

	state := pr.GetState()
	if pr.GetMerged() {
		state = "merged"
	}

	return &provider.PullRequest{
		Number:           pr.GetNumber(),
		State:            state,
		HeadSHA:          pr.GetHead().GetSHA(),
		HeadRef:          pr.GetHead().GetRef(),
		HeadRepoFullName: pr.GetHead().GetRepo().GetFullName(),
	}, nil
}

// GetComment fetches an issue comment. GitHub addresses comments by ID alone,
// so number is unused.
func (p *GitHubProvider) GetComment(ctx context.Context, owner, repo string, number int, commentID int64) (*provider.Comment, error) {
	c, _, err := p.client.Issues.GetComment(ctx, owner, repo, commentID)
	if err != nil {
		return nil, fmt.Errorf("fetching comment: %w", err)
	}

	return &provider.Comment{
		ID:        c.GetID(),
		Body:      c.GetBody(),
		Author:    c.GetUser().GetLogin(),
		CreatedAt: c.GetCreatedAt().Time,
	}, nil
}

// EditComment replaces the body of an issue comment.
func (p *GitHubProvider) EditComment(ctx context.Context, owner, repo string, number int, commentID int64, body string) error {
	_, _, err := p.client.Issues.EditComment(ctx, owner, repo, commentID, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return fmt.Errorf("editing comment: %w", err)
	}
	return nil
}

// AddReaction adds a reaction to an issue comment.
func (p *GitHubProvider) AddReaction(ctx context.Context, owner, repo string, number int, commentID int64, reaction provider.Reaction) error {
	_, _, err := p.client.Reactions.CreateIssueCommentReaction(ctx, owner, repo, commentID, string(reaction))
	if err != nil {
		return fmt.Errorf("adding reaction: %w", err)
	}
	return nil
}

// GetPermission returns the user's permission on the repository. The legacy
// permission field only carries admin, write, read or none, so the role name
// is preferred; it also reports triage and maintain. Custom roles fall back
// to the legacy field.
func (p *GitHubProvider) GetPermission(ctx context.Context, owner, repo, user string) (provider.Permission, error) {
	level, _, err := p.client.Repositories.GetPermissionLevel(ctx, owner, repo, user)
	if err != nil {
		return provider.PermissionNone, fmt.Errorf("fetching permission level: %w", err)
	}

	if role := level.GetUser().GetRoleName(); role != "" {
		if perm, err := provider.ParsePermission(role); err == nil {
			return perm, nil
		}
	}

	perm, err := provider.ParsePermission(level.GetPermission())
	if err != nil {
		logger.WithField("user", user).WithField("permission", level.GetPermission()).Warn("Unrecognized permission level")
		return provider.PermissionNone, nil
	}
	return perm, nil
}

// ReadFile reads a file from the repository at ref.
func (p *GitHubProvider) ReadFile(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}

	file, _, res, err := p.client.Repositories.GetContents(ctx, owner, repo, path, opts)
	if res != nil && res.StatusCode == http.StatusNotFound {
		return nil, config.ErrConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching contents: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decoding contents: %w", err)
	}
	return []byte(content), nil
}
