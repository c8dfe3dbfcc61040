package gitlab

import (
	"context"
	"fmt"
	"net/http"

	"github.com/drewdunne/slashdispatch/internal/config"
	"github.com/drewdunne/slashdispatch/internal/provider"
	log "github.com/sirupsen/logrus"
	"github.com/xanzy/go-gitlab"
)

var logger = log.WithField("package", "provider/gitlab")

// GitLabProvider implements provider.Provider for GitLab.
type GitLabProvider struct {
	client *gitlab.Client
	token  string
}

// Ensure GitLabProvider implements provider.Provider.
var _ provider.Provider = (*GitLabProvider)(nil)

// Option configures the GitLab provider.
type Option func(*GitLabProvider)

// WithBaseURL sets a custom base URL (for testing and self-managed GitLab).
func WithBaseURL(baseURL string) Option {
	return func(p *GitLabProvider) {
		p.client, _ = NewClient(p.token, baseURL)
	}
}

// New creates a new GitLab provider.
func New(token string, opts ...Option) *GitLabProvider {
	client, _ := gitlab.NewClient(token)
	p := &GitLabProvider{client: client, token: token}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// NewClient returns a go-gitlab client for baseURL. An empty baseURL
// targets gitlab.com.
func NewClient(token, baseURL string) (*gitlab.Client, error) {
	if baseURL == "" {
		return gitlab.NewClient(token)
	}
	return gitlab.NewClient(token, gitlab.WithBaseURL(baseURL+"/api/v4"))
}

// Client exposes the underlying go-gitlab client.
func (p *GitLabProvider) Client() *gitlab.Client {
	return p.client
}

// Name returns the provider name.
func (p *GitLabProvider) Name() string {
	return "gitlab"
}

// GetPullRequest fetches a merge request by IID. For merge requests from a
// fork the source project is looked up to report its path.
func (p *GitLabProvider) GetPullRequest(ctx context.Context, owner, repo string, number int) (*provider.PullRequest, error) {
	mr, _, err := p.client.MergeRequests.GetMergeRequest(owner+"/"+repo, number, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching merge request: %w", err)
	}

	result := &provider.PullRequest{
		Number:           mr.IID,
		State:            mr.State,
		HeadSHA:          mr.SHA,
		HeadRef:          mr.SourceBranch,
		HeadRepoFullName: owner + "/" + repo,
	}

	if mr.SourceProjectID != 0 && mr.SourceProjectID != mr.ProjectID {
		project, _, err := p.client.Projects.GetProject(mr.SourceProjectID, nil, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("fetching source project: %w", err)
		}
		result.HeadRepoFullName = project.PathWithNamespace
	}

	return result, nil
}

// GetComment fetches a merge request note.
func (p *GitLabProvider) GetComment(ctx context.Context, owner, repo string, number int, commentID int64) (*provider.Comment, error) {
	note, _, err := p.client.Notes.GetMergeRequestNote(owner+"/"+repo, number, int(commentID), gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching note: %w", err)
	}

	c := &provider.Comment{
		ID:     int64(note.ID),
		Body:   note.Body,
		Author: note.Author.Username,
	}
	if note.CreatedAt != nil {
		c.CreatedAt = *note.CreatedAt
	}
	return c, nil
}

// EditComment replaces the body of a merge request note.
func (p *GitLabProvider) EditComment(ctx context.Context, owner, repo string, number int, commentID int64, body string) error {
	_, _, err := p.client.Notes.UpdateMergeRequestNote(owner+"/"+repo, number, int(commentID), &gitlab.UpdateMergeRequestNoteOptions{
		Body: &body,
	}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("editing note: %w", err)
	}
	return nil
}

// AddReaction awards an emoji on a merge request note.
func (p *GitLabProvider) AddReaction(ctx context.Context, owner, repo string, number int, commentID int64, reaction provider.Reaction) error {
	_, _, err := p.client.AwardEmoji.CreateMergeRequestAwardEmojiOnNote(owner+"/"+repo, number, int(commentID), &gitlab.CreateAwardEmojiOptions{
		Name: string(reaction),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("awarding emoji: %w", err)
	}
	return nil
}

// GetPermission maps the user's effective project access level to a
// Permission. Users who are not members have PermissionNone.
func (p *GitLabProvider) GetPermission(ctx context.Context, owner, repo, user string) (provider.Permission, error) {
	users, _, err := p.client.Users.ListUsers(&gitlab.ListUsersOptions{Username: gitlab.Ptr(user)}, gitlab.WithContext(ctx))
	if err != nil {
		return provider.PermissionNone, fmt.Errorf("looking up user: %w", err)
	}
	if len(users) == 0 {
		return provider.PermissionNone, nil
	}

	member, res, err := p.client.ProjectMembers.GetInheritedProjectMember(owner+"/"+repo, users[0].ID, gitlab.WithContext(ctx))
	if res != nil && res.StatusCode == http.StatusNotFound {
		return provider.PermissionNone, nil
	}
	if err != nil {
		return provider.PermissionNone, fmt.Errorf("fetching project member: %w", err)
	}

	return accessLevelPermission(member.AccessLevel), nil
}

func accessLevelPermission(level gitlab.AccessLevelValue) provider.Permission {
	switch {
	case level >= gitlab.OwnerPermissions:
		return provider.PermissionAdmin
	case level >= gitlab.MaintainerPermissions:
		return provider.PermissionMaintain
	case level >= gitlab.DeveloperPermissions:
		return provider.PermissionWrite
	case level >= gitlab.ReporterPermissions:
		return provider.PermissionTriage
	case level >= gitlab.GuestPermissions:
		return provider.PermissionRead
	default:
		return provider.PermissionNone
	}
}

// ReadFile reads a raw file from the repository at ref.
func (p *GitLabProvider) ReadFile(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	opts := &gitlab.GetRawFileOptions{}
	if ref != "" {
		opts.Ref = gitlab.Ptr(ref)
	}

	data, res, err := p.client.RepositoryFiles.GetRawFile(owner+"/"+repo, path, opts, gitlab.WithContext(ctx))
	if res != nil && res.StatusCode == http.StatusNotFound {
		return nil, config.ErrConfigNotFound
	}
	if err != nil {
		logger.WithField("path", path).WithError(err).Debug("Raw file lookup failed")
		return nil, fmt.Errorf("fetching raw file: %w", err)
	}
	return data, nil
}
