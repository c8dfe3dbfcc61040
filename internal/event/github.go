package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/drewdunne/slashdispatch/internal/webhook"
)

// gitHubPayload represents the issue_comment webhook payload structure.
type gitHubPayload struct {
	Action string `json:"action"`
	Issue  struct {
		Number      int             `json:"number"`
		PullRequest json.RawMessage `json:"pull_request"`
	} `json:"issue"`
	Comment struct {
		ID   int64  `json:"id"`
		Body string `json:"body"`
		User struct {
			Login string `json:"login"`
		} `json:"user"`
	} `json:"comment"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// NormalizeGitHubEvent converts a GitHub webhook event to a normalized Event.
func NormalizeGitHubEvent(ghEvent *webhook.GitHubEvent) (*Event, error) {
	if ghEvent.EventType != "issue_comment" {
		return nil, fmt.Errorf("unhandled event type: %s", ghEvent.EventType)
	}

	var payload gitHubPayload
	if err := json.Unmarshal(ghEvent.RawPayload, &payload); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}

	owner, name, err := splitFullName(payload.Repository.FullName)
	if err != nil {
		return nil, err
	}

	return &Event{
		Provider:      "github",
		RepoOwner:     owner,
		RepoName:      name,
		Number:        payload.Issue.Number,
		IsPullRequest: len(payload.Issue.PullRequest) > 0 && string(payload.Issue.PullRequest) != "null",
		Action:        payload.Action,
		CommentID:     payload.Comment.ID,
		CommentBody:   payload.Comment.Body,
		CommentAuthor: payload.Comment.User.Login,
		DeliveryID:    ghEvent.DeliveryID,
		Timestamp:     time.Now(),
		RawPayload:    ghEvent.RawPayload,
	}, nil
}
