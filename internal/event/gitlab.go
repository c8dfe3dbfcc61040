package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/drewdunne/slashdispatch/internal/webhook"
)

type gitLabPayload struct {
	ObjectKind       string `json:"object_kind"`
	ObjectAttributes struct {
		ID           int64  `json:"id"`
		Note         string `json:"note"`
		Action       string `json:"action"`
		NoteableType string `json:"noteable_type"`
	} `json:"object_attributes"`
	MergeRequest struct {
		IID int `json:"iid"`
	} `json:"merge_request"`
	Project struct {
		PathWithNamespace string `json:"path_with_namespace"`
	} `json:"project"`
	User struct {
		Username string `json:"username"`
	} `json:"user"`
}

// NormalizeGitLabEvent converts a GitLab note webhook to a normalized Event.
func NormalizeGitLabEvent(glEvent *webhook.GitLabEvent) (*Event, error) {
	var payload gitLabPayload
	if err := json.Unmarshal(glEvent.RawPayload, &payload); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}

	if payload.ObjectKind != "note" {
		return nil, fmt.Errorf("unhandled object_kind: %s", payload.ObjectKind)
	}

	owner, name, err := splitFullName(payload.Project.PathWithNamespace)
	if err != nil {
		return nil, err
	}

	return &Event{
		Provider:      "gitlab",
		RepoOwner:     owner,
		RepoName:      name,
		Number:        payload.MergeRequest.IID,
		IsPullRequest: payload.ObjectAttributes.NoteableType == "MergeRequest",
		Action:        gitLabAction(payload.ObjectAttributes.Action),
		CommentID:     payload.ObjectAttributes.ID,
		CommentBody:   payload.ObjectAttributes.Note,
		CommentAuthor: payload.User.Username,
		DeliveryID:    glEvent.DeliveryID,
		Timestamp:     time.Now(),
		RawPayload:    glEvent.RawPayload,
	}, nil
}

// gitLabAction maps note actions to the GitHub vocabulary. Older GitLab
// versions omit the action on note hooks, which only fire on create there.
func gitLabAction(action string) string {
	switch action {
	case "", "create":
		return ActionCreated
	case "update":
		return ActionEdited
	default:
		return action
	}
}
