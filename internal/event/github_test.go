package event

import (
	"testing"

	"github.com/drewdunne/slashdispatch/internal/webhook"
)

func TestNormalizeGitHubEvent_PRComment(t *testing.T) {
	raw := []byte(`{
		"action": "created",
		"issue": {
			"number": 42,
			"pull_request": {"url": "https://api.github.com/repos/owner/repo/pulls/42"}
		},
		"comment": {
			"id": 123,
			"body": "/benchmark 0123456789abcdef0123456789abcdef01234567",
			"user": {"login": "commenter"}
		},
		"repository": {"full_name": "owner/repo"}
	}`)

	event, err := NormalizeGitHubEvent(&webhook.GitHubEvent{
		EventType:  "issue_comment",
		DeliveryID: "d-1",
		Action:     "created",
		RawPayload: raw,
	})
	if err != nil {
		t.Fatalf("NormalizeGitHubEvent() error = %v", err)
	}

	if event.Provider != "github" {
		t.Errorf("Provider = %q, want %q", event.Provider, "github")
	}
	if event.RepoOwner != "owner" || event.RepoName != "repo" {
		t.Errorf("Repository() = %q, want %q", event.Repository(), "owner/repo")
	}
	if event.Number != 42 {
		t.Errorf("Number = %d, want %d", event.Number, 42)
	}
	if !event.IsPullRequest {
		t.Error("IsPullRequest = false, want true")
	}
	if event.Action != ActionCreated {
		t.Errorf("Action = %q, want %q", event.Action, ActionCreated)
	}
	if event.CommentID != 123 {
		t.Errorf("CommentID = %d, want %d", event.CommentID, 123)
	}
	if event.CommentAuthor != "commenter" {
		t.Errorf("CommentAuthor = %q, want %q", event.CommentAuthor, "commenter")
	}
	if event.DeliveryID != "d-1" {
		t.Errorf("DeliveryID = %q, want %q", event.DeliveryID, "d-1")
	}
	if event.Key() != "github/owner/repo/42/123" {
		t.Errorf("Key() = %q", event.Key())
	}
}

func TestNormalizeGitHubEvent_IssueComment(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing", `{"action":"created","issue":{"number":7},"comment":{"id":1},"repository":{"full_name":"owner/repo"}}`},
		{"null", `{"action":"created","issue":{"number":7,"pull_request":null},"comment":{"id":1},"repository":{"full_name":"owner/repo"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := NormalizeGitHubEvent(&webhook.GitHubEvent{
				EventType:  "issue_comment",
				RawPayload: []byte(tt.raw),
			})
			if err != nil {
				t.Fatalf("NormalizeGitHubEvent() error = %v", err)
			}
			if event.IsPullRequest {
				t.Error("IsPullRequest = true for a plain issue comment")
			}
		})
	}
}

func TestNormalizeGitHubEvent_Errors(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		raw       string
	}{
		{"unhandled type", "pull_request", `{"action":"opened"}`},
		{"bad json", "issue_comment", `{`},
		{"bad repository", "issue_comment", `{"action":"created","repository":{"full_name":"norepo"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeGitHubEvent(&webhook.GitHubEvent{
				EventType:  tt.eventType,
				RawPayload: []byte(tt.raw),
			})
			if err == nil {
				t.Error("NormalizeGitHubEvent() expected error")
			}
		})
	}
}
