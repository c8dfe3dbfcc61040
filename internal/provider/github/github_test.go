package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drewdunne/slashdispatch/internal/config"
	"github.com/drewdunne/slashdispatch/internal/provider"
)

func TestGitHubProvider_GetPullRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/pulls/42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing or incorrect authorization header")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"number": 42,
			"state":  "open",
			"head": map[string]interface{}{
				"ref":  "feature",
				"sha":  "0123456789abcdef0123456789abcdef01234567",
				"repo": map[string]string{"full_name": "forker/repo"},
			},
		})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	pr, err := p.GetPullRequest(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetPullRequest() error = %v", err)
	}

	if pr.Number != 42 {
		t.Errorf("Number = %d, want %d", pr.Number, 42)
	}
	if pr.HeadRepoFullName != "forker/repo" {
		t.Errorf("HeadRepoFullName = %q, want %q", pr.HeadRepoFullName, "forker/repo")
	}
	if pr.HeadRef != "feature" {
		t.Errorf("HeadRef = %q, want %q", pr.HeadRef, "feature")
	}
	if pr.State != "open" {
		t.Errorf("State = %q, want %q", pr.State, "open")
	}
}

func TestGitHubProvider_GetPullRequest_Merged(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"number": 42,
			"state":  "closed",
			"merged": true,
		})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	pr, err := p.GetPullRequest(context.Background(), "owner", "repo", 42)
	if err != nil {
		t.Fatalf("GetPullRequest() error = %v", err)
	}
	if pr.State != "merged" {
		t.Errorf("State = %q, want %q", pr.State, "merged")
	}
}

func TestGitHubProvider_GetPullRequest_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	if _, err := p.GetPullRequest(context.Background(), "owner", "repo", 42); err == nil {
		t.Error("GetPullRequest() expected error for missing pull request")
	}
}

func TestGitHubProvider_Name(t *testing.T) {
	p := New("test-token")
	if p.Name() != "github" {
		t.Errorf("Name() = %q, want %q", p.Name(), "github")
	}
}

func TestGitHubProvider_GetComment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/issues/comments/123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":   123,
			"body": "/benchmark abc",
			"user": map[string]string{"login": "alice"},
		})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	c, err := p.GetComment(context.Background(), "owner", "repo", 42, 123)
	if err != nil {
		t.Fatalf("GetComment() error = %v", err)
	}
	if c.Body != "/benchmark abc" {
		t.Errorf("Body = %q, want %q", c.Body, "/benchmark abc")
	}
	if c.Author != "alice" {
		t.Errorf("Author = %q, want %q", c.Author, "alice")
	}
}

func TestGitHubProvider_EditComment(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/issues/comments/123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPatch {
			t.Errorf("unexpected method: %s", r.Method)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		gotBody = req["body"]
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 123})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	if err := p.EditComment(context.Background(), "owner", "repo", 42, 123, "new body"); err != nil {
		t.Fatalf("EditComment() error = %v", err)
	}
	if gotBody != "new body" {
		t.Errorf("body = %q, want %q", gotBody, "new body")
	}
}

func TestGitHubProvider_AddReaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/issues/comments/123/reactions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		var req map[string]string
		json.Unmarshal(body, &req)
		if req["content"] != "rocket" {
			t.Errorf("content = %q, want %q", req["content"], "rocket")
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": 1, "content": "rocket"})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	if err := p.AddReaction(context.Background(), "owner", "repo", 42, 123, provider.ReactionRocket); err != nil {
		t.Fatalf("AddReaction() error = %v", err)
	}
}

func TestGitHubProvider_GetPermission(t *testing.T) {
	tests := []struct {
		name  string
		level string
		role  string
		want  provider.Permission
	}{
		{"admin", "admin", "", provider.PermissionAdmin},
		{"write", "write", "", provider.PermissionWrite},
		{"read", "read", "", provider.PermissionRead},
		{"none", "none", "", provider.PermissionNone},
		{"unknown level", "weird", "", provider.PermissionNone},
		{"maintainer", "write", "maintain", provider.PermissionMaintain},
		{"triager", "read", "triage", provider.PermissionTriage},
		{"role agrees", "admin", "admin", provider.PermissionAdmin},
		{"custom role", "write", "security-reviewer", provider.PermissionWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/repos/owner/repo/collaborators/alice/permission" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				body := map[string]interface{}{"permission": tt.level}
				if tt.role != "" {
					body["user"] = map[string]string{"login": "alice", "role_name": tt.role}
				}
				json.NewEncoder(w).Encode(body)
			}))
			defer server.Close()

			p := New("test-token", WithBaseURL(server.URL))
			got, err := p.GetPermission(context.Background(), "owner", "repo", "alice")
			if err != nil {
				t.Fatalf("GetPermission() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetPermission() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGitHubProvider_ReadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/contents/.slashdispatch/config.yaml" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("ref") != "main" {
			t.Errorf("ref = %q, want %q", r.URL.Query().Get("ref"), "main")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"type":     "file",
			"encoding": "base64",
			"content":  base64.StdEncoding.EncodeToString([]byte("on_lookup_failure: abort\n")),
		})
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	data, err := p.ReadFile(context.Background(), "owner", "repo", ".slashdispatch/config.yaml", "main")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "on_lookup_failure: abort\n" {
		t.Errorf("ReadFile() = %q", data)
	}
}

func TestGitHubProvider_ReadFile_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	p := New("test-token", WithBaseURL(server.URL))
	_, err := p.ReadFile(context.Background(), "owner", "repo", ".slashdispatch/config.yaml", "")
	if !errors.Is(err, config.ErrConfigNotFound) {
		t.Errorf("ReadFile() error = %v, want ErrConfigNotFound", err)
	}
}
