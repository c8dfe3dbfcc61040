package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGitLabHandler_ValidToken(t *testing.T) {
	secret := "test-secret-token"
	payload := `{"object_kind":"note","object_attributes":{"id":5,"note":"/benchmark"}}`

	var got *GitLabEvent
	handler := NewGitLabHandler(secret, func(ctx context.Context, event *GitLabEvent) error {
		got = event
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook/gitlab", strings.NewReader(payload))
	req.Header.Set("X-Gitlab-Token", secret)
	req.Header.Set("X-Gitlab-Event", "Note Hook")
	req.Header.Set("X-Gitlab-Event-UUID", "b6e3ab8e-7c36-4b4b-9f3f-3b1f1c4b8f00")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if got == nil {
		t.Fatal("handler was not called")
	}
	if got.ObjectKind != "note" {
		t.Errorf("ObjectKind = %q, want %q", got.ObjectKind, "note")
	}
	if got.EventType != "Note Hook" {
		t.Errorf("EventType = %q, want %q", got.EventType, "Note Hook")
	}
	if got.DeliveryID != "b6e3ab8e-7c36-4b4b-9f3f-3b1f1c4b8f00" {
		t.Errorf("DeliveryID = %q", got.DeliveryID)
	}
}

func TestGitLabHandler_InvalidToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"wrong", "wrong-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewGitLabHandler("test-secret-token", func(ctx context.Context, event *GitLabEvent) error {
				t.Error("handler should not be called")
				return nil
			})

			req := httptest.NewRequest(http.MethodPost, "/webhook/gitlab", strings.NewReader(`{"object_kind":"note"}`))
			if tt.token != "" {
				req.Header.Set("X-Gitlab-Token", tt.token)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestGitLabHandler_BadPayload(t *testing.T) {
	handler := NewGitLabHandler("s", func(ctx context.Context, event *GitLabEvent) error {
		t.Error("handler should not be called")
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook/gitlab", strings.NewReader(`{`))
	req.Header.Set("X-Gitlab-Token", "s")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
