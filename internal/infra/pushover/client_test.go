package pushover

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-console/internal/domain"
)

func TestPublishSendsForm(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		got = map[string]string{
			"token":   r.PostFormValue("token"),
			"user":    r.PostFormValue("user"),
			"message": r.PostFormValue("message"),
			"title":   r.PostFormValue("title"),
		}
	}))
	defer server.Close()

	client := NewClientWithURL("app-token", "user-key", server.URL)
	err := client.Publish(context.Background(), domain.Feedback{
		Kind:    domain.FeedbackSuccess,
		Message: "2 OK, 0 failed",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if got["token"] != "app-token" || got["user"] != "user-key" {
		t.Errorf("unexpected credentials %v", got)
	}
	if got["message"] != "2 OK, 0 failed" {
		t.Errorf("unexpected message %q", got["message"])
	}
	if got["title"] != "Home Console [success]" {
		t.Errorf("unexpected title %q", got["title"])
	}
}

func TestPublishSkipsSpokenOutput(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClientWithURL("app-token", "user-key", server.URL)
	if err := client.Publish(context.Background(), domain.Feedback{
		Kind:    domain.FeedbackSpeaking,
		Message: "Lights are on",
	}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if called {
		t.Error("speaking feedback must not trigger a push")
	}
}

func TestPublishWithoutCredentialsIsNoop(t *testing.T) {
	client := NewClient("", "")
	if err := client.Publish(context.Background(), domain.Feedback{Kind: domain.FeedbackError, Message: "x"}); err != nil {
		t.Fatalf("expected silent noop, got %v", err)
	}
}
