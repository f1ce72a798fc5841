package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexai/koma/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, 2*time.Second, zerolog.Nop()), server
}

func TestAuthClient_Login(t *testing.T) {
	var gotRequestID string
	var gotBody loginRequest

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotRequestID = r.Header.Get("X-Request-ID")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(AuthResult{
			Token: "tok-1",
			User:  &model.User{ID: "u-1", Email: "alice@example.com", Username: "alice"},
		})
	}))

	auth := NewAuthClient(client)
	result, err := auth.Login(context.Background(), "alice@example.com", "Secret1!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Token != "tok-1" {
		t.Errorf("token = %q, want %q", result.Token, "tok-1")
	}
	if result.User == nil || result.User.Username != "alice" {
		t.Errorf("user = %+v, want alice", result.User)
	}
	if gotRequestID == "" {
		t.Error("X-Request-ID header not set")
	}
	if gotBody.Identifier != "alice@example.com" || gotBody.Password != "Secret1!" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestAuthClient_Login_Rejected(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid username or password"}}`))
	}))

	auth := NewAuthClient(client)
	_, err := auth.Login(context.Background(), "alice", "wrong")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *Error", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.Status)
	}
	if apiErr.Code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", apiErr.Code)
	}
	if apiErr.Message != "Invalid username or password" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // refuse connections

	client := NewClient(server.URL, time.Second, zerolog.Nop())
	auth := NewAuthClient(client)

	_, err := auth.CurrentUser(context.Background(), "tok")
	if !errors.Is(err, model.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestContentClient_Feeds(t *testing.T) {
	artifacts := []model.Artifact{
		{ID: "art-2", ImageURL: "https://img/2", Prompt: "two", LikeCount: 7},
		{ID: "art-1", ImageURL: "https://img/1", Prompt: "one", LikeCount: 3, Liked: true},
	}

	var gotPath, gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(feedResponse{Artifacts: artifacts})
	}))
	content := NewContentClient(client)

	got, err := content.LibraryFeed(context.Background(), "tok-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/comics/library" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer tok-9" {
		t.Errorf("authorization = %q", gotAuth)
	}

	// Order is preserved exactly as returned.
	if len(got) != 2 || got[0].ID != "art-2" || got[1].ID != "art-1" {
		t.Errorf("artifacts = %+v", got)
	}
}

func TestContentClient_EmptyFeed(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"artifacts":null}`))
	}))
	content := NewContentClient(client)

	got, err := content.ExploreFeed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestContentClient_ToggleLike(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	content := NewContentClient(client)

	if err := content.ToggleLike(context.Background(), "tok", "art-42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/comics/art-42/like" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestContentClient_Generate(t *testing.T) {
	var gotBody generateRequest
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	content := NewContentClient(client)

	if err := content.Generate(context.Background(), "tok", "a fox in the rain"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody.Prompt != "a fox in the rain" {
		t.Errorf("prompt = %q", gotBody.Prompt)
	}
}
