package federation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExchangeSessionSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Session-ID"); got != "sess-42" {
			t.Errorf("expected X-Session-ID header sess-42, got %q", got)
		}
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"email":"alice@example.com","name":"Alice","picture":"https://img.example.com/a.png","session_token":"upstream-token"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	identity, err := client.ExchangeSession(context.Background(), "sess-42")
	if err != nil {
		t.Fatalf("exchange session: %v", err)
	}
	if identity.Email != "alice@example.com" {
		t.Fatalf("unexpected email %q", identity.Email)
	}
	if identity.Name != "Alice" {
		t.Fatalf("unexpected name %q", identity.Name)
	}
	if identity.SessionToken != "upstream-token" {
		t.Fatalf("unexpected session token %q", identity.SessionToken)
	}
}

func TestExchangeSessionNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.ExchangeSession(context.Background(), "sess-42"); !errors.Is(err, ErrUpstreamRejected) {
		t.Fatalf("expected ErrUpstreamRejected, got %v", err)
	}
}

func TestExchangeSessionIncompleteIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"No Email Or Token"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.ExchangeSession(context.Background(), "sess-42"); !errors.Is(err, ErrUpstreamRejected) {
		t.Fatalf("expected ErrUpstreamRejected for incomplete identity, got %v", err)
	}
}

func TestExchangeSessionUnconfiguredEndpoint(t *testing.T) {
	client := NewClient("")
	if _, err := client.ExchangeSession(context.Background(), "sess-42"); !errors.Is(err, ErrUpstreamRejected) {
		t.Fatalf("expected ErrUpstreamRejected when no endpoint is configured, got %v", err)
	}
}
