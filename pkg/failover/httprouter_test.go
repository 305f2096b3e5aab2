package failover

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookRouter_RedirectAllPostsInstruction(t *testing.T) {
	var received redirectInstruction
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	router := NewWebhookRouter(srv.URL, nil, testLogger())
	source := ServiceEndpoint{ID: "a", URL: "http://a"}
	target := ServiceEndpoint{ID: "b", URL: "http://b"}

	if err := router.RedirectAll(context.Background(), source, target); err != nil {
		t.Fatalf("RedirectAll: %v", err)
	}
	if received.Action != "redirect_all" || received.SourceID != "a" || received.TargetID != "b" {
		t.Fatalf("unexpected instruction: %+v", received)
	}
}

func TestWebhookRouter_RedirectPercentageCarriesPct(t *testing.T) {
	var received redirectInstruction
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	router := NewWebhookRouter(srv.URL, nil, testLogger())
	err := router.RedirectPercentage(context.Background(), ServiceEndpoint{ID: "a"}, ServiceEndpoint{ID: "b"}, 40)
	if err != nil {
		t.Fatalf("RedirectPercentage: %v", err)
	}
	if received.Percentage != 40 {
		t.Fatalf("expected percentage 40, got %v", received.Percentage)
	}
}

func TestWebhookRouter_DisabledWhenNoControlURL(t *testing.T) {
	router := NewWebhookRouter("", nil, testLogger())
	err := router.RedirectAll(context.Background(), ServiceEndpoint{ID: "a"}, ServiceEndpoint{ID: "b"})
	if err != nil {
		t.Fatalf("expected no-op redirect to succeed, got %v", err)
	}
}

func TestWebhookRouter_NonTwoXXStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	router := NewWebhookRouter(srv.URL, nil, testLogger())
	if err := router.RedirectAll(context.Background(), ServiceEndpoint{ID: "a"}, ServiceEndpoint{ID: "b"}); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestWebhookRouter_ValidateReadyUsesHealthCheckPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD request, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	router := NewWebhookRouter("", nil, testLogger())
	ready, err := router.ValidateReady(context.Background(), ServiceEndpoint{ID: "b", URL: srv.URL, HealthCheckPath: "/health"})
	if err != nil {
		t.Fatalf("ValidateReady: %v", err)
	}
	if !ready {
		t.Fatal("expected target to be ready")
	}
	if gotPath != "/health" {
		t.Fatalf("expected request to /health, got %s", gotPath)
	}
}
