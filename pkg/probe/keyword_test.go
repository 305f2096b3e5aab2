package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m00npl/guardant/pkg/domain"
)

func TestKeywordProber_MustContainPresent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("all systems OPERATIONAL"))
	}))
	defer srv.Close()

	svc := domain.NestService{KeywordConfig: &domain.KeywordConfig{Keyword: "operational", MustContain: true}}
	res := (&keywordProber{}).Check(context.Background(), srv.URL, svc, time.Second)
	if res.Status != domain.StatusUp {
		t.Fatalf("got %+v, want up (case-insensitive match)", res)
	}
}

func TestKeywordProber_MustContainAbsentIsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("maintenance mode"))
	}))
	defer srv.Close()

	svc := domain.NestService{KeywordConfig: &domain.KeywordConfig{Keyword: "operational", MustContain: true}}
	res := (&keywordProber{}).Check(context.Background(), srv.URL, svc, time.Second)
	if res.Status != domain.StatusDown {
		t.Fatalf("got %+v, want down", res)
	}
}

func TestKeywordProber_MustNotContainButPresentIsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("error: disk full"))
	}))
	defer srv.Close()

	svc := domain.NestService{KeywordConfig: &domain.KeywordConfig{Keyword: "error", MustContain: false}}
	res := (&keywordProber{}).Check(context.Background(), srv.URL, svc, time.Second)
	if res.Status != domain.StatusDown {
		t.Fatalf("got %+v, want down", res)
	}
}

func TestKeywordProber_CaseSensitiveMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OPERATIONAL"))
	}))
	defer srv.Close()

	svc := domain.NestService{KeywordConfig: &domain.KeywordConfig{Keyword: "operational", MustContain: true, CaseSensitive: true}}
	res := (&keywordProber{}).Check(context.Background(), srv.URL, svc, time.Second)
	if res.Status != domain.StatusDown {
		t.Fatalf("got %+v, want down under case-sensitive mismatch", res)
	}
}
