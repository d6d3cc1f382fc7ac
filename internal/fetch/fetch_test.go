package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/config"
	"github.com/qubitrenegade/denver-rink-schedule-viewer/internal/logger"
)

func testPolicy() config.RetryPolicy {
	return config.RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    1,
		MaxDelayMs:        5,
		BackoffMultiplier: 2.0,
		TimeoutSec:        5,
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	c := NewClient(testPolicy(), logger.New("error"))
	body, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch returned unexpected error: %v", err)
	}
	if string(body) != "payload" {
		t.Errorf("body = %q", body)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestFetch_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(testPolicy(), logger.New("error"))
	_, err := c.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrUnexpectedStatusCode) {
		t.Fatalf("err = %v, want ErrUnexpectedStatusCode", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 (404 must not be retried)", calls.Load())
	}
}

func TestFetch_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(testPolicy(), logger.New("error"))
	if _, err := c.Fetch(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}
