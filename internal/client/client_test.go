package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sessionId":"s-1","reply":"hello there"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	req, err := c.Submit(context.Background(), "", "hi")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	<-req.Done()

	if req.Status() != StatusSuccess {
		t.Fatalf("expected success, got %s", req.Status())
	}
	sessionID, reply, resErr := req.Result()
	if resErr != nil {
		t.Fatalf("unexpected error: %v", resErr)
	}
	if sessionID != "s-1" || reply != "hello there" {
		t.Fatalf("unexpected result: %s %q", sessionID, reply)
	}
}

func TestSubmitBlankRejectedLocally(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if _, err := c.Submit(context.Background(), "", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}

	if hits.Load() != 0 {
		t.Fatal("blank submission must not hit the network")
	}
}

func TestSubmitTimeoutIgnoresLateReply(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"sessionId":"late","reply":"too late"}`))
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, 50*time.Millisecond)
	req, err := c.Submit(context.Background(), "", "hi")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	select {
	case <-req.Done():
	case <-time.After(time.Second):
		t.Fatal("request did not settle within timeout + epsilon")
	}

	if req.Status() != StatusFailed {
		t.Fatalf("expected failed, got %s", req.Status())
	}
	if _, _, resErr := req.Result(); !errors.Is(resErr, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", resErr)
	}

	// Even once the server answers, the settled record must not change.
	time.Sleep(100 * time.Millisecond)
	if req.Status() != StatusFailed {
		t.Fatalf("late reply mutated a settled request: %s", req.Status())
	}
	if _, reply, _ := req.Result(); reply != "" {
		t.Fatalf("late reply leaked into result: %q", reply)
	}
}

func TestSubmitServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Server error"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	req, err := c.Submit(context.Background(), "", "hi")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	<-req.Done()

	if req.Status() != StatusFailed {
		t.Fatalf("expected failed, got %s", req.Status())
	}
	if _, _, resErr := req.Result(); !errors.Is(resErr, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", resErr)
	}
}

func TestSubmitClientErrorIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Message is required"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	req, err := c.Submit(context.Background(), "", "hi")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	<-req.Done()

	if _, _, resErr := req.Result(); !errors.Is(resErr, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", resErr)
	}
}

func TestCancelAbortsInFlightCall(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, time.Minute)
	req, err := c.Submit(context.Background(), "", "hi")
	if err != nil {
		t.Fatalf("Submit err: %v", err)
	}

	<-started
	req.Cancel()

	select {
	case <-req.Done():
	case <-time.After(time.Second):
		t.Fatal("cancelled request did not settle")
	}

	if req.Status() != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", req.Status())
	}
}

func TestFinishIsExactlyOnce(t *testing.T) {
	req := newRequest("hi", func() {})

	if !req.finish(StatusSuccess, "s", "reply", nil) {
		t.Fatal("first terminal transition must win")
	}
	if req.finish(StatusFailed, "", "", ErrTimeout) {
		t.Fatal("second terminal transition must be discarded")
	}

	if req.Status() != StatusSuccess {
		t.Fatalf("expected success to stick, got %s", req.Status())
	}
}
