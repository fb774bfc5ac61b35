package client

import (
	"sync"
	"time"
)

// Status is the client-visible lifecycle of one submitted message.
type Status string

const (
	StatusPending   Status = "pending"
	StatusThinking  Status = "thinking"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Request tracks one submission from send to its single terminal state.
// Success, failed, and cancelled are terminal; whichever is reached first
// wins, and anything arriving later (a late reply after a timeout, a timeout
// firing after a reply) is discarded rather than re-rendered.
type Request struct {
	Text      string
	StartedAt time.Time

	mu        sync.Mutex
	status    Status
	sessionID string
	reply     string
	err       error
	done      chan struct{}
	cancel    func()
}

func newRequest(text string, cancel func()) *Request {
	return &Request{
		Text:      text,
		StartedAt: time.Now(),
		status:    StatusPending,
		done:      make(chan struct{}),
		cancel:    cancel,
	}
}

// Status returns the current lifecycle state.
func (r *Request) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Result returns the session ID and reply once the request succeeded, or the
// classified error otherwise. Only meaningful after Done is closed.
func (r *Request) Result() (sessionID, reply string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID, r.reply, r.err
}

// Done is closed on the terminal transition.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Cancel aborts the in-flight network call. The request settles as cancelled
// unless it already reached a terminal state.
func (r *Request) Cancel() {
	r.cancel()
}

// markThinking moves pending → thinking; a no-op once terminal.
func (r *Request) markThinking() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusPending {
		r.status = StatusThinking
	}
}

// finish applies the terminal transition. Exactly the first call wins.
func (r *Request) finish(status Status, sessionID, reply string, err error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.status {
	case StatusSuccess, StatusFailed, StatusCancelled:
		return false
	}

	r.status = status
	r.sessionID = sessionID
	r.reply = reply
	r.err = err
	close(r.done)
	return true
}
