package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout is the hard budget for one exchange round trip.
const DefaultTimeout = 30 * time.Second

var (
	// ErrEmptyMessage rejects a blank submission locally; no network call
	// is made.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTimeout reports that the server did not answer within the budget.
	ErrTimeout = errors.New("chat request timed out")

	// ErrUnavailable reports a transport failure or server-side error.
	ErrUnavailable = errors.New("chat service unavailable")

	// ErrRejected reports that the server refused the request.
	ErrRejected = errors.New("chat request rejected")
)

// Client submits messages over the chat HTTP contract and tracks each one
// through its lifecycle.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a client for the API at baseURL. timeout <= 0 falls back to
// DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Submit validates locally and, if the text is non-blank, starts the network
// exchange in the background. The returned Request settles exactly once:
// the timeout aborts the underlying HTTP request rather than abandoning it,
// so a late server reply can never surface through an already-failed record.
func (c *Client) Submit(ctx context.Context, sessionID, text string) (*Request, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	req := newRequest(text, cancel)

	go c.run(ctx, cancel, req, sessionID)
	return req, nil
}

func (c *Client) run(ctx context.Context, cancel context.CancelFunc, req *Request, sessionID string) {
	defer cancel()

	req.markThinking()

	sessID, reply, err := c.exchange(ctx, sessionID, req.Text)
	if err == nil {
		req.finish(StatusSuccess, sessID, reply, nil)
		return
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		req.finish(StatusFailed, "", "", ErrTimeout)
	case errors.Is(err, context.Canceled):
		req.finish(StatusCancelled, "", "", context.Canceled)
	default:
		req.finish(StatusFailed, "", "", err)
	}
}

func (c *Client) exchange(ctx context.Context, sessionID, text string) (string, string, error) {
	payload, err := json.Marshal(map[string]string{
		"message":   text,
		"sessionId": sessionID,
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		return "", "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", "", ctxErr
		}
		return "", "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return "", "", fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	default:
		return "", "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var parsed struct {
		SessionID string `json:"sessionId"`
		Reply     string `json:"reply"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", fmt.Errorf("%w: invalid response: %v", ErrUnavailable, err)
	}

	return parsed.SessionID, parsed.Reply, nil
}
