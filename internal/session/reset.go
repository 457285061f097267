package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JackkySpice/surf.new/internal/engine"
)

// Client issues the two post-commit session resets against the chat
// backend: clearing the local conversation and releasing the remote browser
// session. The commit gate invokes both unconditionally and in order; their
// failures are logged upstream, never surfaced to the user.
type Client struct {
	baseURL    string
	sessionID  string
	httpClient *http.Client
}

var _ engine.SessionResetter = (*Client)(nil)

// NewClient creates a reset client for the backend at baseURL, scoped to
// one chat session id.
func NewClient(baseURL, sessionID string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessionID:  sessionID,
		httpClient: httpClient,
	}
}

// ClearConversation wipes the conversational state for the session.
func (c *Client) ClearConversation(ctx context.Context) error {
	return c.post(ctx, fmt.Sprintf("/api/sessions/%s/messages/clear", c.sessionID))
}

// ReleaseRemote releases the remote browser session. A session that was
// already stopped counts as released.
func (c *Client) ReleaseRemote(ctx context.Context) error {
	err := c.post(ctx, fmt.Sprintf("/api/sessions/%s/release", c.sessionID))
	if err != nil && strings.Contains(err.Error(), "already stopped") {
		return nil
	}
	return err
}

func (c *Client) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
