package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client fetches the agent catalog from the chat backend.
type Client struct {
	httpClient *http.Client
	url        string
}

// NewClient creates a catalog client for the given endpoint URL
// (typically the backend's /api/agents route).
func NewClient(url string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{httpClient: httpClient, url: url}
}

// Fetch retrieves and parses the catalog, retrying transient failures with
// exponential backoff. The catalog is fetched once per session; a failure
// here leaves the session with no agents to offer.
func (c *Client) Fetch(ctx context.Context) (*Catalog, error) {
	var cat *Catalog

	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			err := fmt.Errorf("catalog endpoint returned status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(err)
			}
			return err
		}

		parsed, err := Parse(resp.Body)
		if err != nil {
			// Malformed payloads will not improve on retry.
			return backoff.Permanent(err)
		}
		cat = parsed
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("fetching catalog from %s: %w", c.url, err)
	}
	return cat, nil
}

// LoadFile parses a catalog from a local JSON file, for offline use or
// development without the backend running.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog file: %w", err)
	}
	defer f.Close()

	cat, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cat, nil
}
