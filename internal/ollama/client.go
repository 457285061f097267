package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// DefaultHost is the conventional Ollama listen address.
const DefaultHost = "http://localhost:11434"

// Model is one entry from the runtime's live model list. Tag is the unique
// identifier the runtime exposes (e.g. "llama3.1:8b"); Name is the
// human-readable base name. Ephemeral: fetched on demand, never persisted.
type Model struct {
	Tag  string `json:"tag"`
	Name string `json:"name"`
}

// Client lists the models currently available on a local Ollama runtime.
type Client struct {
	host       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	group      singleflight.Group
}

// NewClient creates a client for the runtime at host. An empty host uses
// DefaultHost.
func NewClient(host string, httpClient *http.Client) *Client {
	host = strings.TrimRight(host, "/")
	if host == "" {
		host = DefaultHost
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		host:       host,
		httpClient: httpClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "ollama",
			MaxRequests: 1,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			IsSuccessful: func(err error) bool {
				if err == nil {
					return true
				}
				// User cancellation says nothing about runtime health.
				return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			},
		}),
	}
}

// tagsResponse mirrors the /api/tags payload.
type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// ListModels fetches the live model list from GET {host}/api/tags.
// Transient failures are retried briefly with exponential backoff; repeated
// failures open a circuit breaker so a down runtime fails fast. Concurrent
// calls are collapsed into a single request.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	v, err, _ := c.group.Do("tags", func() (interface{}, error) {
		return c.listModels(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Model), nil
}

func (c *Client) listModels(ctx context.Context) ([]Model, error) {
	var models []Model

	operation := func() error {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.fetchTags(ctx)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("local runtime unavailable: %w", err))
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}

		models = result.([]Model)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = 8 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("listing models at %s: %w", c.host, err)
	}
	return models, nil
}

func (c *Client) fetchTags(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("runtime returned status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("decoding tags response: %w", err)
	}

	models := make([]Model, 0, len(tags.Models))
	for _, m := range tags.Models {
		if m.Name == "" {
			continue
		}
		models = append(models, Model{Tag: m.Name, Name: baseName(m.Name)})
	}
	return models, nil
}

// baseName strips the variant suffix from a tag: "llama3.1:8b" -> "llama3.1".
func baseName(tag string) string {
	if i := strings.IndexByte(tag, ':'); i > 0 {
		return tag[:i]
	}
	return tag
}
