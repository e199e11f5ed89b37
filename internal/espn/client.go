// Package espn fetches NFL scoreboard and game summary data from ESPN's
// public site API.
package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultBaseURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"

	maxAttempts  = 5
	initialDelay = 100 * time.Millisecond
)

// retryStatuses are the transient upstream failures worth another attempt.
var retryStatuses = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client fetches data from the ESPN API
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new ESPN API client
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
}

// NewClientWithBaseURL creates a client against an alternate endpoint,
// used in tests.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// Scoreboard fetches the NFL scoreboard for the current week.
func (c *Client) Scoreboard(ctx context.Context) (map[string]interface{}, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/scoreboard", c.baseURL))
}

// GameSummary fetches the full summary for a single game, including every
// completed drive and its plays.
func (c *Client) GameSummary(ctx context.Context, eventID string) (map[string]interface{}, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/summary?event=%s", c.baseURL, url.QueryEscape(eventID)))
}

// fetch performs a GET request with retries on transient failures. Network
// errors and gateway-class statuses back off and retry; anything else fails
// immediately.
func (c *Client) fetch(ctx context.Context, fetchURL string) (map[string]interface{}, error) {
	delay := initialDelay
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		result, retryable, err := c.fetchOnce(ctx, fetchURL)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("fetching %s after %d attempts: %w", fetchURL, maxAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, fetchURL string) (map[string]interface{}, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; surrender-index/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("fetching %s: %w", fetchURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, fetchURL)
		return nil, retryStatuses[resp.StatusCode], err
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, false, fmt.Errorf("decoding response: %w", err)
	}

	return result, false, nil
}
