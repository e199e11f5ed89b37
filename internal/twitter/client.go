// Package twitter is a minimal Twitter API v2 client covering what the bot
// accounts need: posting tweets with optional replies, quote tweets, and
// polls, deleting tweets, and reading poll results.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dghubble/oauth1"
)

const defaultBaseURL = "https://api.twitter.com"

// Account is an authenticated Twitter account
type Account struct {
	httpClient *http.Client
	baseURL    string
}

// NewAccount creates a client that signs requests with the account's
// OAuth 1.0a user context keys.
func NewAccount(consumerKey, consumerSecret, accessToken, accessTokenSecret string) *Account {
	cfg := oauth1.NewConfig(consumerKey, consumerSecret)
	token := oauth1.NewToken(accessToken, accessTokenSecret)

	httpClient := cfg.Client(oauth1.NoContext, token)
	httpClient.Timeout = 30 * time.Second

	return &Account{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
	}
}

// NewAccountWithBaseURL creates an account against an alternate endpoint,
// used in tests.
func NewAccountWithBaseURL(consumerKey, consumerSecret, accessToken, accessTokenSecret, baseURL string) *Account {
	a := NewAccount(consumerKey, consumerSecret, accessToken, accessTokenSecret)
	a.baseURL = baseURL
	return a
}

// Tweet is a posted tweet
type Tweet struct {
	ID   string
	Text string
}

// PollOption is one choice of a tweet's poll with its current vote count.
type PollOption struct {
	Label string
	Votes int
}

// TweetOptions carries the optional attachments for a new tweet.
type TweetOptions struct {
	InReplyTo           string
	QuoteTweetID        string
	PollOptions         []string
	PollDurationMinutes int
}

type tweetRequest struct {
	Text         string        `json:"text"`
	QuoteTweetID string        `json:"quote_tweet_id,omitempty"`
	Reply        *replyRequest `json:"reply,omitempty"`
	Poll         *pollRequest  `json:"poll,omitempty"`
}

type replyRequest struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type pollRequest struct {
	Options         []string `json:"options"`
	DurationMinutes int      `json:"duration_minutes"`
}

type tweetData struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// CreateTweet posts a tweet and returns its ID.
func (a *Account) CreateTweet(ctx context.Context, text string, opts *TweetOptions) (*Tweet, error) {
	reqBody := tweetRequest{Text: text}
	if opts != nil {
		reqBody.QuoteTweetID = opts.QuoteTweetID
		if opts.InReplyTo != "" {
			reqBody.Reply = &replyRequest{InReplyToTweetID: opts.InReplyTo}
		}
		if len(opts.PollOptions) > 0 {
			reqBody.Poll = &pollRequest{
				Options:         opts.PollOptions,
				DurationMinutes: opts.PollDurationMinutes,
			}
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting tweet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var result struct {
		Data tweetData `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result.Data.ID == "" {
		return nil, fmt.Errorf("Twitter API returned no tweet ID")
	}

	return &Tweet{ID: result.Data.ID, Text: result.Data.Text}, nil
}

// DeleteTweet deletes a tweet posted by this account.
func (a *Account) DeleteTweet(ctx context.Context, tweetID string) error {
	endpoint := fmt.Sprintf("%s/2/tweets/%s", a.baseURL, url.PathEscape(tweetID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deleting tweet %s: %w", tweetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	var result struct {
		Data struct {
			Deleted bool `json:"deleted"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if !result.Data.Deleted {
		return fmt.Errorf("tweet %s was not deleted", tweetID)
	}

	return nil
}

// GetTweetPoll fetches the poll attached to a tweet and returns its options
// with their current vote counts.
func (a *Account) GetTweetPoll(ctx context.Context, tweetID string) ([]PollOption, error) {
	endpoint := fmt.Sprintf("%s/2/tweets/%s?expansions=attachments.poll_ids&poll.fields=options",
		a.baseURL, url.PathEscape(tweetID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tweet %s: %w", tweetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var result struct {
		Data     tweetData `json:"data"`
		Includes struct {
			Polls []struct {
				ID      string `json:"id"`
				Options []struct {
					Position int    `json:"position"`
					Label    string `json:"label"`
					Votes    int    `json:"votes"`
				} `json:"options"`
			} `json:"polls"`
		} `json:"includes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Includes.Polls) == 0 {
		return nil, fmt.Errorf("no poll attached to tweet %s", tweetID)
	}

	poll := result.Includes.Polls[0]
	options := make([]PollOption, 0, len(poll.Options))
	for _, opt := range poll.Options {
		options = append(options, PollOption{Label: opt.Label, Votes: opt.Votes})
	}

	return options, nil
}

func apiError(resp *http.Response) error {
	var apiErr struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Detail != "" {
		return fmt.Errorf("Twitter API error %d: %s", resp.StatusCode, apiErr.Detail)
	}
	return fmt.Errorf("unexpected status code %d from Twitter API", resp.StatusCode)
}
