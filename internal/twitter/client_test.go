package twitter_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andrew-shackelford/Surrender-Index/internal/twitter"
)

func testAccount(baseURL string) *twitter.Account {
	return twitter.NewAccountWithBaseURL("ck", "cs", "at", "ats", baseURL)
}

func TestCreateTweet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/2/tweets" {
			t.Errorf("path = %s, want /2/tweets", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if auth := r.Header.Get("Authorization"); !strings.HasPrefix(auth, "OAuth ") {
			t.Errorf("Authorization = %q, want an OAuth signature", auth)
		}

		var got struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if got.Text != "hello" {
			t.Errorf("text = %q, want %q", got.Text, "hello")
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data": {"id": "1234", "text": "hello"}}`))
	}))
	defer srv.Close()

	tweet, err := testAccount(srv.URL).CreateTweet(context.Background(), "hello", nil)
	if err != nil {
		t.Fatalf("CreateTweet returned error: %v", err)
	}
	if tweet.ID != "1234" {
		t.Errorf("tweet ID = %q, want %q", tweet.ID, "1234")
	}
}

func TestCreateTweetWithAttachments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var got struct {
			Text         string `json:"text"`
			QuoteTweetID string `json:"quote_tweet_id"`
			Reply        *struct {
				InReplyToTweetID string `json:"in_reply_to_tweet_id"`
			} `json:"reply"`
			Poll *struct {
				Options         []string `json:"options"`
				DurationMinutes int      `json:"duration_minutes"`
			} `json:"poll"`
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decoding request: %v", err)
		}

		if got.QuoteTweetID != "777" {
			t.Errorf("quote_tweet_id = %q, want %q", got.QuoteTweetID, "777")
		}
		if got.Reply == nil || got.Reply.InReplyToTweetID != "888" {
			t.Errorf("reply = %+v, want in_reply_to_tweet_id 888", got.Reply)
		}
		if got.Poll == nil {
			t.Fatal("expected a poll in the request")
		}
		if len(got.Poll.Options) != 2 || got.Poll.Options[0] != "Yes" || got.Poll.Options[1] != "No" {
			t.Errorf("poll options = %v, want [Yes No]", got.Poll.Options)
		}
		if got.Poll.DurationMinutes != 60 {
			t.Errorf("poll duration = %d, want 60", got.Poll.DurationMinutes)
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data": {"id": "555", "text": "poll tweet"}}`))
	}))
	defer srv.Close()

	opts := &twitter.TweetOptions{
		InReplyTo:           "888",
		QuoteTweetID:        "777",
		PollOptions:         []string{"Yes", "No"},
		PollDurationMinutes: 60,
	}
	tweet, err := testAccount(srv.URL).CreateTweet(context.Background(), "poll tweet", opts)
	if err != nil {
		t.Fatalf("CreateTweet returned error: %v", err)
	}
	if tweet.ID != "555" {
		t.Errorf("tweet ID = %q, want %q", tweet.ID, "555")
	}
}

func TestCreateTweetAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"title": "Forbidden", "detail": "You are not allowed to create a Tweet with duplicate content.", "status": 403}`))
	}))
	defer srv.Close()

	_, err := testAccount(srv.URL).CreateTweet(context.Background(), "dupe", nil)
	if err == nil {
		t.Fatal("expected an error for a 403 response")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "duplicate content") {
		t.Errorf("error = %v, want status and detail included", err)
	}
}

func TestDeleteTweet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		if r.URL.Path != "/2/tweets/1234" {
			t.Errorf("path = %s, want /2/tweets/1234", r.URL.Path)
		}
		w.Write([]byte(`{"data": {"deleted": true}}`))
	}))
	defer srv.Close()

	if err := testAccount(srv.URL).DeleteTweet(context.Background(), "1234"); err != nil {
		t.Fatalf("DeleteTweet returned error: %v", err)
	}
}

func TestDeleteTweetNotDeleted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"deleted": false}}`))
	}))
	defer srv.Close()

	err := testAccount(srv.URL).DeleteTweet(context.Background(), "1234")
	if err == nil {
		t.Fatal("expected an error when the API reports the tweet was not deleted")
	}
}

func TestGetTweetPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/tweets/999" {
			t.Errorf("path = %s, want /2/tweets/999", r.URL.Path)
		}
		query := r.URL.Query()
		if got := query.Get("expansions"); got != "attachments.poll_ids" {
			t.Errorf("expansions = %q, want attachments.poll_ids", got)
		}
		if got := query.Get("poll.fields"); got != "options" {
			t.Errorf("poll.fields = %q, want options", got)
		}

		w.Write([]byte(`{
			"data": {"id": "999", "text": "Should this punt's Surrender Index be canceled?"},
			"includes": {"polls": [{
				"id": "p1",
				"options": [
					{"position": 1, "label": "Yes", "votes": 40},
					{"position": 2, "label": "No", "votes": 12}
				]
			}]}
		}`))
	}))
	defer srv.Close()

	options, err := testAccount(srv.URL).GetTweetPoll(context.Background(), "999")
	if err != nil {
		t.Fatalf("GetTweetPoll returned error: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("got %d options, want 2", len(options))
	}
	if options[0].Label != "Yes" || options[0].Votes != 40 {
		t.Errorf("first option = %+v, want Yes with 40 votes", options[0])
	}
	if options[1].Label != "No" || options[1].Votes != 12 {
		t.Errorf("second option = %+v, want No with 12 votes", options[1])
	}
}

func TestGetTweetPollMissingPoll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"id": "999", "text": "no poll here"}}`))
	}))
	defer srv.Close()

	_, err := testAccount(srv.URL).GetTweetPoll(context.Background(), "999")
	if err == nil {
		t.Fatal("expected an error for a tweet without a poll")
	}
}
