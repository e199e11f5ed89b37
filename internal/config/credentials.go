package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// TwitterKeys holds the OAuth 1.0a user-context secrets for one account
type TwitterKeys struct {
	ConsumerKey       string `json:"consumer_key"`
	ConsumerSecret    string `json:"consumer_secret"`
	AccessToken       string `json:"access_token"`
	AccessTokenSecret string `json:"access_token_secret"`
	BearerToken       string `json:"bearer_token"`
}

// Configured reports whether the account has usable signing keys.
func (k TwitterKeys) Configured() bool {
	return k.ConsumerKey != "" && k.ConsumerSecret != "" &&
		k.AccessToken != "" && k.AccessTokenSecret != ""
}

// TwilioKeys holds the SMS notification secrets
type TwilioKeys struct {
	AccountSID string `json:"account_sid"`
	AuthToken  string `json:"auth_token"`
	FromNumber string `json:"from_number"`
	ToNumber   string `json:"to_number"`
}

// Configured reports whether SMS notifications can be sent.
func (k TwilioKeys) Configured() bool {
	return k.AccountSID != "" && k.AuthToken != "" && k.FromNumber != "" && k.ToNumber != ""
}

// Credentials holds every account secret the daemon uses. The main account
// posts all punts, the ninety account posts 90th-percentile punts, and the
// cancel account runs the cancellation polls.
type Credentials struct {
	Main            TwitterKeys `json:"main"`
	Ninety          TwitterKeys `json:"ninety"`
	Cancel          TwitterKeys `json:"cancel"`
	Twilio          TwilioKeys  `json:"twilio"`
	SlackWebhookURL string      `json:"slack_webhook_url"`
}

// LoadCredentials reads and parses a credentials JSON file.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials file: %w", err)
	}

	return &creds, nil
}
