package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioNotifier sends operator SMS through the Twilio Messages API.
type TwilioNotifier struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
	BaseURL    string

	client *http.Client
}

// NewTwilioNotifier creates a new Twilio SMS notifier
func NewTwilioNotifier(accountSID, authToken, from, to string) *TwilioNotifier {
	return &TwilioNotifier{
		AccountSID: accountSID,
		AuthToken:  authToken,
		From:       from,
		To:         to,
		BaseURL:    twilioAPIBase,
		client:     &http.Client{Timeout: 20 * time.Second},
	}
}

// Notify sends body as an SMS to the operator's number.
func (t *TwilioNotifier) Notify(ctx context.Context, body string) error {
	values := url.Values{}
	values.Set("To", t.To)
	values.Set("From", t.From)
	values.Set("Body", body)

	base := t.BaseURL
	if base == "" {
		base = twilioAPIBase
	}
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", base, t.AccountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(t.AccountSID, t.AuthToken)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("Accept", "application/json")

	if t.client == nil {
		t.client = &http.Client{Timeout: 20 * time.Second}
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "error reaching Twilio API")
	}
	defer resp.Body.Close()

	var apiResponse struct {
		MessageSID    string `json:"sid"`
		MessageStatus string `json:"status"`
		To            string `json:"to"`
		ErrCode       int    `json:"error_code"`
		ErrMessage    string `json:"error_message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return errors.Wrap(err, "Twilio response")
	}

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("Twilio error %d: %s", apiResponse.ErrCode, apiResponse.ErrMessage)
	}
	if isNotOKMessageStatus(apiResponse.MessageStatus) {
		return fmt.Errorf("bad message status: %s", apiResponse.MessageStatus)
	}

	return nil
}

func isNotOKMessageStatus(status string) bool {
	okStatuses := []string{"accepted", "queued", "sending", "delivered"}
	for _, s := range okStatuses {
		if status == s {
			return false
		}
	}
	return true
}
