package notifier_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"go.uber.org/zap"

	"github.com/andrew-shackelford/Surrender-Index/internal/notifier"
)

type recordingNotifier struct {
	bodies []string
	err    error
}

func (r *recordingNotifier) Notify(ctx context.Context, body string) error {
	if r.err != nil {
		return r.err
	}
	r.bodies = append(r.bodies, body)
	return nil
}

func TestReporterError(t *testing.T) {
	rec := &recordingNotifier{}
	reporter := notifier.NewReporter(rec, zap.NewNop().Sugar())

	reporter.Error(context.Background(), "Failed to process punt from drive 401", errors.New("connection refused"))

	if len(rec.bodies) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rec.bodies))
	}
	want := "Failed to process punt from drive 401: connection refused."
	if rec.bodies[0] != want {
		t.Errorf("body = %q, want %q", rec.bodies[0], want)
	}
}

func TestReporterErrorSwallowsDeliveryFailure(t *testing.T) {
	rec := &recordingNotifier{err: errors.New("twilio down")}
	reporter := notifier.NewReporter(rec, zap.NewNop().Sugar())

	// Must not panic or propagate.
	reporter.Error(context.Background(), "Something failed", errors.New("boom"))
}

func TestReporterHeartbeat(t *testing.T) {
	rec := &recordingNotifier{}
	reporter := notifier.NewReporter(rec, zap.NewNop().Sugar())

	reporter.Heartbeat(context.Background())

	if len(rec.bodies) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rec.bodies))
	}
	if rec.bodies[0] != notifier.HeartbeatMessage {
		t.Errorf("body = %q, want heartbeat message", rec.bodies[0])
	}
}

func TestMultiNotifiesAll(t *testing.T) {
	first := &recordingNotifier{}
	second := &recordingNotifier{}
	multi := notifier.Multi{first, second}

	if err := multi.Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.bodies) != 1 || len(second.bodies) != 1 {
		t.Error("expected both transports to receive the message")
	}
}

func TestMultiReturnsFirstErrorButTriesAll(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("down")}
	working := &recordingNotifier{}
	multi := notifier.Multi{failing, working}

	if err := multi.Notify(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from failing transport")
	}
	if len(working.bodies) != 1 {
		t.Error("expected the working transport to still receive the message")
	}
}

func TestTwilioNotify(t *testing.T) {
	var gotForm url.Values
	var gotAuth bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Accounts/AC123/Messages.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		gotAuth = ok && user == "AC123" && pass == "secret"

		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "SM1", "status": "queued", "to": "+15550002222"}`))
	}))
	defer server.Close()

	n := notifier.NewTwilioNotifier("AC123", "secret", "+15550001111", "+15550002222")
	n.BaseURL = server.URL

	if err := n.Notify(context.Background(), "The Surrender Index script is up and running."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !gotAuth {
		t.Error("expected basic auth with account SID and token")
	}
	if got := gotForm.Get("To"); got != "+15550002222" {
		t.Errorf("To = %q, want +15550002222", got)
	}
	if got := gotForm.Get("From"); got != "+15550001111" {
		t.Errorf("From = %q, want +15550001111", got)
	}
	if got := gotForm.Get("Body"); got != "The Surrender Index script is up and running." {
		t.Errorf("Body = %q", got)
	}
}

func TestTwilioNotifyAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error_code": 20003, "error_message": "Authenticate"}`))
	}))
	defer server.Close()

	n := notifier.NewTwilioNotifier("AC123", "wrong", "+15550001111", "+15550002222")
	n.BaseURL = server.URL

	if err := n.Notify(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestTwilioNotifyBadMessageStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "SM1", "status": "failed"}`))
	}))
	defer server.Close()

	n := notifier.NewTwilioNotifier("AC123", "secret", "+15550001111", "+15550002222")
	n.BaseURL = server.URL

	if err := n.Notify(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for failed message status")
	}
}

func TestSlackNotify(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := notifier.NewSlackNotifier(server.URL)
	if err := n.Notify(context.Background(), "Failed to process punt: boom."); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["text"] != "Failed to process punt: boom." {
		t.Errorf("text = %v", got["text"])
	}
}

func TestSlackNotifyNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	n := notifier.NewSlackNotifier(server.URL)
	if err := n.Notify(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
