package tweeter_test

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/andrew-shackelford/Surrender-Index/internal/cancel"
	"github.com/andrew-shackelford/Surrender-Index/internal/consumer"
	"github.com/andrew-shackelford/Surrender-Index/internal/publisher"
	"github.com/andrew-shackelford/Surrender-Index/internal/tweeter"
	"github.com/andrew-shackelford/Surrender-Index/internal/twitter"
	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
)

type fakeSource struct {
	messages chan consumer.Message
	errors   chan error
	acked    []string
}

func newSource(events ...models.PuntEvent) *fakeSource {
	s := &fakeSource{
		messages: make(chan consumer.Message, len(events)+1),
		errors:   make(chan error, 1),
	}
	for i, event := range events {
		s.messages <- consumer.Message{
			ID:        fmt.Sprintf("%d-0", i+1),
			StreamKey: publisher.PuntStream,
			Event:     event,
		}
	}
	close(s.messages)
	return s
}

func (s *fakeSource) ConsumeStream(ctx context.Context, streamKey string) (<-chan consumer.Message, <-chan error) {
	return s.messages, s.errors
}

func (s *fakeSource) AckMessage(ctx context.Context, streamKey, messageID string) error {
	s.acked = append(s.acked, messageID)
	return nil
}

type createdTweet struct {
	text string
	opts *twitter.TweetOptions
}

type fakeAccount struct {
	name    string
	created []createdTweet
	err     error
}

func (a *fakeAccount) CreateTweet(ctx context.Context, text string, opts *twitter.TweetOptions) (*twitter.Tweet, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.created = append(a.created, createdTweet{text: text, opts: opts})
	return &twitter.Tweet{ID: fmt.Sprintf("%s-%d", a.name, len(a.created))}, nil
}

type fakeScheduler struct {
	scheduled []cancel.PendingCancel
}

func (s *fakeScheduler) Schedule(ctx context.Context, pending cancel.PendingCancel) error {
	s.scheduled = append(s.scheduled, pending)
	return nil
}

type fakeStore struct {
	puntID   int64
	mainID   string
	ninetyID string
	calls    int
}

func (s *fakeStore) SetTweetIDs(ctx context.Context, puntID int64, tweetID, ninetyTweetID string) error {
	s.puntID = puntID
	s.mainID = tweetID
	s.ninetyID = ninetyTweetID
	s.calls++
	return nil
}

type fakeTracker struct {
	marked []string
}

func (t *fakeTracker) MarkTweeted(ctx context.Context, gameID, driveID string) error {
	t.marked = append(t.marked, gameID+":"+driveID)
	return nil
}

type fakeBucket struct {
	deny bool
}

func (b *fakeBucket) Allow(ctx context.Context) (bool, error) {
	return !b.deny, nil
}

type fakeReporter struct {
	messages []string
}

func (r *fakeReporter) Error(ctx context.Context, contextMsg string, err error) {
	r.messages = append(r.messages, contextMsg)
}

type fixture struct {
	source     *fakeSource
	main       *fakeAccount
	ninety     *fakeAccount
	cancelAcct *fakeAccount
	scheduler  *fakeScheduler
	store      *fakeStore
	tracker    *fakeTracker
	bucket     *fakeBucket
	reporter   *fakeReporter
	tweeter    *tweeter.Tweeter
}

func newFixture(opts tweeter.Options, events ...models.PuntEvent) *fixture {
	f := &fixture{
		source:     newSource(events...),
		main:       &fakeAccount{name: "main"},
		ninety:     &fakeAccount{name: "ninety"},
		cancelAcct: &fakeAccount{name: "cancel"},
		scheduler:  &fakeScheduler{},
		store:      &fakeStore{},
		tracker:    &fakeTracker{},
		bucket:     &fakeBucket{},
		reporter:   &fakeReporter{},
	}
	f.tweeter = tweeter.New(
		f.source,
		f.main, f.ninety, f.cancelAcct,
		f.scheduler,
		f.store,
		f.tracker,
		f.bucket,
		f.reporter,
		opts,
		zap.NewNop().Sugar(),
	)
	return f
}

func puntEvent(seasonPct float64) models.PuntEvent {
	return models.PuntEvent{
		PuntID:            42,
		GameID:            "401547403",
		DriveID:           "4015474031",
		Season:            2023,
		Team:              "TEN",
		Opponent:          "SEA",
		Territory:         "TEN 45",
		DownDistance:      "4th & 4",
		Clock:             "5:31",
		Quarter:           4,
		TeamScore:         10,
		OpponentScore:     17,
		SurrenderIndex:    55.234,
		SeasonPercentile:  seasonPct,
		HistoryPercentile: 98.6,
	}
}

func TestRunDryRunMarksWithoutPosting(t *testing.T) {
	opts := tweeter.Options{DisableTweeting: true, EnableMainAccount: true}
	f := newFixture(opts, puntEvent(99.0))

	f.tweeter.Run(context.Background())

	if len(f.main.created)+len(f.ninety.created)+len(f.cancelAcct.created) != 0 {
		t.Error("expected no tweets in dry run mode")
	}
	if f.store.calls != 0 {
		t.Error("expected no tweet IDs recorded in dry run mode")
	}
	if len(f.tracker.marked) != 1 || f.tracker.marked[0] != "401547403:4015474031" {
		t.Errorf("marked = %v, want the punt marked tweeted", f.tracker.marked)
	}
	if len(f.source.acked) != 1 {
		t.Errorf("acked %d messages, want 1", len(f.source.acked))
	}
}

func TestRunPostsNinetyAndSchedulesCancel(t *testing.T) {
	event := puntEvent(97.4)
	f := newFixture(tweeter.Options{}, event)

	f.tweeter.Run(context.Background())

	if len(f.ninety.created) != 1 {
		t.Fatalf("ninety account posted %d tweets, want 1", len(f.ninety.created))
	}
	if want := tweeter.ComposeTweet(event); f.ninety.created[0].text != want {
		t.Errorf("ninety tweet = %q, want %q", f.ninety.created[0].text, want)
	}

	if len(f.cancelAcct.created) != 1 {
		t.Fatalf("cancel account posted %d tweets, want 1", len(f.cancelAcct.created))
	}
	poll := f.cancelAcct.created[0]
	if poll.text != cancel.PollQuestion {
		t.Errorf("poll text = %q, want %q", poll.text, cancel.PollQuestion)
	}
	if poll.opts == nil || poll.opts.InReplyTo != "ninety-1" {
		t.Fatalf("poll opts = %+v, want a reply to ninety-1", poll.opts)
	}
	if len(poll.opts.PollOptions) != 2 || poll.opts.PollOptions[0] != "Yes" || poll.opts.PollOptions[1] != "No" {
		t.Errorf("poll options = %v, want [Yes No]", poll.opts.PollOptions)
	}
	if poll.opts.PollDurationMinutes != 60 {
		t.Errorf("poll duration = %d, want 60", poll.opts.PollDurationMinutes)
	}

	if len(f.scheduler.scheduled) != 1 {
		t.Fatalf("scheduled %d verdicts, want 1", len(f.scheduler.scheduled))
	}
	pending := f.scheduler.scheduled[0]
	if pending.PuntID != 42 || pending.NinetyTweetID != "ninety-1" || pending.PollTweetID != "cancel-1" {
		t.Errorf("pending = %+v, want punt 42 with ninety-1 and cancel-1", pending)
	}
	if pending.Text != tweeter.ComposeTweet(event) {
		t.Error("pending text should carry the full tweet for the replacement post")
	}

	if f.store.calls != 1 || f.store.puntID != 42 || f.store.mainID != "" || f.store.ninetyID != "ninety-1" {
		t.Errorf("stored tweet IDs = (%d, %q, %q), want (42, \"\", \"ninety-1\")",
			f.store.puntID, f.store.mainID, f.store.ninetyID)
	}
	if len(f.tracker.marked) != 1 {
		t.Errorf("marked = %v, want one punt", f.tracker.marked)
	}
}

func TestRunSkipsNinetyBelowThreshold(t *testing.T) {
	f := newFixture(tweeter.Options{}, puntEvent(85.0))

	f.tweeter.Run(context.Background())

	if len(f.ninety.created) != 0 {
		t.Errorf("ninety account posted %d tweets, want 0", len(f.ninety.created))
	}
	if len(f.scheduler.scheduled) != 0 {
		t.Error("expected no cancel verdicts scheduled")
	}
	if len(f.tracker.marked) != 1 {
		t.Error("expected the punt marked tweeted regardless")
	}
}

func TestRunMainAccountWithDelayOfGameReply(t *testing.T) {
	event := puntEvent(85.0)
	event.DelayOfGame = true
	event.DownDistance = "4th & 5"
	event.Penalty = &models.PenaltyDetail{
		MovedToTerritory:           "TEN 40",
		MovedToDownDistance:        "4th & 10",
		UnadjustedIndex:            12.0,
		UnadjustedSeasonPercentile: 88.3,
	}
	f := newFixture(tweeter.Options{EnableMainAccount: true}, event)

	f.tweeter.Run(context.Background())

	if len(f.main.created) != 2 {
		t.Fatalf("main account posted %d tweets, want 2", len(f.main.created))
	}
	if want := tweeter.ComposeTweet(event); f.main.created[0].text != want {
		t.Errorf("main tweet = %q, want %q", f.main.created[0].text, want)
	}
	reply := f.main.created[1]
	if want := tweeter.ComposeDelayOfGameReply(event); reply.text != want {
		t.Errorf("reply = %q, want %q", reply.text, want)
	}
	if reply.opts == nil || reply.opts.InReplyTo != "main-1" {
		t.Errorf("reply opts = %+v, want a reply to main-1", reply.opts)
	}

	if len(f.ninety.created) != 0 {
		t.Error("expected no ninety post below the threshold")
	}
	if f.store.mainID != "main-1" || f.store.ninetyID != "" {
		t.Errorf("stored tweet IDs = (%q, %q), want (\"main-1\", \"\")", f.store.mainID, f.store.ninetyID)
	}
}

func TestRunMainAccountRateLimited(t *testing.T) {
	f := newFixture(tweeter.Options{EnableMainAccount: true}, puntEvent(85.0))
	f.bucket.deny = true

	f.tweeter.Run(context.Background())

	if len(f.main.created) != 0 {
		t.Errorf("main account posted %d tweets, want 0 when rate limited", len(f.main.created))
	}
	if len(f.tracker.marked) != 1 {
		t.Error("expected the punt marked tweeted regardless")
	}
}

func TestRunNoCancelWhenDisabled(t *testing.T) {
	f := newFixture(tweeter.Options{DisableCancel: true}, puntEvent(97.4))

	f.tweeter.Run(context.Background())

	if len(f.ninety.created) != 1 {
		t.Fatalf("ninety account posted %d tweets, want 1", len(f.ninety.created))
	}
	if len(f.cancelAcct.created) != 0 {
		t.Error("expected no poll when cancellation is disabled")
	}
	if len(f.scheduler.scheduled) != 0 {
		t.Error("expected no verdicts scheduled when cancellation is disabled")
	}
}

func TestRunReportsPostFailure(t *testing.T) {
	f := newFixture(tweeter.Options{}, puntEvent(97.4))
	f.ninety.err = fmt.Errorf("over capacity")

	f.tweeter.Run(context.Background())

	found := false
	for _, msg := range f.reporter.messages {
		if msg == "An error occurred when trying to tweet" {
			found = true
		}
	}
	if !found {
		t.Errorf("reporter messages = %v, want the tweet failure reported", f.reporter.messages)
	}
	if len(f.tracker.marked) != 1 {
		t.Error("expected the punt marked tweeted so the feed is not replayed")
	}
	if len(f.source.acked) != 1 {
		t.Errorf("acked %d messages, want 1", len(f.source.acked))
	}
}
