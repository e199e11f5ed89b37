package cancel

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/andrew-shackelford/Surrender-Index/internal/twitter"
)

// CanceledText is quoted over the replacement tweet once a vote passes.
const CanceledText = "CANCELED"

const maxAttempts = 3

// NinetyAccount posts and deletes tweets on the ninety account.
type NinetyAccount interface {
	CreateTweet(ctx context.Context, text string, opts *twitter.TweetOptions) (*twitter.Tweet, error)
	DeleteTweet(ctx context.Context, tweetID string) error
}

// CancelAccount posts replacement tweets and reads its own polls.
type CancelAccount interface {
	CreateTweet(ctx context.Context, text string, opts *twitter.TweetOptions) (*twitter.Tweet, error)
	GetTweetPoll(ctx context.Context, tweetID string) ([]twitter.PollOption, error)
}

// PendingSource supplies due votes and takes back failed ones.
type PendingSource interface {
	PopDue(ctx context.Context, now time.Time) ([]PendingCancel, error)
	Retry(ctx context.Context, pending PendingCancel) error
}

// Store records verdicts.
type Store interface {
	MarkCanceled(ctx context.Context, puntID int64) error
}

// ErrorReporter notifies the operator about verdicts that could not be
// carried out.
type ErrorReporter interface {
	Error(ctx context.Context, contextMsg string, err error)
}

// Config tunes the watcher.
type Config struct {
	Interval  time.Duration // how often due votes are checked
	Pause     time.Duration // wait between the replacement tweet and its quote
	Threshold float64       // percentage of Yes votes required to cancel
}

// Watcher resolves cancellation votes once their polls close.
type Watcher struct {
	queue    PendingSource
	ninety   NinetyAccount
	cancel   CancelAccount
	store    Store
	reporter ErrorReporter
	cfg      Config
	logger   *zap.SugaredLogger
}

// NewWatcher creates a new cancellation watcher
func NewWatcher(
	queue PendingSource,
	ninety NinetyAccount,
	cancel CancelAccount,
	store Store,
	reporter ErrorReporter,
	cfg Config,
	logger *zap.SugaredLogger,
) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Pause <= 0 {
		cfg.Pause = 10 * time.Second
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 66.67
	}

	return &Watcher{
		queue:    queue,
		ninety:   ninety,
		cancel:   cancel,
		store:    store,
		reporter: reporter,
		cfg:      cfg,
		logger:   logger,
	}
}

// Run checks for due votes until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Infow("Stopping cancel watcher")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep resolves every vote whose poll has closed.
func (w *Watcher) Sweep(ctx context.Context) {
	due, err := w.queue.PopDue(ctx, time.Now())
	if err != nil {
		w.logger.Errorw("Failed to fetch due cancel votes", "error", err)
		return
	}

	for _, pending := range due {
		if err := w.resolve(ctx, pending); err != nil {
			w.retry(ctx, pending, err)
		}
	}
}

func (w *Watcher) resolve(ctx context.Context, pending PendingCancel) error {
	options, err := w.cancel.GetTweetPoll(ctx, pending.PollTweetID)
	if err != nil {
		return err
	}

	w.logger.Infow("Checking poll results",
		"punt_id", pending.PuntID,
		"poll_tweet_id", pending.PollTweetID,
		"options", options)

	if !CancelApproved(options, w.cfg.Threshold) {
		w.logger.Infow("Cancel vote failed, tweet stands", "punt_id", pending.PuntID)
		return nil
	}

	return w.cancelPunt(ctx, pending)
}

// cancelPunt deletes the original ninety tweet, has the cancel account
// repost the full text, and quotes that repost with the verdict.
func (w *Watcher) cancelPunt(ctx context.Context, pending PendingCancel) error {
	if err := w.ninety.DeleteTweet(ctx, pending.NinetyTweetID); err != nil {
		return err
	}

	replacement, err := w.cancel.CreateTweet(ctx, pending.Text, nil)
	if err != nil {
		return err
	}

	// Give the replacement time to land before quoting it.
	if err := sleep(ctx, w.cfg.Pause); err != nil {
		return err
	}

	_, err = w.ninety.CreateTweet(ctx, CanceledText, &twitter.TweetOptions{
		QuoteTweetID: replacement.ID,
	})
	if err != nil {
		return err
	}

	if err := w.store.MarkCanceled(ctx, pending.PuntID); err != nil {
		w.logger.Errorw("Failed to record canceled punt", "punt_id", pending.PuntID, "error", err)
	}

	w.logger.Infow("Punt canceled by vote", "punt_id", pending.PuntID)
	return nil
}

func (w *Watcher) retry(ctx context.Context, pending PendingCancel, cause error) {
	pending.Attempts++
	if pending.Attempts >= maxAttempts {
		w.logger.Errorw("Giving up on cancel verdict",
			"punt_id", pending.PuntID,
			"attempts", pending.Attempts,
			"error", cause)
		w.reporter.Error(ctx, "An error occurred when trying to handle canceling a tweet", cause)
		return
	}

	w.logger.Warnw("Cancel verdict failed, will retry",
		"punt_id", pending.PuntID,
		"attempts", pending.Attempts,
		"error", cause)
	if err := w.queue.Retry(ctx, pending); err != nil {
		w.logger.Errorw("Failed to reschedule cancel verdict", "punt_id", pending.PuntID, "error", err)
		w.reporter.Error(ctx, "An error occurred when trying to handle canceling a tweet", err)
	}
}

// CancelApproved reports whether the poll passed: the Yes share, rounded
// to one decimal the way Twitter displays it, must reach the threshold.
// A poll with no votes never cancels.
func CancelApproved(options []twitter.PollOption, threshold float64) bool {
	var yes, total int
	for _, opt := range options {
		total += opt.Votes
		if strings.EqualFold(opt.Label, "Yes") {
			yes += opt.Votes
		}
	}
	if total == 0 {
		return false
	}

	share := math.Round(float64(yes)/float64(total)*1000) / 10
	return share >= threshold
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
