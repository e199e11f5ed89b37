// Package tweeter consumes detected punts off the stream and posts them:
// every punt to the main account, and the cowardliest tenth to the ninety
// account, where followers can vote to cancel them.
package tweeter

import (
	"context"

	"go.uber.org/zap"

	"github.com/andrew-shackelford/Surrender-Index/internal/cancel"
	"github.com/andrew-shackelford/Surrender-Index/internal/consumer"
	"github.com/andrew-shackelford/Surrender-Index/internal/publisher"
	"github.com/andrew-shackelford/Surrender-Index/internal/twitter"
	"github.com/andrew-shackelford/Surrender-Index/pkg/models"
)

// MessageSource supplies punt events from the stream.
type MessageSource interface {
	ConsumeStream(ctx context.Context, streamKey string) (<-chan consumer.Message, <-chan error)
	AckMessage(ctx context.Context, streamKey, messageID string) error
}

// Account posts tweets.
type Account interface {
	CreateTweet(ctx context.Context, text string, opts *twitter.TweetOptions) (*twitter.Tweet, error)
}

// Store records which tweets belong to which punt.
type Store interface {
	SetTweetIDs(ctx context.Context, puntID int64, tweetID, ninetyTweetID string) error
}

// Tracker marks punts as tweeted so a replayed event is not posted twice.
type Tracker interface {
	MarkTweeted(ctx context.Context, gameID, driveID string) error
}

// Bucket rate limits main account posts.
type Bucket interface {
	Allow(ctx context.Context) (bool, error)
}

// Scheduler enqueues cancellation votes.
type Scheduler interface {
	Schedule(ctx context.Context, pending cancel.PendingCancel) error
}

// ErrorReporter notifies the operator about posting failures.
type ErrorReporter interface {
	Error(ctx context.Context, contextMsg string, err error)
}

// Options control which accounts actually post.
type Options struct {
	DisableTweeting   bool // compose and log without posting anything
	EnableMainAccount bool
	DisableCancel     bool
	NinetyThreshold   float64 // season percentile required for the ninety account
	PollDuration      int     // cancellation poll length in minutes
}

// Tweeter posts detected punts to the bot accounts.
type Tweeter struct {
	source    MessageSource
	main      Account
	ninety    Account
	cancelAcc Account
	scheduler Scheduler
	store     Store
	tracker   Tracker
	bucket    Bucket
	reporter  ErrorReporter
	opts      Options
	logger    *zap.SugaredLogger
}

// New creates a new tweeter
func New(
	source MessageSource,
	main, ninety, cancelAcc Account,
	scheduler Scheduler,
	store Store,
	tracker Tracker,
	bucket Bucket,
	reporter ErrorReporter,
	opts Options,
	logger *zap.SugaredLogger,
) *Tweeter {
	if opts.NinetyThreshold <= 0 {
		opts.NinetyThreshold = 90.0
	}
	if opts.PollDuration <= 0 {
		opts.PollDuration = 60
	}

	return &Tweeter{
		source:    source,
		main:      main,
		ninety:    ninety,
		cancelAcc: cancelAcc,
		scheduler: scheduler,
		store:     store,
		tracker:   tracker,
		bucket:    bucket,
		reporter:  reporter,
		opts:      opts,
		logger:    logger,
	}
}

// Run consumes punt events until the context is canceled.
func (t *Tweeter) Run(ctx context.Context) {
	messageCh, errorCh := t.source.ConsumeStream(ctx, publisher.PuntStream)
	t.logger.Infow("Tweeter started",
		"stream", publisher.PuntStream,
		"dry_run", t.opts.DisableTweeting,
		"main_account", t.opts.EnableMainAccount)

	for {
		select {
		case <-ctx.Done():
			t.logger.Infow("Stopping tweeter")
			return

		case err := <-errorCh:
			if err != nil {
				t.logger.Errorw("Stream error", "error", err)
			}

		case msg, ok := <-messageCh:
			if !ok {
				return
			}
			t.handle(ctx, msg.Event)
			if err := t.source.AckMessage(ctx, msg.StreamKey, msg.ID); err != nil {
				t.logger.Errorw("Failed to ack message", "message_id", msg.ID, "error", err)
			}
		}
	}
}

func (t *Tweeter) handle(ctx context.Context, event models.PuntEvent) {
	text := ComposeTweet(event)
	t.logger.Infow("Punt tweet composed",
		"game_id", event.GameID,
		"drive_id", event.DriveID,
		"tweet", text)

	var reply string
	if event.DelayOfGame && event.Penalty != nil {
		reply = ComposeDelayOfGameReply(event)
		t.logger.Infow("Delay of game reply composed", "tweet", reply)
	}

	var mainID, ninetyID string
	if !t.opts.DisableTweeting {
		mainID = t.postMain(ctx, event, text, reply)
		ninetyID = t.postNinety(ctx, event, text, reply)
	}

	if mainID != "" || ninetyID != "" {
		if err := t.store.SetTweetIDs(ctx, event.PuntID, mainID, ninetyID); err != nil {
			t.logger.Errorw("Failed to record tweet IDs", "punt_id", event.PuntID, "error", err)
		}
	}
	if err := t.tracker.MarkTweeted(ctx, event.GameID, event.DriveID); err != nil {
		t.logger.Errorw("Failed to mark punt as tweeted",
			"game_id", event.GameID,
			"drive_id", event.DriveID,
			"error", err)
	}
}

func (t *Tweeter) postMain(ctx context.Context, event models.PuntEvent, text, reply string) string {
	if !t.opts.EnableMainAccount || t.main == nil {
		return ""
	}

	allowed, err := t.bucket.Allow(ctx)
	if err != nil {
		t.logger.Warnw("Failed to check tweet rate limit", "error", err)
		return ""
	}
	if !allowed {
		t.logger.Warnw("Rate limited, skipping main account post",
			"game_id", event.GameID,
			"drive_id", event.DriveID)
		return ""
	}

	tweet, err := t.main.CreateTweet(ctx, text, nil)
	if err != nil {
		t.logger.Errorw("Failed to post to main account", "error", err)
		t.reporter.Error(ctx, "An error occurred when trying to tweet", err)
		return ""
	}

	if reply != "" {
		if _, err := t.main.CreateTweet(ctx, reply, &twitter.TweetOptions{InReplyTo: tweet.ID}); err != nil {
			t.logger.Errorw("Failed to post delay of game reply", "error", err)
		}
	}

	return tweet.ID
}

func (t *Tweeter) postNinety(ctx context.Context, event models.PuntEvent, text, reply string) string {
	if event.SeasonPercentile < t.opts.NinetyThreshold {
		return ""
	}

	tweet, err := t.ninety.CreateTweet(ctx, text, nil)
	if err != nil {
		t.logger.Errorw("Failed to post to ninety account", "error", err)
		t.reporter.Error(ctx, "An error occurred when trying to tweet", err)
		return ""
	}

	if reply != "" {
		if _, err := t.ninety.CreateTweet(ctx, reply, &twitter.TweetOptions{InReplyTo: tweet.ID}); err != nil {
			t.logger.Errorw("Failed to post delay of game reply", "error", err)
		}
	}

	if !t.opts.DisableCancel {
		t.openCancelPoll(ctx, event, tweet.ID, text)
	}

	return tweet.ID
}

// openCancelPoll replies to the ninety tweet with an hour-long poll and
// schedules the verdict check for after it closes.
func (t *Tweeter) openCancelPoll(ctx context.Context, event models.PuntEvent, ninetyID, text string) {
	poll, err := t.cancelAcc.CreateTweet(ctx, cancel.PollQuestion, &twitter.TweetOptions{
		InReplyTo:           ninetyID,
		PollOptions:         []string{"Yes", "No"},
		PollDurationMinutes: t.opts.PollDuration,
	})
	if err != nil {
		t.logger.Errorw("Failed to post cancellation poll", "error", err)
		t.reporter.Error(ctx, "An error occurred when trying to handle canceling a tweet", err)
		return
	}

	err = t.scheduler.Schedule(ctx, cancel.PendingCancel{
		PuntID:        event.PuntID,
		NinetyTweetID: ninetyID,
		PollTweetID:   poll.ID,
		Text:          text,
	})
	if err != nil {
		t.logger.Errorw("Failed to schedule cancel verdict", "error", err)
		t.reporter.Error(ctx, "An error occurred when trying to handle canceling a tweet", err)
	}
}
