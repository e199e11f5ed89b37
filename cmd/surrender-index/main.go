package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andrew-shackelford/Surrender-Index/internal/api"
	"github.com/andrew-shackelford/Surrender-Index/internal/cache"
	"github.com/andrew-shackelford/Surrender-Index/internal/cancel"
	"github.com/andrew-shackelford/Surrender-Index/internal/config"
	"github.com/andrew-shackelford/Surrender-Index/internal/consumer"
	"github.com/andrew-shackelford/Surrender-Index/internal/dedup"
	"github.com/andrew-shackelford/Surrender-Index/internal/detector"
	"github.com/andrew-shackelford/Surrender-Index/internal/espn"
	"github.com/andrew-shackelford/Surrender-Index/internal/hub"
	"github.com/andrew-shackelford/Surrender-Index/internal/notifier"
	"github.com/andrew-shackelford/Surrender-Index/internal/poller"
	"github.com/andrew-shackelford/Surrender-Index/internal/publisher"
	"github.com/andrew-shackelford/Surrender-Index/internal/ratelimit"
	"github.com/andrew-shackelford/Surrender-Index/internal/store"
	"github.com/andrew-shackelford/Surrender-Index/internal/tweeter"
	"github.com/andrew-shackelford/Surrender-Index/internal/twitter"
	"github.com/andrew-shackelford/Surrender-Index/pkg/surrender"
)

func main() {
	credentialsPath := flag.String("credentials", "credentials.json", "Path to the credentials JSON file")
	dryRun := flag.Bool("dry-run", false, "Compose and log tweets without posting anything")
	debug := flag.Bool("debug", false, "Log at debug level with console formatting")
	mainAccount := flag.Bool("main-account", false, "Post every punt to the main account")
	noCancel := flag.Bool("no-cancel", false, "Skip cancellation polls on ninety account posts")
	notify := flag.Bool("notify", false, "Send heartbeat and error notifications over Twilio")
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load()

	creds, err := config.LoadCredentials(*credentialsPath)
	if err != nil {
		if *dryRun {
			logger.Warnw("Running without credentials", "error", err)
			creds = &config.Credentials{}
		} else {
			logger.Fatalw("Failed to load credentials", "path", *credentialsPath, "error", err)
		}
	}

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatalw("Failed to connect to Redis", "addr", cfg.RedisAddr, "error", err)
	}
	logger.Infow("Connected to Redis", "addr", cfg.RedisAddr)

	// Connect to Postgres
	db, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("Failed to connect to Postgres", "error", err)
	}
	defer db.Close()

	puntStore := store.New(db)
	if err := puntStore.InitSchema(ctx); err != nil {
		logger.Fatalw("Failed to initialize schema", "error", err)
	}
	logger.Infow("Connected to Postgres")

	// Seed the percentile rankings from the archive and the season so far.
	historical, err := puntStore.LoadHistoricalIndices(ctx, cfg.SeasonYear-1)
	if err != nil {
		logger.Fatalw("Failed to load historical indices", "error", err)
	}
	seasonValues, err := puntStore.LoadSeasonIndices(ctx, cfg.SeasonYear)
	if err != nil {
		logger.Fatalw("Failed to load season indices", "error", err)
	}
	percentiles := surrender.NewPercentileIndex(historical, seasonValues)
	logger.Infow("Percentile index loaded",
		"season", cfg.SeasonYear,
		"history_samples", len(historical),
		"season_samples", len(seasonValues))

	// Operator notifications
	var transports notifier.Multi
	if *notify {
		if creds.Twilio.Configured() {
			transports = append(transports, notifier.NewTwilioNotifier(
				creds.Twilio.AccountSID, creds.Twilio.AuthToken,
				creds.Twilio.FromNumber, creds.Twilio.ToNumber))
		} else {
			logger.Infow("SMS notifications disabled", "twilio_configured", false)
		}
	}
	if creds.SlackWebhookURL != "" {
		transports = append(transports, notifier.NewSlackNotifier(creds.SlackWebhookURL))
	}
	var transport notifier.Notifier = transports
	if len(transports) == 0 {
		transport = notifier.Noop{}
	}
	reporter := notifier.NewReporter(transport, logger)
	go reporter.RunHeartbeat(ctx, cfg.HeartbeatInterval)

	// Twitter accounts
	var mainAcct, ninetyAcct, cancelAcct *twitter.Account
	if creds.Main.Configured() {
		mainAcct = twitter.NewAccount(creds.Main.ConsumerKey, creds.Main.ConsumerSecret,
			creds.Main.AccessToken, creds.Main.AccessTokenSecret)
	}
	if creds.Ninety.Configured() {
		ninetyAcct = twitter.NewAccount(creds.Ninety.ConsumerKey, creds.Ninety.ConsumerSecret,
			creds.Ninety.AccessToken, creds.Ninety.AccessTokenSecret)
	}
	if creds.Cancel.Configured() {
		cancelAcct = twitter.NewAccount(creds.Cancel.ConsumerKey, creds.Cancel.ConsumerSecret,
			creds.Cancel.AccessToken, creds.Cancel.AccessTokenSecret)
	}
	if !*dryRun && ninetyAcct == nil {
		logger.Fatalw("Ninety account credentials are required unless running with -dry-run")
	}
	if !*dryRun && !*noCancel && cancelAcct == nil {
		logger.Fatalw("Cancel account credentials are required unless running with -no-cancel")
	}

	// Detection pipeline
	gameCache := cache.NewRedisWriter(redisClient)
	tracker := dedup.NewTracker(redisClient)
	puntPublisher := publisher.NewStreamPublisher(redisClient)
	engine := detector.NewEngine(puntStore, puntPublisher, tracker, reporter, percentiles, cfg.SeasonYear, logger)

	feed := espn.NewClientWithBaseURL(cfg.ESPNBaseURL)
	poll := poller.New(feed, gameCache, engine, reporter, poller.Config{
		ActiveInterval: cfg.ActivePollInterval,
		IdleInterval:   cfg.IdlePollInterval,
		RefreshHour:    cfg.ScoreboardRefreshHour,
		Concurrency:    cfg.SummaryConcurrency,
	}, logger)
	go poll.Run(ctx)

	// Posting pipeline
	bucket := ratelimit.NewTweetBucket(redisClient, cfg.TweetBucketCapacity, cfg.TweetBucketRefill, logger)
	go bucket.Run(ctx)

	cancelQueue := cancel.NewQueue(redisClient, cfg.CancelCheckDelay)
	if !*noCancel && ninetyAcct != nil && cancelAcct != nil {
		watcher := cancel.NewWatcher(cancelQueue, ninetyAcct, cancelAcct, puntStore, reporter,
			cancel.Config{Threshold: cfg.CancelThreshold}, logger)
		go watcher.Run(ctx)
	}

	// Interface values stay nil for unconfigured accounts so the tweeter's
	// nil checks work; a typed nil pointer would slip past them.
	var tweetMain, tweetNinety, tweetCancel tweeter.Account
	if mainAcct != nil {
		tweetMain = mainAcct
	}
	if ninetyAcct != nil {
		tweetNinety = ninetyAcct
	}
	if cancelAcct != nil {
		tweetCancel = cancelAcct
	}

	tweetConsumer := consumer.NewStreamConsumer(redisClient, "tweeter-1", "tweeters")
	tw := tweeter.New(tweetConsumer, tweetMain, tweetNinety, tweetCancel, cancelQueue,
		puntStore, tracker, bucket, reporter, tweeter.Options{
			DisableTweeting:   *dryRun,
			EnableMainAccount: *mainAccount,
			DisableCancel:     *noCancel,
			NinetyThreshold:   cfg.NinetyThreshold,
			PollDuration:      cfg.PollDurationMinutes,
		}, logger)
	go tw.Run(ctx)

	// Live feed
	h := hub.NewHub(logger)
	go h.Run(ctx)

	hubConsumer := consumer.NewStreamConsumer(redisClient, "broadcaster-1", "broadcasters")
	go h.Feed(ctx, hubConsumer, publisher.PuntStream)

	// HTTP API
	handler := api.NewHandler(puntStore, gameCache, h, bucket, percentiles, cfg.SeasonYear, ctx, logger)
	router := api.NewRouter(handler, cfg.CORSOrigins, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Infow("API server listening", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatalw("Server error", "error", err)

	case sig := <-shutdown:
		logger.Infow("Shutting down", "signal", sig.String())
	}

	cancelCtx()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("Graceful shutdown failed", "error", err)
		srv.Close()
	}

	redisClient.Close()
	logger.Infow("Shutdown complete")
}

func newLogger(debug bool) (*zap.SugaredLogger, error) {
	var (
		log *zap.Logger
		err error
	)
	if debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}
