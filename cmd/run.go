package cmd

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"engagebot/bot"
	"engagebot/bot/features/admin"
	"engagebot/bot/features/bidding"
	"engagebot/bot/features/games"
	"engagebot/bot/features/gift"
	"engagebot/bot/features/help"
	"engagebot/bot/features/say"
	"engagebot/bot/features/scoring"
	"engagebot/bot/features/utility"
	"engagebot/command"
	"engagebot/config"
	"engagebot/database"
	"engagebot/events"
	"engagebot/ledger"
	"engagebot/metrics"
	"engagebot/repository"
	"engagebot/service"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// Run starts the bot and blocks until ctx is cancelled, the console is
// closed or the discord connection is lost for good
func Run(ctx context.Context) error {
	cfg := config.Get()
	config.SetupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log.Infof("Starting %s %s...", cfg.BotName, config.Version)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	eventBus := events.NewBus()
	metricsManager := metrics.NewManager()
	metricsManager.Subscribe(eventBus)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := metricsManager.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	scores := ledger.New(ledger.WithPublisher(eventBus))
	blacklist := service.NewBlacklist(cfg.Blacklist...)
	snapshots := service.NewSnapshotService(store, scores, blacklist)
	if err := snapshots.Restore(ctx); err != nil {
		return err
	}

	// The loop outlives ctx so the final save can run on it.
	loop := events.NewLoop(1024)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go loop.Run(loopCtx)

	resolver := service.NewPermissionResolver(service.AdminPolicy{
		RoleIDs:     cfg.AdminRoles,
		Permissions: cfg.AdminPermissions,
		UserIDs:     cfg.AdminUsers,
	})
	engine := service.NewBiddingEngine(scores, loop, eventBus, cfg.Unit)
	scorer := service.NewActivityScorer(scores, service.RulesFromConfig(cfg))
	voice := service.NewVoiceTracker(scorer)
	transfers := service.NewTransferService(scores, cfg.Unit)
	gambling := service.NewGamblingService(scores, cfg.Slots, cfg.Unit, rand.IntN)

	session, err := bot.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}
	sender := bot.NewSender(session, eventBus, cfg.SendRatePerSecond, cfg.SendBurst)
	platform := bot.NewPlatform(session, sender)
	var console *bot.Console
	if cfg.ConsoleEnabled {
		console = bot.NewConsole(os.Stdin, os.Stdout, cfg.BotName, loop)
	}
	directory := bot.NewDirectory(session)

	introspector := admin.NewIntrospector(map[string]admin.Root{
		"scores":    func() any { return scores.Snapshot() },
		"config":    func() any { return cfg },
		"bidding":   func() any { return engine.Status() },
		"voice":     func() any { return voice.Snapshot() },
		"blacklist": func() any { return blacklist.List() },
	})

	registry := command.NewRegistry()
	registry.RegisterModules(
		scoring.New(scores, scorer, directory, cfg),
		bidding.New(engine, scores, bot.NewAnnouncer(sender, console)),
		gift.New(transfers, directory, cfg.Unit),
		games.New(gambling),
		admin.New(scores, blacklist, introspector, pruneAge(cfg), cfg.Unit),
		help.New(platform, help.Info{
			Name:    cfg.BotName,
			Version: config.Version,
			Prefix:  cfg.CommandPrefix,
			About:   cfg.AboutMessage,
		}),
		utility.New(platform),
		say.New(platform, cfg.DefaultMessage),
	)
	log.WithField("commands", registry.Len()).Info("Commands registered")

	dispatcher := command.NewDispatcher(registry, resolver, eventBus, command.DispatcherConfig{
		Prefix:                   cfg.CommandPrefix,
		DisplayErrors:            cfg.DisplayChatErrors,
		InvalidCommandMessage:    cfg.InvalidCommandMessage,
		InvalidPermissionMessage: cfg.InvalidPermissionMessage,
	})

	discordBot := bot.New(session, sender, bot.Deps{
		Config:     cfg,
		Loop:       loop,
		Dispatcher: dispatcher,
		Resolver:   resolver,
		Scorer:     scorer,
		Voice:      voice,
		Blacklist:  blacklist,
	})
	if err := discordBot.Open(); err != nil {
		return fmt.Errorf("failed to initialize Discord bot: %w", err)
	}

	stopTimers := startTimers(loop, cfg, scores, voice, snapshots)

	consoleDone := make(chan error, 1)
	if console != nil {
		go func() {
			consoleDone <- console.Run(ctx, dispatcher)
		}()
	}

	log.Infof("Bot is running in %s mode...", cfg.Environment)
	var runErr error
	select {
	case <-ctx.Done():
	case err := <-discordBot.Fatal():
		runErr = err
	case err := <-consoleDone:
		runErr = err
		log.Info("Console input closed")
	}

	log.Info("Shutting down bot...")
	stopTimers()
	if err := discordBot.Close(); err != nil {
		log.Errorf("Error closing Discord bot: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err = loop.Call(shutdownCtx, func(ctx context.Context) {
		if err := snapshots.Save(ctx); err != nil {
			log.WithError(err).Error("Final save failed")
			return
		}
		log.Info("Saving data....DONE!")
	})
	if err != nil {
		log.WithError(err).Error("Final save did not run")
	}
	sender.Close()

	return runErr
}

// openStore picks the snapshot backend. The returned close function is always safe to call.
func openStore(ctx context.Context, cfg *config.Config) (service.SnapshotStore, func(), error) {
	if cfg.StorageBackend != config.StoragePostgres {
		log.WithField("path", cfg.DataPath).Info("Using file storage")
		return repository.NewFileSnapshotStore(cfg.DataPath), func() {}, nil
	}

	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("Database connection established successfully")
	return repository.NewPostgresSnapshotStore(db), db.Close, nil
}

func pruneAge(cfg *config.Config) time.Duration {
	if !cfg.IsValidInterval(cfg.Intervals.Prune) {
		return 0
	}
	return cfg.Intervals.Prune
}

// startTimers schedules the periodic jobs whose intervals are valid and
// returns a function that stops them
func startTimers(loop *events.Loop, cfg *config.Config, scores *ledger.Ledger, voice *service.VoiceTracker, snapshots *service.SnapshotService) func() {
	var stops []func()

	if cfg.IsValidInterval(cfg.Intervals.Speaking) {
		stops = append(stops, loop.Every(cfg.Intervals.Speaking, func(ctx context.Context) {
			voice.Tick()
		}))
	}

	if cfg.IsValidInterval(cfg.Intervals.Save) {
		stops = append(stops, loop.Every(cfg.Intervals.Save, func(ctx context.Context) {
			if err := snapshots.Save(ctx); err != nil {
				log.WithError(err).Error("Failed to write score data")
			}
		}))
	}

	if cfg.IsValidInterval(cfg.Intervals.Prune) {
		prune := func(ctx context.Context) {
			scores.PruneExpired(cfg.Intervals.Prune)
		}
		if err := loop.Post(prune); err != nil {
			log.WithError(err).Warn("Startup prune skipped")
		}
		stops = append(stops, loop.Every(cfg.Intervals.Prune, prune))
	}

	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}
