package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/omriShneor/telcal/internal/bot"
	"github.com/omriShneor/telcal/internal/cache"
	"github.com/omriShneor/telcal/internal/calendar"
	"github.com/omriShneor/telcal/internal/config"
	"github.com/omriShneor/telcal/internal/database"
	"github.com/omriShneor/telcal/internal/gcal"
	"github.com/omriShneor/telcal/internal/intent"
	"github.com/omriShneor/telcal/internal/llm"
	"github.com/omriShneor/telcal/internal/log"
	"github.com/omriShneor/telcal/internal/notify"
	"github.com/omriShneor/telcal/internal/profile"
	"github.com/omriShneor/telcal/internal/server"
	"github.com/omriShneor/telcal/internal/session"
	"github.com/omriShneor/telcal/internal/telegram"
	"github.com/omriShneor/telcal/internal/transcribe"
	"github.com/omriShneor/telcal/internal/voice"
)

func main() {
	if err := run(); err != nil {
		logger := log.WithComponent("main")
		logger.Fatal().Err(err).Msg("Exiting")
	}
}

// run owns every resource so deferred closes happen before the process
// exits with an error.
func run() error {
	cfg := config.LoadFromEnv()
	log.Configure(log.Config{Level: cfg.LogLevel})
	logger := log.WithComponent("main")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Phase 1: Core infrastructure
	db, err := database.New(cfg.DBPath, cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	redisClient, err := initRedis(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Phase 2: Calendar and profiles
	profiles := profile.NewStore(db, cache.NewMemory[database.UserProfile](cfg.ProfileTTL))

	oauth, err := gcal.NewOAuth(cfg.GoogleCredentialsFile, cfg.RedirectURL())
	if err != nil {
		return fmt.Errorf("loading Google credentials: %w", err)
	}
	calendarService := calendar.NewService(profiles, oauth,
		func(ctx context.Context, token *oauth2.Token) (calendar.Backend, error) {
			client, err := oauth.Calendar(ctx, token)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		calendar.WithLogger(log.WithComponent("calendar")),
	)

	// Phase 3: Chat transport and bot
	var b *bot.Bot
	tgClient, err := telegram.NewClient(telegram.ClientConfig{
		APIID:       cfg.TelegramAppID,
		APIHash:     cfg.TelegramAppHash,
		BotToken:    cfg.TelegramBotToken,
		SessionPath: cfg.TelegramSessionPath,
		Handler:     telegram.HandlerFunc(func(ctx context.Context, u bot.Update) { b.Handle(ctx, u) }),
		Redis:       redisClient,
	})
	if err != nil {
		return fmt.Errorf("creating Telegram client: %w", err)
	}

	transcriber := transcribe.NewClient(cfg.AssemblyAIAPIKey, cfg.AssemblyAIURL, cfg.TranscriptPollWait)

	b = bot.New(bot.Config{
		MaintenanceMode:   cfg.MaintenanceMode,
		AdminUserID:       cfg.AdminUserID,
		AdminChatID:       cfg.AdminChatID,
		UserRatePerMinute: cfg.UserRatePerMinute,
	}, bot.Deps{
		Transport: tgClient,
		Sessions:  session.NewManager(initSessionCache(cfg, redisClient)),
		Profiles:  profiles,
		Calendar:  calendarService,
		Completer: llm.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIURL),
		Voice:     voice.NewPipeline(tgClient, transcriber),
		Prompts:   intent.NewBuilder(time.Now),
		Relay:     initNotifyService(cfg),
	})

	if cfg.MaintenanceMode {
		logger.Warn().Msg("Maintenance mode enabled, only the admin is served")
	}

	// Phase 4: Run until signalled
	srv := server.New(server.ServerConfig{DB: db, Port: cfg.HTTPPort})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tgClient.Run(gctx)
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("running: %w", err)
	}
	logger.Info().Msg("Stopped")
	return nil
}

func initRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	return cache.DialRedis(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

// initSessionCache keeps conversation state in Redis when configured so
// several bot replicas and restarts share it.
func initSessionCache(cfg *config.Config, client *redis.Client) cache.Store[session.Entry] {
	logger := log.WithComponent("main")
	if client == nil {
		logger.Info().Msg("Session cache: in memory")
		return cache.NewMemory[session.Entry](cfg.SessionTTL)
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("Session cache: redis")
	return cache.NewRedis[session.Entry](client, "telcal:session:", cfg.SessionTTL, log.WithComponent("cache"))
}

func initNotifyService(cfg *config.Config) *notify.Service {
	var emailNotifier notify.Notifier
	if r := notify.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailFrom); r != nil {
		emailNotifier = r
	}
	svc := notify.NewService(emailNotifier, cfg.AdminEmail)
	if svc.IsEmailAvailable() {
		logger := log.WithComponent("main")
		logger.Info().Msg("Relay email copies configured (Resend)")
	}
	return svc
}
