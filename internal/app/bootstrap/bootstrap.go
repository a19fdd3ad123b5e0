// Package bootstrap is the composition root. Keep construction and
// wiring here so module code stays framework-agnostic.
package bootstrap

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	adservice "adboard/contexts/marketplace/ad-service"
	postgresadapter "adboard/contexts/marketplace/ad-service/adapters/postgres"
	collector "adboard/contexts/marketplace/photo-collector"
	"adboard/internal/platform/config"
	"adboard/internal/platform/db"
	"adboard/internal/platform/httpserver"
	"adboard/internal/platform/logging"
	"adboard/internal/platform/photostore"
	"adboard/internal/platform/ratelimit"
	"adboard/internal/platform/telegram"
)

// submitRules are the per-user submission limits. Messages go to the
// user verbatim.
func submitRules() []ratelimit.Rule {
	return []ratelimit.Rule{
		{MaxRequests: 3, Window: 5 * time.Minute, Message: "⏳ Слишком много объявлений. Попробуйте через 5 минут."},
		{MaxRequests: 10, Window: time.Hour, Message: "⏳ Лимит объявлений на час исчерпан. Попробуйте позже."},
	}
}

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   zerolog.Logger
}

type BotApp struct {
	bot      *telegram.Bot
	postgres *db.Postgres
	logger   zerolog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.ServiceName, cfg.LogLevel).With().Str("process", "api").Logger()

	core, err := buildCore(cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(
		core.module,
		core.photos,
		core.limiter,
		logger,
		":"+cfg.HTTPPort,
		cfg.BotToken,
		cfg.AdminToken,
		cfg.AdminIDs,
	)
	return &APIApp{server: server, postgres: core.postgres, logger: logger}, nil
}

func (a *APIApp) Run() error {
	defer a.Close()
	return a.server.Start()
}

func (a *APIApp) Close() {
	if err := a.postgres.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("postgres close failed")
	}
}

func BuildBot() (*BotApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.ServiceName, cfg.LogLevel).With().Str("process", "bot").Logger()

	core, err := buildCore(cfg, logger)
	if err != nil {
		return nil, err
	}

	bot := telegram.NewBot(core.messenger, core.collector, core.module.Moderate, logger)
	core.router.Bind(bot)
	return &BotApp{bot: bot, postgres: core.postgres, logger: logger}, nil
}

func (a *BotApp) Run(ctx context.Context) error {
	defer a.Close()
	a.bot.Start(ctx)
	return nil
}

func (a *BotApp) Close() {
	if err := a.postgres.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("postgres close failed")
	}
}

// core holds the shared wiring both processes build on.
type core struct {
	postgres   *db.Postgres
	repository *postgresadapter.Repository
	photos     *photostore.Store
	limiter    *ratelimit.Limiter
	messenger  *telegram.Messenger
	collector  *collector.Collector
	router     *telegram.Router
	module     adservice.Module
}

func buildCore(cfg config.Config, logger zerolog.Logger) (*core, error) {
	if cfg.PostgresDSN == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	if cfg.BotToken == "" {
		return nil, errors.New("BOT_TOKEN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := pg.RunMigrations("migrations"); err != nil {
		return nil, err
	}

	photos, err := photostore.New(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	clock := postgresadapter.SystemClock{}
	limiter := ratelimit.New(submitRules()...)

	router := &telegram.Router{}
	client, err := telegram.NewBotClient(cfg.BotToken, router)
	if err != nil {
		return nil, err
	}
	messenger := telegram.NewMessenger(client, photos, cfg.AdminIDs, logger)
	sessions := collector.New(repo, messenger, clock, logger)

	module := adservice.NewModule(adservice.Dependencies{
		Repository: repo,
		Limiter:    limiter,
		Blobs:      photos,
		Transport:  messenger,
		Notifier:   messenger,
		Collector:  sessions,
		ChannelID:  cfg.ChannelID,
		Clock:      clock,
		Logger:     logger,
	})

	return &core{
		postgres:   pg,
		repository: repo,
		photos:     photos,
		limiter:    limiter,
		messenger:  messenger,
		collector:  sessions,
		router:     router,
		module:     module,
	}, nil
}
