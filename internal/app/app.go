package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kinobot/internal/analytics"
	"kinobot/internal/analytics/ch"
	"kinobot/internal/bot"
	"kinobot/internal/config"
	"kinobot/internal/cvpdf"
	"kinobot/internal/logger"
	"kinobot/internal/storage"
	"kinobot/internal/storage/pg"
	"kinobot/internal/storage/sqlite"
	"kinobot/internal/storage/stubs"
)

// App represents the application
type App struct {
	config *config.Config
	kind   bot.Kind
	logger *zap.Logger
	db     storage.Storage
	sink   analytics.Sink
	bot    *bot.Bot
	server *http.Server
}

// New creates and initializes a new application instance for the given bot
func New(kind bot.Kind) (*App, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	zl, err := logger.New(cfg.IsProd())
	if err != nil {
		return nil, err
	}

	app := &App{config: cfg, kind: kind, logger: zl}
	zl.Info("Starting bot", zap.String("kind", string(kind)), zap.String("env", cfg.Env))

	ctx := context.Background()
	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	app.initAnalytics(ctx)

	if err := app.initBot(); err != nil {
		return nil, err
	}

	app.initHTTPServer()
	return app, nil
}

// initDatabase opens the store selected by DB_DRIVER and creates its tables
func (a *App) initDatabase(ctx context.Context) error {
	var db storage.Storage
	switch a.config.DBDriver {
	case "mock":
		a.logger.Info("Using mock database")
		db = stubs.NewMockDB()
	case "postgres":
		a.logger.Info("Connecting to Postgres")
		pgDB, err := pg.NewPostgresDB(ctx, a.config.DatabaseURL)
		if err != nil {
			return err
		}
		db = pgDB
	default:
		a.logger.Info("Opening SQLite database", zap.String("path", a.config.SQLitePath))
		sqliteDB, err := sqlite.NewSQLiteDB(a.config.SQLitePath)
		if err != nil {
			return err
		}
		db = sqliteDB
	}

	if err := db.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.logger.Info("Database initialized successfully", zap.String("driver", a.config.DBDriver))

	a.db = db
	return nil
}

// initAnalytics connects the ClickHouse sink; the bot keeps working without it
func (a *App) initAnalytics(ctx context.Context) {
	a.sink = analytics.Nop{}
	if !a.config.AnalyticsEnabled {
		return
	}

	a.logger.Info("Connecting to ClickHouse",
		zap.String("host", a.config.ClickHouseHost),
		zap.Int("port", a.config.ClickHousePort),
		zap.String("database", a.config.ClickHouseDatabase),
		zap.String("user", a.config.ClickHouseUser),
		zap.Bool("tls", a.config.ClickHouseUseTLS),
	)
	sink, err := ch.NewSink(ctx, ch.Options(
		a.config.ClickHouseHost,
		a.config.ClickHousePort,
		a.config.ClickHouseDatabase,
		a.config.ClickHouseUser,
		a.config.ClickHousePassword,
		a.config.ClickHouseUseTLS,
	))
	if err != nil {
		a.logger.Warn("Analytics disabled", zap.Error(err))
		return
	}
	a.sink = sink
}

// initBot initializes the Telegram bot
func (a *App) initBot() error {
	telegramBot, err := bot.NewBot(a.config.BotToken, a.db, bot.Options{
		Kind:           a.kind,
		AdminIDs:       a.config.AdminIDs,
		BroadcastDelay: a.config.BroadcastDelay,
		Renderer:       cvpdf.NewRenderer(a.config.CVOutputDir),
		Sink:           a.sink,
		Logger:         a.logger,
		LogChannelID:   a.config.LogChannelID,
	})
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	a.logger.Info("Bot created successfully", zap.Int64s("admins", a.config.AdminIDs))

	a.bot = telegramBot
	return nil
}

// initHTTPServer builds the router for health checks, the webhook and the admin API
func (a *App) initHTTPServer() {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok", "bot": string(a.kind)})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		mode := "polling"
		if a.config.WebhookMode {
			mode = "webhook"
		}
		render.PlainText(w, r, fmt.Sprintf("%s is running (mode: %s)", a.kind, mode))
	})

	r.Post(bot.WebhookPath, a.handleWebhook)

	skipAuth := a.config.Env == "local" && !a.config.WebhookMode
	bot.NewHTTPServer(a.bot, skipAuth).RegisterRoutes(r)

	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func (a *App) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		a.logger.Warn("Error decoding webhook update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Process update in background to respond quickly to Telegram
	go a.bot.HandleUpdate(update)

	w.WriteHeader(http.StatusOK)
}

// Run starts the HTTP server and the bot and blocks until SIGINT/SIGTERM
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if !a.config.WebhookMode {
			return a.bot.Start(gctx)
		}

		a.logger.Info("Starting bot in WEBHOOK mode", zap.String("url", a.config.WebhookURL))
		if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
			return fmt.Errorf("failed to setup webhook: %w", err)
		}
		<-gctx.Done()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down...")
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	if err := a.sink.Close(); err != nil {
		a.logger.Warn("Error closing analytics", zap.Error(err))
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	_ = a.logger.Sync()
	return nil
}
