package bot

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kinobot/internal/analytics"
	"kinobot/internal/flow"
	"kinobot/internal/gating"
	"kinobot/internal/logger"
	"kinobot/internal/storage"
)

// NewBot connects to the Bot API and creates a bot of opts.Kind
func NewBot(token string, db storage.Storage, opts Options) (*Bot, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		opts.Logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	opts.Logger = logger.WithTelegram(opts.Logger, api, opts.LogChannelID)
	opts.Logger.Info("Bot created", zap.String("bot_username", api.Self.UserName), zap.String("kind", string(opts.Kind)))

	b := New(api, db, opts)
	b.tg = api
	b.token = token
	return b, nil
}

// New builds a bot around an existing API client
func New(api API, db storage.Storage, opts Options) *Bot {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sink := opts.Sink
	if sink == nil {
		sink = analytics.Nop{}
	}

	admins := make(map[int64]bool)
	for _, id := range opts.AdminIDs {
		admins[id] = true
	}

	b := &Bot{
		api:            api,
		db:             db,
		flows:          flow.NewEngine(),
		gate:           gating.NewChecker(db, api, logger),
		sink:           sink,
		admins:         admins,
		logger:         logger,
		kind:           opts.Kind,
		renderer:       opts.Renderer,
		broadcastDelay: opts.BroadcastDelay,
		now:            time.Now,
	}

	b.command("start", false, b.handleStart)
	b.command("admin", true, b.handleAdmin)
	b.button(BtnCancel, false, b.handleCancel)
	b.button(BtnBack, false, b.handleBack)

	switch opts.Kind {
	case KindCV:
		b.registerCVBot()
	default:
		b.kind = KindMovie
		b.registerMovieBot()
	}

	b.registerAdminTools()
	return b
}

// Token returns the bot token used to authenticate Web App requests
func (b *Bot) Token() string {
	return b.token
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.admins[userID]
}
