package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kinobot/internal/analytics"
	"kinobot/internal/cvpdf"
	"kinobot/internal/flow"
	"kinobot/internal/gating"
	"kinobot/internal/models"
	"kinobot/internal/storage"
)

// Kind selects which bot the shared core runs as
type Kind string

const (
	KindMovie Kind = "kinobot"
	KindCV    Kind = "cvbot"
)

// Flow kinds
const (
	flowAddMovie    flow.Kind = "add_movie"
	flowDeleteMovie flow.Kind = "delete_movie"
	flowAddChannel  flow.Kind = "add_channel"
	flowBroadcast   flow.Kind = "broadcast"
	flowCV          flow.Kind = "cv"
)

// API is the subset of *tgbotapi.BotAPI the handlers use
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
	CopyMessage(config tgbotapi.CopyMessageConfig) (tgbotapi.MessageID, error)
}

// Options configures a Bot
type Options struct {
	Kind           Kind
	AdminIDs       []int64
	BroadcastDelay time.Duration
	Renderer       *cvpdf.Renderer // cvbot only
	Sink           analytics.Sink
	Logger         *zap.Logger
	LogChannelID   int64 // error logs are mirrored here when set
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	api    API
	tg     *tgbotapi.BotAPI // nil in tests
	token  string
	db     storage.Storage
	flows  *flow.Engine
	gate   *gating.Checker
	sink   analytics.Sink
	admins map[int64]bool
	routes []route
	logger *zap.Logger

	kind           Kind
	profile        profile
	renderer       *cvpdf.Renderer
	broadcastDelay time.Duration
	now            func() time.Time
}

// profile holds what differs between kinobot and cvbot
type profile struct {
	startHint  string
	subscribed string
	adminMenu  [][]string
	userMenu   [][]string // nil removes the keyboard
	fallback   handlerFunc
	topLabel   string
	countUnit  string
	emptyTop   string
	topContent func(ctx context.Context, limit int) ([]models.ContentStat, error)
}
