package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// HandleUpdate processes a single update; it is safe to call from many goroutines
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	ctx := context.Background()

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
}

// handleMessage processes a single message
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			if message.Chat != nil {
				b.reply(message.Chat.ID, MsgError)
			}
		}
	}()

	if message.From == nil || message.Chat == nil {
		return
	}

	b.logger.Debug("Received message",
		zap.Int64("user_id", message.From.ID),
		zap.String("username", message.From.UserName),
		zap.String("text", message.Text),
	)

	b.dispatch(ctx, message)
}
