package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleCallbackQuery processes inline keyboard presses
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	if query.From == nil {
		return
	}

	b.logger.Debug("Received callback query",
		zap.Int64("user_id", query.From.ID),
		zap.String("data", query.Data),
	)

	switch {
	case query.Data == CallbackCheckSub:
		b.handleCheckSubCallback(ctx, query)
	case strings.HasPrefix(query.Data, CallbackDeleteChannel):
		b.handleDeleteChannelCallback(ctx, query)
	default:
		b.answerCallback(query.ID, "", false)
	}
}

// handleCheckSubCallback re-checks membership after the user claims to have joined
func (b *Bot) handleCheckSubCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	userID := query.From.ID

	if !b.isAdmin(userID) {
		missing, err := b.gate.Unsubscribed(ctx, userID)
		if err != nil {
			b.logger.Error("Failed to check subscriptions", zap.Int64("user_id", userID), zap.Error(err))
			b.answerCallback(query.ID, MsgError, true)
			return
		}
		if len(missing) > 0 {
			b.answerCallback(query.ID, MsgNotSubscribed, true)
			return
		}
	}

	b.answerCallback(query.ID, "", false)
	if query.Message != nil {
		b.request(tgbotapi.NewDeleteMessage(query.Message.Chat.ID, query.Message.MessageID))
		b.replyWith(query.Message.Chat.ID, b.profile.subscribed, b.menuMarkup())
	}
}

func (b *Bot) handleDeleteChannelCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if !b.isAdmin(query.From.ID) {
		b.logger.Warn("Unauthorized callback query attempt",
			zap.Int64("user_id", query.From.ID),
			zap.String("callback_data", query.Data),
		)
		b.answerCallback(query.ID, MsgAdminOnly, true)
		return
	}

	chatID := strings.TrimPrefix(query.Data, CallbackDeleteChannel)
	deleted, err := b.db.DeleteChannel(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to delete channel", zap.String("chat_id", chatID), zap.Error(err))
		b.answerCallback(query.ID, MsgError, true)
		return
	}
	if !deleted {
		b.answerCallback(query.ID, MsgChannelMissing, true)
		return
	}

	b.logger.Info("Channel removed", zap.String("chat_id", chatID), zap.Int64("admin_id", query.From.ID))
	b.answerCallback(query.ID, MsgChannelDeleted, true)
	if query.Message != nil {
		b.request(tgbotapi.NewDeleteMessage(query.Message.Chat.ID, query.Message.MessageID))
	}
}
