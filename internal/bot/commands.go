package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kinobot/internal/models"
	"kinobot/internal/storage"
)

// handleStart asks new users for their phone and greets registered ones
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.db.GetUser(ctx, msg.From.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		b.logger.Error("Failed to get user", zap.Int64("user_id", msg.From.ID), zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return
	}

	if !user.HasPhone() {
		b.replyWith(msg.Chat.ID, FormatGreeting(fullName(msg.From)), contactKeyboard())
		return
	}
	b.replyWith(msg.Chat.ID, b.profile.startHint, b.menuMarkup())
}

// handleContact registers the sender with the phone from their own contact card
func (b *Bot) handleContact(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Contact.UserID != msg.From.ID {
		b.reply(msg.Chat.ID, MsgOwnContact)
		return
	}

	user := models.User{
		ID:       msg.From.ID,
		Username: msg.From.UserName,
		FullName: fullName(msg.From),
		Phone:    msg.Contact.PhoneNumber,
		JoinDate: b.now(),
	}
	if err := b.db.UpsertUser(ctx, user); err != nil {
		b.logger.Error("Failed to save user", zap.Int64("user_id", user.ID), zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return
	}

	b.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	b.replyWith(msg.Chat.ID, MsgRegistered, b.menuMarkup())
}

func (b *Bot) handleAdmin(_ context.Context, msg *tgbotapi.Message) {
	b.replyWith(msg.Chat.ID, MsgAdminWelcome, replyKeyboard(b.profile.adminMenu))
}

func (b *Bot) handleCancel(_ context.Context, msg *tgbotapi.Message) {
	b.replyWith(msg.Chat.ID, MsgCancelled, b.doneMarkup(msg.From.ID))
}

func (b *Bot) handleBack(_ context.Context, msg *tgbotapi.Message) {
	b.replyWith(msg.Chat.ID, MsgMainMenu, b.menuMarkup())
}

// ensureAccess lets registered users who joined every required channel through.
// Admins skip the channel check. Otherwise it replies with what is missing.
func (b *Bot) ensureAccess(ctx context.Context, msg *tgbotapi.Message) bool {
	userID := msg.From.ID

	user, err := b.db.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		b.logger.Error("Failed to get user", zap.Int64("user_id", userID), zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return false
	}
	if !user.HasPhone() {
		b.replyWith(msg.Chat.ID, MsgStartFirst, contactKeyboard())
		return false
	}

	if b.isAdmin(userID) {
		return true
	}

	missing, err := b.gate.Unsubscribed(ctx, userID)
	if err != nil {
		b.logger.Error("Failed to check subscriptions", zap.Int64("user_id", userID), zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return false
	}
	if len(missing) > 0 {
		b.replyWith(msg.Chat.ID, MsgSubscribe, subscribeKeyboard(missing))
		return false
	}
	return true
}

// recordView stores a view event; analytics failures never reach the user
func (b *Bot) recordView(ctx context.Context, contentID, userID int64) {
	event := models.ViewEvent{
		Time:      b.now(),
		Bot:       string(b.kind),
		ContentID: contentID,
		UserID:    userID,
	}
	if err := b.sink.RecordView(ctx, event); err != nil {
		b.logger.Warn("Failed to record view", zap.Int64("content_id", contentID), zap.Error(err))
	}
}
