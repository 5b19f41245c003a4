// Package gating checks that a user has joined every required channel.
package gating

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kinobot/internal/models"
)

// ChannelLister is the part of the store the checker reads
type ChannelLister interface {
	ListChannels(ctx context.Context) ([]models.Channel, error)
}

// MemberGetter queries channel membership; *tgbotapi.BotAPI implements it
type MemberGetter interface {
	GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error)
}

type Checker struct {
	channels ChannelLister
	members  MemberGetter
	logger   *zap.Logger
}

func NewChecker(channels ChannelLister, members MemberGetter, logger *zap.Logger) *Checker {
	return &Checker{channels: channels, members: members, logger: logger}
}

// Unsubscribed returns the required channels the user has not joined.
// A failed membership query counts the channel as joined.
func (c *Checker) Unsubscribed(ctx context.Context, userID int64) ([]models.Channel, error) {
	channels, err := c.channels.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	var missing []models.Channel
	for _, ch := range channels {
		member, err := c.members.GetChatMember(memberConfig(ch.ChatID, userID))
		if err != nil {
			c.logger.Warn("Failed to check channel membership",
				zap.String("chat_id", ch.ChatID),
				zap.Int64("user_id", userID),
				zap.Error(err))
			continue
		}
		if member.HasLeft() || member.WasKicked() {
			missing = append(missing, ch)
		}
	}
	return missing, nil
}

func memberConfig(chatID string, userID int64) tgbotapi.GetChatMemberConfig {
	cfg := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: userID},
	}
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		cfg.ChatID = id
		return cfg
	}
	if !strings.HasPrefix(chatID, "@") {
		chatID = "@" + chatID
	}
	cfg.SuperGroupUsername = chatID
	return cfg
}
