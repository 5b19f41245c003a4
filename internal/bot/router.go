package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type handlerFunc func(ctx context.Context, msg *tgbotapi.Message)

type route struct {
	match     func(msg *tgbotapi.Message) bool
	adminOnly bool
	handle    handlerFunc
}

// command registers a slash command route
func (b *Bot) command(name string, adminOnly bool, h handlerFunc) {
	b.routes = append(b.routes, route{
		match:     func(msg *tgbotapi.Message) bool { return msg.IsCommand() && msg.Command() == name },
		adminOnly: adminOnly,
		handle:    h,
	})
}

// button registers an exact-text route for a keyboard label
func (b *Bot) button(label string, adminOnly bool, h handlerFunc) {
	b.routes = append(b.routes, route{
		match:     func(msg *tgbotapi.Message) bool { return msg.Text == label },
		adminOnly: adminOnly,
		handle:    h,
	})
}

// dispatch picks exactly one handler for a message:
// an active flow, a shared contact, the first matching route or the fallback.
// A command or the cancel label ends an active flow first.
func (b *Bot) dispatch(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	if msg.IsCommand() || msg.Text == BtnCancel {
		if b.flows.Cancel(userID) {
			b.logger.Debug("Flow interrupted", zap.Int64("user_id", userID), zap.String("text", msg.Text))
		}
	}

	if _, active := b.flows.Active(userID); active {
		b.continueFlow(ctx, msg)
		return
	}

	if msg.Contact != nil {
		b.handleContact(ctx, msg)
		return
	}

	for _, r := range b.routes {
		if !r.match(msg) {
			continue
		}
		if r.adminOnly && !b.isAdmin(userID) {
			b.logger.Warn("Unauthorized admin access attempt",
				zap.Int64("user_id", userID),
				zap.String("username", msg.From.UserName),
				zap.String("text", msg.Text),
			)
			b.reply(msg.Chat.ID, MsgAdminOnly)
			return
		}
		r.handle(ctx, msg)
		return
	}

	if b.profile.fallback != nil {
		b.profile.fallback(ctx, msg)
	}
}
