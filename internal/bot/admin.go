package bot

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kinobot/internal/analytics"
	"kinobot/internal/models"
	"kinobot/internal/report"
)

const (
	recentUsersLimit = 50
	topLimit         = 5
)

// registerAdminTools adds the channel, broadcast, statistics and user list screens
func (b *Bot) registerAdminTools() {
	b.registerSharedFlows()

	b.button(BtnAddChannel, true, func(_ context.Context, msg *tgbotapi.Message) {
		b.startFlow(msg, flowAddChannel)
	})
	b.button(BtnDelChannel, true, b.handleChannelList)
	b.button(BtnBroadcast, true, func(_ context.Context, msg *tgbotapi.Message) {
		b.startFlow(msg, flowBroadcast)
	})
	b.button(BtnStats, true, b.handleStats)
	b.button(BtnUsers, true, b.handleUsers)
}

func (b *Bot) handleChannelList(ctx context.Context, msg *tgbotapi.Message) {
	channels, err := b.db.ListChannels(ctx)
	if err != nil {
		b.logger.Error("Failed to list channels", zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return
	}
	if len(channels) == 0 {
		b.reply(msg.Chat.ID, MsgNoChannels)
		return
	}
	b.replyWith(msg.Chat.ID, MsgPickChannel, deleteChannelKeyboard(channels))
}

// statsReport collects the numbers shown on the statistics screen
func (b *Bot) statsReport(ctx context.Context) (StatsReport, []models.ContentStat, error) {
	now := b.now()

	users, err := b.db.GetUserStats(ctx, now)
	if err != nil {
		return StatsReport{}, nil, err
	}

	top, err := b.profile.topContent(ctx, topLimit)
	if err != nil {
		return StatsReport{}, nil, err
	}

	r := StatsReport{
		Users:     users,
		TopLabel:  b.profile.topLabel,
		CountUnit: b.profile.countUnit,
		EmptyText: b.profile.emptyTop,
	}
	if len(top) > 0 {
		r.Top = &top[0]
	}

	if analytics.Enabled(b.sink) {
		views, err := b.sink.ViewsSince(ctx, string(b.kind), now.Add(-7*24*time.Hour))
		if err != nil {
			b.logger.Warn("Failed to query recent views", zap.Error(err))
		} else {
			r.RecentViews = &views
		}
	}

	return r, top, nil
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	r, top, err := b.statsReport(ctx)
	if err != nil {
		b.logger.Error("Failed to build statistics", zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return
	}

	b.replyHTML(msg.Chat.ID, FormatStats(r))

	chart, err := report.TopChart(b.profile.topLabel, top)
	if errors.Is(err, report.ErrNoData) {
		return
	}
	if err != nil {
		b.logger.Warn("Failed to render chart", zap.Error(err))
		return
	}
	b.send(tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileBytes{Name: "top.png", Bytes: chart}))
}

func (b *Bot) handleUsers(ctx context.Context, msg *tgbotapi.Message) {
	users, err := b.db.ListRecentUsers(ctx, recentUsersLimit)
	if err != nil {
		b.logger.Error("Failed to list users", zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return
	}
	if len(users) == 0 {
		b.reply(msg.Chat.ID, MsgNoUsers)
		return
	}
	b.replyHTML(msg.Chat.ID, FormatUserList(users))
}
