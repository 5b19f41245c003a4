package bot

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kinobot/internal/broadcast"
	"kinobot/internal/flow"
	"kinobot/internal/models"
)

var channelUsername = regexp.MustCompile(`^@[A-Za-z0-9_]{4,}$`)

// startFlow puts the user on the first step of kind
func (b *Bot) startFlow(msg *tgbotapi.Message, kind flow.Kind) {
	prompt, err := b.flows.Start(msg.From.ID, kind)
	if err != nil {
		b.logger.Error("Failed to start flow", zap.String("flow", string(kind)), zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return
	}
	b.replyWith(msg.Chat.ID, prompt, cancelKeyboard())
}

// continueFlow feeds a message to the user's active flow
func (b *Bot) continueFlow(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID

	reply, err := b.flows.Submit(ctx, userID, flowInput(msg))
	if errors.Is(err, flow.ErrNoActiveFlow) {
		return
	}
	if err != nil {
		b.logger.Error("Flow failed", zap.Int64("user_id", userID), zap.Error(err))
		b.replyWith(msg.Chat.ID, MsgError, b.doneMarkup(userID))
		return
	}
	if reply.Text == "" {
		return
	}

	if reply.Done {
		b.replyWith(msg.Chat.ID, reply.Text, b.doneMarkup(userID))
		return
	}
	b.replyWith(msg.Chat.ID, reply.Text, cancelKeyboard())
}

func flowInput(msg *tgbotapi.Message) flow.Input {
	in := flow.Input{
		Text:      strings.TrimSpace(msg.Text),
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
	}
	switch {
	case msg.Video != nil:
		in.FileID = msg.Video.FileID
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "video/"):
		in.FileID = msg.Document.FileID
	}
	return in
}

// registerSharedFlows adds the admin flows both bots have
func (b *Bot) registerSharedFlows() {
	b.flows.Register(flow.Flow{
		Kind: flowAddChannel,
		Steps: []flow.Step{
			{Field: "chat_id", Prompt: MsgChannelIDPrompt, Parse: parseChatID},
			{Field: "url", Prompt: MsgChannelURLPrompt, Parse: flow.URL(MsgChannelURLBad)},
		},
		Complete: b.completeAddChannel,
	})

	b.flows.Register(flow.Flow{
		Kind: flowBroadcast,
		Steps: []flow.Step{
			{Field: "message", Prompt: MsgBroadcastPrompt, Parse: flow.Any()},
		},
		Complete: b.completeBroadcast,
	})
}

// parseChatID accepts a numeric chat id or a public @username
func parseChatID(in flow.Input) (any, error) {
	if _, err := strconv.ParseInt(in.Text, 10, 64); err == nil {
		return in.Text, nil
	}
	if channelUsername.MatchString(in.Text) {
		return in.Text, nil
	}
	return nil, flow.Invalid(MsgChannelIDInvalid)
}

func (b *Bot) completeAddChannel(ctx context.Context, adminID int64, data flow.Data) (string, error) {
	channel := models.Channel{ChatID: data.String("chat_id"), URL: data.String("url")}
	if err := b.db.UpsertChannel(ctx, channel); err != nil {
		return "", err
	}
	b.logger.Info("Channel added", zap.String("chat_id", channel.ChatID), zap.Int64("admin_id", adminID))
	return MsgChannelAdded, nil
}

// completeBroadcast copies the admin's message to every user and reports progress
// by editing a status message
func (b *Bot) completeBroadcast(ctx context.Context, adminID int64, data flow.Data) (string, error) {
	in := data.Input("message")

	ids, err := b.db.ListUserIDs(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return MsgNoRecipients, nil
	}

	status, err := b.api.Send(tgbotapi.NewMessage(in.ChatID, FormatBroadcastProgress(0, len(ids))))
	if err != nil {
		b.logger.Warn("Failed to send broadcast status", zap.Error(err))
	}

	res := broadcast.Run(ctx, ids, func(_ context.Context, id int64) error {
		_, err := b.api.CopyMessage(tgbotapi.NewCopyMessage(id, in.ChatID, in.MessageID))
		return err
	}, broadcast.Options{
		Delay:         b.broadcastDelay,
		ProgressEvery: 10,
		OnProgress: func(sent, total int) {
			if status.MessageID == 0 {
				return
			}
			b.request(tgbotapi.NewEditMessageText(in.ChatID, status.MessageID, FormatBroadcastProgress(sent, total)))
		},
		Logger: b.logger,
	})

	b.logger.Info("Broadcast finished",
		zap.Int64("admin_id", adminID),
		zap.Int("total", res.Total),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
	)

	event := models.BroadcastEvent{
		Time:    b.now(),
		Bot:     string(b.kind),
		AdminID: adminID,
		Total:   res.Total,
		Sent:    res.Sent,
	}
	if err := b.sink.RecordBroadcast(ctx, event); err != nil {
		b.logger.Warn("Failed to record broadcast", zap.Error(err))
	}

	return FormatBroadcastDone(res.Sent), nil
}
