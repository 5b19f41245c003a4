package logger

import (
	"fmt"
	"html"
	"log"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap/zapcore"
)

const maxLogMessage = 4000

// Sender delivers a message to Telegram; *tgbotapi.BotAPI implements it
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// telegramCore is a zapcore.Core that posts entries to a chat without blocking the caller
type telegramCore struct {
	zapcore.LevelEnabler
	sender Sender
	chatID int64
	fields []zapcore.Field
}

func NewTelegramCore(sender Sender, chatID int64, level zapcore.LevelEnabler) zapcore.Core {
	return &telegramCore{LevelEnabler: level, sender: sender, chatID: chatID}
}

func (c *telegramCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &telegramCore{LevelEnabler: c.LevelEnabler, sender: c.sender, chatID: c.chatID, fields: merged}
}

func (c *telegramCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return ce.AddCore(entry, c)
	}
	return ce
}

func (c *telegramCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	text := formatEntry(entry, append(append([]zapcore.Field{}, c.fields...), fields...))

	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	go func() {
		if _, err := c.sender.Send(msg); err != nil {
			log.Printf("failed to send log entry to Telegram: %v", err)
		}
	}()
	return nil
}

func (c *telegramCore) Sync() error {
	return nil
}

func formatEntry(entry zapcore.Entry, fields []zapcore.Field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔴 <b>%s</b> <code>%s</code>", entry.Level.CapitalString(), html.EscapeString(entry.Message))
	if entry.LoggerName != "" {
		fmt.Fprintf(&b, "\nlogger: %s", html.EscapeString(entry.LoggerName))
	}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}
	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %s", html.EscapeString(k), html.EscapeString(fmt.Sprint(enc.Fields[k])))
	}

	text := b.String()
	if r := []rune(text); len(r) > maxLogMessage {
		text = string(r[:maxLogMessage])
	}
	return text
}
