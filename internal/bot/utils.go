package bot

import (
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// maxMessageLen is the Bot API limit for a text message
const maxMessageLen = 4096

// sendMessage sends a message and logs failures
func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) bool {
	if _, err := b.api.Send(c); err != nil {
		b.logger.Error("Failed to send message", zap.Error(err))
		return false
	}
	return true
}

// request calls a method that does not return a message
func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.api.Request(c); err != nil {
		b.logger.Warn("Bot API request failed", zap.Error(err))
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) replyWith(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.sendMessage(msg)
}

// replyHTML sends text in HTML mode, split into chunks the API accepts
func (b *Bot) replyHTML(chatID int64, text string) {
	for _, part := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		b.sendMessage(msg)
	}
}

func (b *Bot) answerCallback(id, text string, alert bool) {
	cb := tgbotapi.NewCallback(id, text)
	if alert {
		cb = tgbotapi.NewCallbackWithAlert(id, text)
	}
	b.request(cb)
}

// menuMarkup is the keyboard a regular user sees outside of flows
func (b *Bot) menuMarkup() any {
	if b.profile.userMenu == nil {
		return removeKeyboard()
	}
	return replyKeyboard(b.profile.userMenu)
}

// doneMarkup is the keyboard shown after a flow ends
func (b *Bot) doneMarkup(userID int64) any {
	if b.isAdmin(userID) {
		return replyKeyboard(b.profile.adminMenu)
	}
	return b.menuMarkup()
}

func fullName(u *tgbotapi.User) string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// splitMessage cuts text into parts of at most maxLen bytes, preferring line breaks
func splitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var parts []string
	for len(text) > maxLen {
		cut := strings.LastIndex(text[:maxLen], "\n")
		if cut <= 0 {
			cut = maxLen
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		parts = append(parts, text[:cut])
		text = strings.TrimPrefix(text[cut:], "\n")
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
