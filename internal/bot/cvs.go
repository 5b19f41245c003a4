package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kinobot/internal/cvpdf"
	"kinobot/internal/flow"
	"kinobot/internal/models"
	"kinobot/internal/storage"
)

const recentCVsLimit = 20

func (b *Bot) registerCVBot() {
	if b.renderer == nil {
		b.renderer = cvpdf.NewRenderer("")
	}

	b.profile = profile{
		startHint:  MsgCVStartHint,
		subscribed: MsgCVSubscribed,
		adminMenu: [][]string{
			{BtnCVList, BtnStats},
			{BtnAddChannel, BtnDelChannel},
			{BtnBroadcast, BtnUsers},
			{BtnBack},
		},
		userMenu:  [][]string{{BtnCreateCV}},
		fallback:  b.handleCVFallback,
		topLabel:  "Top rezyume",
		countUnit: "yuklab olish",
		emptyTop:  "Hali rezyume yo'q",
		topContent: func(ctx context.Context, limit int) ([]models.ContentStat, error) {
			cvs, err := b.db.TopCVs(ctx, limit)
			if err != nil {
				return nil, err
			}
			stats := make([]models.ContentStat, 0, len(cvs))
			for _, cv := range cvs {
				stats = append(stats, models.ContentStat{Name: cv.FullName, Count: cv.Downloads})
			}
			return stats, nil
		},
	}

	b.flows.Register(flow.Flow{
		Kind: flowCV,
		Steps: []flow.Step{
			{Field: "full_name", Prompt: MsgCVNamePrompt},
			{Field: "birth_date", Prompt: MsgCVBirthPrompt},
			{Field: "position", Prompt: MsgCVPosPrompt},
			{Field: "experience", Prompt: MsgCVExpPrompt},
			{Field: "skills", Prompt: MsgCVSkillsPrompt},
			{Field: "email", Prompt: MsgCVEmailPrompt, Parse: flow.Email(MsgCVEmailInvalid)},
		},
		Complete: b.completeCV,
	})

	b.button(BtnCVList, true, b.handleCVList)
	b.button(BtnCreateCV, false, func(ctx context.Context, msg *tgbotapi.Message) {
		if b.ensureAccess(ctx, msg) {
			b.startFlow(msg, flowCV)
		}
	})
}

// completeCV stores the answers, renders the PDF and sends it to the author
func (b *Bot) completeCV(ctx context.Context, userID int64, data flow.Data) (string, error) {
	user, err := b.db.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}

	cv := models.CV{
		UserID:     userID,
		FullName:   data.String("full_name"),
		BirthDate:  data.String("birth_date"),
		Position:   data.String("position"),
		Experience: data.String("experience"),
		Skills:     data.String("skills"),
		Email:      data.String("email"),
		CreatedAt:  b.now(),
	}
	if user != nil {
		cv.Phone = user.Phone
	}

	id, err := b.db.CreateCV(ctx, cv)
	if err != nil {
		return "", err
	}
	cv.ID = id

	if err := b.sendCV(userID, cv, fmt.Sprintf("📄 Rezyume #%d", cv.ID)); err != nil {
		return "", err
	}
	b.logger.Info("CV created", zap.Int64("cv_id", cv.ID), zap.Int64("user_id", userID))
	return MsgCVReady, nil
}

// sendCV renders cv to a temporary PDF and uploads it
func (b *Bot) sendCV(chatID int64, cv models.CV, caption string) error {
	path, err := b.renderer.Render(cv)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send CV: %w", err)
	}
	return nil
}

// handleCVFallback looks up CVs for admins and points users to the menu
func (b *Bot) handleCVFallback(ctx context.Context, msg *tgbotapi.Message) {
	if b.isAdmin(msg.From.ID) {
		b.handleCVLookup(ctx, msg)
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	if b.ensureAccess(ctx, msg) {
		b.replyWith(msg.Chat.ID, MsgCVStartHint, b.menuMarkup())
	}
}

func (b *Bot) handleCVLookup(ctx context.Context, msg *tgbotapi.Message) {
	query := strings.TrimSpace(msg.Text)
	if query == "" {
		return
	}

	cv, err := b.db.FindCV(ctx, query)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(msg.Chat.ID, MsgCVNotFound)
		return
	}
	if err != nil {
		b.logger.Error("Failed to find CV", zap.String("query", query), zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return
	}

	if err := b.db.IncrementCVDownloads(ctx, cv.ID); err != nil {
		b.logger.Error("Failed to count download", zap.Int64("cv_id", cv.ID), zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return
	}

	if err := b.sendCV(msg.Chat.ID, *cv, FormatCVCaption(cv)); err != nil {
		b.logger.Error("Failed to deliver CV", zap.Int64("cv_id", cv.ID), zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return
	}
	b.recordView(ctx, cv.ID, msg.From.ID)
}

func (b *Bot) handleCVList(ctx context.Context, msg *tgbotapi.Message) {
	cvs, err := b.db.ListRecentCVs(ctx, recentCVsLimit)
	if err != nil {
		b.logger.Error("Failed to list CVs", zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return
	}
	if len(cvs) == 0 {
		b.reply(msg.Chat.ID, MsgNoCVs)
		return
	}
	b.replyHTML(msg.Chat.ID, FormatCVList(cvs))
}
