package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kinobot/internal/flow"
	"kinobot/internal/models"
	"kinobot/internal/storage"
)

func (b *Bot) registerMovieBot() {
	b.profile = profile{
		startHint:  MsgMovieStartHint,
		subscribed: MsgMovieSubscribed,
		adminMenu: [][]string{
			{BtnAddMovie, BtnDeleteMovie},
			{BtnAddChannel, BtnDelChannel},
			{BtnBroadcast, BtnStats},
			{BtnUsers},
		},
		fallback:  b.handleMovieSearch,
		topLabel:  "Top kino",
		countUnit: "ko'rish",
		emptyTop:  "Hali kino yo'q",
		topContent: func(ctx context.Context, limit int) ([]models.ContentStat, error) {
			movies, err := b.db.TopMovies(ctx, limit)
			if err != nil {
				return nil, err
			}
			stats := make([]models.ContentStat, 0, len(movies))
			for _, m := range movies {
				stats = append(stats, models.ContentStat{Name: m.Name, Count: m.Views})
			}
			return stats, nil
		},
	}

	b.flows.Register(flow.Flow{
		Kind: flowAddMovie,
		Steps: []flow.Step{
			{Field: "code", Prompt: MsgMovieCodePrompt, Parse: flow.Digits(MsgDigitsOnly)},
			{Field: "name", Prompt: MsgMovieNamePrompt},
			{Field: "language", Prompt: MsgMovieLangPrompt},
			{Field: "quality", Prompt: MsgMovieQualPrompt},
			{Field: "genre", Prompt: MsgMovieGenrePrompt},
			{Field: "description", Prompt: MsgMovieDescPrompt},
			{Field: "file_id", Prompt: MsgMovieFilePrompt, Parse: flow.File(MsgMovieFileMissing)},
		},
		Complete: b.completeAddMovie,
	})
	b.flows.Register(flow.Flow{
		Kind: flowDeleteMovie,
		Steps: []flow.Step{
			{Field: "code", Prompt: MsgMovieDelPrompt, Parse: flow.Digits(MsgDigitsOnly)},
		},
		Complete: b.completeDeleteMovie,
	})

	b.button(BtnAddMovie, true, func(_ context.Context, msg *tgbotapi.Message) {
		b.startFlow(msg, flowAddMovie)
	})
	b.button(BtnDeleteMovie, true, func(_ context.Context, msg *tgbotapi.Message) {
		b.startFlow(msg, flowDeleteMovie)
	})
}

func (b *Bot) completeAddMovie(ctx context.Context, adminID int64, data flow.Data) (string, error) {
	movie := models.Movie{
		Code:        data.Int64("code"),
		Name:        data.String("name"),
		Language:    data.String("language"),
		Quality:     data.String("quality"),
		Genre:       data.String("genre"),
		Description: data.String("description"),
		FileID:      data.String("file_id"),
	}
	if err := b.db.SaveMovie(ctx, movie); err != nil {
		return "", err
	}
	b.logger.Info("Movie saved", zap.Int64("code", movie.Code), zap.String("name", movie.Name), zap.Int64("admin_id", adminID))
	return MsgMovieSaved, nil
}

func (b *Bot) completeDeleteMovie(ctx context.Context, adminID int64, data flow.Data) (string, error) {
	code := data.Int64("code")
	deleted, err := b.db.DeleteMovie(ctx, code)
	if err != nil {
		return "", err
	}
	if !deleted {
		return MsgMovieDelMissing, nil
	}
	b.logger.Info("Movie deleted", zap.Int64("code", code), zap.Int64("admin_id", adminID))
	return MsgMovieDeleted, nil
}

// handleMovieSearch treats any other text as a movie code or name
func (b *Bot) handleMovieSearch(ctx context.Context, msg *tgbotapi.Message) {
	query := strings.TrimSpace(msg.Text)
	if query == "" {
		return
	}
	if !b.ensureAccess(ctx, msg) {
		return
	}

	movie, err := b.db.FindMovie(ctx, query)
	if errors.Is(err, storage.ErrNotFound) {
		b.reply(msg.Chat.ID, MsgMovieNotFound)
		return
	}
	if err != nil {
		b.logger.Error("Failed to find movie", zap.String("query", query), zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return
	}

	if err := b.db.IncrementMovieViews(ctx, movie.Code); err != nil {
		b.logger.Error("Failed to count view", zap.Int64("code", movie.Code), zap.Error(err))
		b.reply(msg.Chat.ID, MsgError)
		return
	}

	video := tgbotapi.NewVideo(msg.Chat.ID, tgbotapi.FileID(movie.FileID))
	video.Caption = FormatMovieCaption(movie)
	if b.send(video) {
		b.recordView(ctx, movie.Code, msg.From.ID)
	}
}
