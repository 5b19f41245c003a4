package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"kinobot/internal/cvpdf"
	"kinobot/internal/models"
	"kinobot/internal/storage"
	"kinobot/internal/storage/stubs"
)

const (
	adminID = int64(1)
	userID  = int64(100)
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// fakeAPI records everything the bot sends instead of calling Telegram
type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	copies   []tgbotapi.CopyMessageConfig
	uploaded []string // document paths that existed at send time
	status   string   // membership status returned for every channel
	failCopy map[int64]bool
	nextID   int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if doc, ok := c.(tgbotapi.DocumentConfig); ok {
		if path, ok := doc.File.(tgbotapi.FilePath); ok {
			if _, err := os.Stat(string(path)); err == nil {
				f.uploaded = append(f.uploaded, string(path))
			}
		}
	}
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetChatMember(config tgbotapi.GetChatMemberConfig) (tgbotapi.ChatMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.status
	if status == "" {
		status = "member"
	}
	return tgbotapi.ChatMember{Status: status}, nil
}

func (f *fakeAPI) CopyMessage(config tgbotapi.CopyMessageConfig) (tgbotapi.MessageID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCopy[config.ChatID] {
		return tgbotapi.MessageID{}, errors.New("Forbidden: bot was blocked by the user")
	}
	f.copies = append(f.copies, config)
	return tgbotapi.MessageID{MessageID: 1}, nil
}

func (f *fakeAPI) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var texts []string
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			texts = append(texts, msg.Text)
		}
	}
	return texts
}

func (f *fakeAPI) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if msg, ok := f.sent[i].(tgbotapi.MessageConfig); ok {
			return msg
		}
	}
	t.Fatal("no text message sent")
	return tgbotapi.MessageConfig{}
}

func (f *fakeAPI) videos() []tgbotapi.VideoConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var videos []tgbotapi.VideoConfig
	for _, c := range f.sent {
		if v, ok := c.(tgbotapi.VideoConfig); ok {
			videos = append(videos, v)
		}
	}
	return videos
}

func (f *fakeAPI) documents() []tgbotapi.DocumentConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var docs []tgbotapi.DocumentConfig
	for _, c := range f.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			docs = append(docs, d)
		}
	}
	return docs
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
	f.requests = nil
}

func newTestBot(t *testing.T, kind Kind, db storage.Storage) (*Bot, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	b := New(api, db, Options{
		Kind:     kind,
		AdminIDs: []int64{adminID},
		Renderer: cvpdf.NewRenderer(t.TempDir()),
		Logger:   zaptest.NewLogger(t),
	})
	b.now = func() time.Time { return fixedNow }
	return b, api
}

// addViews bumps a stored movie's counter; SaveMovie never sets it
func addViews(t *testing.T, db storage.Storage, code int64, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, db.IncrementMovieViews(context.Background(), code))
	}
}

func newMockDB(t *testing.T) *stubs.MockDB {
	t.Helper()
	db := stubs.NewMockDB()
	require.NoError(t, db.Initialize(context.Background()))
	return db
}

func registerUser(t *testing.T, db storage.Storage, id int64) {
	t.Helper()
	require.NoError(t, db.UpsertUser(context.Background(), models.User{
		ID:       id,
		FullName: fmt.Sprintf("User %d", id),
		Phone:    "+998901234567",
		JoinDate: fixedNow,
	}))
}

func textMessage(from int64, text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: from, FirstName: "Ali", LastName: "Valiyev", UserName: "ali"},
		Chat:      &tgbotapi.Chat{ID: from, Type: "private"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}}
	}
	return msg
}

func sendText(b *Bot, from int64, text string) {
	b.HandleUpdate(tgbotapi.Update{Message: textMessage(from, text)})
}

func TestMovieSearch_CodeWithLeadingZeros(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	registerUser(t, db, userID)
	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 7, Name: "Inception", FileID: "video-7"}))
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, userID, "007")

	videos := api.videos()
	require.Len(t, videos, 1)
	assert.Equal(t, tgbotapi.FileID("video-7"), videos[0].File)
	assert.Equal(t, "🎬Nomi Inception\n👁 Korishlar 1 marta ko'rildi\n🔢 Kodi:  7", videos[0].Caption)

	movie, err := db.FindMovie(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(1), movie.Views)
}

func TestMovieSearch_ByName(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	registerUser(t, db, userID)
	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 3, Name: "Interstellar", FileID: "video-3"}))
	addViews(t, db, 3, 4)
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, userID, "stellar")

	videos := api.videos()
	require.Len(t, videos, 1)
	assert.Contains(t, videos[0].Caption, "Korishlar 5 marta")

	movie, err := db.FindMovie(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, int64(5), movie.Views)
}

func TestMovieSearch_NotFound(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	registerUser(t, db, userID)
	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 7, Name: "Inception", FileID: "video-7"}))
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, userID, "999")

	assert.Empty(t, api.videos())
	assert.Equal(t, MsgMovieNotFound, api.lastMessage(t).Text)

	movie, err := db.FindMovie(ctx, "7")
	require.NoError(t, err)
	assert.Zero(t, movie.Views)
}

func TestMovieSearch_UnregisteredUser(t *testing.T) {
	db := newMockDB(t)
	require.NoError(t, db.SaveMovie(context.Background(), models.Movie{Code: 7, Name: "Inception", FileID: "video-7"}))
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, userID, "7")

	assert.Empty(t, api.videos())
	msg := api.lastMessage(t)
	assert.Equal(t, MsgStartFirst, msg.Text)
	assert.IsType(t, tgbotapi.ReplyKeyboardMarkup{}, msg.ReplyMarkup)
}

func TestMovieSearch_RequiresSubscription(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	registerUser(t, db, userID)
	registerUser(t, db, adminID)
	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 7, Name: "Inception", FileID: "video-7"}))
	require.NoError(t, db.UpsertChannel(ctx, models.Channel{ChatID: "-100123", URL: "https://t.me/kanal"}))
	b, api := newTestBot(t, KindMovie, db)
	api.status = "left"

	sendText(b, userID, "7")

	assert.Empty(t, api.videos())
	msg := api.lastMessage(t)
	assert.Equal(t, MsgSubscribe, msg.Text)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, CallbackCheckSub, *markup.InlineKeyboard[1][0].CallbackData)

	// admins are never gated
	sendText(b, adminID, "7")
	assert.Len(t, api.videos(), 1)
}

func TestAdminRoute_RejectsNonAdmin(t *testing.T) {
	db := newMockDB(t)
	registerUser(t, db, userID)
	b, api := newTestBot(t, KindMovie, db)

	for _, text := range []string{BtnAddMovie, BtnUsers, "/admin"} {
		sendText(b, userID, text)
		assert.Equal(t, MsgAdminOnly, api.lastMessage(t).Text, text)
	}

	_, active := b.flows.Active(userID)
	assert.False(t, active)
}

func TestAddMovieFlow(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, adminID, BtnAddMovie)
	assert.Equal(t, MsgMovieCodePrompt, api.lastMessage(t).Text)

	sendText(b, adminID, "12a")
	assert.Equal(t, MsgDigitsOnly, api.lastMessage(t).Text)

	answers := []struct{ text, prompt string }{
		{"12", MsgMovieNamePrompt},
		{"Dune", MsgMovieLangPrompt},
		{"O'zbek", MsgMovieQualPrompt},
		{"1080p", MsgMovieGenrePrompt},
		{"Fantastika", MsgMovieDescPrompt},
		{"Cho'l sayyorasi", MsgMovieFilePrompt},
	}
	for _, a := range answers {
		sendText(b, adminID, a.text)
		assert.Equal(t, a.prompt, api.lastMessage(t).Text)
	}

	// text instead of a video keeps the step
	sendText(b, adminID, "bu video emas")
	assert.Equal(t, MsgMovieFileMissing, api.lastMessage(t).Text)

	msg := textMessage(adminID, "")
	msg.Video = &tgbotapi.Video{FileID: "dune-file"}
	b.HandleUpdate(tgbotapi.Update{Message: msg})

	assert.Equal(t, MsgMovieSaved, api.lastMessage(t).Text)
	_, active := b.flows.Active(adminID)
	assert.False(t, active)

	movie, err := db.FindMovie(ctx, "12")
	require.NoError(t, err)
	assert.Equal(t, "Dune", movie.Name)
	assert.Equal(t, "1080p", movie.Quality)
	assert.Equal(t, "dune-file", movie.FileID)
}

func TestDeleteMovieFlow(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 5, Name: "Old", FileID: "f"}))
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, adminID, BtnDeleteMovie)
	sendText(b, adminID, "5")
	assert.Equal(t, MsgMovieDeleted, api.lastMessage(t).Text)

	sendText(b, adminID, BtnDeleteMovie)
	sendText(b, adminID, "5")
	assert.Equal(t, MsgMovieDelMissing, api.lastMessage(t).Text)

	_, err := db.FindMovie(ctx, "5")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCommandInterruptsFlow(t *testing.T) {
	db := newMockDB(t)
	registerUser(t, db, adminID)
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, adminID, BtnAddMovie)
	sendText(b, adminID, "12")

	sendText(b, adminID, "/start")

	_, active := b.flows.Active(adminID)
	assert.False(t, active)
	assert.Equal(t, MsgMovieStartHint, api.lastMessage(t).Text)
}

func TestCancelButton(t *testing.T) {
	db := newMockDB(t)
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, adminID, BtnAddChannel)
	sendText(b, adminID, BtnCancel)

	_, active := b.flows.Active(adminID)
	assert.False(t, active)
	msg := api.lastMessage(t)
	assert.Equal(t, MsgCancelled, msg.Text)
	assert.IsType(t, tgbotapi.ReplyKeyboardMarkup{}, msg.ReplyMarkup)
}

func TestRouteBeatsSearch(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	registerUser(t, db, adminID)
	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 1, Name: BtnStats, FileID: "f"}))
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, adminID, BtnStats)

	assert.Empty(t, api.videos())
	assert.Contains(t, api.texts()[0], "Bot Statistikasi")
}

type panickyDB struct {
	*stubs.MockDB
}

func (panickyDB) FindMovie(context.Context, string) (*models.Movie, error) {
	panic("boom")
}

func TestHandleUpdate_RecoversFromPanic(t *testing.T) {
	db := panickyDB{MockDB: newMockDB(t)}
	registerUser(t, db, userID)
	b, api := newTestBot(t, KindMovie, db)

	assert.NotPanics(t, func() { sendText(b, userID, "7") })
	assert.Equal(t, MsgError, api.lastMessage(t).Text)
}

func TestRegistration(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, userID, "/start")
	assert.Equal(t, FormatGreeting("Ali Valiyev"), api.lastMessage(t).Text)

	foreign := textMessage(userID, "")
	foreign.Contact = &tgbotapi.Contact{UserID: 555, PhoneNumber: "+998900000000"}
	b.HandleUpdate(tgbotapi.Update{Message: foreign})
	assert.Equal(t, MsgOwnContact, api.lastMessage(t).Text)

	own := textMessage(userID, "")
	own.Contact = &tgbotapi.Contact{UserID: userID, PhoneNumber: "+998901112233"}
	b.HandleUpdate(tgbotapi.Update{Message: own})
	assert.Equal(t, MsgRegistered, api.lastMessage(t).Text)

	user, err := db.GetUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "+998901112233", user.Phone)
	assert.Equal(t, "Ali Valiyev", user.FullName)
	assert.Equal(t, "ali", user.Username)

	sendText(b, userID, "/start")
	assert.Equal(t, MsgMovieStartHint, api.lastMessage(t).Text)
}

func TestAddChannelFlow(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, adminID, BtnAddChannel)
	sendText(b, adminID, "kanal")
	assert.Equal(t, MsgChannelIDInvalid, api.lastMessage(t).Text)

	sendText(b, adminID, "-100123456789")
	sendText(b, adminID, "not a link")
	assert.Equal(t, MsgChannelURLBad, api.lastMessage(t).Text)

	sendText(b, adminID, "https://t.me/kanal_link")
	assert.Equal(t, MsgChannelAdded, api.lastMessage(t).Text)

	channels, err := db.ListChannels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Channel{{ChatID: "-100123456789", URL: "https://t.me/kanal_link"}}, channels)
}

func TestDeleteChannelCallback(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	require.NoError(t, db.UpsertChannel(ctx, models.Channel{ChatID: "@kanal", URL: "https://t.me/kanal"}))
	b, api := newTestBot(t, KindMovie, db)

	callback := func(from int64) {
		b.HandleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: from},
			Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: from}},
			Data:    CallbackDeleteChannel + "@kanal",
		}})
	}

	callback(userID)
	channels, err := db.ListChannels(ctx)
	require.NoError(t, err)
	assert.Len(t, channels, 1)

	callback(adminID)
	channels, err = db.ListChannels(ctx)
	require.NoError(t, err)
	assert.Empty(t, channels)

	var answered []string
	for _, r := range api.requests {
		if cb, ok := r.(tgbotapi.CallbackConfig); ok {
			answered = append(answered, cb.Text)
		}
	}
	assert.Equal(t, []string{MsgAdminOnly, MsgChannelDeleted}, answered)
}

func TestCheckSubCallback(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	require.NoError(t, db.UpsertChannel(ctx, models.Channel{ChatID: "-100123", URL: "https://t.me/kanal"}))
	b, api := newTestBot(t, KindMovie, db)

	query := &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: userID}},
		Data:    CallbackCheckSub,
	}

	api.status = "left"
	b.HandleUpdate(tgbotapi.Update{CallbackQuery: query})
	assert.Empty(t, api.texts())

	api.status = "member"
	b.HandleUpdate(tgbotapi.Update{CallbackQuery: query})
	assert.Equal(t, MsgMovieSubscribed, api.lastMessage(t).Text)
}

func TestBroadcastFlow(t *testing.T) {
	db := newMockDB(t)
	for i := int64(0); i < 25; i++ {
		registerUser(t, db, 1000+i)
	}
	b, api := newTestBot(t, KindMovie, db)
	api.failCopy = map[int64]bool{1003: true}

	sendText(b, adminID, BtnBroadcast)
	assert.Equal(t, MsgBroadcastPrompt, api.lastMessage(t).Text)

	post := textMessage(adminID, "Yangi kinolar!")
	post.MessageID = 77
	b.HandleUpdate(tgbotapi.Update{Message: post})

	assert.Equal(t, FormatBroadcastDone(24), api.lastMessage(t).Text)
	require.Len(t, api.copies, 24)
	assert.Equal(t, adminID, api.copies[0].FromChatID)
	assert.Equal(t, 77, api.copies[0].MessageID)

	var edits []string
	for _, r := range api.requests {
		if e, ok := r.(tgbotapi.EditMessageTextConfig); ok {
			edits = append(edits, e.Text)
		}
	}
	assert.Equal(t, []string{FormatBroadcastProgress(10, 25), FormatBroadcastProgress(20, 25)}, edits)
}

func TestBroadcastFlow_NoRecipients(t *testing.T) {
	db := newMockDB(t)
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, adminID, BtnBroadcast)
	sendText(b, adminID, "salom")

	assert.Equal(t, MsgNoRecipients, api.lastMessage(t).Text)
	assert.Empty(t, api.copies)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	registerUser(t, db, userID)
	require.NoError(t, db.UpsertUser(ctx, models.User{ID: 200, Phone: "1", JoinDate: fixedNow.AddDate(0, 0, -3)}))
	require.NoError(t, db.UpsertUser(ctx, models.User{ID: 300, Phone: "1", JoinDate: fixedNow.AddDate(0, -2, 0)}))
	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 1, Name: "Avatar", FileID: "f"}))
	addViews(t, db, 1, 9)
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, adminID, BtnStats)

	text := api.texts()[0]
	assert.Contains(t, text, "👥 Jami: 3")
	assert.Contains(t, text, "👤 Bugun: 1")
	assert.Contains(t, text, "📅 Oxirgi 7 kun: 2")
	assert.Contains(t, text, "«Avatar» (9 ta ko'rish)")

	var photos int
	for _, c := range api.sent {
		if _, ok := c.(tgbotapi.PhotoConfig); ok {
			photos++
		}
	}
	assert.Equal(t, 1, photos)
}

func TestStats_UnwatchedMovies(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 2, Name: "Avatar", FileID: "f"}))
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, adminID, BtnStats)

	text := api.texts()[0]
	assert.Contains(t, text, "«Avatar» (0 ta ko'rish)")
	assert.NotContains(t, text, "Hali kino yo'q")

	for _, c := range api.sent {
		_, isPhoto := c.(tgbotapi.PhotoConfig)
		assert.False(t, isPhoto, "no chart without views")
	}
}

func TestStats_NoMovies(t *testing.T) {
	db := newMockDB(t)
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, adminID, BtnStats)

	assert.Contains(t, api.texts()[0], "Hali kino yo'q")
}

func TestUserList(t *testing.T) {
	db := newMockDB(t)
	b, api := newTestBot(t, KindMovie, db)

	sendText(b, adminID, BtnUsers)
	assert.Equal(t, MsgNoUsers, api.lastMessage(t).Text)

	registerUser(t, db, userID)
	sendText(b, adminID, BtnUsers)
	msg := api.lastMessage(t)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "<code>100</code>")
}

func TestCVFlow(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	registerUser(t, db, userID)
	b, api := newTestBot(t, KindCV, db)

	sendText(b, userID, BtnCreateCV)
	assert.Equal(t, MsgCVNamePrompt, api.lastMessage(t).Text)

	for _, answer := range []string{"Ali Valiyev", "01.01.2000", "Backend dasturchi", "3 yil Go", "Go, SQL"} {
		sendText(b, userID, answer)
	}
	assert.Equal(t, MsgCVEmailPrompt, api.lastMessage(t).Text)

	sendText(b, userID, "not-an-email")
	assert.Equal(t, MsgCVEmailInvalid, api.lastMessage(t).Text)

	sendText(b, userID, "ali@example.com")
	assert.Equal(t, MsgCVReady, api.lastMessage(t).Text)

	docs := api.documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "📄 Rezyume #1", docs[0].Caption)
	require.Len(t, api.uploaded, 1)
	_, err := os.Stat(api.uploaded[0])
	assert.True(t, os.IsNotExist(err), "rendered file is removed after upload")

	cvs, err := db.ListRecentCVs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, cvs, 1)
	assert.Equal(t, "ali@example.com", cvs[0].Email)
	assert.Equal(t, "+998901234567", cvs[0].Phone)
}

func TestCVLookupByAdmin(t *testing.T) {
	ctx := context.Background()
	db := newMockDB(t)
	id, err := db.CreateCV(ctx, models.CV{UserID: userID, FullName: "Ali Valiyev", Position: "QA", Email: "a@b.uz"})
	require.NoError(t, err)
	b, api := newTestBot(t, KindCV, db)

	sendText(b, adminID, "valiyev")

	docs := api.documents()
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Caption, "Yuklab olishlar: 1")

	cv, err := db.FindCV(ctx, fmt.Sprint(id))
	require.NoError(t, err)
	assert.Equal(t, int64(1), cv.Downloads)

	api.reset()
	sendText(b, adminID, "999")
	assert.Equal(t, MsgCVNotFound, api.lastMessage(t).Text)
}

func TestCVBot_UserTextShowsMenu(t *testing.T) {
	db := newMockDB(t)
	registerUser(t, db, userID)
	b, api := newTestBot(t, KindCV, db)

	sendText(b, userID, "salom")

	msg := api.lastMessage(t)
	assert.Equal(t, MsgCVStartHint, msg.Text)
	assert.IsType(t, tgbotapi.ReplyKeyboardMarkup{}, msg.ReplyMarkup)
	assert.Empty(t, api.documents())
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	text := strings.Repeat("line one\n", 5)
	parts := splitMessage(text, 20)
	for _, p := range parts {
		assert.LessOrEqual(t, len(p), 20)
	}
	assert.Equal(t, text, strings.Join(parts, "\n"))

	// no line breaks: cut on a rune boundary
	parts = splitMessage(strings.Repeat("ж", 15), 10)
	for _, p := range parts {
		assert.True(t, len(p) <= 10)
		assert.NotContains(t, p, "�")
	}
	assert.Equal(t, strings.Repeat("ж", 15), strings.Join(parts, ""))
}
