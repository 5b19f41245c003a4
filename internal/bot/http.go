package bot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	"kinobot/internal/analytics"
)

const (
	// initDataTTL is how long a Mini App initData payload stays valid
	initDataTTL = 24 * time.Hour

	lastBroadcastsLimit = 5
)

// HTTPServer serves the admin JSON API used by the Mini App dashboard
type HTTPServer struct {
	bot      *Bot
	skipAuth bool // local development only
}

// NewHTTPServer creates a new HTTP server for the admin API
func NewHTTPServer(bot *Bot, skipAuth bool) *HTTPServer {
	return &HTTPServer{
		bot:      bot,
		skipAuth: skipAuth,
	}
}

// RegisterRoutes mounts the admin API under /api
func (hs *HTTPServer) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(hs.authMiddleware)
		r.Get("/stats", hs.handleStats)
		r.Get("/users", hs.handleUsers)
		r.Get("/channels", hs.handleChannels)
	})
}

// validateTelegramInitData checks the initData signature and returns the admin's user id
func (hs *HTTPServer) validateTelegramInitData(initData string) (int64, error) {
	if initData == "" {
		return 0, fmt.Errorf("missing initData")
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, fmt.Errorf("invalid initData format: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return 0, fmt.Errorf("missing hash in initData")
	}
	values.Del("hash")

	if !hmac.Equal([]byte(signInitData(hs.bot.Token(), values)), []byte(hash)) {
		return 0, fmt.Errorf("invalid hash")
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("missing auth_date")
	}
	if hs.bot.now().Sub(time.Unix(authDate, 0)) > initDataTTL {
		return 0, fmt.Errorf("initData is too old")
	}

	userStr := values.Get("user")
	if userStr == "" {
		return 0, fmt.Errorf("missing user data")
	}

	var userData struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(userStr), &userData); err != nil {
		return 0, fmt.Errorf("invalid user data: %w", err)
	}

	if !hs.bot.isAdmin(userData.ID) {
		return 0, fmt.Errorf("user not allowed")
	}
	return userData.ID, nil
}

// signInitData computes the Web App hash over the sorted key=value lines
func signInitData(token string, values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataCheckString strings.Builder
	for i, k := range keys {
		if i > 0 {
			dataCheckString.WriteByte('\n')
		}
		dataCheckString.WriteString(k)
		dataCheckString.WriteByte('=')
		dataCheckString.WriteString(values.Get(k))
	}

	secretKey := hmac.New(sha256.New, []byte("WebAppData"))
	secretKey.Write([]byte(token))

	h := hmac.New(sha256.New, secretKey.Sum(nil))
	h.Write([]byte(dataCheckString.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// authMiddleware accepts "Authorization: tma <initData>" from admins
func (hs *HTTPServer) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hs.skipAuth {
			hs.bot.logger.Debug("Skipping authentication (local mode)",
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "tma ") {
			hs.bot.logger.Warn("Missing or invalid authorization header")
			renderError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		userID, err := hs.validateTelegramInitData(strings.TrimPrefix(authHeader, "tma "))
		if err != nil {
			hs.bot.logger.Warn("Failed to validate initData",
				zap.Error(err),
				zap.String("remote_addr", r.RemoteAddr),
			)
			renderError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		hs.bot.logger.Debug("Authenticated request",
			zap.Int64("user_id", userID),
			zap.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r)
	})
}

type statsResponse struct {
	Bot         string    `json:"bot"`
	UsersTotal  int64     `json:"users_total"`
	UsersToday  int64     `json:"users_today"`
	UsersWeek   int64     `json:"users_week"`
	Top         []topItem `json:"top"`
	RecentViews *int64    `json:"recent_views,omitempty"`

	LastBroadcasts []broadcastItem `json:"last_broadcasts,omitempty"`
}

type broadcastItem struct {
	Time    time.Time `json:"time"`
	AdminID int64     `json:"admin_id"`
	Total   int       `json:"total"`
	Sent    int       `json:"sent"`
}

type topItem struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type userItem struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	JoinDate string `json:"join_date"`
}

type channelItem struct {
	ChatID string `json:"chat_id"`
	URL    string `json:"url"`
}

func (hs *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, top, err := hs.bot.statsReport(r.Context())
	if err != nil {
		hs.bot.logger.Error("Failed to build statistics", zap.Error(err))
		renderError(w, r, http.StatusInternalServerError, "Failed to fetch statistics")
		return
	}

	resp := statsResponse{
		Bot:         string(hs.bot.kind),
		UsersTotal:  stats.Users.Total,
		UsersToday:  stats.Users.Today,
		UsersWeek:   stats.Users.LastWeek,
		Top:         make([]topItem, 0, len(top)),
		RecentViews: stats.RecentViews,
	}
	for _, item := range top {
		resp.Top = append(resp.Top, topItem{Name: item.Name, Count: item.Count})
	}

	if analytics.Enabled(hs.bot.sink) {
		events, err := hs.bot.sink.LastBroadcasts(r.Context(), string(hs.bot.kind), lastBroadcastsLimit)
		if err != nil {
			hs.bot.logger.Warn("Failed to query last broadcasts", zap.Error(err))
		}
		for _, e := range events {
			resp.LastBroadcasts = append(resp.LastBroadcasts, broadcastItem{
				Time:    e.Time,
				AdminID: e.AdminID,
				Total:   e.Total,
				Sent:    e.Sent,
			})
		}
	}
	render.JSON(w, r, resp)
}

func (hs *HTTPServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	limit := recentUsersLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			renderError(w, r, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(n, 500)
	}

	users, err := hs.bot.db.ListRecentUsers(r.Context(), limit)
	if err != nil {
		hs.bot.logger.Error("Failed to list users", zap.Error(err))
		renderError(w, r, http.StatusInternalServerError, "Failed to fetch users")
		return
	}

	items := make([]userItem, 0, len(users))
	for _, u := range users {
		items = append(items, userItem{
			ID:       u.ID,
			Username: u.Username,
			FullName: u.FullName,
			Phone:    u.Phone,
			JoinDate: u.JoinDate.Format(time.DateOnly),
		})
	}
	render.JSON(w, r, items)
}

func (hs *HTTPServer) handleChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := hs.bot.db.ListChannels(r.Context())
	if err != nil {
		hs.bot.logger.Error("Failed to list channels", zap.Error(err))
		renderError(w, r, http.StatusInternalServerError, "Failed to fetch channels")
		return
	}

	items := make([]channelItem, 0, len(channels))
	for _, ch := range channels {
		items = append(items, channelItem{ChatID: ch.ChatID, URL: ch.URL})
	}
	render.JSON(w, r, items)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]string{"error": message})
}
