package stubs

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"kinobot/internal/models"
	"kinobot/internal/storage"
)

// MockDB is an in-memory implementation of the Storage interface for testing
type MockDB struct {
	mu       sync.RWMutex
	users    map[int64]models.User
	movies   map[int64]models.Movie
	cvs      []models.CV
	channels map[string]models.Channel
	nextCVID int64
}

// NewMockDB creates a new mock database
func NewMockDB() *MockDB {
	return &MockDB{
		users:    make(map[int64]models.User),
		movies:   make(map[int64]models.Movie),
		channels: make(map[string]models.Channel),
		nextCVID: 1,
	}
}

// Initialize is a no-op for the mock DB
func (m *MockDB) Initialize(ctx context.Context) error {
	return nil
}

// UpsertUser inserts or replaces a user
func (m *MockDB) UpsertUser(ctx context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user.JoinDate = storage.Day(user.JoinDate)
	m.users[user.ID] = user
	return nil
}

// GetUser returns a user by id
func (m *MockDB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &user, nil
}

// ListUserIDs returns ids of all users
func (m *MockDB) ListUserIDs(ctx context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ListRecentUsers returns the latest users by join date
func (m *MockDB) ListRecentUsers(ctx context.Context, limit int) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if !users[i].JoinDate.Equal(users[j].JoinDate) {
			return users[i].JoinDate.After(users[j].JoinDate)
		}
		return users[i].ID < users[j].ID
	})
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

// GetUserStats counts users by join date
func (m *MockDB) GetUserStats(ctx context.Context, now time.Time) (models.UserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	today := storage.Day(now)
	weekAgo := today.AddDate(0, 0, -7)

	var stats models.UserStats
	for _, u := range m.users {
		stats.Total++
		if u.JoinDate.Equal(today) {
			stats.Today++
		}
		if !u.JoinDate.Before(weekAgo) {
			stats.LastWeek++
		}
	}
	return stats, nil
}

// SaveMovie inserts a movie or updates an existing code, keeping its views
func (m *MockDB) SaveMovie(ctx context.Context, movie models.Movie) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.movies[movie.Code]; ok {
		movie.Views = existing.Views
	} else {
		movie.Views = 0
	}
	m.movies[movie.Code] = movie
	return nil
}

// DeleteMovie removes a movie by code
func (m *MockDB) DeleteMovie(ctx context.Context, code int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.movies[code]; !ok {
		return false, nil
	}
	delete(m.movies, code)
	return true, nil
}

// FindMovie matches by code first, then by name substring
func (m *MockDB) FindMovie(ctx context.Context, query string) (*models.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if code, ok := storage.ParseCode(query); ok {
		if movie, found := m.movies[code]; found {
			return &movie, nil
		}
	}

	codes := make([]int64, 0, len(m.movies))
	for code := range m.movies {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	needle := strings.ToLower(query)
	for _, code := range codes {
		movie := m.movies[code]
		if strings.Contains(strings.ToLower(movie.Name), needle) {
			return &movie, nil
		}
	}
	return nil, storage.ErrNotFound
}

// IncrementMovieViews adds one view to a movie
func (m *MockDB) IncrementMovieViews(ctx context.Context, code int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	movie, ok := m.movies[code]
	if !ok {
		return nil
	}
	movie.Views++
	m.movies[code] = movie
	return nil
}

// TopMovies returns movies ordered by views
func (m *MockDB) TopMovies(ctx context.Context, limit int) ([]models.Movie, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	movies := make([]models.Movie, 0, len(m.movies))
	for _, movie := range m.movies {
		movies = append(movies, movie)
	}
	sort.Slice(movies, func(i, j int) bool {
		if movies[i].Views != movies[j].Views {
			return movies[i].Views > movies[j].Views
		}
		return movies[i].Code < movies[j].Code
	})
	if limit > 0 && limit < len(movies) {
		movies = movies[:limit]
	}
	return movies, nil
}

// CreateCV stores a CV and returns its id
func (m *MockDB) CreateCV(ctx context.Context, cv models.CV) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cv.ID = m.nextCVID
	m.nextCVID++
	if cv.CreatedAt.IsZero() {
		cv.CreatedAt = time.Now()
	}
	m.cvs = append(m.cvs, cv)
	return cv.ID, nil
}

// FindCV matches by id first, then by full name substring
func (m *MockDB) FindCV(ctx context.Context, query string) (*models.CV, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id, ok := storage.ParseCode(query); ok {
		for _, cv := range m.cvs {
			if cv.ID == id {
				found := cv
				return &found, nil
			}
		}
	}

	needle := strings.ToLower(query)
	for _, cv := range m.cvs {
		if strings.Contains(strings.ToLower(cv.FullName), needle) {
			found := cv
			return &found, nil
		}
	}
	return nil, storage.ErrNotFound
}

// IncrementCVDownloads adds one download to a CV
func (m *MockDB) IncrementCVDownloads(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.cvs {
		if m.cvs[i].ID == id {
			m.cvs[i].Downloads++
		}
	}
	return nil
}

// ListRecentCVs returns the newest CVs first
func (m *MockDB) ListRecentCVs(ctx context.Context, limit int) ([]models.CV, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cvs := make([]models.CV, len(m.cvs))
	copy(cvs, m.cvs)
	sort.Slice(cvs, func(i, j int) bool { return cvs[i].ID > cvs[j].ID })
	if limit > 0 && limit < len(cvs) {
		cvs = cvs[:limit]
	}
	return cvs, nil
}

// TopCVs returns CVs ordered by downloads
func (m *MockDB) TopCVs(ctx context.Context, limit int) ([]models.CV, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cvs := make([]models.CV, len(m.cvs))
	copy(cvs, m.cvs)
	sort.Slice(cvs, func(i, j int) bool {
		if cvs[i].Downloads != cvs[j].Downloads {
			return cvs[i].Downloads > cvs[j].Downloads
		}
		return cvs[i].ID < cvs[j].ID
	})
	if limit > 0 && limit < len(cvs) {
		cvs = cvs[:limit]
	}
	return cvs, nil
}

// UpsertChannel inserts or replaces a channel
func (m *MockDB) UpsertChannel(ctx context.Context, channel models.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.channels[channel.ChatID] = channel
	return nil
}

// DeleteChannel removes a channel by chat id
func (m *MockDB) DeleteChannel(ctx context.Context, chatID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.channels[chatID]; !ok {
		return false, nil
	}
	delete(m.channels, chatID)
	return true, nil
}

// ListChannels returns all channels sorted by chat id
func (m *MockDB) ListChannels(ctx context.Context) ([]models.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	channels := make([]models.Channel, 0, len(m.channels))
	for _, ch := range m.channels {
		channels = append(channels, ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].ChatID < channels[j].ChatID })
	return channels, nil
}

// Close does nothing for mock DB
func (m *MockDB) Close() error {
	return nil
}
