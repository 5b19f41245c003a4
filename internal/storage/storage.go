package storage

import (
	"context"
	"errors"
	"time"

	"kinobot/internal/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("not found")

// Storage defines the interface for data storage operations
type Storage interface {
	// User operations
	UpsertUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUserIDs(ctx context.Context) ([]int64, error)
	ListRecentUsers(ctx context.Context, limit int) ([]models.User, error)

	// GetUserStats counts all users, users who joined on the day of now and
	// users who joined within the seven days before it
	GetUserStats(ctx context.Context, now time.Time) (models.UserStats, error)

	// Movie operations

	// SaveMovie inserts a movie or updates the descriptive fields of an existing
	// code. The view counter of an existing movie is kept.
	SaveMovie(ctx context.Context, movie models.Movie) error
	DeleteMovie(ctx context.Context, code int64) (bool, error)

	// FindMovie matches query against the code (when query is numeric) or as a
	// case-insensitive substring of the name, for any script. LIKE wildcards in
	// query are literal. A code match wins.
	FindMovie(ctx context.Context, query string) (*models.Movie, error)
	IncrementMovieViews(ctx context.Context, code int64) error
	TopMovies(ctx context.Context, limit int) ([]models.Movie, error)

	// CV operations
	CreateCV(ctx context.Context, cv models.CV) (int64, error)
	// FindCV matches by id, then by full name the same way FindMovie does
	FindCV(ctx context.Context, query string) (*models.CV, error)
	IncrementCVDownloads(ctx context.Context, id int64) error
	ListRecentCVs(ctx context.Context, limit int) ([]models.CV, error)
	TopCVs(ctx context.Context, limit int) ([]models.CV, error)

	// Channel operations
	UpsertChannel(ctx context.Context, channel models.Channel) error
	DeleteChannel(ctx context.Context, chatID string) (bool, error)
	ListChannels(ctx context.Context) ([]models.Channel, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
