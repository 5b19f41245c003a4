// Package storagetest holds behavioral tests shared by every storage backend.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinobot/internal/models"
	"kinobot/internal/storage"
)

// Factory returns a fresh, initialized and empty storage plus its cleanup
type Factory func(t *testing.T) (storage.Storage, func())

// Run executes the shared suite against the storage built by newDB
func Run(t *testing.T, newDB Factory) {
	t.Run("UpsertUser", func(t *testing.T) { testUpsertUser(t, newDB) })
	t.Run("UserStats", func(t *testing.T) { testUserStats(t, newDB) })
	t.Run("RecentUsers", func(t *testing.T) { testRecentUsers(t, newDB) })
	t.Run("FindMovieByCode", func(t *testing.T) { testFindMovieByCode(t, newDB) })
	t.Run("FindMovieByName", func(t *testing.T) { testFindMovieByName(t, newDB) })
	t.Run("FindByNameNonASCII", func(t *testing.T) { testFindByNameNonASCII(t, newDB) })
	t.Run("FindByNameLiteral", func(t *testing.T) { testFindByNameLiteral(t, newDB) })
	t.Run("FindMovieMissing", func(t *testing.T) { testFindMovieMissing(t, newDB) })
	t.Run("SaveMovieKeepsViews", func(t *testing.T) { testSaveMovieKeepsViews(t, newDB) })
	t.Run("DeleteMovie", func(t *testing.T) { testDeleteMovie(t, newDB) })
	t.Run("TopMovies", func(t *testing.T) { testTopMovies(t, newDB) })
	t.Run("CVs", func(t *testing.T) { testCVs(t, newDB) })
	t.Run("Channels", func(t *testing.T) { testChannels(t, newDB) })
}

func testUpsertUser(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := db.GetUser(ctx, 42)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	joined := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)
	require.NoError(t, db.UpsertUser(ctx, models.User{ID: 42, Username: "neo", FullName: "Thomas", Phone: "+998", JoinDate: joined}))
	require.NoError(t, db.UpsertUser(ctx, models.User{ID: 42, Username: "neo", FullName: "Thomas Anderson", Phone: "+998901", JoinDate: joined}))

	user, err := db.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Thomas Anderson", user.FullName)
	assert.Equal(t, "+998901", user.Phone)
	assert.True(t, user.HasPhone())

	ids, err := db.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, ids)
}

func testUserStats(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.UpsertUser(ctx, models.User{ID: 1, Phone: "1", JoinDate: now}))
	require.NoError(t, db.UpsertUser(ctx, models.User{ID: 2, Phone: "2", JoinDate: now.AddDate(0, 0, -3)}))
	require.NoError(t, db.UpsertUser(ctx, models.User{ID: 3, Phone: "3", JoinDate: now.AddDate(0, 0, -30)}))

	stats, err := db.GetUserStats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{Total: 3, Today: 1, LastWeek: 2}, stats)
}

func testRecentUsers(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, db.UpsertUser(ctx, models.User{ID: i, Phone: "p", JoinDate: base.AddDate(0, 0, int(i))}))
	}

	users, err := db.ListRecentUsers(ctx, 3)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, int64(5), users[0].ID)
	assert.Equal(t, int64(4), users[1].ID)
	assert.Equal(t, int64(3), users[2].ID)
}

func testFindMovieByCode(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 7, Name: "Skyfall", FileID: "vid-7"}))

	movie, err := db.FindMovie(ctx, "007")
	require.NoError(t, err)
	assert.Equal(t, int64(7), movie.Code)
	assert.Equal(t, int64(0), movie.Views)

	require.NoError(t, db.IncrementMovieViews(ctx, movie.Code))

	movie, err = db.FindMovie(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, int64(1), movie.Views)
}

func testFindMovieByName(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 1, Name: "The Matrix"}))
	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 12, Name: "Movie 1"}))

	movie, err := db.FindMovie(ctx, "matrix")
	require.NoError(t, err)
	assert.Equal(t, int64(1), movie.Code)

	// "1" is both a code and a substring of "Movie 1"; the code wins
	movie, err = db.FindMovie(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), movie.Code)
}

func testFindByNameNonASCII(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 4, Name: "Бахор Қайтади"}))
	id, err := db.CreateCV(ctx, models.CV{UserID: 1, FullName: "Шахноза Каримова"})
	require.NoError(t, err)

	movie, err := db.FindMovie(ctx, "бахор")
	require.NoError(t, err)
	assert.Equal(t, int64(4), movie.Code)

	cv, err := db.FindCV(ctx, "КАРИМОВА")
	require.NoError(t, err)
	assert.Equal(t, id, cv.ID)
}

func testFindByNameLiteral(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 3, Name: "Axe"}))
	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 5, Name: "100% Love"}))

	movie, err := db.FindMovie(ctx, "0% l")
	require.NoError(t, err)
	assert.Equal(t, int64(5), movie.Code)

	// wildcards in the query are plain characters
	_, err = db.FindMovie(ctx, "a_e")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = db.FindMovie(ctx, "x%")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testFindMovieMissing(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 5, Name: "Alien"}))

	_, err := db.FindMovie(ctx, "Predator")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	top, err := db.TopMovies(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, int64(0), top[0].Views)
}

func testSaveMovieKeepsViews(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 3, Name: "Old", FileID: "a"}))
	require.NoError(t, db.IncrementMovieViews(ctx, 3))
	require.NoError(t, db.IncrementMovieViews(ctx, 3))
	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 3, Name: "New", FileID: "b"}))

	movie, err := db.FindMovie(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "New", movie.Name)
	assert.Equal(t, "b", movie.FileID)
	assert.Equal(t, int64(2), movie.Views)
}

func testDeleteMovie(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: 9, Name: "Nine"}))

	deleted, err := db.DeleteMovie(ctx, 9)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = db.DeleteMovie(ctx, 9)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testTopMovies(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	for code := int64(1); code <= 3; code++ {
		require.NoError(t, db.SaveMovie(ctx, models.Movie{Code: code, Name: "m"}))
		for i := int64(0); i < code; i++ {
			require.NoError(t, db.IncrementMovieViews(ctx, code))
		}
	}

	top, err := db.TopMovies(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(3), top[0].Code)
	assert.Equal(t, int64(3), top[0].Views)
	assert.Equal(t, int64(2), top[1].Code)
}

func testCVs(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := db.CreateCV(ctx, models.CV{UserID: 1, FullName: "Ali Valiyev", Email: "ali@example.com"})
	require.NoError(t, err)
	second, err := db.CreateCV(ctx, models.CV{UserID: 2, FullName: "Vali Aliyev", Email: "vali@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	cv, err := db.FindCV(ctx, "vali a")
	require.NoError(t, err)
	assert.Equal(t, second, cv.ID)
	assert.Equal(t, "vali@example.com", cv.Email)

	require.NoError(t, db.IncrementCVDownloads(ctx, first))

	cv, err = db.FindCV(ctx, "Ali Valiyev")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cv.Downloads)

	_, err = db.FindCV(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	recent, err := db.ListRecentCVs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second, recent[0].ID)

	top, err := db.TopCVs(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, first, top[0].ID)
}

func testChannels(t *testing.T, newDB Factory) {
	db, cleanup := newDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, db.UpsertChannel(ctx, models.Channel{ChatID: "-100200", URL: "https://t.me/a"}))
	require.NoError(t, db.UpsertChannel(ctx, models.Channel{ChatID: "-100100", URL: "https://t.me/b"}))
	require.NoError(t, db.UpsertChannel(ctx, models.Channel{ChatID: "-100200", URL: "https://t.me/c"}))

	channels, err := db.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, models.Channel{ChatID: "-100100", URL: "https://t.me/b"}, channels[0])
	assert.Equal(t, models.Channel{ChatID: "-100200", URL: "https://t.me/c"}, channels[1])

	deleted, err := db.DeleteChannel(ctx, "-100200")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = db.DeleteChannel(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, deleted)
}
