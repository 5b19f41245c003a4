package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"kinobot/internal/models"
	"kinobot/internal/storage"
)

// Schema is applied on every start; every statement is idempotent
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		fullname TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		join_date DATE NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS movies (
		code BIGINT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		quality TEXT NOT NULL DEFAULT '',
		genre TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		file_id TEXT NOT NULL DEFAULT '',
		views_count BIGINT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS cvs (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		birth_date TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		experience TEXT NOT NULL DEFAULT '',
		skills TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		downloads BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS forced_channels (
		chat_id TEXT PRIMARY KEY,
		url TEXT NOT NULL DEFAULT ''
	)`,
}

const movieColumns = `code, name, language, quality, genre, description, file_id, views_count`

const cvColumns = `id, user_id, full_name, birth_date, position, experience, skills, email, phone, downloads, created_at`

type PostgresDB struct {
	pool *pgxpool.Pool
}

// NewPostgresDB opens a connection pool and checks it with a ping
func NewPostgresDB(ctx context.Context, databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}

	return &PostgresDB{pool: pool}, nil
}

// Initialize creates missing tables
func (db *PostgresDB) Initialize(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// ============================================
// Users
// ============================================

func (db *PostgresDB) UpsertUser(ctx context.Context, user models.User) error {
	query := `
		INSERT INTO users (id, username, fullname, phone, join_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			fullname = EXCLUDED.fullname,
			phone = EXCLUDED.phone,
			join_date = EXCLUDED.join_date`

	_, err := db.pool.Exec(ctx, query, user.ID, user.Username, user.FullName, user.Phone, storage.Day(user.JoinDate))
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (db *PostgresDB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT id, username, fullname, phone, join_date FROM users WHERE id = $1`

	var u models.User
	err := db.pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Username, &u.FullName, &u.Phone, &u.JoinDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (db *PostgresDB) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := db.pool.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (db *PostgresDB) ListRecentUsers(ctx context.Context, limit int) ([]models.User, error) {
	query := `
		SELECT id, username, fullname, phone, join_date
		FROM users
		ORDER BY join_date DESC, id
		LIMIT $1`

	rows, err := db.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Phone, &u.JoinDate); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (db *PostgresDB) GetUserStats(ctx context.Context, now time.Time) (models.UserStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE join_date = $1),
			COUNT(*) FILTER (WHERE join_date >= $2)
		FROM users`

	today := storage.Day(now)
	var stats models.UserStats
	err := db.pool.QueryRow(ctx, query, today, today.AddDate(0, 0, -7)).Scan(&stats.Total, &stats.Today, &stats.LastWeek)
	if err != nil {
		return models.UserStats{}, fmt.Errorf("failed to count users: %w", err)
	}
	return stats, nil
}

// ============================================
// Movies
// ============================================

func (db *PostgresDB) SaveMovie(ctx context.Context, movie models.Movie) error {
	query := `
		INSERT INTO movies (code, name, language, quality, genre, description, file_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET
			name = EXCLUDED.name,
			language = EXCLUDED.language,
			quality = EXCLUDED.quality,
			genre = EXCLUDED.genre,
			description = EXCLUDED.description,
			file_id = EXCLUDED.file_id`

	_, err := db.pool.Exec(ctx, query, movie.Code, movie.Name, movie.Language, movie.Quality,
		movie.Genre, movie.Description, movie.FileID)
	if err != nil {
		return fmt.Errorf("failed to save movie: %w", err)
	}
	return nil
}

func (db *PostgresDB) DeleteMovie(ctx context.Context, code int64) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM movies WHERE code = $1`, code)
	if err != nil {
		return false, fmt.Errorf("failed to delete movie: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (db *PostgresDB) FindMovie(ctx context.Context, query string) (*models.Movie, error) {
	var code *int64
	if c, ok := storage.ParseCode(query); ok {
		code = &c
	}

	sql := `
		SELECT ` + movieColumns + `
		FROM movies
		WHERE code = $1 OR name ILIKE $2
		ORDER BY COALESCE(code = $1, false) DESC, code
		LIMIT 1`

	m, err := scanMovie(db.pool.QueryRow(ctx, sql, code, storage.ContainsPattern(query)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find movie: %w", err)
	}
	return m, nil
}

func (db *PostgresDB) IncrementMovieViews(ctx context.Context, code int64) error {
	_, err := db.pool.Exec(ctx, `UPDATE movies SET views_count = views_count + 1 WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

func (db *PostgresDB) TopMovies(ctx context.Context, limit int) ([]models.Movie, error) {
	rows, err := db.pool.Query(ctx, `SELECT `+movieColumns+` FROM movies ORDER BY views_count DESC, code LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top movies: %w", err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, *m)
	}
	return movies, rows.Err()
}

func scanMovie(row pgx.Row) (*models.Movie, error) {
	var m models.Movie
	err := row.Scan(&m.Code, &m.Name, &m.Language, &m.Quality, &m.Genre, &m.Description, &m.FileID, &m.Views)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ============================================
// CVs
// ============================================

func (db *PostgresDB) CreateCV(ctx context.Context, cv models.CV) (int64, error) {
	query := `
		INSERT INTO cvs (user_id, full_name, birth_date, position, experience, skills, email, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	var id int64
	err := db.pool.QueryRow(ctx, query, cv.UserID, cv.FullName, cv.BirthDate, cv.Position,
		cv.Experience, cv.Skills, cv.Email, cv.Phone).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create cv: %w", err)
	}
	return id, nil
}

func (db *PostgresDB) FindCV(ctx context.Context, query string) (*models.CV, error) {
	var id *int64
	if c, ok := storage.ParseCode(query); ok {
		id = &c
	}

	sql := `
		SELECT ` + cvColumns + `
		FROM cvs
		WHERE id = $1 OR full_name ILIKE $2
		ORDER BY COALESCE(id = $1, false) DESC, id
		LIMIT 1`

	cv, err := scanCV(db.pool.QueryRow(ctx, sql, id, storage.ContainsPattern(query)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cv: %w", err)
	}
	return cv, nil
}

func (db *PostgresDB) IncrementCVDownloads(ctx context.Context, id int64) error {
	_, err := db.pool.Exec(ctx, `UPDATE cvs SET downloads = downloads + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment downloads: %w", err)
	}
	return nil
}

func (db *PostgresDB) ListRecentCVs(ctx context.Context, limit int) ([]models.CV, error) {
	return db.queryCVs(ctx, `SELECT `+cvColumns+` FROM cvs ORDER BY id DESC LIMIT $1`, limit)
}

func (db *PostgresDB) TopCVs(ctx context.Context, limit int) ([]models.CV, error) {
	return db.queryCVs(ctx, `SELECT `+cvColumns+` FROM cvs ORDER BY downloads DESC, id LIMIT $1`, limit)
}

func (db *PostgresDB) queryCVs(ctx context.Context, query string, args ...any) ([]models.CV, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cvs: %w", err)
	}
	defer rows.Close()

	var cvs []models.CV
	for rows.Next() {
		cv, err := scanCV(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cv: %w", err)
		}
		cvs = append(cvs, *cv)
	}
	return cvs, rows.Err()
}

func scanCV(row pgx.Row) (*models.CV, error) {
	var cv models.CV
	err := row.Scan(&cv.ID, &cv.UserID, &cv.FullName, &cv.BirthDate, &cv.Position, &cv.Experience,
		&cv.Skills, &cv.Email, &cv.Phone, &cv.Downloads, &cv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &cv, nil
}

// ============================================
// Channels
// ============================================

func (db *PostgresDB) UpsertChannel(ctx context.Context, channel models.Channel) error {
	query := `
		INSERT INTO forced_channels (chat_id, url)
		VALUES ($1, $2)
		ON CONFLICT (chat_id) DO UPDATE SET url = EXCLUDED.url`

	if _, err := db.pool.Exec(ctx, query, channel.ChatID, channel.URL); err != nil {
		return fmt.Errorf("failed to upsert channel: %w", err)
	}
	return nil
}

func (db *PostgresDB) DeleteChannel(ctx context.Context, chatID string) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM forced_channels WHERE chat_id = $1`, chatID)
	if err != nil {
		return false, fmt.Errorf("failed to delete channel: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (db *PostgresDB) ListChannels(ctx context.Context) ([]models.Channel, error) {
	rows, err := db.pool.Query(ctx, `SELECT chat_id, url FROM forced_channels ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ChatID, &ch.URL); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// Close closes the connection pool
func (db *PostgresDB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}
