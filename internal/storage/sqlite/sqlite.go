package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"kinobot/internal/models"
	"kinobot/internal/storage"
)

const dateLayout = "2006-01-02"

type userRow struct {
	ID       int64  `gorm:"primaryKey;autoIncrement:false"`
	Username string `gorm:"not null;default:''"`
	FullName string `gorm:"column:fullname;not null;default:''"`
	Phone    string `gorm:"not null;default:''"`
	JoinDate string `gorm:"index;not null"`
}

func (userRow) TableName() string { return "users" }

type movieRow struct {
	Code        int64  `gorm:"primaryKey;autoIncrement:false"`
	Name        string `gorm:"index"`
	NameFold    string `gorm:"column:name_fold;index;not null;default:''"`
	Language    string
	Quality     string
	Genre       string
	Description string
	FileID      string
	Views       int64 `gorm:"column:views_count;not null"`
}

func (movieRow) TableName() string { return "movies" }

type cvRow struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	UserID     int64 `gorm:"index"`
	FullName   string
	NameFold   string `gorm:"column:name_fold;not null;default:''"`
	BirthDate  string
	Position   string
	Experience string
	Skills     string
	Email      string
	Phone      string
	Downloads  int64     `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (cvRow) TableName() string { return "cvs" }

type channelRow struct {
	ChatID string `gorm:"primaryKey"`
	URL    string `gorm:"column:url"`
}

func (channelRow) TableName() string { return "forced_channels" }

// SQLiteDB is the single-file storage backend
type SQLiteDB struct {
	db *gorm.DB
}

// NewSQLiteDB opens (or creates) the database file in WAL mode
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(10000)", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQLite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(2 * time.Hour)

	return &SQLiteDB{db: db}, nil
}

// Initialize creates or migrates tables
func (s *SQLiteDB) Initialize(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&userRow{}, &movieRow{}, &cvRow{}, &channelRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	if err := s.backfillNameFold(ctx); err != nil {
		return fmt.Errorf("failed to backfill search names: %w", err)
	}
	return nil
}

// SQLite LIKE folds ASCII only, so names are matched against a copy lowered in Go.
// Rows written before the name_fold column existed get it here.
func (s *SQLiteDB) backfillNameFold(ctx context.Context) error {
	tx := s.db.WithContext(ctx)

	var movies []movieRow
	if err := tx.Where("name_fold = '' AND name <> ''").Find(&movies).Error; err != nil {
		return err
	}
	for _, m := range movies {
		err := tx.Model(&movieRow{}).Where("code = ?", m.Code).
			UpdateColumn("name_fold", fold(m.Name)).Error
		if err != nil {
			return err
		}
	}

	var cvs []cvRow
	if err := tx.Where("name_fold = '' AND full_name <> ''").Find(&cvs).Error; err != nil {
		return err
	}
	for _, cv := range cvs {
		err := tx.Model(&cvRow{}).Where("id = ?", cv.ID).
			UpdateColumn("name_fold", fold(cv.FullName)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func fold(s string) string {
	return strings.ToLower(s)
}

func (s *SQLiteDB) UpsertUser(ctx context.Context, user models.User) error {
	row := userRow{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Phone:    user.Phone,
		JoinDate: user.JoinDate.Format(dateLayout),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "fullname", "phone", "join_date"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u := row.toModel()
	return &u, nil
}

func (s *SQLiteDB) ListUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&userRow{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}

func (s *SQLiteDB) ListRecentUsers(ctx context.Context, limit int) ([]models.User, error) {
	var rows []userRow
	err := s.db.WithContext(ctx).Order("join_date DESC").Order("id").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]models.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toModel())
	}
	return users, nil
}

func (s *SQLiteDB) GetUserStats(ctx context.Context, now time.Time) (models.UserStats, error) {
	today := storage.Day(now)
	todayStr := today.Format(dateLayout)
	weekAgo := today.AddDate(0, 0, -7).Format(dateLayout)

	var stats models.UserStats
	tx := s.db.WithContext(ctx)
	if err := tx.Model(&userRow{}).Count(&stats.Total).Error; err != nil {
		return models.UserStats{}, fmt.Errorf("failed to count users: %w", err)
	}
	if err := tx.Model(&userRow{}).Where("join_date = ?", todayStr).Count(&stats.Today).Error; err != nil {
		return models.UserStats{}, fmt.Errorf("failed to count today's users: %w", err)
	}
	if err := tx.Model(&userRow{}).Where("join_date >= ?", weekAgo).Count(&stats.LastWeek).Error; err != nil {
		return models.UserStats{}, fmt.Errorf("failed to count weekly users: %w", err)
	}
	return stats, nil
}

func (r userRow) toModel() models.User {
	joined, _ := time.ParseInLocation(dateLayout, r.JoinDate, time.UTC)
	return models.User{
		ID:       r.ID,
		Username: r.Username,
		FullName: r.FullName,
		Phone:    r.Phone,
		JoinDate: joined,
	}
}

func (s *SQLiteDB) SaveMovie(ctx context.Context, movie models.Movie) error {
	row := movieRow{
		Code:        movie.Code,
		Name:        movie.Name,
		NameFold:    fold(movie.Name),
		Language:    movie.Language,
		Quality:     movie.Quality,
		Genre:       movie.Genre,
		Description: movie.Description,
		FileID:      movie.FileID,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "name_fold", "language", "quality", "genre", "description", "file_id"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save movie: %w", err)
	}
	return nil
}

func (s *SQLiteDB) DeleteMovie(ctx context.Context, code int64) (bool, error) {
	res := s.db.WithContext(ctx).Where("code = ?", code).Delete(&movieRow{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete movie: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *SQLiteDB) FindMovie(ctx context.Context, query string) (*models.Movie, error) {
	var row movieRow
	tx := s.db.WithContext(ctx)

	if code, ok := storage.ParseCode(query); ok {
		err := tx.Where("code = ?", code).Take(&row).Error
		if err == nil {
			m := row.toModel()
			return &m, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to find movie: %w", err)
		}
	}

	err := tx.Where(`name_fold LIKE ? ESCAPE '\'`, storage.ContainsPattern(fold(query))).Order("code").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find movie: %w", err)
	}
	m := row.toModel()
	return &m, nil
}

func (s *SQLiteDB) IncrementMovieViews(ctx context.Context, code int64) error {
	err := s.db.WithContext(ctx).Model(&movieRow{}).Where("code = ?", code).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	return nil
}

func (s *SQLiteDB) TopMovies(ctx context.Context, limit int) ([]models.Movie, error) {
	var rows []movieRow
	err := s.db.WithContext(ctx).Order("views_count DESC").Order("code").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list top movies: %w", err)
	}

	movies := make([]models.Movie, 0, len(rows))
	for _, r := range rows {
		movies = append(movies, r.toModel())
	}
	return movies, nil
}

func (r movieRow) toModel() models.Movie {
	return models.Movie{
		Code:        r.Code,
		Name:        r.Name,
		Language:    r.Language,
		Quality:     r.Quality,
		Genre:       r.Genre,
		Description: r.Description,
		FileID:      r.FileID,
		Views:       r.Views,
	}
}

func (s *SQLiteDB) CreateCV(ctx context.Context, cv models.CV) (int64, error) {
	row := cvRow{
		UserID:     cv.UserID,
		FullName:   cv.FullName,
		NameFold:   fold(cv.FullName),
		BirthDate:  cv.BirthDate,
		Position:   cv.Position,
		Experience: cv.Experience,
		Skills:     cv.Skills,
		Email:      cv.Email,
		Phone:      cv.Phone,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to create cv: %w", err)
	}
	return row.ID, nil
}

func (s *SQLiteDB) FindCV(ctx context.Context, query string) (*models.CV, error) {
	var row cvRow
	tx := s.db.WithContext(ctx)

	if id, ok := storage.ParseCode(query); ok {
		err := tx.Where("id = ?", id).Take(&row).Error
		if err == nil {
			cv := row.toModel()
			return &cv, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to find cv: %w", err)
		}
	}

	err := tx.Where(`name_fold LIKE ? ESCAPE '\'`, storage.ContainsPattern(fold(query))).Order("id").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cv: %w", err)
	}
	cv := row.toModel()
	return &cv, nil
}

func (s *SQLiteDB) IncrementCVDownloads(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Model(&cvRow{}).Where("id = ?", id).
		UpdateColumn("downloads", gorm.Expr("downloads + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment downloads: %w", err)
	}
	return nil
}

func (s *SQLiteDB) ListRecentCVs(ctx context.Context, limit int) ([]models.CV, error) {
	return s.listCVs(ctx, limit, "id DESC")
}

func (s *SQLiteDB) TopCVs(ctx context.Context, limit int) ([]models.CV, error) {
	return s.listCVs(ctx, limit, "downloads DESC", "id")
}

func (s *SQLiteDB) listCVs(ctx context.Context, limit int, order ...string) ([]models.CV, error) {
	tx := s.db.WithContext(ctx)
	for _, o := range order {
		tx = tx.Order(o)
	}

	var rows []cvRow
	if err := tx.Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list cvs: %w", err)
	}

	cvs := make([]models.CV, 0, len(rows))
	for _, r := range rows {
		cvs = append(cvs, r.toModel())
	}
	return cvs, nil
}

func (r cvRow) toModel() models.CV {
	return models.CV{
		ID:         r.ID,
		UserID:     r.UserID,
		FullName:   r.FullName,
		BirthDate:  r.BirthDate,
		Position:   r.Position,
		Experience: r.Experience,
		Skills:     r.Skills,
		Email:      r.Email,
		Phone:      r.Phone,
		Downloads:  r.Downloads,
		CreatedAt:  r.CreatedAt,
	}
}

func (s *SQLiteDB) UpsertChannel(ctx context.Context, channel models.Channel) error {
	row := channelRow{ChatID: channel.ChatID, URL: channel.URL}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"url"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert channel: %w", err)
	}
	return nil
}

func (s *SQLiteDB) DeleteChannel(ctx context.Context, chatID string) (bool, error) {
	res := s.db.WithContext(ctx).Where("chat_id = ?", chatID).Delete(&channelRow{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete channel: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *SQLiteDB) ListChannels(ctx context.Context) ([]models.Channel, error) {
	var rows []channelRow
	if err := s.db.WithContext(ctx).Order("chat_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}

	channels := make([]models.Channel, 0, len(rows))
	for _, r := range rows {
		channels = append(channels, models.Channel{ChatID: r.ChatID, URL: r.URL})
	}
	return channels, nil
}

// Close closes the underlying connection pool
func (s *SQLiteDB) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
