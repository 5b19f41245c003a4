package ch

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"kinobot/internal/analytics"
	"kinobot/internal/models"
)

var _ analytics.Sink = (*Sink)(nil)

// Sink writes analytics events to ClickHouse
type Sink struct {
	conn clickhouse.Conn
}

// Options builds native protocol options for the given server
func Options(host string, port int, database, user, password string, useTLS bool) *clickhouse.Options {
	options := &clickhouse.Options{
		Addr:     []string{fmt.Sprintf("%s:%d", host, port)},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
		DialTimeout: 10 * time.Second,
	}

	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}
	return options
}

// NewSink connects to ClickHouse and checks the connection
func NewSink(ctx context.Context, options *clickhouse.Options) (*Sink, error) {
	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Sink{conn: conn}, nil
}

// OpenDB returns a database/sql handle for goose migrations
func OpenDB(options *clickhouse.Options) *sql.DB {
	return clickhouse.OpenDB(options)
}

// RecordView appends one content view
func (s *Sink) RecordView(ctx context.Context, event models.ViewEvent) error {
	err := s.conn.Exec(ctx, `INSERT INTO view_events (time, bot, content_id, user_id) VALUES (?, ?, ?, ?)`,
		eventTime(event.Time), event.Bot, event.ContentID, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}
	return nil
}

// RecordBroadcast appends a broadcast summary
func (s *Sink) RecordBroadcast(ctx context.Context, event models.BroadcastEvent) error {
	err := s.conn.Exec(ctx, `INSERT INTO broadcast_events (time, bot, admin_id, total, sent) VALUES (?, ?, ?, ?, ?)`,
		eventTime(event.Time), event.Bot, event.AdminID, int64(event.Total), int64(event.Sent))
	if err != nil {
		return fmt.Errorf("failed to record broadcast: %w", err)
	}
	return nil
}

func (s *Sink) ViewsSince(ctx context.Context, bot string, since time.Time) (int64, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM view_events WHERE bot = ? AND time >= ?`, bot, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count views: %w", err)
	}
	return int64(count), nil
}

// LastBroadcasts returns the most recent broadcasts of bot
func (s *Sink) LastBroadcasts(ctx context.Context, bot string, limit int) ([]models.BroadcastEvent, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT time, bot, admin_id, total, sent
		FROM broadcast_events
		WHERE bot = ?
		ORDER BY time DESC
		LIMIT ?`, bot, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get last broadcasts: %w", err)
	}
	defer rows.Close()

	var events []models.BroadcastEvent
	for rows.Next() {
		var (
			event       models.BroadcastEvent
			total, sent int64
		)
		if err := rows.Scan(&event.Time, &event.Bot, &event.AdminID, &total, &sent); err != nil {
			return nil, fmt.Errorf("failed to scan broadcast: %w", err)
		}
		event.Total, event.Sent = int(total), int(sent)
		events = append(events, event)
	}
	return events, rows.Err()
}

// Close closes the database connection
func (s *Sink) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func eventTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
