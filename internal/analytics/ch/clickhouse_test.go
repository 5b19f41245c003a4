package ch

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clickhouseTC "github.com/testcontainers/testcontainers-go/modules/clickhouse"

	"kinobot/internal/models"
	"kinobot/migrations"
)

// runMigrations applies the Up section of the embedded ClickHouse migrations
func runMigrations(ctx context.Context, s *Sink) error {
	_ = s.conn.Exec(ctx, "DROP TABLE IF EXISTS view_events")
	_ = s.conn.Exec(ctx, "DROP TABLE IF EXISTS broadcast_events")

	raw, err := migrations.FS.ReadFile("clickhouse/00001_create_events.sql")
	if err != nil {
		return err
	}
	up := strings.SplitN(string(raw), "-- +goose Down", 2)[0]
	for _, stmt := range strings.Split(up, ";") {
		var lines []string
		for _, line := range strings.Split(stmt, "\n") {
			if !strings.HasPrefix(strings.TrimSpace(line), "--") {
				lines = append(lines, line)
			}
		}
		stmt = strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt == "" {
			continue
		}
		if err := s.conn.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// setupTestSink creates a test ClickHouse instance using testcontainers
func setupTestSink(t *testing.T) (*Sink, func()) {
	if testing.Short() {
		t.Skip("skipping ClickHouse container test in short mode")
	}
	ctx := context.Background()

	clickhouseContainer, err := clickhouseTC.Run(ctx,
		"clickhouse/clickhouse-server:24.3.3.102-alpine",
		clickhouseTC.WithUsername("default"),
		clickhouseTC.WithPassword(""),
		clickhouseTC.WithDatabase("default"),
	)
	require.NoError(t, err, "Failed to start ClickHouse container")

	host, err := clickhouseContainer.Host(ctx)
	require.NoError(t, err)

	port, err := clickhouseContainer.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)

	sink, err := NewSink(ctx, Options(host, port.Int(), "default", "default", "", false))
	require.NoError(t, err, "Failed to connect to ClickHouse")

	require.NoError(t, runMigrations(ctx, sink), "Failed to run migrations")

	cleanup := func() {
		sink.Close()
		clickhouseContainer.Terminate(ctx)
	}
	return sink, cleanup
}

func TestSink_ViewsSince(t *testing.T) {
	sink, cleanup := setupTestSink(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, sink.RecordView(ctx, models.ViewEvent{Time: now, Bot: "kinobot", ContentID: 7, UserID: 1}))
	require.NoError(t, sink.RecordView(ctx, models.ViewEvent{Time: now.Add(-time.Hour), Bot: "kinobot", ContentID: 7, UserID: 2}))
	require.NoError(t, sink.RecordView(ctx, models.ViewEvent{Time: now.AddDate(0, 0, -10), Bot: "kinobot", ContentID: 8, UserID: 1}))
	require.NoError(t, sink.RecordView(ctx, models.ViewEvent{Time: now, Bot: "cvbot", ContentID: 1, UserID: 1}))

	views, err := sink.ViewsSince(ctx, "kinobot", now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(2), views)

	views, err = sink.ViewsSince(ctx, "cvbot", now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), views)
}

func TestNewSink_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	options := Options("127.0.0.1", 1, "default", "default", "", false)
	options.DialTimeout = time.Second

	sink, err := NewSink(ctx, options)
	require.Error(t, err)
	assert.Nil(t, sink)
}

func TestSink_LastBroadcasts(t *testing.T) {
	sink, cleanup := setupTestSink(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := sink.RecordBroadcast(ctx, models.BroadcastEvent{
			Time:    base.Add(time.Duration(i) * time.Hour),
			Bot:     "kinobot",
			AdminID: 99,
			Total:   10,
			Sent:    10 - i,
		})
		require.NoError(t, err)
	}

	events, err := sink.LastBroadcasts(ctx, "kinobot", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 8, events[0].Sent)
	assert.Equal(t, 9, events[1].Sent)
	assert.Equal(t, int64(99), events[0].AdminID)
	assert.WithinDuration(t, base.Add(2*time.Hour), events[0].Time, time.Second)
}

func TestSink_ConcurrentViews(t *testing.T) {
	sink, cleanup := setupTestSink(t)
	defer cleanup()

	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			assert.NoError(t, sink.RecordView(ctx, models.ViewEvent{Bot: "kinobot", ContentID: int64(idx), UserID: 1}))
		}(i)
	}
	wg.Wait()

	views, err := sink.ViewsSince(ctx, "kinobot", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(10), views)
}
