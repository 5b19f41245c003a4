// Package analytics records content views and broadcasts for reporting.
package analytics

import (
	"context"
	"time"

	"kinobot/internal/models"
)

// Sink is an append-only event log
type Sink interface {
	RecordView(ctx context.Context, event models.ViewEvent) error
	RecordBroadcast(ctx context.Context, event models.BroadcastEvent) error
	// ViewsSince counts views recorded for bot at or after since
	ViewsSince(ctx context.Context, bot string, since time.Time) (int64, error)
	// LastBroadcasts returns up to limit broadcasts of bot, newest first
	LastBroadcasts(ctx context.Context, bot string, limit int) ([]models.BroadcastEvent, error)
	Close() error
}

// Nop discards every event
type Nop struct{}

func (Nop) RecordView(context.Context, models.ViewEvent) error           { return nil }
func (Nop) RecordBroadcast(context.Context, models.BroadcastEvent) error { return nil }
func (Nop) ViewsSince(context.Context, string, time.Time) (int64, error) { return 0, nil }
func (Nop) LastBroadcasts(context.Context, string, int) ([]models.BroadcastEvent, error) {
	return nil, nil
}
func (Nop) Close() error { return nil }

// Enabled reports whether events sent to s are actually stored
func Enabled(s Sink) bool {
	if s == nil {
		return false
	}
	_, nop := s.(Nop)
	return !nop
}
