package repository

import (
	"context"
	"time"

	"go-hallnav/pkg/models"
)

// HallRepository is the read side of the hall and schedule store
type HallRepository interface {
	// GetHalls returns every registered hall
	GetHalls(ctx context.Context) ([]models.Hall, error)

	// GetSchedules returns the bookings of a hall on the calendar day of
	// onDate, in onDate's location. Callers must not rely on the ordering.
	GetSchedules(ctx context.Context, hallID string, onDate time.Time) ([]models.ScheduleEntry, error)
}

// HallWriter is the administrative write side used by seeding
type HallWriter interface {
	EnsureSchema(ctx context.Context) error
	UpsertHall(ctx context.Context, hall models.Hall) error
	AddSchedule(ctx context.Context, entry models.ScheduleEntry) error
}

// DayBounds returns the half-open interval [start, end) of t's calendar day in t's location
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
