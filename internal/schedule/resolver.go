package schedule

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go-hallnav/internal/repository"
	"go-hallnav/pkg/models"
)

// NoScheduleFound is returned when a hall has no bookings on the requested day
const NoScheduleFound = "No schedule found"

const clockLayout = "15:04"

// Resolver turns a hall's bookings into a one-line human readable schedule
type Resolver struct {
	repo     repository.HallRepository
	location *time.Location
}

// NewResolver creates a resolver. Calendar days are evaluated in loc; nil means time.Local.
func NewResolver(repo repository.HallRepository, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	return &Resolver{repo: repo, location: loc}
}

// Location returns the time zone calendar days are evaluated in
func (r *Resolver) Location() *time.Location {
	return r.location
}

// Resolve returns the bookings of hallID that start on the same calendar day as at,
// sorted by start time and joined with "; ".
func (r *Resolver) Resolve(ctx context.Context, hallID string, at time.Time) (string, error) {
	day := at.In(r.location)

	entries, err := r.repo.GetSchedules(ctx, hallID, day)
	if err != nil {
		return "", fmt.Errorf("failed to load schedule for %s: %w", hallID, err)
	}

	entries = sameDay(entries, day)
	return Format(entries, r.location), nil
}

// Format sorts entries and renders them as "HH:MM-HH:MM Course" in loc
func Format(entries []models.ScheduleEntry, loc *time.Location) string {
	if len(entries) == 0 {
		return NoScheduleFound
	}

	sorted := make([]models.ScheduleEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		if !a.EndTime.Equal(b.EndTime) {
			return a.EndTime.Before(b.EndTime)
		}
		return a.CourseName < b.CourseName
	})

	parts := make([]string, len(sorted))
	for i, e := range sorted {
		parts[i] = fmt.Sprintf("%s-%s %s",
			e.StartTime.In(loc).Format(clockLayout), e.EndTime.In(loc).Format(clockLayout), e.CourseName)
	}
	return strings.Join(parts, "; ")
}

// sameDay drops entries the store returned that start outside day's calendar date
func sameDay(entries []models.ScheduleEntry, day time.Time) []models.ScheduleEntry {
	start, end := repository.DayBounds(day)
	kept := entries[:0:0]
	for _, e := range entries {
		if !e.StartTime.Before(start) && e.StartTime.Before(end) {
			kept = append(kept, e)
		}
	}
	return kept
}
