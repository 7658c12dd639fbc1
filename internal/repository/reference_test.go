package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-hallnav/pkg/models"
)

type stubRepo struct {
	halls []models.Hall
	err   error
}

func (s stubRepo) GetHalls(context.Context) ([]models.Hall, error) {
	return s.halls, s.err
}

func (s stubRepo) GetSchedules(context.Context, string, time.Time) ([]models.ScheduleEntry, error) {
	return nil, nil
}

func TestLoadReferenceData(t *testing.T) {
	repo := stubRepo{halls: []models.Hall{
		{Name: "LT3 & 4", Capacity: 200},
		{Name: "LT1 & 2", Capacity: 150},
	}}

	ref, err := LoadReferenceData(context.Background(), repo)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	names := ref.HallNames()
	if len(names) != 2 || names[0] != "LT1 & 2" || names[1] != "LT3 & 4" {
		t.Errorf("Expected sorted names, got %v", names)
	}

	hall, err := ref.Hall("LT3 & 4")
	if err != nil || hall.Capacity != 200 {
		t.Errorf("Expected LT3 & 4 with capacity 200, got %+v (%v)", hall, err)
	}

	if _, err := ref.Hall("Library"); !errors.Is(err, ErrHallNotFound) {
		t.Errorf("Expected ErrHallNotFound, got %v", err)
	}

	// Returned slices are copies
	halls := ref.Halls()
	halls[0].Name = "mutated"
	if ref.Halls()[0].Name != "LT1 & 2" {
		t.Error("Expected reference data to be immutable")
	}
}

func TestLoadReferenceData_Errors(t *testing.T) {
	if _, err := LoadReferenceData(context.Background(), stubRepo{}); !errors.Is(err, ErrNoHalls) {
		t.Errorf("Expected ErrNoHalls, got %v", err)
	}

	failing := stubRepo{err: ErrRepositoryUnavailable}
	if _, err := LoadReferenceData(context.Background(), failing); !errors.Is(err, ErrRepositoryUnavailable) {
		t.Errorf("Expected wrapped ErrRepositoryUnavailable, got %v", err)
	}

	dup := []models.Hall{{Name: "LT1 & 2"}, {Name: "LT1 & 2"}}
	if _, err := NewReferenceData(dup); err == nil {
		t.Error("Expected duplicate hall names to be rejected")
	}
}

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("WAT", 3600)
	at := time.Date(2025, 3, 14, 23, 59, 0, 0, loc)

	start, end := DayBounds(at)
	if !start.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, loc)) {
		t.Errorf("Unexpected start %v", start)
	}
	if !end.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, loc)) {
		t.Errorf("Unexpected end %v", end)
	}
}
