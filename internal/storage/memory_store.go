package storage

import (
	"context"
	"time"

	"go-hallnav/pkg/models"
)

// MemoryStore serves halls and schedules from a seed held in memory.
// It is never written after construction.
type MemoryStore struct {
	seed Seed
}

// NewMemoryStore creates a store over seed
func NewMemoryStore(seed Seed) (*MemoryStore, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &MemoryStore{seed: seed}, nil
}

func (s *MemoryStore) GetHalls(ctx context.Context) ([]models.Hall, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	halls := make([]models.Hall, len(s.seed.Halls))
	copy(halls, s.seed.Halls)
	return halls, nil
}

func (s *MemoryStore) GetSchedules(ctx context.Context, hallID string, onDate time.Time) ([]models.ScheduleEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, err := s.seed.EntriesOn(onDate)
	if err != nil {
		return nil, err
	}

	var entries []models.ScheduleEntry
	for _, e := range all {
		if e.Hall == hallID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
