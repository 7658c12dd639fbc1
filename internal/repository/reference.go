package repository

import (
	"context"
	"fmt"
	"sort"

	"go-hallnav/pkg/models"
)

// ReferenceData is the immutable hall table loaded once at startup
type ReferenceData struct {
	halls  []models.Hall
	byName map[string]models.Hall
}

// LoadReferenceData reads every hall from repo and freezes the result
func LoadReferenceData(ctx context.Context, repo HallRepository) (*ReferenceData, error) {
	halls, err := repo.GetHalls(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load halls: %w", err)
	}
	if len(halls) == 0 {
		return nil, ErrNoHalls
	}
	return NewReferenceData(halls)
}

// NewReferenceData builds reference data from a hall list, rejecting duplicate names
func NewReferenceData(halls []models.Hall) (*ReferenceData, error) {
	byName := make(map[string]models.Hall, len(halls))
	for _, h := range halls {
		if h.Name == "" {
			return nil, fmt.Errorf("hall with empty name")
		}
		if _, dup := byName[h.Name]; dup {
			return nil, fmt.Errorf("duplicate hall %q", h.Name)
		}
		byName[h.Name] = h
	}

	sorted := make([]models.Hall, len(halls))
	copy(sorted, halls)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	return &ReferenceData{halls: sorted, byName: byName}, nil
}

// Halls returns a copy of the hall list ordered by name
func (r *ReferenceData) Halls() []models.Hall {
	out := make([]models.Hall, len(r.halls))
	copy(out, r.halls)
	return out
}

// HallNames returns the recognizable hall identifiers ordered by name
func (r *ReferenceData) HallNames() []string {
	names := make([]string, len(r.halls))
	for i, h := range r.halls {
		names[i] = h.Name
	}
	return names
}

// Hall looks a hall up by name
func (r *ReferenceData) Hall(name string) (models.Hall, error) {
	h, ok := r.byName[name]
	if !ok {
		return models.Hall{}, fmt.Errorf("%w: %s", ErrHallNotFound, name)
	}
	return h, nil
}
