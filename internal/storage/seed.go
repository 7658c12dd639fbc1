package storage

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"go-hallnav/pkg/models"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

// Seed is the reference data file format
type Seed struct {
	Halls     []models.Hall  `yaml:"halls"`
	Schedules []SeedSchedule `yaml:"schedules"`
}

// SeedSchedule is a booking slot. Without a Date it recurs every day.
type SeedSchedule struct {
	Hall       string `yaml:"hall"`
	Date       string `yaml:"date,omitempty"` // 2006-01-02
	Start      string `yaml:"start"`          // 15:04
	End        string `yaml:"end"`            // 15:04
	CourseName string `yaml:"course_name"`
}

// DefaultSeed returns the two recognizable halls and their sample bookings
func DefaultSeed() Seed {
	return Seed{
		Halls: []models.Hall{
			{Name: "LT1 & 2", Capacity: 150, Latitude: 1.0, Longitude: 2.0, Floor: 1},
			{Name: "LT3 & 4", Capacity: 200, Latitude: 3.0, Longitude: 4.0, Floor: 2},
		},
		Schedules: []SeedSchedule{
			{Hall: "LT1 & 2", Start: "09:00", End: "10:30", CourseName: "Computer Science 101"},
			{Hall: "LT1 & 2", Start: "11:00", End: "12:30", CourseName: "Mathematics 201"},
			{Hall: "LT3 & 4", Start: "10:00", End: "11:30", CourseName: "Physics 301"},
			{Hall: "LT3 & 4", Start: "14:00", End: "15:30", CourseName: "Engineering 401"},
		},
	}
}

// LoadSeed reads and validates a YAML seed file
func LoadSeed(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return Seed{}, fmt.Errorf("invalid seed file %s: %w", path, err)
	}
	return seed, nil
}

// Validate checks hall names are unique and every slot is well formed
func (s Seed) Validate() error {
	names := make(map[string]bool, len(s.Halls))
	for _, h := range s.Halls {
		if h.Name == "" {
			return fmt.Errorf("hall with empty name")
		}
		if names[h.Name] {
			return fmt.Errorf("duplicate hall %q", h.Name)
		}
		names[h.Name] = true
	}

	day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, sc := range s.Schedules {
		if !names[sc.Hall] {
			return fmt.Errorf("schedule %q references unknown hall %q", sc.CourseName, sc.Hall)
		}
		if _, _, err := sc.FixedDay(time.UTC); err != nil {
			return err
		}
		if _, err := sc.On(day); err != nil {
			return err
		}
	}
	return nil
}

// On materializes the slot on day's calendar date in day's location
func (sc SeedSchedule) On(day time.Time) (models.ScheduleEntry, error) {
	start, err := time.Parse(clockLayout, sc.Start)
	if err != nil {
		return models.ScheduleEntry{}, fmt.Errorf("schedule %q: bad start %q: %w", sc.CourseName, sc.Start, err)
	}
	end, err := time.Parse(clockLayout, sc.End)
	if err != nil {
		return models.ScheduleEntry{}, fmt.Errorf("schedule %q: bad end %q: %w", sc.CourseName, sc.End, err)
	}

	y, m, d := day.Date()
	entry := models.ScheduleEntry{
		Hall:       sc.Hall,
		StartTime:  time.Date(y, m, d, start.Hour(), start.Minute(), 0, 0, day.Location()),
		EndTime:    time.Date(y, m, d, end.Hour(), end.Minute(), 0, 0, day.Location()),
		CourseName: sc.CourseName,
	}
	return entry, entry.Validate()
}

// FixedDay returns the slot's date as midnight in loc. ok is false for a
// recurring slot.
func (sc SeedSchedule) FixedDay(loc *time.Location) (day time.Time, ok bool, err error) {
	if sc.Date == "" {
		return time.Time{}, false, nil
	}
	day, err = time.ParseInLocation(dateLayout, sc.Date, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("schedule %q: bad date %q: %w", sc.CourseName, sc.Date, err)
	}
	return day, true, nil
}

// OccursOn reports whether the slot takes place on day's calendar date.
// A slot with an unparseable date never occurs; Validate rejects those.
func (sc SeedSchedule) OccursOn(day time.Time) bool {
	fixed, ok, err := sc.FixedDay(day.Location())
	if err != nil {
		return false
	}
	if !ok {
		return true
	}
	y1, m1, d1 := fixed.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// EntriesOn materializes every slot occurring on day
func (s Seed) EntriesOn(day time.Time) ([]models.ScheduleEntry, error) {
	var entries []models.ScheduleEntry
	for _, sc := range s.Schedules {
		if !sc.OccursOn(day) {
			continue
		}
		e, err := sc.On(day)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
