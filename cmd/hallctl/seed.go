package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-hallnav/internal/logger"
	"go-hallnav/internal/storage"
)

var (
	seedFile string
	seedDate string
	seedDays int
)

// seedCmd loads reference data into Postgres
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load halls and schedules into Postgres",
	Long: `Creates the hall and schedule tables if needed, upserts every hall and
inserts the schedule slots.

Slots with a date are inserted on that date. Recurring slots are inserted for
--days consecutive days starting at --date (default today in SCHEDULE_TIMEZONE).
Re-running is safe: existing slots are left alone.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "seed YAML file (default SEED_FILE, else the built-in halls)")
	seedCmd.Flags().StringVar(&seedDate, "date", "", "first day for recurring slots, 2006-01-02")
	seedCmd.Flags().IntVar(&seedDays, "days", 1, "number of days to materialize recurring slots for")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for seeding")
	}
	if seedDays < 1 {
		return fmt.Errorf("--days must be at least 1")
	}

	seed, err := loadSeed()
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	first, err := firstDay(loc)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	store, err := storage.NewPostgresStore(storage.PostgresConfig{DSN: cfg.DatabaseURL, MaxConnections: 2, MaxIdle: 1})
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	for _, h := range seed.Halls {
		if err := store.UpsertHall(ctx, h); err != nil {
			return err
		}
	}

	inserted := 0
	for _, sc := range seed.Schedules {
		days, err := seedDaysFor(sc, first, loc)
		if err != nil {
			return err
		}
		for _, day := range days {
			entry, err := sc.On(day)
			if err != nil {
				return err
			}
			if err := store.AddSchedule(ctx, entry); err != nil {
				return err
			}
			inserted++
		}
	}

	logger.WithFields(logrus.Fields{
		"halls":     len(seed.Halls),
		"schedules": inserted,
	}).Info("Seed complete")
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d halls and %d schedule slots\n", len(seed.Halls), inserted)
	return nil
}

func loadSeed() (storage.Seed, error) {
	path := seedFile
	if path == "" {
		path = cfg.SeedFile
	}
	if path == "" {
		return storage.DefaultSeed(), nil
	}
	return storage.LoadSeed(path)
}

func firstDay(loc *time.Location) (time.Time, error) {
	if seedDate == "" {
		return time.Now().In(loc), nil
	}
	day, err := time.ParseInLocation("2006-01-02", seedDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", seedDate, err)
	}
	return day, nil
}

// seedDaysFor lists the calendar days a slot is inserted on
func seedDaysFor(sc storage.SeedSchedule, first time.Time, loc *time.Location) ([]time.Time, error) {
	day, fixed, err := sc.FixedDay(loc)
	if err != nil {
		return nil, err
	}
	if fixed {
		return []time.Time{day}, nil
	}
	days := make([]time.Time, 0, seedDays)
	for i := 0; i < seedDays; i++ {
		days = append(days, first.AddDate(0, 0, i))
	}
	return days, nil
}
