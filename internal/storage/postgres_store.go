package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"go-hallnav/internal/repository"
	"go-hallnav/pkg/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS recognition_hall (
	id        SERIAL PRIMARY KEY,
	name      VARCHAR(100) NOT NULL UNIQUE,
	capacity  INTEGER NOT NULL DEFAULT 0,
	latitude  DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
	floor     INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS recognition_schedule (
	id          SERIAL PRIMARY KEY,
	hall_id     INTEGER NOT NULL REFERENCES recognition_hall(id) ON DELETE CASCADE,
	start_time  TIMESTAMPTZ NOT NULL,
	end_time    TIMESTAMPTZ NOT NULL,
	course_name VARCHAR(200) NOT NULL,
	CHECK (start_time < end_time),
	UNIQUE (hall_id, start_time, end_time)
)`

const selectHallsSQL = `SELECT name, capacity, latitude, longitude, floor FROM recognition_hall ORDER BY name`

const selectSchedulesSQL = `SELECT h.name, s.start_time, s.end_time, s.course_name
FROM recognition_schedule s
JOIN recognition_hall h ON h.id = s.hall_id
WHERE h.name = $1 AND s.start_time >= $2 AND s.start_time < $3
ORDER BY s.start_time`

const upsertHallSQL = `INSERT INTO recognition_hall (name, capacity, latitude, longitude, floor)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (name) DO UPDATE SET capacity = EXCLUDED.capacity, latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude, floor = EXCLUDED.floor`

const insertScheduleSQL = `INSERT INTO recognition_schedule (hall_id, start_time, end_time, course_name)
SELECT id, $2, $3, $4 FROM recognition_hall WHERE name = $1
ON CONFLICT (hall_id, start_time, end_time) DO NOTHING`

// PostgresConfig holds connection settings
type PostgresConfig struct {
	DSN            string
	MaxConnections int
	MaxIdle        int
}

// PostgresStore reads halls and schedules from PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection pool. It does not ping.
func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return NewPostgresStoreFromDB(db), nil
}

// NewPostgresStoreFromDB wraps an existing handle
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Ping tests the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrRepositoryUnavailable, err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) GetHalls(ctx context.Context) ([]models.Hall, error) {
	rows, err := s.db.QueryContext(ctx, selectHallsSQL)
	if err != nil {
		return nil, fmt.Errorf("query halls: %w", err)
	}
	defer rows.Close()

	var halls []models.Hall
	for rows.Next() {
		var h models.Hall
		if err := rows.Scan(&h.Name, &h.Capacity, &h.Latitude, &h.Longitude, &h.Floor); err != nil {
			return nil, fmt.Errorf("scan hall: %w", err)
		}
		halls = append(halls, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate halls: %w", err)
	}
	return halls, nil
}

func (s *PostgresStore) GetSchedules(ctx context.Context, hallID string, onDate time.Time) ([]models.ScheduleEntry, error) {
	start, end := repository.DayBounds(onDate)

	rows, err := s.db.QueryContext(ctx, selectSchedulesSQL, hallID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query schedules for %s: %w", hallID, err)
	}
	defer rows.Close()

	var entries []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		if err := rows.Scan(&e.Hall, &e.StartTime, &e.EndTime, &e.CourseName); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedules: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpsertHall(ctx context.Context, hall models.Hall) error {
	_, err := s.db.ExecContext(ctx, upsertHallSQL, hall.Name, hall.Capacity, hall.Latitude, hall.Longitude, hall.Floor)
	if err != nil {
		return fmt.Errorf("upsert hall %s: %w", hall.Name, err)
	}
	return nil
}

func (s *PostgresStore) AddSchedule(ctx context.Context, entry models.ScheduleEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, insertScheduleSQL, entry.Hall, entry.StartTime, entry.EndTime, entry.CourseName)
	if err != nil {
		return fmt.Errorf("insert schedule %s: %w", entry.CourseName, err)
	}

	// Zero rows means either the hall is missing or the slot already exists
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM recognition_hall WHERE name = $1)`, entry.Hall).Scan(&exists); err != nil {
			return fmt.Errorf("check hall %s: %w", entry.Hall, err)
		}
		if !exists {
			return fmt.Errorf("%w: %s", repository.ErrHallNotFound, entry.Hall)
		}
	}
	return nil
}
