package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-hallnav/internal/repository"
	"go-hallnav/pkg/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStoreFromDB(db), mock
}

func TestPostgresStore_GetHalls(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"name", "capacity", "latitude", "longitude", "floor"}).
		AddRow("LT1 & 2", 150, 1.0, 2.0, 1).
		AddRow("LT3 & 4", 200, 3.0, 4.0, 2)
	mock.ExpectQuery(selectHallsSQL).WillReturnRows(rows)

	halls, err := store.GetHalls(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Hall{
		{Name: "LT1 & 2", Capacity: 150, Latitude: 1.0, Longitude: 2.0, Floor: 1},
		{Name: "LT3 & 4", Capacity: 200, Latitude: 3.0, Longitude: 4.0, Floor: 2},
	}, halls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetHalls_QueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(selectHallsSQL).WillReturnError(errors.New("connection refused"))

	_, err := store.GetHalls(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPostgresStore_GetSchedules(t *testing.T) {
	store, mock := newMockStore(t)

	day := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	start := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"name", "start_time", "end_time", "course_name"}).
		AddRow("LT1 & 2", start, end, "Computer Science 101")
	mock.ExpectQuery(selectSchedulesSQL).
		WithArgs("LT1 & 2", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	entries, err := store.GetSchedules(context.Background(), "LT1 & 2", day)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Computer Science 101", entries[0].CourseName)
	assert.True(t, entries[0].StartTime.Equal(start))
	assert.True(t, entries[0].EndTime.Equal(end))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSchedules_Empty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(selectSchedulesSQL).
		WithArgs("Library", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"name", "start_time", "end_time", "course_name"}))

	entries, err := store.GetSchedules(context.Background(), "Library", time.Now())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPostgresStore_Seeding(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()

	mock.ExpectExec(schemaSQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(upsertHallSQL).
		WithArgs("LT1 & 2", 150, 1.0, 2.0, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insertScheduleSQL).
		WithArgs("LT1 & 2", sqlmock.AnyArg(), sqlmock.AnyArg(), "Computer Science 101").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.UpsertHall(ctx, models.Hall{Name: "LT1 & 2", Capacity: 150, Latitude: 1.0, Longitude: 2.0, Floor: 1}))

	day := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.AddSchedule(ctx, models.ScheduleEntry{
		Hall:       "LT1 & 2",
		StartTime:  day.Add(9 * time.Hour),
		EndTime:    day.Add(10*time.Hour + 30*time.Minute),
		CourseName: "Computer Science 101",
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddSchedule_UnknownHall(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(insertScheduleSQL).
		WithArgs("Atlantis", sqlmock.AnyArg(), sqlmock.AnyArg(), "Ghost 101").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT EXISTS (SELECT 1 FROM recognition_hall WHERE name = $1)`).
		WithArgs("Atlantis").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	now := time.Now()
	err := store.AddSchedule(context.Background(), models.ScheduleEntry{
		Hall:       "Atlantis",
		StartTime:  now,
		EndTime:    now.Add(time.Hour),
		CourseName: "Ghost 101",
	})
	assert.ErrorIs(t, err, repository.ErrHallNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddSchedule_InvalidEntry(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	err := store.AddSchedule(context.Background(), models.ScheduleEntry{
		Hall:       "LT1 & 2",
		StartTime:  now,
		EndTime:    now,
		CourseName: "Zero length",
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("down"))
	err = NewPostgresStoreFromDB(db).Ping(context.Background())
	assert.ErrorIs(t, err, repository.ErrRepositoryUnavailable)
}
