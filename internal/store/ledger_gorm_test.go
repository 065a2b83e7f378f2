package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"carespace-backend/internal/db"
	"carespace-backend/internal/model"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: sqlDB,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func newSQLiteDB(t *testing.T, name string) *gorm.DB {
	gormDB, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})
	return gormDB
}

func TestGormLedger_LoadOrdersByStart(t *testing.T) {
	gormDB, mock := newMockDB(t)
	ledger := NewGormLedger(gormDB)

	start := time.Date(2025, time.July, 15, 14, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "bookings" ORDER BY start_at ASC,id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "space_id", "start_at", "end_at", "duration_hours", "activity", "status"}).
			AddRow("BK1", "R1", start, start.Add(time.Hour), 1.0, "General", "Confirmed"))

	bookings, err := ledger.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "BK1", bookings[0].ID)
	assert.Equal(t, "R1", bookings[0].SpaceID)
	assert.True(t, start.Equal(bookings[0].Start))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedger_LoadError(t *testing.T) {
	gormDB, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "bookings"`)).WillReturnError(assert.AnError)

	_, err := NewGormLedger(gormDB).Load(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormLedger_SaveAndReload(t *testing.T) {
	gormDB := newSQLiteDB(t, "ledger_save")
	ledger := NewGormLedger(gormDB)
	start := time.Date(2025, time.July, 15, 14, 0, 0, 0, time.UTC)

	b := model.Booking{
		ID: "BK1", SpaceID: "R1", DoctorID: "D1",
		Start: start, End: start.Add(time.Hour), DurationHours: 1,
		Activity: "General", Status: model.StatusConfirmed, CreatedAt: start.Add(-24 * time.Hour),
	}
	require.NoError(t, ledger.Save(context.Background(), []model.Booking{b}, b))
	dup := b
	dup.Notes = "second write"
	err := ledger.Save(context.Background(), []model.Booking{b, dup}, dup)
	require.ErrorIs(t, err, ErrDuplicateBooking, "a reused id must not be reported as stored")

	later := b
	later.ID = "BK0"
	later.Start = start.Add(-2 * time.Hour)
	later.End = start.Add(-time.Hour)
	require.NoError(t, ledger.Save(context.Background(), []model.Booking{b, later}, later))

	var count int64
	gormDB.Model(&model.Booking{}).Count(&count)
	assert.Equal(t, int64(2), count)

	loaded, err := ledger.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "BK0", loaded[0].ID, "ordered by start")
	assert.True(t, start.Equal(loaded[1].Start))
	assert.Empty(t, loaded[1].Notes, "the stored row is left untouched")
}

func TestStore_WithGormLedger(t *testing.T) {
	gormDB := newSQLiteDB(t, "store_gorm")
	start := time.Date(2025, time.July, 15, 14, 0, 0, 0, time.UTC)

	s := New(context.Background(), ReferenceData{}, NewGormLedger(gormDB), time.UTC, nil)
	require.NoError(t, s.AppendBooking(context.Background(), model.Booking{
		ID: "BK1", SpaceID: "R1", Start: start, End: start.Add(time.Hour),
		Activity: "General", Status: model.StatusConfirmed, CreatedAt: start,
	}))

	reloaded := New(context.Background(), ReferenceData{}, NewGormLedger(gormDB), time.UTC, nil)
	assert.Len(t, reloaded.Bookings(BookingFilter{SpaceID: "R1"}), 1)
}
