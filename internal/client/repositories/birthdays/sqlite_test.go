package birthdays

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/hbd/internal/client/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "birthdays.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE birthdays (
    position INTEGER PRIMARY KEY,
    id       TEXT NOT NULL,
    name     TEXT NOT NULL,
    date     TEXT NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestReplaceAll_ThenList_KeepsOrder(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	items := []models.Birthday{
		{ID: "2", Name: "Bob", Date: "1990-01-01"},
		{ID: "1", Name: "Alice", Date: "0000-06-20"},
	}
	require.NoError(t, r.ReplaceAll(ctx, items))

	got, err := r.List(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(items, got); diff != "" {
		t.Fatalf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceAll_OverwritesPreviousSnapshot(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.ReplaceAll(ctx, []models.Birthday{{ID: "1", Name: "A", Date: "2000-01-01"}, {ID: "2", Name: "B", Date: "2000-01-02"}}))
	require.NoError(t, r.ReplaceAll(ctx, []models.Birthday{{ID: "3", Name: "C", Date: "2000-01-03"}}))

	got, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Birthday{{ID: "3", Name: "C", Date: "2000-01-03"}}, got)
}

func TestList_Empty(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	got, err := r.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.ReplaceAll(ctx, []models.Birthday{{ID: "1", Name: "A", Date: "2000-01-01"}}))
	require.NoError(t, r.Clear(ctx))

	got, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplaceAll_InsertFails_RollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM birthdays`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectPrepare(`INSERT INTO birthdays`).
		ExpectExec().
		WithArgs(0, "1", "A", "2000-01-01").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	r := NewSQLiteRepository(db)
	err = r.ReplaceAll(context.Background(), []models.Birthday{{ID: "1", Name: "A", Date: "2000-01-01"}})
	require.ErrorContains(t, err, "failed to replace birthdays")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAll_BeginFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("locked"))

	r := NewSQLiteRepository(db)
	err = r.ReplaceAll(context.Background(), nil)
	require.ErrorContains(t, err, "failed to replace birthdays")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "name"}).AddRow("1", "A")
	mock.ExpectQuery(`SELECT id, name, date FROM birthdays`).WillReturnRows(rows)

	r := NewSQLiteRepository(db)
	_, err = r.List(context.Background())
	require.ErrorContains(t, err, "failed to scan birthday row")
}

func TestList_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name, date FROM birthdays`).WillReturnError(errors.New("gone"))

	r := NewSQLiteRepository(db)
	_, err = r.List(context.Background())
	require.ErrorContains(t, err, "failed to select birthdays")
}

func TestClear_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM birthdays`).WillReturnError(errors.New("gone"))

	r := NewSQLiteRepository(db)
	require.ErrorContains(t, r.Clear(context.Background()), "failed to clear birthdays")
}
