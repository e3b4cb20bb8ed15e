package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/reclinepreview/internal/datastore"
	"github.com/leapstack-labs/reclinepreview/internal/testutil"
)

func setupMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := NewWithDB(db, testutil.NewTestLogger(t))
	t.Cleanup(func() { _ = db.Close() })
	return s, mock
}

func TestStore_CreateFallsBackToInserts(t *testing.T) {
	s, mock := setupMock(t)

	mock.ExpectExec(`DROP TABLE IF EXISTS "resource_r1"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE "resource_r1" \("_id" BIGINT PRIMARY KEY, "year" TEXT, "price" TEXT\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO "resource_r1" \("_id", "year", "price"\) VALUES \(\$1, \$2, \$3\)`)
	prep.ExpectExec().WithArgs(int64(1), "2020", "10").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(int64(2), "2021", nil).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Create(context.Background(), "r1", &datastore.Table{
		Fields:  []datastore.Field{{ID: "year", Type: "text"}, {ID: "price", Type: "text"}},
		Records: [][]string{{"2020", "10"}, {"2021"}},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateRollsBackOnError(t *testing.T) {
	s, mock := setupMock(t)

	mock.ExpectExec(`DROP TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	prep := mock.ExpectPrepare(`INSERT INTO`)
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.Create(context.Background(), "r1", &datastore.Table{
		Fields:  []datastore.Field{{ID: "a", Type: "text"}},
		Records: [][]string{{"1"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Search(t *testing.T) {
	s, mock := setupMock(t)

	mock.ExpectQuery(`FROM information_schema.tables WHERE table_schema = current_schema\(\) AND table_name = \$1`).
		WithArgs("resource_r1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "resource_r1"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(`SELECT \* FROM "resource_r1" ORDER BY "_id" LIMIT \$1 OFFSET \$2`).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"_id", "year", "price"}).
			AddRow(int64(2), "2021", "12").
			AddRow(int64(3), "2022", []byte("15")))

	res, err := s.Search(context.Background(), datastore.SearchParams{ResourceID: "r1", Offset: 1, Limit: datastore.Limit(2)})
	require.NoError(t, err)

	assert.Equal(t, int64(3), res.Total)
	assert.Equal(t, 1, res.Offset)
	assert.Equal(t, 2, res.Limit)
	assert.Equal(t, []datastore.Field{{ID: "year", Type: "text"}, {ID: "price", Type: "text"}}, res.Fields)
	assert.Equal(t, []map[string]any{
		{"year": "2021", "price": "12"},
		{"year": "2022", "price": "15"},
	}, res.Records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SearchMissingTable(t *testing.T) {
	s, mock := setupMock(t)

	mock.ExpectQuery(`information_schema.tables`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))

	_, err := s.Search(context.Background(), datastore.SearchParams{ResourceID: "r1"})
	assert.True(t, errors.Is(err, datastore.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	s, mock := setupMock(t)
	mock.ExpectExec(`DROP TABLE IF EXISTS "resource_r1"`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Delete(context.Background(), "r1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a dsn")
}

func TestRegistered(t *testing.T) {
	_, ok := datastore.Get(Name)
	assert.True(t, ok)
}
