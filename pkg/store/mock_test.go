package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/face-analyzer/pkg/types"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewWithConn(sqlx.NewDb(conn, "sqlite3")), mock
}

func TestInsertRecordsRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO analysis_data").
		ExpectExec().
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := db.InsertRecords(context.Background(), []types.AttributeRecord{{Gender: "Woman", Age: 28}})
	assert.ErrorContains(t, err, "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRecordsEmptyBatchSkipsDatabase(t *testing.T) {
	db, mock := newMockDB(t)

	require.NoError(t, db.InsertRecords(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryBuildsFilterClauses(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"timestamp", "gender", "hair_color", "eye_color", "emotion", "age", "clothing_color"})
	mock.ExpectQuery(`AND gender = \? AND age >= \? ORDER BY timestamp DESC, id DESC LIMIT \?`).
		WithArgs("Man", 30, 5).
		WillReturnRows(rows)

	records, err := db.Query(context.Background(), QueryFilter{Gender: "Man", MinAge: 30, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}
