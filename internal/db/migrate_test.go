package db

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return sqlx.NewDb(conn, "postgres"), mock
}

func expectVersions(mock sqlmock.Sqlmock, versions ...string) {
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_versions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"version"})
	for _, v := range versions {
		rows.AddRow(v)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_versions")).WillReturnRows(rows)
}

func TestMigrate(t *testing.T) {
	t.Run("applies missing versions", func(t *testing.T) {
		db, mock := newMockDB(t)

		expectVersions(mock)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS delivery_obligations")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_versions (version) VALUES ($1)")).
			WithArgs("001_delivery_obligations").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		require.NoError(t, Migrate(context.Background(), db, nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips recorded versions", func(t *testing.T) {
		db, mock := newMockDB(t)

		expectVersions(mock, "001_delivery_obligations")

		require.NoError(t, Migrate(context.Background(), db, nil))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed schema rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)

		expectVersions(mock)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS delivery_obligations")).
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := Migrate(context.Background(), db, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "schema 001_delivery_obligations")
		assert.ErrorIs(t, err, assert.AnError)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSchemaVersions(t *testing.T) {
	versions, err := schemaVersions()
	require.NoError(t, err)
	assert.Equal(t, []string{"001_delivery_obligations"}, versions)
}
