package database

import (
	"context"
	"errors"
	"testing"

	"github.com/Notifuse/mailblocks/internal/database/schema"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeDatabase(t *testing.T) {
	t.Run("applies the schema in one transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS templates").WillReturnResult(sqlmock.NewResult(0, 0))
		for range schema.TableDefinitions[1:] {
			mock.ExpectExec("CREATE INDEX").WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectCommit()

		assert.NoError(t, InitializeDatabase(db))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on a failed index", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("CREATE INDEX").WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		err = InitializeDatabaseContext(context.Background(), db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create idx_templates_category")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

		err = InitializeDatabase(db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin schema transaction")
	})

	t.Run("commit failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		for range schema.TableDefinitions {
			mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		err = InitializeDatabase(db)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to commit schema")
	})
}

func TestDescribeStatement(t *testing.T) {
	assert.Equal(t, "templates", describeStatement(schema.TableDefinitions[0]))
	assert.Equal(t, "idx_templates_created_at", describeStatement(schema.TableDefinitions[2]))
	assert.Equal(t, "schema object", describeStatement("ALTER TABLE templates ADD COLUMN x INT"))
}

func TestCleanDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DROP TABLE IF EXISTS templates CASCADE").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, CleanDatabase(db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
