package testutil

import (
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Notifuse/mailblocks/internal/database/schema"
	"github.com/stretchr/testify/require"
)

// SetupMockDB creates a mock database connection for testing
func SetupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, func() { _ = db.Close() }
}

// ExpectSchemaCreation registers the transaction InitializeDatabase runs:
// begin, one successful Exec per schema statement, commit
func ExpectSchemaCreation(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	for _, statement := range schema.TableDefinitions {
		mock.ExpectExec(regexp.QuoteMeta(statement)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()
}

// ExpectSchemaFailure makes the statement at index fail and expects the
// rollback that follows
func ExpectSchemaFailure(mock sqlmock.Sqlmock, index int, err error) {
	mock.ExpectBegin()
	for i, statement := range schema.TableDefinitions[:index+1] {
		exec := mock.ExpectExec(regexp.QuoteMeta(statement))
		if i == index {
			exec.WillReturnError(err)
			continue
		}
		exec.WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectRollback()
}
