package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/Notifuse/mailblocks/internal/database/schema"
)

var statementTarget = regexp.MustCompile(`(?i)(?:TABLE|INDEX) IF NOT EXISTS (\w+)`)

// InitializeDatabase applies schema.TableDefinitions in one transaction
func InitializeDatabase(db *sql.DB) error {
	return InitializeDatabaseContext(context.Background(), db)
}

// InitializeDatabaseContext is InitializeDatabase bounded by ctx
func InitializeDatabaseContext(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}

	for _, statement := range schema.TableDefinitions {
		if _, err := tx.ExecContext(ctx, statement); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to create %s: %w", describeStatement(statement), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

func describeStatement(statement string) string {
	if m := statementTarget.FindStringSubmatch(statement); m != nil {
		return m[1]
	}
	return "schema object"
}

// CleanDatabase drops every schema table, most dependent first
func CleanDatabase(db *sql.DB) error {
	names := make([]string, 0, len(schema.TableNames))
	for i := len(schema.TableNames) - 1; i >= 0; i-- {
		names = append(names, schema.TableNames[i])
	}

	query := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", strings.Join(names, ", "))
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to drop tables %s: %w", strings.Join(names, ", "), err)
	}
	return nil
}
