// Package schema defines the database schema.
//
// Every update of a template inserts a new (id, version) row. Deletes are
// soft and apply to all versions of an id.
package schema

// TableDefinitions contains all the SQL statements to create the database tables
// Don't put REFERENCES and don't put CHECK constraints in the CREATE TABLE statements
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS templates (
		id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		version INTEGER NOT NULL,
		subject VARCHAR(255) NOT NULL,
		category VARCHAR(20) NOT NULL,
		document JSONB NOT NULL,
		test_data JSONB,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP,
		PRIMARY KEY (id, version)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_templates_category ON templates(category) WHERE deleted_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_templates_created_at ON templates(created_at DESC)`,
}

// TableNames returns a list of all table names in creation order
var TableNames = []string{
	"templates",
}
