package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/Notifuse/mailblocks/internal/domain"
	"github.com/lib/pq"
)

// uniqueViolation is the postgres SQLSTATE for a duplicate key
const uniqueViolation = "23505"

var templateColumns = []string{
	"id",
	"name",
	"version",
	"subject",
	"category",
	"document",
	"test_data",
	"created_at",
	"updated_at",
}

type templateRepository struct {
	db   *sql.DB
	psql sq.StatementBuilderType
}

// NewTemplateRepository creates a new PostgreSQL template repository
func NewTemplateRepository(db *sql.DB) domain.TemplateRepository {
	return &templateRepository{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *templateRepository) CreateTemplate(ctx context.Context, template *domain.Template) error {
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	// Ensure version is at least 1 for creation
	if template.Version == 0 {
		template.Version = 1
	}

	if err := r.insertVersion(ctx, template); err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *templateRepository) GetTemplateByID(ctx context.Context, id string, version int64) (*domain.Template, error) {
	builder := r.psql.Select(templateColumns...).
		From("templates").
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"deleted_at": nil})

	if version > 0 {
		builder = builder.Where(sq.Eq{"version": version})
	} else {
		builder = builder.OrderBy("version DESC").Limit(1)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	template, err := scanTemplate(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return template, nil
}

func (r *templateRepository) GetTemplateLatestVersion(ctx context.Context, id string) (int64, error) {
	query, args, err := r.psql.Select("MAX(version)").
		From("templates").
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	// MAX over no rows yields a single NULL row
	var version sql.NullInt64
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !version.Valid) {
		return 0, &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get template latest version: %w", err)
	}

	return version.Int64, nil
}

func (r *templateRepository) GetTemplates(ctx context.Context, category string) ([]*domain.Template, error) {
	// Get only the latest version of each template
	latestVersionsCTE := `
		WITH latest_versions AS (
			SELECT id, MAX(version) as max_version
			FROM templates
			GROUP BY id
		)
	`

	columns := make([]string, len(templateColumns))
	for i, column := range templateColumns {
		columns[i] = "t." + column
	}

	selectBuilder := r.psql.Select(columns...).
		Prefix(latestVersionsCTE).
		From("templates t").
		Join("latest_versions lv ON t.id = lv.id AND t.version = lv.max_version").
		Where(sq.Eq{"t.deleted_at": nil}).
		OrderBy("t.updated_at DESC")

	if category != "" {
		selectBuilder = selectBuilder.Where(sq.Eq{"t.category": category})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get templates: %w", err)
	}
	defer rows.Close()

	templates := []*domain.Template{}
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, template)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template rows: %w", err)
	}

	return templates, nil
}

func (r *templateRepository) UpdateTemplate(ctx context.Context, template *domain.Template) error {
	latestVersion, err := r.GetTemplateLatestVersion(ctx, template.ID)
	if err != nil {
		var notFound *domain.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			return err
		}
		return fmt.Errorf("failed to get template latest version: %w", err)
	}

	// Create a new version instead of updating the existing one
	template.Version = latestVersion + 1
	template.UpdatedAt = time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = template.UpdatedAt
	}

	if err := r.insertVersion(ctx, template); err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}

	return nil
}

func (r *templateRepository) DeleteTemplate(ctx context.Context, id string) error {
	// Soft delete by setting deleted_at
	query, args, err := r.psql.Update("templates").
		Set("deleted_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return &domain.ErrTemplateNotFound{Message: "template not found"}
	}

	return nil
}

func (r *templateRepository) insertVersion(ctx context.Context, template *domain.Template) error {
	query, args, err := r.psql.Insert("templates").
		Columns(templateColumns...).
		Values(
			template.ID,
			template.Name,
			template.Version,
			template.Subject,
			template.Category,
			template.Document,
			template.TestData,
			template.CreatedAt,
			template.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return &domain.ErrTemplateConflict{ID: template.ID, Version: template.Version}
		}
		return err
	}
	return nil
}

// scanTemplate scans a template from a database row
func scanTemplate(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.Template, error) {
	var template domain.Template

	err := scanner.Scan(
		&template.ID,
		&template.Name,
		&template.Version,
		&template.Subject,
		&template.Category,
		&template.Document,
		&template.TestData,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if template.TestData == nil {
		template.TestData = domain.MapOfAny{}
	}

	return &template, nil
}
