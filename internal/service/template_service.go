package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Notifuse/mailblocks/internal/domain"
	"github.com/Notifuse/mailblocks/pkg/cache"
	"github.com/Notifuse/mailblocks/pkg/emailblocks"
	"github.com/Notifuse/mailblocks/pkg/logger"
	"github.com/Notifuse/mailblocks/pkg/merge"
	"github.com/Notifuse/mailblocks/pkg/plaintext"
	"github.com/Notifuse/mailblocks/pkg/tracing"
	"github.com/Notifuse/mailblocks/pkg/tracking"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type TemplateService struct {
	repo       domain.TemplateRepository
	logger     logger.Logger
	cache      *cache.Cache[*domain.CompileResult]
	compiles   singleflight.Group
	merge      *merge.Engine
	defaultUTM tracking.UTM
}

// NewTemplateService wires the template service. A nil compileCache disables
// result caching; a nil mergeEngine gets an engine with default limits.
// defaultUTM fills the utm_source and utm_medium of exports that omit them.
func NewTemplateService(repo domain.TemplateRepository, logger logger.Logger, compileCache *cache.Cache[*domain.CompileResult], mergeEngine *merge.Engine, defaultUTM tracking.UTM) *TemplateService {
	if mergeEngine == nil {
		mergeEngine = merge.NewEngine()
	}
	return &TemplateService{
		repo:       repo,
		logger:     logger,
		cache:      compileCache,
		merge:      mergeEngine,
		defaultUTM: defaultUTM,
	}
}

func (s *TemplateService) CreateTemplate(ctx context.Context, template *domain.Template) error {
	if template.ID == "" {
		template.ID = uuid.New().String()
	}

	// Set initial version and timestamps
	template.Version = 1
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	// Validate template after setting required fields
	if err := template.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	if err := s.repo.CreateTemplate(ctx, template); err != nil {
		var conflict *domain.ErrTemplateConflict
		if errors.As(err, &conflict) {
			return conflict
		}
		s.logger.WithField("template_id", template.ID).Error(fmt.Sprintf("Failed to create template: %v", err))
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

func (s *TemplateService) GetTemplateByID(ctx context.Context, id string, version int64) (*domain.Template, error) {
	template, err := s.repo.GetTemplateByID(ctx, id, version)
	if err != nil {
		var notFound *domain.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		s.logger.WithField("template_id", id).Error(fmt.Sprintf("Failed to get template: %v", err))
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return template, nil
}

func (s *TemplateService) GetTemplates(ctx context.Context, category string) ([]*domain.Template, error) {
	templates, err := s.repo.GetTemplates(ctx, category)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to get templates: %v", err))
		return nil, fmt.Errorf("failed to get templates: %w", err)
	}

	return templates, nil
}

func (s *TemplateService) UpdateTemplate(ctx context.Context, template *domain.Template) error {
	// Check if template exists
	existingTemplate, err := s.GetTemplateByID(ctx, template.ID, 0)
	if err != nil {
		return err
	}

	// Set version from existing template *before* validation to satisfy the check
	template.Version = existingTemplate.Version

	if err := template.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	// Preserve creation time from existing template
	template.CreatedAt = existingTemplate.CreatedAt
	template.UpdatedAt = time.Now().UTC()

	return s.saveVersion(ctx, template)
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		var notFound *domain.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			return notFound
		}
		s.logger.WithField("template_id", id).Error(fmt.Sprintf("Failed to delete template: %v", err))
		return fmt.Errorf("failed to delete template: %w", err)
	}

	return nil
}

// saveVersion stores template as a new version row
func (s *TemplateService) saveVersion(ctx context.Context, template *domain.Template) error {
	if err := s.repo.UpdateTemplate(ctx, template); err != nil {
		var conflict *domain.ErrTemplateConflict
		if errors.As(err, &conflict) {
			return conflict
		}
		var notFound *domain.ErrTemplateNotFound
		if errors.As(err, &notFound) {
			return notFound
		}
		s.logger.WithField("template_id", template.ID).Error(fmt.Sprintf("Failed to update template: %v", err))
		return fmt.Errorf("failed to update template: %w", err)
	}
	return nil
}

// Compile renders doc to HTML, derives its plain-text body and lists the
// merge fields and unknown block kinds it contains. Results are cached by
// document content and concurrent compiles of the same document share one
// render. Documents that cannot be hashed are rendered without the cache.
func (s *TemplateService) Compile(ctx context.Context, doc emailblocks.Document) (result *domain.CompileResult, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracing.StartServiceSpan(ctx, "TemplateService", "Compile")
	defer func() { tracing.EndSpan(span, err) }()
	tracing.AddAttribute(ctx, "document.blocks", len(doc.Blocks))

	key, keyErr := documentKey(doc)
	if keyErr != nil {
		s.logger.WithField("error", keyErr.Error()).Warn("Compiling without cache")
		tracing.AddAttribute(ctx, "cache", cacheBypass)
		return s.timedCompile(ctx, cacheBypass, doc)
	}
	tracing.AddAttribute(ctx, "document.hash", key)

	if s.cache != nil {
		if result, ok := s.cache.Get(key); ok {
			s.logger.WithField("document_hash", key).Debug("Compile cache hit")
			tracing.AddAttribute(ctx, "cache", cacheHit)
			tracing.RecordCompile(ctx, cacheHit, 0)
			return copyResult(result), nil
		}
	}
	tracing.AddAttribute(ctx, "cache", cacheMiss)

	ch := s.compiles.DoChan(key, func() (interface{}, error) {
		result, err := s.timedCompile(ctx, cacheMiss, doc)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.Set(key, result)
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return copyResult(res.Val.(*domain.CompileResult)), nil
	}
}

const (
	cacheHit    = "hit"
	cacheMiss   = "miss"
	cacheBypass = "bypass"
)

func (s *TemplateService) timedCompile(ctx context.Context, outcome string, doc emailblocks.Document) (*domain.CompileResult, error) {
	start := time.Now()
	result, err := s.compile(doc)
	tracing.RecordCompile(ctx, outcome, time.Since(start))
	return result, err
}

func (s *TemplateService) CompileTemplate(ctx context.Context, id string, version int64) (*domain.CompileResult, error) {
	template, err := s.GetTemplateByID(ctx, id, version)
	if err != nil {
		return nil, err
	}
	return s.Compile(ctx, template.Document)
}

// Preview compiles a template or an inline document and substitutes the
// test data into its HTML, text and subject
func (s *TemplateService) Preview(ctx context.Context, req domain.PreviewTemplateRequest) (*domain.PreviewResult, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	var doc emailblocks.Document
	subject := req.Subject
	data := map[string]interface{}(req.TestData)

	if req.Document != nil {
		doc = *req.Document
	} else {
		template, err := s.GetTemplateByID(ctx, req.ID, req.Version)
		if err != nil {
			return nil, err
		}
		doc = template.Document
		if subject == "" {
			subject = template.Subject
		}
		if data == nil {
			data = template.TestData
		}
	}
	if data == nil {
		data = map[string]interface{}{}
	}

	compiled, err := s.Compile(ctx, doc)
	if err != nil {
		return nil, err
	}

	html, err := s.mergeField(ctx, "html", compiled.HTML, data)
	if err != nil {
		return nil, err
	}
	text, err := s.mergeField(ctx, "text", compiled.Text, data)
	if err != nil {
		return nil, err
	}
	mergedSubject, err := s.mergeField(ctx, "subject", subject, data)
	if err != nil {
		return nil, err
	}

	variables := union(compiled.Variables, emailblocks.ScanValue(subject))

	return &domain.PreviewResult{
		HTML:             html,
		Text:             text,
		Subject:          mergedSubject,
		MissingVariables: merge.MissingVariables(variables, data),
	}, nil
}

func (s *TemplateService) mergeField(ctx context.Context, field, content string, data map[string]interface{}) (string, error) {
	if content == "" {
		return "", nil
	}

	out, err := s.merge.Render(ctx, content, data)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", domain.NewValidationError(fmt.Sprintf("failed to merge %s: %v", field, err))
	}
	return out, nil
}

// Export compiles a stored template and decorates its absolute links with
// UTM parameters, ready to be handed to a sending platform
func (s *TemplateService) Export(ctx context.Context, req domain.ExportTemplateRequest) (*domain.ExportResult, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	template, err := s.GetTemplateByID(ctx, req.ID, req.Version)
	if err != nil {
		return nil, err
	}

	compiled, err := s.Compile(ctx, template.Document)
	if err != nil {
		return nil, err
	}

	utm := req.UTM
	if utm.Source == "" {
		utm.Source = s.defaultUTM.Source
	}
	if utm.Medium == "" {
		utm.Medium = s.defaultUTM.Medium
	}
	if utm.Campaign == "" && !utm.IsEmpty() {
		utm.Campaign = emailblocks.FileSlug(template.Name)
	}

	html := compiled.HTML
	text := compiled.Text
	if !utm.IsEmpty() {
		html = tracking.DecorateLinks(html, utm)
		if text, err = plaintext.FromHTML(html); err != nil {
			return nil, fmt.Errorf("failed to render plain text: %w", err)
		}
	}

	return &domain.ExportResult{
		Filename: fmt.Sprintf("%s-v%d.html", emailblocks.FileSlug(template.Name), template.Version),
		HTML:     html,
		Text:     text,
	}, nil
}

// Variables lists the merge fields used by a template's subject and document
func (s *TemplateService) Variables(ctx context.Context, id string, version int64) ([]string, error) {
	template, err := s.GetTemplateByID(ctx, id, version)
	if err != nil {
		return nil, err
	}
	return union(documentVariables(template.Document), emailblocks.ScanValue(template.Subject)), nil
}

// Kinds describes every block kind with its default properties
func (s *TemplateService) Kinds() []domain.BlockKindInfo {
	kinds := make([]domain.BlockKindInfo, 0, len(emailblocks.KnownKinds))
	for _, kind := range emailblocks.KnownKinds {
		kinds = append(kinds, domain.BlockKindInfo{
			Kind:       kind,
			Name:       emailblocks.KindDisplayName(kind),
			Category:   emailblocks.KindCategory(kind),
			Properties: emailblocks.DefaultProperties(kind),
		})
	}
	return kinds
}

func documentKey(doc emailblocks.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to hash document: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func documentVariables(doc emailblocks.Document) []string {
	return union(
		emailblocks.ScanVariables(doc.Blocks),
		emailblocks.ScanValue(doc.Settings.Preheader),
		emailblocks.ScanValue(doc.Settings.Title),
	)
}

func union(lists ...[]string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, list := range lists {
		for _, name := range list {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// copyResult returns a copy sharing no slices with the cached value
func copyResult(r *domain.CompileResult) *domain.CompileResult {
	out := *r
	out.Variables = append([]string{}, r.Variables...)
	out.UnknownKinds = append([]string{}, r.UnknownKinds...)
	return &out
}
