package domain

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Notifuse/mailblocks/pkg/emailblocks"
	"github.com/Notifuse/mailblocks/pkg/tracking"
	"github.com/asaskevich/govalidator"
)

//go:generate mockgen -destination mocks/mock_template_service.go -package mocks github.com/Notifuse/mailblocks/internal/domain TemplateService
//go:generate mockgen -destination mocks/mock_template_repository.go -package mocks github.com/Notifuse/mailblocks/internal/domain TemplateRepository

const (
	templateIDPattern = `^[a-zA-Z0-9_-]+$`
	maxTemplateIDLen  = 36
	maxNameLen        = 255
	maxSubjectLen     = 255
)

type TemplateCategory string

const (
	TemplateCategoryMarketing     TemplateCategory = "marketing"
	TemplateCategoryTransactional TemplateCategory = "transactional"
	TemplateCategoryWelcome       TemplateCategory = "welcome"
	TemplateCategoryNewsletter    TemplateCategory = "newsletter"
	TemplateCategoryOther         TemplateCategory = "other"
)

func (t TemplateCategory) Validate() error {
	switch t {
	case TemplateCategoryMarketing, TemplateCategoryTransactional, TemplateCategoryWelcome, TemplateCategoryNewsletter, TemplateCategoryOther:
		return nil
	}
	return fmt.Errorf("invalid template category: %s", t)
}

// Template is a versioned, named email document. Every update stores a
// new version row; the highest version is the current one.
type Template struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Version   int64                `json:"version"`
	Subject   string               `json:"subject"`
	Category  string               `json:"category"`
	Document  emailblocks.Document `json:"document"`
	TestData  MapOfAny             `json:"test_data,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
	DeletedAt *time.Time           `json:"deleted_at,omitempty"`
}

func (t *Template) Validate() error {
	if err := validateTemplateID(t.ID); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	if t.Name == "" {
		return fmt.Errorf("invalid template: name is required")
	}
	if !govalidator.StringLength(t.Name, "1", strconv.Itoa(maxNameLen)) {
		return fmt.Errorf("invalid template: name length must be between 1 and %d", maxNameLen)
	}

	if t.Version <= 0 {
		return fmt.Errorf("invalid template: version must be positive")
	}

	if t.Subject == "" {
		return fmt.Errorf("invalid template: subject is required")
	}
	if !govalidator.StringLength(t.Subject, "1", strconv.Itoa(maxSubjectLen)) {
		return fmt.Errorf("invalid template: subject length must be between 1 and %d", maxSubjectLen)
	}

	if t.Category == "" {
		return fmt.Errorf("invalid template: category is required")
	}
	if err := TemplateCategory(t.Category).Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	if t.TestData == nil {
		t.TestData = MapOfAny{}
	}
	if t.Document.Blocks == nil {
		t.Document.Blocks = []emailblocks.Block{}
	}

	if err := t.Document.Validate(); err != nil {
		return fmt.Errorf("invalid template: document: %w", err)
	}

	return nil
}

func validateTemplateID(id string) error {
	if id == "" {
		return fmt.Errorf("id is required")
	}
	if len(id) > maxTemplateIDLen {
		return fmt.Errorf("id length must be between 1 and %d", maxTemplateIDLen)
	}
	if !govalidator.Matches(id, templateIDPattern) {
		return fmt.Errorf("id must contain only letters, digits, dashes and underscores")
	}
	return nil
}

// Request/Response types

type CreateTemplateRequest struct {
	ID       string                `json:"id,omitempty"`
	Name     string                `json:"name"`
	Subject  string                `json:"subject"`
	Category string                `json:"category"`
	Document *emailblocks.Document `json:"document,omitempty"`
	TestData MapOfAny              `json:"test_data,omitempty"`
}

// Validate checks the request and builds the first version of the template.
// An empty id is left for the service to generate; a missing document
// yields the starter document.
func (r *CreateTemplateRequest) Validate() (*Template, error) {
	if r.ID != "" {
		if err := validateTemplateID(r.ID); err != nil {
			return nil, fmt.Errorf("invalid create template request: %w", err)
		}
	}

	doc := emailblocks.StarterDocument()
	if r.Document != nil {
		doc = r.Document.Clone()
	}

	template := &Template{
		ID:       r.ID,
		Name:     strings.TrimSpace(r.Name),
		Version:  1,
		Subject:  r.Subject,
		Category: r.Category,
		Document: doc,
		TestData: r.TestData,
	}

	// validate with a placeholder id when the service will generate one
	check := *template
	if check.ID == "" {
		check.ID = "pending"
	}
	if err := check.Validate(); err != nil {
		return nil, fmt.Errorf("invalid create template request: %w", err)
	}
	template.TestData = check.TestData
	template.Document = check.Document

	return template, nil
}

type GetTemplatesRequest struct {
	Category string `json:"category,omitempty"`
}

func (r *GetTemplatesRequest) FromURLParams(queryParams url.Values) (err error) {
	r.Category = queryParams.Get("category")

	if r.Category != "" {
		if err := TemplateCategory(r.Category).Validate(); err != nil {
			return fmt.Errorf("invalid get templates request: %w", err)
		}
	}

	return nil
}

type GetTemplateRequest struct {
	ID      string `json:"id"`
	Version int64  `json:"version,omitempty"`
}

func (r *GetTemplateRequest) FromURLParams(queryParams url.Values) (err error) {
	r.ID = queryParams.Get("id")
	versionStr := queryParams.Get("version")

	if err := validateTemplateID(r.ID); err != nil {
		return fmt.Errorf("invalid get template request: %w", err)
	}

	if versionStr != "" {
		version, err := strconv.ParseInt(versionStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid get template request: version must be a valid integer")
		}
		if version < 0 {
			return fmt.Errorf("invalid get template request: version must be zero or positive")
		}
		r.Version = version
	}

	return nil
}

type UpdateTemplateRequest struct {
	ID       string                `json:"id"`
	Name     string                `json:"name"`
	Subject  string                `json:"subject"`
	Category string                `json:"category"`
	Document *emailblocks.Document `json:"document"`
	TestData MapOfAny              `json:"test_data,omitempty"`
}

func (r *UpdateTemplateRequest) Validate() (*Template, error) {
	if r.Document == nil {
		return nil, fmt.Errorf("invalid update template request: document is required")
	}

	template := &Template{
		ID:       r.ID,
		Name:     strings.TrimSpace(r.Name),
		Version:  1, // the repository assigns the real version
		Subject:  r.Subject,
		Category: r.Category,
		Document: r.Document.Clone(),
		TestData: r.TestData,
	}
	if err := template.Validate(); err != nil {
		return nil, fmt.Errorf("invalid update template request: %w", err)
	}
	template.Version = 0

	return template, nil
}

type DeleteTemplateRequest struct {
	ID string `json:"id"`
}

func (r *DeleteTemplateRequest) Validate() (id string, err error) {
	if err := validateTemplateID(r.ID); err != nil {
		return "", fmt.Errorf("invalid delete template request: %w", err)
	}
	return r.ID, nil
}

// CompileTemplateRequest compiles either an inline document or a stored template version
type CompileTemplateRequest struct {
	ID       string                `json:"id,omitempty"`
	Version  int64                 `json:"version,omitempty"`
	Document *emailblocks.Document `json:"document,omitempty"`
}

func (r *CompileTemplateRequest) Validate() error {
	if r.Document == nil && r.ID == "" {
		return fmt.Errorf("invalid compile template request: id or document is required")
	}
	if r.Document != nil && r.ID != "" {
		return fmt.Errorf("invalid compile template request: id and document are mutually exclusive")
	}
	if r.ID != "" {
		if err := validateTemplateID(r.ID); err != nil {
			return fmt.Errorf("invalid compile template request: %w", err)
		}
	}
	if r.Version < 0 {
		return fmt.Errorf("invalid compile template request: version must be zero or positive")
	}
	return nil
}

// PreviewTemplateRequest compiles a template and substitutes merge fields.
// Without TestData the template's stored test data is used.
type PreviewTemplateRequest struct {
	ID       string                `json:"id,omitempty"`
	Version  int64                 `json:"version,omitempty"`
	Document *emailblocks.Document `json:"document,omitempty"`
	Subject  string                `json:"subject,omitempty"`
	TestData MapOfAny              `json:"test_data,omitempty"`
}

func (r *PreviewTemplateRequest) Validate() error {
	compile := CompileTemplateRequest{ID: r.ID, Version: r.Version, Document: r.Document}
	if err := compile.Validate(); err != nil {
		return fmt.Errorf("invalid preview template request: %s", strings.TrimPrefix(err.Error(), "invalid compile template request: "))
	}
	return nil
}

type ExportTemplateRequest struct {
	ID      string       `json:"id"`
	Version int64        `json:"version,omitempty"`
	UTM     tracking.UTM `json:"utm,omitempty"`
}

func (r *ExportTemplateRequest) Validate() error {
	if err := validateTemplateID(r.ID); err != nil {
		return fmt.Errorf("invalid export template request: %w", err)
	}
	if r.Version < 0 {
		return fmt.Errorf("invalid export template request: version must be zero or positive")
	}
	if r.UTM.Source != "" && !govalidator.StringLength(r.UTM.Source, "1", "100") {
		return fmt.Errorf("invalid export template request: utm_source length must be between 1 and 100")
	}
	return nil
}

// --- Block requests ---

type AddBlockRequest struct {
	TemplateID string                `json:"template_id"`
	Kind       emailblocks.BlockKind `json:"kind"`
	Position   *int                  `json:"position,omitempty"`
}

// Validate returns the insert position, -1 meaning append
func (r *AddBlockRequest) Validate() (int, error) {
	if err := validateTemplateID(r.TemplateID); err != nil {
		return 0, fmt.Errorf("invalid add block request: template_%w", err)
	}
	if !r.Kind.IsKnown() {
		return 0, &ErrInvalidBlock{Reason: fmt.Sprintf("unknown kind %q", r.Kind), Err: emailblocks.ErrUnknownKind}
	}
	if r.Position == nil {
		return -1, nil
	}
	if *r.Position < 0 {
		return 0, fmt.Errorf("invalid add block request: position must be zero or positive")
	}
	return *r.Position, nil
}

type UpdateBlockRequest struct {
	TemplateID string                 `json:"template_id"`
	BlockID    string                 `json:"block_id"`
	Properties map[string]interface{} `json:"properties"`
}

func (r *UpdateBlockRequest) Validate() error {
	if err := validateBlockTarget("update block", r.TemplateID, r.BlockID); err != nil {
		return err
	}
	if r.Properties == nil {
		return fmt.Errorf("invalid update block request: properties are required")
	}
	return nil
}

type MoveBlockRequest struct {
	TemplateID string `json:"template_id"`
	BlockID    string `json:"block_id"`
	Position   int    `json:"position"`
}

func (r *MoveBlockRequest) Validate() error {
	if err := validateBlockTarget("move block", r.TemplateID, r.BlockID); err != nil {
		return err
	}
	if r.Position < 0 {
		return fmt.Errorf("invalid move block request: position must be zero or positive")
	}
	return nil
}

// BlockRequest targets a single block, for duplicate and delete
type BlockRequest struct {
	TemplateID string `json:"template_id"`
	BlockID    string `json:"block_id"`
}

func (r *BlockRequest) Validate() error {
	return validateBlockTarget("block", r.TemplateID, r.BlockID)
}

func validateBlockTarget(op, templateID, blockID string) error {
	if err := validateTemplateID(templateID); err != nil {
		return fmt.Errorf("invalid %s request: template_%w", op, err)
	}
	if blockID == "" {
		return fmt.Errorf("invalid %s request: block_id is required", op)
	}
	if len(blockID) > 64 {
		return fmt.Errorf("invalid %s request: block_id length must be between 1 and 64", op)
	}
	return nil
}

// --- Results ---

// CompileResult is a compiled document with its derived artifacts
type CompileResult struct {
	HTML         string   `json:"html"`
	Text         string   `json:"text"`
	Variables    []string `json:"variables"`
	UnknownKinds []string `json:"unknown_kinds,omitempty"`
}

type PreviewResult struct {
	HTML             string   `json:"html"`
	Text             string   `json:"text"`
	Subject          string   `json:"subject"`
	MissingVariables []string `json:"missing_variables"`
}

type ExportResult struct {
	Filename string `json:"filename"`
	HTML     string `json:"html"`
	Text     string `json:"text"`
}

// BlockKindInfo describes a block kind for editor palettes
type BlockKindInfo struct {
	Kind       emailblocks.BlockKind  `json:"kind"`
	Name       string                 `json:"name"`
	Category   string                 `json:"category"`
	Properties map[string]interface{} `json:"properties"`
}

// TemplateService provides operations for managing and compiling templates
type TemplateService interface {
	CreateTemplate(ctx context.Context, template *Template) error
	GetTemplateByID(ctx context.Context, id string, version int64) (*Template, error)
	GetTemplates(ctx context.Context, category string) ([]*Template, error)
	UpdateTemplate(ctx context.Context, template *Template) error
	DeleteTemplate(ctx context.Context, id string) error

	// Block operations persist a new template version
	AddBlock(ctx context.Context, templateID string, kind emailblocks.BlockKind, position int) (*Template, *emailblocks.Block, error)
	UpdateBlock(ctx context.Context, templateID, blockID string, properties map[string]interface{}) (*Template, error)
	MoveBlock(ctx context.Context, templateID, blockID string, position int) (*Template, error)
	DuplicateBlock(ctx context.Context, templateID, blockID string) (*Template, *emailblocks.Block, error)
	DeleteBlock(ctx context.Context, templateID, blockID string) (*Template, error)

	Compile(ctx context.Context, doc emailblocks.Document) (*CompileResult, error)
	CompileTemplate(ctx context.Context, id string, version int64) (*CompileResult, error)
	Preview(ctx context.Context, req PreviewTemplateRequest) (*PreviewResult, error)
	Export(ctx context.Context, req ExportTemplateRequest) (*ExportResult, error)
	Variables(ctx context.Context, id string, version int64) ([]string, error)
	Kinds() []BlockKindInfo
}

// TemplateRepository provides database operations for templates
type TemplateRepository interface {
	// CreateTemplate creates a new template in the database
	CreateTemplate(ctx context.Context, template *Template) error

	// GetTemplateByID retrieves a template by its ID and optional version
	GetTemplateByID(ctx context.Context, id string, version int64) (*Template, error)

	// GetTemplateLatestVersion retrieves the latest version of a template
	GetTemplateLatestVersion(ctx context.Context, id string) (int64, error)

	// GetTemplates retrieves the latest version of every template
	GetTemplates(ctx context.Context, category string) ([]*Template, error)

	// UpdateTemplate stores the template as a new version
	UpdateTemplate(ctx context.Context, template *Template) error

	// DeleteTemplate soft deletes every version of a template
	DeleteTemplate(ctx context.Context, id string) error
}
