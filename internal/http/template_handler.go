package http

import (
	"errors"
	"net/http"

	"github.com/Notifuse/mailblocks/internal/domain"
	"github.com/Notifuse/mailblocks/internal/http/middleware"
	"github.com/Notifuse/mailblocks/pkg/logger"
)

// RenderLimitNamespace is the rate limit namespace shared by the routes
// that compile documents
const RenderLimitNamespace = "render"

type TemplateHandler struct {
	service   domain.TemplateService
	limiter   middleware.Limiter
	clientKey middleware.KeyFunc
	logger    logger.Logger
}

// TemplateHandlerOption configures a TemplateHandler
type TemplateHandlerOption func(*TemplateHandler)

// WithTrustedProxyHeaders keys the render rate limit on X-Forwarded-For
// when trusted is true. Leave it off unless a proxy rewrites the header.
func WithTrustedProxyHeaders(trusted bool) TemplateHandlerOption {
	return func(h *TemplateHandler) {
		if trusted {
			h.clientKey = middleware.ForwardedClientIP
		} else {
			h.clientKey = middleware.ClientIP
		}
	}
}

// NewTemplateHandler creates the template routes. A nil limiter leaves the
// render routes unthrottled.
func NewTemplateHandler(service domain.TemplateService, limiter middleware.Limiter, logger logger.Logger, opts ...TemplateHandlerOption) *TemplateHandler {
	h := &TemplateHandler{
		service:   service,
		limiter:   limiter,
		clientKey: middleware.ClientIP,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TemplateHandler) RegisterRoutes(mux *http.ServeMux) {
	render := func(next http.HandlerFunc) http.Handler { return next }
	if h.limiter != nil {
		limit := middleware.RateLimitMiddleware(h.limiter, RenderLimitNamespace, h.clientKey)
		render = func(next http.HandlerFunc) http.Handler { return limit(next) }
	}

	// Register RPC-style endpoints with dot notation
	mux.HandleFunc("/api/templates.list", h.handleList)
	mux.HandleFunc("/api/templates.get", h.handleGet)
	mux.HandleFunc("/api/templates.create", h.handleCreate)
	mux.HandleFunc("/api/templates.update", h.handleUpdate)
	mux.HandleFunc("/api/templates.delete", h.handleDelete)
	mux.Handle("/api/templates.compile", render(h.handleCompile))
	mux.Handle("/api/templates.preview", render(h.handlePreview))
	mux.Handle("/api/templates.export", render(h.handleExport))
	mux.HandleFunc("/api/templates.variables", h.handleVariables)
	mux.HandleFunc("/api/templates.kinds", h.handleKinds)

	mux.HandleFunc("/api/templates.blocks.add", h.handleAddBlock)
	mux.HandleFunc("/api/templates.blocks.update", h.handleUpdateBlock)
	mux.HandleFunc("/api/templates.blocks.move", h.handleMoveBlock)
	mux.HandleFunc("/api/templates.blocks.duplicate", h.handleDuplicateBlock)
	mux.HandleFunc("/api/templates.blocks.delete", h.handleDeleteBlock)
}

func (h *TemplateHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GetTemplatesRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	templates, err := h.service.GetTemplates(r.Context(), req.Category)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to get templates")
		WriteJSONError(w, "Failed to get templates", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
	})
}

func (h *TemplateHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GetTemplateRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	template, err := h.service.GetTemplateByID(r.Context(), req.ID, req.Version)
	if err != nil {
		h.writeServiceError(w, err, "Failed to get template")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"template": template,
	})
}

func (h *TemplateHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.CreateTemplateRequest
	if !h.decode(w, r, &req) {
		return
	}

	template, err := req.Validate()
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.CreateTemplate(r.Context(), template); err != nil {
		h.writeServiceError(w, err, "Failed to create template")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"template": template,
	})
}

func (h *TemplateHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.UpdateTemplateRequest
	if !h.decode(w, r, &req) {
		return
	}

	template, err := req.Validate()
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateTemplate(r.Context(), template); err != nil {
		h.writeServiceError(w, err, "Failed to update template")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"template": template,
	})
}

func (h *TemplateHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.DeleteTemplateRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := req.Validate()
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteTemplate(r.Context(), id); err != nil {
		h.writeServiceError(w, err, "Failed to delete template")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

func (h *TemplateHandler) handleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.CompileTemplateRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var (
		result *domain.CompileResult
		err    error
	)
	if req.Document != nil {
		result, err = h.service.Compile(r.Context(), *req.Document)
	} else {
		result, err = h.service.CompileTemplate(r.Context(), req.ID, req.Version)
	}
	if err != nil {
		h.writeServiceError(w, err, "Failed to compile template")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TemplateHandler) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.PreviewTemplateRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Preview(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to preview template")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TemplateHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.ExportTemplateRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Export(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "Failed to export template")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *TemplateHandler) handleVariables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.GetTemplateRequest
	if err := req.FromURLParams(r.URL.Query()); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	variables, err := h.service.Variables(r.Context(), req.ID, req.Version)
	if err != nil {
		h.writeServiceError(w, err, "Failed to list template variables")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"variables": variables,
	})
}

func (h *TemplateHandler) handleKinds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"kinds": h.service.Kinds(),
	})
}

func (h *TemplateHandler) handleAddBlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.AddBlockRequest
	if !h.decode(w, r, &req) {
		return
	}

	position, err := req.Validate()
	if err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	template, block, err := h.service.AddBlock(r.Context(), req.TemplateID, req.Kind, position)
	if err != nil {
		h.writeServiceError(w, err, "Failed to add block")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"template": template,
		"block":    block,
	})
}

func (h *TemplateHandler) handleUpdateBlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.UpdateBlockRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	template, err := h.service.UpdateBlock(r.Context(), req.TemplateID, req.BlockID, req.Properties)
	if err != nil {
		h.writeServiceError(w, err, "Failed to update block")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"template": template,
	})
}

func (h *TemplateHandler) handleMoveBlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.MoveBlockRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	template, err := h.service.MoveBlock(r.Context(), req.TemplateID, req.BlockID, req.Position)
	if err != nil {
		h.writeServiceError(w, err, "Failed to move block")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"template": template,
	})
}

func (h *TemplateHandler) handleDuplicateBlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.BlockRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	template, block, err := h.service.DuplicateBlock(r.Context(), req.TemplateID, req.BlockID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to duplicate block")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"template": template,
		"block":    block,
	})
}

func (h *TemplateHandler) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.BlockRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	template, err := h.service.DeleteBlock(r.Context(), req.TemplateID, req.BlockID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to delete block")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"template": template,
	})
}

func (h *TemplateHandler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := decodeJSONBody(w, r, v, MaxRequestBodyBytes)
	if err == nil {
		return true
	}

	h.logger.WithField("error", err.Error()).Error("Failed to decode request body")
	if errors.Is(err, errBodyTooLarge) {
		WriteJSONError(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return false
	}
	WriteJSONError(w, "Invalid request body", http.StatusBadRequest)
	return false
}

// writeServiceError maps service errors to HTTP statuses. Unexpected
// errors are logged and reported with the generic message.
func (h *TemplateHandler) writeServiceError(w http.ResponseWriter, err error, message string) {
	var (
		notFound      *domain.ErrTemplateNotFound
		blockNotFound *domain.ErrBlockNotFound
		conflict      *domain.ErrTemplateConflict
		invalidBlock  *domain.ErrInvalidBlock
		validation    domain.ValidationError
	)

	switch {
	case errors.As(err, &notFound):
		WriteJSONError(w, "Template not found", http.StatusNotFound)
	case errors.As(err, &blockNotFound):
		WriteJSONError(w, blockNotFound.Error(), http.StatusNotFound)
	case errors.As(err, &conflict):
		WriteJSONError(w, conflict.Error(), http.StatusConflict)
	case errors.As(err, &invalidBlock):
		WriteJSONError(w, invalidBlock.Error(), http.StatusBadRequest)
	case errors.As(err, &validation):
		WriteJSONError(w, validation.Error(), http.StatusBadRequest)
	default:
		h.logger.WithField("error", err.Error()).Error(message)
		WriteJSONError(w, message, http.StatusInternalServerError)
	}
}
