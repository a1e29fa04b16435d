package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Notifuse/mailblocks/internal/domain"
	"github.com/Notifuse/mailblocks/internal/domain/mocks"
	apphttp "github.com/Notifuse/mailblocks/internal/http"
	"github.com/Notifuse/mailblocks/pkg/emailblocks"
	"github.com/Notifuse/mailblocks/pkg/ratelimiter"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func setupTemplateHandlerTest(t *testing.T) (*mocks.MockTemplateService, *http.ServeMux) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockTemplateService(ctrl)

	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().WithField(gomock.Any(), gomock.Any()).Return(mockLogger).AnyTimes()
	mockLogger.EXPECT().Error(gomock.Any()).AnyTimes()

	handler := apphttp.NewTemplateHandler(mockService, nil, mockLogger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return mockService, mux
}

// sendRequest serves a request on mux. A string body is sent raw, anything
// else is marshalled to JSON.
func sendRequest(t *testing.T, mux *http.ServeMux, method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func createTestTemplate() *domain.Template {
	return &domain.Template{
		ID:       "tpl-1",
		Name:     "Welcome",
		Version:  2,
		Subject:  "Welcome aboard",
		Category: string(domain.TemplateCategoryWelcome),
		Document: emailblocks.StarterDocument(),
		TestData: domain.MapOfAny{},
	}
}

func TestTemplateHandler_MethodNotAllowed(t *testing.T) {
	_, mux := setupTemplateHandlerTest(t)

	routes := map[string]string{
		"/api/templates.list":             http.MethodPost,
		"/api/templates.get":              http.MethodPost,
		"/api/templates.variables":        http.MethodPost,
		"/api/templates.kinds":            http.MethodPost,
		"/api/templates.create":           http.MethodGet,
		"/api/templates.update":           http.MethodGet,
		"/api/templates.delete":           http.MethodGet,
		"/api/templates.compile":          http.MethodGet,
		"/api/templates.preview":          http.MethodGet,
		"/api/templates.export":           http.MethodGet,
		"/api/templates.blocks.add":       http.MethodGet,
		"/api/templates.blocks.update":    http.MethodGet,
		"/api/templates.blocks.move":      http.MethodGet,
		"/api/templates.blocks.duplicate": http.MethodGet,
		"/api/templates.blocks.delete":    http.MethodGet,
	}

	for route, method := range routes {
		t.Run(route, func(t *testing.T) {
			w := sendRequest(t, mux, method, route, nil)
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
			assert.Equal(t, "Method not allowed", gjson.Get(w.Body.String(), "error").String())
		})
	}
}

func TestTemplateHandler_HandleList(t *testing.T) {
	t.Run("filters by category", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().GetTemplates(gomock.Any(), "welcome").Return([]*domain.Template{createTestTemplate()}, nil)

		w := sendRequest(t, mux, http.MethodGet, "/api/templates.list?category=welcome", nil)

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Equal(t, int64(1), gjson.Get(body, "templates.#").Int())
		assert.Equal(t, "tpl-1", gjson.Get(body, "templates.0.id").String())
	})

	t.Run("invalid category", func(t *testing.T) {
		_, mux := setupTemplateHandlerTest(t)

		w := sendRequest(t, mux, http.MethodGet, "/api/templates.list?category=promo", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().GetTemplates(gomock.Any(), "").Return(nil, errors.New("db down"))

		w := sendRequest(t, mux, http.MethodGet, "/api/templates.list", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to get templates", gjson.Get(w.Body.String(), "error").String())
	})
}

func TestTemplateHandler_HandleGet(t *testing.T) {
	testCases := []struct {
		name       string
		query      string
		setup      func(*mocks.MockTemplateService)
		wantStatus int
	}{
		{
			name:  "latest version",
			query: "?id=tpl-1",
			setup: func(m *mocks.MockTemplateService) {
				m.EXPECT().GetTemplateByID(gomock.Any(), "tpl-1", int64(0)).Return(createTestTemplate(), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "explicit version",
			query: "?id=tpl-1&version=2",
			setup: func(m *mocks.MockTemplateService) {
				m.EXPECT().GetTemplateByID(gomock.Any(), "tpl-1", int64(2)).Return(createTestTemplate(), nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing id",
			query:      "",
			setup:      func(*mocks.MockTemplateService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad version",
			query:      "?id=tpl-1&version=x",
			setup:      func(*mocks.MockTemplateService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "not found",
			query: "?id=tpl-1",
			setup: func(m *mocks.MockTemplateService) {
				m.EXPECT().GetTemplateByID(gomock.Any(), "tpl-1", int64(0)).Return(nil, &domain.ErrTemplateNotFound{Message: "template not found"})
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService, mux := setupTemplateHandlerTest(t)
			tc.setup(mockService)

			w := sendRequest(t, mux, http.MethodGet, "/api/templates.get"+tc.query, nil)
			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, "Welcome", gjson.Get(w.Body.String(), "template.name").String())
			}
		})
	}
}

func TestTemplateHandler_HandleCreate(t *testing.T) {
	t.Run("creates from the starter document", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().CreateTemplate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tpl *domain.Template) error {
			assert.Equal(t, "Welcome", tpl.Name)
			assert.NotEmpty(t, tpl.Document.Blocks)
			tpl.ID = "generated-id"
			return nil
		})

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.create", map[string]interface{}{
			"name":     " Welcome ",
			"subject":  "Welcome aboard",
			"category": "welcome",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		body := w.Body.String()
		assert.Equal(t, "generated-id", gjson.Get(body, "template.id").String())
		assert.Equal(t, int64(1), gjson.Get(body, "template.version").Int())
	})

	t.Run("invalid body", func(t *testing.T) {
		_, mux := setupTemplateHandlerTest(t)

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.create", "{not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request body", gjson.Get(w.Body.String(), "error").String())
	})

	t.Run("body too large", func(t *testing.T) {
		_, mux := setupTemplateHandlerTest(t)

		huge := `{"name":"` + strings.Repeat("a", int(apphttp.MaxRequestBodyBytes)) + `"}`
		w := sendRequest(t, mux, http.MethodPost, "/api/templates.create", huge)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "Request body too large", gjson.Get(w.Body.String(), "error").String())
	})

	t.Run("missing subject", func(t *testing.T) {
		_, mux := setupTemplateHandlerTest(t)

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.create", map[string]interface{}{
			"name":     "Welcome",
			"category": "welcome",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, gjson.Get(w.Body.String(), "error").String(), "subject is required")
	})

	t.Run("conflict", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().CreateTemplate(gomock.Any(), gomock.Any()).Return(&domain.ErrTemplateConflict{ID: "tpl-1"})

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.create", map[string]interface{}{
			"id":       "tpl-1",
			"name":     "Welcome",
			"subject":  "Welcome aboard",
			"category": "welcome",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "template tpl-1 already exists", gjson.Get(w.Body.String(), "error").String())
	})
}

func TestTemplateHandler_HandleUpdate(t *testing.T) {
	payload := map[string]interface{}{
		"id":       "tpl-1",
		"name":     "Welcome",
		"subject":  "Welcome aboard",
		"category": "welcome",
		"document": emailblocks.StarterDocument(),
	}

	t.Run("stores a new version", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().UpdateTemplate(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, tpl *domain.Template) error {
			tpl.Version = 3
			return nil
		})

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.update", payload)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(3), gjson.Get(w.Body.String(), "template.version").Int())
	})

	t.Run("not found", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().UpdateTemplate(gomock.Any(), gomock.Any()).Return(&domain.ErrTemplateNotFound{Message: "template not found"})

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.update", payload)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("document required", func(t *testing.T) {
		_, mux := setupTemplateHandlerTest(t)

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.update", map[string]interface{}{
			"id": "tpl-1", "name": "Welcome", "subject": "Hi", "category": "welcome",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTemplateHandler_HandleDelete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().DeleteTemplate(gomock.Any(), "tpl-1").Return(nil)

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.delete", map[string]string{"id": "tpl-1"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, gjson.Get(w.Body.String(), "success").Bool())
	})

	t.Run("not found", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().DeleteTemplate(gomock.Any(), "tpl-1").Return(&domain.ErrTemplateNotFound{Message: "template not found"})

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.delete", map[string]string{"id": "tpl-1"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unexpected error", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().DeleteTemplate(gomock.Any(), "tpl-1").Return(errors.New("db down"))

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.delete", map[string]string{"id": "tpl-1"})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to delete template", gjson.Get(w.Body.String(), "error").String())
	})
}

func TestTemplateHandler_HandleCompile(t *testing.T) {
	result := &domain.CompileResult{
		HTML:         "<!DOCTYPE html><html></html>",
		Text:         "Hello",
		Variables:    []string{"first_name"},
		UnknownKinds: []string{"carousel"},
	}

	t.Run("inline document", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().Compile(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, doc emailblocks.Document) (*domain.CompileResult, error) {
			require.Len(t, doc.Blocks, 1)
			assert.Equal(t, emailblocks.BlockKind("carousel"), doc.Blocks[0].Kind)
			return result, nil
		})

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.compile", map[string]interface{}{
			"document": map[string]interface{}{
				"settings": map[string]interface{}{},
				"blocks":   []interface{}{map[string]interface{}{"id": "x1", "type": "carousel", "properties": map[string]interface{}{}}},
			},
		})

		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Equal(t, "Hello", gjson.Get(body, "text").String())
		assert.Equal(t, "first_name", gjson.Get(body, "variables.0").String())
		assert.Equal(t, "carousel", gjson.Get(body, "unknown_kinds.0").String())
	})

	t.Run("stored template", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().CompileTemplate(gomock.Any(), "tpl-1", int64(2)).Return(result, nil)

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.compile", map[string]interface{}{"id": "tpl-1", "version": 2})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("neither id nor document", func(t *testing.T) {
		_, mux := setupTemplateHandlerTest(t)

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.compile", map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTemplateHandler_HandlePreview(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().Preview(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req domain.PreviewTemplateRequest) (*domain.PreviewResult, error) {
			assert.Equal(t, "tpl-1", req.ID)
			assert.Equal(t, "Ada", req.TestData["first_name"])
			return &domain.PreviewResult{HTML: "<p>Hi Ada</p>", Subject: "Hi Ada", MissingVariables: []string{}}, nil
		})

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.preview", map[string]interface{}{
			"id":        "tpl-1",
			"test_data": map[string]interface{}{"first_name": "Ada"},
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Hi Ada", gjson.Get(w.Body.String(), "subject").String())
	})

	t.Run("merge failure is a bad request", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().Preview(gomock.Any(), gomock.Any()).Return(nil, domain.NewValidationError("failed to merge html: unexpected tag"))

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.preview", map[string]interface{}{"id": "tpl-1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, gjson.Get(w.Body.String(), "error").String(), "failed to merge html")
	})
}

func TestTemplateHandler_HandleExport(t *testing.T) {
	mockService, mux := setupTemplateHandlerTest(t)
	mockService.EXPECT().Export(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req domain.ExportTemplateRequest) (*domain.ExportResult, error) {
		assert.Equal(t, "spring", req.UTM.Campaign)
		return &domain.ExportResult{Filename: "spring-sale-v3.html", HTML: "<html></html>"}, nil
	})

	w := sendRequest(t, mux, http.MethodPost, "/api/templates.export", map[string]interface{}{
		"id":  "tpl-1",
		"utm": map[string]string{"utm_campaign": "spring"},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "spring-sale-v3.html", gjson.Get(w.Body.String(), "filename").String())
}

func TestTemplateHandler_HandleVariables(t *testing.T) {
	mockService, mux := setupTemplateHandlerTest(t)
	mockService.EXPECT().Variables(gomock.Any(), "tpl-1", int64(0)).Return([]string{"code", "first_name"}, nil)

	w := sendRequest(t, mux, http.MethodGet, "/api/templates.variables?id=tpl-1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	vars := gjson.Get(w.Body.String(), "variables").Array()
	require.Len(t, vars, 2)
	assert.Equal(t, "code", vars[0].String())
}

func TestTemplateHandler_HandleKinds(t *testing.T) {
	mockService, mux := setupTemplateHandlerTest(t)
	mockService.EXPECT().Kinds().Return([]domain.BlockKindInfo{
		{Kind: emailblocks.KindButton, Name: "Button", Category: "content"},
	})

	w := sendRequest(t, mux, http.MethodGet, "/api/templates.kinds", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Button", gjson.Get(w.Body.String(), "kinds.0.name").String())
}

func TestTemplateHandler_Blocks(t *testing.T) {
	t.Run("add appends by default", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		block := emailblocks.Block{ID: "new1", Kind: emailblocks.KindDivider}
		mockService.EXPECT().AddBlock(gomock.Any(), "tpl-1", emailblocks.KindDivider, -1).Return(createTestTemplate(), &block, nil)

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.blocks.add", map[string]interface{}{
			"template_id": "tpl-1",
			"kind":        "divider",
		})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "new1", gjson.Get(w.Body.String(), "block.id").String())
	})

	t.Run("add rejects unknown kinds", func(t *testing.T) {
		_, mux := setupTemplateHandlerTest(t)

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.blocks.add", map[string]interface{}{
			"template_id": "tpl-1",
			"kind":        "carousel",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update unknown block", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().UpdateBlock(gomock.Any(), "tpl-1", "zz", gomock.Any()).
			Return(nil, &domain.ErrBlockNotFound{TemplateID: "tpl-1", BlockID: "zz"})

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.blocks.update", map[string]interface{}{
			"template_id": "tpl-1",
			"block_id":    "zz",
			"properties":  map[string]interface{}{"text": "Buy"},
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "block zz not found in template tpl-1", gjson.Get(w.Body.String(), "error").String())
	})

	t.Run("update that breaks the document", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().UpdateBlock(gomock.Any(), "tpl-1", "c1", gomock.Any()).
			Return(nil, &domain.ErrInvalidBlock{Reason: "document would be invalid"})

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.blocks.update", map[string]interface{}{
			"template_id": "tpl-1",
			"block_id":    "c1",
			"properties":  map[string]interface{}{"columns": []interface{}{}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("move", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().MoveBlock(gomock.Any(), "tpl-1", "b1", 0).Return(createTestTemplate(), nil)

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.blocks.move", map[string]interface{}{
			"template_id": "tpl-1",
			"block_id":    "b1",
			"position":    0,
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		block := emailblocks.Block{ID: "copy1", Kind: emailblocks.KindText}
		mockService.EXPECT().DuplicateBlock(gomock.Any(), "tpl-1", "t1").Return(createTestTemplate(), &block, nil)

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.blocks.duplicate", map[string]string{
			"template_id": "tpl-1",
			"block_id":    "t1",
		})
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "copy1", gjson.Get(w.Body.String(), "block.id").String())
	})

	t.Run("delete conflict", func(t *testing.T) {
		mockService, mux := setupTemplateHandlerTest(t)
		mockService.EXPECT().DeleteBlock(gomock.Any(), "tpl-1", "t1").Return(nil, &domain.ErrTemplateConflict{ID: "tpl-1", Version: 4})

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.blocks.delete", map[string]string{
			"template_id": "tpl-1",
			"block_id":    "t1",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("block id required", func(t *testing.T) {
		_, mux := setupTemplateHandlerTest(t)

		w := sendRequest(t, mux, http.MethodPost, "/api/templates.blocks.delete", map[string]string{"template_id": "tpl-1"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTemplateHandler_RenderRoutesAreRateLimited(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockTemplateService(ctrl)
	mockLogger := mocks.NewMockLogger(ctrl)

	rl := ratelimiter.New(time.Hour)
	defer rl.Stop()
	rl.SetPolicy(apphttp.RenderLimitNamespace, ratelimiter.Policy{Limit: 1, Window: time.Minute})

	mux := http.NewServeMux()
	apphttp.NewTemplateHandler(mockService, rl, mockLogger).RegisterRoutes(mux)

	mockService.EXPECT().CompileTemplate(gomock.Any(), "tpl-1", int64(0)).Return(&domain.CompileResult{}, nil)
	mockService.EXPECT().Kinds().Return([]domain.BlockKindInfo{}).Times(2)

	w := sendRequest(t, mux, http.MethodPost, "/api/templates.compile", map[string]string{"id": "tpl-1"})
	assert.Equal(t, http.StatusOK, w.Code)

	// compile, preview and export share one budget
	w = sendRequest(t, mux, http.MethodPost, "/api/templates.preview", map[string]string{"id": "tpl-1"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// other routes are not limited
	for i := 0; i < 2; i++ {
		w = sendRequest(t, mux, http.MethodGet, "/api/templates.kinds", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestTemplateHandler_RenderLimitKeys(t *testing.T) {
	newMux := func(t *testing.T, opts ...apphttp.TemplateHandlerOption) (*http.ServeMux, *mocks.MockTemplateService) {
		ctrl := gomock.NewController(t)
		mockService := mocks.NewMockTemplateService(ctrl)

		rl := ratelimiter.New(time.Hour)
		t.Cleanup(rl.Stop)
		rl.SetPolicy(apphttp.RenderLimitNamespace, ratelimiter.Policy{Limit: 1, Window: time.Minute})

		mux := http.NewServeMux()
		apphttp.NewTemplateHandler(mockService, rl, mocks.NewMockLogger(ctrl), opts...).RegisterRoutes(mux)
		return mux, mockService
	}

	compile := func(mux *http.ServeMux, forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/templates.compile", strings.NewReader(`{"id":"tpl-1"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("forwarded header is ignored by default", func(t *testing.T) {
		mux, mockService := newMux(t)
		mockService.EXPECT().CompileTemplate(gomock.Any(), "tpl-1", int64(0)).Return(&domain.CompileResult{}, nil).Times(1)

		assert.Equal(t, http.StatusOK, compile(mux, "198.51.100.1"))
		assert.Equal(t, http.StatusTooManyRequests, compile(mux, "198.51.100.2"))
	})

	t.Run("trusted proxy headers", func(t *testing.T) {
		mux, mockService := newMux(t, apphttp.WithTrustedProxyHeaders(true))
		mockService.EXPECT().CompileTemplate(gomock.Any(), "tpl-1", int64(0)).Return(&domain.CompileResult{}, nil).Times(2)

		assert.Equal(t, http.StatusOK, compile(mux, "198.51.100.1"))
		assert.Equal(t, http.StatusOK, compile(mux, "198.51.100.2"))
		assert.Equal(t, http.StatusTooManyRequests, compile(mux, "198.51.100.1"))
	})
}
