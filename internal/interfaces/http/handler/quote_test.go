package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	quoteapp "github.com/quoteflow/backend/internal/application/quote"
	"github.com/quoteflow/backend/internal/domain/quote"
	"github.com/quoteflow/backend/internal/domain/shared"
	"github.com/quoteflow/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockQuoteRepository implements quote.Repository for handler tests
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) FindAll(ctx context.Context, filter quote.ListFilter) ([]quote.Quote, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]quote.Quote), args.Error(1)
}

func (m *MockQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

func (m *MockQuoteRepository) Create(ctx context.Context, q *quote.Quote) error {
	args := m.Called(ctx, q)
	return args.Error(0)
}

func (m *MockQuoteRepository) Update(ctx context.Context, id uuid.UUID, patch quote.QuotePatch) (*quote.Quote, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Quote), args.Error(1)
}

func (m *MockQuoteRepository) SaveDraft(ctx context.Context, id uuid.UUID, draft json.RawMessage) (json.RawMessage, error) {
	args := m.Called(ctx, id, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func setupQuoteTestRouter() (*gin.Engine, *MockQuoteRepository) {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	mockRepo := new(MockQuoteRepository)
	service := quoteapp.NewQuoteService(mockRepo)
	h := NewQuoteHandler(service)

	router := gin.New()
	h.RegisterRoutes(router.Group(""))
	return router, mockRepo
}

func createTestQuote(title string) *quote.Quote {
	q, _ := quote.NewQuote(title, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC))
	s, _ := quote.NewSection(uuid.New(), "Materials", "EUR", "USD", decimal.RequireFromString("1.1"))
	b, _ := quote.NewBasis(uuid.New(), "Shingles", "bundle", 12, decimal.RequireFromString("24.99"))
	s.AddBasis(b)
	q.AddSection(s)
	return q
}

func performJSON(router *gin.Engine, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestQuoteHandler_List(t *testing.T) {
	t.Run("returns quotes in the list projection", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		mockRepo.On("FindAll", mock.Anything, quote.ListFilter{}).
			Return([]quote.Quote{*createTestQuote("Roof Repair")}, nil)

		w := performJSON(router, http.MethodGet, "/quotes", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		envelope := decodeEnvelope(t, w)
		assert.Equal(t, true, envelope["success"])
		data := envelope["data"].([]any)
		require.Len(t, data, 1)
		first := data[0].(map[string]any)
		assert.Equal(t, "Roof Repair", first["title"])

		sections := first["sections"].([]any)
		require.Len(t, sections, 1)
		section := sections[0].(map[string]any)
		// The list projection strips section identity and titles
		assert.NotContains(t, section, "title")
		assert.Equal(t, "EUR", section["base_currency"])
		basis := section["basis"].([]any)
		require.Len(t, basis, 1)
		assert.NotContains(t, basis[0].(map[string]any), "title")
	})

	t.Run("passes date filters to the repository", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		from := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
		mockRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f quote.ListFilter) bool {
			return f.StartDate != nil && f.StartDate.Equal(from) && f.EndDate == nil
		})).Return([]quote.Quote{}, nil)

		w := performJSON(router, http.MethodGet, "/quotes?start_date=2024-07-01", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		router, _ := setupQuoteTestRouter()

		w := performJSON(router, http.MethodGet, "/quotes?start_date=bogus", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		envelope := decodeEnvelope(t, w)
		assert.Equal(t, false, envelope["success"])
	})
}

func TestQuoteHandler_GetByID(t *testing.T) {
	t.Run("returns the full tree", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		q := createTestQuote("Roof Repair")
		mockRepo.On("FindByID", mock.Anything, q.ID).Return(q, nil)

		w := performJSON(router, http.MethodGet, "/quotes/"+q.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		envelope := decodeEnvelope(t, w)
		data := envelope["data"].(map[string]any)
		assert.Equal(t, q.ID.String(), data["id"])
		sections := data["sections"].([]any)
		require.Len(t, sections, 1)
		section := sections[0].(map[string]any)
		assert.Equal(t, "Materials", section["title"])
		require.Len(t, section["basis"].([]any), 1)
	})

	t.Run("returns 404 for a missing quote", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		id := uuid.New()
		mockRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		w := performJSON(router, http.MethodGet, "/quotes/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		envelope := decodeEnvelope(t, w)
		errInfo := envelope["error"].(map[string]any)
		assert.Equal(t, "ERR_NOT_FOUND", errInfo["code"])
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		router, _ := setupQuoteTestRouter()

		w := performJSON(router, http.MethodGet, "/quotes/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestQuoteHandler_Create(t *testing.T) {
	validBody := func() map[string]any {
		return map[string]any{
			"title":      "Roof Repair",
			"start_date": "2024-07-01",
			"end_date":   "2024-07-31",
			"sections": []map[string]any{
				{
					"uuid":          uuid.New().String(),
					"title":         "Materials",
					"base_currency": "EUR",
					"user_currency": "USD",
					"exchange_rate": "1.1",
					"basis": []map[string]any{
						{
							"uuid":            uuid.New().String(),
							"title":           "Shingles",
							"unit_of_measure": "bundle",
							"quantity":        12,
							"price_per_unit":  "24.99",
						},
					},
				},
			},
		}
	}

	t.Run("creates a quote and returns the tree", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*quote.Quote")).Return(nil)

		body, _ := json.Marshal(validBody())
		w := performJSON(router, http.MethodPost, "/quotes", body)

		assert.Equal(t, http.StatusOK, w.Code)
		envelope := decodeEnvelope(t, w)
		assert.Equal(t, true, envelope["success"])
		data := envelope["data"].(map[string]any)
		assert.Equal(t, "Roof Repair", data["title"])
		require.Len(t, data["sections"].([]any), 1)
		mockRepo.AssertExpectations(t)
	})

	t.Run("accepts numeric values sent as strings", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*quote.Quote")).Return(nil)

		payload := validBody()
		payload["sections"].([]map[string]any)[0]["basis"].([]map[string]any)[0]["quantity"] = "12"
		body, _ := json.Marshal(payload)
		w := performJSON(router, http.MethodPost, "/quotes", body)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects a payload without sections", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()

		payload := validBody()
		delete(payload, "sections")
		body, _ := json.Marshal(payload)
		w := performJSON(router, http.MethodPost, "/quotes", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		envelope := decodeEnvelope(t, w)
		errInfo := envelope["error"].(map[string]any)
		assert.Equal(t, "ERR_VALIDATION", errInfo["code"])
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("rejects an unknown currency via the binding tag", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()

		payload := validBody()
		payload["sections"].([]map[string]any)[0]["base_currency"] = "ZZZ"
		body, _ := json.Marshal(payload)
		w := performJSON(router, http.MethodPost, "/quotes", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("allows a unit of measure up to 100 characters", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*quote.Quote")).Return(nil)

		payload := validBody()
		payload["sections"].([]map[string]any)[0]["basis"].([]map[string]any)[0]["unit_of_measure"] = strings.Repeat("u", 100)
		body, _ := json.Marshal(payload)
		w := performJSON(router, http.MethodPost, "/quotes", body)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects a unit of measure over 100 characters", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()

		payload := validBody()
		payload["sections"].([]map[string]any)[0]["basis"].([]map[string]any)[0]["unit_of_measure"] = strings.Repeat("u", 101)
		body, _ := json.Marshal(payload)
		w := performJSON(router, http.MethodPost, "/quotes", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("rejects a fractional quantity", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()

		payload := validBody()
		payload["sections"].([]map[string]any)[0]["basis"].([]map[string]any)[0]["quantity"] = 1.5
		body, _ := json.Marshal(payload)
		w := performJSON(router, http.MethodPost, "/quotes", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		router, _ := setupQuoteTestRouter()

		w := performJSON(router, http.MethodPost, "/quotes", []byte(`{"title": `))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		envelope := decodeEnvelope(t, w)
		errInfo := envelope["error"].(map[string]any)
		assert.Equal(t, "ERR_INVALID_JSON", errInfo["code"])
	})
}

func TestQuoteHandler_Update(t *testing.T) {
	t.Run("title-only patch omits the sections key in the response", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		id := uuid.New()

		stored, _ := quote.NewQuote("Renamed", time.Now(), time.Now().Add(time.Hour))
		stored.ID = id
		mockRepo.On("Update", mock.Anything, id, mock.MatchedBy(func(p quote.QuotePatch) bool {
			return p.Title != nil && p.Sections == nil
		})).Return(stored, nil)

		w := performJSON(router, http.MethodPatch, "/quotes/"+id.String(), []byte(`{"title":"Renamed"}`))

		assert.Equal(t, http.StatusOK, w.Code)
		envelope := decodeEnvelope(t, w)
		data := envelope["data"].(map[string]any)
		assert.Equal(t, "Renamed", data["title"])
		assert.NotContains(t, data, "sections")
	})

	t.Run("empty sections list renders as an empty array", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		id := uuid.New()

		stored, _ := quote.NewQuote("Roof Repair", time.Now(), time.Now().Add(time.Hour))
		stored.ID = id
		stored.Sections = []quote.Section{}
		mockRepo.On("Update", mock.Anything, id, mock.MatchedBy(func(p quote.QuotePatch) bool {
			return p.Sections != nil && len(*p.Sections) == 0
		})).Return(stored, nil)

		w := performJSON(router, http.MethodPatch, "/quotes/"+id.String(), []byte(`{"sections":[]}`))

		assert.Equal(t, http.StatusOK, w.Code)
		envelope := decodeEnvelope(t, w)
		data := envelope["data"].(map[string]any)
		require.Contains(t, data, "sections")
		assert.Empty(t, data["sections"].([]any))
	})

	t.Run("returns 404 for a missing quote", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		id := uuid.New()
		mockRepo.On("Update", mock.Anything, id, mock.Anything).Return(nil, shared.ErrNotFound)

		w := performJSON(router, http.MethodPatch, "/quotes/"+id.String(), []byte(`{"title":"x"}`))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rejects a malformed id", func(t *testing.T) {
		router, _ := setupQuoteTestRouter()

		w := performJSON(router, http.MethodPatch, "/quotes/nope", []byte(`{"title":"x"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects an empty start_date", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		id := uuid.New()

		w := performJSON(router, http.MethodPatch, "/quotes/"+id.String(), []byte(`{"start_date":""}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockRepo.AssertNotCalled(t, "Update")
	})

	t.Run("rejects an empty end_date", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		id := uuid.New()

		w := performJSON(router, http.MethodPatch, "/quotes/"+id.String(), []byte(`{"end_date":""}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockRepo.AssertNotCalled(t, "Update")
	})
}

func TestQuoteHandler_SaveDraft(t *testing.T) {
	t.Run("stores the body verbatim, unknown keys included", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		id := uuid.New()

		raw := `{"title":"wip","client_notes":"call back tuesday"}`
		mockRepo.On("SaveDraft", mock.Anything, id, mock.MatchedBy(func(d json.RawMessage) bool {
			return string(d) == raw
		})).Return(json.RawMessage(raw), nil)

		w := performJSON(router, http.MethodPut, "/quotes/"+id.String()+"/draft", []byte(raw))

		assert.Equal(t, http.StatusOK, w.Code)
		envelope := decodeEnvelope(t, w)
		data := envelope["data"].(map[string]any)
		draft := data["draft"].(map[string]any)
		assert.Equal(t, "call back tuesday", draft["client_notes"])
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects a structurally invalid draft", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		id := uuid.New()

		// sections must be a list, not a string
		w := performJSON(router, http.MethodPut, "/quotes/"+id.String()+"/draft", []byte(`{"sections":"oops"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockRepo.AssertNotCalled(t, "SaveDraft")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		router, _ := setupQuoteTestRouter()
		id := uuid.New()

		w := performJSON(router, http.MethodPut, "/quotes/"+id.String()+"/draft", []byte(`{`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 404 for a missing quote", func(t *testing.T) {
		router, mockRepo := setupQuoteTestRouter()
		id := uuid.New()
		mockRepo.On("SaveDraft", mock.Anything, id, mock.Anything).Return(nil, shared.ErrNotFound)

		w := performJSON(router, http.MethodPut, "/quotes/"+id.String()+"/draft", []byte(`{"title":"wip"}`))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
