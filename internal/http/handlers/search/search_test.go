package search_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/lead-forge/internal/http/handlers/search"
	"github.com/magabrotheeeer/lead-forge/internal/http/middlewarectx"
	"github.com/magabrotheeeer/lead-forge/internal/models"
	batchservice "github.com/magabrotheeeer/lead-forge/internal/services/batch"
)

type mockSearcher struct {
	SearchFunc func(ctx context.Context, query, country, state string) ([]models.BusinessResult, error)
}

func (m *mockSearcher) Search(ctx context.Context, query, country, state string) ([]models.BusinessResult, error) {
	return m.SearchFunc(ctx, query, country, state)
}

type mockBatchService struct {
	ProcessFunc func(ctx context.Context, username, sourceLabel string, businesses []models.BusinessResult) (*batchservice.Result, error)
}

func (m *mockBatchService) ProcessBusinesses(ctx context.Context, username, sourceLabel string, businesses []models.BusinessResult) (*batchservice.Result, error) {
	return m.ProcessFunc(ctx, username, sourceLabel, businesses)
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

func makeLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

func TestSearchHandler(t *testing.T) {
	ctx := context.WithValue(context.Background(), middlewarectx.User, "testuser")

	t.Run("успешный поиск", func(t *testing.T) {
		searcher := &mockSearcher{
			SearchFunc: func(ctx context.Context, query, country, state string) ([]models.BusinessResult, error) {
				require.Equal(t, "coffee shops", query)
				require.Equal(t, "United States", country)
				require.Equal(t, "California", state)
				return []models.BusinessResult{{Name: "Blue Sky Cafe"}}, nil
			},
		}
		service := &mockBatchService{
			ProcessFunc: func(ctx context.Context, username, sourceLabel string, businesses []models.BusinessResult) (*batchservice.Result, error) {
				require.Equal(t, "testuser", username)
				require.Equal(t, "Search: coffee shops in California, United States", sourceLabel)
				require.Len(t, businesses, 1)
				return &batchservice.Result{JobID: 3, Requested: 1, Processed: 1, CreditsUsed: 1, RemainingCredits: 9}, nil
			},
		}

		body, _ := json.Marshal(models.SearchRequest{
			Query:   "coffee shops",
			Country: "United States",
			State:   "California",
		})
		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		search.New(makeLogger(), searcher, service).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Status string               `json:"status"`
			Data   *batchservice.Result `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(3), resp.Data.JobID)
	})

	t.Run("ничего не найдено", func(t *testing.T) {
		searcher := &mockSearcher{
			SearchFunc: func(ctx context.Context, query, country, state string) ([]models.BusinessResult, error) {
				return nil, nil
			},
		}
		service := &mockBatchService{
			ProcessFunc: func(ctx context.Context, username, sourceLabel string, businesses []models.BusinessResult) (*batchservice.Result, error) {
				t.Fatal("service must not be called")
				return nil, nil
			},
		}

		body, _ := json.Marshal(models.SearchRequest{Query: "x", Country: "UK", State: "London"})
		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		search.New(makeLogger(), searcher, service).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "no businesses found")
	})

	t.Run("невалидный запрос", func(t *testing.T) {
		searcher := &mockSearcher{}
		service := &mockBatchService{}

		body, _ := json.Marshal(models.SearchRequest{Query: "coffee"})
		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		search.New(makeLogger(), searcher, service).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("кредиты исчерпаны", func(t *testing.T) {
		searcher := &mockSearcher{
			SearchFunc: func(ctx context.Context, query, country, state string) ([]models.BusinessResult, error) {
				return []models.BusinessResult{{Name: "Biz"}}, nil
			},
		}
		service := &mockBatchService{
			ProcessFunc: func(ctx context.Context, username, sourceLabel string, businesses []models.BusinessResult) (*batchservice.Result, error) {
				return nil, batchservice.ErrQuotaExceeded
			},
		}

		body, _ := json.Marshal(models.SearchRequest{Query: "coffee", Country: "USA", State: "Texas"})
		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		search.New(makeLogger(), searcher, service).ServeHTTP(w, req)

		assert.Equal(t, http.StatusPaymentRequired, w.Code)
	})

	t.Run("ошибка внешнего поиска", func(t *testing.T) {
		searcher := &mockSearcher{
			SearchFunc: func(ctx context.Context, query, country, state string) ([]models.BusinessResult, error) {
				return nil, errors.New("upstream down")
			},
		}
		service := &mockBatchService{}

		body, _ := json.Marshal(models.SearchRequest{Query: "coffee", Country: "USA", State: "Texas"})
		req := httptest.NewRequest(http.MethodPost, "/search", bytes.NewReader(body))
		req = req.WithContext(ctx)
		w := httptest.NewRecorder()

		search.New(makeLogger(), searcher, service).ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
