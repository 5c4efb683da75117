package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"arq/internal/keywords/models"
	dErrors "arq/pkg/domain-errors"
)

type researchFunc func(ctx context.Context, raw string) (*models.Result, error)

func (f researchFunc) Research(ctx context.Context, raw string) (*models.Result, error) {
	return f(ctx, raw)
}

func serve(f researchFunc, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Route("/admin/api", New(f, slog.New(slog.NewTextHandler(io.Discard, nil))).RegisterAdmin)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestHandleResearch(t *testing.T) {
	t.Run("returns result with cached flag", func(t *testing.T) {
		fetched := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
		w := serve(func(_ context.Context, raw string) (*models.Result, error) {
			assert.Equal(t, "coworking space", raw)
			return &models.Result{Keyword: "coworking space", SearchVolume: 2400, Related: []models.Related{}, FetchedAt: fetched, Cached: true}, nil
		}, "/admin/api/keywords?q=coworking+space")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"keyword":"coworking space","search_volume":2400,"difficulty":0,"cpc":0,"competition":0,
			"related":[],"fetched_at":"2026-10-15T00:00:00Z","cached":true}`, w.Body.String())
	})

	t.Run("missing query is a validation error", func(t *testing.T) {
		w := serve(func(_ context.Context, raw string) (*models.Result, error) {
			return nil, dErrors.New(dErrors.CodeValidation, "keyword is required")
		}, "/admin/api/keywords")

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("provider failure is a bad gateway", func(t *testing.T) {
		w := serve(func(_ context.Context, raw string) (*models.Result, error) {
			return nil, dErrors.New(dErrors.CodeUpstream, "keyword request failed")
		}, "/admin/api/keywords?q=x")

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"error":"upstream_error"}`, w.Body.String())
	})
}
