package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domain "github.com/lens-advisor/api/internal/domain"
)

func TestNewRouter_DefaultMounts(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	healthHandlers := NewHealthHandlers(
		WithHealthRepository(stubHealthRepository{
			report: domain.HealthReport{
				Status:      domain.HealthStatusOK,
				GeneratedAt: now,
				Checks: map[string]domain.HealthCheck{
					"firestore": {Status: domain.HealthStatusOK},
				},
			},
		}),
		WithHealthClock(func() time.Time { return now }),
	)

	router := NewRouter(WithHealthHandlers(healthHandlers))

	t.Run("healthz", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		expectStatus(t, rr, http.StatusOK)
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Fatalf("expected content-type application/json, got %s", ct)
		}
	})

	t.Run("readyz", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		expectStatus(t, rr, http.StatusOK)
	})

	t.Run("default not implemented group", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/quotes", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		expectStatus(t, rr, http.StatusNotImplemented)
		if body := decodeBody(t, rr); body["error"] != "not_implemented" {
			t.Fatalf("expected not_implemented, got %v", body["error"])
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		expectStatus(t, rr, http.StatusNotFound)
		body := decodeBody(t, rr)
		if body["error"] != errorNotFoundCode {
			t.Fatalf("expected %s, got %v", errorNotFoundCode, body["error"])
		}
		if body["request_id"] == nil || body["request_id"] == "" {
			t.Fatalf("expected request id in envelope")
		}
	})
}

func TestNewRouter_MountsRegistrars(t *testing.T) {
	pricing := &stubPricingService{quote: domain.PriceQuote{ID: "q-1", Currency: "INR"}}
	recs := &stubRecommendationService{}

	var adminHits int
	router := NewRouter(
		WithPricingRoutes(NewPricingHandlers(pricing, 0).Routes),
		WithRecommendationRoutes(NewRecommendationHandlers(recs, 0).Routes),
		WithAdminMiddlewares(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				adminHits++
				next.ServeHTTP(w, r)
			})
		}),
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/quotes", jsonBody(`{"cart":{"primary":{"frame":{"mrp":1000,"price":1000},"lens":{"mrp":500,"price":500}}}}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusCreated)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/catalog:validate", jsonBody(`{}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	expectStatus(t, rr, http.StatusNotImplemented)
	if adminHits != 1 {
		t.Fatalf("expected admin middleware to run once, ran %d times", adminHits)
	}
}
