package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/lens-advisor/api/internal/domain"
	"github.com/lens-advisor/api/internal/services"
)

type stubRecommendationService struct {
	eligibleCmd  services.EligibleLensesCommand
	recommendCmd services.RecommendCommand
	eligible     domain.EligibilityResult
	rec          services.Recommendation
	err          error
}

func (s *stubRecommendationService) EligibleLenses(_ context.Context, cmd services.EligibleLensesCommand) (domain.EligibilityResult, error) {
	s.eligibleCmd = cmd
	return s.eligible, s.err
}

func (s *stubRecommendationService) Recommend(_ context.Context, cmd services.RecommendCommand) (services.Recommendation, error) {
	s.recommendCmd = cmd
	return s.rec, s.err
}

type stubPricingService struct {
	quoteCmd  services.QuoteCommand
	upsellCmd services.UpsellCommand
	quote     domain.PriceQuote
	upsell    domain.UpsellResult
	best      *services.BestOffer
	err       error
	calls     int
}

func (s *stubPricingService) Quote(_ context.Context, cmd services.QuoteCommand) (domain.PriceQuote, error) {
	s.calls++
	s.quoteCmd = cmd
	return s.quote, s.err
}

func (s *stubPricingService) Upsell(_ context.Context, cmd services.UpsellCommand) (domain.UpsellResult, error) {
	s.calls++
	s.upsellCmd = cmd
	return s.upsell, s.err
}

func (s *stubPricingService) BestOffer(_ context.Context, cmd services.QuoteCommand) (*services.BestOffer, error) {
	s.calls++
	s.quoteCmd = cmd
	return s.best, s.err
}

type stubHealthRepository struct {
	report domain.HealthReport
	err    error
}

func (s stubHealthRepository) Collect(context.Context) (domain.HealthReport, error) {
	return s.report, s.err
}

type unavailableError struct{}

func (unavailableError) Error() string       { return "firestore unavailable" }
func (unavailableError) IsNotFound() bool    { return false }
func (unavailableError) IsConflict() bool    { return false }
func (unavailableError) IsUnavailable() bool { return true }

func serve(t *testing.T, routes RouteRegistrar, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	routes(router)

	req := httptest.NewRequest(method, path, jsonBody(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response %q: %v", rr.Body.String(), err)
	}
	return body
}

func problemsOf(t *testing.T, body map[string]any) []string {
	t.Helper()
	raw, ok := body["problems"].([]any)
	if !ok {
		t.Fatalf("expected problems array, got %#v", body["problems"])
	}
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		out = append(out, p.(string))
	}
	return out
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}

func jsonBody(body string) io.Reader {
	return strings.NewReader(body)
}
