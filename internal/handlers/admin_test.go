package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	domain "github.com/lens-advisor/api/internal/domain"
	"github.com/lens-advisor/api/internal/services"
)

func newAdminHandlers() *AdminHandlers {
	return NewAdminHandlers(services.NewValidationService(nil), nil, 0)
}

func TestAdminHandlers_ValidateOfferRules(t *testing.T) {
	h := newAdminHandlers()

	t.Run("yopo after combo is rejected", func(t *testing.T) {
		rr := serve(t, h.Routes, http.MethodPost, "/offer-rules:validate", `{"rules":[
			{"id":"yopo","offerType":"YOPO","priority":5,"isActive":true},
			{"id":"combo","offerType":"combo_price","priority":3,"isActive":true,"config":{"comboPrice":3999}}
		]}`)

		expectStatus(t, rr, http.StatusUnprocessableEntity)
		body := decodeBody(t, rr)
		if body["error"] != "validation_failed" {
			t.Fatalf("expected validation_failed, got %v", body["error"])
		}
		want := "rule yopo: YOPO priority 5 must be lower than COMBO_PRICE rule combo priority 3"
		if problems := problemsOf(t, body); !containsString(problems, want) {
			t.Fatalf("expected %q in %v", want, problems)
		}
	})

	t.Run("reordered rules pass", func(t *testing.T) {
		rr := serve(t, h.Routes, http.MethodPost, "/offer-rules:validate", `{"rules":[
			{"id":"yopo","offerType":"YOPO","priority":1,"isActive":true},
			{"id":"combo","offerType":"COMBO_PRICE","priority":3,"isActive":true,"config":{"comboPrice":3999}}
		]}`)

		expectStatus(t, rr, http.StatusOK)
		body := decodeBody(t, rr)
		if body["valid"] != true || body["checked"] != float64(2) {
			t.Fatalf("unexpected body: %v", body)
		}
	})

	t.Run("unknown type is reported with other problems", func(t *testing.T) {
		rr := serve(t, h.Routes, http.MethodPost, "/offer-rules:validate", `{"rules":[
			{"id":"mystery","offerType":"mystery","priority":1},
			{"id":"combo","offerType":"COMBO_PRICE","priority":2,"config":{"comboPrice":0}}
		]}`)

		expectStatus(t, rr, http.StatusUnprocessableEntity)
		problems := problemsOf(t, decodeBody(t, rr))
		for _, want := range []string{
			`rule mystery: unknown offer type "MYSTERY"`,
			"rule combo: comboPrice must be positive",
		} {
			if !containsString(problems, want) {
				t.Fatalf("expected %q in %v", want, problems)
			}
		}
	})

	t.Run("non-object rule is a bad request", func(t *testing.T) {
		rr := serve(t, h.Routes, http.MethodPost, "/offer-rules:validate", `{"rules":[42]}`)
		expectStatus(t, rr, http.StatusBadRequest)
	})
}

func TestAdminHandlers_ValidateCatalogAcceptsObjectBenefits(t *testing.T) {
	h := newAdminHandlers()

	valid := `{
		"products":[{"id":"lens-1","code":"L1","name":"Clear","brandLine":"CLEARVIEW","visionType":"SINGLE_VISION","index":"INDEX_156","mrp":2000,"offerPrice":1500,"isActive":true,"yopoEligible":true,
			"rxRanges":[{"sphMin":-6,"sphMax":4,"cylMin":0,"cylMax":-2,"addOnPrice":0}],
			"benefits":{"b01":3}}],
		"benefits":[{"code":"B01","name":"Blue light","pointWeight":1,"maxScore":3}],
		"mappings":[{"answerId":"screens","benefitCode":"B01","points":3}]
	}`
	rr := serve(t, h.Routes, http.MethodPost, "/catalog:validate", valid)
	expectStatus(t, rr, http.StatusOK)

	invalid := `{
		"products":[{"id":"lens-1","visionType":"SINGLE_VISION","index":"INDEX_156","mrp":2000,"offerPrice":1500,
			"benefits":[{"benefitCode":"B01","score":4}]}],
		"benefits":[{"code":"B01"}],
		"mappings":[]
	}`
	rr = serve(t, h.Routes, http.MethodPost, "/catalog:validate", invalid)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	want := "product lens-1: benefit B01 score must be within 0-3"
	if problems := problemsOf(t, decodeBody(t, rr)); !containsString(problems, want) {
		t.Fatalf("expected %q in %v", want, problems)
	}

	ambiguous := `{"products":[{"id":"lens-1","benefits":"B01"}]}`
	rr = serve(t, h.Routes, http.MethodPost, "/catalog:validate", ambiguous)
	expectStatus(t, rr, http.StatusBadRequest)
}

func TestAdminHandlers_ValidateQuestionnaire(t *testing.T) {
	h := newAdminHandlers()

	cyclic := `{"questions":[
		{"id":"a","answers":[{"id":"a1","subQuestionId":"b"}]},
		{"id":"b","answers":[{"id":"b1","subQuestionId":"a"}]}
	]}`
	rr := serve(t, h.Routes, http.MethodPost, "/questionnaire:validate", cyclic)
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	if problems := problemsOf(t, decodeBody(t, rr)); !containsString(problems, "cycle: a -> b -> a") {
		t.Fatalf("expected cycle problem, got %v", problems)
	}

	tree := `{"questions":[
		{"id":"a","answers":[{"id":"a1","subQuestionId":"b"},{"id":"a2"}]},
		{"id":"b","answers":[{"id":"b1"}]}
	]}`
	rr = serve(t, h.Routes, http.MethodPost, "/questionnaire:validate", tree)
	expectStatus(t, rr, http.StatusOK)
}

type failingValidation struct{}

func (failingValidation) ValidateOfferRules(context.Context, []domain.OfferRule) error {
	return errors.New("boom")
}

func (failingValidation) ValidateCatalog(context.Context, services.CatalogSnapshot) error {
	return errors.New("boom")
}

func (failingValidation) ValidateQuestionnaire(context.Context, []domain.Question) error {
	return errors.New("boom")
}

func TestAdminHandlers_UnexpectedValidatorError(t *testing.T) {
	h := NewAdminHandlers(failingValidation{}, nil, 0)
	rr := serve(t, h.Routes, http.MethodPost, "/questionnaire:validate", `{"questions":[]}`)
	expectStatus(t, rr, http.StatusInternalServerError)
}

type stubReferenceService struct {
	audit         services.ReferenceAudit
	err           error
	invalidateErr error
	invalidated   int
}

func (s *stubReferenceService) Audit(context.Context) (services.ReferenceAudit, error) {
	return s.audit, s.err
}

func (s *stubReferenceService) InvalidateCache(context.Context) error {
	s.invalidated++
	return s.invalidateErr
}

func TestAdminHandlers_ReferenceData(t *testing.T) {
	ref := &stubReferenceService{audit: services.ReferenceAudit{
		Valid:      false,
		OfferRules: 2,
		Problems:   map[string][]string{"questionnaire": {"cycle: a -> b -> a"}},
	}}
	h := NewAdminHandlers(services.NewValidationService(nil), ref, 0)

	rr := serve(t, h.Routes, http.MethodPost, "/reference-data:audit", "")
	expectStatus(t, rr, http.StatusOK)
	body := decodeBody(t, rr)
	if body["valid"] != false || body["offerRules"] != float64(2) {
		t.Fatalf("unexpected audit body: %v", body)
	}

	rr = serve(t, h.Routes, http.MethodPost, "/reference-data:invalidate-cache", "")
	expectStatus(t, rr, http.StatusNoContent)
	if ref.invalidated != 1 {
		t.Fatalf("expected one invalidation, got %d", ref.invalidated)
	}

	ref.invalidateErr = fmt.Errorf("wrapped: %w", services.ErrCacheNotConfigured)
	rr = serve(t, h.Routes, http.MethodPost, "/reference-data:invalidate-cache", "")
	expectStatus(t, rr, http.StatusConflict)

	ref.err = fmt.Errorf("list products: %w", unavailableError{})
	rr = serve(t, h.Routes, http.MethodPost, "/reference-data:audit", "")
	expectStatus(t, rr, http.StatusServiceUnavailable)

	rr = serve(t, NewAdminHandlers(nil, nil, 0).Routes, http.MethodPost, "/reference-data:audit", "")
	expectStatus(t, rr, http.StatusServiceUnavailable)
}
