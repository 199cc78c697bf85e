package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/lens-advisor/api/internal/domain"
	"github.com/lens-advisor/api/internal/platform/httpx"
	"github.com/lens-advisor/api/internal/services"
)

const defaultAdminBodySize = 1 << 20

// AdminHandlers exposes authoring-time validation and maintenance of reference data.
type AdminHandlers struct {
	validation services.ValidationService
	reference  services.ReferenceDataService
	maxBody    int64
}

// NewAdminHandlers constructs the admin endpoints. reference may be nil, in which case the
// stored-data endpoints answer 503. A non-positive maxBody uses the default limit.
func NewAdminHandlers(validation services.ValidationService, reference services.ReferenceDataService, maxBody int64) *AdminHandlers {
	if maxBody <= 0 {
		maxBody = defaultAdminBodySize
	}
	return &AdminHandlers{validation: validation, reference: reference, maxBody: maxBody}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/offer-rules:validate", h.validateOfferRules)
	r.Post("/catalog:validate", h.validateCatalog)
	r.Post("/questionnaire:validate", h.validateQuestionnaire)
	r.Post("/reference-data:audit", h.auditReferenceData)
	r.Post("/reference-data:invalidate-cache", h.invalidateReferenceCache)
}

type offerRulesValidationRequest struct {
	Rules []json.RawMessage `json:"rules"`
}

type catalogValidationRequest struct {
	Products []lensProductPayload          `json:"products"`
	Benefits []domain.Benefit              `json:"benefits"`
	Mappings []domain.AnswerBenefitMapping `json:"mappings"`
}

// lensProductPayload shadows Benefits so either benefit shape is accepted.
type lensProductPayload struct {
	domain.LensProduct
	Benefits benefitScores `json:"benefits,omitempty"`
}

type questionnaireValidationRequest struct {
	Questions []domain.Question `json:"questions"`
}

type validationResponse struct {
	Valid   bool `json:"valid"`
	Checked int  `json:"checked"`
}

func (h *AdminHandlers) validateOfferRules(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.validation == nil {
		httpx.WriteError(ctx, w, httpx.NewError("validation_service_unavailable", "validation service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req offerRulesValidationRequest
	if err := httpx.DecodeJSON(r, h.maxBody, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.DecodeError(err))
		return
	}

	rules, decodeProblems, err := decodeOfferRules(req.Rules)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	problems := decodeProblems
	if err := h.validation.ValidateOfferRules(ctx, rules); err != nil {
		var lister services.ProblemLister
		if !errors.As(err, &lister) {
			writeServiceError(ctx, w, err)
			return
		}
		problems = append(problems, lister.Problems()...)
	}
	if len(problems) > 0 {
		writeValidationFailed(w, r, problems)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, validationResponse{Valid: true, Checked: len(rules)})
}

func (h *AdminHandlers) validateCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.validation == nil {
		httpx.WriteError(ctx, w, httpx.NewError("validation_service_unavailable", "validation service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req catalogValidationRequest
	if err := httpx.DecodeJSON(r, h.maxBody, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.DecodeError(err))
		return
	}

	products := make([]domain.LensProduct, 0, len(req.Products))
	for _, payload := range req.Products {
		product := payload.LensProduct
		product.Benefits = []domain.ProductBenefitScore(payload.Benefits)
		products = append(products, product)
	}

	err := h.validation.ValidateCatalog(ctx, services.CatalogSnapshot{
		Products: products,
		Benefits: req.Benefits,
		Mappings: req.Mappings,
	})
	if err != nil {
		writeAdminValidationError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, validationResponse{Valid: true, Checked: len(products)})
}

func (h *AdminHandlers) validateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.validation == nil {
		httpx.WriteError(ctx, w, httpx.NewError("validation_service_unavailable", "validation service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req questionnaireValidationRequest
	if err := httpx.DecodeJSON(r, h.maxBody, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.DecodeError(err))
		return
	}

	if err := h.validation.ValidateQuestionnaire(ctx, req.Questions); err != nil {
		writeAdminValidationError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, validationResponse{Valid: true, Checked: len(req.Questions)})
}

func (h *AdminHandlers) auditReferenceData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reference == nil {
		httpx.WriteError(ctx, w, httpx.NewError("reference_service_unavailable", "reference data service is unavailable", http.StatusServiceUnavailable))
		return
	}

	audit, err := h.reference.Audit(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, audit)
}

func (h *AdminHandlers) invalidateReferenceCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.reference == nil {
		httpx.WriteError(ctx, w, httpx.NewError("reference_service_unavailable", "reference data service is unavailable", http.StatusServiceUnavailable))
		return
	}

	err := h.reference.InvalidateCache(ctx)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, services.ErrCacheNotConfigured):
		httpx.WriteError(ctx, w, httpx.NewError("cache_disabled", "reference data cache is not enabled", http.StatusConflict))
	default:
		writeServiceError(ctx, w, err)
	}
}

// decodeOfferRules decodes each rule independently. Rules naming an unknown offer type are kept
// with their raw type so the rule set check reports them alongside every other problem.
// Malformed configs become problems; anything else is a bad request.
func decodeOfferRules(raw []json.RawMessage) ([]domain.OfferRule, []string, error) {
	rules := make([]domain.OfferRule, 0, len(raw))
	var problems []string
	for i, item := range raw {
		var rule domain.OfferRule
		err := json.Unmarshal(item, &rule)
		if err == nil {
			rules = append(rules, rule)
			continue
		}

		var header struct {
			ID        string `json:"id"`
			OfferType string `json:"offerType"`
			Priority  int    `json:"priority"`
			IsActive  bool   `json:"isActive"`
		}
		if herr := json.Unmarshal(item, &header); herr != nil {
			return nil, nil, fmt.Errorf("rules[%d]: %v", i, herr)
		}
		if errors.Is(err, domain.ErrUnknownOfferType) {
			rules = append(rules, domain.OfferRule{
				ID:        header.ID,
				OfferType: domain.OfferType(strings.ToUpper(strings.TrimSpace(header.OfferType))),
				Priority:  header.Priority,
				IsActive:  header.IsActive,
			})
			continue
		}
		ref := header.ID
		if ref == "" {
			ref = fmt.Sprintf("#%d", i)
		}
		problems = append(problems, fmt.Sprintf("rule %s: invalid config: %v", ref, err))
	}
	return rules, problems, nil
}

func writeAdminValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var lister services.ProblemLister
	if errors.As(err, &lister) {
		writeValidationFailed(w, r, lister.Problems())
		return
	}
	writeServiceError(r.Context(), w, err)
}

func writeValidationFailed(w http.ResponseWriter, r *http.Request, problems []string) {
	httpx.WriteError(r.Context(), w, httpx.NewError("validation_failed", "submitted data failed validation", http.StatusUnprocessableEntity).WithProblems(problems))
}
