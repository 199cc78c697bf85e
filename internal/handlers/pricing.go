package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/lens-advisor/api/internal/domain"
	"github.com/lens-advisor/api/internal/platform/httpx"
	"github.com/lens-advisor/api/internal/platform/textutil"
	"github.com/lens-advisor/api/internal/services"
)

const (
	defaultPricingBodySize = 64 * 1024
	maxCouponCodeLength    = 64
)

// PricingHandlers exposes quote, upsell and best-offer endpoints.
type PricingHandlers struct {
	pricing  services.PricingService
	maxBody  int64
	quoteMWs []func(http.Handler) http.Handler
}

// NewPricingHandlers constructs the handlers. quoteMiddlewares wrap quote creation only,
// typically idempotency replay protection.
func NewPricingHandlers(pricing services.PricingService, maxBody int64, quoteMiddlewares ...func(http.Handler) http.Handler) *PricingHandlers {
	if maxBody <= 0 {
		maxBody = defaultPricingBodySize
	}
	mws := make([]func(http.Handler) http.Handler, 0, len(quoteMiddlewares))
	for _, mw := range quoteMiddlewares {
		if mw != nil {
			mws = append(mws, mw)
		}
	}
	return &PricingHandlers{
		pricing:  pricing,
		maxBody:  maxBody,
		quoteMWs: mws,
	}
}

// Routes wires the /pricing endpoints onto the provided router.
func (h *PricingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.With(h.quoteMWs...).Post("/quotes", h.createQuote)
	r.Post("/upsell", h.upsell)
	r.Post("/best-offer", h.bestOffer)
}

type quoteRequest struct {
	Cart             domain.Cart                   `json:"cart"`
	CustomerCategory *domain.CustomerCategoryClaim `json:"customerCategory,omitempty"`
	CouponCode       string                        `json:"couponCode,omitempty"`
}

type upsellRequest struct {
	Profile domain.RequirementProfile `json:"profile"`
	Cart    domain.Cart               `json:"cart"`
}

type bestOfferResponse struct {
	BestOffer *bestOfferPayload `json:"bestOffer"`
}

type bestOfferPayload struct {
	Rule    domain.OfferRule  `json:"rule"`
	Savings int64             `json:"savings"`
	Score   float64           `json:"score"`
	Quote   domain.PriceQuote `json:"quote"`
}

func (h *PricingHandlers) createQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_service_unavailable", "pricing service is unavailable", http.StatusServiceUnavailable))
		return
	}

	cmd, ok := h.decodeQuote(w, r)
	if !ok {
		return
	}
	quote, err := h.pricing.Quote(ctx, cmd)
	if err != nil {
		writePricingError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, quote)
}

func (h *PricingHandlers) bestOffer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_service_unavailable", "pricing service is unavailable", http.StatusServiceUnavailable))
		return
	}

	cmd, ok := h.decodeQuote(w, r)
	if !ok {
		return
	}
	best, err := h.pricing.BestOffer(ctx, cmd)
	if err != nil {
		writePricingError(ctx, w, err)
		return
	}

	var resp bestOfferResponse
	if best != nil {
		resp.BestOffer = &bestOfferPayload{
			Rule:    best.Rule,
			Savings: best.Savings,
			Score:   best.Score,
			Quote:   best.Quote,
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *PricingHandlers) upsell(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pricing == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_service_unavailable", "pricing service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req upsellRequest
	if err := httpx.DecodeJSON(r, h.maxBody, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.DecodeError(err))
		return
	}
	if req.Profile.VisionType != "" && !req.Profile.VisionType.Valid() {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("unknown profile.visionType %q", req.Profile.VisionType), http.StatusBadRequest))
		return
	}

	result, err := h.pricing.Upsell(ctx, services.UpsellCommand{
		Profile: req.Profile,
		Cart:    req.Cart,
	})
	if err != nil {
		writePricingError(ctx, w, err)
		return
	}
	if result.SecondPairSuggestions == nil {
		result.SecondPairSuggestions = []domain.SecondPairSuggestion{}
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *PricingHandlers) decodeQuote(w http.ResponseWriter, r *http.Request) (services.QuoteCommand, bool) {
	ctx := r.Context()
	var req quoteRequest
	if err := httpx.DecodeJSON(r, h.maxBody, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.DecodeError(err))
		return services.QuoteCommand{}, false
	}

	code := strings.ToUpper(textutil.PlainText(req.CouponCode))
	if len(code) > maxCouponCodeLength {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("couponCode must be at most %d characters", maxCouponCodeLength), http.StatusBadRequest))
		return services.QuoteCommand{}, false
	}

	var claim *domain.CustomerCategoryClaim
	if req.CustomerCategory != nil {
		category := domain.CustomerCategory(strings.ToUpper(strings.TrimSpace(string(req.CustomerCategory.Category))))
		if category == "" {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "customerCategory.category is required", http.StatusBadRequest))
			return services.QuoteCommand{}, false
		}
		claim = &domain.CustomerCategoryClaim{Category: category, Verified: req.CustomerCategory.Verified}
	}

	return services.QuoteCommand{
		Cart:             req.Cart,
		CustomerCategory: claim,
		CouponCode:       code,
	}, true
}

func writePricingError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPricingInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_cart", err.Error(), http.StatusUnprocessableEntity))
	default:
		writeServiceError(ctx, w, err)
	}
}
