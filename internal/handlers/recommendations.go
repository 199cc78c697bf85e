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
	"github.com/lens-advisor/api/internal/services"
)

const (
	defaultRecommendationBodySize = 64 * 1024
	maxRecommendationLimit        = 50
	maxAnswerSelections           = 100
)

// RecommendationHandlers exposes eligibility and ranking endpoints.
type RecommendationHandlers struct {
	recommendations services.RecommendationService
	maxBody         int64
}

// NewRecommendationHandlers constructs the handlers. A non-positive maxBody uses the default limit.
func NewRecommendationHandlers(recommendations services.RecommendationService, maxBody int64) *RecommendationHandlers {
	if maxBody <= 0 {
		maxBody = defaultRecommendationBodySize
	}
	return &RecommendationHandlers{
		recommendations: recommendations,
		maxBody:         maxBody,
	}
}

// Routes wires the /recommendations endpoints onto the provided router.
func (h *RecommendationHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.recommend)
	r.Post("/eligible-lenses", h.eligibleLenses)
}

type eligibleLensesRequest struct {
	Prescription domain.Prescription `json:"prescription"`
	FrameType    string              `json:"frameType,omitempty"`
	VisionType   string              `json:"visionType,omitempty"`
}

type recommendationRequest struct {
	Prescription domain.Prescription      `json:"prescription"`
	FrameType    string                   `json:"frameType,omitempty"`
	VisionType   string                   `json:"visionType,omitempty"`
	Answers      []domain.AnswerSelection `json:"answers,omitempty"`
	Age          int                      `json:"age,omitempty"`
	OutdoorHours float64                  `json:"outdoorHours,omitempty"`
	Diversity    *bool                    `json:"diversity,omitempty"`
	Limit        int                      `json:"limit,omitempty"`
}

type recommendationResponse struct {
	Profile          domain.RequirementProfile    `json:"profile"`
	RecommendedIndex domain.LensIndex             `json:"recommendedIndex"`
	BenefitVector    []domain.ProductBenefitScore `json:"benefitVector"`
	Products         []domain.RankedProduct       `json:"products"`
}

func (h *RecommendationHandlers) eligibleLenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.recommendations == nil {
		httpx.WriteError(ctx, w, httpx.NewError("recommendation_service_unavailable", "recommendation service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req eligibleLensesRequest
	if err := httpx.DecodeJSON(r, h.maxBody, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.DecodeError(err))
		return
	}
	frame, vision, err := parseFitting(req.FrameType, req.VisionType)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	result, err := h.recommendations.EligibleLenses(ctx, services.EligibleLensesCommand{
		Prescription: req.Prescription,
		FrameType:    frame,
		VisionType:   vision,
	})
	if err != nil {
		writeRecommendationError(ctx, w, err)
		return
	}
	if result.Lenses == nil {
		result.Lenses = []domain.EligibleLens{}
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

func (h *RecommendationHandlers) recommend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.recommendations == nil {
		httpx.WriteError(ctx, w, httpx.NewError("recommendation_service_unavailable", "recommendation service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req recommendationRequest
	if err := httpx.DecodeJSON(r, h.maxBody, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.DecodeError(err))
		return
	}
	cmd, err := req.command()
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	rec, err := h.recommendations.Recommend(ctx, cmd)
	if err != nil {
		writeRecommendationError(ctx, w, err)
		return
	}

	products := rec.Products
	if products == nil {
		products = []domain.RankedProduct{}
	}
	httpx.WriteJSON(w, http.StatusOK, recommendationResponse{
		Profile:          rec.Profile,
		RecommendedIndex: rec.RecommendedIndex,
		BenefitVector:    benefitVectorPayload(rec.BenefitVector),
		Products:         products,
	})
}

func (req recommendationRequest) command() (services.RecommendCommand, error) {
	frame, vision, err := parseFitting(req.FrameType, req.VisionType)
	if err != nil {
		return services.RecommendCommand{}, err
	}
	switch {
	case req.Age < 0 || req.Age > 130:
		return services.RecommendCommand{}, errors.New("age must be within 0-130")
	case req.OutdoorHours < 0 || req.OutdoorHours > 24:
		return services.RecommendCommand{}, errors.New("outdoorHours must be within 0-24")
	case req.Limit < 0 || req.Limit > maxRecommendationLimit:
		return services.RecommendCommand{}, fmt.Errorf("limit must be within 0-%d", maxRecommendationLimit)
	case len(req.Answers) > maxAnswerSelections:
		return services.RecommendCommand{}, fmt.Errorf("at most %d answer selections are allowed", maxAnswerSelections)
	}

	selections := make([]domain.AnswerSelection, 0, len(req.Answers))
	for i, answer := range req.Answers {
		questionID := strings.TrimSpace(answer.QuestionID)
		if questionID == "" {
			return services.RecommendCommand{}, fmt.Errorf("answers[%d].questionId is required", i)
		}
		selections = append(selections, domain.AnswerSelection{
			QuestionID: questionID,
			AnswerIDs:  answer.AnswerIDs,
		})
	}

	return services.RecommendCommand{
		Prescription: req.Prescription,
		FrameType:    frame,
		VisionType:   vision,
		Selections:   selections,
		Age:          req.Age,
		OutdoorHours: req.OutdoorHours,
		Diversity:    req.Diversity,
		Limit:        req.Limit,
	}, nil
}

// parseFitting normalises the optional frame and vision type fields.
func parseFitting(frameRaw, visionRaw string) (domain.FrameType, domain.VisionType, error) {
	frame := domain.FrameType(strings.ToUpper(strings.TrimSpace(frameRaw)))
	switch frame {
	case "", domain.FrameFullRim, domain.FrameHalfRim, domain.FrameRimless:
	default:
		return "", "", fmt.Errorf("unknown frameType %q", frameRaw)
	}

	vision := domain.VisionType(strings.ToUpper(strings.TrimSpace(visionRaw)))
	if vision != "" && !vision.Valid() {
		return "", "", fmt.Errorf("unknown visionType %q", visionRaw)
	}
	return frame, vision, nil
}

func writeRecommendationError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrRecommendationInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "lens product not found", http.StatusNotFound))
	default:
		writeServiceError(ctx, w, err)
	}
}
