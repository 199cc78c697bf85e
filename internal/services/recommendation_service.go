package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lens-advisor/api/internal/repositories"
)

// RecommendationServiceDeps bundles the reference data sources used by recommendations.
type RecommendationServiceDeps struct {
	Products       repositories.LensProductRepository
	Benefits       repositories.BenefitRepository
	AnswerBenefits repositories.AnswerBenefitRepository
	ProfileSignals repositories.ProfileSignalRepository
	Config         EngineConfig
	Logger         func(context.Context, string, map[string]any)
	Tracer         trace.Tracer
}

type recommendationService struct {
	products repositories.LensProductRepository
	benefits repositories.BenefitRepository
	mappings repositories.AnswerBenefitRepository
	signals  repositories.ProfileSignalRepository
	cfg      EngineConfig
	logger   func(context.Context, string, map[string]any)
	tracer   trace.Tracer
}

// NewRecommendationService validates dependencies and returns a RecommendationService.
func NewRecommendationService(deps RecommendationServiceDeps) (RecommendationService, error) {
	switch {
	case deps.Products == nil:
		return nil, fmt.Errorf("%w: lens products", ErrRepositoryMissing)
	case deps.Benefits == nil:
		return nil, fmt.Errorf("%w: benefits", ErrRepositoryMissing)
	case deps.AnswerBenefits == nil:
		return nil, fmt.Errorf("%w: answer benefits", ErrRepositoryMissing)
	}
	svc := &recommendationService{
		products: deps.Products,
		benefits: deps.Benefits,
		mappings: deps.AnswerBenefits,
		signals:  deps.ProfileSignals,
		cfg:      deps.Config,
		logger:   deps.Logger,
		tracer:   deps.Tracer,
	}
	if svc.logger == nil {
		svc.logger = func(context.Context, string, map[string]any) {}
	}
	if svc.tracer == nil {
		svc.tracer = otel.Tracer(instrumentationName)
	}
	return svc, nil
}

func (s *recommendationService) EligibleLenses(ctx context.Context, cmd EligibleLensesCommand) (EligibilityResult, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation.EligibleLenses")
	defer span.End()

	if cmd.VisionType != "" && !cmd.VisionType.Valid() {
		return EligibilityResult{}, fmt.Errorf("%w: unknown vision type %q", ErrRecommendationInvalidInput, cmd.VisionType)
	}
	products, err := s.products.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list products")
		return EligibilityResult{}, fmt.Errorf("recommendation service: list products: %w", err)
	}

	result := FindEligibleLenses(s.cfg, products, EligibilityQuery{
		Prescription: cmd.Prescription,
		FrameType:    cmd.FrameType,
		VisionType:   cmd.VisionType,
	})
	span.SetAttributes(
		attribute.String("eligibility.vision_type", string(result.VisionType)),
		attribute.String("eligibility.index", string(result.RecommendedIndex)),
		attribute.Int("eligibility.candidates", len(products)),
		attribute.Int("eligibility.matches", len(result.Lenses)),
	)
	if len(result.Lenses) == 0 {
		s.logger(ctx, "recommendation_no_eligible_lenses", map[string]any{
			"visionType": string(result.VisionType),
			"maxPower":   result.MaxAbsolutePower,
		})
	}
	return result, nil
}

func (s *recommendationService) Recommend(ctx context.Context, cmd RecommendCommand) (Recommendation, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation.Recommend")
	defer span.End()

	eligible, err := s.EligibleLenses(ctx, EligibleLensesCommand{
		Prescription: cmd.Prescription,
		FrameType:    cmd.FrameType,
		VisionType:   cmd.VisionType,
	})
	if err != nil {
		return Recommendation{}, err
	}

	benefits, err := s.benefits.List(ctx)
	if err != nil {
		return Recommendation{}, fmt.Errorf("recommendation service: list benefits: %w", err)
	}
	mappings, err := s.mappings.List(ctx)
	if err != nil {
		return Recommendation{}, fmt.Errorf("recommendation service: list answer benefits: %w", err)
	}
	var signals []ProfileSignal
	if s.signals != nil {
		if signals, err = s.signals.List(ctx); err != nil {
			return Recommendation{}, fmt.Errorf("recommendation service: list profile signals: %w", err)
		}
	}

	rx := cmd.Prescription
	profile := BuildRequirementProfile(s.cfg, ProfileInput{
		Selections:         cmd.Selections,
		Signals:            signals,
		Age:                cmd.Age,
		OutdoorHours:       cmd.OutdoorHours,
		VisionTypeOverride: eligible.VisionType,
		Prescription:       &rx,
	})

	vector := ComputeBenefitScores(cmd.Selections, mappings, benefits)
	ranked := RankProducts(s.cfg, eligible.Lenses, vector, SelectedAnswerIDs(cmd.Selections), benefits, RankOptions{
		Diversity: cmd.Diversity,
		Limit:     cmd.Limit,
	})
	span.SetAttributes(attribute.Int("recommendation.ranked", len(ranked)))

	return Recommendation{
		Profile:          profile,
		RecommendedIndex: eligible.RecommendedIndex,
		BenefitVector:    vector,
		Products:         ranked,
	}, nil
}
