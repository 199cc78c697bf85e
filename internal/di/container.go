package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/lens-advisor/api/internal/domain"
	"github.com/lens-advisor/api/internal/platform/config"
	"github.com/lens-advisor/api/internal/repositories"
	"github.com/lens-advisor/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon. Concrete implementations
// are assembled via dependency injection in NewContainer.
type Services struct {
	Recommendations services.RecommendationService
	Pricing         services.PricingService
	Validation      services.ValidationService
	Reference       services.ReferenceDataService
}

// Options carries optional collaborators. Zero values fall back to service defaults.
type Options struct {
	Logger    func(context.Context, string, map[string]any)
	Publisher services.QuoteEventPublisher
	Cache     services.CacheInvalidator
	Clock     func() time.Time
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Engine       domain.EngineConfig
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring provides the Firestore
// registry, optionally behind the Redis cache; tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, engine domain.EngineConfig, reg repositories.Registry, opts Options) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	if cfg.Features.DiversityRanking {
		engine.Ranking.DiversityEnabled = true
	}

	svc, err := buildServices(ctx, reg, cfg, engine, opts)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Engine:       engine,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(_ context.Context, reg repositories.Registry, cfg config.Config, engine domain.EngineConfig, opts Options) (Services, error) {
	svc := Services{
		Validation: services.NewValidationService(opts.Logger),
	}

	recommendations, err := services.NewRecommendationService(services.RecommendationServiceDeps{
		Products:       reg.LensProducts(),
		Benefits:       reg.Benefits(),
		AnswerBenefits: reg.AnswerBenefits(),
		ProfileSignals: reg.ProfileSignals(),
		Config:         engine,
		Logger:         opts.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build recommendation service: %w", err)
	}
	svc.Recommendations = recommendations

	var publisher services.QuoteEventPublisher
	if cfg.Features.QuoteEvents {
		publisher = opts.Publisher
	}
	pricing, err := services.NewPricingService(services.PricingServiceDeps{
		Rules:     reg.OfferRules(),
		Coupons:   reg.Coupons(),
		Config:    engine,
		Publisher: publisher,
		Now:       opts.Clock,
		Logger:    opts.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build pricing service: %w", err)
	}
	svc.Pricing = pricing

	reference, err := services.NewReferenceDataService(services.ReferenceDataServiceDeps{
		Products:       reg.LensProducts(),
		Benefits:       reg.Benefits(),
		AnswerBenefits: reg.AnswerBenefits(),
		Rules:          reg.OfferRules(),
		Questions:      reg.Questions(),
		Cache:          opts.Cache,
		Logger:         opts.Logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build reference data service: %w", err)
	}
	svc.Reference = reference

	return svc, nil
}
