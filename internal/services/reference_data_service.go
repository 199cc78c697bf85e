package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lens-advisor/api/internal/repositories"
)

// ErrCacheNotConfigured indicates cache invalidation was requested without a cache in front of
// the repositories.
var ErrCacheNotConfigured = errors.New("services: reference data cache is not configured")

// CacheInvalidator drops cached reference data snapshots.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ReferenceDataService audits the stored reference data and manages its cache.
type ReferenceDataService interface {
	Audit(ctx context.Context) (ReferenceAudit, error)
	InvalidateCache(ctx context.Context) error
}

// ReferenceAudit reports the authoring checks run over everything currently stored. Problems
// is keyed by subject: catalog, offer_rules or questionnaire.
type ReferenceAudit struct {
	Valid      bool                `json:"valid"`
	Products   int                 `json:"products"`
	Benefits   int                 `json:"benefits"`
	Mappings   int                 `json:"mappings"`
	OfferRules int                 `json:"offerRules"`
	Questions  int                 `json:"questions"`
	Problems   map[string][]string `json:"problems"`
}

// ReferenceDataServiceDeps bundles the stores read by the audit.
type ReferenceDataServiceDeps struct {
	Products       repositories.LensProductRepository
	Benefits       repositories.BenefitRepository
	AnswerBenefits repositories.AnswerBenefitRepository
	Rules          repositories.OfferRuleRepository
	Questions      repositories.QuestionRepository
	Cache          CacheInvalidator
	Logger         func(context.Context, string, map[string]any)
}

type referenceDataService struct {
	deps   ReferenceDataServiceDeps
	logger func(context.Context, string, map[string]any)
}

// NewReferenceDataService requires every repository. Cache may be nil.
func NewReferenceDataService(deps ReferenceDataServiceDeps) (ReferenceDataService, error) {
	switch {
	case deps.Products == nil:
		return nil, fmt.Errorf("%w: lens products", ErrRepositoryMissing)
	case deps.Benefits == nil:
		return nil, fmt.Errorf("%w: benefits", ErrRepositoryMissing)
	case deps.AnswerBenefits == nil:
		return nil, fmt.Errorf("%w: answer benefits", ErrRepositoryMissing)
	case deps.Rules == nil:
		return nil, fmt.Errorf("%w: offer rules", ErrRepositoryMissing)
	case deps.Questions == nil:
		return nil, fmt.Errorf("%w: questions", ErrRepositoryMissing)
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &referenceDataService{deps: deps, logger: logger}, nil
}

func (s *referenceDataService) Audit(ctx context.Context) (ReferenceAudit, error) {
	products, err := s.deps.Products.List(ctx)
	if err != nil {
		return ReferenceAudit{}, fmt.Errorf("reference audit: list products: %w", err)
	}
	benefits, err := s.deps.Benefits.List(ctx)
	if err != nil {
		return ReferenceAudit{}, fmt.Errorf("reference audit: list benefits: %w", err)
	}
	mappings, err := s.deps.AnswerBenefits.List(ctx)
	if err != nil {
		return ReferenceAudit{}, fmt.Errorf("reference audit: list answer benefits: %w", err)
	}
	rules, err := s.deps.Rules.List(ctx)
	if err != nil {
		return ReferenceAudit{}, fmt.Errorf("reference audit: list offer rules: %w", err)
	}
	questions, err := s.deps.Questions.List(ctx)
	if err != nil {
		return ReferenceAudit{}, fmt.Errorf("reference audit: list questions: %w", err)
	}

	audit := ReferenceAudit{
		Products:   len(products),
		Benefits:   len(benefits),
		Mappings:   len(mappings),
		OfferRules: len(rules),
		Questions:  len(questions),
		Problems:   map[string][]string{},
	}
	collect := func(subject string, err error) {
		var lister ProblemLister
		if errors.As(err, &lister) {
			audit.Problems[subject] = lister.Problems()
		}
	}
	collect("catalog", ValidateCatalog(CatalogSnapshot{Products: products, Benefits: benefits, Mappings: mappings}))
	collect("offer_rules", ValidateRuleSet(rules))
	collect("questionnaire", ValidateQuestionGraph(questions))
	audit.Valid = len(audit.Problems) == 0

	fields := map[string]any{
		"valid":      audit.Valid,
		"products":   audit.Products,
		"offerRules": audit.OfferRules,
		"questions":  audit.Questions,
	}
	for subject, problems := range audit.Problems {
		fields[subject+"Problems"] = len(problems)
	}
	s.logger(ctx, "reference_audit_completed", fields)
	return audit, nil
}

func (s *referenceDataService) InvalidateCache(ctx context.Context) error {
	if s.deps.Cache == nil {
		return ErrCacheNotConfigured
	}
	if err := s.deps.Cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("reference data: invalidate cache: %w", err)
	}
	s.logger(ctx, "reference_cache_invalidated", nil)
	return nil
}
