package repositories

import (
	"context"
	"errors"

	domain "github.com/lens-advisor/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	LensProducts() LensProductRepository
	Benefits() BenefitRepository
	AnswerBenefits() AnswerBenefitRepository
	ProfileSignals() ProfileSignalRepository
	OfferRules() OfferRuleRepository
	Coupons() CouponRepository
	Questions() QuestionRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// LensProductRepository reads the lens catalog.
type LensProductRepository interface {
	// List returns every product, active or not, ordered by ID.
	List(ctx context.Context) ([]domain.LensProduct, error)
	// Get returns a single product or a RepositoryError with IsNotFound.
	Get(ctx context.Context, id string) (domain.LensProduct, error)
}

// BenefitRepository reads benefit definitions.
type BenefitRepository interface {
	List(ctx context.Context) ([]domain.Benefit, error)
}

// AnswerBenefitRepository reads answer to benefit point mappings.
type AnswerBenefitRepository interface {
	List(ctx context.Context) ([]domain.AnswerBenefitMapping, error)
}

// ProfileSignalRepository reads answer to requirement profile signals.
type ProfileSignalRepository interface {
	List(ctx context.Context) ([]domain.ProfileSignal, error)
}

// OfferRuleRepository reads the offer rule set.
type OfferRuleRepository interface {
	// List returns every rule, including inactive ones, ordered by priority then ID.
	List(ctx context.Context) ([]domain.OfferRule, error)
}

// CouponRepository resolves coupon codes.
type CouponRepository interface {
	// FindByCode returns the coupon for a normalised code or a RepositoryError with IsNotFound.
	FindByCode(ctx context.Context, code string) (domain.Coupon, error)
}

// QuestionRepository reads the questionnaire.
type QuestionRepository interface {
	List(ctx context.Context) ([]domain.Question, error)
}

// HealthRepository probes backing stores for readiness reporting.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.HealthReport, error)
}

// IsNotFound reports whether err is a RepositoryError flagged as not found.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}

// IsUnavailable reports whether err is a RepositoryError flagged as a transient outage.
func IsUnavailable(err error) bool {
	var repoErr RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsUnavailable()
	}
	return false
}
