package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/lens-advisor/api/internal/platform/firestore"
	"github.com/lens-advisor/api/internal/repositories"
)

// Registry bundles the Firestore repositories behind repositories.Registry.
type Registry struct {
	provider *pfirestore.Provider

	products  *LensProductRepository
	benefits  *BenefitRepository
	mappings  *AnswerBenefitRepository
	signals   *ProfileSignalRepository
	rules     *OfferRuleRepository
	coupons   *CouponRepository
	questions *QuestionRepository
	health    repositories.HealthRepository
}

// NewRegistry builds every repository on the provider. The health repository probes
// Firestore and any extra probes supplied, such as the cache.
func NewRegistry(provider *pfirestore.Provider, extraProbes ...repositories.Probe) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry requires provider")
	}
	reg := &Registry{provider: provider}

	var err error
	if reg.products, err = NewLensProductRepository(provider); err != nil {
		return nil, err
	}
	if reg.benefits, err = NewBenefitRepository(provider); err != nil {
		return nil, err
	}
	if reg.mappings, err = NewAnswerBenefitRepository(provider); err != nil {
		return nil, err
	}
	if reg.signals, err = NewProfileSignalRepository(provider); err != nil {
		return nil, err
	}
	if reg.rules, err = NewOfferRuleRepository(provider); err != nil {
		return nil, err
	}
	if reg.coupons, err = NewCouponRepository(provider); err != nil {
		return nil, err
	}
	if reg.questions, err = NewQuestionRepository(provider); err != nil {
		return nil, err
	}

	probes := append([]repositories.Probe{{Name: "firestore", Check: provider.Ping}}, extraProbes...)
	if reg.health, err = repositories.NewProbeHealthRepository(probes); err != nil {
		return nil, err
	}
	return reg, nil
}

func (r *Registry) Close(ctx context.Context) error { return r.provider.Close(ctx) }

func (r *Registry) LensProducts() repositories.LensProductRepository     { return r.products }
func (r *Registry) Benefits() repositories.BenefitRepository             { return r.benefits }
func (r *Registry) AnswerBenefits() repositories.AnswerBenefitRepository { return r.mappings }
func (r *Registry) ProfileSignals() repositories.ProfileSignalRepository { return r.signals }
func (r *Registry) OfferRules() repositories.OfferRuleRepository         { return r.rules }
func (r *Registry) Coupons() repositories.CouponRepository               { return r.coupons }
func (r *Registry) Questions() repositories.QuestionRepository           { return r.questions }
func (r *Registry) Health() repositories.HealthRepository                { return r.health }

var _ repositories.Registry = (*Registry)(nil)
