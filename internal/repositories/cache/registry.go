// Package cache decorates a repositories.Registry with a read-through snapshot cache for the
// reference data lists. Coupons and single product lookups are not cached.
package cache

import (
	"context"
	"encoding/json"
	"time"

	domain "github.com/lens-advisor/api/internal/domain"
	pcache "github.com/lens-advisor/api/internal/platform/cache"
	"github.com/lens-advisor/api/internal/repositories"
)

const keyPrefix = "snapshot:v1:"

// Options configure the decorator.
type Options struct {
	TTL    time.Duration
	Logger func(context.Context, string, map[string]any)
}

// Registry wraps another registry and serves list reads from the store when possible.
type Registry struct {
	inner  repositories.Registry
	store  pcache.Store
	ttl    time.Duration
	logger func(context.Context, string, map[string]any)
}

// NewRegistry wraps inner. A non-positive TTL defaults to five minutes.
func NewRegistry(inner repositories.Registry, store pcache.Store, opts Options) *Registry {
	reg := &Registry{inner: inner, store: store, ttl: opts.TTL, logger: opts.Logger}
	if reg.ttl <= 0 {
		reg.ttl = 5 * time.Minute
	}
	if reg.logger == nil {
		reg.logger = func(context.Context, string, map[string]any) {}
	}
	return reg
}

// Invalidate drops every cached snapshot so the next read goes to the backing store.
func (r *Registry) Invalidate(ctx context.Context) error {
	for _, name := range []string{"lens_products", "benefits", "answer_benefit_mappings", "profile_signals", "offer_rules", "questions"} {
		if err := r.store.Delete(ctx, keyPrefix+name); err != nil {
			return err
		}
	}
	return nil
}

// readThrough returns the cached list under name or loads and stores it. Cache failures are
// logged and never fail the read.
func readThrough[T any](ctx context.Context, r *Registry, name string, load func(context.Context) ([]T, error)) ([]T, error) {
	key := keyPrefix + name
	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger(ctx, "cache_read_failed", map[string]any{"key": key, "error": err.Error()})
	}
	if ok {
		var cached []T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		r.logger(ctx, "cache_decode_failed", map[string]any{"key": key})
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(items)
	if err == nil {
		err = r.store.Set(ctx, key, payload, r.ttl)
	}
	if err != nil {
		r.logger(ctx, "cache_write_failed", map[string]any{"key": key, "error": err.Error()})
	}
	return items, nil
}

// Close closes the wrapped registry. The store is owned by the caller.
func (r *Registry) Close(ctx context.Context) error { return r.inner.Close(ctx) }

func (r *Registry) LensProducts() repositories.LensProductRepository {
	return lensProducts{r: r}
}

func (r *Registry) Benefits() repositories.BenefitRepository {
	return listFunc[domain.Benefit]{r: r, name: "benefits", load: r.inner.Benefits().List}
}

func (r *Registry) AnswerBenefits() repositories.AnswerBenefitRepository {
	return listFunc[domain.AnswerBenefitMapping]{r: r, name: "answer_benefit_mappings", load: r.inner.AnswerBenefits().List}
}

func (r *Registry) ProfileSignals() repositories.ProfileSignalRepository {
	return listFunc[domain.ProfileSignal]{r: r, name: "profile_signals", load: r.inner.ProfileSignals().List}
}

func (r *Registry) OfferRules() repositories.OfferRuleRepository {
	return listFunc[domain.OfferRule]{r: r, name: "offer_rules", load: r.inner.OfferRules().List}
}

func (r *Registry) Questions() repositories.QuestionRepository {
	return listFunc[domain.Question]{r: r, name: "questions", load: r.inner.Questions().List}
}

func (r *Registry) Coupons() repositories.CouponRepository { return r.inner.Coupons() }

func (r *Registry) Health() repositories.HealthRepository { return r.inner.Health() }

type listFunc[T any] struct {
	r    *Registry
	name string
	load func(context.Context) ([]T, error)
}

func (l listFunc[T]) List(ctx context.Context) ([]T, error) {
	return readThrough(ctx, l.r, l.name, l.load)
}

type lensProducts struct {
	r *Registry
}

func (l lensProducts) List(ctx context.Context) ([]domain.LensProduct, error) {
	return readThrough(ctx, l.r, "lens_products", l.r.inner.LensProducts().List)
}

func (l lensProducts) Get(ctx context.Context, id string) (domain.LensProduct, error) {
	return l.r.inner.LensProducts().Get(ctx, id)
}

var _ repositories.Registry = (*Registry)(nil)
