package services

import (
	"context"
	"sync"

	domain "github.com/lens-advisor/api/internal/domain"
)

type notFoundError struct{ what string }

func (e notFoundError) Error() string       { return e.what + " not found" }
func (e notFoundError) IsNotFound() bool    { return true }
func (e notFoundError) IsConflict() bool    { return false }
func (e notFoundError) IsUnavailable() bool { return false }

type stubRules struct {
	rules []OfferRule
	err   error
}

func (s stubRules) List(context.Context) ([]domain.OfferRule, error) { return s.rules, s.err }

type stubCoupons map[string]Coupon

func (s stubCoupons) FindByCode(_ context.Context, code string) (domain.Coupon, error) {
	coupon, ok := s[code]
	if !ok {
		return domain.Coupon{}, notFoundError{what: "coupon"}
	}
	return coupon, nil
}

type stubProducts []LensProduct

func (s stubProducts) List(context.Context) ([]domain.LensProduct, error) { return s, nil }

func (s stubProducts) Get(_ context.Context, id string) (domain.LensProduct, error) {
	for _, p := range s {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.LensProduct{}, notFoundError{what: "product"}
}

type stubBenefits []Benefit

func (s stubBenefits) List(context.Context) ([]domain.Benefit, error) { return s, nil }

type stubMappings []AnswerBenefitMapping

func (s stubMappings) List(context.Context) ([]domain.AnswerBenefitMapping, error) { return s, nil }

type stubSignals []ProfileSignal

func (s stubSignals) List(context.Context) ([]domain.ProfileSignal, error) { return s, nil }

type recordedEvent struct {
	name   string
	fields map[string]any
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) log(_ context.Context, name string, fields map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: name, fields: fields})
}

func (r *eventRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.events))
	for _, e := range r.events {
		names = append(names, e.name)
	}
	return names
}

type capturePublisher struct {
	events []domain.QuoteCalculatedEvent
	err    error
}

func (p *capturePublisher) PublishQuoteCalculated(_ context.Context, event domain.QuoteCalculatedEvent) error {
	p.events = append(p.events, event)
	return p.err
}
