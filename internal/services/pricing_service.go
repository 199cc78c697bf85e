package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/lens-advisor/api/internal/domain"
	"github.com/lens-advisor/api/internal/repositories"
)

const instrumentationName = "github.com/lens-advisor/api/internal/services"

// QuoteEventPublisher delivers quote events to downstream consumers.
type QuoteEventPublisher interface {
	PublishQuoteCalculated(ctx context.Context, event domain.QuoteCalculatedEvent) error
}

// PricingServiceDeps bundles the collaborators of the pricing service.
type PricingServiceDeps struct {
	Rules     repositories.OfferRuleRepository
	Coupons   repositories.CouponRepository
	Config    EngineConfig
	Publisher QuoteEventPublisher
	IDGen     func() string
	Now       func() time.Time
	Logger    func(context.Context, string, map[string]any)
	Tracer    trace.Tracer
	Meter     metric.Meter
}

type pricingService struct {
	rules     repositories.OfferRuleRepository
	coupons   repositories.CouponRepository
	cfg       EngineConfig
	publisher QuoteEventPublisher
	idGen     func() string
	now       func() time.Time
	logger    func(context.Context, string, map[string]any)
	tracer    trace.Tracer

	quotes  metric.Int64Counter
	savings metric.Int64Histogram
}

// NewPricingService wires the offer engine to the stored rule set and coupons.
func NewPricingService(deps PricingServiceDeps) (PricingService, error) {
	if deps.Rules == nil {
		return nil, fmt.Errorf("%w: offer rules", ErrRepositoryMissing)
	}
	svc := &pricingService{
		rules:     deps.Rules,
		coupons:   deps.Coupons,
		cfg:       deps.Config,
		publisher: deps.Publisher,
		idGen:     deps.IDGen,
		now:       deps.Now,
		logger:    deps.Logger,
		tracer:    deps.Tracer,
	}
	if svc.idGen == nil {
		svc.idGen = func() string { return "qt_" + ulid.Make().String() }
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.logger == nil {
		svc.logger = func(context.Context, string, map[string]any) {}
	}
	if svc.tracer == nil {
		svc.tracer = otel.Tracer(instrumentationName)
	}
	meter := deps.Meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(instrumentationName)
	}

	var err error
	if svc.quotes, err = meter.Int64Counter(
		"pricing.quotes",
		metric.WithDescription("Count of priced quotes"),
	); err != nil {
		return nil, fmt.Errorf("pricing service: register quote counter: %w", err)
	}
	if svc.savings, err = meter.Int64Histogram(
		"pricing.savings",
		metric.WithUnit("{minor_unit}"),
		metric.WithDescription("Total savings per quote in minor currency units"),
	); err != nil {
		return nil, fmt.Errorf("pricing service: register savings histogram: %w", err)
	}
	return svc, nil
}

func (s *pricingService) Quote(ctx context.Context, cmd QuoteCommand) (PriceQuote, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.Quote")
	defer span.End()

	req, err := s.buildRequest(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load pricing inputs")
		return PriceQuote{}, err
	}

	quote, err := CalculatePrice(s.cfg, req)
	if err != nil {
		span.SetStatus(codes.Error, "invalid cart")
		return PriceQuote{}, err
	}
	quote.ID = s.idGen()

	for _, component := range quote.PriceComponents {
		if component.Kind == domain.ComponentAdjustment {
			s.logger(ctx, "pricing_discount_clamped", map[string]any{
				"quoteId":    quote.ID,
				"baseTotal":  quote.BaseTotal,
				"adjustment": component.Amount,
			})
		}
	}
	if quote.Coupon != nil && quote.Coupon.Status != domain.CouponApplied {
		s.logger(ctx, "pricing_coupon_not_applied", map[string]any{
			"quoteId": quote.ID,
			"code":    quote.Coupon.Code,
			"status":  string(quote.Coupon.Status),
		})
	}

	attrs := metric.WithAttributes(
		attribute.String("currency", quote.Currency),
		attribute.Int("offers.applied", len(quote.AppliedOffers)),
	)
	s.quotes.Add(ctx, 1, attrs)
	s.savings.Record(ctx, quote.TotalSavings, attrs)
	span.SetAttributes(
		attribute.String("quote.id", quote.ID),
		attribute.Int64("quote.final_payable", quote.FinalPayable),
		attribute.Int("quote.rules_considered", len(req.Rules)),
	)

	s.publish(ctx, quote)
	return quote, nil
}

func (s *pricingService) BestOffer(ctx context.Context, cmd QuoteCommand) (*BestOffer, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.BestOffer")
	defer span.End()

	req, err := s.buildRequest(ctx, QuoteCommand{Cart: cmd.Cart, CustomerCategory: cmd.CustomerCategory, At: cmd.At})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return SelectBestOffer(s.cfg, req)
}

func (s *pricingService) Upsell(ctx context.Context, cmd UpsellCommand) (UpsellResult, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.Upsell")
	defer span.End()

	req, err := s.buildRequest(ctx, QuoteCommand{Cart: cmd.Cart, At: cmd.At})
	if err != nil {
		span.RecordError(err)
		return UpsellResult{}, err
	}
	quote, err := CalculatePrice(s.cfg, req)
	if err != nil {
		return UpsellResult{}, err
	}
	result := SuggestUpsell(s.cfg, cmd.Profile, quote, cmd.Cart, req.Rules, req.At)
	span.SetAttributes(attribute.Int("upsell.suggestions", len(result.SecondPairSuggestions)))
	return result, nil
}

func (s *pricingService) buildRequest(ctx context.Context, cmd QuoteCommand) (PriceRequest, error) {
	at := cmd.At
	if at.IsZero() {
		at = s.now()
	}
	rules, err := s.rules.List(ctx)
	if err != nil {
		return PriceRequest{}, fmt.Errorf("pricing service: list offer rules: %w", err)
	}

	req := PriceRequest{
		Cart:             cmd.Cart,
		Rules:            rules,
		CustomerCategory: cmd.CustomerCategory,
		CouponCode:       cmd.CouponCode,
		At:               at.UTC(),
	}
	code := domain.NormalizeCode(cmd.CouponCode)
	if code == "" || s.coupons == nil {
		return req, nil
	}
	coupon, err := s.coupons.FindByCode(ctx, code)
	switch {
	case err == nil:
		req.Coupons = []Coupon{coupon}
	case repositories.IsNotFound(err):
	default:
		return PriceRequest{}, fmt.Errorf("pricing service: find coupon: %w", err)
	}
	return req, nil
}

func (s *pricingService) publish(ctx context.Context, quote PriceQuote) {
	if s.publisher == nil {
		return
	}
	offerTypes := make([]domain.OfferType, 0, len(quote.AppliedOffers))
	for _, applied := range quote.AppliedOffers {
		offerTypes = append(offerTypes, applied.OfferType)
	}
	event := domain.QuoteCalculatedEvent{
		QuoteID:      quote.ID,
		Currency:     quote.Currency,
		BaseTotal:    quote.BaseTotal,
		TotalSavings: quote.TotalSavings,
		FinalPayable: quote.FinalPayable,
		OfferTypes:   offerTypes,
		CalculatedAt: quote.CalculatedAt,
	}
	if quote.Coupon != nil && quote.Coupon.Status == domain.CouponApplied {
		event.CouponCode = quote.Coupon.Code
	}
	if err := s.publisher.PublishQuoteCalculated(ctx, event); err != nil {
		fields := map[string]any{"quoteId": quote.ID, "error": err.Error()}
		if errors.Is(err, context.Canceled) {
			fields["cancelled"] = true
		}
		s.logger(ctx, "pricing_quote_event_failed", fields)
	}
}
