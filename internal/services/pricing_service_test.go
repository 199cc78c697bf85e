package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/lens-advisor/api/internal/domain"
)

func newTestPricingService(t *testing.T, deps PricingServiceDeps) PricingService {
	t.Helper()
	if deps.Config.Currency == "" {
		deps.Config = testConfig()
	}
	if deps.IDGen == nil {
		deps.IDGen = func() string { return "qt_test" }
	}
	svc, err := NewPricingService(deps)
	require.NoError(t, err)
	return svc
}

func TestNewPricingService_RequiresRules(t *testing.T) {
	_, err := NewPricingService(PricingServiceDeps{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRepositoryMissing))
}

func TestPricingService_Quote(t *testing.T) {
	recorder := &eventRecorder{}
	publisher := &capturePublisher{}
	svc := newTestPricingService(t, PricingServiceDeps{
		Rules:     stubRules{rules: []OfferRule{rule("yopo", domain.YOPOConfig{}, 1)}},
		Coupons:   stubCoupons{"SAVE100": {Code: "SAVE100", FlatAmount: 100, IsActive: true}},
		Publisher: publisher,
		Now:       func() time.Time { return testNow },
		Logger:    recorder.log,
	})

	quote, err := svc.Quote(context.Background(), QuoteCommand{Cart: simpleCart(2000, 4500), CouponCode: "save100"})
	require.NoError(t, err)

	assert.Equal(t, "qt_test", quote.ID)
	assert.Equal(t, int64(4400), quote.FinalPayable)
	assert.Equal(t, testNow, quote.CalculatedAt)
	assert.Empty(t, recorder.names())

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, "qt_test", event.QuoteID)
	assert.Equal(t, "SAVE100", event.CouponCode)
	assert.Equal(t, []domain.OfferType{domain.OfferYOPO}, event.OfferTypes)
}

func TestPricingService_QuoteLogsClampAndCoupon(t *testing.T) {
	recorder := &eventRecorder{}
	publisher := &capturePublisher{err: errors.New("topic unavailable")}
	svc := newTestPricingService(t, PricingServiceDeps{
		Rules:     stubRules{rules: []OfferRule{rule("huge", domain.FixedDiscountConfig{FlatAmount: 99999}, 1)}},
		Coupons:   stubCoupons{},
		Publisher: publisher,
		Logger:    recorder.log,
	})

	quote, err := svc.Quote(context.Background(), QuoteCommand{Cart: simpleCart(1000, 1000), CouponCode: "ghost", At: testNow})
	require.NoError(t, err)
	assert.Zero(t, quote.FinalPayable)
	require.NotNil(t, quote.Coupon)
	assert.Equal(t, domain.CouponUnknown, quote.Coupon.Status)
	assert.Equal(t, []string{"pricing_discount_clamped", "pricing_coupon_not_applied", "pricing_quote_event_failed"}, recorder.names())
}

func TestPricingService_QuoteErrors(t *testing.T) {
	failing := newTestPricingService(t, PricingServiceDeps{Rules: stubRules{err: errors.New("firestore down")}})
	_, err := failing.Quote(context.Background(), QuoteCommand{Cart: simpleCart(1000, 1000)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list offer rules")

	svc := newTestPricingService(t, PricingServiceDeps{Rules: stubRules{}})
	_, err = svc.Quote(context.Background(), QuoteCommand{Cart: simpleCart(1000, -5)})
	assert.True(t, errors.Is(err, ErrPricingInvalidInput))
}

func TestPricingService_BestOfferAndUpsell(t *testing.T) {
	svc := newTestPricingService(t, PricingServiceDeps{
		Rules: stubRules{rules: []OfferRule{
			rule("yopo", domain.YOPOConfig{}, 1),
			rule("bogo", domain.BOGOConfig{}, 2),
		}},
	})

	best, err := svc.BestOffer(context.Background(), QuoteCommand{Cart: simpleCart(2000, 4500), At: testNow})
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "bogo", best.Rule.ID)

	upsell, err := svc.Upsell(context.Background(), UpsellCommand{
		Profile: RequirementProfile{VisionType: domain.VisionSingle, ScreenLoadLevel: 5},
		Cart:    simpleCart(2000, 4500),
		At:      testNow,
	})
	require.NoError(t, err)
	require.Len(t, upsell.SecondPairSuggestions, 1)
	assert.Equal(t, domain.SecondPairComputer, upsell.SecondPairSuggestions[0].Type)
}
