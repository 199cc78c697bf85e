package services

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/lens-advisor/api/internal/domain"
)

func price(t *testing.T, req PriceRequest) PriceQuote {
	t.Helper()
	if req.At.IsZero() {
		req.At = testNow
	}
	quote, err := CalculatePrice(testConfig(), req)
	require.NoError(t, err)
	require.Equal(t, quote.FinalPayable, sumComponents(quote), "components must sum to the final payable")
	require.GreaterOrEqual(t, quote.FinalPayable, int64(0))
	return quote
}

func TestCalculatePrice_YOPO(t *testing.T) {
	quote := price(t, PriceRequest{
		Cart:  simpleCart(2000, 4500),
		Rules: []OfferRule{rule("yopo", domain.YOPOConfig{}, 1)},
	})

	assert.Equal(t, int64(6500), quote.BaseTotal)
	assert.Equal(t, int64(4500), quote.FinalPayable)
	assert.Equal(t, int64(2000), quote.TotalSavings)
	require.Len(t, quote.AppliedOffers, 1)
	assert.Equal(t, int64(2000), quote.AppliedOffers[0].Savings)
}

func TestCalculatePrice_YOPORequiresEligibleLens(t *testing.T) {
	cart := simpleCart(2000, 4500)
	cart.Primary.Lens.YOPOEligible = false

	quote := price(t, PriceRequest{Cart: cart, Rules: []OfferRule{rule("yopo", domain.YOPOConfig{}, 1)}})
	assert.Equal(t, int64(6500), quote.FinalPayable)
	assert.Equal(t, domain.SkipLensNotYOPOEligible, skipReason(quote, "yopo"))
}

func TestCalculatePrice_FreeLensValueCap(t *testing.T) {
	freeLens := rule("free-lens", domain.FreeLensConfig{RuleType: domain.FreeLensValueCap, Percent: 40}, 1)

	quote := price(t, PriceRequest{Cart: simpleCart(3000, 999), Rules: []OfferRule{freeLens}})
	assert.Equal(t, int64(3000), quote.FinalPayable)

	quote = price(t, PriceRequest{Cart: simpleCart(3000, 2000), Rules: []OfferRule{freeLens}})
	assert.Equal(t, int64(3800), quote.FinalPayable)
	assert.Equal(t, int64(1200), quote.TotalSavings)
}

func TestCalculatePrice_FreeLensVariants(t *testing.T) {
	cart := simpleCart(3000, 2000)
	cart.Primary.Frame.MRP = 5000

	valueCap := price(t, PriceRequest{Cart: cart, Rules: []OfferRule{rule("vc", domain.FreeLensConfig{RuleType: domain.FreeLensValueCap, Percent: 20}, 1)}})
	assert.Equal(t, int64(4000), valueCap.FinalPayable, "value cap uses frame MRP")

	ofFrame := price(t, PriceRequest{Cart: cart, Rules: []OfferRule{rule("pf", domain.FreeLensConfig{RuleType: domain.FreeLensPercentOfFrame, Percent: 20}, 1)}})
	assert.Equal(t, int64(4400), ofFrame.FinalPayable, "percent of frame uses selling price")

	capped := price(t, PriceRequest{Cart: cart, Rules: []OfferRule{rule("full", domain.FreeLensConfig{RuleType: domain.FreeLensFull, MaxValue: 500}, 1)}})
	assert.Equal(t, int64(4500), capped.FinalPayable)

	wrongProduct := price(t, PriceRequest{Cart: cart, Rules: []OfferRule{rule("fp", domain.FreeLensConfig{FreeProductID: "lens-9"}, 1)}})
	assert.Equal(t, domain.SkipFreeProductMismatch, skipReason(wrongProduct, "fp"))

	rightProduct := price(t, PriceRequest{Cart: cart, Rules: []OfferRule{rule("fp", domain.FreeLensConfig{FreeProductID: "LENS-1"}, 1)}})
	assert.Equal(t, int64(3000), rightProduct.FinalPayable)
}

func TestCalculatePrice_SecondPairBOGO50(t *testing.T) {
	cart := simpleCart(1500, 1000)
	cart.SecondPair = &Pair{
		Frame: domain.FrameItem{Brand: "AURA", Price: 1200, MRP: 1200},
		Lens:  domain.LensItem{Price: 800, MRP: 800},
	}

	quote := price(t, PriceRequest{Cart: cart, Rules: []OfferRule{rule("b50", domain.BOGO50Config{}, 1)}})
	assert.Equal(t, int64(4500), quote.BaseTotal)
	assert.Equal(t, int64(3500), quote.FinalPayable)
}

func TestCalculatePrice_BOGO50Restrictions(t *testing.T) {
	secondOnly := rule("b50", domain.BOGO50Config{SecondPairOnly: true}, 1)
	quote := price(t, PriceRequest{Cart: simpleCart(3000, 2000), Rules: []OfferRule{secondOnly}})
	assert.Equal(t, domain.SkipSecondPairRequired, skipReason(quote, "b50"))

	branded := rule("b50", domain.BOGO50Config{FrameBrands: []string{"other"}}, 1)
	quote = price(t, PriceRequest{Cart: simpleCart(3000, 2000), Rules: []OfferRule{branded}})
	assert.Equal(t, domain.SkipFrameBrandNotListed, skipReason(quote, "b50"))

	singlePair := rule("b50", domain.BOGO50Config{FrameBrands: []string{"aura"}}, 1)
	quote = price(t, PriceRequest{Cart: simpleCart(3000, 2000), Rules: []OfferRule{singlePair}})
	assert.Equal(t, int64(4000), quote.FinalPayable)
}

func TestCalculatePrice_BOGOAndCombo(t *testing.T) {
	bogo := price(t, PriceRequest{Cart: simpleCart(3000, 2000), Rules: []OfferRule{rule("bogo", domain.BOGOConfig{}, 1)}})
	assert.Equal(t, int64(3000), bogo.FinalPayable)

	combo := price(t, PriceRequest{Cart: simpleCart(3000, 2000), Rules: []OfferRule{rule("combo", domain.ComboPriceConfig{ComboPrice: 3999}, 1)}})
	assert.Equal(t, int64(3999), combo.FinalPayable)

	pricier := price(t, PriceRequest{Cart: simpleCart(1000, 1000), Rules: []OfferRule{rule("combo", domain.ComboPriceConfig{ComboPrice: 3999}, 1)}})
	assert.Equal(t, int64(2000), pricier.FinalPayable)
	assert.Equal(t, domain.SkipNoSavings, skipReason(pricier, "combo"))
}

func TestCalculatePrice_ComboReplacesDiscountedPrimary(t *testing.T) {
	rules := []OfferRule{
		rule("fixed", domain.FixedDiscountConfig{Percent: 10}, 1),
		rule("combo", domain.ComboPriceConfig{ComboPrice: 5000}, 2),
	}

	quote := price(t, PriceRequest{Cart: simpleCart(2000, 4500), Rules: rules})
	require.Len(t, quote.AppliedOffers, 2)
	assert.Equal(t, int64(650), quote.AppliedOffers[0].Savings)
	assert.Equal(t, int64(850), quote.AppliedOffers[1].Savings)
	assert.Equal(t, int64(5000), quote.FinalPayable)

	cart := simpleCart(2000, 4500)
	cart.SecondPair = &Pair{
		Frame: domain.FrameItem{Price: 1000, MRP: 1000},
		Lens:  domain.LensItem{Price: 1000, MRP: 1000},
	}
	withSecond := price(t, PriceRequest{Cart: cart, Rules: rules})
	assert.Equal(t, int64(7000), withSecond.FinalPayable, "combo price plus the untouched second pair")
}

func TestCalculatePrice_PrimaryOffersAreExclusive(t *testing.T) {
	quote := price(t, PriceRequest{
		Cart: simpleCart(2000, 4500),
		Rules: []OfferRule{
			rule("bogo", domain.BOGOConfig{}, 2),
			rule("yopo", domain.YOPOConfig{}, 1),
		},
	})

	require.Len(t, quote.AppliedOffers, 1)
	assert.Equal(t, "yopo", quote.AppliedOffers[0].RuleID)
	assert.Equal(t, domain.SkipPrimaryApplied, skipReason(quote, "bogo"))
}

func TestCalculatePrice_StackingAndShortCircuit(t *testing.T) {
	stacked := price(t, PriceRequest{
		Cart: simpleCart(2000, 4500),
		Rules: []OfferRule{
			rule("yopo", domain.YOPOConfig{}, 1),
			rule("ten", domain.FixedDiscountConfig{Percent: 10}, 2),
		},
	})
	assert.Equal(t, int64(4050), stacked.FinalPayable)

	exclusive := rule("ten", domain.FixedDiscountConfig{Percent: 10}, 1)
	exclusive.Stacking.CanStack = false
	stopped := price(t, PriceRequest{
		Cart:  simpleCart(2000, 4500),
		Rules: []OfferRule{exclusive, rule("yopo", domain.YOPOConfig{}, 2), rule("flat", domain.FixedDiscountConfig{FlatAmount: 100}, 3)},
	})
	assert.Equal(t, int64(5850), stopped.FinalPayable)
	assert.Equal(t, domain.SkipEvaluationStopped, skipReason(stopped, "yopo"))
	assert.Equal(t, domain.SkipEvaluationStopped, skipReason(stopped, "flat"))

	blocked := rule("ten", domain.FixedDiscountConfig{Percent: 10}, 2)
	blocked.Stacking.BlockedWith = []domain.OfferType{domain.OfferYOPO}
	blockedQuote := price(t, PriceRequest{
		Cart:  simpleCart(2000, 4500),
		Rules: []OfferRule{rule("yopo", domain.YOPOConfig{}, 1), blocked},
	})
	assert.Equal(t, int64(4500), blockedQuote.FinalPayable)
	assert.Equal(t, domain.SkipBlocked, skipReason(blockedQuote, "ten"))
}

func TestCalculatePrice_PriorityTiesKeepInputOrder(t *testing.T) {
	quote := price(t, PriceRequest{
		Cart: simpleCart(2000, 4500),
		Rules: []OfferRule{
			rule("bogo", domain.BOGOConfig{}, 5),
			rule("yopo", domain.YOPOConfig{}, 5),
		},
	})
	require.Len(t, quote.AppliedOffers, 1)
	assert.Equal(t, "bogo", quote.AppliedOffers[0].RuleID)
}

func TestCalculatePrice_SkipsInactiveWindowAndTargets(t *testing.T) {
	inactive := rule("inactive", domain.YOPOConfig{}, 1)
	inactive.IsActive = false

	expired := rule("expired", domain.YOPOConfig{}, 2)
	until := testNow.Add(-time.Hour)
	expired.ValidUntil = &until

	targeted := rule("targeted", domain.YOPOConfig{}, 3)
	targeted.TargetFilters.FrameBrands = []string{"OTHER"}

	minimum := rule("minimum", domain.YOPOConfig{}, 4)
	minimum.TargetFilters.MinCartValue = 100000

	quote := price(t, PriceRequest{Cart: simpleCart(2000, 4500), Rules: []OfferRule{inactive, expired, targeted, minimum}})
	assert.Empty(t, quote.AppliedOffers)
	assert.Equal(t, int64(6500), quote.FinalPayable)
	assert.Equal(t, domain.SkipInactive, skipReason(quote, "inactive"))
	assert.Equal(t, domain.SkipOutsideWindow, skipReason(quote, "expired"))
	assert.Equal(t, domain.SkipTargetMismatch, skipReason(quote, "targeted"))
	assert.Equal(t, domain.SkipBelowMinCartValue, skipReason(quote, "minimum"))
}

func TestCalculatePrice_CategoryDiscount(t *testing.T) {
	student := rule("student", domain.CategoryDiscountConfig{Categories: []domain.CustomerCategory{domain.CategoryStudent}, Percent: 10, MaxDiscount: 400}, 1)
	cart := simpleCart(3000, 2000)

	unverified := price(t, PriceRequest{Cart: cart, Rules: []OfferRule{student}, CustomerCategory: &CustomerCategoryClaim{Category: domain.CategoryStudent}})
	assert.Equal(t, domain.SkipCategoryUnverified, skipReason(unverified, "student"))

	wrong := price(t, PriceRequest{Cart: cart, Rules: []OfferRule{student}, CustomerCategory: &CustomerCategoryClaim{Category: domain.CategoryDoctor, Verified: true}})
	assert.Equal(t, domain.SkipCategoryNotEligible, skipReason(wrong, "student"))

	verified := price(t, PriceRequest{Cart: cart, Rules: []OfferRule{student}, CustomerCategory: &CustomerCategoryClaim{Category: domain.CategoryStudent, Verified: true}})
	assert.Equal(t, int64(4600), verified.FinalPayable)
}

func TestCalculatePrice_ConditionalMix(t *testing.T) {
	mix := rule("mix", domain.ConditionalMixConfig{
		MinFramePrice:   2500,
		LensVisionTypes: []domain.VisionType{domain.VisionSingle},
		LensPercent:     50,
		FramePercent:    10,
	}, 1)

	met := price(t, PriceRequest{Cart: simpleCart(3000, 2000), Rules: []OfferRule{mix}})
	assert.Equal(t, int64(3700), met.FinalPayable)

	notMet := price(t, PriceRequest{Cart: simpleCart(2000, 2000), Rules: []OfferRule{mix}})
	assert.Equal(t, domain.SkipConditionsNotMet, skipReason(notMet, "mix"))
}

func TestCalculatePrice_BonusProductLeavesPayable(t *testing.T) {
	bonus := rule("bonus", domain.BonusFreeProductConfig{BonusCategory: "SUNGLASSES", BonusLimit: 1500}, 1)
	quote := price(t, PriceRequest{Cart: simpleCart(3000, 2000), Rules: []OfferRule{bonus}})

	assert.Equal(t, int64(5000), quote.FinalPayable)
	require.Len(t, quote.BonusProducts, 1)
	assert.Equal(t, "SUNGLASSES", quote.BonusProducts[0].Category)
	require.Len(t, quote.AppliedOffers, 1)
	assert.Zero(t, quote.AppliedOffers[0].Savings)
}

func TestCalculatePrice_Coupons(t *testing.T) {
	expiredAt := testNow.Add(-24 * time.Hour)
	coupons := []Coupon{
		{Code: "SAVE10", Percent: 10, MaxDiscount: 300, IsActive: true},
		{Code: "OLD", FlatAmount: 500, IsActive: true, ValidUntil: &expiredAt},
		{Code: "BIGCART", FlatAmount: 500, IsActive: true, MinCartValue: 100000},
	}
	cart := simpleCart(3000, 2000)

	applied := price(t, PriceRequest{Cart: cart, CouponCode: " save10 ", Coupons: coupons})
	require.NotNil(t, applied.Coupon)
	assert.Equal(t, domain.CouponApplied, applied.Coupon.Status)
	assert.Equal(t, int64(300), applied.Coupon.Discount)
	assert.Equal(t, int64(4700), applied.FinalPayable)

	unknown := price(t, PriceRequest{Cart: cart, CouponCode: "NOPE", Coupons: coupons})
	assert.Equal(t, domain.CouponUnknown, unknown.Coupon.Status)
	assert.Equal(t, int64(5000), unknown.FinalPayable)

	expired := price(t, PriceRequest{Cart: cart, CouponCode: "old", Coupons: coupons})
	assert.Equal(t, domain.CouponExpired, expired.Coupon.Status)

	below := price(t, PriceRequest{Cart: cart, CouponCode: "BIGCART", Coupons: coupons})
	assert.Equal(t, domain.CouponBelowMinimum, below.Coupon.Status)

	none := price(t, PriceRequest{Cart: cart})
	assert.Nil(t, none.Coupon)
}

func TestCalculatePrice_RxAddOnIsSurcharge(t *testing.T) {
	cart := simpleCart(2000, 4500)
	cart.Primary.Lens.RxAddOn = 500

	quote := price(t, PriceRequest{Cart: cart, Rules: []OfferRule{rule("yopo", domain.YOPOConfig{}, 1)}})
	assert.Equal(t, int64(500), quote.Surcharges)
	assert.Equal(t, int64(5000), quote.FinalPayable)
	assert.Equal(t, int64(2000), quote.TotalSavings)
	assert.LessOrEqual(t, quote.FinalPayable, quote.BaseTotal+quote.Surcharges)
}

func TestCalculatePrice_ClampsWithAdjustment(t *testing.T) {
	quote := price(t, PriceRequest{
		Cart:  simpleCart(1000, 1000),
		Rules: []OfferRule{rule("huge", domain.FixedDiscountConfig{FlatAmount: 10000}, 1)},
	})

	assert.Zero(t, quote.FinalPayable)
	assert.Equal(t, int64(2000), quote.TotalSavings)
	last := quote.PriceComponents[len(quote.PriceComponents)-1]
	assert.Equal(t, domain.ComponentAdjustment, last.Kind)
	assert.Equal(t, int64(8000), last.Amount)
	assert.Equal(t, int64(2000), quote.AppliedOffers[0].Savings)
}

func TestCalculatePrice_RejectsNegativePrices(t *testing.T) {
	_, err := CalculatePrice(testConfig(), PriceRequest{Cart: simpleCart(-1, 1000), At: testNow})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPricingInvalidInput))
}

func TestCalculatePrice_IsDeterministic(t *testing.T) {
	cart := simpleCart(2500, 4000)
	cart.SecondPair = &Pair{Frame: domain.FrameItem{Price: 1500}, Lens: domain.LensItem{Price: 1000}}
	req := PriceRequest{
		Cart: cart,
		Rules: []OfferRule{
			rule("yopo", domain.YOPOConfig{}, 1),
			rule("b50", domain.BOGO50Config{}, 1),
			rule("ten", domain.FixedDiscountConfig{Percent: 10}, 3),
			rule("bonus", domain.BonusFreeProductConfig{BonusCategory: "CASE", BonusLimit: 1}, 2),
		},
		CouponCode: "X",
		At:         testNow,
	}

	first, err := CalculatePrice(testConfig(), req)
	require.NoError(t, err)
	second, err := CalculatePrice(testConfig(), req)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestCalculatePrice_ClampInvariantHoldsForRandomInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	configs := func() domain.OfferConfig {
		switch rng.Intn(8) {
		case 0:
			return domain.YOPOConfig{}
		case 1:
			return domain.BOGOConfig{}
		case 2:
			return domain.BOGO50Config{}
		case 3:
			return domain.ComboPriceConfig{ComboPrice: rng.Int63n(20000) - 5000}
		case 4:
			return domain.FreeLensConfig{RuleType: domain.FreeLensValueCap, Percent: rng.Float64() * 120}
		case 5:
			return domain.FixedDiscountConfig{Percent: rng.Float64() * 100, FlatAmount: rng.Int63n(20000)}
		case 6:
			return domain.ConditionalMixConfig{LensPercent: rng.Float64() * 100, FramePercent: rng.Float64() * 100}
		default:
			return domain.CategoryDiscountConfig{Percent: 50, FlatAmount: rng.Int63n(5000)}
		}
	}

	for i := 0; i < 500; i++ {
		cart := simpleCart(rng.Int63n(10000), rng.Int63n(10000))
		cart.Primary.Lens.RxAddOn = rng.Int63n(1000)
		if rng.Intn(2) == 0 {
			cart.SecondPair = &Pair{Frame: domain.FrameItem{Price: rng.Int63n(8000)}, Lens: domain.LensItem{Price: rng.Int63n(8000)}}
		}
		rules := make([]OfferRule, 0, 4)
		for j := 0; j < 1+rng.Intn(4); j++ {
			r := rule("r", configs(), rng.Intn(10))
			r.Stacking.CanStack = rng.Intn(4) != 0
			rules = append(rules, r)
		}
		quote, err := CalculatePrice(testConfig(), PriceRequest{
			Cart:             cart,
			Rules:            rules,
			CustomerCategory: &CustomerCategoryClaim{Category: domain.CategoryStudent, Verified: true},
			CouponCode:       "ANY",
			Coupons:          []Coupon{{Code: "ANY", FlatAmount: rng.Int63n(5000), IsActive: true}},
			At:               testNow,
		})
		require.NoError(t, err)
		require.GreaterOrEqual(t, quote.FinalPayable, int64(0))
		require.LessOrEqual(t, quote.FinalPayable, quote.BaseTotal+quote.Surcharges)
		require.Equal(t, quote.FinalPayable, sumComponents(quote))
	}
}

func TestSelectBestOffer_PriorityTerm(t *testing.T) {
	rules := []OfferRule{
		rule("yopo", domain.YOPOConfig{}, 1),
		rule("flat", domain.FixedDiscountConfig{FlatAmount: 950}, 40),
		rule("inactive", domain.BOGOConfig{}, 99),
	}
	rules[2].IsActive = false
	req := PriceRequest{Cart: simpleCart(1000, 4500), Rules: rules, At: testNow}

	legacy, err := SelectBestOffer(testConfig(), req)
	require.NoError(t, err)
	require.NotNil(t, legacy)
	assert.Equal(t, "flat", legacy.Rule.ID)
	assert.InDelta(t, 0.6*950+40, legacy.Score, 1e-9)

	cfg := testConfig()
	cfg.BestOffer.WeightPriority = true
	weighted, err := SelectBestOffer(cfg, req)
	require.NoError(t, err)
	require.NotNil(t, weighted)
	assert.Equal(t, "yopo", weighted.Rule.ID)
	assert.Equal(t, int64(1000), weighted.Savings)
}

func TestSelectBestOffer_NoEligibleRule(t *testing.T) {
	best, err := SelectBestOffer(testConfig(), PriceRequest{Cart: simpleCart(1000, 1000), At: testNow})
	require.NoError(t, err)
	assert.Nil(t, best)
}
