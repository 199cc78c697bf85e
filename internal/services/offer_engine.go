package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	domain "github.com/lens-advisor/api/internal/domain"
)

// PriceRequest is the complete input of a pricing call. Coupons is the candidate coupon set the
// code is resolved against.
type PriceRequest struct {
	Cart             Cart
	Rules            []OfferRule
	CustomerCategory *CustomerCategoryClaim
	CouponCode       string
	Coupons          []Coupon
	At               time.Time
}

// BestOffer is the single rule that scores highest when evaluated alone.
type BestOffer struct {
	Rule    OfferRule
	Savings int64
	Score   float64
	Quote   PriceQuote
}

// CalculatePrice evaluates the rules in priority order against the cart and returns a quote
// whose components sum to the final payable. Only malformed carts are rejected; rules and
// coupons that do not apply are reported on the quote.
func CalculatePrice(cfg EngineConfig, req PriceRequest) (PriceQuote, error) {
	if err := validateCart(req.Cart); err != nil {
		return PriceQuote{}, err
	}

	state := newPricingState(cfg, req)
	rules := sortRulesByPriority(req.Rules)

	for i, rule := range rules {
		if state.stopped {
			for _, rest := range rules[i:] {
				state.skip(rest, domain.SkipEvaluationStopped)
			}
			break
		}
		state.evaluate(rule)
	}

	state.applyCoupon(req.CouponCode, req.Coupons)
	return state.finish(), nil
}

// SelectBestOffer evaluates every rule on its own and returns the one with the highest score.
// The score is SavingsWeight x savings plus a priority term; see BestOfferConfig.
func SelectBestOffer(cfg EngineConfig, req PriceRequest) (*BestOffer, error) {
	if err := validateCart(req.Cart); err != nil {
		return nil, err
	}

	var best *BestOffer
	for _, rule := range sortRulesByPriority(req.Rules) {
		single := req
		single.Rules = []OfferRule{rule}
		single.CouponCode = ""
		quote, err := CalculatePrice(cfg, single)
		if err != nil {
			return nil, err
		}
		if len(quote.AppliedOffers) != 1 {
			continue
		}
		savings := quote.AppliedOffers[0].Savings
		score := bestOfferScore(cfg, savings, rule.Priority)
		if best == nil || score > best.Score {
			best = &BestOffer{Rule: rule, Savings: savings, Score: score, Quote: quote}
		}
	}
	return best, nil
}

func bestOfferScore(cfg EngineConfig, savings int64, priority int) float64 {
	priorityTerm := float64(priority)
	if cfg.BestOffer.WeightPriority {
		priorityTerm *= cfg.BestOffer.PriorityWeight
	}
	return cfg.BestOffer.SavingsWeight*float64(savings) + priorityTerm
}

func validateCart(cart Cart) error {
	for i, pair := range cart.Pairs() {
		label := "primary"
		if i > 0 {
			label = "second pair"
		}
		if pair.Frame.Price < 0 || pair.Frame.MRP < 0 {
			return fmt.Errorf("%w: %s frame price must be non-negative", ErrPricingInvalidInput, label)
		}
		if pair.Lens.Price < 0 || pair.Lens.MRP < 0 || pair.Lens.RxAddOn < 0 {
			return fmt.Errorf("%w: %s lens price must be non-negative", ErrPricingInvalidInput, label)
		}
	}
	return nil
}

func sortRulesByPriority(rules []OfferRule) []OfferRule {
	sorted := append([]OfferRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}

type pricingState struct {
	cfg  EngineConfig
	req  PriceRequest
	cart Cart

	baseTotal  int64
	running    int64
	adjustment int64

	components []domain.PriceComponent
	applied    []domain.AppliedOffer
	skipped    []domain.SkippedOffer
	bonuses    []domain.BonusProduct
	coupon     *domain.CouponResult

	appliedTypes   map[domain.OfferType]struct{}
	primaryApplied bool
	stopped        bool
}

func newPricingState(cfg EngineConfig, req PriceRequest) *pricingState {
	cart := req.Cart
	s := &pricingState{
		cfg:          cfg,
		req:          req,
		cart:         cart,
		baseTotal:    cart.BaseTotal(),
		components:   make([]domain.PriceComponent, 0, 8),
		applied:      make([]domain.AppliedOffer, 0),
		skipped:      make([]domain.SkippedOffer, 0),
		bonuses:      make([]domain.BonusProduct, 0),
		appliedTypes: make(map[domain.OfferType]struct{}),
	}
	s.running = s.baseTotal

	s.components = append(s.components,
		domain.PriceComponent{Label: "Frame", Kind: domain.ComponentBase, Amount: cart.Primary.Frame.Price},
		domain.PriceComponent{Label: "Lens", Kind: domain.ComponentBase, Amount: cart.Primary.Lens.Price},
	)
	if cart.SecondPair != nil {
		s.components = append(s.components,
			domain.PriceComponent{Label: "Second pair frame", Kind: domain.ComponentBase, Amount: cart.SecondPair.Frame.Price},
			domain.PriceComponent{Label: "Second pair lens", Kind: domain.ComponentBase, Amount: cart.SecondPair.Lens.Price},
		)
	}
	return s
}

func (s *pricingState) skip(rule OfferRule, reason domain.SkipReason) {
	s.skipped = append(s.skipped, domain.SkippedOffer{RuleID: rule.ID, OfferType: rule.OfferType, Reason: reason})
}

// ruleApplies checks the conditions every rule shares: a resolvable type, an active window and
// the target filters against the primary pair.
func ruleApplies(rule OfferRule, cart Cart, at time.Time) domain.SkipReason {
	switch {
	case !rule.OfferType.Valid():
		return domain.SkipUnknownOfferType
	case rule.Config == nil || rule.Config.OfferType() != rule.OfferType:
		return domain.SkipConfigMismatch
	case !rule.IsActive:
		return domain.SkipInactive
	case !rule.ActiveAt(at):
		return domain.SkipOutsideWindow
	case !targetsMatch(rule.TargetFilters, cart.Primary):
		return domain.SkipTargetMismatch
	case rule.TargetFilters.MinCartValue > 0 && cart.BaseTotal() < rule.TargetFilters.MinCartValue:
		return domain.SkipBelowMinCartValue
	}
	return ""
}

// offerConditions checks the conditions carried by the offer config itself.
func offerConditions(rule OfferRule, cart Cart) domain.SkipReason {
	switch cfg := rule.Config.(type) {
	case domain.YOPOConfig:
		if !cart.Primary.Lens.YOPOEligible {
			return domain.SkipLensNotYOPOEligible
		}
	case domain.BOGO50Config:
		if len(cfg.FrameBrands) > 0 && !containsFold(cfg.FrameBrands, cart.Primary.Frame.Brand) {
			return domain.SkipFrameBrandNotListed
		}
		if cfg.SecondPairOnly && cart.SecondPair == nil {
			return domain.SkipSecondPairRequired
		}
	}
	return ""
}

func (s *pricingState) evaluate(rule OfferRule) {
	if reason := ruleApplies(rule, s.cart, s.req.At); reason != "" {
		s.skip(rule, reason)
		return
	}
	for appliedType := range s.appliedTypes {
		if rule.Stacking.Blocks(appliedType) {
			s.skip(rule, domain.SkipBlocked)
			return
		}
	}
	primary := rule.OfferType.IsPrimary()
	if primary && s.primaryApplied {
		s.skip(rule, domain.SkipPrimaryApplied)
		return
	}

	if bonusCfg, ok := rule.Config.(domain.BonusFreeProductConfig); ok {
		s.bonuses = append(s.bonuses, domain.BonusProduct{
			RuleID:      rule.ID,
			Category:    bonusCfg.BonusCategory,
			Limit:       bonusCfg.BonusLimit,
			Value:       bonusCfg.FreeProductValue,
			Description: bonusCfg.Description,
		})
		s.recordApplied(rule, 0)
		return
	}

	discount, reason := s.discountFor(rule)
	if reason != "" {
		s.skip(rule, reason)
		return
	}
	if discount <= 0 {
		s.skip(rule, domain.SkipNoSavings)
		return
	}

	s.components = append(s.components, domain.PriceComponent{
		Label:  ruleLabel(rule),
		Kind:   domain.ComponentDiscount,
		Amount: -discount,
		RuleID: rule.ID,
	})
	effective := discount
	s.running -= discount
	if s.running < 0 {
		effective += s.running
		s.adjustment += -s.running
		s.running = 0
	}
	s.recordApplied(rule, effective)
}

func (s *pricingState) recordApplied(rule OfferRule, savings int64) {
	s.applied = append(s.applied, domain.AppliedOffer{
		RuleID:      rule.ID,
		Name:        rule.Name,
		OfferType:   rule.OfferType,
		Priority:    rule.Priority,
		Savings:     savings,
		Description: rule.Description,
	})
	s.appliedTypes[rule.OfferType] = struct{}{}
	if rule.OfferType.IsPrimary() {
		s.primaryApplied = true
	}
	if !rule.Stacking.CanStack {
		s.stopped = true
	}
}

// discountFor returns the amount the rule takes off, or a skip reason when the rule's own
// conditions are not met.
func (s *pricingState) discountFor(rule OfferRule) (int64, domain.SkipReason) {
	frame := s.cart.Primary.Frame
	lens := s.cart.Primary.Lens
	if reason := offerConditions(rule, s.cart); reason != "" {
		return 0, reason
	}

	switch cfg := rule.Config.(type) {
	case domain.YOPOConfig, domain.BOGOConfig:
		return minInt64(frame.Price, lens.Price), ""

	case domain.BOGO50Config:
		if s.cart.SecondPair != nil {
			first, second := s.cart.Primary.Total(), s.cart.SecondPair.Total()
			return percentOf(minInt64(first, second), 50), ""
		}
		return percentOf(minInt64(frame.Price, lens.Price), 50), ""

	case domain.ComboPriceConfig:
		// The combo price replaces the primary pair outright, absorbing cart-wide discounts
		// taken before it. Primary offers are exclusive, so the second pair is still whole.
		var second int64
		if s.cart.SecondPair != nil {
			second = s.cart.SecondPair.Total()
		}
		return s.running - second - cfg.ComboPrice, ""

	case domain.FreeLensConfig:
		return freeLensDiscount(cfg, frame, lens)

	case domain.FixedDiscountConfig:
		return cappedDiscount(s.running, cfg.Percent, cfg.FlatAmount, cfg.MaxDiscount), ""

	case domain.CategoryDiscountConfig:
		claim := s.req.CustomerCategory
		if claim == nil || !claim.Verified {
			return 0, domain.SkipCategoryUnverified
		}
		if len(cfg.Categories) > 0 && !containsCategory(cfg.Categories, claim.Category) {
			return 0, domain.SkipCategoryNotEligible
		}
		return cappedDiscount(s.running, cfg.Percent, cfg.FlatAmount, cfg.MaxDiscount), ""

	case domain.ConditionalMixConfig:
		if frame.Price < cfg.MinFramePrice {
			return 0, domain.SkipConditionsNotMet
		}
		if len(cfg.LensVisionTypes) > 0 && !containsVision(cfg.LensVisionTypes, lens.VisionType) {
			return 0, domain.SkipConditionsNotMet
		}
		return percentOf(lens.Price, cfg.LensPercent) + percentOf(frame.Price, cfg.FramePercent), ""
	}
	return 0, domain.SkipConfigMismatch
}

func freeLensDiscount(cfg domain.FreeLensConfig, frame domain.FrameItem, lens domain.LensItem) (int64, domain.SkipReason) {
	if cfg.FreeProductID != "" {
		if !strings.EqualFold(cfg.FreeProductID, lens.ProductID) {
			return 0, domain.SkipFreeProductMismatch
		}
		return lens.Price, ""
	}

	var allowance int64
	switch cfg.RuleType {
	case domain.FreeLensFull:
		allowance = lens.Price
	case domain.FreeLensValueCap:
		mrp := frame.MRP
		if mrp == 0 {
			mrp = frame.Price
		}
		allowance = percentOf(mrp, cfg.Percent)
	case domain.FreeLensPercentOfFrame:
		allowance = percentOf(frame.Price, cfg.Percent)
	default:
		return 0, domain.SkipConfigMismatch
	}
	if cfg.MaxValue > 0 && allowance > cfg.MaxValue {
		allowance = cfg.MaxValue
	}
	return minInt64(lens.Price, allowance), ""
}

func (s *pricingState) applyCoupon(code string, coupons []Coupon) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return
	}
	result := &domain.CouponResult{Code: code, Status: domain.CouponUnknown}
	s.coupon = result

	var coupon *Coupon
	for i := range coupons {
		if domain.NormalizeCode(coupons[i].Code) == code {
			coupon = &coupons[i]
			break
		}
	}
	at := s.req.At
	switch {
	case coupon == nil:
		return
	case !coupon.IsActive:
		result.Status = domain.CouponInactive
		return
	case coupon.ValidFrom != nil && at.Before(*coupon.ValidFrom):
		result.Status = domain.CouponNotYetValid
		return
	case coupon.ValidUntil != nil && at.After(*coupon.ValidUntil):
		result.Status = domain.CouponExpired
		return
	case coupon.MinCartValue > 0 && s.baseTotal < coupon.MinCartValue:
		result.Status = domain.CouponBelowMinimum
		return
	}

	discount := cappedDiscount(s.running, coupon.Percent, coupon.FlatAmount, coupon.MaxDiscount)
	if discount > s.running {
		discount = s.running
	}
	if discount <= 0 {
		result.Status = domain.CouponNoEffect
		return
	}
	s.running -= discount
	result.Status = domain.CouponApplied
	result.Discount = discount
	s.components = append(s.components, domain.PriceComponent{
		Label:  "Coupon " + code,
		Kind:   domain.ComponentCoupon,
		Amount: -discount,
	})
}

func (s *pricingState) finish() PriceQuote {
	if s.adjustment > 0 {
		s.components = append(s.components, domain.PriceComponent{
			Label:  "Discount limited to payable",
			Kind:   domain.ComponentAdjustment,
			Amount: s.adjustment,
		})
	}
	surcharges := s.cart.RxAddOnTotal()
	if surcharges > 0 {
		s.components = append(s.components, domain.PriceComponent{
			Label:  "RX add-on",
			Kind:   domain.ComponentSurcharge,
			Amount: surcharges,
		})
	}

	return PriceQuote{
		Currency:        s.cfg.Currency,
		BaseTotal:       s.baseTotal,
		AppliedOffers:   s.applied,
		SkippedOffers:   s.skipped,
		PriceComponents: s.components,
		Coupon:          s.coupon,
		BonusProducts:   s.bonuses,
		Surcharges:      surcharges,
		TotalSavings:    s.baseTotal - s.running,
		FinalPayable:    s.running + surcharges,
		CalculatedAt:    s.req.At.UTC(),
	}
}

func targetsMatch(filters domain.TargetFilters, pair Pair) bool {
	if len(filters.FrameBrands) > 0 && !containsFold(filters.FrameBrands, pair.Frame.Brand) {
		return false
	}
	if len(filters.FrameCategories) > 0 && !containsFold(filters.FrameCategories, pair.Frame.Category) {
		return false
	}
	if len(filters.LensBrandLines) > 0 && !containsFold(filters.LensBrandLines, pair.Lens.BrandLine) {
		return false
	}
	if len(filters.LensVisionTypes) > 0 && !containsVision(filters.LensVisionTypes, pair.Lens.VisionType) {
		return false
	}
	return true
}

func ruleLabel(rule OfferRule) string {
	if name := strings.TrimSpace(rule.Name); name != "" {
		return name
	}
	if rule.ID != "" {
		return rule.ID
	}
	return string(rule.OfferType)
}

// cappedDiscount applies percent and flat parts to base, limited by maxDiscount when set.
func cappedDiscount(base int64, percent float64, flat, maxDiscount int64) int64 {
	if base <= 0 {
		return 0
	}
	discount := percentOf(base, percent)
	if flat > 0 {
		discount += flat
	}
	if maxDiscount > 0 && discount > maxDiscount {
		discount = maxDiscount
	}
	return discount
}

func percentOf(amount int64, percent float64) int64 {
	percent = clampFloat(percent, 0, 100)
	return int64(math.Round(float64(amount) * percent / 100))
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func containsFold(values []string, target string) bool {
	target = strings.TrimSpace(target)
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func containsVision(values []domain.VisionType, target domain.VisionType) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func containsCategory(values []domain.CustomerCategory, target domain.CustomerCategory) bool {
	for _, v := range values {
		if strings.EqualFold(string(v), string(target)) {
			return true
		}
	}
	return false
}
