package domain

import "time"

// CustomerCategory is a customer segment that unlocks category discounts once verified.
type CustomerCategory string

const (
	CategoryStudent     CustomerCategory = "STUDENT"
	CategoryDoctor      CustomerCategory = "DOCTOR"
	CategoryTeacher     CustomerCategory = "TEACHER"
	CategoryArmedForces CustomerCategory = "ARMED_FORCES"
	CategorySenior      CustomerCategory = "SENIOR_CITIZEN"
	CategoryCorporate   CustomerCategory = "CORPORATE"
)

// CustomerCategoryClaim is a category asserted at the counter. Only verified claims count.
type CustomerCategoryClaim struct {
	Category CustomerCategory `json:"category"`
	Verified bool             `json:"verified"`
}

// FrameItem is the frame line of a pair. Prices are minor units.
type FrameItem struct {
	ProductID string    `json:"productId,omitempty"`
	Brand     string    `json:"brand,omitempty"`
	Category  string    `json:"category,omitempty"`
	FrameType FrameType `json:"frameType,omitempty"`
	MRP       int64     `json:"mrp"`
	Price     int64     `json:"price"`
}

// LensItem is the lens line of a pair. RxAddOn is the power surcharge on top of Price.
type LensItem struct {
	ProductID    string     `json:"productId,omitempty"`
	BrandLine    string     `json:"brandLine,omitempty"`
	Category     string     `json:"category,omitempty"`
	VisionType   VisionType `json:"visionType,omitempty"`
	Index        LensIndex  `json:"index,omitempty"`
	MRP          int64      `json:"mrp"`
	Price        int64      `json:"price"`
	RxAddOn      int64      `json:"rxAddOn,omitempty"`
	YOPOEligible bool       `json:"yopoEligible"`
}

// Pair is one frame plus one lens.
type Pair struct {
	Frame FrameItem `json:"frame"`
	Lens  LensItem  `json:"lens"`
}

// Total is the undiscounted pair price excluding RX add-ons.
func (p Pair) Total() int64 {
	return p.Frame.Price + p.Lens.Price
}

// Cart is the primary pair with an optional second pair.
type Cart struct {
	Primary    Pair  `json:"primary"`
	SecondPair *Pair `json:"secondPair,omitempty"`
}

// Pairs returns the pairs in cart order.
func (c Cart) Pairs() []Pair {
	pairs := []Pair{c.Primary}
	if c.SecondPair != nil {
		pairs = append(pairs, *c.SecondPair)
	}
	return pairs
}

// BaseTotal sums every pair price excluding RX add-ons.
func (c Cart) BaseTotal() int64 {
	var total int64
	for _, pair := range c.Pairs() {
		total += pair.Total()
	}
	return total
}

// RxAddOnTotal sums the RX add-on surcharges across pairs.
func (c Cart) RxAddOnTotal() int64 {
	var total int64
	for _, pair := range c.Pairs() {
		total += pair.Lens.RxAddOn
	}
	return total
}

// PriceComponentKind classifies a line of the price breakdown.
type PriceComponentKind string

const (
	ComponentBase       PriceComponentKind = "BASE"
	ComponentDiscount   PriceComponentKind = "DISCOUNT"
	ComponentCoupon     PriceComponentKind = "COUPON"
	ComponentSurcharge  PriceComponentKind = "SURCHARGE"
	ComponentAdjustment PriceComponentKind = "ADJUSTMENT"
)

// PriceComponent is one signed line of the breakdown. Components sum to FinalPayable.
type PriceComponent struct {
	Label  string             `json:"label"`
	Kind   PriceComponentKind `json:"kind"`
	Amount int64              `json:"amount"`
	RuleID string             `json:"ruleId,omitempty"`
}

// AppliedOffer records a rule that changed the quote.
type AppliedOffer struct {
	RuleID      string    `json:"ruleId"`
	Name        string    `json:"name,omitempty"`
	OfferType   OfferType `json:"offerType"`
	Priority    int       `json:"priority"`
	Savings     int64     `json:"savings"`
	Description string    `json:"description,omitempty"`
}

// SkipReason explains why a rule did not apply.
type SkipReason string

const (
	SkipInactive            SkipReason = "inactive"
	SkipOutsideWindow       SkipReason = "outside_validity_window"
	SkipTargetMismatch      SkipReason = "target_filters_mismatch"
	SkipBelowMinCartValue   SkipReason = "below_min_cart_value"
	SkipBlocked             SkipReason = "blocked_by_applied_offer"
	SkipPrimaryApplied      SkipReason = "primary_offer_already_applied"
	SkipEvaluationStopped   SkipReason = "evaluation_stopped_by_non_stackable_offer"
	SkipLensNotYOPOEligible SkipReason = "lens_not_yopo_eligible"
	SkipSecondPairRequired  SkipReason = "second_pair_required"
	SkipFrameBrandNotListed SkipReason = "frame_brand_not_listed"
	SkipFreeProductMismatch SkipReason = "free_product_mismatch"
	SkipCategoryUnverified  SkipReason = "customer_category_unverified"
	SkipCategoryNotEligible SkipReason = "customer_category_not_eligible"
	SkipConditionsNotMet    SkipReason = "conditions_not_met"
	SkipNoSavings           SkipReason = "no_savings"
	SkipConfigMismatch      SkipReason = "config_type_mismatch"
	SkipUnknownOfferType    SkipReason = "unknown_offer_type"
)

// SkippedOffer records a rule that was considered but not applied.
type SkippedOffer struct {
	RuleID    string     `json:"ruleId"`
	OfferType OfferType  `json:"offerType"`
	Reason    SkipReason `json:"reason"`
}

// BonusProduct is a free-item entitlement that does not alter the payable.
type BonusProduct struct {
	RuleID      string `json:"ruleId"`
	Category    string `json:"category,omitempty"`
	Limit       int64  `json:"limit,omitempty"`
	Value       int64  `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// CouponStatus is the outcome of a coupon lookup.
type CouponStatus string

const (
	CouponApplied      CouponStatus = "APPLIED"
	CouponUnknown      CouponStatus = "UNKNOWN"
	CouponInactive     CouponStatus = "INACTIVE"
	CouponExpired      CouponStatus = "EXPIRED"
	CouponNotYetValid  CouponStatus = "NOT_YET_VALID"
	CouponBelowMinimum CouponStatus = "BELOW_MINIMUM"
	CouponNoEffect     CouponStatus = "NO_EFFECT"
)

// CouponResult reports what happened to a requested coupon code.
type CouponResult struct {
	Code     string       `json:"code"`
	Status   CouponStatus `json:"status"`
	Discount int64        `json:"discount"`
}

// PriceQuote is the priced result for a cart.
type PriceQuote struct {
	ID              string           `json:"id,omitempty"`
	Currency        string           `json:"currency"`
	BaseTotal       int64            `json:"baseTotal"`
	AppliedOffers   []AppliedOffer   `json:"appliedOffers"`
	SkippedOffers   []SkippedOffer   `json:"skippedOffers"`
	PriceComponents []PriceComponent `json:"priceComponents"`
	Coupon          *CouponResult    `json:"coupon,omitempty"`
	BonusProducts   []BonusProduct   `json:"bonusProducts"`
	Surcharges      int64            `json:"surcharges"`
	TotalSavings    int64            `json:"totalSavings"`
	FinalPayable    int64            `json:"finalPayable"`
	CalculatedAt    time.Time        `json:"calculatedAt"`
}

// HasOffer reports whether an offer of the given type was applied.
func (q PriceQuote) HasOffer(t OfferType) bool {
	for _, applied := range q.AppliedOffers {
		if applied.OfferType == t {
			return true
		}
	}
	return false
}
