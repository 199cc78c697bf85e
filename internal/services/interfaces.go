package services

import (
	"context"
	"time"

	domain "github.com/lens-advisor/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	EngineConfig          = domain.EngineConfig
	Prescription          = domain.Prescription
	LensProduct           = domain.LensProduct
	Benefit               = domain.Benefit
	AnswerBenefitMapping  = domain.AnswerBenefitMapping
	AnswerSelection       = domain.AnswerSelection
	ProfileSignal         = domain.ProfileSignal
	RequirementProfile    = domain.RequirementProfile
	Question              = domain.Question
	EligibleLens          = domain.EligibleLens
	EligibilityResult     = domain.EligibilityResult
	BenefitVector         = domain.BenefitVector
	RankedProduct         = domain.RankedProduct
	OfferRule             = domain.OfferRule
	Coupon                = domain.Coupon
	Cart                  = domain.Cart
	Pair                  = domain.Pair
	PriceQuote            = domain.PriceQuote
	CustomerCategoryClaim = domain.CustomerCategoryClaim
	UpsellResult          = domain.UpsellResult
)

// RecommendationService runs the eligibility, scoring and ranking pipeline against stored
// reference data.
type RecommendationService interface {
	EligibleLenses(ctx context.Context, cmd EligibleLensesCommand) (EligibilityResult, error)
	Recommend(ctx context.Context, cmd RecommendCommand) (Recommendation, error)
}

// PricingService prices carts against the stored offer rules and suggests upsells.
type PricingService interface {
	Quote(ctx context.Context, cmd QuoteCommand) (PriceQuote, error)
	Upsell(ctx context.Context, cmd UpsellCommand) (UpsellResult, error)
	BestOffer(ctx context.Context, cmd QuoteCommand) (*BestOffer, error)
}

// ValidationService runs authoring checks over submitted reference data.
type ValidationService interface {
	ValidateOfferRules(ctx context.Context, rules []OfferRule) error
	ValidateCatalog(ctx context.Context, catalog CatalogSnapshot) error
	ValidateQuestionnaire(ctx context.Context, questions []Question) error
}

// EligibleLensesCommand asks for the products a prescription can be fitted with.
type EligibleLensesCommand struct {
	Prescription Prescription
	FrameType    domain.FrameType
	VisionType   domain.VisionType
}

// RecommendCommand carries the questionnaire answers alongside the prescription.
type RecommendCommand struct {
	Prescription Prescription
	FrameType    domain.FrameType
	VisionType   domain.VisionType
	Selections   []AnswerSelection
	Age          int
	OutdoorHours float64
	Diversity    *bool
	Limit        int
}

// Recommendation is the ranked output together with the derived profile.
type Recommendation struct {
	Profile          RequirementProfile
	RecommendedIndex domain.LensIndex
	BenefitVector    BenefitVector
	Products         []RankedProduct
}

// QuoteCommand asks for a priced cart.
type QuoteCommand struct {
	Cart             Cart
	CustomerCategory *CustomerCategoryClaim
	CouponCode       string
	At               time.Time
}

// UpsellCommand asks for upsell prompts given a profile and cart.
type UpsellCommand struct {
	Profile RequirementProfile
	Cart    Cart
	At      time.Time
}

// CatalogSnapshot is the reference data checked by catalog validation.
type CatalogSnapshot struct {
	Products []LensProduct
	Benefits []Benefit
	Mappings []AnswerBenefitMapping
}
