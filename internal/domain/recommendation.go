package domain

// EligibleLens is a product that passed the prescription filter with its power-adjusted price.
type EligibleLens struct {
	Product           LensProduct `json:"product"`
	MatchedRange      *RxRange    `json:"matchedRange,omitempty"`
	DynamicFinalPrice int64       `json:"dynamicFinalPrice"`
	RxAddOn           int64       `json:"rxAddOn"`
}

// EligibilityResult is the output of the eligibility filter.
type EligibilityResult struct {
	VisionType       VisionType     `json:"visionType"`
	RecommendedIndex LensIndex      `json:"recommendedIndex"`
	MaxAbsolutePower float64        `json:"maxAbsolutePower"`
	Lenses           []EligibleLens `json:"lenses"`
}

// BenefitVector maps a benefit code to the customer's accumulated weight.
type BenefitVector map[string]float64

// RankedProduct is a scored candidate in final order.
type RankedProduct struct {
	Product           LensProduct `json:"product"`
	BenefitScore      float64     `json:"benefitScore"`
	DirectBoost       float64     `json:"directBoost"`
	DiversityBonus    float64     `json:"diversityBonus"`
	MatchScore        float64     `json:"matchScore"`
	MatchPercent      int         `json:"matchPercent"`
	DynamicFinalPrice int64       `json:"dynamicFinalPrice"`
	RxAddOn           int64       `json:"rxAddOn"`
	Rank              int         `json:"rank"`
}

// SecondPairType names a suggested second-pair use case.
type SecondPairType string

const (
	SecondPairComputer SecondPairType = "COMPUTER_PAIR"
	SecondPairDriving  SecondPairType = "DRIVING_PAIR"
	SecondPairSun      SecondPairType = "SUN_PAIR"
	SecondPairReading  SecondPairType = "READING_PAIR"
	SecondPairFashion  SecondPairType = "FASHION_PAIR"
)

// SecondPairSuggestion is a lifestyle-driven second-pair prompt with its estimated saving.
type SecondPairSuggestion struct {
	Type             SecondPairType `json:"type"`
	Weight           int            `json:"weight"`
	Reason           string         `json:"reason"`
	EstimatedSavings int64          `json:"estimatedSavings"`
	OfferRuleID      string         `json:"offerRuleId,omitempty"`
	OfferType        OfferType      `json:"offerType,omitempty"`
}

// ThresholdUpsell nudges the customer towards the nearest unreached spend threshold.
type ThresholdUpsell struct {
	Remaining   int64  `json:"remaining"`
	Target      int64  `json:"target"`
	Reward      string `json:"reward"`
	RuleID      string `json:"ruleId,omitempty"`
	Description string `json:"description"`
}

// UpsellResult bundles every upsell prompt for a quote.
type UpsellResult struct {
	SecondPairSuggestions []SecondPairSuggestion `json:"secondPairSuggestions"`
	ThresholdUpsell       *ThresholdUpsell       `json:"thresholdUpsell,omitempty"`
}
