package domain

import "math"

// RxRange is a supported power window of a lens product. Cylinder bounds are compared by
// absolute value.
type RxRange struct {
	SphMin     float64 `json:"sphMin"`
	SphMax     float64 `json:"sphMax"`
	CylMin     float64 `json:"cylMin"`
	CylMax     float64 `json:"cylMax"`
	AddOnPrice int64   `json:"addOnPrice"`
}

// CylinderBounds returns the absolute cylinder window ordered low to high.
func (r RxRange) CylinderBounds() (float64, float64) {
	lo, hi := math.Abs(r.CylMin), math.Abs(r.CylMax)
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}

// Contains reports whether a single eye lies inside the range, bounds inclusive.
func (r RxRange) Contains(eye EyeRx) bool {
	if eye.Sphere < r.SphMin || eye.Sphere > r.SphMax {
		return false
	}
	lo, hi := r.CylinderBounds()
	cyl := math.Abs(eye.Cylinder)
	return cyl >= lo && cyl <= hi
}

// ProductBenefitScore is how strongly a product delivers a benefit (0-3).
type ProductBenefitScore struct {
	BenefitCode string  `json:"benefitCode"`
	Score       float64 `json:"score"`
}

// ProductAnswerScore boosts a product directly when an answer is selected.
type ProductAnswerScore struct {
	AnswerID string  `json:"answerId"`
	Score    float64 `json:"score"`
}

// LensProduct is a sellable lens definition supplied as reference data.
type LensProduct struct {
	ID           string                `json:"id"`
	Code         string                `json:"code"`
	Name         string                `json:"name"`
	BrandLine    string                `json:"brandLine"`
	Category     string                `json:"category,omitempty"`
	VisionType   VisionType            `json:"visionType"`
	Index        LensIndex             `json:"index"`
	MRP          int64                 `json:"mrp"`
	OfferPrice   int64                 `json:"offerPrice"`
	AddOnPrice   int64                 `json:"addOnPrice,omitempty"`
	RxRanges     []RxRange             `json:"rxRanges,omitempty"`
	Benefits     []ProductBenefitScore `json:"benefits,omitempty"`
	AnswerScores []ProductAnswerScore  `json:"answerScores,omitempty"`
	Features     []string              `json:"features,omitempty"`
	YOPOEligible bool                  `json:"yopoEligible"`
	IsActive     bool                  `json:"isActive"`
}

// Benefit is a customer-facing value proposition scored on both sides of the match.
type Benefit struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	PointWeight float64 `json:"pointWeight"`
	MaxScore    float64 `json:"maxScore"`
}

const (
	DefaultBenefitPointWeight = 1.0
	DefaultBenefitMaxScore    = 3.0
	MaxBenefitPoints          = 3.0
)

// Weight returns the point weight, defaulting to 1.0 when unset.
func (b Benefit) Weight() float64 {
	if b.PointWeight <= 0 {
		return DefaultBenefitPointWeight
	}
	return b.PointWeight
}

// Ceiling returns the maximum product score for the benefit, defaulting to 3.0.
func (b Benefit) Ceiling() float64 {
	if b.MaxScore <= 0 {
		return DefaultBenefitMaxScore
	}
	return b.MaxScore
}

// AnswerBenefitMapping links a questionnaire answer to benefit points.
type AnswerBenefitMapping struct {
	AnswerID    string  `json:"answerId"`
	BenefitCode string  `json:"benefitCode"`
	Points      float64 `json:"points"`
}

// AnswerSelection is the set of answers chosen for one question.
type AnswerSelection struct {
	QuestionID string   `json:"questionId"`
	AnswerIDs  []string `json:"answerIds"`
}

// Question is a questionnaire node. Answers may branch into a sub-question.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text,omitempty"`
	Answers []Answer `json:"answers"`
}

// Answer is a selectable option; SubQuestionID triggers a follow-up question.
type Answer struct {
	ID            string `json:"id"`
	Text          string `json:"text,omitempty"`
	SubQuestionID string `json:"subQuestionId,omitempty"`
}

// ProfileDimension names a RequirementProfile level that answers can raise.
type ProfileDimension string

const (
	DimensionScreenLoad     ProfileDimension = "SCREEN_LOAD"
	DimensionOutdoor        ProfileDimension = "OUTDOOR"
	DimensionDriving        ProfileDimension = "DRIVING"
	DimensionBlueProtection ProfileDimension = "BLUE_PROTECTION"
	DimensionAR             ProfileDimension = "AR"
	DimensionUV             ProfileDimension = "UV"
	DimensionPhotochromic   ProfileDimension = "PHOTOCHROMIC"
	DimensionPriority       ProfileDimension = "PRIORITY"
	DimensionLifestyle      ProfileDimension = "LIFESTYLE"
)

// ProfileSignal maps an answer onto a requirement profile dimension.
type ProfileSignal struct {
	AnswerID  string           `json:"answerId"`
	Dimension ProfileDimension `json:"dimension"`
	Level     int              `json:"level,omitempty"`
	Tag       string           `json:"tag,omitempty"`
}

// RequirementProfile is the customer's derived need profile. It is built once per session
// and treated as immutable afterwards.
type RequirementProfile struct {
	VisionType          VisionType `json:"visionType"`
	ScreenLoadLevel     int        `json:"screenLoadLevel"`
	OutdoorLevel        int        `json:"outdoorLevel"`
	DrivingLevel        int        `json:"drivingLevel"`
	BlueProtectionLevel int        `json:"blueProtectionLevel"`
	ARLevel             int        `json:"arLevel"`
	UVLevel             int        `json:"uvLevel"`
	PhotochromicNeed    bool       `json:"photochromicNeed"`
	LifestyleTags       []string   `json:"lifestyleTags,omitempty"`
	Priority            string     `json:"priority,omitempty"`
	Age                 int        `json:"age,omitempty"`
	OutdoorHours        float64    `json:"outdoorHours,omitempty"`
}

// HasTag reports whether the profile carries the lifestyle tag.
func (p RequirementProfile) HasTag(tag string) bool {
	for _, candidate := range p.LifestyleTags {
		if candidate == tag {
			return true
		}
	}
	return false
}
