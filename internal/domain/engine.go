package domain

// EngineConfig carries every tunable constant the engines use. It is passed explicitly to
// each call; engines never read globals.
type EngineConfig struct {
	Currency  string          `yaml:"currency" json:"currency"`
	Locale    string          `yaml:"locale" json:"locale"`
	Vision    VisionConfig    `yaml:"vision" json:"vision"`
	Index     IndexConfig     `yaml:"index" json:"index"`
	Ranking   RankingConfig   `yaml:"ranking" json:"ranking"`
	BestOffer BestOfferConfig `yaml:"bestOffer" json:"bestOffer"`
	Upsell    UpsellConfig    `yaml:"upsell" json:"upsell"`
}

// VisionConfig drives vision type inference from the prescription.
type VisionConfig struct {
	ProgressiveAddThreshold float64 `yaml:"progressiveAddThreshold" json:"progressiveAddThreshold"`
}

// IndexThreshold maps powers up to MaxPower onto an index.
type IndexThreshold struct {
	MaxPower float64   `yaml:"maxPower" json:"maxPower"`
	Index    LensIndex `yaml:"index" json:"index"`
}

// IndexConfig holds the power bands and frame escalation limits.
type IndexConfig struct {
	Thresholds             []IndexThreshold `yaml:"thresholds" json:"thresholds"`
	Fallback               LensIndex        `yaml:"fallback" json:"fallback"`
	RimlessEscalationPower float64          `yaml:"rimlessEscalationPower" json:"rimlessEscalationPower"`
	HalfRimEscalationPower float64          `yaml:"halfRimEscalationPower" json:"halfRimEscalationPower"`
}

// RankingConfig tunes ranking.
type RankingConfig struct {
	DiversityEnabled bool    `yaml:"diversityEnabled" json:"diversityEnabled"`
	DiversityStep    float64 `yaml:"diversityStep" json:"diversityStep"`
}

// BestOfferConfig weights savings and priority when comparing offers in isolation.
type BestOfferConfig struct {
	SavingsWeight  float64 `yaml:"savingsWeight" json:"savingsWeight"`
	PriorityWeight float64 `yaml:"priorityWeight" json:"priorityWeight"`
	// WeightPriority applies PriorityWeight to the priority term. When false the raw priority
	// is added unweighted, matching the legacy scoring.
	WeightPriority bool `yaml:"weightPriority" json:"weightPriority"`
}

// RewardThreshold is a spend level that unlocks a reward.
type RewardThreshold struct {
	MinCartValue int64  `yaml:"minCartValue" json:"minCartValue"`
	Reward       string `yaml:"reward" json:"reward"`
}

// UpsellConfig holds the lifestyle triggers and prompt weights.
type UpsellConfig struct {
	ScreenLoadThreshold   int                    `yaml:"screenLoadThreshold" json:"screenLoadThreshold"`
	DrivingThreshold      int                    `yaml:"drivingThreshold" json:"drivingThreshold"`
	OutdoorHoursThreshold float64                `yaml:"outdoorHoursThreshold" json:"outdoorHoursThreshold"`
	ReadingAgeThreshold   int                    `yaml:"readingAgeThreshold" json:"readingAgeThreshold"`
	FashionTags           []string               `yaml:"fashionTags" json:"fashionTags"`
	Weights               map[SecondPairType]int `yaml:"weights" json:"weights"`
	RewardThresholds      []RewardThreshold      `yaml:"rewardThresholds" json:"rewardThresholds"`
}

// DefaultEngineConfig returns the built-in tuning.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Currency: "INR",
		Locale:   "en-IN",
		Vision: VisionConfig{
			ProgressiveAddThreshold: 0.75,
		},
		Index: IndexConfig{
			Thresholds: []IndexThreshold{
				{MaxPower: 3, Index: Index156},
				{MaxPower: 5, Index: Index160},
				{MaxPower: 8, Index: Index167},
			},
			Fallback:               Index174,
			RimlessEscalationPower: 2,
			HalfRimEscalationPower: 4,
		},
		Ranking: RankingConfig{
			DiversityEnabled: false,
			DiversityStep:    2,
		},
		BestOffer: BestOfferConfig{
			SavingsWeight:  0.6,
			PriorityWeight: 0.4,
			WeightPriority: false,
		},
		Upsell: UpsellConfig{
			ScreenLoadThreshold:   4,
			DrivingThreshold:      3,
			OutdoorHoursThreshold: 3,
			ReadingAgeThreshold:   40,
			FashionTags:           []string{"fashion"},
			Weights: map[SecondPairType]int{
				SecondPairComputer: 90,
				SecondPairDriving:  80,
				SecondPairSun:      70,
				SecondPairReading:  60,
				SecondPairFashion:  50,
			},
		},
	}
}
