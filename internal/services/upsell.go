package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	domain "github.com/lens-advisor/api/internal/domain"
	"github.com/lens-advisor/api/internal/platform/money"
	"github.com/lens-advisor/api/internal/platform/textutil"
)

// SuggestUpsell derives second-pair prompts from the profile and the nearest unreached spend
// threshold from configuration and the rule set. Reward thresholds are measured against the
// final payable; rule minimums against the base total.
func SuggestUpsell(cfg EngineConfig, profile RequirementProfile, quote PriceQuote, cart Cart, rules []OfferRule, at time.Time) UpsellResult {
	result := UpsellResult{SecondPairSuggestions: make([]domain.SecondPairSuggestion, 0, 5)}

	estimate, estimateRule := estimateSecondPairSavings(cfg, cart, rules, at)
	for _, trigger := range secondPairTriggers(cfg, profile) {
		suggestion := domain.SecondPairSuggestion{
			Type:             trigger.kind,
			Weight:           cfg.Upsell.Weights[trigger.kind],
			Reason:           trigger.reason,
			EstimatedSavings: estimate,
		}
		if estimateRule != nil {
			suggestion.OfferRuleID = estimateRule.ID
			suggestion.OfferType = estimateRule.OfferType
		}
		result.SecondPairSuggestions = append(result.SecondPairSuggestions, suggestion)
	}
	sort.SliceStable(result.SecondPairSuggestions, func(i, j int) bool {
		a, b := result.SecondPairSuggestions[i], result.SecondPairSuggestions[j]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.Type < b.Type
	})

	result.ThresholdUpsell = nearestThreshold(cfg, quote, rules, at)
	return result
}

type secondPairTrigger struct {
	kind   domain.SecondPairType
	reason string
}

func secondPairTriggers(cfg EngineConfig, profile RequirementProfile) []secondPairTrigger {
	rules := cfg.Upsell
	triggers := make([]secondPairTrigger, 0, 5)
	if profile.ScreenLoadLevel >= rules.ScreenLoadThreshold {
		triggers = append(triggers, secondPairTrigger{domain.SecondPairComputer, "High daily screen use"})
	}
	if profile.DrivingLevel >= rules.DrivingThreshold {
		triggers = append(triggers, secondPairTrigger{domain.SecondPairDriving, "Frequent driving"})
	}
	if profile.OutdoorHours >= rules.OutdoorHoursThreshold {
		triggers = append(triggers, secondPairTrigger{domain.SecondPairSun, "Long hours outdoors"})
	}
	if rules.ReadingAgeThreshold > 0 && profile.Age >= rules.ReadingAgeThreshold && profile.VisionType != domain.VisionProgressive {
		triggers = append(triggers, secondPairTrigger{domain.SecondPairReading, "Near vision support"})
	}
	if profile.VisionType == domain.VisionZeroPower || hasAnyTag(profile, rules.FashionTags) {
		triggers = append(triggers, secondPairTrigger{domain.SecondPairFashion, "Style-led second frame"})
	}
	return triggers
}

func hasAnyTag(profile RequirementProfile, tags []string) bool {
	for _, tag := range tags {
		if profile.HasTag(strings.ToLower(strings.TrimSpace(tag))) {
			return true
		}
	}
	return false
}

// estimateSecondPairSavings picks the best offer the cart would qualify for with a second pair
// like the primary one added, and returns what it would save on that pair's lens. Rules are
// held to the same conditions the pricing engine enforces.
func estimateSecondPairSavings(cfg EngineConfig, cart Cart, rules []OfferRule, at time.Time) (int64, *OfferRule) {
	lensValue := cart.Primary.Lens.MRP
	if lensValue == 0 {
		lensValue = cart.Primary.Lens.Price
	}
	if lensValue <= 0 {
		return 0, nil
	}

	second := cart.Primary
	withSecond := Cart{Primary: cart.Primary, SecondPair: &second}

	var (
		best      *OfferRule
		bestScore float64
		bestSave  int64
	)
	for _, rule := range sortRulesByPriority(rules) {
		if ruleApplies(rule, withSecond, at) != "" || offerConditions(rule, withSecond) != "" {
			continue
		}
		var savings int64
		switch offer := rule.Config.(type) {
		case domain.YOPOConfig, domain.BOGOConfig:
			savings = lensValue
		case domain.BOGO50Config:
			savings = percentOf(lensValue, 50)
		case domain.FixedDiscountConfig:
			savings = cappedDiscount(lensValue, offer.Percent, 0, offer.MaxDiscount)
		default:
			continue
		}
		if savings <= 0 {
			continue
		}
		score := bestOfferScore(cfg, savings, rule.Priority)
		if best == nil || score > bestScore {
			r := rule
			best, bestScore, bestSave = &r, score, savings
		}
	}
	return bestSave, best
}

type thresholdCandidate struct {
	target int64
	reward string
	ruleID string
	// spent is the amount the target is measured against.
	spent int64
}

func nearestThreshold(cfg EngineConfig, quote PriceQuote, rules []OfferRule, at time.Time) *domain.ThresholdUpsell {
	candidates := make([]thresholdCandidate, 0, len(cfg.Upsell.RewardThresholds)+len(rules))
	for _, threshold := range cfg.Upsell.RewardThresholds {
		candidates = append(candidates, thresholdCandidate{target: threshold.MinCartValue, reward: threshold.Reward, spent: quote.FinalPayable})
	}
	for _, rule := range sortRulesByPriority(rules) {
		if rule.TargetFilters.MinCartValue <= 0 || !rule.ActiveAt(at) {
			continue
		}
		reward := rule.Description
		if strings.TrimSpace(reward) == "" {
			reward = ruleLabel(rule)
		}
		// Rule minimums gate on the base total in the pricing engine.
		candidates = append(candidates, thresholdCandidate{target: rule.TargetFilters.MinCartValue, reward: reward, ruleID: rule.ID, spent: quote.BaseTotal})
	}

	var chosen *thresholdCandidate
	var remaining int64
	for i := range candidates {
		gap := candidates[i].target - candidates[i].spent
		if gap <= 0 {
			continue
		}
		if chosen == nil || gap < remaining {
			chosen, remaining = &candidates[i], gap
		}
	}
	if chosen == nil {
		return nil
	}

	reward := textutil.PlainText(chosen.reward)
	formatter := money.NewFormatter(cfg.Currency, cfg.Locale)
	return &domain.ThresholdUpsell{
		Remaining:   remaining,
		Target:      chosen.target,
		Reward:      reward,
		RuleID:      chosen.ruleID,
		Description: fmt.Sprintf("Spend %s more to unlock %s", formatter.Format(remaining), reward),
	}
}
