package services

import (
	"math"
	"sort"
	"strings"
)

// RankOptions controls a single ranking call. Diversity overrides the configured default when
// set. Limit <= 0 returns every candidate.
type RankOptions struct {
	Diversity *bool
	Limit     int
}

// ScoreAndRank computes the customer benefit vector and ranks the eligible candidates with it.
func ScoreAndRank(cfg EngineConfig, candidates []EligibleLens, selections []AnswerSelection, mappings []AnswerBenefitMapping, benefits []Benefit, opts RankOptions) []RankedProduct {
	vector := ComputeBenefitScores(selections, mappings, benefits)
	return RankProducts(cfg, candidates, vector, SelectedAnswerIDs(selections), benefits, opts)
}

// RankProducts orders candidates by match score, then price, then thinnest index, then input
// order. The result is deterministic for identical inputs.
func RankProducts(cfg EngineConfig, candidates []EligibleLens, vector BenefitVector, selectedAnswers []string, benefits []Benefit, opts RankOptions) []RankedProduct {
	if len(candidates) == 0 {
		return []RankedProduct{}
	}

	byCode := indexBenefits(benefits)
	selected := make(map[string]struct{}, len(selectedAnswers))
	for _, id := range selectedAnswers {
		selected[id] = struct{}{}
	}

	ranked := make([]RankedProduct, len(candidates))
	for i, candidate := range candidates {
		benefitScore := productMatchScore(vector, candidate.Product, byCode)
		boost := directBoost(candidate.Product, selected)
		ranked[i] = RankedProduct{
			Product:           candidate.Product,
			BenefitScore:      benefitScore,
			DirectBoost:       boost,
			MatchScore:        benefitScore + boost,
			DynamicFinalPrice: candidate.DynamicFinalPrice,
			RxAddOn:           candidate.RxAddOn,
		}
	}

	diversity := cfg.Ranking.DiversityEnabled
	if opts.Diversity != nil {
		diversity = *opts.Diversity
	}
	if diversity && len(ranked) > 1 {
		applyDiversityBonus(ranked, cfg.Ranking.DiversityStep)
	}

	sortRanked(ranked)

	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}

	top := ranked[0].MatchScore
	for i := range ranked {
		ranked[i].Rank = i + 1
		if top > 0 {
			ranked[i].MatchPercent = int(math.Round(ranked[i].MatchScore / top * 100))
		}
	}
	return ranked
}

// BestMatch returns the top product of a ranking without diversity adjustment.
func BestMatch(cfg EngineConfig, candidates []EligibleLens, vector BenefitVector, selectedAnswers []string, benefits []Benefit) (RankedProduct, bool) {
	off := false
	ranked := RankProducts(cfg, candidates, vector, selectedAnswers, benefits, RankOptions{Diversity: &off, Limit: 1})
	if len(ranked) == 0 {
		return RankedProduct{}, false
	}
	return ranked[0], true
}

func directBoost(product LensProduct, selected map[string]struct{}) float64 {
	if len(selected) == 0 {
		return 0
	}
	var boost float64
	for _, as := range product.AnswerScores {
		if _, ok := selected[as.AnswerID]; ok && as.Score > 0 {
			boost += as.Score
		}
	}
	return boost
}

func applyDiversityBonus(ranked []RankedProduct, step float64) {
	counts := make(map[string]int)
	maxCount := 0
	for _, item := range ranked {
		key := brandKey(item.Product)
		counts[key]++
		if counts[key] > maxCount {
			maxCount = counts[key]
		}
	}
	for i := range ranked {
		bonus := step * float64(maxCount-counts[brandKey(ranked[i].Product)])
		ranked[i].DiversityBonus = bonus
		ranked[i].MatchScore += bonus
	}
}

func brandKey(product LensProduct) string {
	return strings.ToUpper(strings.TrimSpace(product.BrandLine))
}

func sortRanked(ranked []RankedProduct) {
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if a.DynamicFinalPrice != b.DynamicFinalPrice {
			return a.DynamicFinalPrice < b.DynamicFinalPrice
		}
		return a.Product.Index.Tier() > b.Product.Index.Tier()
	})
}
