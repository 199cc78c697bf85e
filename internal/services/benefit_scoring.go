package services

import (
	"math"
	"strings"
)

// SelectedAnswerIDs flattens selections into unique answer IDs, first occurrence order.
func SelectedAnswerIDs(selections []AnswerSelection) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, selection := range selections {
		for _, id := range selection.AnswerIDs {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}

// ComputeBenefitScores accumulates clamped, weighted mapping points for every selected answer.
// Mappings to unknown benefit codes contribute nothing.
func ComputeBenefitScores(selections []AnswerSelection, mappings []AnswerBenefitMapping, benefits []Benefit) BenefitVector {
	vector := BenefitVector{}
	answers := SelectedAnswerIDs(selections)
	if len(answers) == 0 {
		return vector
	}

	selected := make(map[string]struct{}, len(answers))
	for _, id := range answers {
		selected[id] = struct{}{}
	}
	byCode := indexBenefits(benefits)

	for _, mapping := range mappings {
		if _, ok := selected[mapping.AnswerID]; !ok {
			continue
		}
		benefit, ok := byCode[mapping.BenefitCode]
		if !ok {
			continue
		}
		points := clampFloat(mapping.Points, 0, 3)
		vector[benefit.Code] += points * benefit.Weight()
	}
	return vector
}

// ProductMatchScore is the dot product of the customer vector and the product's clamped
// benefit scores.
func ProductMatchScore(vector BenefitVector, product LensProduct, benefits []Benefit) float64 {
	return productMatchScore(vector, product, indexBenefits(benefits))
}

func productMatchScore(vector BenefitVector, product LensProduct, byCode map[string]Benefit) float64 {
	if len(vector) == 0 {
		return 0
	}
	var score float64
	for _, pb := range product.Benefits {
		weight, ok := vector[pb.BenefitCode]
		if !ok {
			continue
		}
		ceiling := 3.0
		if benefit, ok := byCode[pb.BenefitCode]; ok {
			ceiling = benefit.Ceiling()
		}
		score += weight * clampFloat(pb.Score, 0, ceiling)
	}
	return score
}

func indexBenefits(benefits []Benefit) map[string]Benefit {
	byCode := make(map[string]Benefit, len(benefits))
	for _, benefit := range benefits {
		byCode[benefit.Code] = benefit
	}
	return byCode
}

func clampFloat(value, lo, hi float64) float64 {
	if math.IsNaN(value) {
		return lo
	}
	return math.Max(lo, math.Min(hi, value))
}
