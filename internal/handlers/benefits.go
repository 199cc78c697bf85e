package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	domain "github.com/lens-advisor/api/internal/domain"
)

var errBenefitShape = errors.New(`benefits must be an array of {"benefitCode","score"} or an object of code to score`)

// benefitScores decodes product benefit scores from either wire shape:
//
//	[{"benefitCode":"B01","score":2}]
//	{"B01":2}
//
// Codes are trimmed and upper-cased. Duplicate codes are rejected.
type benefitScores []domain.ProductBenefitScore

func (b *benefitScores) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*b = nil
		return nil
	}

	switch trimmed[0] {
	case '[':
		var items []domain.ProductBenefitScore
		decoder := json.NewDecoder(bytes.NewReader(trimmed))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&items); err != nil {
			return fmt.Errorf("%w: %v", errBenefitShape, err)
		}
		out := make(benefitScores, 0, len(items))
		seen := make(map[string]struct{}, len(items))
		for i, item := range items {
			code := normalizeBenefitCode(item.BenefitCode)
			if code == "" {
				return fmt.Errorf("benefits[%d]: benefitCode is required", i)
			}
			if _, dup := seen[code]; dup {
				return fmt.Errorf("benefits: duplicate benefit code %s", code)
			}
			seen[code] = struct{}{}
			out = append(out, domain.ProductBenefitScore{BenefitCode: code, Score: item.Score})
		}
		*b = out
		return nil
	case '{':
		var byCode map[string]float64
		if err := json.Unmarshal(trimmed, &byCode); err != nil {
			return fmt.Errorf("%w: %v", errBenefitShape, err)
		}
		codes := make([]string, 0, len(byCode))
		for raw := range byCode {
			codes = append(codes, raw)
		}
		sort.Strings(codes)

		out := make(benefitScores, 0, len(codes))
		seen := make(map[string]struct{}, len(codes))
		for _, raw := range codes {
			code := normalizeBenefitCode(raw)
			if code == "" {
				return errors.New("benefits: empty benefit code")
			}
			if _, dup := seen[code]; dup {
				return fmt.Errorf("benefits: duplicate benefit code %s", code)
			}
			seen[code] = struct{}{}
			out = append(out, domain.ProductBenefitScore{BenefitCode: code, Score: byCode[raw]})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].BenefitCode < out[j].BenefitCode })
		*b = out
		return nil
	default:
		return errBenefitShape
	}
}

func normalizeBenefitCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// benefitVectorPayload renders a benefit vector in the array shape, ordered by code.
func benefitVectorPayload(vector domain.BenefitVector) []domain.ProductBenefitScore {
	out := make([]domain.ProductBenefitScore, 0, len(vector))
	for code, score := range vector {
		out = append(out, domain.ProductBenefitScore{BenefitCode: code, Score: score})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BenefitCode < out[j].BenefitCode })
	return out
}
