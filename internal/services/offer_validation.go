package services

import (
	"fmt"
	"math"
	"regexp"

	domain "github.com/lens-advisor/api/internal/domain"
)

var benefitCodePattern = regexp.MustCompile(`^B\d{2}$`)

// ValidateRuleSet runs the authoring checks over an offer rule set. It returns nil or a
// *RuleSetValidationError listing every distinct problem.
func ValidateRuleSet(rules []OfferRule) error {
	var problems problemList
	seen := make(map[string]struct{}, len(rules))

	for i, rule := range rules {
		ref := rule.ID
		if ref == "" {
			ref = fmt.Sprintf("#%d", i)
			problems.addf("rule %s: id is required", ref)
		} else if _, dup := seen[rule.ID]; dup {
			problems.addf("rule %s: duplicate id", ref)
		}
		seen[rule.ID] = struct{}{}

		if !rule.OfferType.Valid() {
			problems.addf("rule %s: unknown offer type %q", ref, rule.OfferType)
			continue
		}
		if rule.Config == nil || rule.Config.OfferType() != rule.OfferType {
			problems.addf("rule %s: config does not match offer type %s", ref, rule.OfferType)
			continue
		}
		if rule.ValidFrom != nil && rule.ValidUntil != nil && rule.ValidUntil.Before(*rule.ValidFrom) {
			problems.addf("rule %s: validUntil is before validFrom", ref)
		}
		if rule.TargetFilters.MinCartValue < 0 {
			problems.addf("rule %s: minCartValue must be non-negative", ref)
		}
		for _, blocked := range rule.Stacking.BlockedWith {
			if !blocked.Valid() {
				problems.addf("rule %s: blockedWith names unknown offer type %q", ref, blocked)
			}
		}
		validateOfferConfig(&problems, ref, rule)
	}

	validatePriorityOrdering(&problems, rules)

	if problems.empty() {
		return nil
	}
	return &RuleSetValidationError{problems: problems.list()}
}

func validateOfferConfig(problems *problemList, ref string, rule OfferRule) {
	switch cfg := rule.Config.(type) {
	case domain.FreeLensConfig:
		if !cfg.RuleType.Valid() && cfg.FreeProductID == "" {
			problems.addf("rule %s: FREE_LENS requires a valid ruleType or a freeProductId", ref)
		}
		checkPercent(problems, ref, "percent", cfg.Percent)
		checkAmount(problems, ref, "maxValue", cfg.MaxValue)
	case domain.BOGO50Config:
		filters := rule.TargetFilters
		if len(filters.FrameBrands) == 0 && len(filters.FrameCategories) == 0 && len(cfg.FrameBrands) == 0 {
			problems.addf("rule %s: BOGO_50 requires target brands or categories", ref)
		}
	case domain.BonusFreeProductConfig:
		if (cfg.BonusLimit <= 0 && cfg.FreeProductValue <= 0) || cfg.BonusCategory == "" {
			problems.addf("rule %s: BONUS_FREE_PRODUCT requires a bonusCategory and a bonusLimit or freeProductValue", ref)
		}
		checkAmount(problems, ref, "bonusLimit", cfg.BonusLimit)
		checkAmount(problems, ref, "freeProductValue", cfg.FreeProductValue)
	case domain.ComboPriceConfig:
		if cfg.ComboPrice <= 0 {
			problems.addf("rule %s: comboPrice must be positive", ref)
		}
	case domain.FixedDiscountConfig:
		checkPercent(problems, ref, "percent", cfg.Percent)
		checkAmount(problems, ref, "flatAmount", cfg.FlatAmount)
		checkAmount(problems, ref, "maxDiscount", cfg.MaxDiscount)
	case domain.CategoryDiscountConfig:
		checkPercent(problems, ref, "percent", cfg.Percent)
		checkAmount(problems, ref, "flatAmount", cfg.FlatAmount)
		checkAmount(problems, ref, "maxDiscount", cfg.MaxDiscount)
	case domain.ConditionalMixConfig:
		checkPercent(problems, ref, "lensPercent", cfg.LensPercent)
		checkPercent(problems, ref, "framePercent", cfg.FramePercent)
		checkAmount(problems, ref, "minFramePrice", cfg.MinFramePrice)
	}
}

// validatePriorityOrdering requires every active YOPO rule to run before every active
// COMBO_PRICE rule.
func validatePriorityOrdering(problems *problemList, rules []OfferRule) {
	for _, yopo := range rules {
		if !yopo.IsActive || yopo.OfferType != domain.OfferYOPO {
			continue
		}
		for _, combo := range rules {
			if !combo.IsActive || combo.OfferType != domain.OfferComboPrice {
				continue
			}
			if yopo.Priority >= combo.Priority {
				problems.addf("rule %s: YOPO priority %d must be lower than COMBO_PRICE rule %s priority %d",
					yopo.ID, yopo.Priority, combo.ID, combo.Priority)
			}
		}
	}
}

func checkPercent(problems *problemList, ref, field string, value float64) {
	if math.IsNaN(value) || value < 0 || value > 100 {
		problems.addf("rule %s: %s must be within 0-100", ref, field)
	}
}

func checkAmount(problems *problemList, ref, field string, value int64) {
	if value < 0 {
		problems.addf("rule %s: %s must be non-negative", ref, field)
	}
}

// ValidateCatalog checks products, benefits and answer mappings for authoring mistakes.
func ValidateCatalog(catalog CatalogSnapshot) error {
	var problems problemList

	codes := make(map[string]struct{}, len(catalog.Benefits))
	for _, benefit := range catalog.Benefits {
		if !benefitCodePattern.MatchString(benefit.Code) {
			problems.addf("benefit %q: code must match B followed by two digits", benefit.Code)
		}
		if _, dup := codes[benefit.Code]; dup {
			problems.addf("benefit %s: duplicate code", benefit.Code)
		}
		codes[benefit.Code] = struct{}{}
		if benefit.PointWeight < 0 {
			problems.addf("benefit %s: pointWeight must be non-negative", benefit.Code)
		}
		if benefit.MaxScore < 0 {
			problems.addf("benefit %s: maxScore must be non-negative", benefit.Code)
		}
	}

	for _, mapping := range catalog.Mappings {
		if mapping.Points < 0 || mapping.Points > domain.MaxBenefitPoints {
			problems.addf("mapping %s->%s: points must be within 0-3", mapping.AnswerID, mapping.BenefitCode)
		}
		if _, ok := codes[mapping.BenefitCode]; !ok {
			problems.addf("mapping %s->%s: unknown benefit code", mapping.AnswerID, mapping.BenefitCode)
		}
	}

	productIDs := make(map[string]struct{}, len(catalog.Products))
	for _, product := range catalog.Products {
		ref := product.ID
		if ref == "" {
			ref = product.Code
		}
		if _, dup := productIDs[ref]; dup {
			problems.addf("product %s: duplicate id", ref)
		}
		productIDs[ref] = struct{}{}

		if product.MRP < product.OfferPrice {
			problems.addf("product %s: mrp is below offerPrice", ref)
		}
		if product.OfferPrice < 0 || product.AddOnPrice < 0 {
			problems.addf("product %s: prices must be non-negative", ref)
		}
		if !product.VisionType.Valid() {
			problems.addf("product %s: unknown vision type %q", ref, product.VisionType)
		}
		if product.Index.Tier() == 0 {
			problems.addf("product %s: unknown lens index %q", ref, product.Index)
		}
		for i, rng := range product.RxRanges {
			if rng.SphMin >= rng.SphMax {
				problems.addf("product %s: rx range %d has sphMin >= sphMax", ref, i)
			}
			if math.Abs(rng.CylMin) > math.Abs(rng.CylMax) {
				problems.addf("product %s: rx range %d has |cylMin| > |cylMax|", ref, i)
			}
			if rng.AddOnPrice < 0 {
				problems.addf("product %s: rx range %d has negative addOnPrice", ref, i)
			}
		}
		for _, score := range product.Benefits {
			if score.Score < 0 || score.Score > domain.MaxBenefitPoints {
				problems.addf("product %s: benefit %s score must be within 0-3", ref, score.BenefitCode)
			}
		}
	}

	if problems.empty() {
		return nil
	}
	return &CatalogValidationError{problems: problems.list()}
}
