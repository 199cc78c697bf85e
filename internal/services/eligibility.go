package services

import (
	domain "github.com/lens-advisor/api/internal/domain"
)

// EligibilityQuery describes the prescription being fitted. FrameType and VisionType are
// optional; an empty VisionType is inferred from the prescription.
type EligibilityQuery struct {
	Prescription Prescription
	FrameType    domain.FrameType
	VisionType   domain.VisionType
}

// ResolveVisionType returns the override when set, otherwise PROGRESSIVE when any eye carries
// an add above the configured threshold, otherwise SINGLE_VISION.
func ResolveVisionType(cfg EngineConfig, rx Prescription, override domain.VisionType) domain.VisionType {
	if override != "" {
		return override
	}
	if rx.MaxAdd() > cfg.Vision.ProgressiveAddThreshold {
		return domain.VisionProgressive
	}
	return domain.VisionSingle
}

// RecommendIndex maps the maximum absolute power onto an index class and escalates one tier
// for frames that expose the lens edge.
func RecommendIndex(cfg EngineConfig, power float64, frame domain.FrameType) domain.LensIndex {
	index := cfg.Index.Fallback
	if index == "" {
		index = domain.Index174
	}
	for _, band := range cfg.Index.Thresholds {
		if power <= band.MaxPower {
			index = band.Index
			break
		}
	}

	escalate := false
	switch frame {
	case domain.FrameRimless:
		escalate = power > cfg.Index.RimlessEscalationPower
	case domain.FrameHalfRim:
		escalate = power > cfg.Index.HalfRimEscalationPower
	}
	if escalate {
		index = index.Next()
	}
	return index
}

// FindEligibleLenses keeps the active candidates whose vision type matches and whose RX
// ranges cover both eyes. Candidate order is preserved. An empty result is not an error.
func FindEligibleLenses(cfg EngineConfig, candidates []LensProduct, query EligibilityQuery) EligibilityResult {
	rx := query.Prescription
	vision := ResolveVisionType(cfg, rx, query.VisionType)
	power := rx.MaxAbsolutePower()

	result := EligibilityResult{
		VisionType:       vision,
		RecommendedIndex: RecommendIndex(cfg, power, query.FrameType),
		MaxAbsolutePower: power,
		Lenses:           make([]EligibleLens, 0, len(candidates)),
	}

	for _, product := range candidates {
		if !product.IsActive || product.VisionType != vision {
			continue
		}
		lens, ok := matchProduct(product, rx)
		if !ok {
			continue
		}
		result.Lenses = append(result.Lenses, lens)
	}
	return result
}

func matchProduct(product LensProduct, rx Prescription) (EligibleLens, bool) {
	if len(product.RxRanges) == 0 {
		return EligibleLens{
			Product:           product,
			DynamicFinalPrice: product.OfferPrice + product.AddOnPrice,
			RxAddOn:           product.AddOnPrice,
		}, true
	}
	for i := range product.RxRanges {
		rng := product.RxRanges[i]
		if !rng.Contains(rx.Right) || !rng.Contains(rx.Left) {
			continue
		}
		return EligibleLens{
			Product:           product,
			MatchedRange:      &rng,
			DynamicFinalPrice: product.OfferPrice + rng.AddOnPrice,
			RxAddOn:           rng.AddOnPrice,
		}, true
	}
	return EligibleLens{}, false
}
