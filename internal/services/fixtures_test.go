package services

import (
	"time"

	domain "github.com/lens-advisor/api/internal/domain"
)

var testNow = time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

func testConfig() EngineConfig {
	return domain.DefaultEngineConfig()
}

func floatPtr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

func rxBoth(sph, cyl float64) Prescription {
	return Prescription{
		Right: domain.EyeRx{Sphere: sph, Cylinder: cyl},
		Left:  domain.EyeRx{Sphere: sph, Cylinder: cyl},
	}
}

func product(id string, vision domain.VisionType, offerPrice int64, ranges ...domain.RxRange) LensProduct {
	return LensProduct{
		ID:         id,
		Code:       id,
		Name:       id,
		BrandLine:  "CLEARVIEW",
		VisionType: vision,
		Index:      domain.Index156,
		MRP:        offerPrice,
		OfferPrice: offerPrice,
		RxRanges:   ranges,
		IsActive:   true,
	}
}

func simpleCart(frame, lens int64) Cart {
	return Cart{
		Primary: Pair{
			Frame: domain.FrameItem{ProductID: "frame-1", Brand: "AURA", MRP: frame, Price: frame},
			Lens:  domain.LensItem{ProductID: "lens-1", BrandLine: "CLEARVIEW", VisionType: domain.VisionSingle, MRP: lens, Price: lens, YOPOEligible: true},
		},
	}
}

func rule(id string, config domain.OfferConfig, priority int) OfferRule {
	return OfferRule{
		ID:        id,
		Name:      id,
		OfferType: config.OfferType(),
		Priority:  priority,
		Config:    config,
		IsActive:  true,
		Stacking:  domain.Stacking{CanStack: true},
	}
}

func sumComponents(quote PriceQuote) int64 {
	var total int64
	for _, component := range quote.PriceComponents {
		total += component.Amount
	}
	return total
}

func skipReason(quote PriceQuote, ruleID string) domain.SkipReason {
	for _, skipped := range quote.SkippedOffers {
		if skipped.RuleID == ruleID {
			return skipped.Reason
		}
	}
	return ""
}
