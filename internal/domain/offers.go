package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// OfferType identifies the promotion family a rule belongs to.
type OfferType string

const (
	// OfferYOPO charges only the higher of frame and lens price.
	OfferYOPO OfferType = "YOPO"
	// OfferBOGO makes the cheaper item of the pair free.
	OfferBOGO OfferType = "BOGO"
	// OfferBOGO50 halves the cheaper item (or cheaper pair).
	OfferBOGO50 OfferType = "BOGO_50"
	// OfferComboPrice replaces the pair total with a fixed price.
	OfferComboPrice OfferType = "COMBO_PRICE"
	// OfferFreeLens makes the lens free up to a cap.
	OfferFreeLens OfferType = "FREE_LENS"
	// OfferBonusFreeProduct grants a bonus item without changing the payable.
	OfferBonusFreeProduct OfferType = "BONUS_FREE_PRODUCT"
	// OfferCategoryDiscount applies to verified customer categories only.
	OfferCategoryDiscount OfferType = "CATEGORY_DISCOUNT"
	// OfferFixedDiscount is a plain percent or flat discount.
	OfferFixedDiscount OfferType = "FIXED_DISCOUNT"
	// OfferConditionalMix discounts lens and frame when a frame price floor is met.
	OfferConditionalMix OfferType = "CONDITIONAL_MIX"
)

var offerTypeAliases = map[string]OfferType{
	"B1G1":  OfferBOGO,
	"BOG50": OfferBOGO50,
	"B1G50": OfferBOGO50,
}

// ErrUnknownOfferType is returned when an offer type string cannot be resolved.
var ErrUnknownOfferType = errors.New("domain: unknown offer type")

// ParseOfferType normalises case and legacy aliases into a canonical OfferType.
func ParseOfferType(raw string) (OfferType, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if alias, ok := offerTypeAliases[code]; ok {
		return alias, nil
	}
	t := OfferType(code)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownOfferType, raw)
	}
	return t, nil
}

// Valid reports whether the offer type is canonical.
func (t OfferType) Valid() bool {
	switch t {
	case OfferYOPO, OfferBOGO, OfferBOGO50, OfferComboPrice, OfferFreeLens,
		OfferBonusFreeProduct, OfferCategoryDiscount, OfferFixedDiscount, OfferConditionalMix:
		return true
	}
	return false
}

// IsPrimary reports whether the offer reprices frame and lens items directly. Primary offers
// are mutually exclusive within one quote.
func (t OfferType) IsPrimary() bool {
	switch t {
	case OfferYOPO, OfferBOGO, OfferBOGO50, OfferComboPrice, OfferFreeLens:
		return true
	}
	return false
}

// Stacking controls how a rule combines with previously applied rules.
type Stacking struct {
	CanStack    bool        `json:"canStack"`
	BlockedWith []OfferType `json:"blockedWith,omitempty"`
}

// Blocks reports whether the rule refuses to apply after the given type.
func (s Stacking) Blocks(t OfferType) bool {
	for _, blocked := range s.BlockedWith {
		if blocked == t {
			return true
		}
	}
	return false
}

// TargetFilters restrict which carts a rule can apply to. Empty filters match everything.
type TargetFilters struct {
	FrameBrands     []string     `json:"frameBrands,omitempty"`
	FrameCategories []string     `json:"frameCategories,omitempty"`
	LensBrandLines  []string     `json:"lensBrandLines,omitempty"`
	LensVisionTypes []VisionType `json:"lensVisionTypes,omitempty"`
	MinCartValue    int64        `json:"minCartValue,omitempty"`
}

// OfferRule is a promotion definition evaluated by the offer engine.
type OfferRule struct {
	ID            string
	Name          string
	OfferType     OfferType
	Priority      int
	Config        OfferConfig
	IsActive      bool
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	Stacking      Stacking
	TargetFilters TargetFilters
	Description   string
}

// ActiveAt reports whether the rule is switched on and inside its validity window.
func (r OfferRule) ActiveAt(at time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.ValidFrom != nil && at.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && at.After(*r.ValidUntil) {
		return false
	}
	return true
}

type offerRuleJSON struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	OfferType     string          `json:"offerType"`
	Priority      int             `json:"priority"`
	Config        json.RawMessage `json:"config,omitempty"`
	IsActive      bool            `json:"isActive"`
	ValidFrom     *time.Time      `json:"validFrom,omitempty"`
	ValidUntil    *time.Time      `json:"validUntil,omitempty"`
	Stacking      Stacking        `json:"stacking"`
	TargetFilters TargetFilters   `json:"targetFilters"`
	Description   string          `json:"description,omitempty"`
}

// MarshalJSON writes the rule with its config flattened under "config".
func (r OfferRule) MarshalJSON() ([]byte, error) {
	var raw json.RawMessage
	if r.Config != nil {
		encoded, err := json.Marshal(r.Config)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	return json.Marshal(offerRuleJSON{
		ID:            r.ID,
		Name:          r.Name,
		OfferType:     string(r.OfferType),
		Priority:      r.Priority,
		Config:        raw,
		IsActive:      r.IsActive,
		ValidFrom:     r.ValidFrom,
		ValidUntil:    r.ValidUntil,
		Stacking:      r.Stacking,
		TargetFilters: r.TargetFilters,
		Description:   r.Description,
	})
}

// UnmarshalJSON resolves aliases and decodes the config variant selected by offerType.
func (r *OfferRule) UnmarshalJSON(data []byte) error {
	var payload offerRuleJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	offerType, err := ParseOfferType(payload.OfferType)
	if err != nil {
		return err
	}
	cfg, err := DecodeOfferConfig(offerType, payload.Config)
	if err != nil {
		return err
	}
	blocked := make([]OfferType, 0, len(payload.Stacking.BlockedWith))
	for _, b := range payload.Stacking.BlockedWith {
		if parsed, perr := ParseOfferType(string(b)); perr == nil {
			blocked = append(blocked, parsed)
		} else {
			blocked = append(blocked, b)
		}
	}
	payload.Stacking.BlockedWith = blocked

	*r = OfferRule{
		ID:            payload.ID,
		Name:          payload.Name,
		OfferType:     offerType,
		Priority:      payload.Priority,
		Config:        cfg,
		IsActive:      payload.IsActive,
		ValidFrom:     payload.ValidFrom,
		ValidUntil:    payload.ValidUntil,
		Stacking:      payload.Stacking,
		TargetFilters: payload.TargetFilters,
		Description:   payload.Description,
	}
	return nil
}

// OfferConfig is the per-type configuration of an offer rule. The set of implementations is
// closed; each variant belongs to exactly one OfferType.
type OfferConfig interface {
	OfferType() OfferType
	offerConfig()
}

// YOPOConfig has no tunables.
type YOPOConfig struct{}

// BOGOConfig has no tunables.
type BOGOConfig struct{}

// BOGO50Config restricts the half-price offer to brands or two-pair carts.
type BOGO50Config struct {
	FrameBrands    []string `json:"frameBrands,omitempty"`
	SecondPairOnly bool     `json:"secondPairOnly,omitempty"`
}

// ComboPriceConfig fixes the pair price.
type ComboPriceConfig struct {
	ComboPrice int64 `json:"comboPrice"`
}

// FreeLensRuleType selects how the free lens allowance is computed.
type FreeLensRuleType string

const (
	FreeLensFull           FreeLensRuleType = "FULL"
	FreeLensPercentOfFrame FreeLensRuleType = "PERCENT_OF_FRAME"
	FreeLensValueCap       FreeLensRuleType = "VALUE_CAP"
)

// Valid reports whether the rule type is known.
func (t FreeLensRuleType) Valid() bool {
	switch t {
	case FreeLensFull, FreeLensPercentOfFrame, FreeLensValueCap:
		return true
	}
	return false
}

// FreeLensConfig describes a free or capped lens allowance.
type FreeLensConfig struct {
	RuleType      FreeLensRuleType `json:"ruleType,omitempty"`
	Percent       float64          `json:"percent,omitempty"`
	MaxValue      int64            `json:"maxValue,omitempty"`
	FreeProductID string           `json:"freeProductId,omitempty"`
}

// BonusFreeProductConfig grants an extra product from a category.
type BonusFreeProductConfig struct {
	BonusCategory    string `json:"bonusCategory,omitempty"`
	BonusLimit       int64  `json:"bonusLimit,omitempty"`
	FreeProductValue int64  `json:"freeProductValue,omitempty"`
	Description      string `json:"description,omitempty"`
}

// CategoryDiscountConfig discounts carts for verified customer categories.
type CategoryDiscountConfig struct {
	Categories  []CustomerCategory `json:"categories,omitempty"`
	Percent     float64            `json:"percent,omitempty"`
	FlatAmount  int64              `json:"flatAmount,omitempty"`
	MaxDiscount int64              `json:"maxDiscount,omitempty"`
}

// FixedDiscountConfig is a percent and/or flat discount on the running total.
type FixedDiscountConfig struct {
	Percent     float64 `json:"percent,omitempty"`
	FlatAmount  int64   `json:"flatAmount,omitempty"`
	MaxDiscount int64   `json:"maxDiscount,omitempty"`
}

// ConditionalMixConfig discounts lens and frame once the frame clears a price floor.
type ConditionalMixConfig struct {
	MinFramePrice   int64        `json:"minFramePrice,omitempty"`
	LensVisionTypes []VisionType `json:"lensVisionTypes,omitempty"`
	LensPercent     float64      `json:"lensPercent,omitempty"`
	FramePercent    float64      `json:"framePercent,omitempty"`
}

func (YOPOConfig) OfferType() OfferType             { return OfferYOPO }
func (BOGOConfig) OfferType() OfferType             { return OfferBOGO }
func (BOGO50Config) OfferType() OfferType           { return OfferBOGO50 }
func (ComboPriceConfig) OfferType() OfferType       { return OfferComboPrice }
func (FreeLensConfig) OfferType() OfferType         { return OfferFreeLens }
func (BonusFreeProductConfig) OfferType() OfferType { return OfferBonusFreeProduct }
func (CategoryDiscountConfig) OfferType() OfferType { return OfferCategoryDiscount }
func (FixedDiscountConfig) OfferType() OfferType    { return OfferFixedDiscount }
func (ConditionalMixConfig) OfferType() OfferType   { return OfferConditionalMix }

func (YOPOConfig) offerConfig()             {}
func (BOGOConfig) offerConfig()             {}
func (BOGO50Config) offerConfig()           {}
func (ComboPriceConfig) offerConfig()       {}
func (FreeLensConfig) offerConfig()         {}
func (BonusFreeProductConfig) offerConfig() {}
func (CategoryDiscountConfig) offerConfig() {}
func (FixedDiscountConfig) offerConfig()    {}
func (ConditionalMixConfig) offerConfig()   {}

// DecodeOfferConfig decodes raw JSON into the config variant for the offer type. An empty
// payload yields the zero-value variant.
func DecodeOfferConfig(t OfferType, raw []byte) (OfferConfig, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = []byte("{}")
	}
	var (
		cfg OfferConfig
		err error
	)
	switch t {
	case OfferYOPO:
		cfg = YOPOConfig{}
	case OfferBOGO:
		cfg = BOGOConfig{}
	case OfferBOGO50:
		var c BOGO50Config
		err = json.Unmarshal(raw, &c)
		cfg = c
	case OfferComboPrice:
		var c ComboPriceConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case OfferFreeLens:
		var c FreeLensConfig
		err = json.Unmarshal(raw, &c)
		c.RuleType = FreeLensRuleType(strings.ToUpper(strings.TrimSpace(string(c.RuleType))))
		cfg = c
	case OfferBonusFreeProduct:
		var c BonusFreeProductConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case OfferCategoryDiscount:
		var c CategoryDiscountConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case OfferFixedDiscount:
		var c FixedDiscountConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	case OfferConditionalMix:
		var c ConditionalMixConfig
		err = json.Unmarshal(raw, &c)
		cfg = c
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOfferType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("domain: decode %s config: %w", t, err)
	}
	return cfg, nil
}

// Coupon is a code-based discount redeemed on top of offer rules.
type Coupon struct {
	Code         string     `json:"code"`
	Percent      float64    `json:"percent,omitempty"`
	FlatAmount   int64      `json:"flatAmount,omitempty"`
	MaxDiscount  int64      `json:"maxDiscount,omitempty"`
	MinCartValue int64      `json:"minCartValue,omitempty"`
	ValidFrom    *time.Time `json:"validFrom,omitempty"`
	ValidUntil   *time.Time `json:"validUntil,omitempty"`
	IsActive     bool       `json:"isActive"`
}

// NormalizeCode upper-cases and trims a coupon or offer code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
