package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/lens-advisor/api/internal/domain"
	pfirestore "github.com/lens-advisor/api/internal/platform/firestore"
	"github.com/lens-advisor/api/internal/repositories"
)

const (
	offerRulesCollection = "offer_rules"
	couponsCollection    = "coupons"
)

// decodeOfferRule routes the raw document through the rule's JSON decoder so the config map
// is resolved into the variant named by offerType. Firestore timestamps marshal as RFC 3339.
func decodeOfferRule(snap *firestore.DocumentSnapshot) (domain.OfferRule, error) {
	data := snap.Data()
	if _, ok := data["id"]; !ok {
		data["id"] = snap.Ref.ID
	}
	return offerRuleFromMap(data)
}

func offerRuleFromMap(data map[string]any) (domain.OfferRule, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return domain.OfferRule{}, err
	}
	var rule domain.OfferRule
	if err := json.Unmarshal(raw, &rule); err != nil {
		return domain.OfferRule{}, err
	}
	return rule, nil
}

// OfferRuleRepository reads offer_rules.
type OfferRuleRepository struct {
	base *pfirestore.BaseRepository[domain.OfferRule]
}

// NewOfferRuleRepository constructs a Firestore-backed offer rule repository.
func NewOfferRuleRepository(provider *pfirestore.Provider) (*OfferRuleRepository, error) {
	if provider == nil {
		return nil, errors.New("offer rule repository requires firestore provider")
	}
	return &OfferRuleRepository{base: pfirestore.NewBaseRepository[domain.OfferRule](provider, offerRulesCollection, decodeOfferRule)}, nil
}

// List returns every rule ordered by priority then ID.
func (r *OfferRuleRepository) List(ctx context.Context) ([]domain.OfferRule, error) {
	rules, err := r.base.Query(ctx, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
	return rules, nil
}

type couponDocument struct {
	Percent      float64    `firestore:"percent"`
	FlatAmount   int64      `firestore:"flatAmount"`
	MaxDiscount  int64      `firestore:"maxDiscount"`
	MinCartValue int64      `firestore:"minCartValue"`
	ValidFrom    *time.Time `firestore:"validFrom"`
	ValidUntil   *time.Time `firestore:"validUntil"`
	IsActive     bool       `firestore:"isActive"`
}

func (d couponDocument) toDomain(id string) domain.Coupon {
	return domain.Coupon{
		Code:         domain.NormalizeCode(id),
		Percent:      d.Percent,
		FlatAmount:   d.FlatAmount,
		MaxDiscount:  d.MaxDiscount,
		MinCartValue: d.MinCartValue,
		ValidFrom:    d.ValidFrom,
		ValidUntil:   d.ValidUntil,
		IsActive:     d.IsActive,
	}
}

// CouponRepository reads coupons keyed by their upper-case code.
type CouponRepository struct {
	base *pfirestore.BaseRepository[domain.Coupon]
}

// NewCouponRepository constructs a Firestore-backed coupon repository.
func NewCouponRepository(provider *pfirestore.Provider) (*CouponRepository, error) {
	if provider == nil {
		return nil, errors.New("coupon repository requires firestore provider")
	}
	decode := decodeWithID(couponDocument.toDomain)
	return &CouponRepository{base: pfirestore.NewBaseRepository(provider, couponsCollection, decode)}, nil
}

func (r *CouponRepository) FindByCode(ctx context.Context, code string) (domain.Coupon, error) {
	code = domain.NormalizeCode(code)
	if code == "" {
		return domain.Coupon{}, pfirestore.NotFound("coupons.find", "coupon")
	}
	coupon, err := r.base.Get(ctx, code)
	if err != nil {
		return domain.Coupon{}, fmt.Errorf("coupons.find %s: %w", code, err)
	}
	return coupon, nil
}

var (
	_ repositories.OfferRuleRepository = (*OfferRuleRepository)(nil)
	_ repositories.CouponRepository    = (*CouponRepository)(nil)
)
