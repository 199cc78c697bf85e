package domain

import "time"

// QuoteCalculatedEventType is the event type published after a quote is priced.
const QuoteCalculatedEventType = "pricing.quote_calculated"

// QuoteCalculatedEvent summarises a priced quote for downstream consumers.
type QuoteCalculatedEvent struct {
	QuoteID      string      `json:"quoteId"`
	Currency     string      `json:"currency"`
	BaseTotal    int64       `json:"baseTotal"`
	TotalSavings int64       `json:"totalSavings"`
	FinalPayable int64       `json:"finalPayable"`
	OfferTypes   []OfferType `json:"offerTypes"`
	CouponCode   string      `json:"couponCode,omitempty"`
	CalculatedAt time.Time   `json:"calculatedAt"`
}
