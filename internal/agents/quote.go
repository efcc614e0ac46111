package agents

import "time"

// Discount terms for the limited-time offer shown on the payment screen.
const (
	discountPercent = 20
	discountWindow  = 30 * time.Second
)

// DiscountOffer is a one-shot, time-boxed price reduction. It is created when
// the payment screen opens and expires on its own clock; applying it after
// expiry is a no-op.
type DiscountOffer struct {
	Percent   int       `json:"percent"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewDiscountOffer(now time.Time) DiscountOffer {
	return DiscountOffer{Percent: discountPercent, ExpiresAt: now.Add(discountWindow)}
}

func (o DiscountOffer) Active(now time.Time) bool {
	return o.Percent > 0 && now.Before(o.ExpiresAt)
}

// Quote is the price presented for confirmation. All amounts in minor units.
type Quote struct {
	AgentID       string `json:"agent_id"`
	Currency      string `json:"currency"`
	PriceMinor    int64  `json:"price_minor"`
	DiscountMinor int64  `json:"discount_minor"`
	TotalMinor    int64  `json:"total_minor"`
}

// BuildQuote prices an agent tier, optionally applying an active discount
// offer. Free tiers quote zero regardless of the offer.
func BuildQuote(a Agent, offer DiscountOffer, applyDiscount bool, now time.Time) Quote {
	q := Quote{
		AgentID:    a.ID,
		Currency:   a.Currency,
		PriceMinor: a.PriceMinor,
		TotalMinor: a.PriceMinor,
	}
	if a.Free() {
		return q
	}
	if applyDiscount && offer.Active(now) {
		q.DiscountMinor = a.PriceMinor * int64(offer.Percent) / 100
		q.TotalMinor = a.PriceMinor - q.DiscountMinor
	}
	return q
}
