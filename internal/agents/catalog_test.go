package agents

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultCatalog_FourTiers(t *testing.T) {
	c := NewDefaultCatalog()
	list, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected 4 tiers, got %d", len(list))
	}

	rookie, err := c.Get(context.Background(), "rookie")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !rookie.Free() {
		t.Fatalf("expected rookie tier to be free")
	}
	if rookie.Recording {
		t.Fatalf("free tier must not include recording")
	}

	if _, err := c.Get(context.Background(), "nope"); !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestAgent_MaxDurationMinutes(t *testing.T) {
	a := Agent{MaxDurationSeconds: 90}
	if got := a.MaxDurationMinutes(); got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
}

func TestBuildQuote_DiscountWindow(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	a := Agent{ID: "assassin", PriceMinor: 299, Currency: "USD"}
	offer := NewDiscountOffer(now)

	q := BuildQuote(a, offer, true, now.Add(10*time.Second))
	if q.DiscountMinor != 59 {
		t.Fatalf("expected 59 discount, got %d", q.DiscountMinor)
	}
	if q.TotalMinor != 240 {
		t.Fatalf("expected 240 total, got %d", q.TotalMinor)
	}

	// Expired offer prices full.
	q = BuildQuote(a, offer, true, now.Add(31*time.Second))
	if q.DiscountMinor != 0 || q.TotalMinor != 299 {
		t.Fatalf("expected full price after expiry, got %+v", q)
	}
}

func TestBuildQuote_FreeTierIgnoresDiscount(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	a := Agent{ID: "rookie", PriceMinor: 0, Currency: "USD"}
	q := BuildQuote(a, NewDiscountOffer(now), true, now)
	if q.TotalMinor != 0 || q.DiscountMinor != 0 {
		t.Fatalf("expected zero quote, got %+v", q)
	}
}
