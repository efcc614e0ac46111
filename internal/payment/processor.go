// Package payment fronts the payment gateway.
//
// The current processor is a stand-in that approves every charge. The
// Processor contract already carries the failure path (ErrDeclined) so the
// flow around it is built for a real gateway; swapping one in must not change
// any caller.
package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDeclined        = errors.New("payment: declined")
	ErrInvalidArgument = errors.New("payment: invalid argument")
)

// ChargeRequest describes one charge attempt.
// Free tiers charge zero and still produce a receipt, so the rest of the flow
// is uniform.
type ChargeRequest struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`

	// Reference ties the charge to a roast session.
	Reference string `json:"reference"`

	// IdempotencyKey guards against double charging on retries.
	IdempotencyKey string `json:"idempotency_key"`
}

// Receipt is the proof of an approved charge.
type Receipt struct {
	ID          string    `json:"id"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
	Reference   string    `json:"reference"`
	ApprovedAt  time.Time `json:"approved_at"`
}

// Processor is the gateway contract. Implementations must be safe for
// concurrent use.
type Processor interface {
	Charge(ctx context.Context, req ChargeRequest) (Receipt, error)
}

// SimulatedProcessor approves everything. It keeps receipts by idempotency
// key so a retried charge returns the original receipt instead of a new one.
type SimulatedProcessor struct {
	clock func() time.Time

	mu       sync.Mutex
	receipts map[string]Receipt
}

func NewSimulatedProcessor() *SimulatedProcessor {
	return &SimulatedProcessor{
		clock:    time.Now,
		receipts: make(map[string]Receipt),
	}
}

func (p *SimulatedProcessor) Charge(ctx context.Context, req ChargeRequest) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	if req.Currency == "" || req.Reference == "" || req.IdempotencyKey == "" {
		return Receipt{}, ErrInvalidArgument
	}
	if req.AmountMinor < 0 {
		return Receipt{}, ErrInvalidArgument
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if r, ok := p.receipts[req.IdempotencyKey]; ok {
		return r, nil
	}

	r := Receipt{
		ID:          uuid.NewString(),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Reference:   req.Reference,
		ApprovedAt:  p.clock().UTC(),
	}
	p.receipts[req.IdempotencyKey] = r
	return r, nil
}
