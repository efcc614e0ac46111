package session

import (
	"errors"
	"fmt"
	"time"

	"roast-platform/internal/agents"
	"roast-platform/internal/dialer"
)

var (
	ErrSessionActive = errors.New("session: another roast call is already active")
	ErrInvalidPhase  = errors.New("session: operation not allowed in current phase")
	ErrNoSession     = errors.New("session: no active session")
)

// ValidationError rejects one submission field. The message is safe to show
// to the user as-is.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("session: invalid %s: %s", e.Field, e.Message)
}

// Phase is where a session sits in the flow. Transitions only happen inside
// the orchestrator.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseConsent        Phase = "consent"
	PhasePlanSelection  Phase = "plan-selection"
	PhasePaymentConfirm Phase = "payment-confirm"
	PhasePaymentResult  Phase = "payment-result"
	PhaseInitiating     Phase = "initiating"
	PhasePolling        Phase = "polling"
	PhaseCompleted      Phase = "completed"
	PhaseFailed         Phase = "failed"
)

// Terminal reports whether the session has reached a resting state that a new
// submission may replace.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

// Submission is the roast form input. It is held only until the call is
// placed, then dropped; nothing here is persisted.
type Submission struct {
	YourName    string `json:"your_name"`
	TargetName  string `json:"target_name"`
	TargetJob   string `json:"target_job"`
	FunFacts    string `json:"fun_facts"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone"`
}

// CallConfig carries the knobs picked on the payment screen.
type CallConfig struct {
	Intensity int  `json:"intensity"`
	Recording bool `json:"recording"`
}

// Session is a point-in-time snapshot of one roast flow. Snapshot returns
// copies; callers never see live state.
type Session struct {
	ID         string     `json:"id"`
	Phase      Phase      `json:"phase"`
	Submission Submission `json:"submission"`

	Agent  agents.Agent         `json:"agent"`
	Quote  agents.Quote         `json:"quote"`
	Config CallConfig           `json:"config"`
	Offer  agents.DiscountOffer `json:"offer"`

	PaymentApproved bool   `json:"payment_approved"`
	ReceiptID       string `json:"receipt_id,omitempty"`

	CallID         string             `json:"call_id,omitempty"`
	Status         dialer.CallStatus  `json:"status,omitempty"`
	Details        dialer.CallDetails `json:"details"`
	ElapsedSeconds int                `json:"elapsed_seconds"`

	ErrorMessage string `json:"error_message,omitempty"`
	Notice       string `json:"notice,omitempty"`

	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
