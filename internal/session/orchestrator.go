// Package session owns the lifecycle of one roast-call flow, from form
// submission through consent, plan selection, payment, call initiation and
// status polling.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"roast-platform/internal/agents"
	"roast-platform/internal/dialer"
	"roast-platform/internal/history"
	"roast-platform/internal/moderation"
	"roast-platform/internal/payment"
	"roast-platform/internal/poller"
	"roast-platform/internal/stats"
)

// DialClient is the slice of the dialer client the orchestrator needs.
type DialClient interface {
	InitiateCall(ctx context.Context, req dialer.CallRequest) (string, error)
}

// CallPoller drives status polling for one placed call.
type CallPoller interface {
	Start(callID string)
	Stop()
}

// PollerFactory builds a fresh poller per placed call, reporting into sink.
type PollerFactory func(sink poller.Sink, expectRecording bool) CallPoller

// Config wires one orchestrator. Counter, History and Gate are optional;
// everything else is required.
type Config struct {
	VisitorID string
	Dialer    DialClient
	Payments  payment.Processor
	NewPoller PollerFactory
	Counter   stats.Counter
	History   history.Repository
	Gate      Gate
	Logger    *slog.Logger
	Clock     func() time.Time
}

// Orchestrator is the sole writer of one visitor's session state. All reads
// go through Snapshot, which returns a copy.
//
// The mutex is never held across network calls: payment charges and call
// initiation run unlocked, guarded by a generation counter so a Reset issued
// mid-flight makes the late result a no-op.
type Orchestrator struct {
	visitorID string
	dial      DialClient
	payments  payment.Processor
	newPoller PollerFactory
	counter   stats.Counter
	hist      history.Repository
	gate      Gate
	log       *slog.Logger
	clock     func() time.Time

	mu         sync.Mutex
	gen        int
	busy       bool
	gateHeld   bool
	sess       Session
	poll       CallPoller
	paymentKey string
}

func New(cfg Config) *Orchestrator {
	if cfg.Gate == nil {
		cfg.Gate = NopGate{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Orchestrator{
		visitorID: cfg.VisitorID,
		dial:      cfg.Dialer,
		payments:  cfg.Payments,
		newPoller: cfg.NewPoller,
		counter:   cfg.Counter,
		hist:      cfg.History,
		gate:      cfg.Gate,
		log:       cfg.Logger.With("visitor_id", cfg.VisitorID),
		clock:     cfg.Clock,
		sess:      Session{Phase: PhaseIdle},
	}
}

// Snapshot returns a copy of the current session state.
func (o *Orchestrator) Snapshot() Session {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess
}

// Submit validates the roast form and opens a new session in the consent
// phase. A session that already finished is replaced; a live one rejects the
// submission with ErrSessionActive.
func (o *Orchestrator) Submit(ctx context.Context, sub Submission) (Session, error) {
	sub = trimSubmission(sub)
	if err := validateSubmission(sub); err != nil {
		return Session{}, err
	}

	o.mu.Lock()
	if o.busy || (o.sess.Phase != PhaseIdle && !o.sess.Phase.Terminal()) {
		o.mu.Unlock()
		return Session{}, ErrSessionActive
	}
	if p := o.poll; p != nil {
		o.poll = nil
		defer p.Stop()
	}
	held := o.gateHeld
	o.mu.Unlock()

	if held {
		o.releaseGate()
	}
	ok, err := o.gate.Acquire(ctx, o.visitorID)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, ErrSessionActive
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy || (o.sess.Phase != PhaseIdle && !o.sess.Phase.Terminal()) {
		// Lost a race with a concurrent submit; give the slot back.
		go o.releaseGate()
		return Session{}, ErrSessionActive
	}
	o.gateHeld = true
	o.gen++
	now := o.clock().UTC()
	o.sess = Session{
		ID:         uuid.NewString(),
		Phase:      PhaseConsent,
		Submission: sub,
		StartedAt:  now,
		UpdatedAt:  now,
	}
	return o.sess, nil
}

// ConfirmConsent moves the session on to plan selection. While a submit is
// still settling the confirmation is silently ignored rather than failed, so
// a double-tap does not surface an error.
func (o *Orchestrator) ConfirmConsent() (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return o.sess, nil
	}
	if o.sess.Phase != PhaseConsent {
		return o.sess, ErrInvalidPhase
	}
	o.sess.Phase = PhasePlanSelection
	o.sess.UpdatedAt = o.clock().UTC()
	return o.sess, nil
}

// SelectPlan attaches an agent tier to the session and opens the payment
// screen with a fresh limited-time discount offer. Re-selecting from the
// payment screen is allowed.
func (o *Orchestrator) SelectPlan(a agents.Agent) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return o.sess, ErrInvalidPhase
	}
	if o.sess.Phase != PhasePlanSelection && o.sess.Phase != PhasePaymentConfirm {
		return o.sess, ErrInvalidPhase
	}
	now := o.clock().UTC()
	o.sess.Agent = a
	o.sess.Offer = agents.NewDiscountOffer(now)
	o.sess.Quote = agents.BuildQuote(a, o.sess.Offer, false, now)
	o.sess.Phase = PhasePaymentConfirm
	o.sess.UpdatedAt = now
	o.paymentKey = uuid.NewString()
	return o.sess, nil
}

// BackToPlans reopens plan selection from the payment screen.
func (o *Orchestrator) BackToPlans() (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy || o.sess.Phase != PhasePaymentConfirm {
		return o.sess, ErrInvalidPhase
	}
	o.sess.Phase = PhasePlanSelection
	o.sess.UpdatedAt = o.clock().UTC()
	return o.sess, nil
}

// PaymentInput carries the payment-screen choices.
type PaymentInput struct {
	UseDiscount bool `json:"use_discount"`
	Recording   bool `json:"recording"`
	Intensity   int  `json:"intensity"`
}

// ConfirmPayment charges the quoted amount and lands on the payment-result
// screen regardless of outcome; the result itself records approval or the
// decline message.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, in PaymentInput) (Session, error) {
	o.mu.Lock()
	if o.busy || o.sess.Phase != PhasePaymentConfirm {
		s := o.sess
		o.mu.Unlock()
		return s, ErrInvalidPhase
	}
	now := o.clock().UTC()
	quote := agents.BuildQuote(o.sess.Agent, o.sess.Offer, in.UseDiscount, now)
	o.sess.Quote = quote
	o.sess.Config = CallConfig{
		Intensity: in.Intensity,
		Recording: in.Recording && o.sess.Agent.Recording,
	}
	req := payment.ChargeRequest{
		AmountMinor:    quote.TotalMinor,
		Currency:       o.sess.Agent.Currency,
		Reference:      o.sess.ID,
		IdempotencyKey: o.paymentKey,
	}
	gen := o.gen
	o.busy = true
	o.mu.Unlock()

	receipt, chargeErr := o.payments.Charge(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen {
		// Session was reset while the charge was in flight.
		return o.sess, nil
	}
	o.busy = false
	o.sess.UpdatedAt = o.clock().UTC()
	if chargeErr != nil {
		o.sess.PaymentApproved = false
		o.sess.ErrorMessage = chargeErr.Error()
		o.sess.Phase = PhasePaymentResult
		return o.sess, nil
	}
	o.sess.PaymentApproved = true
	o.sess.ReceiptID = receipt.ID
	o.sess.ErrorMessage = ""
	o.sess.Phase = PhasePaymentResult
	return o.sess, nil
}

// AcknowledgePaymentResult leaves the payment-result screen. A declined
// payment goes back to plan selection for another try; an approved one
// places the call and starts polling.
func (o *Orchestrator) AcknowledgePaymentResult(ctx context.Context) (Session, error) {
	o.mu.Lock()
	if o.busy || o.sess.Phase != PhasePaymentResult {
		s := o.sess
		o.mu.Unlock()
		return s, ErrInvalidPhase
	}
	if !o.sess.PaymentApproved {
		o.sess.Phase = PhasePlanSelection
		o.sess.UpdatedAt = o.clock().UTC()
		s := o.sess
		o.mu.Unlock()
		return s, nil
	}

	o.sess.Phase = PhaseInitiating
	o.sess.UpdatedAt = o.clock().UTC()
	req := dialer.CallRequest{
		CountryCode:        o.sess.Submission.CountryCode,
		Phone:              o.sess.Submission.Phone,
		TargetName:         o.sess.Submission.TargetName,
		TargetJob:          o.sess.Submission.TargetJob,
		FunFacts:           o.sess.Submission.FunFacts,
		MaxDurationMinutes: o.sess.Agent.MaxDurationMinutes(),
		Record:             o.sess.Config.Recording,
	}
	gen := o.gen
	o.busy = true
	o.mu.Unlock()

	callID, err := o.dial.InitiateCall(ctx, req)

	o.mu.Lock()
	if o.gen != gen {
		o.mu.Unlock()
		if err == nil {
			// The call was placed but its session is gone. Nothing owns it
			// anymore; log so the orphan is at least visible.
			o.log.Warn("orphaned call after reset", "call_id", callID)
		}
		return o.Snapshot(), nil
	}
	o.busy = false
	now := o.clock().UTC()
	o.sess.UpdatedAt = now

	if err != nil {
		o.sess.Phase = PhaseFailed
		o.sess.ErrorMessage = err.Error()
		o.gateHeld = false
		s := o.sess
		o.mu.Unlock()
		o.releaseGate()
		return s, nil
	}

	o.sess.CallID = callID
	o.sess.Phase = PhasePolling
	o.sess.ErrorMessage = ""
	// The form input has served its purpose; drop it.
	o.sess.Submission = Submission{}
	p := o.newPoller(o, o.sess.Config.Recording)
	o.poll = p
	s := o.sess
	o.mu.Unlock()

	p.Start(callID)
	go o.bumpCounter()
	return s, nil
}

// Reset abandons the session and returns to idle. Safe in any phase.
func (o *Orchestrator) Reset() Session {
	o.mu.Lock()
	o.gen++
	o.busy = false
	p := o.poll
	o.poll = nil
	held := o.gateHeld
	o.gateHeld = false
	o.paymentKey = ""
	o.sess = Session{Phase: PhaseIdle, UpdatedAt: o.clock().UTC()}
	s := o.sess
	o.mu.Unlock()

	if p != nil {
		p.Stop()
	}
	if held {
		o.releaseGate()
	}
	return s
}

// OnStatus folds a poll result into the session. Results for an older call
// id are stale and dropped.
func (o *Orchestrator) OnStatus(callID string, d dialer.CallDetails) {
	o.mu.Lock()
	if o.sess.CallID != callID || (o.sess.Phase != PhasePolling && o.sess.Phase != PhaseCompleted) {
		o.mu.Unlock()
		return
	}
	hadRecording := o.sess.Details.RecordingURL != ""
	o.sess.Status = d.Status
	o.sess.Details = d
	o.sess.UpdatedAt = o.clock().UTC()

	justCompleted := d.Status == dialer.StatusCompleted && o.sess.Phase != PhaseCompleted
	if justCompleted {
		o.sess.Phase = PhaseCompleted
		o.gateHeld = false
	}
	// A recording URL can show up after the call already completed; the
	// stored record then needs a backfill.
	lateRecording := !justCompleted && o.sess.Phase == PhaseCompleted &&
		!hadRecording && d.RecordingURL != ""
	rec := o.buildRecordLocked(d)
	o.mu.Unlock()

	if justCompleted {
		o.releaseGate()
		go o.appendHistory(rec)
	}
	if lateRecording {
		go o.backfillRecording(callID, d.RecordingURL)
	}
}

// OnElapsed updates the in-call timer.
func (o *Orchestrator) OnElapsed(callID string, seconds int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sess.CallID != callID || o.sess.Phase != PhasePolling {
		return
	}
	o.sess.ElapsedSeconds = seconds
	o.sess.UpdatedAt = o.clock().UTC()
}

// OnRecordingUnavailable notes that the recording never materialized. The
// call still counts as completed.
func (o *Orchestrator) OnRecordingUnavailable(callID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sess.CallID != callID || o.sess.Phase != PhaseCompleted {
		return
	}
	o.sess.Notice = "Recording unavailable for this call."
	o.sess.UpdatedAt = o.clock().UTC()
}

func (o *Orchestrator) buildRecordLocked(d dialer.CallDetails) history.Record {
	return history.Record{
		ID:              uuid.NewString(),
		VisitorID:       o.visitorID,
		CallID:          o.sess.CallID,
		AgentID:         o.sess.Agent.ID,
		AmountMinor:     o.sess.Quote.TotalMinor,
		Currency:        o.sess.Agent.Currency,
		Status:          string(d.Status),
		DurationSeconds: d.CorrectedDuration,
		EndedByAgent:    d.EndedByAgent(),
		RecordingURL:    d.RecordingURL,
		City:            d.Variables.City,
		State:           d.Variables.State,
		AnsweredBy:      d.AnsweredBy,
		CreatedAt:       o.clock().UTC(),
	}
}

func (o *Orchestrator) appendHistory(rec history.Record) {
	if o.hist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := o.hist.Append(ctx, rec); err != nil {
		o.log.Error("history append failed", "call_id", rec.CallID, "error", err)
	}
}

func (o *Orchestrator) backfillRecording(callID, recordingURL string) {
	if o.hist == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := o.hist.UpdateRecording(ctx, callID, recordingURL); err != nil {
		o.log.Error("recording backfill failed", "call_id", callID, "error", err)
	}
}

func (o *Orchestrator) bumpCounter() {
	if o.counter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := o.counter.Increment(ctx); err != nil {
		o.log.Warn("roast counter increment failed", "error", err)
	}
}

func (o *Orchestrator) releaseGate() {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := o.gate.Release(ctx, o.visitorID); err != nil {
		o.log.Warn("gate release failed", "error", err)
	}
}

func trimSubmission(sub Submission) Submission {
	sub.YourName = strings.TrimSpace(sub.YourName)
	sub.TargetName = strings.TrimSpace(sub.TargetName)
	sub.TargetJob = strings.TrimSpace(sub.TargetJob)
	sub.FunFacts = strings.TrimSpace(sub.FunFacts)
	sub.CountryCode = strings.TrimSpace(sub.CountryCode)
	sub.Phone = strings.TrimSpace(sub.Phone)
	return sub
}

func validateSubmission(sub Submission) error {
	required := []struct {
		field string
		value string
	}{
		{"your_name", sub.YourName},
		{"target_name", sub.TargetName},
		{"target_job", sub.TargetJob},
		{"fun_facts", sub.FunFacts},
		{"country_code", sub.CountryCode},
		{"phone", sub.Phone},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Message: "is required"}
		}
	}
	if !validPhone(sub.Phone) {
		return &ValidationError{Field: "phone", Message: "must be 7-15 digits"}
	}
	if !validCountryCode(sub.CountryCode) {
		return &ValidationError{Field: "country_code", Message: "must look like +1"}
	}
	for _, r := range []struct {
		field string
		value string
	}{
		{"fun_facts", sub.FunFacts},
		{"target_name", sub.TargetName},
		{"target_job", sub.TargetJob},
	} {
		if err := moderation.Scan(r.value); err != nil {
			return &ValidationError{Field: r.field, Message: err.Error()}
		}
	}
	return nil
}

func validPhone(s string) bool {
	if len(s) < 7 || len(s) > 15 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func validCountryCode(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if len(s) < 1 || len(s) > 3 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
