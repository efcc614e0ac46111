package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"roast-platform/internal/agents"
	"roast-platform/internal/dialer"
	"roast-platform/internal/history"
	"roast-platform/internal/payment"
	"roast-platform/internal/poller"
	"roast-platform/internal/stats"
)

// sequenceClient replays a call-status progression, repeating the last entry.
type sequenceClient struct {
	mu    sync.Mutex
	steps []dialer.CallDetails
	calls int
}

func (c *sequenceClient) GetCallStatus(ctx context.Context, callID string) (dialer.CallDetails, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.calls
	if i >= len(c.steps) {
		i = len(c.steps) - 1
	}
	c.calls++
	return c.steps[i], nil
}

func (c *sequenceClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Drives the whole flow with a real poller against a scripted proxy: the
// session must walk queued -> ringing -> in-progress -> completed, count
// elapsed seconds from in-progress, and surface the recording URL.
func TestFlowWithRealPoller(t *testing.T) {
	status := &sequenceClient{steps: []dialer.CallDetails{
		{Status: dialer.StatusQueued},
		{Status: dialer.StatusRinging},
		{Status: dialer.StatusInProgress},
		{Status: dialer.StatusInProgress},
		{Status: dialer.StatusInProgress},
		{Status: dialer.StatusInProgress},
		{Status: dialer.StatusCompleted, CorrectedDuration: 95, CallEndedBy: "ASSISTANT", RecordingURL: "https://cdn.example/rec.mp3"},
	}}
	hist := history.NewMemoryRepository()

	orch := New(Config{
		VisitorID: "vis-1",
		Dialer:    &fakeDialer{callID: "call-123"},
		Payments:  payment.NewSimulatedProcessor(),
		NewPoller: func(sink poller.Sink, expectRecording bool) CallPoller {
			return poller.New(status, sink, poller.Options{
				Interval:        10 * time.Millisecond,
				ExpectRecording: expectRecording,
			}, nil)
		},
		Counter: stats.NewMemoryCounter(0),
		History: hist,
	})
	ctx := context.Background()

	if _, err := orch.Submit(ctx, validSubmission()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := orch.ConfirmConsent(); err != nil {
		t.Fatalf("consent: %v", err)
	}
	catalog := agents.NewDefaultCatalog()
	a, err := catalog.Get(ctx, "hitman")
	if err != nil {
		t.Fatalf("agent: %v", err)
	}
	if _, err := orch.SelectPlan(a); err != nil {
		t.Fatalf("select plan: %v", err)
	}
	if _, err := orch.ConfirmPayment(ctx, PaymentInput{Recording: true}); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	s, err := orch.AcknowledgePaymentResult(ctx)
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if s.Phase != PhasePolling {
		t.Fatalf("expected polling, got %s", s.Phase)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		s = orch.Snapshot()
		if s.Phase == PhaseCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("call never completed, stuck in %s/%s", s.Phase, s.Status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if s.Status != dialer.StatusCompleted {
		t.Fatalf("expected completed status, got %q", s.Status)
	}
	if s.Details.RecordingURL == "" {
		t.Fatalf("recording URL lost")
	}
	if !s.Details.EndedByAgent() {
		t.Fatalf("expected agent-ended call")
	}
	if s.ElapsedSeconds < 1 {
		t.Fatalf("elapsed never ticked from in-progress")
	}

	// Polling stops once completed (recording was already present).
	n := status.callCount()
	time.Sleep(60 * time.Millisecond)
	if got := status.callCount(); got != n {
		t.Fatalf("proxy still being polled after completion: %d -> %d", n, got)
	}

	// The terminal call landed in history.
	deadline = time.Now().Add(2 * time.Second)
	for {
		if rec, err := hist.GetByCallID(ctx, "call-123"); err == nil {
			if rec.DurationSeconds != 95 || rec.RecordingURL == "" {
				t.Fatalf("unexpected history record: %+v", rec)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("history record never appeared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
