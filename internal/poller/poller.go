// Package poller watches one provider call until it finishes.
//
// The provider exposes no webhooks on the proxy surface, so call progress is
// observed by polling. Status moves strictly forward (queued, ringing,
// in-progress, completed); a response that would move it backwards is a stale
// read and is dropped. Once completed is seen the call never reopens.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"roast-platform/internal/dialer"
)

// StatusClient is the slice of the dialer client the poller needs.
type StatusClient interface {
	GetCallStatus(ctx context.Context, callID string) (dialer.CallDetails, error)
}

// Sink receives everything the poller observes. All notifications for one
// poller are delivered sequentially; implementations own their own locking.
type Sink interface {
	// OnStatus delivers a status change together with the latest call
	// details. It fires at most once per distinct status, plus once more if
	// a recording URL arrives after completion.
	OnStatus(callID string, d dialer.CallDetails)

	// OnElapsed ticks once per second while the call is in progress.
	OnElapsed(callID string, seconds int)

	// OnRecordingUnavailable fires when a completed call that was supposed
	// to produce a recording never did within the grace window.
	OnRecordingUnavailable(callID string)
}

const (
	defaultInterval      = time.Second
	defaultGraceAttempts = 3
)

// Options tune one poller. Zero values fall back to production defaults.
type Options struct {
	// Interval between status fetches and between elapsed ticks.
	Interval time.Duration

	// GraceAttempts is how many extra fetches are allowed after completed
	// while waiting for a recording URL.
	GraceAttempts int

	// ExpectRecording keeps the poller alive briefly after completion when
	// the plan includes a recording.
	ExpectRecording bool
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = defaultInterval
	}
	if o.GraceAttempts <= 0 {
		o.GraceAttempts = defaultGraceAttempts
	}
	return o
}

// Poller drives the status loop for a single call. Start is idempotent and a
// stopped poller stays stopped; each call gets its own Poller.
type Poller struct {
	client StatusClient
	sink   Sink
	opts   Options
	log    *slog.Logger

	mu            sync.Mutex
	running       bool
	stopped       bool
	callID        string
	cancel        context.CancelFunc
	elapsedCancel context.CancelFunc
	lastRank      int
	completed     bool
	graceLeft     int
	elapsed       int
}

func New(client StatusClient, sink Sink, opts Options, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		client: client,
		sink:   sink,
		opts:   opts.withDefaults(),
		log:    log,
	}
}

// Start begins polling. The first fetch happens immediately, then every
// interval. Calling Start while the loop is running, or after Stop, is a
// no-op.
func (p *Poller) Start(callID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || p.stopped {
		return
	}
	p.running = true
	p.callID = callID
	p.lastRank = 0
	p.completed = false
	p.graceLeft = 0
	p.elapsed = 0

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.loop(ctx)
}

// Stop cancels the status loop and the elapsed ticker. It does not wait for
// in-flight fetches; their results are discarded.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
}

func (p *Poller) stopLocked() {
	p.running = false
	p.stopped = true
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.stopElapsedLocked()
}

func (p *Poller) stopElapsedLocked() {
	if p.elapsedCancel != nil {
		p.elapsedCancel()
		p.elapsedCancel = nil
	}
}

func (p *Poller) loop(ctx context.Context) {
	p.check(ctx)

	t := time.NewTicker(p.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.check(ctx)
		}
	}
}

func (p *Poller) check(ctx context.Context) {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	callID := p.callID
	p.mu.Unlock()

	d, err := p.client.GetCallStatus(ctx, callID)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn("status poll failed", "call_id", callID, "error", err)
		}
		return
	}

	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}

	var (
		deliver     bool
		unavailable bool
	)
	if p.completed {
		deliver, unavailable = p.applyGraceLocked(d)
	} else {
		deliver = p.applyStatusLocked(d)
	}
	p.mu.Unlock()

	if deliver {
		p.sink.OnStatus(callID, d)
	}
	if unavailable {
		p.sink.OnRecordingUnavailable(callID)
	}
}

// applyStatusLocked folds a fresh status read into the poller state and
// reports whether the sink should hear about it.
func (p *Poller) applyStatusLocked(d dialer.CallDetails) bool {
	rank := d.Status.Rank()
	if rank == 0 {
		p.log.Warn("unknown call status", "call_id", p.callID, "status", d.Status)
		return false
	}
	if rank < p.lastRank {
		return false
	}
	advanced := rank > p.lastRank
	p.lastRank = rank

	if d.Status == dialer.StatusInProgress && p.elapsedCancel == nil {
		ectx, cancel := context.WithCancel(context.Background())
		p.elapsedCancel = cancel
		go p.elapsedLoop(ectx)
	}

	if d.Status == dialer.StatusCompleted {
		p.completed = true
		p.stopElapsedLocked()
		if p.opts.ExpectRecording && d.RecordingURL == "" {
			p.graceLeft = p.opts.GraceAttempts
		} else {
			p.stopLocked()
		}
		return true
	}
	return advanced
}

// applyGraceLocked handles fetches after completed: the status can no longer
// change, only the recording URL can turn up.
func (p *Poller) applyGraceLocked(d dialer.CallDetails) (deliver, unavailable bool) {
	if d.RecordingURL != "" {
		p.stopLocked()
		return true, false
	}
	p.graceLeft--
	if p.graceLeft <= 0 {
		p.stopLocked()
		return false, true
	}
	return false, false
}

func (p *Poller) elapsedLoop(ctx context.Context) {
	t := time.NewTicker(p.opts.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.mu.Lock()
			if !p.running || p.completed {
				p.mu.Unlock()
				return
			}
			p.elapsed++
			n := p.elapsed
			callID := p.callID
			p.mu.Unlock()
			p.sink.OnElapsed(callID, n)
		}
	}
}
