package sync

import (
	"context"
	"errors"
	"log/slog"
	gosync "sync"
	"time"
)

// Poller runs staleness-gated sync passes on a fixed interval and on
// demand until stopped.
type Poller struct {
	orch      *Orchestrator
	interval  time.Duration
	logger    *slog.Logger
	triggerCh chan Request
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        gosync.Mutex
	running   bool
}

// NewPoller creates a Poller. A non-positive interval disables periodic
// passes; Trigger still works.
func NewPoller(o *Orchestrator, interval time.Duration, logger *slog.Logger) *Poller {
	return &Poller{
		orch:      o,
		interval:  interval,
		logger:    logger,
		triggerCh: make(chan Request, 1),
	}
}

// Start launches the polling goroutine. It is a no-op when already running.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go p.loop(ctx, p.stopCh, p.doneCh)
}

// Stop halts polling and waits for an in-flight pass to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	done := p.doneCh
	p.running = false
	p.mu.Unlock()

	<-done
}

// Trigger requests an immediate pass. It reports false when a request is
// already queued.
func (p *Poller) Trigger(req Request) bool {
	select {
	case p.triggerCh <- req:
		return true
	default:
		return false
	}
}

func (p *Poller) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var tick <-chan time.Time
	if p.interval > 0 {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-tick:
			p.runPass(ctx, Request{})
		case req := <-p.triggerCh:
			p.runPass(ctx, req)
		}
	}
}

func (p *Poller) runPass(ctx context.Context, req Request) {
	resp, err := p.orch.Run(ctx, req)
	if errors.Is(err, ErrSyncInProgress) {
		p.logger.Debug("poll skipped, sync already running")
		return
	}
	if err != nil {
		p.logger.Error("scheduled sync failed", "error", err)
		return
	}
	if resp.Failed() {
		p.logger.Warn("scheduled sync finished with failures", "run_id", resp.RunID)
	}
}
