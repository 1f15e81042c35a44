package service

import (
	"context"
	"log"
	"time"

	"github.com/zias-project/zias/server/internal/zias/store"
)

// Sweeper is the batch execution mode: it periodically re-scans
// unclaimed pings over a lookback window and re-offers them to the same
// correlator the streaming path uses. Pairs the stream already resolved
// no-op through the claim discipline; pairs the stream missed (e.g.
// because the process restarted between halves) get resolved here.
type Sweeper struct {
	pings      store.PingStore
	correlator *Correlator
	interval   time.Duration
	lookback   time.Duration
	logger     *log.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

// SweeperConfig holds the parameters for NewSweeper.
type SweeperConfig struct {
	// Interval is how often the sweep runs.
	Interval time.Duration

	// Lookback is how far back the sweep re-scans unclaimed pings.
	// Should be at least twice the correlation window.
	Lookback time.Duration
}

// NewSweeper creates a sweeper but does not start it. Call Start to
// begin the background loop.
func NewSweeper(pings store.PingStore, c *Correlator, cfg SweeperConfig, logger *log.Logger) *Sweeper {
	return &Sweeper{
		pings:      pings,
		correlator: c,
		interval:   cfg.Interval,
		lookback:   cfg.Lookback,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start begins the background sweep loop. Runs an immediate sweep on
// startup to catch pings left over from a previous run, then repeats on
// the configured interval. Exits when ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Printf("sweeper disabled (interval=0)")
		close(s.done)
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)

	go s.loop(ctx)

	s.logger.Printf("sweeper started (interval=%s, lookback=%s)", s.interval, s.lookback)
}

// Stop signals the sweeper to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *Sweeper) loop(ctx context.Context) {
	defer close(s.done)

	s.runSweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

func (s *Sweeper) runSweep(ctx context.Context) {
	matched, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Printf("sweep error: %v", err)
		return
	}
	if matched > 0 {
		s.logger.Printf("sweep: resolved %d pairs", matched)
	}
}

// Sweep runs one pass over unclaimed pings, oldest first, and returns
// how many pairs this pass resolved.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.lookback)

	pings, err := s.pings.UnclaimedSince(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	matched := 0
	for _, p := range pings {
		out, err := s.correlator.Offer(ctx, p)
		if err != nil {
			s.logger.Printf("sweep: offer ping %d: %v", p.ID, err)
			continue
		}
		if out == OutcomeMatched {
			matched++
		}
	}
	return matched, nil
}
