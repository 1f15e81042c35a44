package service

import (
	"context"
	"log"
	"time"

	"github.com/zias-project/zias/server/internal/zias/store"
)

// RetentionPruner periodically deletes raw sensor pings and beacon
// sightings older than a configurable retention period. It runs as a
// background goroutine and is safe to stop via its context or the Stop
// method.
//
// A retention of 0 disables pruning entirely.
type RetentionPruner struct {
	pings     store.PingStore
	ble       store.BLEEventStore
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// PrunerConfig holds the parameters for NewRetentionPruner.
type PrunerConfig struct {
	// RetentionDays is how many days of raw signal history to keep.
	// 0 means keep everything (pruner will not start).
	RetentionDays int

	// IntervalHours is how often the pruner runs. Defaults to 6.
	IntervalHours int
}

// NewRetentionPruner creates a pruner but does not start it.
// Call Start to begin the background loop.
func NewRetentionPruner(pings store.PingStore, ble store.BLEEventStore, cfg PrunerConfig, logger *log.Logger) *RetentionPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &RetentionPruner{
		pings:     pings,
		ble:       ble,
		retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the background pruning loop. It runs an immediate prune
// on startup, then repeats on the configured interval. The loop exits
// when ctx is cancelled or Stop is called.
func (p *RetentionPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Printf("retention pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Printf("retention pruner started (retention=%dd, interval=%dh)",
		int(p.retention.Hours()/24), int(p.interval.Hours()))
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *RetentionPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *RetentionPruner) loop(ctx context.Context) {
	defer close(p.done)

	// Run immediately on startup to clean up any backlog.
	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *RetentionPruner) prune(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-p.retention)

	pings, err := p.pings.PruneOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Printf("ping prune error: %v", err)
	}

	var sightings int64
	if p.ble != nil {
		sightings, err = p.ble.PruneOlderThan(ctx, cutoff)
		if err != nil {
			p.logger.Printf("ble prune error: %v", err)
		}
	}

	if pings > 0 || sightings > 0 {
		p.logger.Printf("retention prune: deleted %d pings, %d sightings older than %s",
			pings, sightings, cutoff.Format(time.RFC3339))
	}
}
