package service

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/zias-project/zias/server/internal/metrics"
	"github.com/zias-project/zias/server/internal/zias/store"
	"github.com/zias-project/zias/server/internal/zias/types"
)

// Outcome classifies what the engine did with one offered ping.
type Outcome int

const (
	// OutcomePending: the ping was installed (or re-installed) as the
	// waiting half of a future pair.
	OutcomePending Outcome = iota
	// OutcomeRefreshed: repeated ping from the same device, treated as
	// a liveness refresh of the pending half.
	OutcomeRefreshed
	// OutcomeMatched: a pair resolved and this pass emitted the event.
	OutcomeMatched
	// OutcomeDuplicate: the pair was already resolved by another pass;
	// this pass no-opped.
	OutcomeDuplicate
	// OutcomeSuppressed: discarded by the anti-tailgating debounce.
	OutcomeSuppressed
	// OutcomeConflict: a pair matched but no direction could be
	// resolved; recorded for audit, no event emitted.
	OutcomeConflict
	// OutcomeObserved: informational only (BLE "approaching").
	OutcomeObserved
	// OutcomeFailed: the decision could not be made durable; the
	// pending state is kept so a later pass retries.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeRefreshed:
		return "refreshed"
	case OutcomeMatched:
		return "matched"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeSuppressed:
		return "suppressed"
	case OutcomeConflict:
		return "conflict"
	case OutcomeObserved:
		return "observed"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

type matchKey struct {
	cluster  int
	identity string
}

type pendingMatch struct {
	ping        types.SensorPing
	installedAt time.Time
}

// keyLock is a per-key mutex plus the last time any pass touched the
// key, so the janitor can drop locks for keys that went quiet.
type keyLock struct {
	mu       sync.Mutex
	lastUsed time.Time
}

// Correlator pairs sensor pings from different devices of the same
// cluster, for the same identity, within the correlation window, and
// turns each pair into exactly one directional attendance event.
//
// Both execution modes go through here: the streaming path calls Ingest
// per live message, the batch sweep re-offers stored unclaimed pings via
// Offer. Claim-and-decide runs under a per-key lock, and the ping
// store's compare-and-set claim guarantees a single winner even across
// process restarts.
type Correlator struct {
	pings    store.PingStore
	events   store.EventStore
	registry *DeviceRegistry
	presence *PresenceManager
	debounce *Debouncer
	logger   *log.Logger
	window   time.Duration

	mu      sync.Mutex // guards locks and pending maps
	locks   map[matchKey]*keyLock
	pending map[matchKey]*pendingMatch

	cancel context.CancelFunc
	done   chan struct{}
}

func NewCorrelator(
	pings store.PingStore,
	events store.EventStore,
	registry *DeviceRegistry,
	presence *PresenceManager,
	debounce *Debouncer,
	window time.Duration,
	logger *log.Logger,
) *Correlator {
	return &Correlator{
		pings:    pings,
		events:   events,
		registry: registry,
		presence: presence,
		debounce: debounce,
		logger:   logger,
		window:   window,
		locks:    make(map[matchKey]*keyLock),
		pending:  make(map[matchKey]*pendingMatch),
		done:     make(chan struct{}),
	}
}

// Ingest stores a fresh ping and feeds it to the engine. Streaming
// entry point; the batch sweep uses Offer on already-stored pings.
func (c *Correlator) Ingest(ctx context.Context, ping types.SensorPing) (Outcome, error) {
	id, err := c.pings.Insert(ctx, ping)
	if err != nil {
		return OutcomeFailed, err
	}
	ping.ID = id
	metrics.PingsIngested.WithLabelValues(string(ping.Modality)).Inc()
	return c.Offer(ctx, ping)
}

// Offer runs claim-and-decide for one ping. Safe for concurrent use;
// distinct (cluster, identity) keys proceed fully in parallel.
func (c *Correlator) Offer(ctx context.Context, ping types.SensorPing) (Outcome, error) {
	if ping.Claimed {
		return OutcomeDuplicate, nil
	}
	if c.debounce.Suppressed(ping.IdentityKey, ping.Timestamp) {
		metrics.PingsSuppressed.Inc()
		// Discarded for good: claim the row so a sweep after a restart,
		// when the debounce memory is gone, cannot resurrect it.
		if ping.ID != 0 {
			if err := c.pings.Claim(ctx, ping.ID); err != nil {
				c.logger.Printf("correlator: claim suppressed ping %d: %v", ping.ID, err)
			}
		}
		return OutcomeSuppressed, nil
	}

	k := matchKey{cluster: ping.ClusterID, identity: ping.IdentityKey}
	unlock := c.lockKey(k)
	defer unlock()

	p := c.getPending(k)
	switch {
	case p == nil:
		c.setPending(k, ping)
		return OutcomePending, nil

	case absDiff(ping.Timestamp, p.ping.Timestamp) >= c.window:
		// The old half aged out with no complement. Not an error,
		// just a one-sided detection.
		c.logger.Printf("correlator: unmatched ping expired cluster=%d identity=%s device=%s",
			k.cluster, k.identity, p.ping.DeviceID)
		metrics.PendingExpired.Inc()
		c.setPending(k, ping)
		return OutcomePending, nil

	case p.ping.DeviceID == ping.DeviceID:
		// Repeated ping from the same sensor: liveness refresh only.
		if ping.Timestamp.After(p.ping.Timestamp) {
			p.ping.Timestamp = ping.Timestamp
		}
		return OutcomeRefreshed, nil

	default:
		return c.resolve(ctx, k, p.ping, ping)
	}
}

// resolve turns a matched pair into at most one durable event. Called
// with the key lock held.
func (c *Correlator) resolve(ctx context.Context, k matchKey, first, second types.SensorPing) (Outcome, error) {
	a, b := first, second
	if b.Timestamp.Before(a.Timestamp) {
		a, b = b, a
	}

	dir, ok := c.orient(ctx, a, b)
	if !ok {
		c.logger.Printf("correlator: AUDIT direction conflict cluster=%d identity=%s devices=%s,%s",
			k.cluster, k.identity, a.DeviceID, b.DeviceID)
		metrics.MatchConflicts.Inc()
		// Claim the pair anyway so subsequent sweeps do not re-raise
		// the same conflict on every pass.
		if _, err := c.pings.ClaimPair(ctx, a.ID, b.ID); err != nil {
			return OutcomeConflict, err
		}
		c.clearPending(k)
		return OutcomeConflict, nil
	}

	modality := types.ModalityPIR
	if a.Modality == types.ModalityRFID || b.Modality == types.ModalityRFID {
		modality = types.ModalityRFID
	}

	ev := types.AttendanceEvent{
		EventID:     types.EventID(k.identity, strconv.Itoa(k.cluster), b.Timestamp, dir),
		IdentityKey: k.identity,
		Room:        c.roomFor(ctx, a, b, k.cluster),
		Direction:   dir,
		Timestamp:   b.Timestamp,
		Confidence:  types.ConfidencePairedSensors,
		Modality:    modality,
	}

	// Durable append first: if we crash before claiming, the sweep
	// re-resolves the same pair to the same event id and the sink
	// ignores the duplicate.
	inserted, err := appendWithRetry(ctx, c.logger, c.events, ev)
	if err != nil {
		// Keep the pending half armed; the sweep retries the decision
		// once the sink recovers.
		return OutcomeFailed, err
	}

	claimed, err := c.pings.ClaimPair(ctx, a.ID, b.ID)
	if err != nil {
		// Event is already durable; the claim will be retried by the
		// sweep and collapse onto the same event id.
		c.logger.Printf("correlator: claim pair (%d,%d): %v", a.ID, b.ID, err)
	}
	c.clearPending(k)

	if inserted || claimed {
		c.debounce.MarkEmitted(k.identity, ev.Timestamp)
		if perr := c.presence.Apply(ctx, ev); perr != nil {
			c.logger.Printf("correlator: presence update identity=%s: %v", k.identity, perr)
		}
	}

	if !inserted {
		return OutcomeDuplicate, nil
	}

	metrics.EventsEmitted.WithLabelValues(string(dir), "paired").Inc()
	c.logger.Printf("attendance: %s identity=%s room=%s cluster=%d confidence=%.2f",
		dir, k.identity, ev.Room, k.cluster, ev.Confidence)
	return OutcomeMatched, nil
}

// orient resolves the crossing direction from the registered role of
// the earlier-firing device. Both devices must carry opposite non-neutral
// roles; anything else (tie, neutral, unregistered) is a conflict.
func (c *Correlator) orient(ctx context.Context, earlier, later types.SensorPing) (types.Direction, bool) {
	da := c.roleDirection(ctx, earlier.DeviceID)
	db := c.roleDirection(ctx, later.DeviceID)

	if da == types.RoleNeutral || db == types.RoleNeutral || da == db {
		return "", false
	}
	if da == types.RoleEntryFacing {
		return types.DirectionEntry, true
	}
	return types.DirectionExit, true
}

func (c *Correlator) roleDirection(ctx context.Context, deviceID string) types.RoleDirection {
	role, ok, err := c.registry.Role(ctx, deviceID)
	if err != nil {
		c.logger.Printf("correlator: role lookup %s: %v", deviceID, err)
		return types.RoleNeutral
	}
	if !ok {
		return types.RoleNeutral
	}
	return role.Direction
}

// roomFor picks the room for an event: the earlier device's registered
// room, then the later's, then any room registered for the cluster,
// then a synthetic cluster label.
func (c *Correlator) roomFor(ctx context.Context, a, b types.SensorPing, clusterID int) string {
	for _, deviceID := range []string{a.DeviceID, b.DeviceID} {
		if role, ok, err := c.registry.Role(ctx, deviceID); err == nil && ok && role.Room != "" {
			return role.Room
		}
	}
	if room, ok, err := c.registry.RoomForCluster(ctx, clusterID); err == nil && ok {
		return room
	}
	return "cluster_" + strconv.Itoa(clusterID)
}

// Start begins the background janitor that expires pending halves which
// never found a complement. Call Stop to shut it down.
func (c *Correlator) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.janitor(ctx)
}

// Stop signals the janitor to exit and waits for it to finish.
// A no-op when Start was never called.
func (c *Correlator) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

func (c *Correlator) janitor(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			c.expirePending(now)
			c.debounce.Prune(now)
		}
	}
}

// expirePending drops pending halves installed longer than a window
// ago. Lazy expiry in Offer handles keys that keep receiving pings;
// this catches the ones that go quiet. Idle key locks are dropped on
// the same pass so the maps stay bounded by active keys.
func (c *Correlator) expirePending(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, p := range c.pending {
		if now.Sub(p.installedAt) >= c.window {
			c.logger.Printf("correlator: unmatched ping expired cluster=%d identity=%s device=%s",
				k.cluster, k.identity, p.ping.DeviceID)
			metrics.PendingExpired.Inc()
			delete(c.pending, k)
		}
	}

	for k, l := range c.locks {
		if c.pending[k] != nil || now.Sub(l.lastUsed) < c.window {
			continue
		}
		// TryLock proves no pass holds the mutex; lockKey re-checks the
		// map under c.mu, so deleting here cannot orphan a holder.
		if l.mu.TryLock() {
			l.mu.Unlock()
			delete(c.locks, k)
		}
	}
}

// lockKey acquires the per-key mutex. Distinct keys never contend.
func (c *Correlator) lockKey(k matchKey) func() {
	c.mu.Lock()
	l, ok := c.locks[k]
	if !ok {
		l = &keyLock{}
		c.locks[k] = l
	}
	l.lastUsed = time.Now().UTC()
	c.mu.Unlock()

	l.mu.Lock()
	return l.mu.Unlock
}

func (c *Correlator) getPending(k matchKey) *pendingMatch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[k]
}

func (c *Correlator) setPending(k matchKey, ping types.SensorPing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[k] = &pendingMatch{ping: ping, installedAt: time.Now().UTC()}
}

func (c *Correlator) clearPending(k matchKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, k)
}

func absDiff(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
