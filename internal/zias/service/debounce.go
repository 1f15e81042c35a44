package service

import (
	"sync"
	"time"
)

// Debouncer implements the anti-tailgating delay: once an attendance
// event has been emitted for an identity, further pings for that
// identity are suppressed until the delay elapses. Shared between the
// paired-sensor path and the BLE direct-report path so a crossing over
// one path also silences the other.
type Debouncer struct {
	delay time.Duration

	mu       sync.Mutex
	lastEmit map[string]time.Time
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:    delay,
		lastEmit: make(map[string]time.Time),
	}
}

// Suppressed reports whether a ping observed at the given time falls
// inside the delay after the identity's last emitted event. Out-of-order
// pings stamped before the emission are suppressed too.
func (d *Debouncer) Suppressed(identityKey string, at time.Time) bool {
	if d.delay <= 0 {
		return false
	}
	d.mu.Lock()
	last, ok := d.lastEmit[identityKey]
	d.mu.Unlock()
	return ok && at.Sub(last) < d.delay
}

// MarkEmitted records the emission time for an identity. Keeps the
// latest time if emissions arrive out of order.
func (d *Debouncer) MarkEmitted(identityKey string, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if last, ok := d.lastEmit[identityKey]; !ok || at.After(last) {
		d.lastEmit[identityKey] = at
	}
}

// Prune drops entries whose delay has fully elapsed; they can no longer
// suppress anything. Keeps the map bounded by recently active
// identities.
func (d *Debouncer) Prune(now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for id, last := range d.lastEmit {
		if now.Sub(last) >= d.delay {
			delete(d.lastEmit, id)
		}
	}
}
