package service_test

import (
	"testing"
	"time"

	"github.com/zias-project/zias/server/internal/zias/service"
)

func TestDebouncerSuppressesWithinDelay(t *testing.T) {
	d := service.NewDebouncer(3 * time.Second)

	if d.Suppressed("student-1", baseTime) {
		t.Error("identity with no prior emission must not be suppressed")
	}

	d.MarkEmitted("student-1", baseTime)

	if !d.Suppressed("student-1", baseTime.Add(time.Second)) {
		t.Error("ping inside the delay must be suppressed")
	}
	if !d.Suppressed("student-1", baseTime.Add(3*time.Second-time.Millisecond)) {
		t.Error("ping just inside the delay must be suppressed")
	}
	if d.Suppressed("student-1", baseTime.Add(3*time.Second)) {
		t.Error("ping at the delay boundary must pass")
	}
	if d.Suppressed("student-2", baseTime.Add(time.Second)) {
		t.Error("other identities are independent")
	}
}

func TestDebouncerOutOfOrderEmissions(t *testing.T) {
	d := service.NewDebouncer(3 * time.Second)

	d.MarkEmitted("student-1", baseTime.Add(5*time.Second))
	d.MarkEmitted("student-1", baseTime) // late arrival, must not rewind

	if !d.Suppressed("student-1", baseTime.Add(6*time.Second)) {
		t.Error("latest emission time must win")
	}
}

func TestDebouncerDisabled(t *testing.T) {
	d := service.NewDebouncer(0)

	d.MarkEmitted("student-1", baseTime)
	if d.Suppressed("student-1", baseTime.Add(time.Millisecond)) {
		t.Error("zero delay disables suppression")
	}
}

func TestDebouncerPruneDropsElapsedEntries(t *testing.T) {
	d := service.NewDebouncer(3 * time.Second)

	d.MarkEmitted("student-1", baseTime)
	d.MarkEmitted("student-2", baseTime.Add(10*time.Second))

	d.Prune(baseTime.Add(11 * time.Second))

	// student-1's delay elapsed before the prune, so the entry is gone
	// and could not have suppressed anything anyway. student-2's entry
	// is still live and must survive.
	if d.Suppressed("student-1", baseTime.Add(11*time.Second)) {
		t.Error("elapsed entry must not suppress after prune")
	}
	if !d.Suppressed("student-2", baseTime.Add(12*time.Second)) {
		t.Error("live entry must survive the prune")
	}
}
