package service_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/zias-project/zias/server/internal/zias/service"
	"github.com/zias-project/zias/server/internal/zias/store/memory"
	"github.com/zias-project/zias/server/internal/zias/types"
)

func TestPrunerDisabledWithZeroRetention(t *testing.T) {
	p := service.NewRetentionPruner(
		memory.NewPingStore(),
		memory.NewBLEEventStore(),
		service.PrunerConfig{RetentionDays: 0},
		log.New(io.Discard, "", 0),
	)

	p.Start(context.Background())
	p.Stop() // must not hang
}

func TestPrunerDeletesOldSignals(t *testing.T) {
	pings := memory.NewPingStore()
	sightings := memory.NewBLEEventStore()
	ctx := context.Background()
	now := time.Now().UTC()

	old := ping("dev-entry", "student-1", now.Add(-40*24*time.Hour))
	fresh := ping("dev-exit", "student-1", now)
	oldID, err := pings.Insert(ctx, old)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	freshID, err := pings.Insert(ctx, fresh)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := sightings.Record(ctx, types.BeaconReport{
		IdentityKey: "student-1",
		BeaconID:    "zias-main-101-entry",
		EventType:   types.BeaconEventEntry,
		Timestamp:   now.Add(-40 * 24 * time.Hour),
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	p := service.NewRetentionPruner(pings, sightings, service.PrunerConfig{RetentionDays: 30}, log.New(io.Discard, "", 0))

	// The loop prunes immediately on start; one short wait is enough.
	p.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	p.Stop()

	if _, found := pings.Get(oldID); found {
		t.Error("expected stale ping to be pruned")
	}
	if _, found := pings.Get(freshID); !found {
		t.Error("expected fresh ping to survive")
	}
	if n := len(sightings.Reports()); n != 0 {
		t.Errorf("expected stale sighting to be pruned, %d left", n)
	}
}
