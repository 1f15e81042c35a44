package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/zias-project/zias/server/internal/zias/store/sqlite"
	"github.com/zias-project/zias/server/internal/zias/types"
)

func TestBLERecordAndPrune(t *testing.T) {
	conn := newTestConn(t)
	s := sqlite.NewBLEEventStore(conn, newTestWorker(t, conn))
	ctx := context.Background()
	now := time.Now().UTC()

	err := s.Record(ctx, types.BeaconReport{
		IdentityKey: "student-1",
		BeaconID:    "zias-main-101-entry",
		RSSI:        -60,
		Location:    &types.BeaconLocation{Latitude: 40.1, Longitude: -88.2},
		EventType:   types.BeaconEventEntry,
		AppVersion:  "1.4.2",
		Timestamp:   now.Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Location is optional.
	err = s.Record(ctx, types.BeaconReport{
		IdentityKey: "student-1",
		BeaconID:    "zias-main-101-exit",
		EventType:   types.BeaconEventApproaching,
		Timestamp:   now,
	})
	if err != nil {
		t.Fatalf("Record without location: %v", err)
	}

	deleted, err := s.PruneOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 pruned sighting, got %d", deleted)
	}
}
