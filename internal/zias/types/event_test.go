package types_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zias-project/zias/server/internal/zias/types"
)

func TestEventIDDeterministic(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	a := types.EventID("student-1", "1", at, types.DirectionEntry)
	b := types.EventID("student-1", "1", at, types.DirectionEntry)
	if a != b {
		t.Fatalf("same inputs must give the same id: %s vs %s", a, b)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("event id is not a UUID: %v", err)
	}
}

func TestEventIDTruncatesToSecond(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// Two passes resolving the same pair may observe different
	// sub-second precision; they must still agree on the id.
	a := types.EventID("student-1", "1", at, types.DirectionEntry)
	b := types.EventID("student-1", "1", at.Add(400*time.Millisecond), types.DirectionEntry)
	if a != b {
		t.Fatal("ids within the same second must collide")
	}

	c := types.EventID("student-1", "1", at.Add(time.Second), types.DirectionEntry)
	if a == c {
		t.Fatal("ids a second apart must differ")
	}
}

func TestEventIDDiverges(t *testing.T) {
	at := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	base := types.EventID("student-1", "1", at, types.DirectionEntry)

	if got := types.EventID("student-2", "1", at, types.DirectionEntry); got == base {
		t.Error("different identities must not collide")
	}
	if got := types.EventID("student-1", "2", at, types.DirectionEntry); got == base {
		t.Error("different scopes must not collide")
	}
	if got := types.EventID("student-1", "1", at, types.DirectionExit); got == base {
		t.Error("different directions must not collide")
	}
}
