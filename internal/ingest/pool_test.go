package ingest

import (
	"sync/atomic"
	"testing"
)

func TestPoolRunsAllJobs(t *testing.T) {
	p := NewPool(4, 16)

	var ran atomic.Int64
	for i := 0; i < 100; i++ {
		p.Submit(func() { ran.Add(1) })
	}
	p.Close()

	if got := ran.Load(); got != 100 {
		t.Fatalf("expected 100 jobs run, got %d", got)
	}
}

func TestPoolCloseWaitsForInFlight(t *testing.T) {
	p := NewPool(1, 1)

	done := false
	p.Submit(func() { done = true })
	p.Close()

	if !done {
		t.Fatal("Close returned before the submitted job finished")
	}
}

func TestPoolDefaults(t *testing.T) {
	// Zero values fall back to sane defaults instead of a dead pool.
	p := NewPool(0, 0)

	var ran atomic.Int64
	p.Submit(func() { ran.Add(1) })
	p.Close()

	if ran.Load() != 1 {
		t.Fatal("defaulted pool did not run the job")
	}
}
