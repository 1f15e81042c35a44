package db

import (
	"context"
	"database/sql"
)

// TxFn runs inside a single write transaction.
type TxFn func(ctx context.Context, tx *sql.Tx) error

// writeQueueDepth absorbs ping bursts from the ingest pool without
// blocking the transport callback path.
const writeQueueDepth = 256

type writeReq struct {
	ctx context.Context
	fn  TxFn
	ch  chan error
}

// Worker serializes all writes through one goroutine, one transaction
// at a time. SQLite allows a single writer; funneling ping inserts,
// claim updates and event appends through here also makes each claim a
// true compare-and-set without application-level table locks.
type Worker struct {
	db   *sql.DB
	reqs chan writeReq
	done chan struct{}
}

func NewWorker(db *sql.DB) *Worker {
	w := &Worker{
		db:   db,
		reqs: make(chan writeReq, writeQueueDepth),
		done: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Close drains queued writes and stops the loop.
func (w *Worker) Close() {
	close(w.reqs)
	<-w.done
}

// Do runs fn in its own transaction on the writer goroutine and returns
// its result. Honors ctx both while queued and while waiting; an
// abandoned request still commits or rolls back normally, its result is
// just discarded via the buffered channel.
func (w *Worker) Do(ctx context.Context, fn TxFn) error {
	ch := make(chan error, 1)
	req := writeReq{ctx: ctx, fn: fn, ch: ch}

	select {
	case w.reqs <- req:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer close(w.done)

	for req := range w.reqs {
		tx, err := w.db.BeginTx(req.ctx, nil)
		if err != nil {
			req.ch <- err
			continue
		}

		if err := req.fn(req.ctx, tx); err != nil {
			_ = tx.Rollback()
			req.ch <- err
			continue
		}

		req.ch <- tx.Commit()
	}
}
