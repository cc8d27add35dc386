package store

import (
	"context"

	"github.com/rs/zerolog"

	"retronotes/internal/note"
)

// outboxDepth bounds the pending write queue. Mutations block only if
// the worker falls this far behind, which keeps memory bounded without
// coupling callers to storage latency in the normal case.
const outboxDepth = 256

// persistOp is one pending write. Exactly one of upsert, deleteID, or
// flush is set.
type persistOp struct {
	upsert   *note.Note
	deleteID string
	flush    chan struct{}
}

// outbox serializes all persistence writes through a single worker
// goroutine, in the order mutations issued them. That makes the
// last-write-wins race between rapid successive edits deterministic:
// the durable copy always converges to the latest issued state.
// A failed write never rolls back the in-memory mutation; it is
// retried once and otherwise logged.
type outbox struct {
	ops     chan persistOp
	done    chan struct{}
	gateway Persistence
	logger  zerolog.Logger
}

func newOutbox(gateway Persistence, logger zerolog.Logger) *outbox {
	o := &outbox{
		ops:     make(chan persistOp, outboxDepth),
		done:    make(chan struct{}),
		gateway: gateway,
		logger:  logger,
	}
	go o.run()
	return o
}

func (o *outbox) run() {
	defer close(o.done)
	for op := range o.ops {
		switch {
		case op.flush != nil:
			close(op.flush)
		case op.upsert != nil:
			o.write(op.upsert)
		case op.deleteID != "":
			o.remove(op.deleteID)
		}
	}
}

func (o *outbox) write(n *note.Note) {
	ctx := context.Background()
	if err := o.gateway.Upsert(ctx, n); err != nil {
		// One retry covers transient lock contention.
		if err2 := o.gateway.Upsert(ctx, n); err2 != nil {
			o.logger.Error().
				Str("note_id", n.ID).
				Err(err2).
				Msg("write-behind upsert failed; in-memory state kept")
		}
	}
}

func (o *outbox) remove(id string) {
	ctx := context.Background()
	if err := o.gateway.Delete(ctx, id); err != nil {
		if err2 := o.gateway.Delete(ctx, id); err2 != nil {
			o.logger.Error().
				Str("note_id", id).
				Err(err2).
				Msg("write-behind delete failed; in-memory state kept")
		}
	}
}

func (o *outbox) enqueueUpsert(n *note.Note) {
	o.ops <- persistOp{upsert: n}
}

func (o *outbox) enqueueDelete(id string) {
	o.ops <- persistOp{deleteID: id}
}

// flushWait blocks until every write enqueued before it has completed.
func (o *outbox) flushWait() {
	barrier := make(chan struct{})
	o.ops <- persistOp{flush: barrier}
	<-barrier
}

// close drains remaining writes and stops the worker.
func (o *outbox) close() {
	close(o.ops)
	<-o.done
}
