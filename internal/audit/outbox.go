package audit

import (
	"context"
	"sync"
	"time"

	"freightdesk.org/internal/obs"
)

const (
	defaultOutboxDepth = 256
	maxWriteAttempts   = 3
	retryBackoff       = 250 * time.Millisecond
)

// Outbox decouples audit writes from the mutating request path. Entries are
// enqueued after the primary operation commits and flushed by a background
// worker with bounded retry, so a failing audit store is observable without
// reversing or blocking the mutation.
type Outbox struct {
	store Store
	ch    chan Entry

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewOutbox creates an outbox with the given queue depth (0 uses the default).
func NewOutbox(store Store, depth int) *Outbox {
	if depth <= 0 {
		depth = defaultOutboxDepth
	}
	return &Outbox{
		store: store,
		ch:    make(chan Entry, depth),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start launches the background writer. Call Close to drain and stop it.
func (o *Outbox) Start() {
	go o.run()
}

func (o *Outbox) run() {
	defer close(o.done)
	for {
		select {
		case e := <-o.ch:
			o.write(e)
		case <-o.stop:
			// Drain whatever is queued before exiting.
			for {
				select {
				case e := <-o.ch:
					o.write(e)
				default:
					return
				}
			}
		}
	}
}

func (o *Outbox) write(e Entry) {
	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = o.store.Append(ctx, &e)
		cancel()
		if err == nil {
			if attempt > 1 {
				obs.CountAuditWrite("retried")
			} else {
				obs.CountAuditWrite("ok")
			}
			return
		}
		if attempt < maxWriteAttempts {
			time.Sleep(retryBackoff * time.Duration(attempt))
		}
	}
	obs.CountAuditWrite("error")
	obs.Emit("error", "audit_outbox_write_failed", map[string]any{
		"action":   string(e.Action),
		"entry_id": e.ID,
		"error":    err.Error(),
	})
}

// Enqueue queues an entry for asynchronous persistence. When the queue is
// full the entry is dropped and counted; audit writes must never block the
// request path.
func (o *Outbox) Enqueue(e Entry) bool {
	select {
	case o.ch <- e:
		return true
	default:
		obs.CountAuditWrite("dropped")
		obs.Emit("warn", "audit_outbox_full", map[string]any{
			"action":   string(e.Action),
			"entry_id": e.ID,
		})
		return false
	}
}

// Close drains the queue and stops the worker. Safe to call more than once.
func (o *Outbox) Close() {
	o.stopOnce.Do(func() { close(o.stop) })
	<-o.done
}
