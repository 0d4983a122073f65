package memory

import (
	"context"
	"sync"

	appoutbox "staynest/internal/app/outbox"
)

// Outbox buffers event records until flushed. Flush hands the batch to an
// optional sink; without one the records are simply dropped, which is what
// single-process runs without a broker want.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord

	// Sink receives flushed batches. May be nil.
	Sink func(ctx context.Context, records []appoutbox.EventRecord) error
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	batch := o.records
	o.records = nil
	sink := o.Sink
	o.mu.Unlock()
	if sink == nil || len(batch) == 0 {
		return nil
	}
	return sink(ctx, batch)
}

// Pending returns a snapshot of unflushed records.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	snapshot := make([]appoutbox.EventRecord, len(o.records))
	copy(snapshot, o.records)
	return snapshot
}

var _ appoutbox.Outbox = (*Outbox)(nil)
