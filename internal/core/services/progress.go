package services

import (
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

// Stat names a progress counter.
type Stat string

// Progress counters. Each entity contributes to exactly one per terminal
// outcome.
const (
	StatInserted Stat = "inserted"
	StatUpdated  Stat = "updated"
	StatDeleted  Stat = "deleted"
	StatKept     Stat = "kept"
	StatSkipped  Stat = "skipped"
	StatFailed   Stat = "failed"
)

// Progress accumulates a run's counters and publishes incremental snapshots
// to subscribers.
//
// Increments are atomic because many worker tasks update concurrently.
// Publishing is non-blocking: a slow subscriber misses intermediate
// snapshots but never stalls the run, and always receives the final
// snapshot on Finalize (observability never affects outcome).
type Progress struct {
	inserted atomic.Int64
	updated  atomic.Int64
	deleted  atomic.Int64
	kept     atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64

	mu        sync.Mutex
	subs      map[int]chan domain.SyncStats
	nextSubID int
	finalized bool
}

// NewProgress creates an empty tracker.
func NewProgress() *Progress {
	return &Progress{subs: make(map[int]chan domain.SyncStats)}
}

// Increment adds one to the named counter and publishes a snapshot.
func (p *Progress) Increment(stat Stat) {
	switch stat {
	case StatInserted:
		p.inserted.Add(1)
	case StatUpdated:
		p.updated.Add(1)
	case StatDeleted:
		p.deleted.Add(1)
	case StatKept:
		p.kept.Add(1)
	case StatSkipped:
		p.skipped.Add(1)
	case StatFailed:
		p.failed.Add(1)
	}
	p.publish(false)
}

// Stats returns the current counter snapshot.
func (p *Progress) Stats() domain.SyncStats {
	return domain.SyncStats{
		Inserted: p.inserted.Load(),
		Updated:  p.updated.Load(),
		Deleted:  p.deleted.Load(),
		Kept:     p.kept.Load(),
		Skipped:  p.skipped.Load(),
		Failed:   p.failed.Load(),
	}
}

// Subscribe registers a subscriber. The returned channel receives counter
// snapshots until Finalize; the returned func unsubscribes and closes it.
func (p *Progress) Subscribe() (<-chan domain.SyncStats, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextSubID
	p.nextSubID++
	ch := make(chan domain.SyncStats, 16)
	p.subs[id] = ch

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Finalize delivers a final snapshot to every subscriber and closes their
// channels. Further increments are still counted but no longer published.
func (p *Progress) Finalize() {
	p.publish(true)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.finalized = true
	for id, sub := range p.subs {
		delete(p.subs, id)
		close(sub)
	}
}

// publish sends a snapshot to all subscribers without blocking.
// Final snapshots evict the oldest buffered update so the last word always
// lands.
func (p *Progress) publish(final bool) {
	stats := p.Stats()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized {
		return
	}
	for _, sub := range p.subs {
		select {
		case sub <- stats:
		default:
			if final {
				select {
				case <-sub:
				default:
				}
				select {
				case sub <- stats:
				default:
				}
			}
		}
	}
}
