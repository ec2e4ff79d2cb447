package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/entsync/internal/core/domain"
)

func TestProgressCounters(t *testing.T) {
	p := NewProgress()

	p.Increment(StatInserted)
	p.Increment(StatInserted)
	p.Increment(StatUpdated)
	p.Increment(StatDeleted)
	p.Increment(StatKept)
	p.Increment(StatSkipped)
	p.Increment(StatFailed)

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.Inserted)
	assert.Equal(t, int64(1), stats.Updated)
	assert.Equal(t, int64(1), stats.Deleted)
	assert.Equal(t, int64(1), stats.Kept)
	assert.Equal(t, int64(1), stats.Skipped)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(5), stats.Processed())
}

func TestProgressConcurrentIncrements(t *testing.T) {
	p := NewProgress()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Increment(StatInserted)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(100), p.Stats().Inserted)
}

func TestSubscribeReceivesFinalSnapshot(t *testing.T) {
	p := NewProgress()
	updates, cancel := p.Subscribe()
	defer cancel()

	// Overrun the buffer; intermediate snapshots may drop, the final one
	// must not.
	for i := 0; i < 100; i++ {
		p.Increment(StatInserted)
	}
	p.Finalize()

	var last domain.SyncStats
	for snapshot := range updates {
		last = snapshot
	}
	assert.Equal(t, int64(100), last.Inserted)
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	p := NewProgress()
	updates, cancel := p.Subscribe()
	cancel()

	select {
	case _, ok := <-updates:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}

	// Publishing after cancel must not panic or block.
	p.Increment(StatKept)
	p.Finalize()
}

func TestSlowSubscriberNeverBlocksIncrement(t *testing.T) {
	p := NewProgress()
	_, cancel := p.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			p.Increment(StatInserted)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("increments blocked on slow subscriber")
	}
}

func TestFinalizeClosesAllSubscribers(t *testing.T) {
	p := NewProgress()
	a, cancelA := p.Subscribe()
	b, cancelB := p.Subscribe()
	defer cancelA()
	defer cancelB()

	p.Finalize()

	// Both channels drain and close.
	for range a {
	}
	for range b {
	}
}
