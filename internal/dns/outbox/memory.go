package outbox

import (
	"context"
	"sync"

	dns "domainreg/internal/dns/models"
)

// InMemory is an outbox for tests and single-process runs. It shares nothing
// with the memory domain store's locking, so an enqueue is not rolled back
// with a failed command; flows enqueue as their last step.
type InMemory struct {
	mu      sync.Mutex
	nextID  int64
	pending []dns.Refresh
	wake    chan struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{wake: make(chan struct{}, 1)}
}

func (o *InMemory) Enqueue(_ context.Context, r dns.Refresh) error {
	o.mu.Lock()
	o.nextID++
	r.ID = o.nextID
	o.pending = append(o.pending, r)
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
	return nil
}

func (o *InMemory) Pending(_ context.Context, limit int) ([]dns.Refresh, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := min(limit, len(o.pending))
	out := make([]dns.Refresh, n)
	copy(out, o.pending[:n])
	return out, nil
}

func (o *InMemory) MarkPublished(_ context.Context, ids []int64) error {
	done := make(map[int64]struct{}, len(ids))
	for _, i := range ids {
		done[i] = struct{}{}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	kept := o.pending[:0]
	for _, r := range o.pending {
		if _, ok := done[r.ID]; !ok {
			kept = append(kept, r)
		}
	}
	o.pending = kept
	return nil
}

// MarkFailed is a no-op; failed signals simply stay pending.
func (o *InMemory) MarkFailed(context.Context, []int64, error) error {
	return nil
}

// Wake signals each enqueue.
func (o *InMemory) Wake() <-chan struct{} {
	return o.wake
}
