// Package store persists the domain object graph: domains, billing events,
// poll messages and history entries.
package store

import (
	"cmp"
	"context"
	"fmt"
	"hash/fnv"
	"slices"
	"sync"
	"time"

	billing "domainreg/internal/billing/models"
	domain "domainreg/internal/domain/models"
	flows "domainreg/internal/flows/models"
	history "domainreg/internal/history/models"
	poll "domainreg/internal/poll/models"
	id "domainreg/pkg/domain"
	"domainreg/pkg/platform/sentinel"
)

const (
	shardCount         = 128
	defaultLockTimeout = 5 * time.Second
)

// InMemory keeps the object graph in maps. Commands lock one of a fixed set
// of shards chosen by domain name, so unrelated names rarely contend.
type InMemory struct {
	shards      [shardCount]chan struct{}
	lockTimeout time.Duration

	mu            sync.RWMutex
	byName        map[id.DomainName]id.RepoID
	domains       map[id.RepoID]domain.Domain
	oneTimes      map[id.BillingEventID]billing.OneTime
	recurrings    map[id.BillingEventID]billing.Recurring
	cancellations map[id.BillingEventID]billing.Cancellation
	polls         map[id.PollMessageID]poll.Message
	history       map[id.RepoID][]history.Entry
}

type MemoryOption func(*InMemory)

// WithLockTimeout bounds how long a command waits for its shard.
func WithLockTimeout(d time.Duration) MemoryOption {
	return func(s *InMemory) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

func NewInMemory(opts ...MemoryOption) *InMemory {
	s := &InMemory{
		lockTimeout:   defaultLockTimeout,
		byName:        make(map[id.DomainName]id.RepoID),
		domains:       make(map[id.RepoID]domain.Domain),
		oneTimes:      make(map[id.BillingEventID]billing.OneTime),
		recurrings:    make(map[id.BillingEventID]billing.Recurring),
		cancellations: make(map[id.BillingEventID]billing.Cancellation),
		polls:         make(map[id.PollMessageID]poll.Message),
		history:       make(map[id.RepoID][]history.Entry),
	}
	for i := range s.shards {
		s.shards[i] = make(chan struct{}, 1)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func shardFor(name id.DomainName) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return int(h.Sum32() % shardCount)
}

// lockDomain takes the shard for name and returns its release.
func (s *InMemory) lockDomain(ctx context.Context, name id.DomainName) (func(), error) {
	shard := s.shards[shardFor(name)]
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case shard <- struct{}{}:
		return func() { <-shard }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("lock domain %s: %w", name, sentinel.ErrUnavailable)
	}
}

func (s *InMemory) RunInTx(ctx context.Context, name id.DomainName, fn func(ctx context.Context, tx flows.Tx) error) error {
	release, err := s.lockDomain(ctx, name)
	if err != nil {
		return err
	}
	defer release()

	tx := &memoryTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.commit(tx.staged)
	return nil
}

func (s *InMemory) commit(staged []flows.Mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range staged {
		for _, ref := range m.DeleteBilling {
			switch ref.Kind {
			case billing.KindOneTime:
				delete(s.oneTimes, ref.ID)
			case billing.KindRecurring:
				delete(s.recurrings, ref.ID)
			case billing.KindCancellation:
				delete(s.cancellations, ref.ID)
			}
		}
		for _, msgID := range m.DeletePolls {
			delete(s.polls, msgID)
		}

		d := m.Domain
		s.domains[d.RepoID] = cloneDomain(d)
		s.byName[d.Name] = d.RepoID
		s.history[d.RepoID] = append(s.history[d.RepoID], m.History)
		for _, o := range m.OneTimes {
			s.oneTimes[o.ID] = o
		}
		for _, r := range m.Recurrings {
			s.recurrings[r.ID] = r
		}
		for _, c := range m.Cancellations {
			s.cancellations[c.ID] = c
		}
		for _, p := range m.PollMessages {
			s.polls[p.ID] = p
		}
	}
}

func (s *InMemory) Ledger(_ context.Context, repoID id.RepoID) (billing.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var l billing.Ledger
	for _, o := range s.oneTimes {
		if o.RepoID == repoID {
			l.OneTimes = append(l.OneTimes, o)
		}
	}
	for _, r := range s.recurrings {
		if r.RepoID == repoID {
			l.Recurrings = append(l.Recurrings, r)
		}
	}
	for _, c := range s.cancellations {
		if c.RepoID == repoID {
			l.Cancellations = append(l.Cancellations, c)
		}
	}
	slices.SortFunc(l.OneTimes, func(a, b billing.OneTime) int { return a.EventTime.Compare(b.EventTime) })
	slices.SortFunc(l.Recurrings, func(a, b billing.Recurring) int { return a.EventTime.Compare(b.EventTime) })
	slices.SortFunc(l.Cancellations, func(a, b billing.Cancellation) int { return a.EventTime.Compare(b.EventTime) })
	return l, nil
}

// Deliverable lists a registrar's messages with EventTime at or before now,
// oldest first.
func (s *InMemory) Deliverable(_ context.Context, clientID id.ClientID, now time.Time) ([]poll.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []poll.Message
	for _, m := range s.polls {
		if m.ClientID == clientID && m.IsDeliverableAt(now) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, comparePoll)
	return out, nil
}

// UpdatePollMessage loads a message, lets fn change it, then saves it or
// deletes it when fn reports keep=false. It holds the lock of the message's
// domain, so it never interleaves with a command on that domain.
func (s *InMemory) UpdatePollMessage(ctx context.Context, msgID id.PollMessageID, fn func(m *poll.Message) (keep bool, err error)) error {
	s.mu.RLock()
	m, ok := s.polls[msgID]
	s.mu.RUnlock()
	if !ok {
		return sentinel.ErrNotFound
	}
	release, err := s.lockDomain(ctx, m.TargetID)
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok = s.polls[msgID]
	if !ok {
		return sentinel.ErrNotFound
	}
	keep, err := fn(&m)
	if err != nil {
		return err
	}
	if keep {
		s.polls[msgID] = m
	} else {
		delete(s.polls, msgID)
	}
	return nil
}

func comparePoll(a, b poll.Message) int {
	if c := a.EventTime.Compare(b.EventTime); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

type memoryTx struct {
	store  *InMemory
	staged []flows.Mutation
}

func (t *memoryTx) Domain(_ context.Context, name id.DomainName) (domain.Domain, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	repoID, ok := t.store.byName[name]
	if !ok {
		return domain.Domain{}, sentinel.ErrNotFound
	}
	return cloneDomain(t.store.domains[repoID]), nil
}

func (t *memoryTx) OneTime(_ context.Context, eventID id.BillingEventID) (billing.OneTime, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	o, ok := t.store.oneTimes[eventID]
	if !ok {
		return billing.OneTime{}, sentinel.ErrNotFound
	}
	return o, nil
}

func (t *memoryTx) Recurring(_ context.Context, eventID id.BillingEventID) (billing.Recurring, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	r, ok := t.store.recurrings[eventID]
	if !ok {
		return billing.Recurring{}, sentinel.ErrNotFound
	}
	return r, nil
}

func (t *memoryTx) PollMessage(_ context.Context, msgID id.PollMessageID) (poll.Message, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	m, ok := t.store.polls[msgID]
	if !ok {
		return poll.Message{}, sentinel.ErrNotFound
	}
	return m, nil
}

func (t *memoryTx) HistoryEntries(_ context.Context, repoID id.RepoID, since time.Time) ([]history.Entry, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	var out []history.Entry
	for _, e := range t.store.history[repoID] {
		if !e.ModificationTime.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (t *memoryTx) Apply(_ context.Context, m flows.Mutation) error {
	t.staged = append(t.staged, m)
	return nil
}

func cloneDomain(d domain.Domain) domain.Domain {
	d.Statuses = slices.Clone(d.Statuses)
	d.Nameservers = slices.Clone(d.Nameservers)
	d.SubordinateHosts = slices.Clone(d.SubordinateHosts)
	d.GracePeriods = slices.Clone(d.GracePeriods)
	return d
}
