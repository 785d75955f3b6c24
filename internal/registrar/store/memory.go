// Package store persists registrars.
package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"domainreg/internal/registrar/models"
	id "domainreg/pkg/domain"
	"domainreg/pkg/platform/sentinel"
)

// InMemory is a map-backed registrar store.
type InMemory struct {
	mu         sync.RWMutex
	registrars map[id.ClientID]*models.Registrar
}

func NewInMemory() *InMemory {
	return &InMemory{registrars: make(map[id.ClientID]*models.Registrar)}
}

func (s *InMemory) Save(_ context.Context, r *models.Registrar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	cp.AllowedTLDs = slices.Clone(r.AllowedTLDs)
	s.registrars[r.ClientID] = &cp
	return nil
}

func (s *InMemory) FindByClientID(_ context.Context, clientID id.ClientID) (*models.Registrar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.registrars[clientID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *r
	cp.AllowedTLDs = slices.Clone(r.AllowedTLDs)
	return &cp, nil
}

func (s *InMemory) List(_ context.Context) ([]*models.Registrar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Registrar, 0, len(s.registrars))
	for _, r := range s.registrars {
		cp := *r
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *models.Registrar) int {
		return cmp.Compare(a.ClientID, b.ClientID)
	})
	return out, nil
}
