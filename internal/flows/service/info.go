package service

import (
	"context"
	"time"

	flows "domainreg/internal/flows/models"
	id "domainreg/pkg/domain"
)

// Info returns the domain as it is now.
func (s *Service) Info(ctx context.Context, actor flows.Actor, name id.DomainName) (flows.Info, error) {
	var info flows.Info
	err := s.read(ctx, "info", name, func(ctx context.Context, tx flows.Tx, now time.Time) error {
		snap, _, err := s.load(ctx, tx, name, now)
		if err != nil {
			return err
		}
		if _, err := s.auth.VerifyActive(ctx, actor.ClientID); err != nil {
			return err
		}
		info = flows.Info{Domain: snap.Domain, State: snap.Domain.State(now)}
		return nil
	})
	return info, err
}
