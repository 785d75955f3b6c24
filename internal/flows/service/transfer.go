package service

import (
	"context"
	"time"

	dns "domainreg/internal/dns/models"
	domain "domainreg/internal/domain/models"
	flows "domainreg/internal/flows/models"
	poll "domainreg/internal/poll/models"
	"domainreg/internal/transfer"
	id "domainreg/pkg/domain"
)

// TransferRequest opens a transfer of the domain to actor.
func (s *Service) TransferRequest(ctx context.Context, actor flows.Actor, cmd flows.TransferRequestCommand) (flows.Result, error) {
	res, err := s.mutate(ctx, "transfer_request", cmd.Name, dns.ReasonTransferRequest, actor, func(ctx context.Context, tx flows.Tx, now time.Time) (outcome, error) {
		snap, reg, err := s.load(ctx, tx, cmd.Name, now)
		if err != nil {
			return outcome{}, err
		}
		if actor.Superuser {
			_, err = s.auth.VerifyActive(ctx, actor.ClientID)
		} else {
			err = s.auth.VerifyTLDAccess(ctx, actor.ClientID, cmd.Name.TLD())
		}
		if err != nil {
			return outcome{}, err
		}
		in := transfer.RequestInput{PeriodYears: cmd.PeriodYears, Fee: cmd.Fee}
		if cmd.AutomaticTransferDays != nil {
			in.Override = &transfer.SuperuserOverride{AutomaticTransferDays: *cmd.AutomaticTransferDays}
		}
		res, err := s.engine.Request(ctx, transfer.Env{Registry: reg, Now: now}, snap, actor, in)
		if err != nil {
			return outcome{}, err
		}
		if res.Fees != nil {
			if err := s.verifyPremium(ctx, actor, cmd.Name, *res.Fees); err != nil {
				return outcome{}, err
			}
		}
		return transferOutcome(res), nil
	})
	s.countTransfer(res, err)
	return res, err
}

// TransferApprove completes a pending transfer on behalf of the losing sponsor.
func (s *Service) TransferApprove(ctx context.Context, actor flows.Actor, name id.DomainName) (flows.Result, error) {
	return s.resolveTransfer(ctx, "transfer_approve", dns.ReasonTransferApprove, actor, name, s.engine.Approve)
}

// TransferReject refuses a pending transfer on behalf of the losing sponsor.
func (s *Service) TransferReject(ctx context.Context, actor flows.Actor, name id.DomainName) (flows.Result, error) {
	return s.resolveTransfer(ctx, "transfer_reject", dns.ReasonTransferReject, actor, name, s.engine.Reject)
}

// TransferCancel withdraws a pending transfer on behalf of the gaining registrar.
func (s *Service) TransferCancel(ctx context.Context, actor flows.Actor, name id.DomainName) (flows.Result, error) {
	return s.resolveTransfer(ctx, "transfer_cancel", dns.ReasonTransferCancel, actor, name, s.engine.Cancel)
}

type resolveFunc func(ctx context.Context, env transfer.Env, snap flows.Snapshot, actor flows.Actor) (transfer.Result, error)

func (s *Service) resolveTransfer(ctx context.Context, flow string, reason dns.Reason, actor flows.Actor, name id.DomainName, resolve resolveFunc) (flows.Result, error) {
	res, err := s.mutate(ctx, flow, name, reason, actor, func(ctx context.Context, tx flows.Tx, now time.Time) (outcome, error) {
		snap, reg, err := s.load(ctx, tx, name, now)
		if err != nil {
			return outcome{}, err
		}
		if _, err := s.auth.VerifyActive(ctx, actor.ClientID); err != nil {
			return outcome{}, err
		}
		res, err := resolve(ctx, transfer.Env{Registry: reg, Now: now}, snap, actor)
		if err != nil {
			return outcome{}, err
		}
		return transferOutcome(res), nil
	})
	s.countTransfer(res, err)
	return res, err
}

func transferOutcome(res transfer.Result) outcome {
	m := res.Mutation
	m.RefreshDNS = true
	resp := res.Transfer
	return outcome{mutation: m, transfer: &resp, fees: res.Fees, pending: resp.TransferStatus == string(domain.TransferPending)}
}

func (s *Service) countTransfer(res flows.Result, err error) {
	if err == nil && res.Transfer != nil {
		s.metrics.IncTransfer(res.Transfer.TransferStatus)
	}
}

// TransferQuery reports the current or most recent transfer of a domain to
// either party of that transfer.
func (s *Service) TransferQuery(ctx context.Context, actor flows.Actor, name id.DomainName) (poll.TransferResponse, error) {
	var resp poll.TransferResponse
	err := s.read(ctx, "transfer_query", name, func(ctx context.Context, tx flows.Tx, now time.Time) error {
		snap, _, err := s.load(ctx, tx, name, now)
		if err != nil {
			return err
		}
		if _, err := s.auth.VerifyActive(ctx, actor.ClientID); err != nil {
			return err
		}
		d := snap.Domain
		td := d.TransferData
		if !td.HasHistory() {
			return &Failure{Kind: FailNoTransferHistory, Domain: d.Name, ClientID: actor.ClientID}
		}
		if !actor.Superuser && actor.ClientID != td.GainingClientID && actor.ClientID != td.LosingClientID {
			return &Failure{Kind: FailNotAuthorizedToView, Domain: d.Name, ClientID: actor.ClientID}
		}
		var extended *time.Time
		if td.IsPending() || td.Status.IsApproved() {
			exp := domain.ExtendRegistrationWithCap(now, d.RegistrationExpirationTime, td.TransferPeriodYears)
			extended = &exp
		}
		resp = transfer.Response(d.Name, td, extended)
		return nil
	})
	return resp, err
}
