package service

import (
	"context"
	"slices"
	"time"

	dns "domainreg/internal/dns/models"
	domain "domainreg/internal/domain/models"
	flows "domainreg/internal/flows/models"
	"domainreg/internal/grace"
	history "domainreg/internal/history/models"
	poll "domainreg/internal/poll/models"
	"domainreg/internal/transfer"
	"domainreg/pkg/timeutil"
)

var deleteDisallowedStatuses = []domain.StatusValue{
	domain.ClientDeleteProhibited,
	domain.PendingDelete,
	domain.ServerDeleteProhibited,
}

// Delete removes a domain. Inside its ADD grace period the domain is gone at
// once and the create charge is refunded. Otherwise it enters redemption and
// is deleted when redemption and pending delete have both run out; a
// superuser override of zero days for both deletes it at once as well.
func (s *Service) Delete(ctx context.Context, actor flows.Actor, cmd flows.DeleteCommand) (flows.Result, error) {
	return s.mutate(ctx, "delete", cmd.Name, dns.ReasonDelete, actor, func(ctx context.Context, tx flows.Tx, now time.Time) (outcome, error) {
		snap, reg, err := s.load(ctx, tx, cmd.Name, now)
		if err != nil {
			return outcome{}, err
		}
		d := snap.Domain
		if err := d.CheckAllowed(deleteDisallowedStatuses...); err != nil {
			return outcome{}, err
		}
		if err := s.authorizeSponsor(ctx, actor, d); err != nil {
			return outcome{}, err
		}
		if len(d.SubordinateHosts) > 0 {
			return outcome{}, &Failure{Kind: FailSubordinateHostsExist, Domain: d.Name, ClientID: actor.ClientID}
		}

		redemption, pendingDelete := reg.Durations.RedemptionGrace, reg.Durations.PendingDelete
		if actor.Superuser && cmd.Override != nil {
			redemption = timeutil.Days(cmd.Override.RedemptionGraceDays)
			pendingDelete = timeutil.Days(cmd.Override.PendingDeleteDays)
		}
		inAddGrace := d.GracePeriods.Has(grace.Add)
		var untilDelete time.Duration
		field := history.DeletedDomainsGrace
		if !inAddGrace {
			untilDelete = redemption + pendingDelete
			field = history.DeletedDomainsNoGrace
		}

		cancelFields := slices.Concat(history.AddFields, history.RenewFields)
		entry := history.NewEntry(history.TypeDomainDelete, now, d.RepoID, d.Name, actor.ClientID, actor.Superuser)
		entry = entry.WithRecords(history.CancelingRecords(snap.History, now, reg.MaxCancelableSearch(), cancelFields)...).
			WithRecords(history.TransactionRecord{
				TLD:           d.TLD(),
				ReportingTime: now.Add(untilDelete),
				Field:         field,
				Amount:        1,
			})
		m := flows.New(d, entry)
		m.RefreshDNS = true
		transfer.ServerCancel(&m, now)

		next := m.Domain
		immediate := untilDelete == 0
		next.GracePeriods = nil
		if immediate {
			next.DeletionTime = now
			next.Statuses = domain.NewStatusSet()
		} else {
			deletionTime := now.Add(untilDelete)
			msg := poll.NewOneTime(d.CurrentSponsorClientID, deletionTime, poll.MsgDeleted, d.RepoID, d.Name, entry.ID).
				WithPendingAction(poll.PendingActionNotification{Name: d.Name, Result: true, ProcessedDate: deletionTime})
			m.PollMessages = append(m.PollMessages, msg)
			next.DeletionTime = deletionTime
			next.DeletePollMessage = &msg.ID
			next.Statuses = domain.NewStatusSet(domain.PendingDelete)
			next.GracePeriods = grace.Set{grace.WithoutBilling(grace.Redemption, now.Add(redemption), d.CurrentSponsorClientID)}
		}
		next = next.WithNameservers(next.Nameservers)

		if err := m.UpdateAutorenewEnd(snap, now); err != nil {
			return outcome{}, err
		}
		for _, p := range d.GracePeriods.Cancellable() {
			c, ok, err := grace.Cancel(p, now, d.RepoID, d.Name, entry.ID)
			if err != nil {
				return outcome{}, err
			}
			if ok {
				m.Cancellations = append(m.Cancellations, c)
			}
		}
		m.Domain = next.Touched(actor.ClientID, now)
		return outcome{mutation: m, pending: !immediate}, nil
	})
}
