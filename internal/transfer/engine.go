// Package transfer runs the inter-registrar transfer protocol.
//
// A request does not wait for the losing registrar. It writes, up front, every
// entity an automatic approval would need and records them in the domain's
// PendingTransferBundle. If nobody acts before the automatic transfer instant,
// domain projection promotes the bundle; an explicit approve, reject or cancel
// deletes it and writes its own outcome instead.
package transfer

import (
	"context"
	"time"

	billing "domainreg/internal/billing/models"
	domain "domainreg/internal/domain/models"
	flows "domainreg/internal/flows/models"
	"domainreg/internal/grace"
	history "domainreg/internal/history/models"
	poll "domainreg/internal/poll/models"
	"domainreg/internal/pricing"
	"domainreg/internal/tld"
	"domainreg/pkg/timeutil"
)

var requestDisallowedStatuses = []domain.StatusValue{
	domain.ClientTransferProhibited,
	domain.PendingDelete,
	domain.ServerTransferProhibited,
}

// Env is the TLD policy and transaction instant a command runs under.
type Env struct {
	Registry tld.Registry
	Now      time.Time
}

// SuperuserOverride relaxes request rules for registry operators.
type SuperuserOverride struct {
	AutomaticTransferDays int
}

// RequestInput is a transfer request from the gaining registrar.
type RequestInput struct {
	PeriodYears int
	Fee         *pricing.Challenge
	// Override is honored only for superusers. It permits a zero-year period
	// and a custom automatic transfer delay.
	Override *SuperuserOverride
}

// Result is a computed transfer command.
type Result struct {
	Mutation flows.Mutation
	Transfer poll.TransferResponse
	// Fees is nil when nothing was charged.
	Fees *pricing.FeesAndCredits
}

// Engine computes transfer mutations. It reads nothing but its inputs and
// the pricer.
type Engine struct {
	pricer pricing.Pricer
}

func NewEngine(pricer pricing.Pricer) *Engine {
	return &Engine{pricer: pricer}
}

// Request opens a transfer to actor. The losing sponsor's autorenew is capped
// at the automatic transfer instant, and the entities of a server approval at
// that instant are created speculatively.
func (e *Engine) Request(ctx context.Context, env Env, snap flows.Snapshot, actor flows.Actor, in RequestInput) (Result, error) {
	d := snap.Domain
	now, reg := env.Now, env.Registry
	override := in.Override
	if !actor.Superuser {
		override = nil
	}

	if d.TransferData.IsPending() {
		return Result{}, &Failure{Kind: FailAlreadyPendingTransfer, Domain: d.Name, ClientID: actor.ClientID}
	}
	if actor.ClientID == d.CurrentSponsorClientID {
		return Result{}, &Failure{Kind: FailAlreadySponsored, Domain: d.Name, ClientID: actor.ClientID}
	}
	if err := d.CheckAllowed(requestDisallowedStatuses...); err != nil {
		return Result{}, err
	}
	if err := verifyPeriod(in.PeriodYears, override != nil); err != nil {
		err.Domain = d.Name
		return Result{}, err
	}
	if in.PeriodYears == 0 && in.Fee != nil {
		return Result{}, &Failure{Kind: FailTransferPeriodZeroWithFee, Domain: d.Name, ClientID: actor.ClientID}
	}

	var fees *pricing.FeesAndCredits
	if in.PeriodYears > 0 {
		price, err := e.pricer.TransferPrice(ctx, reg, d.Name, now)
		if err != nil {
			return Result{}, err
		}
		if err := pricing.ValidateFeeChallenge(d.Name, in.Fee, price); err != nil {
			return Result{}, err
		}
		fees = &price
	}

	automaticAt := now.Add(reg.Durations.AutomaticTransfer)
	if override != nil {
		automaticAt = now.Add(timeutil.Days(override.AutomaticTransferDays))
	}

	// A transfer landing inside an auto-renew grace window subsumes that
	// renewal: no extra year, and the losing registrar's charge is refunded.
	atTransfer := domain.ProjectAt(d, automaticAt, reg)
	extraYears := in.PeriodYears
	autorenewGrace := atTransfer.GracePeriods.OfType(grace.AutoRenew)
	if len(autorenewGrace) > 0 {
		if override != nil {
			return Result{}, &Failure{Kind: FailSuperuserInAutorenewGrace, Domain: d.Name, ClientID: actor.ClientID}
		}
		extraYears = 0
	}
	serverApproveExpiration := domain.ExtendRegistrationWithCap(automaticAt, atTransfer.RegistrationExpirationTime, extraYears)

	entry := history.NewEntry(history.TypeDomainTransferRequest, now, d.RepoID, d.Name, actor.ClientID, actor.Superuser)
	entry.PeriodYears = in.PeriodYears
	// Reported on the TLD's automatic transfer length even when a superuser
	// override shortens it.
	entry = entry.WithRecords(history.TransactionRecord{
		TLD:           d.TLD(),
		ReportingTime: now.Add(reg.Durations.AutomaticTransfer).Add(reg.Durations.TransferGrace),
		Field:         history.TransferSuccessful,
		Amount:        1,
	})
	m := flows.New(d, entry)

	pending := domain.TransferData{
		Status:                        domain.TransferPending,
		GainingClientID:               actor.ClientID,
		LosingClientID:                d.CurrentSponsorClientID,
		TransferRequestTime:           now,
		PendingTransferExpirationTime: automaticAt,
		TransferPeriodYears:           in.PeriodYears,
	}

	var bundle domain.PendingTransferBundle
	if fees != nil {
		charge := m.NewOneTime(actor.ClientID, billing.ReasonTransfer, automaticAt,
			automaticAt.Add(reg.Durations.TransferGrace), in.PeriodYears, fees.TotalCost())
		bundle.TransferBillingEvent = &charge.ID
	}
	bundle.GainingRecurring, bundle.GainingAutorenewPoll = m.NewAutorenew(actor.ClientID, serverApproveExpiration)
	if len(autorenewGrace) > 0 {
		c, ok, err := grace.Cancel(autorenewGrace[0], automaticAt, d.RepoID, d.Name, entry.ID)
		if err != nil {
			return Result{}, err
		}
		if ok {
			m.Cancellations = append(m.Cancellations, c)
			bundle.AutorenewCancellation = &c.ID
		}
	}
	approved := pending.Resolved(domain.TransferServerApproved, automaticAt)
	gaining := gainingPoll(d, approved, &serverApproveExpiration, entry.ID)
	losing := losingPoll(d, approved, &serverApproveExpiration, entry.ID)
	bundle.GainingTransferPoll, bundle.LosingTransferPoll = gaining.ID, losing.ID
	pending.Bundle = bundle

	requested := losingPoll(d, pending, &serverApproveExpiration, entry.ID)
	requested.EventTime = now
	m.PollMessages = append(m.PollMessages, gaining, losing, requested)

	if err := m.UpdateAutorenewEnd(snap, automaticAt); err != nil {
		return Result{}, err
	}

	d.TransferData = pending
	d.Statuses = d.Statuses.With(domain.PendingTransfer)
	m.Domain = d

	approveNow := domain.ExtendRegistrationWithCap(now, d.RegistrationExpirationTime, in.PeriodYears)
	return Result{Mutation: m, Transfer: Response(d.Name, pending, &approveNow), Fees: fees}, nil
}

// Approve completes a pending transfer at the transaction instant. Only the
// losing sponsor or a superuser may approve.
func (e *Engine) Approve(ctx context.Context, env Env, snap flows.Snapshot, actor flows.Actor) (Result, error) {
	d := snap.Domain
	now, reg := env.Now, env.Registry
	if err := verifyPending(d, actor); err != nil {
		return Result{}, err
	}
	if err := verifyOwner(d, actor); err != nil {
		return Result{}, err
	}
	td := d.TransferData

	entry := history.NewEntry(history.TypeDomainTransferApprove, now, d.RepoID, d.Name, actor.ClientID, actor.Superuser)
	entry.PeriodYears = td.TransferPeriodYears
	entry = entry.WithRecords(cancelSuccessful(snap, env)...).WithRecords(history.TransactionRecord{
		TLD:           d.TLD(),
		ReportingTime: now.Add(reg.Durations.TransferGrace),
		Field:         history.TransferSuccessful,
		Amount:        1,
	})
	m := flows.New(d, entry)
	m.DeleteBundle(td.Bundle)

	extraYears := td.TransferPeriodYears
	if autorenewGrace := d.GracePeriods.OfType(grace.AutoRenew); len(autorenewGrace) > 0 {
		extraYears = 0
		c, ok, err := grace.Cancel(autorenewGrace[0], now, d.RepoID, d.Name, entry.ID)
		if err != nil {
			return Result{}, err
		}
		if ok {
			m.Cancellations = append(m.Cancellations, c)
		}
	}
	if err := m.UpdateAutorenewEnd(snap, now); err != nil {
		return Result{}, err
	}
	newExpiration := domain.ExtendRegistrationWithCap(now, d.RegistrationExpirationTime, extraYears)

	next := d
	next.GracePeriods = nil
	var fees *pricing.FeesAndCredits
	if td.TransferPeriodYears > 0 {
		price, err := e.pricer.TransferPrice(ctx, reg, d.Name, now)
		if err != nil {
			return Result{}, err
		}
		charge := m.NewOneTime(td.GainingClientID, billing.ReasonTransfer, now,
			now.Add(reg.Durations.TransferGrace), td.TransferPeriodYears, price.TotalCost())
		next.GracePeriods = grace.Set{grace.ForOneTime(grace.Transfer, charge.BillingTime, td.GainingClientID, charge)}
		fees = &price
	}
	next.AutorenewBillingEvent, next.AutorenewPollMessage = m.NewAutorenew(td.GainingClientID, newExpiration)
	next.RegistrationExpirationTime = newExpiration
	next.TransferData = td.Resolved(domain.TransferClientApproved, now)
	next.Statuses = next.Statuses.Without(domain.PendingTransfer)
	next.LastTransferTime = now
	next.CurrentSponsorClientID = td.GainingClientID
	next = next.Touched(actor.ClientID, now)

	m.PollMessages = append(m.PollMessages, gainingPoll(next, next.TransferData, &newExpiration, entry.ID))
	m.Domain = next
	return Result{Mutation: m, Transfer: Response(d.Name, next.TransferData, &newExpiration), Fees: fees}, nil
}

// Reject refuses a pending transfer on behalf of the losing sponsor.
func (e *Engine) Reject(_ context.Context, env Env, snap flows.Snapshot, actor flows.Actor) (Result, error) {
	d := snap.Domain
	if err := verifyPending(d, actor); err != nil {
		return Result{}, err
	}
	if err := verifyOwner(d, actor); err != nil {
		return Result{}, err
	}
	entry := history.NewEntry(history.TypeDomainTransferReject, env.Now, d.RepoID, d.Name, actor.ClientID, actor.Superuser)
	entry = entry.WithRecords(cancelSuccessful(snap, env)...).WithRecords(history.TransactionRecord{
		TLD:           d.TLD(),
		ReportingTime: env.Now,
		Field:         history.TransferNacked,
		Amount:        1,
	})
	return deny(env, snap, actor, entry, domain.TransferClientRejected)
}

// Cancel withdraws a pending transfer on behalf of the gaining registrar.
func (e *Engine) Cancel(_ context.Context, env Env, snap flows.Snapshot, actor flows.Actor) (Result, error) {
	d := snap.Domain
	if err := verifyPending(d, actor); err != nil {
		return Result{}, err
	}
	if !actor.Superuser && actor.ClientID != d.TransferData.GainingClientID {
		return Result{}, &Failure{Kind: FailNotTransferInitiator, Domain: d.Name, ClientID: actor.ClientID}
	}
	entry := history.NewEntry(history.TypeDomainTransferCancel, env.Now, d.RepoID, d.Name, actor.ClientID, actor.Superuser)
	entry = entry.WithRecords(cancelSuccessful(snap, env)...)
	return deny(env, snap, actor, entry, domain.TransferClientCancelled)
}

// ServerCancel resolves a pending transfer as SERVER_CANCELLED inside another
// command's mutation. The losing autorenew is left for the caller to close.
func ServerCancel(m *flows.Mutation, now time.Time) {
	td := m.Domain.TransferData
	if !td.IsPending() {
		return
	}
	m.DeleteBundle(td.Bundle)
	m.Domain.TransferData = td.Resolved(domain.TransferServerCancelled, now)
	m.Domain.Statuses = m.Domain.Statuses.Without(domain.PendingTransfer)
	m.PollMessages = append(m.PollMessages, gainingPoll(m.Domain, m.Domain.TransferData, nil, m.History.ID))
}

// deny ends a transfer without a change of sponsor. The losing autorenew is
// reopened, and the other party is told.
func deny(env Env, snap flows.Snapshot, actor flows.Actor, entry history.Entry, status domain.TransferStatus) (Result, error) {
	d := snap.Domain
	td := d.TransferData
	m := flows.New(d, entry)
	m.DeleteBundle(td.Bundle)
	if err := m.UpdateAutorenewEnd(snap, timeutil.EndOfTime); err != nil {
		return Result{}, err
	}

	next := d
	next.TransferData = td.Resolved(status, env.Now)
	next.Statuses = next.Statuses.Without(domain.PendingTransfer)
	next = next.Touched(actor.ClientID, env.Now)
	m.Domain = next

	if status == domain.TransferClientRejected {
		m.PollMessages = append(m.PollMessages, gainingPoll(next, next.TransferData, nil, entry.ID))
	} else {
		m.PollMessages = append(m.PollMessages, losingPoll(next, next.TransferData, nil, entry.ID))
	}
	return Result{Mutation: m, Transfer: Response(d.Name, next.TransferData, nil)}, nil
}

// cancelSuccessful offsets the TRANSFER_SUCCESSFUL record of the request that
// is being resolved, unless it was already reported.
func cancelSuccessful(snap flows.Snapshot, env Env) []history.TransactionRecord {
	window := env.Registry.Durations.AutomaticTransfer + env.Registry.Durations.TransferGrace
	return history.CancelingRecords(snap.History, env.Now, window, []history.ReportField{history.TransferSuccessful})
}

func verifyPending(d domain.Domain, actor flows.Actor) error {
	if !d.TransferData.IsPending() {
		return &Failure{Kind: FailNotPendingTransfer, Domain: d.Name, ClientID: actor.ClientID}
	}
	return nil
}

func verifyOwner(d domain.Domain, actor flows.Actor) error {
	if !actor.Superuser && actor.ClientID != d.CurrentSponsorClientID {
		return &Failure{Kind: FailResourceNotOwned, Domain: d.Name, ClientID: actor.ClientID}
	}
	return nil
}

func verifyPeriod(years int, superuser bool) *Failure {
	if years == 1 || (superuser && years == 0) {
		return nil
	}
	return &Failure{Kind: FailTransferPeriodMustBeOneYear, Years: years}
}
