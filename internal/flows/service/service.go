// Package service runs domain commands. Each command loads one domain's
// object graph under the store's per-name lock, projects it to the command
// instant, validates, and applies a single Mutation together with a DNS
// refresh request.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dnsMetrics "domainreg/internal/dns/metrics"
	dns "domainreg/internal/dns/models"
	domain "domainreg/internal/domain/models"
	"domainreg/internal/flows/metrics"
	flows "domainreg/internal/flows/models"
	poll "domainreg/internal/poll/models"
	"domainreg/internal/pricing"
	registrar "domainreg/internal/registrar/models"
	"domainreg/internal/tld"
	"domainreg/internal/transfer"
	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/platform/sentinel"
	"domainreg/pkg/requestcontext"
)

// Registries resolves TLD policy.
type Registries interface {
	Get(ctx context.Context, tld string) (tld.Registry, error)
}

// Authorizer answers whether a registrar may act.
type Authorizer interface {
	VerifyActive(ctx context.Context, clientID id.ClientID) (*registrar.Registrar, error)
	VerifySponsor(ctx context.Context, clientID id.ClientID, d domain.Domain) error
	VerifyTLDAccess(ctx context.Context, clientID id.ClientID, tld string) error
	BlocksPremiumNames(ctx context.Context, clientID id.ClientID) (bool, error)
}

// Outbox records DNS refresh requests. Enqueue runs inside the command's
// transaction and must join it when the store supports that.
type Outbox interface {
	Enqueue(ctx context.Context, r dns.Refresh) error
}

// Service executes domain lifecycle and transfer commands.
type Service struct {
	store      flows.Store
	registries Registries
	pricer     pricing.Pricer
	auth       Authorizer
	outbox     Outbox
	engine     *transfer.Engine
	logger     *slog.Logger
	metrics    *metrics.Metrics
	dnsMetrics *dnsMetrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDNSMetrics counts committed DNS refresh requests.
func WithDNSMetrics(m *dnsMetrics.Metrics) Option {
	return func(s *Service) {
		s.dnsMetrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New constructs a Service.
func New(store flows.Store, registries Registries, pricer pricing.Pricer, auth Authorizer, outbox Outbox, opts ...Option) (*Service, error) {
	switch {
	case store == nil:
		return nil, errors.New("domain store is required")
	case registries == nil:
		return nil, errors.New("tld registries are required")
	case pricer == nil:
		return nil, errors.New("pricer is required")
	case auth == nil:
		return nil, errors.New("authorizer is required")
	case outbox == nil:
		return nil, errors.New("dns outbox is required")
	}
	s := &Service{
		store:      store,
		registries: registries,
		pricer:     pricer,
		auth:       auth,
		outbox:     outbox,
		engine:     transfer.NewEngine(pricer),
		logger:     slog.Default(),
		tracer:     otel.Tracer("domainreg/flows"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// outcome is what a mutating flow computed.
type outcome struct {
	mutation flows.Mutation
	transfer *poll.TransferResponse
	fees     *pricing.FeesAndCredits
	pending  bool
}

type mutateFunc func(ctx context.Context, tx flows.Tx, now time.Time) (outcome, error)

// mutate runs fn under the lock for name and commits what it returns.
func (s *Service) mutate(ctx context.Context, flow string, name id.DomainName, reason dns.Reason, actor flows.Actor, fn mutateFunc) (flows.Result, error) {
	ctx, span := s.tracer.Start(ctx, "flows."+flow, trace.WithAttributes(
		attribute.String("domain", string(name)),
		attribute.String("client_id", string(actor.ClientID)),
		attribute.Bool("superuser", actor.Superuser),
	))
	defer span.End()
	start := time.Now()
	now := requestcontext.Now(ctx)

	var (
		result    flows.Result
		refreshed bool
	)
	err := s.store.RunInTx(ctx, name, func(ctx context.Context, tx flows.Tx) error {
		out, err := fn(ctx, tx, now)
		if err != nil {
			return err
		}
		m := out.mutation
		if err := m.Domain.Validate(); err != nil {
			return err
		}
		if err := tx.Apply(ctx, m); err != nil {
			return fmt.Errorf("apply %s: %w", flow, err)
		}
		if m.RefreshDNS {
			refresh := dns.Refresh{Domain: name, Reason: reason, RequestedAt: now}
			if err := s.outbox.Enqueue(ctx, refresh); err != nil {
				return fmt.Errorf("enqueue dns refresh: %w", err)
			}
		}
		refreshed = m.RefreshDNS
		result = flows.NewResult(m)
		result.Transfer = out.transfer
		result.Fees = out.fees
		result.ActionPending = out.pending
		return nil
	})
	err = s.finish(ctx, span, flow, name, start, err)
	if err != nil {
		return flows.Result{}, err
	}
	if refreshed {
		s.dnsMetrics.IncEnqueued()
	}
	s.logger.InfoContext(ctx, "domain command committed",
		"flow", flow,
		"domain", name,
		"client_id", actor.ClientID,
		"history_id", result.History.ID,
	)
	return result, nil
}

// read runs fn under the lock for name without writing.
func (s *Service) read(ctx context.Context, flow string, name id.DomainName, fn func(ctx context.Context, tx flows.Tx, now time.Time) error) error {
	ctx, span := s.tracer.Start(ctx, "flows."+flow, trace.WithAttributes(attribute.String("domain", string(name))))
	defer span.End()
	start := time.Now()
	now := requestcontext.Now(ctx)
	err := s.store.RunInTx(ctx, name, func(ctx context.Context, tx flows.Tx) error {
		return fn(ctx, tx, now)
	})
	return s.finish(ctx, span, flow, name, start, err)
}

func (s *Service) finish(ctx context.Context, span trace.Span, flow string, name id.DomainName, start time.Time, err error) error {
	err = translate(err)
	label := "ok"
	if err != nil {
		code := dErrors.CodeOf(err)
		label = string(code)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		switch code {
		case dErrors.CodeInternal, dErrors.CodeInvariantViolation:
			s.logger.ErrorContext(ctx, "domain command failed", "flow", flow, "domain", name, "error", err)
		default:
			s.logger.InfoContext(ctx, "domain command rejected", "flow", flow, "domain", name, "code", code, "error", err)
		}
	}
	s.metrics.ObserveCommand(flow, label, time.Since(start).Seconds())
	return err
}

// translate maps store sentinels to coded errors and leaves coded failures alone.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var coded dErrors.Coded
	switch {
	case errors.As(err, &coded):
		return err
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "domain was modified concurrently, retry the command")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "domain store unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "command timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "command failed")
	}
}

// load reads the live object graph for name, projected to now.
func (s *Service) load(ctx context.Context, tx flows.Tx, name id.DomainName, now time.Time) (flows.Snapshot, tld.Registry, error) {
	reg, err := s.registries.Get(ctx, name.TLD())
	if err != nil {
		return flows.Snapshot{}, tld.Registry{}, err
	}
	stored, err := tx.Domain(ctx, name)
	if errors.Is(err, sentinel.ErrNotFound) {
		return flows.Snapshot{}, reg, &Failure{Kind: FailDomainNotFound, Domain: name}
	}
	if err != nil {
		return flows.Snapshot{}, reg, fmt.Errorf("load domain: %w", err)
	}
	if stored.IsDeletedAt(now) {
		return flows.Snapshot{}, reg, &Failure{Kind: FailDomainNotFound, Domain: name}
	}
	d := domain.ProjectAt(stored, now, reg)

	recurring, err := tx.Recurring(ctx, d.AutorenewBillingEvent)
	if errors.Is(err, sentinel.ErrNotFound) {
		return flows.Snapshot{}, reg, dErrors.Wrap(err, dErrors.CodeInvariantViolation,
			fmt.Sprintf("%s: autorenew billing event %s missing", name, d.AutorenewBillingEvent))
	}
	if err != nil {
		return flows.Snapshot{}, reg, fmt.Errorf("load autorenew billing event: %w", err)
	}
	snap := flows.Snapshot{Domain: d, Recurring: recurring}

	msg, err := tx.PollMessage(ctx, d.AutorenewPollMessage)
	switch {
	case err == nil:
		snap.AutorenewPoll = &msg
	case !errors.Is(err, sentinel.ErrNotFound):
		return flows.Snapshot{}, reg, fmt.Errorf("load autorenew poll message: %w", err)
	}

	window := max(reg.MaxCancelableSearch(), reg.Durations.AutomaticTransfer+reg.Durations.TransferGrace)
	snap.History, err = tx.HistoryEntries(ctx, d.RepoID, now.Add(-window))
	if err != nil {
		return flows.Snapshot{}, reg, fmt.Errorf("load history: %w", err)
	}
	return snap, reg, nil
}

// authorizeSponsor checks that actor may change d. Superusers need only be active.
func (s *Service) authorizeSponsor(ctx context.Context, actor flows.Actor, d domain.Domain) error {
	if actor.Superuser {
		_, err := s.auth.VerifyActive(ctx, actor.ClientID)
		return err
	}
	if err := s.auth.VerifySponsor(ctx, actor.ClientID, d); err != nil {
		return err
	}
	return s.auth.VerifyTLDAccess(ctx, actor.ClientID, d.TLD())
}

// verifyPremium refuses a premium price to a registrar that blocks them.
func (s *Service) verifyPremium(ctx context.Context, actor flows.Actor, name id.DomainName, price pricing.FeesAndCredits) error {
	if actor.Superuser || !price.IsPremium() {
		return nil
	}
	blocked, err := s.auth.BlocksPremiumNames(ctx, actor.ClientID)
	if err != nil {
		return err
	}
	return pricing.VerifyPremiumNotBlocked(name, price, blocked)
}

func verifyPeriod(name id.DomainName, years int) error {
	if years < 1 || years > domain.MaxRegistrationYears {
		return &Failure{Kind: FailPeriodOutOfRange, Domain: name, Years: years}
	}
	return nil
}
