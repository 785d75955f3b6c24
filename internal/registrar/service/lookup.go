package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/redis/go-redis/v9"

	"domainreg/internal/registrar/metrics"
	"domainreg/internal/registrar/models"
	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/platform/sentinel"
)

// Store is the registrar system of record.
type Store interface {
	Save(ctx context.Context, r *models.Registrar) error
	FindByClientID(ctx context.Context, clientID id.ClientID) (*models.Registrar, error)
	List(ctx context.Context) ([]*models.Registrar, error)
}

const (
	defaultLocalTTL  = 30 * time.Second
	defaultRemoteTTL = 5 * time.Minute
	redisKeyPrefix   = "domainreg:registrar:"
)

// CachedLookup reads registrars through an in-process cache and an optional
// shared redis cache before falling back to the store. Registrar records
// change rarely, so short TTLs bound staleness and Invalidate clears both
// layers after an admin change.
type CachedLookup struct {
	store     Store
	local     *ristretto.Cache
	remote    redis.UniversalClient
	localTTL  time.Duration
	remoteTTL time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*CachedLookup)

func WithRedis(client redis.UniversalClient) Option {
	return func(l *CachedLookup) {
		l.remote = client
	}
}

func WithTTLs(local, remote time.Duration) Option {
	return func(l *CachedLookup) {
		if local > 0 {
			l.localTTL = local
		}
		if remote > 0 {
			l.remoteTTL = remote
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *CachedLookup) {
		l.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *CachedLookup) {
		l.metrics = m
	}
}

// NewCachedLookup constructs a lookup over store.
func NewCachedLookup(store Store, opts ...Option) (*CachedLookup, error) {
	if store == nil {
		return nil, errors.New("registrar store is required")
	}
	local, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create registrar cache: %w", err)
	}
	l := &CachedLookup{
		store:     store,
		local:     local,
		localTTL:  defaultLocalTTL,
		remoteTTL: defaultRemoteTTL,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Get returns the registrar for clientID.
func (l *CachedLookup) Get(ctx context.Context, clientID id.ClientID) (*models.Registrar, error) {
	key := string(clientID)
	if v, ok := l.local.Get(key); ok {
		l.observe("local")
		cp := *v.(*models.Registrar)
		return &cp, nil
	}

	if l.remote != nil {
		r, err := l.getRemote(ctx, clientID)
		if err == nil {
			l.observe("redis")
			l.setLocal(r)
			return r, nil
		}
		if !errors.Is(err, redis.Nil) {
			// A broken shared cache degrades to the store.
			l.logger.WarnContext(ctx, "registrar cache read failed",
				"client_id", clientID,
				"error", err,
			)
		}
	}

	r, err := l.store.FindByClientID(ctx, clientID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("registrar %s not found", clientID))
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registrar")
	}
	l.observe("store")
	l.setLocal(r)
	if l.remote != nil {
		l.setRemote(ctx, r)
	}
	return r, nil
}

// Save writes a registrar and drops any cached copy.
func (l *CachedLookup) Save(ctx context.Context, r *models.Registrar) error {
	if err := l.store.Save(ctx, r); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save registrar")
	}
	return l.Invalidate(ctx, r.ClientID)
}

// List returns every registrar straight from the store.
func (l *CachedLookup) List(ctx context.Context) ([]*models.Registrar, error) {
	all, err := l.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrars")
	}
	return all, nil
}

// Invalidate drops clientID from both cache layers.
func (l *CachedLookup) Invalidate(ctx context.Context, clientID id.ClientID) error {
	l.local.Del(string(clientID))
	if l.remote == nil {
		return nil
	}
	if err := l.remote.Del(ctx, redisKeyPrefix+string(clientID)).Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to invalidate registrar cache")
	}
	return nil
}

// Close releases the in-process cache.
func (l *CachedLookup) Close() {
	l.local.Close()
}

func (l *CachedLookup) getRemote(ctx context.Context, clientID id.ClientID) (*models.Registrar, error) {
	raw, err := l.remote.Get(ctx, redisKeyPrefix+string(clientID)).Bytes()
	if err != nil {
		return nil, err
	}
	var r models.Registrar
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode cached registrar: %w", err)
	}
	return &r, nil
}

func (l *CachedLookup) setRemote(ctx context.Context, r *models.Registrar) {
	raw, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := l.remote.Set(ctx, redisKeyPrefix+string(r.ClientID), raw, l.remoteTTL).Err(); err != nil {
		l.logger.WarnContext(ctx, "registrar cache write failed",
			"client_id", r.ClientID,
			"error", err,
		)
	}
}

func (l *CachedLookup) setLocal(r *models.Registrar) {
	cp := *r
	l.local.SetWithTTL(string(r.ClientID), &cp, 1, l.localTTL)
	l.local.Wait()
}

func (l *CachedLookup) observe(layer string) {
	if l.metrics != nil {
		l.metrics.ObserveLookup(layer)
	}
}
