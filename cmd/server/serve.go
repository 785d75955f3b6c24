package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	dnsMetrics "domainreg/internal/dns/metrics"
	"domainreg/internal/dns/outbox"
	"domainreg/internal/dns/publisher"
	"domainreg/internal/dns/relay"
	flowhandler "domainreg/internal/flows/handler"
	flowMetrics "domainreg/internal/flows/metrics"
	flows "domainreg/internal/flows/models"
	flowservice "domainreg/internal/flows/service"
	flowstore "domainreg/internal/flows/store"
	jwttoken "domainreg/internal/jwt_token"
	"domainreg/internal/platform/config"
	"domainreg/internal/platform/httpserver"
	"domainreg/internal/platform/kafka"
	"domainreg/internal/platform/logger"
	httpMetrics "domainreg/internal/platform/metrics"
	"domainreg/internal/platform/postgres"
	redisclient "domainreg/internal/platform/redis"
	pollhandler "domainreg/internal/poll/handler"
	pollservice "domainreg/internal/poll/service"
	"domainreg/internal/pricing"
	registrarhandler "domainreg/internal/registrar/handler"
	registrarMetrics "domainreg/internal/registrar/metrics"
	registrarservice "domainreg/internal/registrar/service"
	registrarstore "domainreg/internal/registrar/store"
	"domainreg/internal/tld"
	"domainreg/pkg/platform/httputil"
	"domainreg/pkg/platform/middleware/admin"
	"domainreg/pkg/platform/middleware/auth"
	"domainreg/pkg/platform/middleware/metadata"
	"domainreg/pkg/platform/middleware/request"
	"domainreg/pkg/platform/middleware/requesttime"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "run the registry HTTP API and the DNS refresh relay",
		Action: runServe,
		Description: `
Environment variables:
	DOMAINREG_ADDR                  (default: :8080)
	DOMAINREG_ADMIN_TOKEN           (admin endpoints disabled when empty)
	DOMAINREG_JWT_SIGNING_KEY       (required in production)
	DOMAINREG_TLD_FILE              (default: config/tlds.yaml)
	DOMAINREG_POSTGRES_DSN          (in-memory stores when empty)
	DOMAINREG_REDIS_URL             (registrar cache is process-local when empty)
	DOMAINREG_KAFKA_BROKERS         (DNS refreshes are logged when empty)
	DOMAINREG_KAFKA_DNS_TOPIC       (default: domainreg.dns-refresh)
	DOMAINREG_LOG_LEVEL             (default: info)
`,
	}
}

// domainStore is what both the command service and the poll queue need.
type domainStore interface {
	flows.Store
	pollservice.Store
}

// refreshOutbox is the DNS outbox seen from both the writer and the relay.
type refreshOutbox interface {
	flowservice.Outbox
	relay.Outbox
}

// backends are the storage layers chosen by configuration.
type backends struct {
	domains    domainStore
	registrars registrarservice.Store
	outbox     refreshOutbox
	wake       <-chan struct{}
}

func runServe(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.New("domainreg", cfg.LogLevel)
	ctx = logger.IntoContext(ctx, log)

	registries, err := tld.LoadFile(cfg.Registry.TLDFile)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "tld registries loaded", "tlds", registries.List())

	g, ctx := errgroup.WithContext(ctx)

	be, closeBackends, err := openBackends(ctx, g, cfg, log)
	if err != nil {
		return err
	}
	defer closeBackends()

	lookupOpts := []registrarservice.Option{
		registrarservice.WithTTLs(cfg.Registry.RegistrarL1TTL, cfg.Registry.RegistrarL2TTL),
		registrarservice.WithLogger(logger.Sub(log, "registrar")),
		registrarservice.WithMetrics(registrarMetrics.New()),
	}
	rdb, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		lookupOpts = append(lookupOpts, registrarservice.WithRedis(rdb.Client))
	}
	lookup, err := registrarservice.NewCachedLookup(be.registrars, lookupOpts...)
	if err != nil {
		return err
	}
	defer lookup.Close()

	relayMetrics := dnsMetrics.New()
	commands, err := flowservice.New(be.domains, registries, pricing.StaticPricer{}, registrarservice.NewAuthorizer(lookup), be.outbox,
		flowservice.WithLogger(logger.Sub(log, "flows")),
		flowservice.WithMetrics(flowMetrics.New()),
		flowservice.WithDNSMetrics(relayMetrics),
	)
	if err != nil {
		return err
	}
	queue, err := pollservice.New(be.domains, pollservice.WithLogger(logger.Sub(log, "poll")))
	if err != nil {
		return err
	}

	pub, err := newPublisher(ctx, cfg.Kafka, log)
	if err != nil {
		return err
	}
	rel, err := relay.New(be.outbox, pub,
		relay.WithLogger(logger.Sub(log, "relay")),
		relay.WithMetrics(relayMetrics),
		relay.WithWake(be.wake),
		relay.WithInterval(cfg.Registry.RelayInterval),
		relay.WithBatchSize(cfg.Registry.RelayBatchSize),
	)
	if err != nil {
		return err
	}
	g.Go(func() error { return rel.Run(ctx) })

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	router := newRouter(routerDeps{
		logger:     logger.Sub(log, "http"),
		adminToken: cfg.Server.AdminToken,
		validator:  jwttoken.NewJWTServiceAdapter(jwtService),
		flows:      commands,
		queue:      queue,
		registrars: lookup,
		health:     healthCheck(rdb),
	})
	srv := httpserver.New(cfg.Server.Addr, router)
	g.Go(func() error { return httpserver.Serve(ctx, srv, cfg.Server.ShutdownGrace, log) })

	return g.Wait()
}

// openBackends selects postgres when a DSN is configured and in-memory
// stores otherwise. Background listeners are started on g.
func openBackends(ctx context.Context, g *errgroup.Group, cfg *config.Config, log *slog.Logger) (backends, func(), error) {
	if cfg.Postgres.DSN == "" {
		log.WarnContext(ctx, "no postgres DSN configured, state is kept in memory")
		ob := outbox.NewInMemory()
		return backends{
			domains:    flowstore.NewInMemory(flowstore.WithLockTimeout(cfg.Registry.StoreLockTimeout)),
			registrars: registrarstore.NewInMemory(),
			outbox:     ob,
			wake:       ob.Wake(),
		}, func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return backends{}, nil, err
	}
	listener := outbox.NewListener(cfg.Postgres.DSN, logger.Sub(log, "outbox"))
	g.Go(func() error { return listener.Run(ctx) })
	return backends{
		domains:    flowstore.NewPostgres(db),
		registrars: registrarstore.NewPostgres(db),
		outbox:     outbox.NewPostgres(db),
		wake:       listener.Wake(),
	}, closeDB(db, log), nil
}

func closeDB(db *sql.DB, log *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("closing postgres failed", "error", err)
		}
	}
}

// newPublisher produces to Kafka when brokers are configured and only logs
// refreshes otherwise.
func newPublisher(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger) (relay.Publisher, error) {
	client, err := kafka.New(ctx, cfg, kgo.ClientID("domainreg-dns-relay"))
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.WarnContext(ctx, "no kafka brokers configured, dns refreshes are logged only")
		return publisher.NewLog(logger.Sub(log, "dns")), nil
	}
	context.AfterFunc(ctx, client.Close)
	if err := kafka.EnsureTopic(ctx, client, cfg.DNSTopic, cfg.Partitions, cfg.Replicas); err != nil {
		return nil, err
	}
	return publisher.NewKafka(client, cfg.DNSTopic)
}

type routerDeps struct {
	logger     *slog.Logger
	adminToken string
	validator  auth.JWTValidator
	flows      flowhandler.Service
	queue      pollhandler.Queue
	registrars registrarhandler.Registry
	health     func(ctx context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	m := httpMetrics.New()
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(request.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(metadata.AccessLog(d.logger))
	r.Use(requesttime.Middleware)
	r.Use(m.Middleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.health(r.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRegistrar(d.validator, d.logger))
		flowhandler.New(d.flows, d.logger).Register(r)
		pollhandler.New(d.queue, d.logger).Register(r)
	})
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(d.adminToken, d.logger))
		registrarhandler.New(d.registrars, d.logger).Register(r)
	})
	return r
}

func healthCheck(rdb *redisclient.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return nil
		}
		if err := rdb.Health(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	}
}
