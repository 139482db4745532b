package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"treasury/internal/admin"
	"treasury/internal/authorization"
	exphandler "treasury/internal/expenditure/handler"
	expmetrics "treasury/internal/expenditure/metrics"
	"treasury/internal/expenditure/service"
	expmemory "treasury/internal/expenditure/store/memory"
	exppostgres "treasury/internal/expenditure/store/postgres"
	httpapi "treasury/internal/http"
	jwttoken "treasury/internal/jwt_token"
	"treasury/internal/network"
	"treasury/internal/platform/config"
	"treasury/internal/platform/httpserver"
	"treasury/internal/platform/kafka"
	"treasury/internal/platform/logger"
	"treasury/internal/platform/metrics"
	"treasury/internal/platform/postgres"
	"treasury/internal/platform/redis"
	"treasury/internal/ratelimit"
	ratememory "treasury/internal/ratelimit/store/memory"
	rateredis "treasury/internal/ratelimit/store/redis"
	skillmodels "treasury/internal/skill/models"
	skillservice "treasury/internal/skill/service"
	skillmemory "treasury/internal/skill/store/memory"
	skillredis "treasury/internal/skill/store/redis"
	id "treasury/pkg/domain"
	audit "treasury/pkg/platform/audit"
	"treasury/pkg/platform/audit/consumer"
	"treasury/pkg/platform/audit/outbox"
	"treasury/pkg/platform/audit/publishers/compliance"
	"treasury/pkg/platform/audit/publishers/security"
	auditmemory "treasury/pkg/platform/audit/store/memory"
	auditpg "treasury/pkg/platform/audit/store/postgres"
	"treasury/pkg/platform/circuit"
	authmw "treasury/pkg/platform/middleware/auth"
)

const (
	auditTopicPartitions  = 3
	auditTopicReplication = 1
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the audit pipeline",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

// backend holds the storage-dependent pieces chosen by TREASURY_STORAGE.
type backend struct {
	tx         service.StoreTx
	auditStore audit.Store
	db         *sql.DB
	outbox     *auditpg.Store
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	seed, err := config.LoadSeed(cfg.Server.SeedFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	healthChecks := map[string]httpapi.HealthCheck{}

	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	if be.db != nil {
		defer be.db.Close()
		healthChecks["postgres"] = be.db.PingContext
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		healthChecks["redis"] = rdb.Health
	}

	compliancePublisher := compliance.New(be.auditStore,
		compliance.WithLogger(log),
		compliance.WithMetrics(compliance.NewMetrics(reg)),
	)
	securityAuditor := security.New(be.auditStore,
		security.WithBufferSize(cfg.Audit.SecurityBuffer),
		security.WithBatchSize(cfg.Audit.SecurityBatch),
		security.WithLogger(log),
		security.WithMetrics(security.NewMetrics(reg)),
	)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		securityAuditor.Close(flushCtx)
	}()

	roles := authorization.NewRegistry(
		authorization.WithLogger(log),
		authorization.WithSecurityAuditor(securityAuditor),
	)
	for _, a := range seed.Administrators {
		account, err := id.ParseAddress(a.Account)
		if err != nil {
			return fmt.Errorf("seed administrator %q: %w", a.Account, err)
		}
		if err := roles.Grant(ctx, id.DomainID(a.Domain), account); err != nil {
			return fmt.Errorf("seed administrator %q: %w", a.Account, err)
		}
	}

	skills := newSkillService(rdb, securityAuditor, log)
	catalogue := make([]skillmodels.Skill, 0, len(seed.Skills))
	for _, sk := range seed.Skills {
		catalogue = append(catalogue, skillmodels.Skill{ID: id.SkillID(sk.ID), Deprecated: sk.Deprecated})
	}
	if err := skills.Seed(ctx, catalogue); err != nil {
		return fmt.Errorf("seed skills: %w", err)
	}

	params, err := network.New(cfg.Network.FeeInverse, cfg.Network.TreasuryAccount, cfg.Network.OrganizationAccount)
	if err != nil {
		return err
	}

	svc, err := service.New(be.tx, roles, skills, params,
		service.WithLogger(log),
		service.WithAuditPublisher(compliancePublisher),
		service.WithSecurityAuditor(securityAuditor),
		service.WithMetrics(expmetrics.New(reg)),
		service.WithMaxRecipientSkills(cfg.Treasury.MaxRecipientSkills),
	)
	if err != nil {
		return err
	}
	if err := svc.Bootstrap(ctx); err != nil {
		return fmt.Errorf("bootstrap root funding pot: %w", err)
	}

	var revocations interface {
		authmw.TokenRevocationChecker
		admin.TokenRevoker
	} = jwttoken.NewMemoryRevocationList()
	if rdb != nil {
		revocations = jwttoken.NewRedisRevocationList(rdb.Client)
	}
	var rateStore ratelimit.Store = ratememory.New()
	if rdb != nil {
		rateStore = rateredis.New(rdb.Client)
	}
	limiter := ratelimit.New(rateStore, map[ratelimit.Class]ratelimit.Limit{
		ratelimit.ClassWrite: {Requests: cfg.RateLimit.WriteRequests, Window: cfg.RateLimit.Window},
		ratelimit.ClassRead:  {Requests: cfg.RateLimit.ReadRequests, Window: cfg.RateLimit.Window},
	}, log, ratelimit.WithDisabled(cfg.RateLimit.Disabled), ratelimit.WithRegisterer(reg))

	jwt := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)

	g, gctx := errgroup.WithContext(ctx)

	if be.outbox != nil {
		producer, err := newAuditProducer(ctx, cfg, be.outbox, log)
		if err != nil {
			return err
		}
		if p, ok := producer.(*kafka.Producer); ok {
			defer p.Close()
			healthChecks["kafka"] = p.Health
		}
		relay := outbox.NewRelay(be.outbox, producer, cfg.Kafka.AuditTopic,
			outbox.WithInterval(cfg.Kafka.RelayInterval),
			outbox.WithBatchSize(cfg.Kafka.RelayBatch),
			outbox.WithLogger(log),
		)
		g.Go(func() error { return ignoreCancel(relay.Run(gctx)) })

		if cfg.KafkaEnabled() {
			c, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, []string{cfg.Kafka.AuditTopic}, log)
			if err != nil {
				return err
			}
			defer c.Close()
			handler := consumer.NewHandler(be.outbox, log)
			g.Go(func() error { return ignoreCancel(c.Run(gctx, handler)) })
		}
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:       log,
		Metrics:      metrics.New(reg),
		Gatherer:     reg,
		Validator:    jwttoken.NewJWTServiceAdapter(jwt),
		Revocations:  revocations,
		RateLimiter:  limiter,
		AdminToken:   cfg.Server.AdminToken,
		Expenditures: exphandler.New(svc, log),
		Admin:        admin.New(roles, skills, be.auditStore, revocations, cfg.Auth.TokenTTL, log),
		HealthChecks: healthChecks,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g.Go(func() error {
		log.InfoContext(gctx, "starting treasury",
			"addr", cfg.Server.Addr,
			"storage", cfg.Storage.Driver,
			"kafka", cfg.KafkaEnabled(),
			"redis", rdb != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openBackend(ctx context.Context, cfg config.Config, log *slog.Logger) (backend, error) {
	if cfg.Storage.Driver != config.StoragePostgres {
		return backend{
			tx:         expmemory.New(expmemory.WithTxTimeout(cfg.Storage.TxTimeout)),
			auditStore: auditmemory.NewInMemoryStore(),
		}, nil
	}

	db, err := postgres.Open(ctx, cfg.Storage.DatabaseURL, cfg.Storage.MaxConns)
	if err != nil {
		return backend{}, err
	}
	applied, err := postgres.Migrate(ctx, db)
	if err != nil {
		_ = db.Close()
		return backend{}, err
	}
	if len(applied) > 0 {
		log.InfoContext(ctx, "applied migrations", "versions", applied)
	}
	outboxStore := auditpg.New(db)
	return backend{
		tx:         exppostgres.New(db, exppostgres.WithTxTimeout(cfg.Storage.TxTimeout)),
		auditStore: outboxStore,
		db:         db,
		outbox:     outboxStore,
	}, nil
}

// newSkillService prefers the Redis catalogue, falling back to a local
// mirror while Redis is unavailable.
func newSkillService(rdb *redis.Client, auditor skillservice.SecurityAuditor, log *slog.Logger) *skillservice.Service {
	opts := []skillservice.Option{
		skillservice.WithLogger(log),
		skillservice.WithSecurityAuditor(auditor),
	}
	if rdb == nil {
		return skillservice.New(skillmemory.New(), opts...)
	}
	opts = append(opts, skillservice.WithFallback(circuit.New("skill-store")))
	return skillservice.New(skillredis.New(rdb.Client), opts...)
}

// newAuditProducer publishes to Kafka when brokers are configured and
// otherwise materializes outbox rows in-process.
func newAuditProducer(ctx context.Context, cfg config.Config, store *auditpg.Store, log *slog.Logger) (outbox.Producer, error) {
	if !cfg.KafkaEnabled() {
		return consumer.NewLoopback(consumer.NewHandler(store, log)), nil
	}
	if err := kafka.EnsureTopics(ctx, cfg.Kafka.Brokers, auditTopicPartitions, auditTopicReplication, cfg.Kafka.AuditTopic); err != nil {
		return nil, err
	}
	return kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
