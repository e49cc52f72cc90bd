package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"propmarket/internal/audit"
	"propmarket/internal/customer"
	"propmarket/internal/identity"
	"propmarket/internal/identity/revocation"
	"propmarket/internal/jwttoken"
	"propmarket/internal/platform/config"
	"propmarket/internal/platform/httpserver"
	"propmarket/internal/platform/logger"
	"propmarket/internal/platform/metrics"
	"propmarket/internal/platform/postgres"
	platformredis "propmarket/internal/platform/redis"
	"propmarket/internal/property"
	"propmarket/internal/registrar"
	"propmarket/internal/seller"
	transporthttp "propmarket/internal/transport/http"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("connect postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	identityStore := identity.NewPostgres(db)
	customerStore := customer.NewPostgres(db)
	sellerStore := seller.NewPostgres(db)
	propertyStore := property.NewPostgres(db)
	auditStore := audit.NewPostgres(db)

	// Audit events fan out through a bounded inbox; a full buffer drops the
	// event rather than stalling a request.
	auditInbox := audit.NewChannelPublisher(1024)
	auditWorker := audit.NewWorker(auditStore, auditInbox.Events())

	var auditPublisher audit.Publisher = auditInbox
	var kafkaPublisher *audit.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err = audit.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		auditPublisher = fanout{auditInbox, kafkaPublisher}
	}

	tokens := jwttoken.New(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTExpiresIn)

	var revocations identity.RevocationList = revocation.NewMemoryList()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocations = revocation.NewRedisList(redisClient.Client)
	}

	identitySvc := identity.NewService(identityStore, tokens,
		identity.WithLogger(log),
		identity.WithMetrics(m),
		identity.WithAuditPublisher(auditPublisher),
		identity.WithRevocationList(revocations),
	)
	customerSvc := customer.NewService(customerStore,
		customer.WithLogger(log),
		customer.WithAuditPublisher(auditPublisher),
	)
	sellerSvc := seller.NewService(sellerStore,
		seller.WithLogger(log),
		seller.WithMetrics(m),
		seller.WithAuditPublisher(auditPublisher),
	)
	propertySvc := property.NewService(propertyStore,
		property.WithLogger(log),
		property.WithAuditPublisher(auditPublisher),
	)

	registrarSvc := registrar.New(
		registrar.NewPostgresTx(db),
		registrar.Stores{Identities: identityStore, Customers: customerStore, Sellers: sellerStore},
		registrar.WithLogger(log),
		registrar.WithMetrics(m),
		registrar.WithAuditPublisher(auditPublisher),
		registrar.WithPropertyCounter(propertyStore),
		registrar.WithTracer(registrar.Tracer()),
	)

	router := transporthttp.NewRouter(transporthttp.Deps{
		Users:      transporthttp.NewUserHandler(identitySvc, log),
		Customers:  transporthttp.NewCustomerHandler(registrarSvc, customerSvc, identitySvc, log),
		Sellers:    transporthttp.NewSellerHandler(registrarSvc, sellerSvc, identitySvc, log),
		Properties: transporthttp.NewPropertyHandler(propertySvc, identitySvc, log),
		Logger:     log,
		Metrics:    m,
		Gatherer:   registry,
		Health: func() error {
			return db.PingContext(context.Background())
		},
	})

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := auditWorker.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		log.Info("starting propmarket", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if kafkaPublisher != nil {
			_ = kafkaPublisher.Close(shutdownCtx)
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// fanout emits each audit event to every publisher.
type fanout []audit.Publisher

func (f fanout) Emit(ctx context.Context, event audit.Event) {
	for _, p := range f {
		p.Emit(ctx, event)
	}
}
