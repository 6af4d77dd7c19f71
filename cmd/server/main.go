// server runs the portal HTTP API: identity, provider dispatch, and the audit trail.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"selfserve-cloud-portal/internal/audit"
	"selfserve-cloud-portal/internal/audit/producer"
	auditrepo "selfserve-cloud-portal/internal/audit/repository"
	"selfserve-cloud-portal/internal/config"
	"selfserve-cloud-portal/internal/db"
	"selfserve-cloud-portal/internal/db/migrate"
	"selfserve-cloud-portal/internal/dispatch"
	identityrepo "selfserve-cloud-portal/internal/identity/repository"
	"selfserve-cloud-portal/internal/identity/service"
	"selfserve-cloud-portal/internal/provider"
	"selfserve-cloud-portal/internal/security"
	"selfserve-cloud-portal/internal/server"
	"selfserve-cloud-portal/internal/session"
	portalotel "selfserve-cloud-portal/internal/telemetry/otel"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx := context.Background()
	providers, err := portalotel.NewProviders(ctx, cfg.OTLPEndpoint, "selfserve-portal", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migrate: %v", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	flavor, _, _, err := db.ParseDSN(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	var identities service.IdentityRepo
	var audits auditrepo.Repository
	if flavor == db.FlavorPostgres {
		identities = identityrepo.NewPostgresRepository(conn)
		audits = auditrepo.NewPostgresRepository(conn)
	} else {
		identities = identityrepo.NewSQLiteRepository(conn)
		audits = auditrepo.NewSQLiteRepository(conn)
	}

	sessions := session.NewManager(cfg.SessionLifetime())
	hasher := security.NewHasher(cfg.BcryptCost)
	auth := service.NewAuthService(identities, hasher, sessions)

	if created, err := auth.SeedDefaultAdmin(ctx, cfg.AdminInitialPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	} else if created {
		logger.Info("seeded default admin identity", "name", service.AdminName)
	}

	kafkaProducer := producer.NewKafkaProducer(cfg.AuditKafkaBrokersList(), cfg.AuditKafkaTopic)
	var emitter audit.EventEmitter = audit.MultiEmitter{
		portalotel.NewEventEmitter(providers.LoggerProvider),
		kafkaProducer,
	}
	trail := audit.NewRecorder(audits, emitter)

	disp := dispatch.NewService(provider.NewRegistry(), trail, cfg.ProviderCallTimeout(), logger)

	router := server.NewRouter(server.Deps{
		Auth:     auth,
		Sessions: sessions,
		Dispatch: disp,
		Trail:    trail,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	// Let in-flight async audit mirror emits finish before closing side channels.
	time.Sleep(audit.ShutdownDrainDuration)
	if err := kafkaProducer.Close(); err != nil {
		logger.Error("kafka close", "error", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown", "error", err)
	}
	logger.Info("http server stopped")
}
