package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appservice "github.com/tilvane/accountd/internal/application/service"
	"github.com/tilvane/accountd/internal/config"
	"github.com/tilvane/accountd/internal/federation"
	"github.com/tilvane/accountd/internal/infrastructure/audit"
	"github.com/tilvane/accountd/internal/infrastructure/crypto"
	"github.com/tilvane/accountd/internal/infrastructure/monitoring"
	"github.com/tilvane/accountd/internal/infrastructure/records"
	"github.com/tilvane/accountd/internal/infrastructure/records/gormstore"
	"github.com/tilvane/accountd/internal/infrastructure/records/redisstore"
	"github.com/tilvane/accountd/internal/infrastructure/secrets"
	httpiface "github.com/tilvane/accountd/internal/interfaces/http"
	"github.com/tilvane/accountd/internal/interfaces/http/handlers"
	"github.com/tilvane/accountd/internal/jwks"
	"github.com/tilvane/accountd/internal/token"
	"github.com/tilvane/accountd/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := logger.NewZap(cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	ctx := context.Background()

	tracing, err := monitoring.NewTracingManager(cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, "failed to initialize tracing", err)
		os.Exit(1)
	}

	secretStore, err := newSecretStore(cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, "failed to create secret store", err)
		os.Exit(1)
	}

	recordStore, err := newRecordStore(ctx, cfg)
	if err != nil {
		appLogger.Error(ctx, "failed to create record store", err)
		os.Exit(1)
	}

	metrics := monitoring.NewMetrics()
	keyManager := crypto.NewKeyManager(secretStore, appLogger)

	jwksCache := jwks.NewCache(appLogger,
		jwks.WithTTL(cfg.JWKS.CacheTTLDuration()),
		jwks.WithHTTPClient(&http.Client{Timeout: cfg.JWKS.FetchTimeoutDuration()}),
		jwks.WithFetchObserver(metrics.RecordJWKSFetch))
	issuer := token.NewIssuer(keyManager, cfg.Identity.Domain, appLogger,
		token.WithIssuerTTL(cfg.Identity.AccessTokenTTLDuration()))
	verifier := token.NewVerifier(jwksCache, cfg.Identity.Domain, appLogger)
	refreshStore := token.NewRefreshStore(recordStore, cfg.Identity.CookiePrefix,
		cfg.Identity.RefreshMaxAgeDuration(), appLogger)

	federator := federation.NewFederator(appLogger)
	federator.Register(federation.ProviderGoogle,
		federation.NewGoogleVerifier(cfg.Identity.GoogleClientID))

	var auditor audit.Publisher = audit.NewNopPublisher()
	if cfg.Kafka.Enabled {
		auditor = audit.NewKafkaPublisher(cfg.Kafka, appLogger)
	}
	defer auditor.Close()

	loginSvc := appservice.NewLoginService(federator, recordStore, refreshStore,
		issuer, keyManager, metrics, auditor, appLogger)
	accountSvc := appservice.NewAccountService(recordStore, appLogger)

	router := httpiface.NewRouter(cfg, appLogger, metrics, tracing, verifier,
		handlers.NewLoginHandler(loginSvc), handlers.NewAccountHandler(accountSvc))

	go func() {
		if err := router.Start(); err != nil {
			appLogger.Error(ctx, "http server failed", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := router.Stop(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "server shutdown failed", err)
	}
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "tracing shutdown failed", err)
	}
}

func newSecretStore(cfg *config.Config, log logger.Logger) (secrets.Store, error) {
	switch cfg.Secrets.Driver {
	case "vault":
		return secrets.NewVaultStore(cfg.Vault, nil, log)
	default:
		return secrets.NewMemoryStore(), nil
	}
}

func newRecordStore(ctx context.Context, cfg *config.Config) (records.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return gormstore.NewPostgres(cfg.Database)
	case "redis":
		return redisstore.NewFromConfig(ctx, cfg.Redis)
	default:
		return records.NewMemoryStore(), nil
	}
}
