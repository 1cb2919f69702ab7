package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/TranslateGo/internal/auth"
	"github.com/utafrali/TranslateGo/internal/config"
	"github.com/utafrali/TranslateGo/internal/event"
	handler "github.com/utafrali/TranslateGo/internal/handler/http"
	"github.com/utafrali/TranslateGo/internal/oauth"
	"github.com/utafrali/TranslateGo/internal/repository/postgres"
	"github.com/utafrali/TranslateGo/internal/service"
	"github.com/utafrali/TranslateGo/internal/translator"
	"github.com/utafrali/TranslateGo/migrations"
	"github.com/utafrali/TranslateGo/pkg/database"
	"github.com/utafrali/TranslateGo/pkg/health"
	pkgkafka "github.com/utafrali/TranslateGo/pkg/kafka"
	"github.com/utafrali/TranslateGo/pkg/middleware"
	"github.com/utafrali/TranslateGo/pkg/tracing"
)

// ServiceName identifies this service in logs, metrics and traces.
const ServiceName = "translate-service"

const (
	oauthStatePrefix  = "translate:oauth:state:"
	idempotencyPrefix = "translate:processed"
	idempotencyTTL    = 24 * time.Hour
)

// App wires together all dependencies and runs the translate service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	worker         *pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	// Release whatever was opened if a later step fails.
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	a.tracerShutdown, err = tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRate:     cfg.OTelSampleRate,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// PostgreSQL
	a.pool, err = database.NewPostgresPool(ctx, cfg.PostgresConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(a.pool, ServiceName); err != nil {
		logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}
	if err = database.RunMigrations(ctx, a.pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")
	if cfg.SlowQueryThreshold > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)
	}

	// Redis
	a.redis, err = database.NewRedisClient(ctx, cfg.RedisConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisConfig().Addr()))

	// Kafka
	a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Dependency graph.
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTokenExpiry, auth.WithIssuer(ServiceName))
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	accounts := postgres.NewAccountRepository(a.pool)
	identities := postgres.NewIdentityRepository(a.pool)
	jobs := postgres.NewTranslationJobRepository(a.pool)
	events := event.NewProducer(a.producer, logger)

	resolver := service.NewIdentityResolver(postgres.NewTransactor(a.pool), logger)
	accountSvc := service.NewAccountService(accounts, identities, resolver, hasher, tokens, events, logger)
	translationSvc := service.NewTranslationService(jobs, translator.New(translator.Config{
		APIURL:    cfg.TranslateAPIURL,
		APIKey:    cfg.TranslateAPIKey,
		Timeout:   cfg.TranslateAPITimeout,
		MockDelay: cfg.TranslateMockDelay,
	}, logger), events, logger)

	a.worker = event.NewTranslationWorker(
		event.WorkerConfig{Brokers: cfg.KafkaBrokers, GroupID: cfg.KafkaGroupID},
		translationSvc,
		pkgkafka.NewRedisIdempotencyStore(a.redis, idempotencyPrefix, idempotencyTTL),
		a.dlq,
		logger,
	)

	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(accountSvc, logger),
		Account:     handler.NewAccountHandler(accountSvc, logger),
		Translation: handler.NewTranslationHandler(translationSvc, logger),
	}
	if registry := buildProviders(ctx, cfg, logger); len(registry.Names()) > 0 {
		flow := oauth.NewFlow(registry, oauth.NewStateStore(a.redis, oauthStatePrefix, cfg.OAuthStateTTL), logger)
		handlers.OAuth = handler.NewOAuthHandler(flow, accountSvc, cfg.OAuthFrontendRedirect, logger)
	} else {
		logger.Info("no oauth providers configured, provider login disabled")
	}

	// Health checks.
	healthHandler := health.NewHandler()
	pool, rdb, producer := a.pool, a.redis, a.producer
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	routerCfg := handler.RouterConfig{
		ServiceName: ServiceName,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
	}
	if cfg.AuthRateLimitRPS > 0 {
		routerCfg.AuthRateLimit = &middleware.RateLimitConfig{
			RPS:            cfg.AuthRateLimitRPS,
			Burst:          cfg.AuthRateLimitBurst,
			TrustForwarded: cfg.TrustProxyHeaders,
		}
	}

	router := handler.NewRouter(
		handlers,
		handler.AuthenticationGate(tokens, accounts, logger),
		healthHandler,
		logger,
		routerCfg,
	)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// buildProviders registers every provider whose client credentials are set.
// A provider that fails to initialize is skipped so password login keeps
// working.
func buildProviders(ctx context.Context, cfg *config.Config, logger *slog.Logger) *oauth.Registry {
	var providers []oauth.Provider

	google := oauth.Credentials{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	}
	if google.Configured() {
		p, err := oauth.NewGoogle(ctx, cfg.GoogleIssuerURL, google)
		if err != nil {
			logger.Error("google provider disabled", slog.String("error", err.Error()))
		} else {
			providers = append(providers, p)
		}
	}

	github := oauth.Credentials{
		ClientID:     cfg.GitHubClientID,
		ClientSecret: cfg.GitHubClientSecret,
		RedirectURL:  cfg.GitHubRedirectURL,
	}
	if github.Configured() {
		p, err := oauth.NewGitHub(github)
		if err != nil {
			logger.Error("github provider disabled", slog.String("error", err.Error()))
		} else {
			providers = append(providers, p)
		}
	}

	registry := oauth.NewRegistry(providers...)
	if names := registry.Names(); len(names) > 0 {
		logger.Info("oauth providers enabled", slog.Any("providers", names))
	}
	return registry
}

// Run starts the HTTP server and the translation worker and blocks until ctx
// is canceled or either of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.worker.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Translation worker
// 3. Tracer (flush spans of drained requests)
// 4. Kafka writers, Redis and PostgreSQL
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.worker.Close(); err != nil {
		a.logger.Error("translation worker close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.closeResources(); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases everything NewApp opened. Nil members are skipped.
func (a *App) closeResources() error {
	var errs []error

	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}

	return errors.Join(errs...)
}
