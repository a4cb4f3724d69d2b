package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/aussiebroadwan/bartab-connect/internal/connect/http"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/oauth"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/service"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store/drivers/memory"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store/drivers/postgres"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store/drivers/redis"
	"github.com/aussiebroadwan/bartab-connect/internal/connect/store/drivers/sqlite"
	"github.com/aussiebroadwan/bartab-connect/pkg/cryptox"
	"github.com/aussiebroadwan/bartab-connect/pkg/jwtx"
	"github.com/aussiebroadwan/bartab-connect/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	serviceName = "connect-service"
)

// Application encapsulates the connect service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db              store.Store
	states          store.States
	cipher          *cryptox.Cipher
	verifier        jwtx.Verifier
	shutdownTracing func(context.Context) error

	// Services
	manager             *service.Manager
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: serviceName,
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	shutdown, err := setupTracing(ctx, cfg.OTelEndpoint, serviceName, BuildVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	app.shutdownTracing = shutdown

	if err := app.initCipher(); err != nil {
		return nil, err
	}
	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initStates(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		app.closeStores()
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		app.closeStores()
		return nil, err
	}

	return app, nil
}

// Handler exposes the root handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.server.Handler }

// Run serves until ctx is cancelled, SIGINT/SIGTERM arrives or the server
// fails, then shuts down.
func (app *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.housekeepingService.Start()

	app.logger.Info("connect service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"providers", app.manager.Providers.Names(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutdown requested")
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down connect service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.shutdownTracing(ctx); err != nil {
		app.logger.Error("error flushing traces", "error", err)
	}

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("connect service stopped")
	return nil
}

func (app *Application) closeStores() error {
	var errs []error
	if app.states != nil {
		if err := app.states.Close(); err != nil {
			app.logger.Error("error closing state store", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// initCipher loads the master key. A missing key is tolerated in dev only.
func (app *Application) initCipher() error {
	material, ephemeral, err := cryptox.LoadMasterKey(app.cfg.MasterKeyFile)
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}
	if ephemeral {
		if app.cfg.Env != "dev" {
			return errors.New("no master key configured: set CONNECT_MASTER_KEY_FILE or " + cryptox.MasterKeyEnv)
		}
		app.logger.Warn("using an ephemeral master key, stored connections will not survive a restart")
	}

	cipher, err := cryptox.NewCipher(material)
	if err != nil {
		return fmt.Errorf("failed to initialize token cipher: %w", err)
	}
	app.cipher = cipher
	return nil
}

// initDatabase opens the token store and applies migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.StoreDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.StoreDriver)
	return nil
}

// initStates picks where pending authorizations live. Only redis and sqlite
// survive a restart or work across replicas.
func (app *Application) initStates(ctx context.Context) error {
	switch app.cfg.StateDriver {
	case "redis":
		client, err := redis.Connect(ctx, app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.states = redis.NewStates(client, redis.DefaultKeyPrefix)
	case "sqlite":
		db, ok := app.db.(*sqlite.Store)
		if !ok {
			return errors.New("sqlite state store requires the sqlite token store")
		}
		app.states = db.States()
	default:
		app.states = memory.NewStates()
	}

	app.logger.Info("state store ready", "driver", app.cfg.StateDriver)
	return nil
}

func (app *Application) initServices() error {
	providers, err := app.cfg.Providers(oauth.NewHTTPClient())
	if err != nil {
		return fmt.Errorf("failed to register providers: %w", err)
	}
	if len(providers.Names()) == 0 {
		app.logger.Warn("no providers configured, set <PROVIDER>_CLIENT_ID to enable one")
	}

	app.manager = &service.Manager{
		Providers:        providers,
		Store:            app.db,
		States:           app.states,
		Cipher:           app.cipher,
		StateTTL:         app.cfg.StateTTL,
		SkewMargin:       app.cfg.ClockSkew,
		CallTimeout:      app.cfg.ProviderTimeout,
		DefaultExpiresIn: app.cfg.DefaultExpiresIn,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.states,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() error {
	verifier, err := jwtx.NewVerifierHS256(
		[]byte(app.cfg.JWTSecret),
		app.cfg.JWTIssuer,
		app.cfg.JWTAudience,
		30*time.Second,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}
	app.verifier = verifier

	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.states,
		app.logger,
	)
	router.Manager = app.manager
	router.SuccessRedirectURL = app.cfg.SuccessRedirectURL
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           otelhttp.NewHandler(router, serviceName),
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
