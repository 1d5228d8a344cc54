package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/marine-storefront/internal/adminapi"
	"github.com/xenking/marine-storefront/internal/domain/cart"
	"github.com/xenking/marine-storefront/internal/domain/settings"
	"github.com/xenking/marine-storefront/internal/handler"
	"github.com/xenking/marine-storefront/internal/storage/file"
	"github.com/xenking/marine-storefront/internal/storage/postgres"
	"github.com/xenking/marine-storefront/pkg/health"
	"github.com/xenking/marine-storefront/pkg/httpmiddleware"
)

// telemetry is the subset of *app.Telemetry the service needs.
type telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// snapshotStorage is a cart.Storage that can report its own health.
type snapshotStorage interface {
	cart.Storage
	health.Pinger
}

// service holds the wired components of a running storefront.
type service struct {
	store    *cart.Store
	settings *settings.Accessor
	health   *health.Health
	handler  http.Handler
	close    func()
}

// openStorage returns the configured snapshot backend and a function that
// releases it.
func openStorage(ctx context.Context, lg *zap.Logger, cfg *Config) (snapshotStorage, func(), error) {
	switch cfg.Cart.Backend {
	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		lg.Info("Using postgres cart storage")
		return postgres.NewSnapshotStorage(pool), pool.Close, nil
	default:
		s, err := file.New(cfg.Cart.Dir)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open file storage")
		}
		lg.Info("Using file cart storage", zap.String("dir", cfg.Cart.Dir))
		return s, func() {}, nil
	}
}

// wire builds every component. The first settings load is started in the
// background and never delays startup; defaults are served meanwhile.
func wire(ctx context.Context, lg *zap.Logger, m telemetry, cfg *Config) (*service, error) {
	storage, closeStorage, err := openStorage(ctx, lg, cfg)
	if err != nil {
		return nil, err
	}

	// Cart store, restored from the last snapshot.
	store := cart.NewStore(ctx, lg.Named("cart"), storage, cfg.Cart.Key,
		cart.WithMeterProvider(m.MeterProvider()),
	)
	cancelObserver := store.Subscribe(func(items []cart.Item) {
		lg.Debug("Cart changed", zap.Int("lines", len(items)))
	})

	// Admin API client shared by settings and catalog.
	client, err := adminapi.NewClient(cfg.APIURL, adminapi.ClientConfig{
		HTTPClient:     &http.Client{Timeout: cfg.CatalogTimeout},
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
	if err != nil {
		cancelObserver()
		closeStorage()
		return nil, errors.Wrap(err, "create admin api client")
	}

	accessor := settings.NewAccessor(client, lg.Named("settings"),
		settings.WithTracerProvider(m.TracerProvider()),
		settings.WithMeterProvider(m.MeterProvider()),
	)
	go accessor.Load(context.WithoutCancel(ctx))

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("cart_storage", 5*time.Second, health.PingCheck(storage))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	r := chi.NewRouter()
	r.Get("/livez", healthSvc.LiveEndpoint)
	r.Get("/readyz", healthSvc.ReadyEndpoint)
	handler.NewHandler(store, accessor, client).Register(r)

	h := httpmiddleware.Wrap(
		otelhttp.NewHandler(r, "storefront",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.RequestID(),
		httpmiddleware.LogRequests(),
	)

	return &service{
		store:    store,
		settings: accessor,
		health:   healthSvc,
		handler:  h,
		close: func() {
			healthSvc.Stop()
			cancelObserver()
			closeStorage()
		},
	}, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("api_url", cfg.APIURL),
		zap.String("cart_backend", cfg.Cart.Backend),
	)

	svc, err := wire(ctx, lg, m, cfg)
	if err != nil {
		return err
	}
	defer svc.close()

	svc.health.Start(ctx, 10*time.Second)
	svc.health.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Reload and catalog calls wait on the admin API.
		WriteTimeout:   cfg.CatalogTimeout + 5*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler:        svc.handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	// Graceful shutdown: wait for cancellation, drain, then stop.
	g.Go(func() error {
		<-gctx.Done()
		svc.health.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}
