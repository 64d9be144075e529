package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/ecocin/internal/domain/address"
	"github.com/xenking/ecocin/internal/domain/auth"
	"github.com/xenking/ecocin/internal/domain/client"
	"github.com/xenking/ecocin/internal/domain/order"
	"github.com/xenking/ecocin/internal/domain/product"
	"github.com/xenking/ecocin/internal/handler"
	"github.com/xenking/ecocin/internal/repository"
	"github.com/xenking/ecocin/internal/storage/memory"
	"github.com/xenking/ecocin/pkg/health"
	"github.com/xenking/ecocin/pkg/httpmiddleware"
)

const serviceName = "ecocin-api"

// stores is the set of repositories the services run against.
type stores struct {
	clients   client.Repository
	products  product.Repository
	addresses address.Repository
	orders    order.Repository
	// apikeys is nil for storage backends without API keys.
	apikeys auth.Repository
	// ping backs the readiness probe. Nil means always ready.
	ping health.Pinger
}

func memoryStores() stores {
	db := memory.New()
	return stores{
		clients:   db.Clients(),
		products:  db.Products(),
		addresses: db.Addresses(),
		orders:    db.Orders(),
	}
}

// openPostgres connects and migrates. The caller closes the returned pool.
func openPostgres(ctx context.Context, databaseURL string) (stores, func(), error) {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return stores{}, nil, errors.Wrap(err, "create db pool")
	}
	if err := repository.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return stores{}, nil, errors.Wrap(err, "run migrations")
	}
	return stores{
		clients:   repository.NewClientRepository(pool),
		products:  repository.NewProductRepository(pool),
		addresses: repository.NewAddressRepository(pool),
		orders:    repository.NewOrderRepository(pool),
		apikeys:   repository.NewAPIKeyRepository(pool),
		ping:      pool,
	}, pool.Close, nil
}

// newAPI builds the domain services and the middleware-wrapped API handler.
func newAPI(ctx context.Context, m httpmiddleware.Telemetry, cfg *Config, st stores, hs *health.Health) (http.Handler, error) {
	orders, err := order.NewService(st.orders, st.clients, st.products, st.addresses,
		order.WithTracerProvider(m.TracerProvider()),
		order.WithMeterProvider(m.MeterProvider()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create order service")
	}

	var opts []handler.Option
	if cfg.Auth.Enabled {
		if st.apikeys == nil {
			return nil, errors.Errorf("storage %q does not support API keys", cfg.Storage)
		}
		opts = append(opts, handler.WithGuard(handler.NewGuard(st.apikeys, []byte(cfg.APIKeyPepper)).Middleware))
	}
	h := handler.NewHandler(handler.Services{
		Clients:   client.NewService(st.clients),
		Products:  product.NewService(st.products),
		Addresses: address.NewService(st.addresses, st.clients),
		Orders:    orders,
	}, opts...)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", hs.LiveEndpoint)
	mux.HandleFunc("GET /readyz", hs.ReadyEndpoint)
	h.Register(mux)

	routeFinder := httpmiddleware.MakeRouteFinder(mux)
	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.CORS(httpmiddleware.CORSConfig{
			AllowOrigins:     cfg.CORS.Origins,
			AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader},
			ExposeHeaders:    []string{httpmiddleware.RequestIDHeader},
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           86400,
		}),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		}),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.RequestID(),
		httpmiddleware.Instrument(serviceName, routeFinder, m),
		httpmiddleware.LogRequests(routeFinder),
	), nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m httpmiddleware.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
		zap.Bool("auth", cfg.Auth.Enabled),
	)
	ctx = zctx.Base(ctx, lg)

	var st stores
	switch cfg.Storage {
	case StorageMemory:
		st = memoryStores()
	default:
		pg, closePool, err := openPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer closePool()
		st = pg
	}

	hs := health.New()
	if st.ping != nil {
		hs.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(st.ping))
	}
	hs.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	hs.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))
	hs.Start(ctx, 10*time.Second)
	hs.SetReady(true)

	api, err := newAPI(ctx, m, cfg, st, hs)
	if err != nil {
		hs.Stop()
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           api,
	}

	// Readiness goes false first so load balancers drain before shutdown.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		hs.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		hs.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
