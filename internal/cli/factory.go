package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/carepath"
	"github.com/aretw0/carepath/internal/adapters/file"
	"github.com/aretw0/carepath/internal/config"
	httpAdapter "github.com/aretw0/carepath/pkg/adapters/http"
	redisAdapter "github.com/aretw0/carepath/pkg/adapters/redis"
	"github.com/aretw0/carepath/pkg/location"
	"github.com/aretw0/carepath/pkg/notify"
	"github.com/aretw0/carepath/pkg/observability"
	"github.com/aretw0/carepath/pkg/persistence/middleware"
	"github.com/aretw0/carepath/pkg/ports"
	"github.com/aretw0/carepath/pkg/waitlist"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	backend "github.com/redis/go-redis/v9"
)

// App bundles an engine with the infrastructure built for it.
type App struct {
	Engine   *carepath.Engine
	Streams  *httpAdapter.StreamManager
	Store    ports.SessionStore
	Registry *prometheus.Registry

	redis *backend.Client
}

// Build wires an Engine from cfg. Extra options are applied after the configured ones.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, extra ...carepath.Option) (*App, error) {
	app := &App{
		Streams:  httpAdapter.NewStreamManager(logger),
		Registry: prometheus.NewRegistry(),
	}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(app.Registry)

	if cfg.UsesRedis() {
		app.redis = backend.NewClient(&backend.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := app.redis.Ping(pingCtx).Err(); err != nil {
			_ = app.redis.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
	}

	mws, err := storeMiddleware(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	opts := []carepath.Option{
		carepath.WithLogger(logger),
		carepath.WithLifecycleHooks(metrics.Hooks()),
		carepath.WithNotifier(notify.NewLog(logger)),
		carepath.WithStateListener(app.Streams.Publish),
		carepath.WithHandlerTimeout(cfg.HandlerTimeout),
		carepath.WithMinutesPerPatient(cfg.MinutesPerPatient),
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		opts = append(opts, carepath.WithLifecycleHooks(debugHooks(logger)))
	}

	switch cfg.Store {
	case config.StoreRedis:
		app.Store = redisAdapter.NewFromClient(app.redis,
			redisAdapter.WithTTL(cfg.SessionTTL),
			redisAdapter.WithPrefix(cfg.RedisPrefix),
		)
		opts = append(opts,
			carepath.WithLocker(redisAdapter.NewLocker(app.redis, cfg.RedisPrefix)),
			carepath.WithLockTTL(cfg.LockTTL),
		)
	case config.StoreFile:
		app.Store = file.New(cfg.SessionDir)
	}
	if app.Store != nil {
		opts = append(opts, carepath.WithStore(middleware.Chain(app.Store, mws...)))
	}

	if cfg.ArchiveDir != "" {
		opts = append(opts, carepath.WithArchive(middleware.Chain(file.New(cfg.ArchiveDir), mws...)))
	}
	if cfg.WaitList == config.StoreRedis {
		opts = append(opts, carepath.WithWaitList(waitlist.NewRedis(app.redis, cfg.QueuePrefix)))
	}
	if cfg.VenueFile != "" {
		venue, err := location.LoadVenue(cfg.VenueFile)
		if err != nil {
			app.Close()
			return nil, err
		}
		opts = append(opts, carepath.WithLocationResolver(location.NewResolver(venue)))
	}

	app.Engine = carepath.New(append(opts, extra...)...)
	logger.Debug("engine built",
		"store", cfg.Store,
		"waitlist", cfg.WaitList,
		"encrypted", cfg.EncryptionKey != "",
		"archive", cfg.ArchiveDir != "",
	)
	return app, nil
}

// storeMiddleware returns the PII and encryption layers enabled by cfg, outermost first.
func storeMiddleware(cfg *config.Config) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if cfg.MaskPII {
		pii, err := middleware.NewPIIMiddleware(middleware.DefaultPIIPatterns)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid encryption-key: %w", err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, err
		}
		mws = append(mws, enc)
	}
	return mws, nil
}

// MetricsHandler serves the app registry.
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
}

// HTTPHandler builds the session API with streams and metrics wired in.
func (a *App) HTTPHandler(logger *slog.Logger) http.Handler {
	return httpAdapter.NewHandler(a.Engine,
		httpAdapter.WithStreams(a.Streams),
		httpAdapter.WithMetricsHandler(a.MetricsHandler()),
		httpAdapter.WithLogger(logger),
	)
}

// Close releases the redis connection, if any.
func (a *App) Close() error {
	if a.redis == nil {
		return nil
	}
	err := a.redis.Close()
	if errors.Is(err, backend.ErrClosed) {
		return nil
	}
	return err
}
