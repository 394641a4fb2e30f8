package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aanand-mishra/student-registry/internal/config"
	"github.com/aanand-mishra/student-registry/internal/http/apperror"
	"github.com/aanand-mishra/student-registry/internal/http/docs"
	"github.com/aanand-mishra/student-registry/internal/http/handlers/student"
	"github.com/aanand-mishra/student-registry/internal/http/routes"
	"github.com/aanand-mishra/student-registry/internal/idgen"
	"github.com/aanand-mishra/student-registry/internal/metrics"
	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/storage/memory"
	"github.com/aanand-mishra/student-registry/internal/storage/mongodb"
	"github.com/aanand-mishra/student-registry/internal/storage/sqlite"
	studentsvc "github.com/aanand-mishra/student-registry/internal/student"
	"github.com/aanand-mishra/student-registry/internal/utils/response"
)

const (
	MsgRunning = "Backend is running."

	connectTimeout = 10 * time.Second
)

type App struct {
	config  *config.Config
	router  chi.Router
	server  *http.Server
	store   storage.Storage
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New opens the configured storage backend and builds the application.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	app, err := NewWithStorage(cfg, logger, store)
	if err != nil {
		_ = store.Close(ctx)
		return nil, err
	}
	return app, nil
}

// OpenStorage connects to the backend named by cfg.Storage.Driver.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Storage.Driver {
	case config.DriverMongo:
		store, err := mongodb.Connect(ctx, cfg.Storage.DatabaseURL, cfg.Storage.DatabaseName)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		logger.Info("database connected", slog.String("driver", cfg.Storage.Driver), slog.String("database", cfg.Storage.DatabaseName))
		return store, nil
	case config.DriverSQLite:
		store, err := sqlite.New(ctx, cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("database connected", slog.String("driver", cfg.Storage.Driver), slog.String("path", cfg.Storage.Path))
		return store, nil
	case config.DriverMemory:
		logger.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// NewWithStorage builds the router on top of an already opened store. The
// App owns the store from here on and closes it in Shutdown.
func NewWithStorage(cfg *config.Config, logger *slog.Logger, store storage.Storage) (*App, error) {
	ids, err := idgen.New(cfg.ID.Strategy, cfg.ID.Prefix, store)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:  cfg,
		router:  chi.NewRouter(),
		store:   store,
		metrics: metrics.New(),
		logger:  logger,
	}

	service := studentsvc.NewService(store, ids, logger)
	modules := []routes.Module{
		student.Routes(service, logger, app.metrics),
	}

	app.router.Use(middleware.RequestID)
	app.router.Use(middleware.RealIP)
	app.router.Use(requestLogger(logger))
	app.router.Use(apperror.Recoverer(logger))
	app.router.Use(app.metrics.Instrument)
	app.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	app.router.NotFound(apperror.NotFound)
	app.router.MethodNotAllowed(apperror.NotFound)

	app.router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(MsgRunning))
	})
	app.router.Get("/health", app.health)
	app.router.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	apiDocs := docs.Build(app.docsInfo(), modules...)
	app.router.Get("/api-docs", func(w http.ResponseWriter, _ *http.Request) {
		_ = response.WriteJSON(w, http.StatusOK, apiDocs)
	})

	app.router.Route(app.basePath(), func(r chi.Router) {
		routes.Mount(r, modules...)
	})

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      app.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("application initialized",
		slog.String("base_path", app.basePath()),
		slog.String("id_strategy", cfg.ID.Strategy),
	)

	return app, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

// Start binds the listen address and serves in the background. Errors
// other than a clean shutdown are delivered on the returned channel.
func (a *App) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ln), nil
}

// Serve accepts connections on ln in the background.
func (a *App) Serve(ln net.Listener) <-chan error {
	errs := make(chan error, 1)

	a.logger.Info("server started", slog.String("address", ln.Addr().String()))

	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	return errs
}

// Shutdown stops accepting connections, waits for in-flight requests
// until ctx expires and then closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown server: %w", err))
	}
	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		a.logger.WarnContext(r.Context(), "health check failed", slog.String("error", err.Error()))
		_ = response.Failure(w, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}
	_ = response.Success(w, http.StatusOK, "OK", map[string]string{"storage": a.config.Storage.Driver})
}

func (a *App) basePath() string {
	return "/api/" + a.config.APIVersion
}

func (a *App) docsInfo() docs.Info {
	info := docs.Info{
		Title:       "Student Registry API",
		Description: "API documentation for the student registry backend",
		Version:     "1.0.0",
		Host:        "localhost:" + a.config.Port(),
		BasePath:    a.basePath(),
		Schemes:     []string{"http"},
	}
	if a.config.IsProduction() {
		info.Host = a.config.SwaggerHost
		info.Schemes = []string{"https"}
	}
	return info
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.DebugContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
