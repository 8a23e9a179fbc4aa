package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/debtwise/internal/auth"
	"github.com/mmynk/debtwise/internal/cache"
	"github.com/mmynk/debtwise/internal/config"
	"github.com/mmynk/debtwise/internal/middleware"
	"github.com/mmynk/debtwise/internal/notify"
	"github.com/mmynk/debtwise/internal/service"
	"github.com/mmynk/debtwise/internal/storage"
	"github.com/mmynk/debtwise/internal/storage/postgres"
	"github.com/mmynk/debtwise/internal/storage/sqlite"
	"github.com/mmynk/debtwise/pkg/api/apiconnect"
	"github.com/mmynk/debtwise/pkg/clock"
	"github.com/mmynk/debtwise/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logging.Setup()

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	resultCache, err := openCache(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer resultCache.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL, clock.Real{})
	notifier := notify.NewLogSync(slog.Default())

	protected := []connect.Interceptor{metrics.Interceptor(), middleware.RequireAuth(jwtManager), middleware.LoggingInterceptor()}
	public := []connect.Interceptor{metrics.Interceptor(), middleware.OptionalAuth(jwtManager), middleware.LoggingInterceptor()}
	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
		defer limiter.Stop()
		protected = append(protected, limiter.Interceptor())
		public = append(public, limiter.Interceptor())
		slog.Info("Rate limiting enabled", "limit", cfg.RateLimit, "window", cfg.RateWindow)
	}

	planner := service.NewPlannerService(store, service.PlannerOptions{
		Cache:    resultCache,
		CacheTTL: cfg.CacheTTL,
		Notifier: notifier,
		Clock:    clock.Real{},
		Metrics:  metrics,
	})
	debts := service.NewDebtService(store, notifier)
	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, store, slog.Default())

	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, middleware.RequestLogger, chimw.Recoverer, middleware.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mount := func(path string, h http.Handler) {
		r.Handle(path+"*", h)
		slog.Debug("Service mounted", "path", path)
	}
	mount(apiconnect.NewPlannerServiceHandler(planner, connect.WithInterceptors(protected...)))
	mount(apiconnect.NewDebtServiceHandler(debts, connect.WithInterceptors(protected...)))
	mount(apiconnect.NewAuthServiceHandler(authSvc, connect.WithInterceptors(public...)))

	if cfg.StaticPath != "" {
		static, err := staticHandler(cfg.StaticPath)
		if err != nil {
			slog.Error("Failed to resolve static path", "error", err)
			os.Exit(1)
		}
		r.Handle("/*", static)
	}

	server := &http.Server{
		Addr: cfg.Addr(),
		// h2c serves HTTP/2 without TLS for Connect and gRPC clients.
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", cfg.Addr(), "url", fmt.Sprintf("http://localhost%s", cfg.Addr()))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server forced to shutdown", "error", err)
		}
	}
	slog.Info("Server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		store, err := postgres.New(ctx, cfg.DatabaseURL, cfg.DBMaxOpen)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", "postgres")
		return store, nil
	default:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", "sqlite", "database", cfg.DBPath)
		return store, nil
	}
}

func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.RedisAddr == "" {
		slog.Info("Using in-memory result cache", "ttl", cfg.CacheTTL)
		return cache.NewMemory(), nil
	}
	c, err := cache.NewRedis(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, err
	}
	slog.Info("Using redis result cache", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	return c, nil
}

// staticHandler serves a frontend build, falling back to index.html for
// unknown paths.
func staticHandler(staticPath string) (http.Handler, error) {
	staticDir, err := filepath.Abs(staticPath)
	if err != nil {
		return nil, err
	}
	slog.Info("Serving static files", "path", staticDir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/debtwise.v1.") {
			http.NotFound(w, r)
			return
		}
		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}
		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	}), nil
}
