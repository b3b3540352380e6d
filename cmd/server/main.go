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
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/susu/internal/auth"
	"github.com/mmynk/susu/internal/config"
	"github.com/mmynk/susu/internal/gateway"
	"github.com/mmynk/susu/internal/metrics"
	"github.com/mmynk/susu/internal/middleware"
	"github.com/mmynk/susu/internal/rotation"
	"github.com/mmynk/susu/internal/service"
	"github.com/mmynk/susu/internal/storage/sqlite"
	api "github.com/mmynk/susu/pkg/api"
	"github.com/mmynk/susu/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		return err
	}

	logCloser := logging.SetupWithOptions(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	defer logCloser.Close()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	gw, err := newGateway(cfg.Gateway)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	engine := rotation.NewEngine()
	engine.StrictAmount = cfg.Rules.StrictContributionAmount
	engine.RequestTTL = cfg.Rules.JoinRequestTTL

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)
	locks := service.NewGroupLocks()
	logger := slog.Default()

	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager, api.AuthServiceRegisterProcedure, api.AuthServiceLoginProcedure),
		middleware.LoggingInterceptor(logger),
	)

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(service.NewAuthService(authenticator, store, jwtManager, logger), interceptors))
	mux.Handle(api.NewGroupServiceHandler(service.NewGroupService(store, engine, locks, m, logger), interceptors))
	mux.Handle(api.NewPaymentServiceHandler(service.NewPaymentService(store, engine, gw, locks, m, logger), interceptors))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders:   []string{"Connect-Protocol-Version", "Connect-Timeout-Ms"},
		AllowCredentials: false,
	}).Handler(loggingMiddleware(mux))

	// h2c gives Connect HTTP/2 without TLS
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(corsHandler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting",
			"address", server.Addr,
			"gateway", cfg.Gateway.Provider,
			"strict_amount", engine.StrictAmount,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newGateway(cfg config.GatewayConfig) (gateway.Gateway, error) {
	switch cfg.Provider {
	case "fake":
		slog.Warn("Using in-memory payment gateway; payments always succeed")
		return gateway.NewFake(), nil
	case "paystack":
		opts := []gateway.PaystackOption{gateway.WithHTTPClient(&http.Client{Timeout: 15 * time.Second})}
		if cfg.BaseURL != "" {
			opts = append(opts, gateway.WithBaseURL(cfg.BaseURL))
		}
		if cfg.CallbackURL != "" {
			opts = append(opts, gateway.WithCallbackURL(cfg.CallbackURL))
		}
		return gateway.NewPaystack(cfg.SecretKey, opts...), nil
	default:
		return nil, fmt.Errorf("unknown gateway provider %q", cfg.Provider)
	}
}

// loggingMiddleware logs every HTTP request at debug level.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
