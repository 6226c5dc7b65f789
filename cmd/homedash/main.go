package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/example/homedash/internal/application"
	"github.com/example/homedash/internal/config"
	httptransport "github.com/example/homedash/internal/http"
	"github.com/example/homedash/internal/persistence/sqlite"
	"github.com/example/homedash/internal/persistence/sqlite/migration"
	"github.com/example/homedash/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.Open(sqlite.DefaultConfig(cfg.SQLiteDSN))
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	cipher, err := security.NewConfigCipher(cfg.ConfigEncryptionKey)
	if err != nil {
		logger.Error("failed to initialize config cipher", "error", err)
		os.Exit(1)
	}

	// Migrations are a fatal startup step: the API never serves against a
	// partially migrated schema.
	env := migration.NewEnv(logger, cipher, time.Now)
	runner := migration.NewRunner(pool.DB(), migration.DefaultRegistry(), env)
	applied, err := runner.Run(ctx)
	if err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("migrations up to date", "applied", applied)

	userRepo := sqlite.NewUserRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)
	boardRepo := sqlite.NewBoardRepository(pool)
	integrationRepo := sqlite.NewIntegrationRepository(pool)

	authService := application.NewAuthService(userRepo, sessionRepo, cfg.SessionTTL, logger)
	boardService := application.NewBoardService(boardRepo, logger)
	integrationService := application.NewIntegrationService(integrationRepo, cipher, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:         httptransport.NewAuthHandler(authService, logger),
		Boards:       httptransport.NewBoardHandler(boardService, logger),
		Integrations: httptransport.NewIntegrationHandler(integrationService, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Login is the only unauthenticated endpoint.
		if r.Method == http.MethodPost && strings.EqualFold(r.URL.Path, "/sessions") {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("homedash API listening", "addr", server.Addr, "config_encryption", cipher.Enabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
