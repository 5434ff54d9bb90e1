// Package main initializes and starts the task API server, setting up
// configuration, logging, database connections, repositories, services,
// handlers and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/taskkeeper/internal/auth"
	"github.com/atinyakov/taskkeeper/internal/config"
	"github.com/atinyakov/taskkeeper/internal/db"
	"github.com/atinyakov/taskkeeper/internal/logger"
	"github.com/atinyakov/taskkeeper/internal/repository"
	"github.com/atinyakov/taskkeeper/internal/server/handler/http"
	"github.com/atinyakov/taskkeeper/internal/service"
	"github.com/atinyakov/taskkeeper/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskkeeper",
		Short:         "Personal task tracking API",
		Version:       fmt.Sprintf("%s (built %s)", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A")),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	config.Default().BindFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE:  runMigrate,
	})
	return root
}

// setup resolves configuration and builds the logger shared by every command.
func setup(cmd *cobra.Command) (*config.Options, *zap.Logger, error) {
	options, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	log := logger.New()
	if err := log.Init(options.LogLevel); err != nil {
		return nil, nil, err
	}
	return options, log.Log, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	options, zapLogger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	if options.DatabaseDSN == "" {
		return errors.New("database DSN is required")
	}

	// InitPostgres applies pending migrations after connecting.
	postgresDB, err := db.InitPostgres(cmd.Context(), options.DatabaseDSN)
	if err != nil {
		return err
	}
	defer postgresDB.Close()

	zapLogger.Info("migrations applied")
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	options, zapLogger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = zapLogger.Sync() }()

	zapLogger.Info("starting",
		zap.String("version", cmp.Or(version, "N/A")),
		zap.String("build_date", cmp.Or(buildDate, "N/A")),
	)

	if err := options.Validate(); err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	tokens, err := auth.NewTokenService([]byte(options.JWTSecret), auth.DefaultTTL)
	if err != nil {
		zapLogger.Fatal("cannot init token service", zap.Error(err))
	}

	// Initialize repositories for users and tasks.
	authRepo := repository.NewPostgresAuthRepository(postgresDB)
	taskRepo := repository.NewPostgresTaskRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(authRepo, options.BcryptCost)
	taskService := service.NewTaskService(taskRepo)
	sessions := session.NewBinder(tokens, authService, options.Production)

	// Create HTTP handlers for auth and task endpoints.
	authHandler := &http.AuthHandler{
		AuthService: authService,
		Tokens:      tokens,
		Sessions:    sessions,
		Logger:      zapLogger,
	}
	taskHandler := &http.TaskHandler{TaskService: taskService, Logger: zapLogger}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, taskHandler, sessions, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if options.TLSCert != "" {
			zapLogger.Info("starting HTTPS server", zap.String("addr", options.Address))
			err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
		} else {
			zapLogger.Info("starting HTTP server", zap.String("addr", options.Address))
			err = server.ListenAndServe()
		}
		if !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		zapLogger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
