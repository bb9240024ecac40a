package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/suar-net/suar-api/internal/config"
	"github.com/suar-net/suar-api/internal/database"
	"github.com/suar-net/suar-api/internal/handler"
	"github.com/suar-net/suar-api/internal/logging"
	"github.com/suar-net/suar-api/internal/repository"
	"github.com/suar-net/suar-api/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var port string

	serve := func(cmd *cobra.Command, args []string) error {
		return runServer(port)
	}

	root := &cobra.Command{
		Use:           "suar-api",
		Short:         "Personal API testing backend",
		RunE:          serve,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&port, "port", "", "listen port (overrides SERVER_PORT)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  serve,
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the history schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			db, err := openDB(cfg, logger)
			if err != nil {
				return err
			}
			defer closeDB(db, logger)

			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			logger.Info("Database schema is up to date")
			return nil
		},
	})

	return root
}

// bootstrap loads .env, the configuration and the logger.
func bootstrap() (*config.Config, *logrus.Logger, error) {
	envErr := godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := logging.New(cfg.Log)
	if envErr != nil {
		logger.Debug("No .env file found, using environment variables from OS")
	}
	return cfg, logger, nil
}

func openDB(cfg *config.Config, logger *logrus.Logger) (*gorm.DB, error) {
	db, err := database.ConnectDB(cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.WithField("driver", cfg.DB.Driver).Info("Successfully connected to database")
	return db, nil
}

func closeDB(db *gorm.DB, logger *logrus.Logger) {
	if err := database.Close(db); err != nil {
		logger.WithError(err).Error("Failed to close database")
	}
}

func runServer(port string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	if port != "" {
		cfg.Server.Port = port
	}

	db, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB(db, logger)

	// schema is brought up to date on every start
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	repo := repository.NewRepository(db)
	executor := service.NewExecutorService(repo.History(), logger,
		service.WithPrivateTargetsBlocked(cfg.Executor.BlockPrivateTargets))
	history := service.NewHistoryService(repo.History(), logger)

	router := handler.SetupRouter(handler.Dependencies{
		Executor:       executor,
		History:        history,
		DB:             db,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("cannot run server on port %s: %w", cfg.Server.Port, err)
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-stop:
	}

	logger.Info("Shut down the server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server successfully shut down")
	return nil
}
