package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/1mt4y/travelbuddy/pkg/config"
	"github.com/1mt4y/travelbuddy/pkg/db"
	"github.com/1mt4y/travelbuddy/pkg/log"
	"github.com/1mt4y/travelbuddy/pkg/utils"
	"github.com/1mt4y/travelbuddy/pkg/webserver"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "apisrv",
	Short:   "TravelBuddy API server",
	Long:    `TravelBuddy lets travellers publish trips, ask to join other people's trips and message each other.`,
	Version: Version,
	RunE:    runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, database, err := bootstrap()
		if err != nil {
			return err
		}
		defer database.Close()

		err = database.Migrate()
		logger.LogSystem("database", "migrate", err == nil, map[string]interface{}{"driver": cfg.Database.Driver})
		return err
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo travellers and a trip into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")

		cfg, logger, database, err := bootstrap()
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.Migrate(); err != nil {
			return err
		}
		err = seedDemo(cfg, database, password)
		logger.LogSystem("database", "seed", err == nil, nil)
		return err
	},
}

func init() {
	seedCmd.Flags().String("password", "travelbuddy", "Password given to the demo accounts")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(watchCmd)
}

// bootstrap loads configuration, the logger and a database connection.
func bootstrap() (*config.Config, *log.Logger, *db.DB, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	if err := log.Init(&cfg.Logging); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger := log.GetLogger()

	// Initialize database
	logger.WithField("driver", cfg.Database.Driver).Info("Connecting to database...")
	database, err := db.New(&cfg.Database, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, logger, database, nil
}

func seedDemo(cfg *config.Config, database *db.DB, password string) error {
	hash, err := utils.NewPasswordHasher(cfg.Security.BcryptCost).Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}
	return database.SeedDemoData(hash)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, database, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.WithError(err).Error("Failed to close database connection")
		}
	}()

	logger.Info("Starting TravelBuddy API Server")
	logger.WithField("version", Version).Info("Server initialization")

	// Run database migrations
	logger.Info("Running database migrations...")
	if err := database.Migrate(); err != nil {
		return err
	}

	if cfg.Database.SeedDemo {
		logger.Info("Seeding demo data...")
		if err := seedDemo(cfg, database, "travelbuddy"); err != nil {
			return err
		}
	}

	// Initialize web server
	logger.Info("Initializing web server...")
	server, err := webserver.New(cfg, database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize web server: %w", err)
	}

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	logger.WithField("address", cfg.Server.GetServerAddr()).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("Shutting down server...")

	// Create a context with timeout for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.GracefulStop)*time.Second)
	defer shutdownCancel()

	// Gracefully stop the web server
	if err := server.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	} else {
		logger.Info("Web server exited gracefully")
	}

	logger.Info("Application exited gracefully")
	return nil
}
