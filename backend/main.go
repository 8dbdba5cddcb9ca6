package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shelfcontrol/backend/config"
	"shelfcontrol/backend/middleware"
	"shelfcontrol/backend/routes"
	"shelfcontrol/backend/scheduler"
	"shelfcontrol/backend/services"
	"shelfcontrol/backend/utils"
)

const shutdownTimeout = 10 * time.Second

var (
	cfg    *config.Config
	logger *zap.Logger

	consoleLog     bool
	migrateOnStart bool
)

var rootCmd = &cobra.Command{
	Use:           "shelfcontrol",
	Short:         "ShelfControl backend: API server and maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		// Initialize logger
		format := cfg.LogFormat
		if consoleLog {
			format = "console"
		}
		logger, err = utils.InitLogger(utils.LoggerConfig{Format: format, Level: cfg.LogLevel, EnableColors: consoleLog})
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the daily snapshot job",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&consoleLog, "console", false, "human readable log output")
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "apply migrations before serving")

	rootCmd.AddCommand(serveCmd, migrateCmd, snapshotCmd, exportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", zap.Error(err))
			_ = logger.Sync()
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireJWTSecret(); err != nil {
		return fmt.Errorf("refusing to serve: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		return err
	}
	if migrateOnStart {
		if err := migrate(ctx, db, cfg.Analytics.UseRPC); err != nil {
			return err
		}
	}

	svc, err := routes.NewServices(db, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.Analytics.Snapshot.Enabled {
		sched, err := scheduler.New(svc.Analytics, cfg.Analytics.Snapshot, logger)
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "shelfcontrol",
		BodyLimit:             services.MaxAvatarSize + 1024*1024,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger.Named("http")))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, svc, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("port", cfg.ServerPort))
		errCh <- app.Listen(":" + cfg.ServerPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
