package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"court-booking/cmd"
	"court-booking/internal/data/repository"
	"court-booking/internal/wire"
	"court-booking/pkg/database"
	"court-booking/pkg/notify"
	"court-booking/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Usage:
//
//	court-booking         serve the HTTP API
//	court-booking purge   remove bookings deleted past the retention window, then exit
func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	mode := "serve"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("mode", mode),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("notify_driver", config.Notify.Driver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, mode, config, logger); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, mode string, config *utils.Config, logger *zap.Logger) error {
	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	if config.Database.AutoMigrate {
		if err := database.Migrate(ctx, config.Database, logger); err != nil {
			return err
		}
	}

	notifier, err := notify.New(config.Notify, db, logger)
	if err != nil {
		return err
	}
	defer notifier.Close()

	repos := repository.NewRepository(db, logger)
	app := wire.Wiring(repos, notifier, config, logger)

	switch mode {
	case "purge":
		return cmd.Purge(ctx, app.Service.Deletion, logger)
	case "serve":
	default:
		return fmt.Errorf("unknown command %q", mode)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return notifier.Run(gctx)
	})
	g.Go(func() error {
		return cmd.APIServer(gctx, app.Router, config.App.Port, logger)
	})

	return g.Wait()
}
