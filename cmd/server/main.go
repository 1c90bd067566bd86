package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/taskboard/backend/internal/bootstrap"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	transporthttp "github.com/taskboard/backend/internal/transport/http"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	migrate := flag.Bool("migrate", false, "prepare the storage backend before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	ctx := context.Background()
	components, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatalf("failed to wire components: %v", err)
	}
	log.Infow("components ready",
		"storage", cfg.Storage.Driver,
		"queue", cfg.Queue.Driver,
		"notify", cfg.Notify.Driver,
		"blob", cfg.Blob.Driver,
	)

	if *migrate {
		if err := components.Migrate(ctx); err != nil {
			log.Fatalf("failed to prepare storage: %v", err)
		}
		log.Info("storage migrations completed")
	}

	app := transporthttp.NewApp(transporthttp.RouterConfig{
		Tasks:       components.Tasks,
		Attachments: components.Attachments,
		Logger:      log.Named("http"),
		Config:      cfg,
	})

	addr := cfg.Server.Address()
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Fatalf("server failed to start: %v", err)
		}
	}()
	log.Infof("server started on %s", addr)

	gracefulShutdown(app, components, log)
}

func gracefulShutdown(app *fiber.App, components *bootstrap.Components, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Errorf("server forced to shutdown: %v", err)
	}

	if err := components.Close(); err != nil {
		log.Errorf("failed to close backends: %v", err)
	}

	log.Info("server exited gracefully")
}
