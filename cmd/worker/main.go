package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/taskboard/backend/internal/bootstrap"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatalf("failed to wire components: %v", err)
	}
	defer components.Close()

	consumers := cfg.Worker.Consumers
	if consumers < 1 {
		consumers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < consumers; i++ {
		consumer, err := components.NewConsumer()
		if err != nil {
			log.Fatalf("failed to open queue consumer: %v", err)
		}
		runner := worker.NewRunner(worker.RunnerConfig{
			Consumer:   consumer,
			Processor:  components.Processor,
			Logger:     log.Named("worker").With("consumer", i),
			MaxBackoff: cfg.Worker.MaxRetryBackoff,
		})
		g.Go(func() error {
			defer consumer.Close()
			return runner.Run(gctx)
		})
	}

	log.Infow("worker started", "queue", cfg.Queue.Driver, "consumers", consumers)
	if err := g.Wait(); err != nil {
		log.Errorf("worker stopped with error: %v", err)
	}
	log.Info("worker exited gracefully")
}
