package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/taskboard/backend/internal/bootstrap"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

// session bundles what a command needs and releases it on close.
type session struct {
	cfg        *config.Config
	log        *logger.Logger
	components *bootstrap.Components
}

// openSession loads config and wires the components. taskctl logs only
// warnings and above so command output stays readable.
func openSession(ctx context.Context) (*session, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Logger.Level = "warn"
	cfg.Logger.OutputPaths = []string{"stderr"}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	components, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return &session{cfg: cfg, log: log, components: components}, nil
}

func (s *session) close() {
	if err := s.components.Close(); err != nil {
		s.log.Warnw("taskctl_close_failed", "error", err)
	}
	s.log.Sync()
}
