package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

const defaultListLimit = domain.DefaultListLimit

type TaskServiceConfig struct {
	Repo     ports.TaskRepository
	Notifier ports.Notifier
	Enqueuer ports.Enqueuer
	Blobs    ports.BlobStore
	Logger   *logger.Logger

	DefaultLimit   int
	EnableBreakers bool

	Now   func() time.Time
	NewID func() string
}

// TaskService enforces existence checks in front of the repository and fans
// out notifications and background work after each mutation.
type TaskService struct {
	repo     ports.TaskRepository
	notifier ports.Notifier
	enqueuer ports.Enqueuer
	blobs    ports.BlobStore
	log      *logger.Logger
	effects  *sideEffects

	defaultLimit int
	now          func() time.Time
	newID        func() string
}

var _ ports.TaskService = (*TaskService)(nil)

func NewTaskService(cfg TaskServiceConfig) *TaskService {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	s := &TaskService{
		repo:         cfg.Repo,
		notifier:     cfg.Notifier,
		enqueuer:     cfg.Enqueuer,
		blobs:        cfg.Blobs,
		log:          log,
		effects:      newSideEffects(log, cfg.EnableBreakers),
		defaultLimit: cfg.DefaultLimit,
		now:          cfg.Now,
		newID:        cfg.NewID,
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = defaultListLimit
	}
	if s.now == nil {
		s.now = domain.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	return s
}

// ==================== Task Management ====================

func (s *TaskService) CreateTask(ctx context.Context, cmd domain.CreateCommand) (*domain.Task, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := domain.NormalizeTimestamp(s.now())
	task := &domain.Task{
		ID:          s.newID(),
		Title:       cmd.Title,
		Description: cmd.Description,
		Status:      cmd.Status,
		Priority:    cmd.Priority,
		DueDate:     domain.NormalizeTimestampPtr(cmd.DueDate),
		Tags:        append([]string{}, cmd.Tags...),
		Files:       []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Put(ctx, task); err != nil {
		s.log.Errorw("task_create_failed", "title", task.Title, "error", err)
		return nil, err
	}
	s.log.Infow("task_create_success", "id", task.ID, "title", task.Title)

	if s.notifier != nil {
		s.effects.bestEffort(ctx, "notifier", "notify_created", func(ctx context.Context) error {
			return s.notifier.NotifyCreated(ctx, task)
		}, "task_id", task.ID)
	}
	if s.enqueuer != nil {
		s.effects.bestEffort(ctx, "enqueuer", "enqueue_processing", func(ctx context.Context) error {
			return s.enqueuer.EnqueueProcessing(ctx, task)
		}, "task_id", task.ID)
	}
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *TaskService) ListTasks(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.Task, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	return s.repo.List(ctx, filter, limit)
}

func (s *TaskService) UpdateTask(ctx context.Context, id string, cmd domain.UpdateCommand) (*domain.Task, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := cmd.Fields()
	fields.DueDate = domain.NormalizeTimestampPtr(fields.DueDate)
	updated, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		s.log.Errorw("task_update_failed", "id", id, "fields", fields.Names(), "error", err)
		return nil, err
	}
	s.log.Infow("task_update_success", "id", id, "fields", fields.Names())

	if s.notifier != nil {
		s.effects.bestEffort(ctx, "notifier", "notify_updated", func(ctx context.Context) error {
			return s.notifier.NotifyUpdated(ctx, updated, existing.Status)
		}, "task_id", id)
	}
	return updated, nil
}

// DeleteTask removes the record and returns the snapshot taken before
// deletion. Blob cleanup and the notification never fail the call.
func (s *TaskService) DeleteTask(ctx context.Context, id string) (*domain.Task, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if len(existing.Files) > 0 && s.blobs != nil {
		files := append([]string{}, existing.Files...)
		s.effects.bestEffort(ctx, "blobs", "delete_files", func(ctx context.Context) error {
			return s.blobs.DeleteMany(ctx, files)
		}, "task_id", id, "files", len(files))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Errorw("task_delete_failed", "id", id, "error", err)
		return nil, err
	}
	s.log.Infow("task_delete_success", "id", id)

	if s.notifier != nil {
		s.effects.bestEffort(ctx, "notifier", "notify_deleted", func(ctx context.Context) error {
			return s.notifier.NotifyDeleted(ctx, existing)
		}, "task_id", id)
	}
	return existing, nil
}

func (s *TaskService) AttachFile(ctx context.Context, id string, fileRef string) (*domain.Task, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.AppendFile(ctx, id, fileRef); err != nil {
		s.log.Errorw("task_attach_file_failed", "id", id, "file", fileRef, "error", err)
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
