package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

const maxReportScan = 1000

type ProcessorServiceConfig struct {
	Tasks          ports.TaskService
	Logger         *logger.Logger
	CleanupDaysOld int
	Now            func() time.Time
}

// ProcessorService handles background queue messages. Process returns an
// error only when the message should be redelivered.
type ProcessorService struct {
	tasks          ports.TaskService
	log            *logger.Logger
	cleanupDaysOld int
	now            func() time.Time
}

var _ ports.MessageProcessor = (*ProcessorService)(nil)

func NewProcessorService(cfg ProcessorServiceConfig) *ProcessorService {
	s := &ProcessorService{
		tasks:          cfg.Tasks,
		log:            cfg.Logger,
		cleanupDaysOld: cfg.CleanupDaysOld,
		now:            cfg.Now,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.cleanupDaysOld <= 0 {
		s.cleanupDaysOld = 30
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// envelope covers both an SNS notification delivered through a queue
// subscription and a direct QueueMessage.
type envelope struct {
	Type     string `json:"Type"`
	Subject  string `json:"Subject"`
	Message  string `json:"Message"`
	TopicArn string `json:"TopicArn"`
	ports.QueueMessage
}

type notificationBody struct {
	NotificationType string `json:"notification_type"`
	TaskID           string `json:"task_id"`
	OldStatus        string `json:"old_status"`
	NewStatus        string `json:"new_status"`
}

func (s *ProcessorService) Process(ctx context.Context, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	if env.Type == "Notification" {
		s.handleNotification(env)
		return nil
	}

	msg := env.QueueMessage
	switch msg.Action {
	case ports.ActionProcessNewTask:
		return s.processNewTask(ctx, msg)
	case ports.ActionSendReminder:
		return s.sendReminder(ctx, msg.TaskID)
	case ports.ActionCleanup:
		days := msg.DaysOld
		if days <= 0 {
			days = s.cleanupDaysOld
		}
		_, err := s.CleanupCompleted(ctx, days)
		return err
	case ports.ActionGenerateReport:
		report, err := s.GenerateReport(ctx)
		if err != nil {
			return err
		}
		s.log.Infow("task_report_generated", "report_type", msg.ReportType, "total", report.Total, "by_status", report.ByStatus)
		return nil
	default:
		// Redelivery would not help; drop it.
		s.log.Warnw("processor_unknown_action", "action", msg.Action)
		return nil
	}
}

func (s *ProcessorService) handleNotification(env envelope) {
	var n notificationBody
	if err := json.Unmarshal([]byte(env.Message), &n); err != nil {
		s.log.Infow("processor_raw_notification", "subject", env.Subject, "topic", env.TopicArn)
		return
	}
	switch n.NotificationType {
	case ports.NotificationTaskUpdated:
		s.log.Infow("processor_task_updated", "task_id", n.TaskID, "old_status", n.OldStatus, "new_status", n.NewStatus)
	case ports.NotificationTaskCreated, ports.NotificationTaskDeleted:
		s.log.Infow("processor_task_event", "type", n.NotificationType, "task_id", n.TaskID)
	default:
		s.log.Infow("processor_notification", "subject", env.Subject, "type", n.NotificationType)
	}
}

func (s *ProcessorService) processNewTask(ctx context.Context, msg ports.QueueMessage) error {
	id := msg.TaskID
	if id == "" && msg.TaskData != nil {
		id = msg.TaskData.ID
	}
	if id == "" {
		return fmt.Errorf("%w: process_new_task without task_id", ErrInvalidMessage)
	}

	task, err := s.tasks.GetTask(ctx, id)
	if errors.Is(err, domain.ErrTaskNotFound) {
		s.log.Warnw("processor_task_gone", "task_id", id)
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Infow("processor_task_processed", "task_id", task.ID, "priority", task.Priority, "tags", len(task.Tags))
	return nil
}

func (s *ProcessorService) sendReminder(ctx context.Context, id string) error {
	task, err := s.tasks.GetTask(ctx, id)
	if errors.Is(err, domain.ErrTaskNotFound) {
		s.log.Warnw("processor_task_gone", "task_id", id)
		return nil
	}
	if err != nil {
		return err
	}
	if task.Status == domain.TaskStatusCompleted || task.Status == domain.TaskStatusCancelled {
		s.log.Infow("processor_reminder_skipped", "task_id", id, "status", task.Status)
		return nil
	}
	s.log.Infow("processor_reminder", "task_id", id, "title", task.Title, "due_date", task.DueDate)
	return nil
}

// CleanupCompleted deletes completed tasks whose last update is older than
// daysOld days and reports how many went away.
func (s *ProcessorService) CleanupCompleted(ctx context.Context, daysOld int) (int, error) {
	status := domain.TaskStatusCompleted
	tasks, err := s.tasks.ListTasks(ctx, domain.ListFilter{Status: &status}, maxReportScan)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().AddDate(0, 0, -daysOld)
	var errs []error
	deleted := 0
	for _, t := range tasks {
		if !t.UpdatedAt.Before(cutoff) {
			continue
		}
		_, err := s.tasks.DeleteTask(ctx, t.ID)
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, domain.ErrTaskNotFound):
		default:
			errs = append(errs, fmt.Errorf("delete %s: %w", t.ID, err))
		}
	}
	s.log.Infow("processor_cleanup_done", "days_old", daysOld, "deleted", deleted, "failed", len(errs))
	return deleted, errors.Join(errs...)
}

type TaskReport struct {
	Total      int                         `json:"total" yaml:"total"`
	ByStatus   map[domain.TaskStatus]int   `json:"by_status" yaml:"by_status"`
	ByPriority map[domain.TaskPriority]int `json:"by_priority" yaml:"by_priority"`
	Overdue    int                         `json:"overdue" yaml:"overdue"`
}

// GenerateReport summarises one bounded scan of the store.
func (s *ProcessorService) GenerateReport(ctx context.Context) (*TaskReport, error) {
	tasks, err := s.tasks.ListTasks(ctx, domain.ListFilter{}, maxReportScan)
	if err != nil {
		return nil, err
	}
	now := s.now()
	report := &TaskReport{
		ByStatus:   make(map[domain.TaskStatus]int),
		ByPriority: make(map[domain.TaskPriority]int),
	}
	for _, t := range tasks {
		report.Total++
		report.ByStatus[t.Status]++
		report.ByPriority[t.Priority]++
		open := t.Status == domain.TaskStatusPending || t.Status == domain.TaskStatusInProgress
		if open && t.DueDate != nil && t.DueDate.Before(now) {
			report.Overdue++
		}
	}
	return report, nil
}
