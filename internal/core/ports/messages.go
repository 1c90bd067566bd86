package ports

import (
	"context"

	"github.com/taskboard/backend/internal/domain"
)

// Queue actions understood by the background worker.
const (
	ActionProcessNewTask = "process_new_task"
	ActionSendReminder   = "send_reminder"
	ActionCleanup        = "cleanup_completed_tasks"
	ActionGenerateReport = "generate_task_report"
)

// QueueMessage is the body of every background work item.
type QueueMessage struct {
	Action     string       `json:"action"`
	TaskID     string       `json:"task_id,omitempty"`
	TaskData   *domain.Task `json:"task_data,omitempty"`
	DaysOld    int          `json:"days_old,omitempty"`
	ReportType string       `json:"report_type,omitempty"`
}

// Notification types carried in published event payloads.
const (
	NotificationTaskCreated = "task_created"
	NotificationTaskUpdated = "task_updated"
	NotificationTaskDeleted = "task_deleted"
)

// Delivery is one received queue message. Ack removes it from the queue and
// must only be called after successful handling. Nack, when set, reports a
// failed handling attempt; backends whose redelivery is implicit leave it nil.
type Delivery struct {
	ID   string
	Body []byte
	Ack  func(ctx context.Context) error
	Nack func(ctx context.Context, cause error) error
}

// Consumer yields deliveries from a queue backend.
type Consumer interface {
	Receive(ctx context.Context) ([]Delivery, error)
	Close() error
}

type MessageProcessor interface {
	Process(ctx context.Context, body []byte) error
}
