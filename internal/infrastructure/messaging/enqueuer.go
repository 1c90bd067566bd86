package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

const defaultPublishTimeout = 3 * time.Second

// sender delivers one encoded QueueMessage. key groups messages about the
// same task where the transport supports it.
type sender interface {
	send(ctx context.Context, key, action string, body []byte) error
}

// queueEnqueuer turns Enqueuer calls into QueueMessages for a transport.
type queueEnqueuer struct {
	transport sender
	timeout   time.Duration
	log       *logger.Logger
}

func (q *queueEnqueuer) EnqueueProcessing(ctx context.Context, task *domain.Task) error {
	return q.enqueue(ctx, task.ID, ports.QueueMessage{
		Action:   ports.ActionProcessNewTask,
		TaskID:   task.ID,
		TaskData: task,
	})
}

func (q *queueEnqueuer) EnqueueReminder(ctx context.Context, taskID string) error {
	return q.enqueue(ctx, taskID, ports.QueueMessage{
		Action: ports.ActionSendReminder,
		TaskID: taskID,
	})
}

func (q *queueEnqueuer) EnqueueCleanup(ctx context.Context, daysOld int) error {
	return q.enqueue(ctx, ports.ActionCleanup, ports.QueueMessage{
		Action:  ports.ActionCleanup,
		DaysOld: daysOld,
	})
}

func (q *queueEnqueuer) EnqueueReport(ctx context.Context, reportType string) error {
	if reportType == "" {
		reportType = "daily"
	}
	return q.enqueue(ctx, ports.ActionGenerateReport, ports.QueueMessage{
		Action:     ports.ActionGenerateReport,
		ReportType: reportType,
	})
}

func (q *queueEnqueuer) enqueue(ctx context.Context, key string, msg ports.QueueMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s message: %w", msg.Action, err)
	}

	// publish is bounded regardless of the caller deadline
	timeout := q.timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := q.transport.send(cctx, key, msg.Action, body); err != nil {
		return fmt.Errorf("enqueue %s: %w", msg.Action, err)
	}
	q.log.Infow("queue_enqueue_ok", "action", msg.Action, "key", key)
	return nil
}
