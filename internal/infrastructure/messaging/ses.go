package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier mails every task event to a fixed recipient list.
type SESNotifier struct {
	client SESAPI
	from   string
	to     []string
	log    *logger.Logger
}

var _ ports.Notifier = (*SESNotifier)(nil)

func NewSESNotifier(client SESAPI, from string, to []string, log *logger.Logger) (*SESNotifier, error) {
	if from == "" {
		return nil, errors.New("ses notifier: from address is required")
	}
	if len(to) == 0 {
		return nil, errors.New("ses notifier: at least one recipient is required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &SESNotifier{client: client, from: from, to: append([]string(nil), to...), log: log}, nil
}

func (n *SESNotifier) NotifyCreated(ctx context.Context, task *domain.Task) error {
	return n.send(ctx, createdEvent(task))
}

func (n *SESNotifier) NotifyUpdated(ctx context.Context, task *domain.Task, oldStatus domain.TaskStatus) error {
	return n.send(ctx, updatedEvent(task, oldStatus))
}

func (n *SESNotifier) NotifyDeleted(ctx context.Context, task *domain.Task) error {
	return n.send(ctx, deletedEvent(task))
}

func (n *SESNotifier) send(ctx context.Context, event TaskEvent) error {
	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination: &types.Destination{
			ToAddresses: n.to,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(event.Subject())},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(event.Text())},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send %s: %w", event.NotificationType, err)
	}
	n.log.Infow("ses_send_ok", "type", event.NotificationType, "task_id", event.TaskID, "recipients", len(n.to))
	return nil
}
