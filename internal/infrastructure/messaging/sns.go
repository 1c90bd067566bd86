package messaging

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

type SNSAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes task events to a topic. With no topic configured
// every call is a no-op.
type SNSNotifier struct {
	client   SNSAPI
	topicARN string
	log      *logger.Logger
}

var _ ports.Notifier = (*SNSNotifier)(nil)

func NewSNSNotifier(client SNSAPI, topicARN string, log *logger.Logger) *SNSNotifier {
	if log == nil {
		log = logger.NewNop()
	}
	return &SNSNotifier{client: client, topicARN: topicARN, log: log}
}

func (n *SNSNotifier) NotifyCreated(ctx context.Context, task *domain.Task) error {
	return n.publish(ctx, createdEvent(task))
}

func (n *SNSNotifier) NotifyUpdated(ctx context.Context, task *domain.Task, oldStatus domain.TaskStatus) error {
	return n.publish(ctx, updatedEvent(task, oldStatus))
}

func (n *SNSNotifier) NotifyDeleted(ctx context.Context, task *domain.Task) error {
	return n.publish(ctx, deletedEvent(task))
}

func (n *SNSNotifier) publish(ctx context.Context, event TaskEvent) error {
	if n.topicARN == "" {
		n.log.Debugw("sns_publish_skipped", "reason", "no topic configured", "type", event.NotificationType)
		return nil
	}
	body, err := event.JSON()
	if err != nil {
		return err
	}

	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Message:  aws.String(body),
		Subject:  aws.String(event.ASCIISubject()),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"notification_type": {
				DataType:    aws.String("String"),
				StringValue: aws.String(event.NotificationType),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish %s: %w", event.NotificationType, err)
	}
	n.log.Infow("sns_publish_ok", "type", event.NotificationType, "task_id", event.TaskID, "message_id", aws.ToString(out.MessageId))
	return nil
}
