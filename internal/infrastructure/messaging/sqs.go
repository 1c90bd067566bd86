package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

// SQS caps long polling at 20 seconds and batches at 10 messages.
const (
	maxSQSWait     = 20 * time.Second
	maxSQSMessages = 10
)

type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

type SQSEnqueuer struct {
	queueEnqueuer
}

var _ ports.Enqueuer = (*SQSEnqueuer)(nil)

func NewSQSEnqueuer(client SQSAPI, queueURL string, timeout time.Duration, log *logger.Logger) *SQSEnqueuer {
	if log == nil {
		log = logger.NewNop()
	}
	return &SQSEnqueuer{queueEnqueuer{
		transport: &sqsSender{client: client, queueURL: queueURL, log: log},
		timeout:   timeout,
		log:       log,
	}}
}

type sqsSender struct {
	client   SQSAPI
	queueURL string
	log      *logger.Logger
}

func (s *sqsSender) send(ctx context.Context, key, action string, body []byte) error {
	if s.queueURL == "" {
		s.log.Debugw("sqs_send_skipped", "reason", "no queue configured", "action", action)
		return nil
	}
	_, err := s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"action": {
				DataType:    aws.String("String"),
				StringValue: aws.String(action),
			},
		},
	})
	return err
}

// SQSConsumer long-polls a queue. Ack deletes the message; unacked
// messages reappear after the visibility timeout.
type SQSConsumer struct {
	client      SQSAPI
	queueURL    string
	waitTime    time.Duration
	maxMessages int32
}

var _ ports.Consumer = (*SQSConsumer)(nil)

func NewSQSConsumer(client SQSAPI, queueURL string, waitTime time.Duration, maxMessages int) *SQSConsumer {
	if waitTime <= 0 || waitTime > maxSQSWait {
		waitTime = maxSQSWait
	}
	if maxMessages <= 0 || maxMessages > maxSQSMessages {
		maxMessages = maxSQSMessages
	}
	return &SQSConsumer{
		client:      client,
		queueURL:    queueURL,
		waitTime:    waitTime,
		maxMessages: int32(maxMessages),
	}
}

func (c *SQSConsumer) Receive(ctx context.Context) ([]ports.Delivery, error) {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: c.maxMessages,
		WaitTimeSeconds:     int32(c.waitTime / time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("sqs receive: %w", err)
	}

	deliveries := make([]ports.Delivery, 0, len(out.Messages))
	for _, m := range out.Messages {
		handle := aws.ToString(m.ReceiptHandle)
		deliveries = append(deliveries, ports.Delivery{
			ID:   aws.ToString(m.MessageId),
			Body: []byte(aws.ToString(m.Body)),
			Ack: func(ctx context.Context) error {
				_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
					QueueUrl:      aws.String(c.queueURL),
					ReceiptHandle: aws.String(handle),
				})
				return err
			},
		})
	}
	return deliveries, nil
}

func (c *SQSConsumer) Close() error { return nil }
