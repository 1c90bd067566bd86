// Package bootstrap turns a Config into wired services. The server, the
// worker and taskctl share it so every binary sees the same drivers.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/infrastructure/awsclient"
	"github.com/taskboard/backend/internal/infrastructure/blob"
	"github.com/taskboard/backend/internal/infrastructure/db"
	"github.com/taskboard/backend/internal/infrastructure/dynamo"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/infrastructure/memory"
	"github.com/taskboard/backend/internal/infrastructure/messaging"
	"gorm.io/gorm"
)

type Components struct {
	Repo        ports.TaskRepository
	Tasks       *services.TaskService
	Attachments *services.AttachmentService
	Processor   *services.ProcessorService
	// Enqueuer is nil when queue.driver is none.
	Enqueuer ports.Enqueuer

	cfg     *config.Config
	log     *logger.Logger
	aws     *awsclient.Clients
	db      *gorm.DB
	closers []func() error
}

// Build constructs every component selected by cfg.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Components, error) {
	c := &Components{cfg: cfg, log: log}

	if needsAWS(cfg) {
		clients, err := awsclient.New(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		c.aws = clients
	}

	repo, err := c.buildRepository()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Repo = repo

	notifier, err := c.buildNotifier()
	if err != nil {
		c.Close()
		return nil, err
	}
	enqueuer, err := c.buildEnqueuer()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Enqueuer = enqueuer
	blobs := c.buildBlobStore()

	c.Tasks = services.NewTaskService(services.TaskServiceConfig{
		Repo:           repo,
		Notifier:       notifier,
		Enqueuer:       enqueuer,
		Blobs:          blobs,
		Logger:         log.Named("tasks"),
		DefaultLimit:   cfg.Storage.DefaultLimit,
		EnableBreakers: cfg.Features.EnableBreakers,
	})

	c.Attachments = services.NewAttachmentService(c.Tasks, blobs, log.Named("attachments"))
	c.Processor = services.NewProcessorService(services.ProcessorServiceConfig{
		Tasks:          c.Tasks,
		Logger:         log.Named("processor"),
		CleanupDaysOld: cfg.Worker.CleanupDaysOld,
	})
	return c, nil
}

func needsAWS(cfg *config.Config) bool {
	return cfg.Storage.Driver == "dynamodb" ||
		cfg.Blob.Driver == "s3" ||
		cfg.Notify.Driver == "sns" || cfg.Notify.Driver == "ses" ||
		cfg.Queue.Driver == "sqs"
}

func (c *Components) buildRepository() (ports.TaskRepository, error) {
	switch c.cfg.Storage.Driver {
	case "dynamodb":
		return dynamo.NewTaskRepository(dynamo.TaskRepositoryConfig{
			Client:    c.aws.DynamoDB,
			TableName: c.cfg.Dynamo.TableName,
			Logger:    c.log.Named("dynamo"),
		}), nil
	case "postgres":
		database, err := db.NewPostgresConnection(c.cfg.Database)
		if err != nil {
			return nil, err
		}
		c.db = database
		c.closers = append(c.closers, func() error { return db.Close(database) })
		return db.NewTaskRepository(database, c.log.Named("postgres")), nil
	case "memory":
		return memory.NewTaskRepository(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.cfg.Storage.Driver)
	}
}

func (c *Components) buildNotifier() (ports.Notifier, error) {
	switch c.cfg.Notify.Driver {
	case "sns":
		return messaging.NewSNSNotifier(c.aws.SNS, c.cfg.Notify.TopicARN, c.log.Named("sns")), nil
	case "ses":
		return messaging.NewSESNotifier(c.aws.SES, c.cfg.Notify.FromEmail, c.cfg.Notify.ToEmails, c.log.Named("ses"))
	default:
		return nil, nil
	}
}

func (c *Components) buildEnqueuer() (ports.Enqueuer, error) {
	q := c.cfg.Queue
	switch q.Driver {
	case "sqs":
		return messaging.NewSQSEnqueuer(c.aws.SQS, q.QueueURL, q.PublishTimeout, c.log.Named("sqs")), nil
	case "kafka":
		k, err := messaging.NewKafkaEnqueuer(q.KafkaBrokers, q.KafkaTopic, q.PublishTimeout, c.log.Named("kafka"))
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, k.Close)
		return k, nil
	default:
		return nil, nil
	}
}

// buildBlobStore returns a nil interface when uploads are disabled.
func (c *Components) buildBlobStore() ports.BlobStore {
	if c.cfg.Blob.Driver != "s3" {
		return nil
	}
	return blob.NewS3Store(blob.S3Config{
		Client:     c.aws.S3,
		Presigner:  c.aws.Presign,
		Bucket:     c.cfg.Blob.Bucket,
		Endpoint:   c.aws.Endpoint,
		PresignTTL: c.cfg.Blob.PresignTTL,
		UploadedBy: c.cfg.Blob.UploadedBy,
		Logger:     c.log.Named("s3"),
	})
}

// NewConsumer opens the queue consumer for the configured driver. The
// caller owns Close.
func (c *Components) NewConsumer() (ports.Consumer, error) {
	q, w := c.cfg.Queue, c.cfg.Worker
	switch q.Driver {
	case "sqs":
		if q.QueueURL == "" {
			return nil, errors.New("queue.queue_url is required for the sqs consumer")
		}
		return messaging.NewSQSConsumer(c.aws.SQS, q.QueueURL, w.WaitTime, w.MaxMessages), nil
	case "kafka":
		return messaging.NewKafkaConsumer(messaging.KafkaConsumerConfig{
			Brokers:         q.KafkaBrokers,
			Topic:           q.KafkaTopic,
			GroupID:         q.KafkaGroupID,
			DeadLetterTopic: q.KafkaDeadLetterTopic,
			MaxAttempts:     q.KafkaMaxAttempts,
			Logger:          c.log.Named("kafka"),
		})
	default:
		return nil, fmt.Errorf("queue driver %q has no consumer", q.Driver)
	}
}

// Migrate prepares the storage backend: creates the DynamoDB table or runs
// the gorm migrations. The memory driver needs nothing.
func (c *Components) Migrate(ctx context.Context) error {
	switch c.cfg.Storage.Driver {
	case "dynamodb":
		return dynamo.EnsureTable(ctx, c.aws.DynamoDB, c.cfg.Dynamo.TableName, c.log.Named("dynamo"))
	case "postgres":
		return db.RunMigrations(c.db)
	default:
		return nil
	}
}

func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
