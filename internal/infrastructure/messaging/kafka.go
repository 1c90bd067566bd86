package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	kgo "github.com/segmentio/kafka-go"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

const commitTimeout = 3 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kgo.Message, error)
	CommitMessages(ctx context.Context, msgs ...kgo.Message) error
	Close() error
}

type KafkaEnqueuer struct {
	queueEnqueuer
	writer messageWriter
}

var _ ports.Enqueuer = (*KafkaEnqueuer)(nil)

func NewKafkaEnqueuer(brokersCSV, topic string, timeout time.Duration, log *logger.Logger) (*KafkaEnqueuer, error) {
	brokers := SplitBrokers(brokersCSV)
	if len(brokers) == 0 {
		return nil, errors.New("kafka enqueuer: no brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka enqueuer: topic is required")
	}
	w := &kgo.Writer{
		Addr:         kgo.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kgo.Hash{},
		RequiredAcks: kgo.RequireOne,
	}
	return newKafkaEnqueuer(w, timeout, log), nil
}

func newKafkaEnqueuer(w messageWriter, timeout time.Duration, log *logger.Logger) *KafkaEnqueuer {
	if log == nil {
		log = logger.NewNop()
	}
	return &KafkaEnqueuer{
		queueEnqueuer: queueEnqueuer{
			transport: &kafkaSender{writer: w},
			timeout:   timeout,
			log:       log,
		},
		writer: w,
	}
}

func (k *KafkaEnqueuer) Close() error { return k.writer.Close() }

type kafkaSender struct {
	writer messageWriter
}

func (s *kafkaSender) send(ctx context.Context, key, action string, body []byte) error {
	return s.writer.WriteMessages(ctx, kgo.Message{
		// same key, same partition: messages about one task stay ordered
		Key:     []byte(key),
		Value:   body,
		Headers: []kgo.Header{{Key: "action", Value: []byte(action)}},
		Time:    time.Now(),
	})
}

const defaultKafkaMaxAttempts = 5

type KafkaConsumerConfig struct {
	Brokers string
	Topic   string
	GroupID string
	// DeadLetterTopic receives messages that failed MaxAttempts times. When
	// empty a failing message is retried until it succeeds.
	DeadLetterTopic string
	MaxAttempts     int
	Logger          *logger.Logger
}

// KafkaConsumer reads one message per Receive. Offsets are committed only
// through Ack. A Nacked message is handed out again by the next Receive
// without fetching further, so the group offset never moves past it; after
// MaxAttempts it is copied to the dead-letter topic and committed.
type KafkaConsumer struct {
	reader      messageReader
	deadLetter  messageWriter
	maxAttempts int
	log         *logger.Logger

	mu       sync.Mutex
	pending  *kgo.Message
	attempts int
}

var _ ports.Consumer = (*KafkaConsumer)(nil)

func NewKafkaConsumer(cfg KafkaConsumerConfig) (*KafkaConsumer, error) {
	brokers := SplitBrokers(cfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("kafka consumer: no brokers configured")
	}
	r := kgo.NewReader(kgo.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commits
	})
	var dlq messageWriter
	if cfg.DeadLetterTopic != "" {
		dlq = &kgo.Writer{
			Addr:         kgo.TCP(brokers...),
			Topic:        cfg.DeadLetterTopic,
			Balancer:     &kgo.Hash{},
			RequiredAcks: kgo.RequireAll,
		}
	}
	return newKafkaConsumer(r, dlq, cfg.MaxAttempts, cfg.Logger), nil
}

func newKafkaConsumer(r messageReader, dlq messageWriter, maxAttempts int, log *logger.Logger) *KafkaConsumer {
	if maxAttempts <= 0 {
		maxAttempts = defaultKafkaMaxAttempts
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &KafkaConsumer{reader: r, deadLetter: dlq, maxAttempts: maxAttempts, log: log}
}

func (c *KafkaConsumer) Receive(ctx context.Context) ([]ports.Delivery, error) {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()
	if pending != nil {
		return []ports.Delivery{c.delivery(*pending)}, nil
	}

	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("kafka fetch: %w", err)
	}
	return []ports.Delivery{c.delivery(m)}, nil
}

func (c *KafkaConsumer) delivery(m kgo.Message) ports.Delivery {
	return ports.Delivery{
		ID:   messageID(m),
		Body: m.Value,
		Ack: func(ctx context.Context) error {
			if err := c.commit(ctx, m); err != nil {
				return err
			}
			c.clearPending()
			return nil
		},
		Nack: func(ctx context.Context, cause error) error {
			return c.nack(ctx, m, cause)
		},
	}
}

func (c *KafkaConsumer) nack(ctx context.Context, m kgo.Message, cause error) error {
	c.mu.Lock()
	c.pending = &m
	c.attempts++
	attempts := c.attempts
	c.mu.Unlock()

	if attempts < c.maxAttempts || c.deadLetter == nil {
		c.log.Warnw("kafka_message_retry", "message_id", messageID(m), "attempt", attempts, "error", cause)
		return nil
	}

	if err := c.deadLetter.WriteMessages(ctx, deadLetterMessage(m, cause, attempts)); err != nil {
		// stays pending; the next Receive retries the original
		return fmt.Errorf("kafka dead letter %s: %w", messageID(m), err)
	}
	if err := c.commit(ctx, m); err != nil {
		return err
	}
	c.clearPending()
	c.log.Errorw("kafka_message_dead_lettered", "message_id", messageID(m), "attempts", attempts, "error", cause)
	return nil
}

func (c *KafkaConsumer) commit(ctx context.Context, m kgo.Message) error {
	cctx, cancel := context.WithTimeout(ctx, commitTimeout)
	defer cancel()
	return c.reader.CommitMessages(cctx, m)
}

func (c *KafkaConsumer) clearPending() {
	c.mu.Lock()
	c.pending = nil
	c.attempts = 0
	c.mu.Unlock()
}

func (c *KafkaConsumer) Close() error {
	var errs []error
	if c.deadLetter != nil {
		errs = append(errs, c.deadLetter.Close())
	}
	errs = append(errs, c.reader.Close())
	return errors.Join(errs...)
}

func messageID(m kgo.Message) string {
	return fmt.Sprintf("%s/%d/%d", m.Topic, m.Partition, m.Offset)
}

func deadLetterMessage(m kgo.Message, cause error, attempts int) kgo.Message {
	headers := append([]kgo.Header{}, m.Headers...)
	headers = append(headers,
		kgo.Header{Key: "dlq_source", Value: []byte(messageID(m))},
		kgo.Header{Key: "dlq_error", Value: []byte(cause.Error())},
		kgo.Header{Key: "dlq_attempts", Value: []byte(strconv.Itoa(attempts))},
	)
	return kgo.Message{Key: m.Key, Value: m.Value, Headers: headers, Time: time.Now()}
}

func SplitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
