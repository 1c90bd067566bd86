package worker

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

type RunnerConfig struct {
	Consumer   ports.Consumer
	Processor  ports.MessageProcessor
	Logger     *logger.Logger
	MaxBackoff time.Duration
}

// Runner pulls deliveries and acknowledges each one only after the
// processor accepted it. Failed deliveries are Nacked. Receive errors and
// batches with a failure back off exponentially.
type Runner struct {
	consumer   ports.Consumer
	processor  ports.MessageProcessor
	log        *logger.Logger
	maxBackoff time.Duration
}

func NewRunner(cfg RunnerConfig) *Runner {
	r := &Runner{
		consumer:   cfg.Consumer,
		processor:  cfg.Processor,
		log:        cfg.Logger,
		maxBackoff: cfg.MaxBackoff,
	}
	if r.log == nil {
		r.log = logger.NewNop()
	}
	if r.maxBackoff <= 0 {
		r.maxBackoff = 30 * time.Second
	}
	return r
}

func (r *Runner) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = min(200*time.Millisecond, r.maxBackoff)
	b.MaxInterval = r.maxBackoff
	b.MaxElapsedTime = 0 // never give up
	b.Reset()
	return b
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	policy := r.newBackOff()
	retry := r.newBackOff()
	for {
		if ctx.Err() != nil {
			return nil
		}

		deliveries, err := r.consumer.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			wait := policy.NextBackOff()
			r.log.Warnw("worker_receive_failed", "error", err, "retry_in", wait.String())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}
		policy.Reset()

		failed := false
		for _, d := range deliveries {
			if !r.handle(ctx, d) {
				failed = true
			}
		}
		if !failed {
			retry.Reset()
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retry.NextBackOff()):
		}
	}
}

// handle reports whether the delivery was processed.
func (r *Runner) handle(ctx context.Context, d ports.Delivery) bool {
	if err := r.processor.Process(ctx, d.Body); err != nil {
		r.log.Errorw("worker_process_failed", "message_id", d.ID, "error", err)
		if d.Nack != nil {
			if nerr := d.Nack(ctx, err); nerr != nil {
				r.log.Warnw("worker_nack_failed", "message_id", d.ID, "error", nerr)
			}
		}
		return false
	}
	if d.Ack == nil {
		return true
	}
	if err := d.Ack(ctx); err != nil {
		r.log.Warnw("worker_ack_failed", "message_id", d.ID, "error", err)
		return true
	}
	r.log.Debugw("worker_message_done", "message_id", d.ID)
	return true
}
