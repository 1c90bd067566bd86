package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/taskboard/backend/internal/core/ports"
)

var errNoQueue = errors.New("no queue configured: set queue.driver to sqs or kafka")

func enqueueReport(ctx context.Context, q ports.Enqueuer, w io.Writer, reportType string) error {
	if q == nil {
		return errNoQueue
	}
	if err := q.EnqueueReport(ctx, reportType); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s queued %s report\n", styleOK.Render("✓"), reportType)
	return err
}

func enqueueCleanup(ctx context.Context, q ports.Enqueuer, w io.Writer, days int) error {
	if q == nil {
		return errNoQueue
	}
	if err := q.EnqueueCleanup(ctx, days); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s queued cleanup of tasks completed over %d day(s) ago\n", styleOK.Render("✓"), days)
	return err
}

func enqueueReminder(ctx context.Context, q ports.Enqueuer, w io.Writer, taskID string) error {
	if q == nil {
		return errNoQueue
	}
	if err := q.EnqueueReminder(ctx, taskID); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s queued reminder for task %s\n", styleOK.Render("✓"), taskID)
	return err
}
