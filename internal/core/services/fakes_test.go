package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
)

var errBoom = errors.New("boom")

type recordingNotifier struct {
	mu      sync.Mutex
	calls   []string
	old     []domain.TaskStatus
	err     error
	doPanic bool
}

func (n *recordingNotifier) record(call string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, call)
	if n.doPanic {
		panic("notifier exploded")
	}
	return n.err
}

func (n *recordingNotifier) NotifyCreated(ctx context.Context, task *domain.Task) error {
	return n.record("created:" + task.ID)
}

func (n *recordingNotifier) NotifyUpdated(ctx context.Context, task *domain.Task, oldStatus domain.TaskStatus) error {
	n.mu.Lock()
	n.old = append(n.old, oldStatus)
	n.mu.Unlock()
	return n.record("updated:" + task.ID)
}

func (n *recordingNotifier) NotifyDeleted(ctx context.Context, task *domain.Task) error {
	return n.record("deleted:" + task.ID)
}

func (n *recordingNotifier) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.calls...)
}

type recordingEnqueuer struct {
	mu      sync.Mutex
	tasks   []string
	doPanic bool
}

func (e *recordingEnqueuer) EnqueueProcessing(ctx context.Context, task *domain.Task) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task.ID)
	if e.doPanic {
		panic("enqueuer exploded")
	}
	return nil
}

func (e *recordingEnqueuer) EnqueueReminder(ctx context.Context, taskID string) error { return nil }

func (e *recordingEnqueuer) EnqueueCleanup(ctx context.Context, daysOld int) error { return nil }

func (e *recordingEnqueuer) EnqueueReport(ctx context.Context, reportType string) error { return nil }

type fakeBlobs struct {
	mu        sync.Mutex
	objects   map[string]ports.BlobObject
	deleted   []string
	putErr    error
	deleteErr error
	seq       int
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string]ports.BlobObject)}
}

func (b *fakeBlobs) Put(ctx context.Context, obj ports.BlobObject) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return "", b.putErr
	}
	b.seq++
	key := fmt.Sprintf("tasks/%s/files/%d-%s", obj.TaskID, b.seq, obj.FileName)
	b.objects[key] = obj
	return key, nil
}

func (b *fakeBlobs) URLFor(ctx context.Context, ref string) (string, error) {
	return "https://blobs.example/" + ref, nil
}

func (b *fakeBlobs) DeleteMany(ctx context.Context, refs []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, refs...)
	return b.deleteErr
}

// tickingClock advances by step on every call.
func tickingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(step)
		return current
	}
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("task-%03d", n)
	}
}
