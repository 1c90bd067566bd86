package ports

import (
	"context"

	"github.com/taskboard/backend/internal/domain"
)

type TaskService interface {
	CreateTask(ctx context.Context, cmd domain.CreateCommand) (*domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	ListTasks(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.Task, error)
	UpdateTask(ctx context.Context, id string, cmd domain.UpdateCommand) (*domain.Task, error)
	DeleteTask(ctx context.Context, id string) (*domain.Task, error)
	AttachFile(ctx context.Context, id string, fileRef string) (*domain.Task, error)
}

type AttachmentService interface {
	Upload(ctx context.Context, taskID string, input UploadFileInput) (*UploadedFile, error)
}

type UploadFileInput struct {
	ContentBase64 string
	FileName      string
	ContentType   string
}

type UploadedFile struct {
	TaskID  string
	FileKey string
	URL     string
	Task    *domain.Task
}

// Notifier publishes task lifecycle events. Callers treat every error as
// non-fatal.
type Notifier interface {
	NotifyCreated(ctx context.Context, task *domain.Task) error
	NotifyUpdated(ctx context.Context, task *domain.Task, oldStatus domain.TaskStatus) error
	NotifyDeleted(ctx context.Context, task *domain.Task) error
}

// Enqueuer submits background work.
type Enqueuer interface {
	EnqueueProcessing(ctx context.Context, task *domain.Task) error
	EnqueueReminder(ctx context.Context, taskID string) error
	EnqueueCleanup(ctx context.Context, daysOld int) error
	EnqueueReport(ctx context.Context, reportType string) error
}

type BlobObject struct {
	TaskID      string
	FileName    string
	ContentType string
	Data        []byte
}

type BlobStore interface {
	Put(ctx context.Context, obj BlobObject) (string, error)
	URLFor(ctx context.Context, fileRef string) (string, error)
	DeleteMany(ctx context.Context, fileRefs []string) error
}
