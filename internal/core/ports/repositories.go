package ports

import (
	"context"

	"github.com/taskboard/backend/internal/domain"
)

// TaskRepository is the only component that speaks a storage item format.
// GetByID, Update and AppendFile return domain.ErrTaskNotFound for unknown
// ids; backend failures wrap domain.ErrStoreUnavailable.
type TaskRepository interface {
	Put(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.Task, error)
	Update(ctx context.Context, id string, fields domain.FieldSet) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	AppendFile(ctx context.Context, id string, fileRef string) error
}
