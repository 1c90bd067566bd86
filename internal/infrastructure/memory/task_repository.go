package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
)

// TaskRepository keeps tasks in a map. It backs storage.driver=memory and
// the service tests. List walks records in insertion order so the limit
// bounds the scan the same way a DynamoDB page does.
type TaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
	order []string
	now   func() time.Time
}

func NewTaskRepository() *TaskRepository {
	return NewTaskRepositoryWithClock(domain.Now)
}

func NewTaskRepositoryWithClock(now func() time.Time) *TaskRepository {
	return &TaskRepository{
		tasks: make(map[string]*domain.Task),
		now:   now,
	}
}

var _ ports.TaskRepository = (*TaskRepository)(nil)

func (r *TaskRepository) Put(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[task.ID]; !exists {
		r.order = append(r.order, task.ID)
	}
	r.tasks[task.ID] = task.Clone()
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, exists := r.tasks[id]
	if !exists {
		return nil, domain.ErrTaskNotFound
	}
	// Return a copy to avoid race conditions
	return task.Clone(), nil
}

func (r *TaskRepository) List(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scanned := r.order
	if limit = domain.ClampListLimit(limit); len(scanned) > limit {
		scanned = scanned[:limit]
	}

	out := make([]domain.Task, 0, len(scanned))
	for _, id := range scanned {
		task := r.tasks[id]
		if task.Matches(filter) {
			out = append(out, *task.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *TaskRepository) Update(ctx context.Context, id string, fields domain.FieldSet) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, exists := r.tasks[id]
	if !exists {
		return nil, domain.ErrTaskNotFound
	}
	fields.Apply(task, r.now())
	return task.Clone(), nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[id]; !exists {
		return nil
	}
	delete(r.tasks, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *TaskRepository) AppendFile(ctx context.Context, id string, fileRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, exists := r.tasks[id]
	if !exists {
		return domain.ErrTaskNotFound
	}
	task.Files = append(task.Files, fileRef)
	return nil
}

// Len reports how many records are stored.
func (r *TaskRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
