package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultListLimit = domain.DefaultListLimit
	MaxListLimit     = domain.MaxListLimit
)

type taskRepository struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewTaskRepository(db *gorm.DB, log *logger.Logger) ports.TaskRepository {
	return NewTaskRepositoryWithClock(db, log, domain.Now)
}

func NewTaskRepositoryWithClock(db *gorm.DB, log *logger.Logger, now func() time.Time) ports.TaskRepository {
	if log == nil {
		log = logger.NewNop()
	}
	return &taskRepository{db: db, log: log, now: now}
}

func (r *taskRepository) Put(ctx context.Context, task *domain.Task) error {
	rec := taskToRecord(task)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
	if err != nil {
		r.log.Errorw("task_repo_put_failed", "id", task.ID, "error", err)
		return unavailable("put", err)
	}
	r.log.Debugw("task_repo_put_ok", "id", task.ID)
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var rec TaskRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		r.log.Errorw("task_repo_get_failed", "id", id, "error", err)
		return nil, unavailable("get", err)
	}

	task, err := recordToTask(rec)
	if err != nil {
		r.log.Warnw("task_repo_get_malformed", "id", id, "error", err)
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

// List applies the limit after filtering, unlike the DynamoDB scan where
// the limit bounds the number of items examined.
func (r *taskRepository) List(ctx context.Context, filter domain.ListFilter, limit int) ([]domain.Task, error) {
	query, err := applyFilter(r.db.WithContext(ctx).Model(&TaskRecord{}), filter)
	if err != nil {
		return nil, err
	}

	var recs []TaskRecord
	err = query.Order("created_at DESC").Limit(clampLimit(limit)).Find(&recs).Error
	if err != nil {
		r.log.Errorw("task_repo_list_failed", "error", err)
		return nil, unavailable("list", err)
	}

	tasks := make([]domain.Task, 0, len(recs))
	for _, rec := range recs {
		task, err := recordToTask(rec)
		if err != nil {
			r.log.Warnw("task_repo_list_skip_malformed", "id", rec.ID, "error", err)
			continue
		}
		tasks = append(tasks, *task)
	}
	r.log.Debugw("task_repo_list_ok", "count", len(tasks))
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, fields domain.FieldSet) (*domain.Task, error) {
	updates, err := updateColumns(fields, r.now())
	if err != nil {
		return nil, err
	}

	res := r.db.WithContext(ctx).Model(&TaskRecord{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		r.log.Errorw("task_repo_update_failed", "id", id, "fields", fields.Names(), "error", res.Error)
		return nil, unavailable("update", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrTaskNotFound
	}

	r.log.Infow("task_repo_update_ok", "id", id, "fields", fields.Names())
	return r.GetByID(ctx, id)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&TaskRecord{}).Error; err != nil {
		r.log.Errorw("task_repo_delete_failed", "id", id, "error", err)
		return unavailable("delete", err)
	}
	r.log.Infow("task_repo_delete_ok", "id", id)
	return nil
}

// AppendFile concatenates inside a single UPDATE so concurrent appends are
// serialised by the row lock.
func (r *taskRepository) AppendFile(ctx context.Context, id string, fileRef string) error {
	res := r.db.WithContext(ctx).Model(&TaskRecord{}).Where("id = ?", id).
		Update("files", gorm.Expr("COALESCE(files, '[]'::jsonb) || jsonb_build_array(?::text)", fileRef))
	if res.Error != nil {
		r.log.Errorw("task_repo_append_file_failed", "id", id, "file", fileRef, "error", res.Error)
		return unavailable("append file", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	r.log.Infow("task_repo_append_file_ok", "id", id, "file", fileRef)
	return nil
}

func applyFilter(q *gorm.DB, f domain.ListFilter) (*gorm.DB, error) {
	if f.Status != nil {
		q = q.Where("status = ?", f.Status.String())
	}
	if f.Priority != nil {
		q = q.Where("priority = ?", f.Priority.String())
	}
	if f.Tag != nil {
		contains, err := json.Marshal([]string{*f.Tag})
		if err != nil {
			return nil, fmt.Errorf("marshal tag filter: %w", err)
		}
		q = q.Where("tags @> ?::jsonb", string(contains))
	}
	return q, nil
}

// updateColumns maps present fields to column values. Map updates bypass
// the json serializer, so tags are encoded here.
func updateColumns(f domain.FieldSet, now time.Time) (map[string]any, error) {
	cols := map[string]any{"updated_at": domain.NormalizeTimestamp(now)}
	if f.Title != nil {
		cols["title"] = *f.Title
	}
	if f.Description != nil {
		cols["description"] = *f.Description
	}
	if f.Status != nil {
		cols["status"] = f.Status.String()
	}
	if f.Priority != nil {
		cols["priority"] = f.Priority.String()
	}
	if f.DueDate != nil {
		cols["due_date"] = domain.NormalizeTimestamp(*f.DueDate)
	}
	if f.Tags != nil {
		tags, err := json.Marshal(nonNil(*f.Tags))
		if err != nil {
			return nil, fmt.Errorf("marshal tags: %w", err)
		}
		cols["tags"] = gorm.Expr("?::jsonb", string(tags))
	}
	return cols, nil
}

func clampLimit(limit int) int {
	return domain.ClampListLimit(limit)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("postgres %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
