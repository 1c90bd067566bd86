package db

import (
	"fmt"
	"time"

	"github.com/taskboard/backend/internal/domain"
)

// TaskRecord is the relational row for a task. Tags and files are jsonb
// arrays so appends stay a single UPDATE. Timestamps are written at
// domain.TimestampPrecision, the resolution of timestamptz.
type TaskRecord struct {
	ID          string     `gorm:"primaryKey;size:36"`
	Title       string     `gorm:"size:200;not null"`
	Description *string    `gorm:"type:text"`
	Status      string     `gorm:"size:20;not null;index"`
	Priority    string     `gorm:"size:20;not null;index"`
	DueDate     *time.Time `gorm:"type:timestamptz"`
	Tags        []string   `gorm:"type:jsonb;serializer:json;not null"`
	Files       []string   `gorm:"type:jsonb;serializer:json;not null"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null;index;autoCreateTime:false"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
}

func (TaskRecord) TableName() string {
	return "tasks"
}

func taskToRecord(t *domain.Task) TaskRecord {
	rec := TaskRecord{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status.String(),
		Priority:    t.Priority.String(),
		Tags:        nonNil(t.Tags),
		Files:       nonNil(t.Files),
		DueDate:     domain.NormalizeTimestampPtr(t.DueDate),
		CreatedAt:   domain.NormalizeTimestamp(t.CreatedAt),
		UpdatedAt:   domain.NormalizeTimestamp(t.UpdatedAt),
	}
	return rec
}

func recordToTask(rec TaskRecord) (*domain.Task, error) {
	status, err := domain.ParseTaskStatus(rec.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedItem, err)
	}
	priority, err := domain.ParseTaskPriority(rec.Priority)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedItem, err)
	}
	task := &domain.Task{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		Status:      status,
		Priority:    priority,
		Tags:        nonNil(rec.Tags),
		Files:       nonNil(rec.Files),
		CreatedAt:   rec.CreatedAt.UTC(),
		UpdatedAt:   rec.UpdatedAt.UTC(),
	}
	if rec.DueDate != nil {
		due := rec.DueDate.UTC()
		task.DueDate = &due
	}
	return task, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append(make([]string, 0, len(s)), s...)
}
