package domain

import (
	"fmt"
	"time"
)

// ==================== ENUMS ====================

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

var taskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
}

func (s TaskStatus) Valid() bool {
	for _, v := range taskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s TaskStatus) String() string { return string(s) }

// ParseTaskStatus maps a stored label back to its enum value.
func ParseTaskStatus(label string) (TaskStatus, error) {
	s := TaskStatus(label)
	if !s.Valid() {
		return "", fmt.Errorf("unknown task status %q", label)
	}
	return s, nil
}

// TaskStatuses lists every status in declaration order.
func TaskStatuses() []TaskStatus {
	out := make([]TaskStatus, len(taskStatuses))
	copy(out, taskStatuses)
	return out
}

type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

var taskPriorities = []TaskPriority{
	TaskPriorityLow,
	TaskPriorityMedium,
	TaskPriorityHigh,
	TaskPriorityCritical,
}

func (p TaskPriority) Valid() bool {
	for _, v := range taskPriorities {
		if p == v {
			return true
		}
	}
	return false
}

func (p TaskPriority) String() string { return string(p) }

func ParseTaskPriority(label string) (TaskPriority, error) {
	p := TaskPriority(label)
	if !p.Valid() {
		return "", fmt.Errorf("unknown task priority %q", label)
	}
	return p, nil
}

func TaskPriorities() []TaskPriority {
	out := make([]TaskPriority, len(taskPriorities))
	copy(out, taskPriorities)
	return out
}

// ==================== ENTITIES ====================

// Task is the tracked unit of work. Files holds blob storage keys and only
// ever grows through an append.
type Task struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description *string      `json:"description,omitempty" yaml:"description,omitempty"`
	Status      TaskStatus   `json:"status" yaml:"status"`
	Priority    TaskPriority `json:"priority" yaml:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	Tags        []string     `json:"tags" yaml:"tags"`
	CreatedAt   time.Time    `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" yaml:"updated_at"`
	Files       []string     `json:"files" yaml:"files"`
}

// Clone returns a deep copy so callers can hold a snapshot while the
// original keeps changing.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	c.Tags = append(make([]string, 0, len(t.Tags)), t.Tags...)
	c.Files = append(make([]string, 0, len(t.Files)), t.Files...)
	return &c
}

// HasTag reports whether tag appears anywhere in the task's tags.
func (t *Task) HasTag(tag string) bool {
	for _, v := range t.Tags {
		if v == tag {
			return true
		}
	}
	return false
}

// Matches applies a ListFilter to an already loaded task.
func (t *Task) Matches(f ListFilter) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Tag != nil && !t.HasTag(*f.Tag) {
		return false
	}
	return true
}
