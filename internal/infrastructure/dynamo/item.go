package dynamo

import (
	"fmt"

	"github.com/taskboard/backend/internal/domain"
)

// Persisted attribute names. Every one of them goes through an expression
// attribute name because "status" is a reserved word.
const (
	attrID          = "id"
	attrTitle       = "title"
	attrDescription = "description"
	attrStatus      = "status"
	attrPriority    = "priority"
	attrDueDate     = "due_date"
	attrTags        = "tags"
	attrCreatedAt   = "created_at"
	attrUpdatedAt   = "updated_at"
	attrFiles       = "files"
)

// taskItem is the stored shape of a task. Enums and timestamps are kept as
// their string labels.
type taskItem struct {
	ID          string   `dynamodbav:"id"`
	Title       string   `dynamodbav:"title"`
	Description *string  `dynamodbav:"description,omitempty"`
	Status      string   `dynamodbav:"status"`
	Priority    string   `dynamodbav:"priority"`
	DueDate     *string  `dynamodbav:"due_date,omitempty"`
	Tags        []string `dynamodbav:"tags"`
	CreatedAt   string   `dynamodbav:"created_at"`
	UpdatedAt   string   `dynamodbav:"updated_at"`
	Files       []string `dynamodbav:"files"`
}

func taskToItem(t *domain.Task) taskItem {
	item := taskItem{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status.String(),
		Priority:    t.Priority.String(),
		Tags:        nonNil(t.Tags),
		CreatedAt:   domain.FormatTimestamp(t.CreatedAt),
		UpdatedAt:   domain.FormatTimestamp(t.UpdatedAt),
		Files:       nonNil(t.Files),
	}
	if t.DueDate != nil {
		due := domain.FormatTimestamp(*t.DueDate)
		item.DueDate = &due
	}
	return item
}

func itemToTask(item taskItem) (*domain.Task, error) {
	if item.ID == "" {
		return nil, fmt.Errorf("%w: missing id", domain.ErrMalformedItem)
	}
	status, err := domain.ParseTaskStatus(item.Status)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedItem, err)
	}
	priority, err := domain.ParseTaskPriority(item.Priority)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedItem, err)
	}
	createdAt, err := domain.ParseTimestamp(item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: created_at: %v", domain.ErrMalformedItem, err)
	}
	updatedAt, err := domain.ParseTimestamp(item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: updated_at: %v", domain.ErrMalformedItem, err)
	}

	task := &domain.Task{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Status:      status,
		Priority:    priority,
		Tags:        nonNil(item.Tags),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		Files:       nonNil(item.Files),
	}
	if item.DueDate != nil && *item.DueDate != "" {
		due, err := domain.ParseTimestamp(*item.DueDate)
		if err != nil {
			return nil, fmt.Errorf("%w: due_date: %v", domain.ErrMalformedItem, err)
		}
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
