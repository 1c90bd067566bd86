package domain

import (
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
)

// CreateCommand describes a requested task creation. Zero Status and
// Priority mean "use the default".
type CreateCommand struct {
	Title       string
	Description *string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time
	Tags        []string
}

// Validate applies defaults and checks field constraints.
func (c *CreateCommand) Validate() error {
	if c.Status == "" {
		c.Status = TaskStatusPending
	}
	if c.Priority == "" {
		c.Priority = TaskPriorityMedium
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}

	if err := validateTitle(c.Title); err != nil {
		return err
	}
	if c.Description != nil {
		if err := validateDescription(*c.Description); err != nil {
			return err
		}
	}
	if !c.Status.Valid() {
		return invalid("status", "must be one of pending, in_progress, completed, cancelled")
	}
	if !c.Priority.Valid() {
		return invalid("priority", "must be one of low, medium, high, critical")
	}
	return nil
}

// UpdateCommand describes a partial mutation. A nil field is left untouched.
type UpdateCommand struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	DueDate     *time.Time
	Tags        *[]string
}

func (c UpdateCommand) Validate() error {
	if c.Title != nil {
		if err := validateTitle(*c.Title); err != nil {
			return err
		}
	}
	if c.Description != nil {
		if err := validateDescription(*c.Description); err != nil {
			return err
		}
	}
	if c.Status != nil && !c.Status.Valid() {
		return invalid("status", "must be one of pending, in_progress, completed, cancelled")
	}
	if c.Priority != nil && !c.Priority.Valid() {
		return invalid("priority", "must be one of low, medium, high, critical")
	}
	return nil
}

// Fields returns only the fields present in the command.
func (c UpdateCommand) Fields() FieldSet { return FieldSet(c) }

// FieldSet is the set of fields a store update writes. updated_at is not part
// of it; stores always set that themselves.
type FieldSet struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Priority    *TaskPriority
	DueDate     *time.Time
	Tags        *[]string
}

// Names lists the present fields using their persisted attribute names.
func (f FieldSet) Names() []string {
	var names []string
	if f.Title != nil {
		names = append(names, "title")
	}
	if f.Description != nil {
		names = append(names, "description")
	}
	if f.Status != nil {
		names = append(names, "status")
	}
	if f.Priority != nil {
		names = append(names, "priority")
	}
	if f.DueDate != nil {
		names = append(names, "due_date")
	}
	if f.Tags != nil {
		names = append(names, "tags")
	}
	return names
}

func (f FieldSet) IsEmpty() bool { return len(f.Names()) == 0 }

// Apply writes the present fields onto t and stamps updatedAt.
func (f FieldSet) Apply(t *Task, updatedAt time.Time) {
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Description != nil {
		d := *f.Description
		t.Description = &d
	}
	if f.Status != nil {
		t.Status = *f.Status
	}
	if f.Priority != nil {
		t.Priority = *f.Priority
	}
	if f.DueDate != nil {
		d := *f.DueDate
		t.DueDate = &d
	}
	if f.Tags != nil {
		t.Tags = append(make([]string, 0, len(*f.Tags)), (*f.Tags)...)
	}
	t.UpdatedAt = updatedAt
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 1000
)

// ClampListLimit maps a non-positive limit to DefaultListLimit and caps the
// rest at MaxListLimit. Every store applies it.
func ClampListLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// ListFilter is a conjunction over the present fields.
type ListFilter struct {
	Status   *TaskStatus
	Priority *TaskPriority
	Tag      *string
}

func (f ListFilter) Validate() error {
	if f.Status != nil && !f.Status.Valid() {
		return invalid("status", "must be one of pending, in_progress, completed, cancelled")
	}
	if f.Priority != nil && !f.Priority.Valid() {
		return invalid("priority", "must be one of low, medium, high, critical")
	}
	return nil
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < 1 {
		return invalid("title", "is required")
	}
	if n > MaxTitleLength {
		return invalid("title", "must be at most 200 characters")
	}
	return nil
}

func validateDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return invalid("description", "must be at most 1000 characters")
	}
	return nil
}
