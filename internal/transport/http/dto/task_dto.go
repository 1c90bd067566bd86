package dto

import (
	"strconv"
	"time"

	"github.com/taskboard/backend/internal/domain"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Field   string   `json:"field,omitempty"`
	Details []string `json:"details,omitempty"`
}

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	DueDate     *string  `json:"due_date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ToCommand converts the request; enum and length checks are left to
// CreateCommand.Validate.
func (r *CreateTaskRequest) ToCommand() (domain.CreateCommand, error) {
	due, err := parseDueDate(r.DueDate)
	if err != nil {
		return domain.CreateCommand{}, err
	}
	return domain.CreateCommand{
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.TaskStatus(r.Status),
		Priority:    domain.TaskPriority(r.Priority),
		DueDate:     due,
		Tags:        r.Tags,
	}, nil
}

// UpdateTaskRequest uses pointers throughout: a missing key leaves the
// field untouched.
type UpdateTaskRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *string   `json:"status,omitempty"`
	Priority    *string   `json:"priority,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

func (r *UpdateTaskRequest) ToCommand() (domain.UpdateCommand, error) {
	due, err := parseDueDate(r.DueDate)
	if err != nil {
		return domain.UpdateCommand{}, err
	}
	cmd := domain.UpdateCommand{
		Title:       r.Title,
		Description: r.Description,
		DueDate:     due,
		Tags:        r.Tags,
	}
	if r.Status != nil {
		s := domain.TaskStatus(*r.Status)
		cmd.Status = &s
	}
	if r.Priority != nil {
		p := domain.TaskPriority(*r.Priority)
		cmd.Priority = &p
	}
	return cmd, nil
}

func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := domain.ParseTimestamp(*raw)
	if err != nil {
		return nil, domain.NewValidationError("due_date", "must be an ISO-8601 timestamp")
	}
	return &t, nil
}

// ParseListQuery reads the optional status, priority, tag and limit query
// parameters. Empty values are treated as absent.
func ParseListQuery(status, priority, tag, limit string) (domain.ListFilter, int, error) {
	var f domain.ListFilter
	if status != "" {
		s := domain.TaskStatus(status)
		f.Status = &s
	}
	if priority != "" {
		p := domain.TaskPriority(priority)
		f.Priority = &p
	}
	if tag != "" {
		f.Tag = &tag
	}
	if err := f.Validate(); err != nil {
		return f, 0, err
	}

	n := 0
	if limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil || v < 1 {
			return f, 0, domain.NewValidationError("limit", "must be a positive integer")
		}
		n = v
	}
	return f, n, nil
}

type TaskResponse struct {
	Message string       `json:"message"`
	Task    *domain.Task `json:"task"`
}

type TaskListResponse struct {
	Message string        `json:"message"`
	Tasks   []domain.Task `json:"tasks"`
	Count   int           `json:"count"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UploadFileRequest struct {
	FileContent string `json:"file_content"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type,omitempty"`
}

type UploadFileResponse struct {
	Message string `json:"message"`
	FileURL string `json:"file_url"`
	TaskID  string `json:"task_id"`
	FileKey string `json:"file_key"`
}
