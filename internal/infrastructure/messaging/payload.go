package messaging

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SNS rejects subjects longer than 100 characters.
const maxSubjectLength = 100

// TaskEvent is the JSON body published for every lifecycle notification.
type TaskEvent struct {
	NotificationType string `json:"notification_type"`
	TaskID           string `json:"task_id"`
	Title            string `json:"title"`
	Status           string `json:"status,omitempty"`
	OldStatus        string `json:"old_status,omitempty"`
	NewStatus        string `json:"new_status,omitempty"`
	Priority         string `json:"priority,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
	DeletedAt        string `json:"deleted_at,omitempty"`
}

func createdEvent(t *domain.Task) TaskEvent {
	return TaskEvent{
		NotificationType: ports.NotificationTaskCreated,
		TaskID:           t.ID,
		Title:            t.Title,
		Status:           t.Status.String(),
		Priority:         t.Priority.String(),
		CreatedAt:        domain.FormatTimestamp(t.CreatedAt),
	}
}

func updatedEvent(t *domain.Task, old domain.TaskStatus) TaskEvent {
	return TaskEvent{
		NotificationType: ports.NotificationTaskUpdated,
		TaskID:           t.ID,
		Title:            t.Title,
		OldStatus:        old.String(),
		NewStatus:        t.Status.String(),
		Priority:         t.Priority.String(),
		UpdatedAt:        domain.FormatTimestamp(t.UpdatedAt),
	}
}

// deletedEvent stamps deleted_at with the last update time; the record is
// already gone when the event is built.
func deletedEvent(t *domain.Task) TaskEvent {
	return TaskEvent{
		NotificationType: ports.NotificationTaskDeleted,
		TaskID:           t.ID,
		Title:            t.Title,
		Status:           t.Status.String(),
		DeletedAt:        domain.FormatTimestamp(t.UpdatedAt),
	}
}

// Subject renders the human readable line used as SNS subject and email
// subject.
func (e TaskEvent) Subject() string {
	var s string
	switch e.NotificationType {
	case ports.NotificationTaskCreated:
		s = "New task created: " + e.Title
	case ports.NotificationTaskUpdated:
		s = "Task updated: " + e.Title
	case ports.NotificationTaskDeleted:
		s = "Task deleted: " + e.Title
	default:
		s = "Task event: " + e.Title
	}
	return truncate(singleLine(s), maxSubjectLength)
}

// ASCIISubject is Subject reduced to printable ASCII, as SNS requires:
// accents are stripped and anything else becomes '?'.
func (e TaskEvent) ASCIISubject() string {
	subject := e.Subject()
	folded, _, err := transform.String(stripMarks, subject)
	if err != nil {
		folded = subject
	}
	b := make([]byte, 0, len(folded))
	for _, r := range folded {
		if r >= 0x20 && r < 0x7f {
			b = append(b, byte(r))
		} else {
			b = append(b, '?')
		}
	}
	return truncate(string(b), maxSubjectLength)
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// singleLine replaces control characters with spaces and collapses runs of
// whitespace.
func singleLine(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Text renders a plain-text body for email channels.
func (e TaskEvent) Text() string {
	switch e.NotificationType {
	case ports.NotificationTaskUpdated:
		return fmt.Sprintf("Task %q (%s) moved from %s to %s.\nPriority: %s\nUpdated at: %s\n",
			e.Title, e.TaskID, e.OldStatus, e.NewStatus, e.Priority, e.UpdatedAt)
	case ports.NotificationTaskDeleted:
		return fmt.Sprintf("Task %q (%s) was deleted.\nLast status: %s\nDeleted at: %s\n",
			e.Title, e.TaskID, e.Status, e.DeletedAt)
	default:
		return fmt.Sprintf("Task %q (%s) was created.\nStatus: %s\nPriority: %s\nCreated at: %s\n",
			e.Title, e.TaskID, e.Status, e.Priority, e.CreatedAt)
	}
}

func (e TaskEvent) JSON() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("marshal %s event: %w", e.NotificationType, err)
	}
	return string(b), nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
