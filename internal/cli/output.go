package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	styleHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	styleCell   = lipgloss.NewStyle().Padding(0, 1)
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleBorder = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var statusStyles = map[domain.TaskStatus]lipgloss.Style{
	domain.TaskStatusPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	domain.TaskStatusInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	domain.TaskStatusCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	domain.TaskStatusCancelled:  lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
}

func checkFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// encode writes v as JSON or YAML. ok is false for the table format.
func encode(w io.Writer, format string, v any) (ok bool, err error) {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func renderTask(w io.Writer, format string, task *domain.Task) error {
	if ok, err := encode(w, format, task); ok {
		return err
	}
	rows := [][]string{
		{"id", task.ID},
		{"title", task.Title},
		{"description", deref(task.Description)},
		{"status", statusStyle(task.Status).Render(task.Status.String())},
		{"priority", task.Priority.String()},
		{"due_date", formatDue(task.DueDate)},
		{"tags", strings.Join(task.Tags, ", ")},
		{"files", strings.Join(task.Files, "\n")},
		{"created_at", domain.FormatTimestamp(task.CreatedAt)},
		{"updated_at", domain.FormatTimestamp(task.UpdatedAt)},
	}
	_, err := fmt.Fprintln(w, newTable(nil, rows).Render())
	return err
}

func renderTasks(w io.Writer, format string, tasks []domain.Task) error {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	if ok, err := encode(w, format, tasks); ok {
		return err
	}
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, styleDim.Render("No tasks found."))
		return err
	}

	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.ID,
			t.Title,
			statusStyle(t.Status).Render(t.Status.String()),
			t.Priority.String(),
			formatDue(t.DueDate),
			strings.Join(t.Tags, ","),
			fmt.Sprint(len(t.Files)),
		})
	}
	headers := []string{"ID", "TITLE", "STATUS", "PRIORITY", "DUE", "TAGS", "FILES"}
	if _, err := fmt.Fprintln(w, newTable(headers, rows).Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, styleDim.Render(fmt.Sprintf("%d task(s)", len(tasks))))
	return err
}

func renderUpload(w io.Writer, format string, up *ports.UploadedFile) error {
	view := struct {
		TaskID  string `json:"task_id" yaml:"task_id"`
		FileKey string `json:"file_key" yaml:"file_key"`
		FileURL string `json:"file_url" yaml:"file_url"`
	}{up.TaskID, up.FileKey, up.URL}
	if ok, err := encode(w, format, view); ok {
		return err
	}
	_, err := fmt.Fprintf(w, "%s uploaded %s\n  %s\n", styleOK.Render("✓"), view.FileKey, styleDim.Render(view.FileURL))
	return err
}

func renderReport(w io.Writer, format string, report *services.TaskReport) error {
	if ok, err := encode(w, format, report); ok {
		return err
	}
	var rows [][]string
	for _, s := range domain.TaskStatuses() {
		rows = append(rows, []string{"status", statusStyle(s).Render(s.String()), fmt.Sprint(report.ByStatus[s])})
	}
	for _, p := range domain.TaskPriorities() {
		rows = append(rows, []string{"priority", p.String(), fmt.Sprint(report.ByPriority[p])})
	}
	rows = append(rows,
		[]string{"overdue", "", fmt.Sprint(report.Overdue)},
		[]string{"total", "", fmt.Sprint(report.Total)},
	)
	_, err := fmt.Fprintln(w, newTable([]string{"GROUP", "VALUE", "COUNT"}, rows).Render())
	return err
}

func newTable(headers []string, rows [][]string) *table.Table {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			return styleCell
		}).
		Rows(rows...)
	if len(headers) > 0 {
		t = t.Headers(headers...)
	}
	return t
}

func statusStyle(s domain.TaskStatus) lipgloss.Style {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return styleCell
}

func formatDue(due *time.Time) string {
	if due == nil {
		return "-"
	}
	return domain.FormatTimestamp(*due)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
