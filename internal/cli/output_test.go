package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/domain"
	"gopkg.in/yaml.v3"
)

func sampleTask() *domain.Task {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	desc := "write the report"
	return &domain.Task{
		ID:          "task-1",
		Title:       "Quarterly report",
		Description: &desc,
		Status:      domain.TaskStatusInProgress,
		Priority:    domain.TaskPriorityHigh,
		Tags:        []string{"finance", "q1"},
		Files:       []string{},
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestCheckFormat(t *testing.T) {
	for _, f := range []string{"table", "json", "yaml"} {
		if err := checkFormat(f); err != nil {
			t.Errorf("checkFormat(%q): %v", f, err)
		}
	}
	if err := checkFormat("xml"); err == nil {
		t.Error("expected an error for xml")
	}
}

func TestRenderTask_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderTask(&buf, formatJSON, sampleTask()); err != nil {
		t.Fatalf("renderTask: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got["id"] != "task-1" || got["status"] != "in_progress" {
		t.Errorf("unexpected fields: %v", got)
	}
	if _, ok := got["due_date"]; ok {
		t.Error("absent due date should be omitted")
	}
}

func TestRenderTasks_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := renderTasks(&buf, formatYAML, []domain.Task{*sampleTask()}); err != nil {
		t.Fatalf("renderTasks: %v", err)
	}
	var got []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if len(got) != 1 || got[0]["title"] != "Quarterly report" {
		t.Errorf("unexpected YAML: %v", got)
	}
}

func TestRenderTasks_EmptyJSONIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := renderTasks(&buf, formatJSON, nil); err != nil {
		t.Fatalf("renderTasks: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected [], got %q", buf.String())
	}
}

func TestRenderTasks_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := renderTasks(&buf, formatTable, []domain.Task{*sampleTask()}); err != nil {
		t.Fatalf("renderTasks: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"TITLE", "task-1", "Quarterly report", "in_progress", "finance,q1", "1 task(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReport_Table(t *testing.T) {
	report := &services.TaskReport{
		Total:      3,
		ByStatus:   map[domain.TaskStatus]int{domain.TaskStatusPending: 2, domain.TaskStatusCompleted: 1},
		ByPriority: map[domain.TaskPriority]int{domain.TaskPriorityLow: 3},
		Overdue:    1,
	}
	var buf bytes.Buffer
	if err := renderReport(&buf, formatTable, report); err != nil {
		t.Fatalf("renderReport: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"pending", "cancelled", "critical", "overdue", "total"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
