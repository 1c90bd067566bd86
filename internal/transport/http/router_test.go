package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/infrastructure/memory"
)

type memBlobs struct{ keys []string }

func (b *memBlobs) Put(ctx context.Context, obj ports.BlobObject) (string, error) {
	key := "tasks/" + obj.TaskID + "/files/" + obj.FileName
	b.keys = append(b.keys, key)
	return key, nil
}

func (b *memBlobs) URLFor(ctx context.Context, key string) (string, error) {
	return "http://localhost:4566/bucket/" + key, nil
}

func (b *memBlobs) DeleteMany(ctx context.Context, keys []string) error { return nil }

// failingRepo reports the store as down for every call.
type failingRepo struct{ *memory.TaskRepository }

func (failingRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return nil, errors.Join(domain.ErrStoreUnavailable, errors.New("throttled"))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Features.EnableRequestLogging = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, repo ports.TaskRepository) *fiber.App {
	t.Helper()
	log := logger.NewNop()
	tasks := services.NewTaskService(services.TaskServiceConfig{Repo: repo, Logger: log})
	return NewApp(RouterConfig{
		Tasks:       tasks,
		Attachments: services.NewAttachmentService(tasks, &memBlobs{}, log),
		Logger:      log,
		Config:      cfg,
	})
}

func do(t *testing.T, app *fiber.App, method, path, body string, headers ...string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: response is not JSON: %s", method, path, raw)
		}
	}
	return resp.StatusCode, out
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t, testConfig(t), memory.NewTaskRepository())

	status, body := do(t, app, "POST", "/api/v1/tasks", `{"title":"Write spec","priority":"high","due_date":"2025-03-01"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("create: status %d body %v", status, body)
	}
	task := body["task"].(map[string]any)
	id := task["id"].(string)
	if task["status"] != "pending" || task["priority"] != "high" {
		t.Errorf("unexpected task %v", task)
	}
	if task["due_date"] != "2025-03-01T00:00:00Z" {
		t.Errorf("due date not normalised: %v", task["due_date"])
	}

	status, body = do(t, app, "PUT", "/api/v1/tasks/"+id, `{"status":"completed"}`)
	if status != fiber.StatusOK {
		t.Fatalf("update: status %d body %v", status, body)
	}
	if got := body["task"].(map[string]any); got["status"] != "completed" || got["title"] != "Write spec" {
		t.Errorf("unexpected updated task %v", got)
	}

	status, body = do(t, app, "GET", "/api/v1/tasks?status=completed", "")
	if status != fiber.StatusOK || body["count"].(float64) != 1 {
		t.Errorf("list: status %d body %v", status, body)
	}

	content := base64.StdEncoding.EncodeToString([]byte("hello"))
	status, body = do(t, app, "POST", "/api/v1/tasks/"+id+"/files", `{"file_content":"`+content+`","file_name":"a.txt"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("upload: status %d body %v", status, body)
	}
	if body["file_key"] != "tasks/"+id+"/files/a.txt" || !strings.HasPrefix(body["file_url"].(string), "http://localhost:4566/") {
		t.Errorf("unexpected upload response %v", body)
	}

	status, body = do(t, app, "DELETE", "/api/v1/tasks/"+id, "")
	if status != fiber.StatusOK || body["message"] != "task 'Write spec' deleted" {
		t.Errorf("delete: status %d body %v", status, body)
	}

	status, _ = do(t, app, "GET", "/api/v1/tasks/"+id, "")
	if status != fiber.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", status)
	}
}

func TestErrorMapping(t *testing.T) {
	app := newTestApp(t, testConfig(t), memory.NewTaskRepository())

	tests := []struct {
		name, method, path, body string
		status                   int
		field                    string
	}{
		{"empty title", "POST", "/api/v1/tasks", `{"title":""}`, fiber.StatusBadRequest, "title"},
		{"bad status", "POST", "/api/v1/tasks", `{"title":"x","status":"done"}`, fiber.StatusBadRequest, "status"},
		{"bad due date", "POST", "/api/v1/tasks", `{"title":"x","due_date":"tomorrow"}`, fiber.StatusBadRequest, "due_date"},
		{"malformed body", "POST", "/api/v1/tasks", `{"title":`, fiber.StatusBadRequest, ""},
		{"bad filter", "GET", "/api/v1/tasks?priority=urgent", "", fiber.StatusBadRequest, "priority"},
		{"bad limit", "GET", "/api/v1/tasks?limit=-1", "", fiber.StatusBadRequest, "limit"},
		{"update unknown", "PUT", "/api/v1/tasks/nope", `{"title":"x"}`, fiber.StatusNotFound, ""},
		{"delete unknown", "DELETE", "/api/v1/tasks/nope", "", fiber.StatusNotFound, ""},
		{"upload unknown", "POST", "/api/v1/tasks/nope/files", `{"file_content":"aGk=","file_name":"a"}`, fiber.StatusNotFound, ""},
		{"upload bad base64", "POST", "/api/v1/tasks/nope/files", `{"file_content":"***","file_name":"a"}`, fiber.StatusBadRequest, "file_content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, tt.method, tt.path, tt.body)
			if status != tt.status {
				t.Fatalf("expected %d, got %d (%v)", tt.status, status, body)
			}
			if tt.field != "" && body["field"] != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, body["field"])
			}
		})
	}
}

func TestStoreUnavailableIs503(t *testing.T) {
	app := newTestApp(t, testConfig(t), &failingRepo{TaskRepository: memory.NewTaskRepository()})
	status, body := do(t, app, "GET", "/api/v1/tasks/any", "")
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d (%v)", status, body)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := testConfig(t)
	cfg.Auth.APIKey = "s3cret"
	app := newTestApp(t, cfg, memory.NewTaskRepository())

	if status, _ := do(t, app, "GET", "/api/v1/tasks", ""); status != fiber.StatusUnauthorized {
		t.Errorf("expected 401 without key, got %d", status)
	}
	if status, _ := do(t, app, "GET", "/api/v1/tasks", "", "X-Api-Key", "s3cret"); status != fiber.StatusOK {
		t.Errorf("expected 200 with header key, got %d", status)
	}
	if status, _ := do(t, app, "GET", "/api/v1/tasks", "", "Authorization", "Bearer s3cret"); status != fiber.StatusOK {
		t.Errorf("expected 200 with bearer key, got %d", status)
	}
	if status, _ := do(t, app, "GET", "/health", ""); status != fiber.StatusOK {
		t.Errorf("health must stay public, got %d", status)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	app := newTestApp(t, testConfig(t), memory.NewTaskRepository())

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := resp.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected echoed id, got %q", got)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}
}
