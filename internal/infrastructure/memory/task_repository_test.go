package memory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/taskboard/backend/internal/domain"
	"golang.org/x/sync/errgroup"
)

func newTask(id string, created time.Time, status domain.TaskStatus, tags ...string) *domain.Task {
	if tags == nil {
		tags = []string{}
	}
	return &domain.Task{
		ID:        id,
		Title:     "task " + id,
		Status:    status,
		Priority:  domain.TaskPriorityMedium,
		Tags:      tags,
		Files:     []string{},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestPutGet_RoundTrip(t *testing.T) {
	repo := NewTaskRepository()
	ctx := context.Background()
	due := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	desc := "details"
	task := newTask("a", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), domain.TaskStatusPending)
	task.Description = &desc
	task.DueDate = &due

	if err := repo.Put(ctx, task); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := repo.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !reflect.DeepEqual(got, task) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, task)
	}

	got.Title = "mutated"
	again, _ := repo.GetByID(ctx, "a")
	if again.Title == "mutated" {
		t.Error("GetByID must return a copy")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewTaskRepository()
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestList_FilterAndOrder(t *testing.T) {
	repo := NewTaskRepository()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.Put(ctx, newTask("old", base, domain.TaskStatusPending, "x"))
	repo.Put(ctx, newTask("done", base.Add(time.Hour), domain.TaskStatusCompleted))
	repo.Put(ctx, newTask("new", base.Add(2*time.Hour), domain.TaskStatusPending))

	pending := domain.TaskStatusPending
	got, err := repo.List(ctx, domain.ListFilter{Status: &pending}, 50)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "old" {
		t.Fatalf("expected [new old], got %v", ids(got))
	}

	tag := "x"
	got, _ = repo.List(ctx, domain.ListFilter{Status: &pending, Tag: &tag}, 50)
	if len(got) != 1 || got[0].ID != "old" {
		t.Fatalf("expected [old], got %v", ids(got))
	}
}

func TestList_LimitBoundsScan(t *testing.T) {
	repo := NewTaskRepository()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.Put(ctx, newTask("c1", base, domain.TaskStatusCompleted))
	repo.Put(ctx, newTask("p1", base, domain.TaskStatusPending))
	repo.Put(ctx, newTask("p2", base, domain.TaskStatusPending))

	pending := domain.TaskStatusPending
	got, _ := repo.List(ctx, domain.ListFilter{Status: &pending}, 2)
	if len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("limit applies to scanned records, expected [p1], got %v", ids(got))
	}
}

func TestList_DefaultsAndCapsLimit(t *testing.T) {
	repo := NewTaskRepository()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < domain.MaxListLimit+5; i++ {
		repo.Put(ctx, newTask(fmt.Sprintf("t%04d", i), base.Add(time.Duration(i)*time.Second), domain.TaskStatusPending))
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, domain.DefaultListLimit},
		{-1, domain.DefaultListLimit},
		{7, 7},
		{domain.MaxListLimit + 500, domain.MaxListLimit},
	}
	for _, tt := range tests {
		got, err := repo.List(ctx, domain.ListFilter{}, tt.limit)
		if err != nil {
			t.Fatalf("List(%d): %v", tt.limit, err)
		}
		if len(got) != tt.want {
			t.Errorf("List(%d) returned %d tasks, want %d", tt.limit, len(got), tt.want)
		}
	}
}

func TestUpdate_SetsOnlyPresentFields(t *testing.T) {
	tick := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewTaskRepositoryWithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})
	ctx := context.Background()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.Put(ctx, newTask("a", created, domain.TaskStatusPending, "t"))

	done := domain.TaskStatusCompleted
	got, err := repo.Update(ctx, "a", domain.FieldSet{Status: &done})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != done || got.Title != "task a" || got.Tags[0] != "t" {
		t.Errorf("unexpected update result: %+v", got)
	}
	if !got.UpdatedAt.After(created) || !got.CreatedAt.Equal(created) {
		t.Errorf("timestamps: created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}

	if _, err := repo.Update(ctx, "missing", domain.FieldSet{Status: &done}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestDelete_Idempotent(t *testing.T) {
	repo := NewTaskRepository()
	ctx := context.Background()
	repo.Put(ctx, newTask("a", time.Now(), domain.TaskStatusPending))

	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if repo.Len() != 0 {
		t.Errorf("expected empty repo, got %d", repo.Len())
	}
}

func TestAppendFile_Concurrent(t *testing.T) {
	repo := NewTaskRepository()
	ctx := context.Background()
	repo.Put(ctx, newTask("a", time.Now(), domain.TaskStatusPending))

	const n = 64
	var g errgroup.Group
	for i := 0; i < n; i++ {
		ref := fmt.Sprintf("tasks/a/files/%d", i)
		g.Go(func() error { return repo.AppendFile(ctx, "a", ref) })
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("AppendFile: %v", err)
	}

	got, _ := repo.GetByID(ctx, "a")
	if len(got.Files) != n {
		t.Fatalf("expected %d files, got %d", n, len(got.Files))
	}
	seen := make(map[string]bool, n)
	for _, f := range got.Files {
		seen[f] = true
	}
	if len(seen) != n {
		t.Errorf("lost appends: %d distinct of %d", len(seen), n)
	}
}

func TestAppendFile_Order(t *testing.T) {
	repo := NewTaskRepository()
	ctx := context.Background()
	repo.Put(ctx, newTask("a", time.Now(), domain.TaskStatusPending))
	repo.AppendFile(ctx, "a", "a")
	repo.AppendFile(ctx, "a", "b")

	got, _ := repo.GetByID(ctx, "a")
	if !reflect.DeepEqual(got.Files, []string{"a", "b"}) {
		t.Errorf("expected [a b], got %v", got.Files)
	}
	if err := repo.AppendFile(ctx, "missing", "x"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func ids(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
