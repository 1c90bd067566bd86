package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/transport/http/dto"
)

type TaskHandler struct {
	service ports.TaskService
	logger  *logger.Logger
}

func NewTaskHandler(service ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{service: service, logger: logger}
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "task_create", err)
	}
	cmd, err := req.ToCommand()
	if err != nil {
		return respondError(c, h.logger, "task_create", err)
	}

	task, err := h.service.CreateTask(c.UserContext(), cmd)
	if err != nil {
		return respondError(c, h.logger, "task_create", err, "title", req.Title)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.TaskResponse{
		Message: "task created",
		Task:    task,
	})
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	filter, limit, err := dto.ParseListQuery(c.Query("status"), c.Query("priority"), c.Query("tag"), c.Query("limit"))
	if err != nil {
		return respondError(c, h.logger, "task_list", err)
	}

	tasks, err := h.service.ListTasks(c.UserContext(), filter, limit)
	if err != nil {
		return respondError(c, h.logger, "task_list", err)
	}

	h.logger.Debugw("task_list_success", "count", len(tasks))
	return c.JSON(dto.TaskListResponse{
		Message: fmt.Sprintf("%d tasks found", len(tasks)),
		Tasks:   tasks,
		Count:   len(tasks),
	})
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	id := c.Params("id")
	task, err := h.service.GetTask(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, "task_get", err, "id", id)
	}
	return c.JSON(dto.TaskResponse{Message: "task found", Task: task})
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "task_update", err)
	}
	cmd, err := req.ToCommand()
	if err != nil {
		return respondError(c, h.logger, "task_update", err, "id", id)
	}

	task, err := h.service.UpdateTask(c.UserContext(), id, cmd)
	if err != nil {
		return respondError(c, h.logger, "task_update", err, "id", id)
	}
	return c.JSON(dto.TaskResponse{Message: "task updated", Task: task})
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	id := c.Params("id")
	task, err := h.service.DeleteTask(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, "task_delete", err, "id", id)
	}
	return c.JSON(dto.MessageResponse{
		Message: fmt.Sprintf("task '%s' deleted", task.Title),
	})
}
