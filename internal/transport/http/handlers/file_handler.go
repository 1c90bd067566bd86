package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/transport/http/dto"
)

type FileHandler struct {
	attachments ports.AttachmentService
	logger      *logger.Logger
}

func NewFileHandler(attachments ports.AttachmentService, logger *logger.Logger) *FileHandler {
	return &FileHandler{attachments: attachments, logger: logger}
}

func (h *FileHandler) UploadFile(c *fiber.Ctx) error {
	id := c.Params("id")
	var req dto.UploadFileRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, h.logger, "file_upload", err)
	}

	out, err := h.attachments.Upload(c.UserContext(), id, ports.UploadFileInput{
		ContentBase64: req.FileContent,
		FileName:      req.FileName,
		ContentType:   req.ContentType,
	})
	if err != nil {
		return respondError(c, h.logger, "file_upload", err, "id", id, "file_name", req.FileName)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.UploadFileResponse{
		Message: "file uploaded",
		FileURL: out.URL,
		TaskID:  out.TaskID,
		FileKey: out.FileKey,
	})
}
