package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/taskboard/backend/internal/core/services"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
	"github.com/taskboard/backend/internal/transport/http/dto"
)

// respondError maps service errors onto status codes. event is the log
// event prefix of the calling handler.
func respondError(c *fiber.Ctx, log *logger.Logger, event string, err error, keysAndValues ...any) error {
	kv := append([]any{"error", err}, keysAndValues...)

	if ve, ok := domain.IsValidation(err); ok {
		log.Warnw(event+"_invalid", kv...)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: ve.Error(),
			Field: ve.Field,
		})
	}

	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		log.Warnw(event+"_not_found", kv...)
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "task not found"})
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Errorw(event+"_store_unavailable", kv...)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: "task store unavailable"})
	case errors.Is(err, services.ErrUploadsDisabled):
		log.Warnw(event+"_disabled", kv...)
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrUploadFailed):
		log.Errorw(event+"_upload_failed", kv...)
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "file upload failed"})
	default:
		log.Errorw(event+"_failed", kv...)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}
}

func badBody(c *fiber.Ctx, log *logger.Logger, event string, err error) error {
	log.Warnw(event+"_body_parse_failed", "error", err)
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: "invalid request body",
	})
}
