package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/taskboard/backend/internal/core/ports"
	"github.com/taskboard/backend/internal/domain"
	"github.com/taskboard/backend/internal/infrastructure/logger"
)

const defaultContentType = "application/octet-stream"

type AttachmentService struct {
	tasks ports.TaskService
	blobs ports.BlobStore
	log   *logger.Logger
}

var _ ports.AttachmentService = (*AttachmentService)(nil)

// NewAttachmentService accepts a nil blob store; uploads then fail with
// ErrUploadsDisabled.
func NewAttachmentService(tasks ports.TaskService, blobs ports.BlobStore, log *logger.Logger) *AttachmentService {
	if log == nil {
		log = logger.NewNop()
	}
	return &AttachmentService{tasks: tasks, blobs: blobs, log: log}
}

// Upload stores the decoded content, records its key on the task and
// returns a URL the client can download it from.
func (s *AttachmentService) Upload(ctx context.Context, taskID string, in ports.UploadFileInput) (*ports.UploadedFile, error) {
	if s.blobs == nil {
		return nil, ErrUploadsDisabled
	}
	if strings.TrimSpace(in.FileName) == "" {
		return nil, domain.NewValidationError("file_name", "is required")
	}
	if in.ContentBase64 == "" {
		return nil, domain.NewValidationError("file_content", "is required")
	}
	data, err := base64.StdEncoding.DecodeString(in.ContentBase64)
	if err != nil {
		return nil, domain.NewValidationError("file_content", "must be valid base64")
	}
	contentType := in.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	if _, err := s.tasks.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	key, err := s.blobs.Put(ctx, ports.BlobObject{
		TaskID:      taskID,
		FileName:    in.FileName,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		s.log.Errorw("attachment_put_failed", "task_id", taskID, "file_name", in.FileName, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	task, err := s.tasks.AttachFile(ctx, taskID, key)
	if err != nil {
		// The blob stays behind; there is no cross-store transaction.
		s.log.Errorw("attachment_record_failed", "task_id", taskID, "key", key, "error", err)
		return nil, err
	}

	url, err := s.blobs.URLFor(ctx, key)
	if err != nil {
		s.log.Warnw("attachment_url_failed", "task_id", taskID, "key", key, "error", err)
	}

	s.log.Infow("attachment_upload_success", "task_id", taskID, "key", key, "bytes", len(data))
	return &ports.UploadedFile{
		TaskID:  taskID,
		FileKey: key,
		URL:     url,
		Task:    task,
	}, nil
}
