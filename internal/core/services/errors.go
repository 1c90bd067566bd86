package services

import "errors"

// Attachment errors
var (
	ErrUploadsDisabled = errors.New("attachment: blob storage is not configured")
	ErrUploadFailed    = errors.New("attachment: upload failed")
)

// Processor errors
var (
	ErrInvalidMessage = errors.New("processor: invalid message")
)
