package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrUploadFailed      = errors.New("image upload failed")
	ErrValidation        = errors.New("validation failed")
	ErrLoadFailed        = errors.New("failed to load projects")
	ErrPersistenceFailed = errors.New("failed to persist projects")
	ErrProjectNotFound   = errors.New("project not found")
)

var (
	ErrImageRequired = fmt.Errorf("%w: an image upload or image URL is required", ErrValidation)
	ErrTitleRequired = fmt.Errorf("%w: title is required", ErrValidation)
)
