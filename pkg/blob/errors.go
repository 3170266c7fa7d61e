package blob

import "errors"

var (
	ErrNotFound      = errors.New("blob not found")
	ErrInvalidKey    = errors.New("invalid blob key") // Prevents path traversal
	ErrInvalidConfig = errors.New("invalid blob storage configuration")

	ErrFailedToRead  = errors.New("failed to read blob")
	ErrFailedToWrite = errors.New("failed to write blob")

	// S3-specific errors for proper error classification
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
	ErrFailedToLoadConfig = errors.New("failed to load AWS config")

	ErrOperationTimeout  = errors.New("operation timed out")
	ErrOperationCanceled = errors.New("operation canceled")
)
