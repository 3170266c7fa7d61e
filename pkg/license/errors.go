package license

import "errors"

var (
	ErrNotFound             = errors.New("license not found")
	ErrInvalidSerial        = errors.New("invalid serial number")
	ErrTransitionNotAllowed = errors.New("license transition not allowed")
	ErrPersist              = errors.New("failed to persist license snapshot")
	ErrFailedToLoad         = errors.New("failed to load license snapshot")
	ErrInvalidSnapshot      = errors.New("invalid license snapshot")
)
