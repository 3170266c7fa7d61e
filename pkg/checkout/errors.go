package checkout

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrMissingRequiredField  = errors.New("missing required field")
	ErrSignatureVerification = errors.New("webhook signature verification failed")
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")
	ErrNoCheckoutURL         = errors.New("no checkout URL returned from provider")

	ErrMissingAPIKey              = errors.New("payment provider API key is required")
	ErrMissingWebhookSecret       = errors.New("payment provider webhook secret is required")
	ErrInvalidProviderEnvironment = errors.New("invalid payment provider environment")
)

// BoundaryError is a failed call to the payment provider.
// StatusCode is 0 when the provider gave no HTTP status.
type BoundaryError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *BoundaryError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("payment provider error (%d): %s", e.StatusCode, e.Message)
	}
	return "payment provider error: " + e.Message
}

func (e *BoundaryError) Unwrap() error {
	return e.Err
}

// HTTPStatus is the status to surface to the caller: the provider's 4xx status
// when it rejected the request, 502 otherwise.
func (e *BoundaryError) HTTPStatus() int {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return e.StatusCode
	}
	return http.StatusBadGateway
}
