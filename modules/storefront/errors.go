package storefront

import (
	"errors"
	"net/http"

	"github.com/dpbiotech/configurator/handler"
	"github.com/dpbiotech/configurator/pkg/checkout"
	"github.com/dpbiotech/configurator/pkg/license"
	"github.com/dpbiotech/configurator/pkg/pricing"
	"github.com/dpbiotech/configurator/pkg/validator"
)

var (
	ErrInvalidProduct       = handler.NewHTTPError(http.StatusBadRequest, "invalid_product")
	ErrInvalidQuantity      = handler.NewHTTPError(http.StatusBadRequest, "invalid_quantity")
	ErrEmptyCart            = handler.NewHTTPError(http.StatusBadRequest, "empty_cart")
	ErrMissingRequiredField = handler.NewHTTPError(http.StatusBadRequest, "missing_required_field")
	ErrPaymentProvider      = handler.NewHTTPError(http.StatusBadGateway, "payment_provider_error")
	ErrRateLimited          = handler.NewHTTPError(http.StatusTooManyRequests, "rate_limited")
)

// MapError translates domain errors into handler errors. Errors that are
// already HTTP errors, and unknown errors, are returned unchanged.
func MapError(err error) error {
	var httpErr handler.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	if verrs, ok := validator.As(err); ok {
		ve := handler.NewValidationError()
		for field, messages := range verrs.Fields() {
			for _, msg := range messages {
				ve.Add(field, msg)
			}
		}
		return ve
	}

	var boundary *checkout.BoundaryError
	if errors.As(err, &boundary) {
		e := ErrPaymentProvider
		e.Code = boundary.HTTPStatus()
		return e.Wrap(err)
	}

	switch {
	case errors.Is(err, pricing.ErrInvalidProduct):
		return ErrInvalidProduct.Wrap(err)
	case errors.Is(err, pricing.ErrInvalidQuantity):
		return ErrInvalidQuantity.Wrap(err)
	case errors.Is(err, pricing.ErrEmptyCart):
		return ErrEmptyCart.Wrap(err)
	case errors.Is(err, checkout.ErrMissingRequiredField):
		return ErrMissingRequiredField.Wrap(err)
	case errors.Is(err, checkout.ErrSignatureVerification):
		return handler.ErrBadRequest.Wrap(checkout.ErrSignatureVerification)
	case errors.Is(err, checkout.ErrInvalidWebhookPayload):
		return handler.ErrBadRequest.Wrap(checkout.ErrInvalidWebhookPayload)
	case errors.Is(err, license.ErrNotFound):
		return handler.ErrNotFound.Wrap(license.ErrNotFound)
	case errors.Is(err, license.ErrPersist):
		return handler.ErrInternalServerError.Wrap(err)
	}
	return err
}
