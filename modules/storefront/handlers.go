package storefront

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dpbiotech/configurator/handler"
	"github.com/dpbiotech/configurator/pkg/binder"
	"github.com/dpbiotech/configurator/pkg/checkout"
	"github.com/dpbiotech/configurator/pkg/license"
	"github.com/dpbiotech/configurator/pkg/logger"
	"github.com/dpbiotech/configurator/pkg/pricing"
	"github.com/dpbiotech/configurator/pkg/validator"
)

type quoteRequest struct {
	Items []pricing.LineItem `json:"items"`
}

type quoteLine struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitAmount int64  `json:"unit_amount"`
	Amount     int64  `json:"amount"`
}

type quoteResponse struct {
	Currency string      `json:"currency"`
	Lines    []quoteLine `json:"lines"`
	Total    int64       `json:"total"`
	Features []string    `json:"features,omitempty"`
}

type licenseRequest struct {
	Serial string `path:"serial"`
}

type licenseResponse struct {
	Serial         string   `json:"serial"`
	Status         string   `json:"status"`
	ActivationDate string   `json:"activation_date,omitempty"`
	ExpirationDate string   `json:"expiration_date,omitempty"`
	Features       []string `json:"features"`
}

type webhookResponse struct {
	Received bool `json:"received"`
}

func (m *Module) createCheckoutSession() http.HandlerFunc {
	return handler.Wrap(
		func(ctx handler.Context, req checkout.Order) handler.Response {
			if err := validateOrder(req); err != nil {
				return errorResponse(err)
			}
			link, err := m.checkout.CreateCheckout(ctx, req)
			if err != nil {
				return errorResponse(err)
			}
			return handler.JSON(link)
		},
		handler.WithBinders[checkout.Order](binder.JSONWithLimit(m.maxBodySize)),
		handler.WithErrorHandler[checkout.Order](m.errorHandler),
	)
}

func (m *Module) quote() http.HandlerFunc {
	return handler.Wrap(
		func(_ handler.Context, req quoteRequest) handler.Response {
			if err := validator.Apply(validateCart(req.Items)...); err != nil {
				return errorResponse(err)
			}
			q, err := m.engine.Quote(req.Items)
			if err != nil {
				return errorResponse(err)
			}
			return handler.JSON(newQuoteResponse(q))
		},
		handler.WithBinders[quoteRequest](binder.JSONWithLimit(m.maxBodySize)),
		handler.WithErrorHandler[quoteRequest](m.errorHandler),
	)
}

func (m *Module) catalog() http.HandlerFunc {
	return handler.Wrap(
		func(_ handler.Context, _ struct{}) handler.Response {
			return handler.JSON(m.engine.Catalog())
		},
		handler.WithErrorHandler[struct{}](m.errorHandler),
	)
}

func (m *Module) getLicense() http.HandlerFunc {
	return handler.Wrap(
		func(_ handler.Context, req licenseRequest) handler.Response {
			rec, err := m.licenses.Get(req.Serial)
			if err != nil {
				return errorResponse(err)
			}
			return handler.JSON(newLicenseResponse(rec))
		},
		handler.WithBinders[licenseRequest](binder.Path(chi.URLParam)),
		handler.WithErrorHandler[licenseRequest](m.errorHandler),
	)
}

// paddleWebhook passes the raw body to the checkout service: the signature
// covers the exact bytes received.
func (m *Module) paddleWebhook() http.HandlerFunc {
	return handler.Wrap(
		func(ctx handler.Context, _ struct{}) handler.Response {
			r := ctx.Request()
			body, err := io.ReadAll(http.MaxBytesReader(ctx.ResponseWriter(), r.Body, m.maxBodySize))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					return errorResponse(handler.NewHTTPError(http.StatusRequestEntityTooLarge, "request_too_large"))
				}
				return errorResponse(handler.ErrBadRequest.Wrap(fmt.Errorf("read body: %w", err)))
			}

			signature := strings.TrimSpace(r.Header.Get(PaddleSignatureHeader))
			if err := m.checkout.HandleWebhook(ctx, body, signature); err != nil {
				m.logger.WarnContext(ctx, "paddle webhook failed",
					logger.Component("storefront"),
					logger.Error(err),
				)
				return errorResponse(err)
			}
			return handler.JSON(webhookResponse{Received: true})
		},
		handler.WithErrorHandler[struct{}](m.errorHandler),
	)
}

// errorResponse defers rendering to the module error handler so that every
// failure is logged once with the request id.
func errorResponse(err error) handler.Response {
	return failed{err: err}
}

type failed struct{ err error }

func (f failed) Render(http.ResponseWriter, *http.Request) error { return f.err }

func newQuoteResponse(q pricing.Quote) quoteResponse {
	resp := quoteResponse{
		Currency: q.Currency,
		Lines:    make([]quoteLine, 0, len(q.Lines)),
		Total:    q.Total,
		Features: q.Features(),
	}
	for _, l := range q.Lines {
		resp.Lines = append(resp.Lines, quoteLine{
			ID:         l.Product.ID,
			Name:       l.Product.Name,
			Quantity:   l.Quantity,
			UnitAmount: l.UnitAmount,
			Amount:     l.Amount,
		})
	}
	return resp
}

func newLicenseResponse(rec license.Record) licenseResponse {
	resp := licenseResponse{
		Serial:   rec.Serial,
		Status:   string(rec.Status),
		Features: rec.Features.Sorted(),
	}
	if resp.Features == nil {
		resp.Features = []string{}
	}
	if !rec.ActivationDate.IsZero() {
		resp.ActivationDate = rec.ActivationDate.Format(license.DateLayout)
	}
	if !rec.Expires.IsZero() {
		resp.ExpirationDate = rec.Expires.Format(license.DateLayout)
	}
	return resp
}
