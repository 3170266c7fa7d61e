package handler

import (
	"log/slog"
	"net/http"

	"github.com/dpbiotech/configurator/pkg/environment"
	"github.com/dpbiotech/configurator/pkg/logger"
	"github.com/dpbiotech/configurator/pkg/requestid"
)

// ErrorMapper translates domain errors into HTTPError or ValidationError.
// It returns err unchanged when it has no mapping.
type ErrorMapper func(err error) error

// ErrorHandlerOption configures NewErrorHandler.
type ErrorHandlerOption func(*errorHandlerConfig)

type errorHandlerConfig struct {
	mappers []ErrorMapper
}

// WithErrorMapper adds a mapper. Mappers run in order.
func WithErrorMapper(m ErrorMapper) ErrorHandlerOption {
	return func(c *errorHandlerConfig) {
		if m != nil {
			c.mappers = append(c.mappers, m)
		}
	}
}

// NewErrorHandler returns an error handler that logs the failure with the
// request id and renders the JSON error envelope. Client errors log at warn,
// everything else at error. In development the cause of a 5xx error is exposed
// as meta.debug.
func NewErrorHandler(log *slog.Logger, opts ...ErrorHandlerOption) ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	cfg := &errorHandlerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(ctx Context, err error) {
		for _, m := range cfg.mappers {
			err = m(err)
		}

		r := ctx.Request()
		status := StatusOf(err)
		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}

		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("error_handler"),
		)

		var renderOpts []JSONOption
		if status >= http.StatusInternalServerError && environment.FromContext(r.Context()).IsDevelopment() {
			renderOpts = append(renderOpts, WithJSONMeta(map[string]any{"debug": err.Error()}))
		}

		if renderErr := JSONError(err, renderOpts...).Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.LogAttrs(r.Context(), slog.LevelError, "failed to render error response",
				logger.Error(renderErr),
				logger.Component("error_handler"),
			)
		}
	}
}
