// Package logger builds *slog.Logger instances and names the attributes the
// service logs.
//
// New applies Option functions on top of a JSON/info default.
// WithEnvironment selects the development or production preset, and
// WithContextExtractors injects request-scoped values such as the request id
// into every record logged with a context:
//
//	log := logger.New(
//		logger.WithEnvironment(environment.Production, "configurator"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "license activated", logger.Serial(rec.Serial), logger.Features(rec.Features.Sorted()))
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
