// Package handler provides typed HTTP handlers with a JSON envelope.
//
// A HandlerFunc receives a bound request struct and returns a Response:
//
//	type quoteRequest struct {
//		Items []pricing.LineItem `json:"items"`
//	}
//
//	func quote(ctx handler.Context, req quoteRequest) handler.Response {
//		q, err := engine.Quote(req.Items)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(q)
//	}
//
//	r.Post("/quote", handler.Wrap(quote,
//		handler.WithBinders[quoteRequest](binder.JSON()),
//		handler.WithErrorHandler[quoteRequest](errorHandler),
//	))
//
// Every body has the shape {"data": ..., "meta": ..., "error": {"code", "message"}}.
// Errors carry their status through HTTPError; NewErrorHandler accepts
// ErrorMapper functions that translate domain sentinels into HTTPError values.
package handler
