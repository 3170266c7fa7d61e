// Package binder decodes HTTP requests into typed request structs for
// handler.Wrap.
//
//	type lookupRequest struct {
//		Serial string `path:"serial"`
//	}
//
//	r.Get("/licenses/{serial}", handler.Wrap(lookup,
//		handler.WithBinders[handler.Context, lookupRequest](binder.Path(chi.URLParam)),
//	))
//
// JSON is strict: unknown fields and trailing data are errors.
package binder
