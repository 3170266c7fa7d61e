// Package storefront serves the configurator HTTP API.
//
// Routes:
//
//	POST /create-checkout-session  price a cart and open a hosted checkout
//	POST /quote                    price a cart without contacting the provider
//	GET  /catalog                  the price list
//	GET  /licenses/{serial}        license state of a serial number
//	POST /webhooks/paddle          payment notifications
//	GET  /healthz, /readyz         probes
//	GET  /metrics                  when a metrics handler is configured
//
// Everything else is served from the static directory when one is set.
// Domain errors are translated by MapError into the handler JSON envelope.
package storefront
