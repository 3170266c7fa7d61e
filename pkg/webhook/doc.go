// Package webhook publishes signed JSON events to HTTP endpoints.
//
// A Sender POSTs an Event envelope, signs it with HMAC-SHA256 when a secret is
// configured, retries transient failures with exponential backoff and stops
// calling an endpoint that keeps failing through a CircuitBreaker.
//
//	sender := webhook.NewSender(
//		webhook.WithSecret(os.Getenv("LICENSE_WEBHOOK_SECRET")),
//		webhook.WithMaxRetries(3),
//	)
//	err := sender.Send(ctx, "https://crm.example.com/hooks", webhook.NewEvent("license.activated", payload))
//
// Receivers verify deliveries with SignatureFromHeader and Verify.
// Responses with a 4xx status other than 408 and 429 are permanent failures
// and are not retried.
package webhook
