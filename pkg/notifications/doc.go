// Package notifications tells customers and downstream systems that a
// license was activated.
//
// A Dispatcher runs every Deliverer concurrently after the license store has
// persisted the transition. EmailDeliverer sends the customer a confirmation,
// WebhookDeliverer posts a signed license.activated event. Failures are
// logged only: the license stays activated.
//
//	d := notifications.NewDispatcher([]notifications.Deliverer{
//		notifications.NewEmailDeliverer(mailer, cfg.SupportEmail),
//		notifications.NewWebhookDeliverer(sender, cfg.WebhookURL),
//	}, notifications.WithLogger(log))
//	svc := checkout.NewService(engine, provider, store, checkout.WithActivationHook(d.Hook()))
//	...
//	_ = d.Wait(shutdownCtx)
package notifications
