package notifications

import (
	"context"
	"fmt"

	"github.com/dpbiotech/configurator/pkg/email"
	"github.com/dpbiotech/configurator/pkg/webhook"
)

// Deliverer sends an activation through one channel.
type Deliverer interface {
	Deliver(ctx context.Context, a Activation) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, a Activation) error

func (f DelivererFunc) Deliver(ctx context.Context, a Activation) error { return f(ctx, a) }

// EmailDeliverer mails the customer a confirmation.
type EmailDeliverer struct {
	sender       email.EmailSender
	supportEmail string
}

func NewEmailDeliverer(sender email.EmailSender, supportEmail string) *EmailDeliverer {
	return &EmailDeliverer{sender: sender, supportEmail: supportEmail}
}

// Deliver skips activations without a customer address.
func (d *EmailDeliverer) Deliver(ctx context.Context, a Activation) error {
	if a.Email == "" {
		return nil
	}

	p := NewPayload(a)
	params, err := email.ActivationEmail(a.Email, email.ActivationData{
		Serial:         p.Serial,
		ActivationDate: p.ActivationDate,
		Expires:        p.Expires,
		Features:       p.Features,
		SupportEmail:   d.supportEmail,
	})
	if err != nil {
		return err
	}
	if err := d.sender.SendEmail(ctx, params); err != nil {
		return fmt.Errorf("activation email for %s: %w", p.Serial, err)
	}
	return nil
}

// WebhookDeliverer posts a signed license.activated event to a fixed URL.
type WebhookDeliverer struct {
	sender *webhook.Sender
	url    string
}

func NewWebhookDeliverer(sender *webhook.Sender, url string) *WebhookDeliverer {
	return &WebhookDeliverer{sender: sender, url: url}
}

func (d *WebhookDeliverer) Deliver(ctx context.Context, a Activation) error {
	return d.sender.Send(ctx, d.url, webhook.NewEvent(EventLicenseActivated, NewPayload(a)))
}

// NoOpDeliverer drops every activation.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Deliver(context.Context, Activation) error { return nil }
