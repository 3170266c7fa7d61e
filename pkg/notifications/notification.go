package notifications

import (
	"time"

	"github.com/dpbiotech/configurator/pkg/license"
)

// EventLicenseActivated is the outbound webhook event type.
const EventLicenseActivated = "license.activated"

// Activation tells the outside world that a license became valid.
type Activation struct {
	Record        license.Record
	Email         string
	TransactionID string
	EventID       string
}

// Payload is the JSON body of the outbound activation webhook.
type Payload struct {
	Serial         string   `json:"serial"`
	Status         string   `json:"status"`
	ActivationDate string   `json:"activation_date"`
	Expires        string   `json:"expiration_date"`
	Features       []string `json:"features"`
	Email          string   `json:"email,omitempty"`
	TransactionID  string   `json:"transaction_id,omitempty"`
	ProviderEvent  string   `json:"provider_event_id,omitempty"`
}

// NewPayload flattens an activation into its wire form.
func NewPayload(a Activation) Payload {
	return Payload{
		Serial:         a.Record.Serial,
		Status:         string(a.Record.Status),
		ActivationDate: formatDate(a.Record.ActivationDate),
		Expires:        formatDate(a.Record.Expires),
		Features:       a.Record.Features.Sorted(),
		Email:          a.Email,
		TransactionID:  a.TransactionID,
		ProviderEvent:  a.EventID,
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(license.DateLayout)
}
