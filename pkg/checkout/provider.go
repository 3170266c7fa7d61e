package checkout

import (
	"context"
	"time"
)

// Provider is the payment collaborator. Implementations must verify webhook
// signatures before returning an event.
type Provider interface {
	// CreateCheckout opens a hosted checkout for the session and returns the
	// URL the customer is redirected to.
	CreateCheckout(ctx context.Context, s Session) (*Link, error)

	// ParseWebhook verifies and decodes a webhook delivery. Verification
	// failures wrap ErrSignatureVerification.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error)
}

// Session is a checkout request whose amounts were computed server-side.
type Session struct {
	Currency   string
	Lines      []Line
	Email      string
	SuccessURL string
	Metadata   map[string]string
}

// Line is one priced entry of a session. UnitAmount is in minor units.
type Line struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int
	Digital     bool
}

// Link is an opened checkout.
type Link struct {
	URL string `json:"url"`
	ID  string `json:"id,omitempty"`
}

// Event types handled by the service.
const (
	EventTransactionCompleted = "transaction.completed"
)

// Metadata keys attached to a checkout and echoed back in webhooks.
const (
	MetaSerial        = "serial"
	MetaFeatures      = "features"
	MetaCustomerEmail = "customer_email"
)

// Event is a verified webhook delivery.
type Event struct {
	ID            string
	Type          string
	OccurredAt    time.Time
	TransactionID string
	Metadata      map[string]string
}

// Completed reports whether the event confirms a payment.
func (e *Event) Completed() bool {
	return e != nil && e.Type == EventTransactionCompleted
}
