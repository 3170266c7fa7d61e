package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dpbiotech/configurator/pkg/license"
	"github.com/dpbiotech/configurator/pkg/logger"
	"github.com/dpbiotech/configurator/pkg/pricing"
)

// MaxDescriptionLength bounds a line description in runes.
const MaxDescriptionLength = 500

// DefaultDescription is used when an order carries no description.
const DefaultDescription = "Customized configuration"

// Order is a customer cart as received from the storefront. It carries no
// amounts.
type Order struct {
	Items       []pricing.LineItem `json:"items"`
	Email       string             `json:"email"`
	Serial      string             `json:"serial,omitempty"`
	Description string             `json:"description,omitempty"`
}

// Activator applies a paid activation to a license.
type Activator interface {
	ApplyActivation(ctx context.Context, a license.Activation) (license.Record, error)
}

// ActivationHook runs after a license was activated and persisted.
type ActivationHook func(ctx context.Context, rec license.Record, event *Event)

// Service turns orders into checkout sessions and payment webhooks into
// license activations.
type Service struct {
	engine     *pricing.Engine
	provider   Provider
	activator  Activator
	successURL string
	logger     *slog.Logger
	hooks      []ActivationHook
	observer   Observer
}

// Observer receives service outcomes, typically for metrics.
type Observer interface {
	CheckoutCreated(amount int64, currency string)
	CheckoutFailed(reason string)
	WebhookRejected(reason string)
	LicenseActivated()
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithSuccessURL sets where the customer lands after paying.
func WithSuccessURL(url string) ServiceOption {
	return func(s *Service) {
		s.successURL = url
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithActivationHook registers a hook called after each activation.
func WithActivationHook(h ActivationHook) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.hooks = append(s.hooks, h)
		}
	}
}

// WithObserver sets the outcome observer.
func WithObserver(o Observer) ServiceOption {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewService wires the checkout flow. Panics if a dependency is nil.
func NewService(engine *pricing.Engine, provider Provider, activator Activator, opts ...ServiceOption) *Service {
	if engine == nil {
		panic("checkout: pricing engine is required")
	}
	if provider == nil {
		panic("checkout: provider is required")
	}
	if activator == nil {
		panic("checkout: activator is required")
	}

	s := &Service{
		engine:    engine,
		provider:  provider,
		activator: activator,
		logger:    slog.Default(),
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prepare validates and prices an order and builds the provider session.
// An order that buys feature licenses must name a serial. No provider call is
// made.
func (s *Service) Prepare(o Order) (Session, pricing.Quote, error) {
	if len(o.Items) == 0 {
		return Session{}, pricing.Quote{}, fmt.Errorf("%w: items", ErrMissingRequiredField)
	}
	email := strings.TrimSpace(o.Email)
	if email == "" {
		return Session{}, pricing.Quote{}, fmt.Errorf("%w: email", ErrMissingRequiredField)
	}

	quote, err := s.engine.Quote(o.Items)
	if err != nil {
		return Session{}, pricing.Quote{}, err
	}

	// Features are bound to a serial; without one the payment activates nothing.
	serial := license.NormalizeSerial(o.Serial)
	features := quote.Features()
	if len(features) > 0 && serial == "" {
		return Session{}, pricing.Quote{}, fmt.Errorf("%w: serial", ErrMissingRequiredField)
	}

	description := truncate(strings.TrimSpace(o.Description), MaxDescriptionLength)
	if description == "" {
		description = DefaultDescription
	}

	session := Session{
		Currency:   quote.Currency,
		Lines:      make([]Line, 0, len(quote.Lines)),
		Email:      email,
		SuccessURL: s.successURL,
		Metadata:   map[string]string{MetaCustomerEmail: email},
	}

	for _, l := range quote.Lines {
		_, digital := l.Product.Feature()
		session.Lines = append(session.Lines, Line{
			Name:        s.lineName(l.Product),
			Description: description,
			UnitAmount:  l.UnitAmount,
			Quantity:    l.Quantity,
			Digital:     digital,
		})
	}

	if serial != "" {
		session.Metadata[MetaSerial] = serial
	}
	if len(features) > 0 {
		session.Metadata[MetaFeatures] = strings.Join(features, ",")
	}

	return session, quote, nil
}

// CreateCheckout prices the order and opens a checkout with the provider.
// Validation errors are returned before the provider is called. Provider
// failures are returned as *BoundaryError.
func (s *Service) CreateCheckout(ctx context.Context, o Order) (*Link, error) {
	session, quote, err := s.Prepare(o)
	if err != nil {
		s.observer.CheckoutFailed(failureReason(err))
		return nil, err
	}

	link, err := s.provider.CreateCheckout(ctx, session)
	if err != nil {
		s.observer.CheckoutFailed("provider")
		var be *BoundaryError
		if !errors.As(err, &be) {
			be = &BoundaryError{Message: err.Error(), Err: err}
		}
		s.logger.ErrorContext(ctx, "checkout session failed",
			logger.Component("checkout"),
			logger.Amount(quote.Total),
			logger.Error(err),
		)
		return nil, be
	}

	s.observer.CheckoutCreated(quote.Total, quote.Currency)
	s.logger.InfoContext(ctx, "checkout session created",
		logger.Component("checkout"),
		logger.Serial(session.Metadata[MetaSerial]),
		logger.Amount(quote.Total),
		slog.String("checkout_id", link.ID),
	)

	return link, nil
}

// HandleWebhook verifies a provider delivery and activates the license it
// names. Signature failures are logged and returned as
// ErrSignatureVerification without detail. Events other than a completed
// transaction, completed transactions without a serial, and payments for a
// license that cannot be activated (revoked) are acknowledged and ignored.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, ErrSignatureVerification) {
			s.observer.WebhookRejected("signature")
			s.logger.WarnContext(ctx, "webhook rejected",
				logger.Component("checkout"),
				logger.Error(err),
			)
			return ErrSignatureVerification
		}
		s.observer.WebhookRejected("payload")
		return err
	}

	if !event.Completed() {
		s.logger.DebugContext(ctx, "webhook ignored",
			logger.Component("checkout"),
			logger.EventType(event.Type),
		)
		return nil
	}

	serial := license.NormalizeSerial(event.Metadata[MetaSerial])
	if serial == "" {
		s.logger.InfoContext(ctx, "completed transaction without serial",
			logger.Component("checkout"),
			slog.String("transaction_id", event.TransactionID),
		)
		return nil
	}

	rec, err := s.activator.ApplyActivation(ctx, license.Activation{
		Serial:     serial,
		Features:   license.ParseFeatures(event.Metadata[MetaFeatures]),
		OccurredAt: event.OccurredAt,
	})
	if errors.Is(err, license.ErrTransitionNotAllowed) {
		// Redelivery cannot change the outcome, so the event is acknowledged.
		s.observer.WebhookRejected("license_state")
		s.logger.WarnContext(ctx, "payment for non-activatable license acknowledged",
			logger.Component("checkout"),
			logger.Serial(serial),
			logger.MessageID(event.ID),
			slog.String("transaction_id", event.TransactionID),
			logger.Error(err),
		)
		return nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "license activation failed",
			logger.Component("checkout"),
			logger.Serial(serial),
			logger.MessageID(event.ID),
			logger.Error(err),
		)
		return err
	}

	s.observer.LicenseActivated()
	for _, h := range s.hooks {
		h(ctx, rec, event)
	}

	return nil
}

func (s *Service) lineName(p pricing.Product) string {
	if fam, ok := s.engine.Catalog().Family(p.Family); ok && fam.Label != "" {
		return fam.Label + " — Custom Config"
	}
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, pricing.ErrInvalidProduct):
		return "invalid_product"
	case errors.Is(err, ErrMissingRequiredField):
		return "missing_required_field"
	default:
		return "invalid_order"
	}
}

type nopObserver struct{}

func (nopObserver) CheckoutCreated(int64, string) {}
func (nopObserver) CheckoutFailed(string)         {}
func (nopObserver) WebhookRejected(string)        {}
func (nopObserver) LicenseActivated()             {}
