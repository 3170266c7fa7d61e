package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	BaseURL       string `env:"PADDLE_BASE_URL"`
}

// PaddleProvider implements Provider with Paddle Billing transactions.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a Paddle client. BaseURL overrides the API host
// selected by Environment.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var opts []paddle.Option
	if cfg.BaseURL != "" {
		opts = append(opts, paddle.WithBaseURL(cfg.BaseURL))
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey, opts...)
	case "production", "":
		client, err = paddle.New(cfg.APIKey, opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidProviderEnvironment, cfg.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
	}, nil
}

// CreateCheckout creates a transaction with non-catalog items priced at the
// session amounts and returns its hosted checkout URL.
func (p *PaddleProvider) CreateCheckout(ctx context.Context, s Session) (*Link, error) {
	currency := paddle.CurrencyCode(strings.ToUpper(s.Currency))

	items := make([]paddle.CreateTransactionItems, 0, len(s.Lines))
	for _, l := range s.Lines {
		taxCategory := paddle.TaxCategoryStandard
		if l.Digital {
			taxCategory = paddle.TaxCategoryDigitalGoods
		}

		item := paddle.NewCreateTransactionItemsTransactionItemCreateWithProduct(&paddle.TransactionItemCreateWithProduct{
			Price: paddle.TransactionPriceCreateWithProduct{
				Description: l.Description,
				Name:        paddle.PtrTo(l.Name),
				UnitPrice: paddle.Money{
					Amount:       strconv.FormatInt(l.UnitAmount, 10),
					CurrencyCode: currency,
				},
				Quantity: paddle.PriceQuantity{Minimum: 1, Maximum: max(l.Quantity, 1)},
				Product: paddle.TransactionSubscriptionProductCreate{
					Name:        l.Name,
					Description: paddle.PtrTo(l.Description),
					TaxCategory: taxCategory,
				},
			},
			Quantity: l.Quantity,
		})
		items = append(items, *item)
	}

	customData := paddle.CustomData{}
	for k, v := range s.Metadata {
		customData[k] = v
	}

	req := &paddle.CreateTransactionRequest{
		Items:        items,
		CustomData:   customData,
		CurrencyCode: paddle.PtrTo(currency),
	}
	if s.SuccessURL != "" {
		req.Checkout = &paddle.TransactionCheckout{URL: paddle.PtrTo(s.SuccessURL)}
	}

	txn, err := p.client.TransactionsClient.CreateTransaction(ctx, req)
	if err != nil {
		return nil, &BoundaryError{Message: err.Error(), Err: err}
	}
	if txn.Checkout == nil || txn.Checkout.URL == nil || *txn.Checkout.URL == "" {
		return nil, &BoundaryError{Message: ErrNoCheckoutURL.Error(), Err: ErrNoCheckoutURL}
	}

	return &Link{URL: *txn.Checkout.URL, ID: txn.ID}, nil
}

// ParseWebhook verifies the Paddle-Signature header and decodes the event.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*Event, error) {
	if signature == "" {
		return nil, fmt.Errorf("%w: missing signature", ErrSignatureVerification)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhooks/paddle", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrSignatureVerification, err)
	}
	if !valid {
		return nil, ErrSignatureVerification
	}

	return decodePaddleEvent(payload)
}

type paddleEvent struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	OccurredAt string `json:"occurred_at"`
	Data       struct {
		ID         string         `json:"id"`
		CustomData map[string]any `json:"custom_data"`
	} `json:"data"`
}

func decodePaddleEvent(payload []byte) (*Event, error) {
	var raw paddleEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}
	if raw.EventType == "" {
		return nil, fmt.Errorf("%w: missing event_type", ErrInvalidWebhookPayload)
	}

	event := &Event{
		ID:            raw.EventID,
		Type:          raw.EventType,
		TransactionID: raw.Data.ID,
		Metadata:      make(map[string]string, len(raw.Data.CustomData)),
	}

	if raw.OccurredAt != "" {
		t, err := time.Parse(time.RFC3339Nano, raw.OccurredAt)
		if err != nil {
			return nil, fmt.Errorf("%w: occurred_at: %w", ErrInvalidWebhookPayload, err)
		}
		event.OccurredAt = t
	}

	for k, v := range raw.Data.CustomData {
		switch v := v.(type) {
		case string:
			event.Metadata[k] = v
		case []any:
			parts := make([]string, 0, len(v))
			for _, p := range v {
				parts = append(parts, fmt.Sprint(p))
			}
			event.Metadata[k] = strings.Join(parts, ",")
		case nil:
		default:
			event.Metadata[k] = fmt.Sprint(v)
		}
	}

	return event, nil
}
