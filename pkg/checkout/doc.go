// Package checkout connects the storefront cart to the payment provider and
// the license store.
//
// Service.CreateCheckout validates an Order, prices every line with the
// pricing engine and hands the provider a Session whose amounts come only from
// the catalog. Requests with an empty cart or no contact e-mail fail with
// ErrMissingRequiredField, unknown products with pricing.ErrInvalidProduct;
// both are returned before the provider is called. Provider failures are
// returned as *BoundaryError carrying the provider message.
//
// The checkout metadata carries the license serial and the comma-joined
// feature identifiers bought. When the provider later delivers a verified
// "transaction.completed" webhook, Service.HandleWebhook applies the
// activation to the license store and then runs the registered activation
// hooks. Deliveries that fail signature verification are logged and rejected
// with ErrSignatureVerification; nothing is applied.
//
// PaddleProvider implements Provider with the Paddle Billing API:
//
//	provider, err := checkout.NewPaddleProvider(cfg)
//	if err != nil {
//		return err
//	}
//	svc := checkout.NewService(engine, provider, store,
//		checkout.WithSuccessURL(successURL),
//	)
package checkout
