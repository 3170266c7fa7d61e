package storefront

import (
	"fmt"
	"regexp"

	"github.com/dpbiotech/configurator/pkg/checkout"
	"github.com/dpbiotech/configurator/pkg/pricing"
	"github.com/dpbiotech/configurator/pkg/validator"
)

const (
	maxItems    = 100
	maxQuantity = 1000
	maxSerial   = 64
	maxEmail    = 254
)

var serialPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// validateCart checks request shape only. Missing items and email are
// reported by the checkout service, unknown products by the pricing engine.
func validateCart(items []pricing.LineItem) []validator.Rule {
	rules := []validator.Rule{validator.MaxItems("items", items, maxItems)}
	for i, item := range items {
		rules = append(rules, validator.Between(fmt.Sprintf("items[%d].quantity", i), item.Quantity, 0, maxQuantity))
	}
	return rules
}

func validateOrder(o checkout.Order) error {
	rules := validateCart(o.Items)
	rules = append(rules,
		validator.MaxLen("email", o.Email, maxEmail),
		validator.Email("email", o.Email),
		validator.MaxLen("serial", o.Serial, maxSerial),
		validator.Matches("serial", o.Serial, serialPattern, "must contain only letters, digits, dots, dashes and underscores"),
	)
	return validator.Apply(rules...)
}
