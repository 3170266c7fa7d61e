package pricing

import (
	"fmt"
)

// LineItem is one entry of a cart. It deliberately carries no amount: prices
// come from the catalog only.
type LineItem struct {
	ID       string            `json:"id"`
	Options  map[string]string `json:"options,omitempty"`
	AddOns   map[string]bool   `json:"add_ons,omitempty"`
	Quantity int               `json:"quantity,omitempty"`
}

// QuoteLine is a priced line item.
type QuoteLine struct {
	Item       LineItem
	Product    Product
	UnitAmount int64
	Quantity   int
	Amount     int64
}

// Quote is the trusted price of a whole cart.
type Quote struct {
	Currency string
	Lines    []QuoteLine
	Total    int64
}

// Features returns the feature identifiers bought in this quote, in cart order
// without duplicates.
func (q Quote) Features() []string {
	var features []string
	seen := make(map[string]struct{})
	for _, l := range q.Lines {
		f, ok := l.Product.Feature()
		if !ok {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		features = append(features, f)
	}
	return features
}

// Engine prices line items against a catalog.
type Engine struct {
	catalog *Catalog
}

// NewEngine returns an engine bound to the given catalog.
// Panics on a nil catalog: pricing without a price list is a wiring bug.
func NewEngine(catalog *Catalog) *Engine {
	if catalog == nil {
		panic("pricing: nil catalog")
	}
	return &Engine{catalog: catalog}
}

// Catalog returns the catalog the engine prices against.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Price returns the unit amount of a line item: base price plus the surcharge of
// every selected option plus every enabled add-on. Quantity is ignored here.
//
// Unknown product identifiers fail with ErrInvalidProduct. Unknown option
// categories, option values and add-ons contribute 0.
func (e *Engine) Price(item LineItem) (int64, error) {
	product, ok := e.catalog.Product(item.ID)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidProduct, item.ID)
	}

	total := product.Price

	family, ok := e.catalog.Family(product.Family)
	if !ok {
		return total, nil
	}

	for category, value := range item.Options {
		total += family.Options[category][value]
	}
	for addOn, enabled := range item.AddOns {
		if enabled {
			total += family.AddOns[addOn]
		}
	}

	return total, nil
}

// Quote prices every item of a cart and sums the result. It fails on the first
// invalid item; the error names the item index.
func (e *Engine) Quote(items []LineItem) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, ErrEmptyCart
	}

	q := Quote{
		Currency: e.catalog.Currency,
		Lines:    make([]QuoteLine, 0, len(items)),
	}

	for i, item := range items {
		qty := item.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return Quote{}, fmt.Errorf("%w: items[%d]: %d", ErrInvalidQuantity, i, item.Quantity)
		}

		unit, err := e.Price(item)
		if err != nil {
			return Quote{}, fmt.Errorf("items[%d]: %w", i, err)
		}

		product, _ := e.catalog.Product(item.ID)
		line := QuoteLine{
			Item:       item,
			Product:    product,
			UnitAmount: unit,
			Quantity:   qty,
			Amount:     unit * int64(qty),
		}
		q.Lines = append(q.Lines, line)
		q.Total += line.Amount
	}

	return q, nil
}
