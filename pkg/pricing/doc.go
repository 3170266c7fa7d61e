// Package pricing computes trusted order amounts from a static product catalog.
//
// All amounts are int64 values in minor currency units (cents). The engine never
// uses floating-point arithmetic and never accepts a client-supplied amount: the
// price of a line item is always derived from the catalog.
//
// # Catalog
//
// A Catalog holds base prices per product and option surcharges per product
// family. It is loaded once at startup, usually from YAML:
//
//	catalog, err := pricing.LoadCatalogFile("catalog.yaml")
//	if err != nil {
//		return err
//	}
//
// DefaultCatalog returns the embedded catalog shipped with the binary.
//
// # Pricing policy
//
// The policy is intentionally asymmetric:
//
//   - an unknown product identifier fails with ErrInvalidProduct;
//   - an unknown option category, option value or add-on contributes 0.
//
// Products whose identifier starts with "feature-" are software features; buying
// one unlocks the feature identifier after the prefix ("feature-parallax" unlocks
// "parallax").
//
// # Usage
//
//	engine := pricing.NewEngine(catalog)
//	amount, err := engine.Price(pricing.LineItem{
//		ID:      "dp-mini-base",
//		Options: map[string]string{"objectives": "60mm", "care": "basic"},
//	})
//
// Engine is stateless after construction and safe for concurrent use.
package pricing
