package pricing

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeaturePrefix marks catalog products that unlock a software feature.
const FeaturePrefix = "feature-"

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Product is a purchasable catalog entry.
type Product struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Family string `yaml:"family,omitempty" json:"family,omitempty"`
	Price  int64  `yaml:"price" json:"price"`
}

// Feature returns the feature identifier unlocked by the product.
func (p Product) Feature() (string, bool) {
	id, ok := strings.CutPrefix(p.ID, FeaturePrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Family groups option surcharges shared by the products of one line.
type Family struct {
	Label   string                      `yaml:"label" json:"label"`
	Options map[string]map[string]int64 `yaml:"options" json:"options"`
	AddOns  map[string]int64            `yaml:"add_ons,omitempty" json:"add_ons,omitempty"`
}

// Catalog is the static price list. It must not be mutated after it has been
// handed to an Engine.
type Catalog struct {
	Currency string            `yaml:"currency" json:"currency"`
	Families map[string]Family `yaml:"families" json:"families"`
	Products []Product         `yaml:"products" json:"products"`

	index map[string]Product
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogYAML)
}

// LoadCatalogFile reads and validates a YAML catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadCatalog, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog. Unknown keys are rejected so that typos
// in option tables do not silently price at zero.
func ParseCatalog(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFailedToLoadCatalog, err)
	}
	if err := c.build(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) build() error {
	if c.Currency == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidCatalog)
	}
	c.Currency = strings.ToUpper(c.Currency)

	c.index = make(map[string]Product, len(c.Products))
	for _, p := range c.Products {
		if p.ID == "" {
			return fmt.Errorf("%w: product without id", ErrInvalidCatalog)
		}
		if _, dup := c.index[p.ID]; dup {
			return fmt.Errorf("%w: duplicate product %q", ErrInvalidCatalog, p.ID)
		}
		if p.Price < 0 {
			return fmt.Errorf("%w: negative price for %q", ErrInvalidCatalog, p.ID)
		}
		if p.Family != "" {
			if _, ok := c.Families[p.Family]; !ok {
				return fmt.Errorf("%w: product %q references unknown family %q", ErrInvalidCatalog, p.ID, p.Family)
			}
		}
		if strings.HasPrefix(p.ID, FeaturePrefix) {
			if _, ok := p.Feature(); !ok {
				return fmt.Errorf("%w: feature product %q has empty feature id", ErrInvalidCatalog, p.ID)
			}
		}
		c.index[p.ID] = p
	}

	for name, fam := range c.Families {
		for category, values := range fam.Options {
			for value, amount := range values {
				if amount < 0 {
					return fmt.Errorf("%w: negative surcharge %s/%s/%s", ErrInvalidCatalog, name, category, value)
				}
			}
		}
		for addOn, amount := range fam.AddOns {
			if amount < 0 {
				return fmt.Errorf("%w: negative add-on %s/%s", ErrInvalidCatalog, name, addOn)
			}
		}
	}

	return nil
}

// Product looks up a product by identifier.
func (c *Catalog) Product(id string) (Product, bool) {
	p, ok := c.index[id]
	return p, ok
}

// Family returns the family a product belongs to.
func (c *Catalog) Family(name string) (Family, bool) {
	f, ok := c.Families[name]
	return f, ok
}

// Features lists every feature identifier the catalog can unlock, sorted.
func (c *Catalog) Features() []string {
	var features []string
	for _, p := range c.Products {
		if f, ok := p.Feature(); ok {
			features = append(features, f)
		}
	}
	slices.Sort(features)
	return slices.Compact(features)
}
