package pricing

import "errors"

var (
	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrEmptyCart       = errors.New("cart is empty")

	ErrInvalidCatalog      = errors.New("invalid catalog")
	ErrFailedToLoadCatalog = errors.New("failed to load catalog")
)
