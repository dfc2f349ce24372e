package ports

import "context"

// PriceSource defines the interface for fetching a current spot price from
// an external quote provider.
// Implementations perform no caching or retry of their own; retry policy
// belongs to the caller (the worker simply skips the record until the next
// tick).
type PriceSource interface {
	// GetSpotPrice returns the current spot price for a (ticker, quote)
	// pair, e.g. ("BTC", "USDT"). On success the price is finite and
	// positive. Any failure wraps ErrPriceUnavailable.
	GetSpotPrice(ctx context.Context, symbol, quote string) (float64, error)
}
