package domain

import (
	"strings"
	"time"
)

// Trade represents a discretionary trading position being tracked.
type Trade struct {
	ID            int64     `json:"id"`                 // Unique identifier (assigned by the DB on create)
	Symbol        string    `json:"symbol"`             // Base ticker (e.g., "BTC"), uppercase
	Quote         string    `json:"quote"`              // Quote currency (e.g., "USDT")
	Side          Side      `json:"side"`               // LONG or SHORT
	Status        Status    `json:"status"`             // PENDING, OPEN or CLOSED
	EntryPrice    float64   `json:"entry_price"`        // Price at which the trade enters
	TakeProfit    float64   `json:"tp_price"`           // Take-profit threshold
	StopLoss      float64   `json:"sl_price"`           // Stop-loss threshold
	Quantity      float64   `json:"quantity,omitempty"` // Optional position size, informational only
	OpenedAt      time.Time `json:"opened_at"`          // Set at creation, not rewritten on automatic entry
	EntryHitAt    time.Time `json:"entry_hit_at,omitempty"`
	ClosedAt      time.Time `json:"closed_at,omitempty"`
	UnrealizedPct float64   `json:"pnl_unrealized_pct"` // Recomputed every tick while OPEN, zeroed on close
	RealizedPct   float64   `json:"pnl_realized_pct"`   // Written once at the close transition
	PostURL       string    `json:"post_url,omitempty"` // Bookkeeping, untouched by the worker
	UserID        string    `json:"user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsOpen checks if the trade status is open.
func (t *Trade) IsOpen() bool {
	return t.Status == StatusOpen
}

// IsPending checks if the trade status is pending.
func (t *Trade) IsPending() bool {
	return t.Status == StatusPending
}

// IsClosed checks if the trade status is closed.
func (t *Trade) IsClosed() bool {
	return t.Status == StatusClosed
}

// Pair returns the exchange pair string for the trade, e.g. "BTCUSDT".
// An empty quote falls back to DefaultQuote.
func (t *Trade) Pair() string {
	quote := t.Quote
	if quote == "" {
		quote = DefaultQuote
	}
	return strings.ToUpper(t.Symbol) + strings.ToUpper(quote)
}

// EntryHit evaluates the entry predicate against the given spot price.
// LONG enters once price has risen to the entry level, SHORT once it has
// fallen to it.
func (t *Trade) EntryHit(price float64) bool {
	if t.Side == SideShort {
		return price <= t.EntryPrice
	}
	return price >= t.EntryPrice
}

// UnrealizedAt returns the unrealized PnL percent at the given price.
func (t *Trade) UnrealizedAt(price float64) float64 {
	if t.Side == SideShort {
		return (t.EntryPrice - price) / t.EntryPrice * 100
	}
	return (price - t.EntryPrice) / t.EntryPrice * 100
}

// TakeProfitHit evaluates the take-profit predicate against the given price.
func (t *Trade) TakeProfitHit(price float64) bool {
	if t.Side == SideShort {
		return price <= t.TakeProfit
	}
	return price >= t.TakeProfit
}

// StopLossHit evaluates the stop-loss predicate against the given price.
func (t *Trade) StopLossHit(price float64) bool {
	if t.Side == SideShort {
		return price >= t.StopLoss
	}
	return price <= t.StopLoss
}

// TakeProfitPct returns the realized PnL percent contributed by a
// take-profit close, measured at the threshold rather than the traded price.
func (t *Trade) TakeProfitPct() float64 {
	return t.UnrealizedAt(t.TakeProfit)
}

// StopLossPct returns the realized PnL percent contributed by a stop-loss
// close, measured at the threshold.
func (t *Trade) StopLossPct() float64 {
	return t.UnrealizedAt(t.StopLoss)
}

// MarkEntryHit transitions a PENDING trade to OPEN and records the hit time.
// OpenedAt keeps the value assigned at creation; the observed hit is
// tracked separately in EntryHitAt.
func (t *Trade) MarkEntryHit(now time.Time) {
	t.Status = StatusOpen
	t.EntryHitAt = now
}

// Close applies the terminal transition in one place: accumulate the
// realized delta, zero the unrealized figure, set the status and close time.
// RealizedPct is never recomputed after this.
func (t *Trade) Close(realizedDelta float64, now time.Time) {
	t.RealizedPct += realizedDelta
	t.UnrealizedPct = 0
	t.Status = StatusClosed
	t.ClosedAt = now
}
