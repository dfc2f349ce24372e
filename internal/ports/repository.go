package ports

import (
	"context"
	"time"

	"tradeTracker/internal/domain"
)

// TradeUpdate describes a partial update applied to every trade matched by
// a status filter. Nil fields are left untouched.
type TradeUpdate struct {
	Status        *domain.Status
	UnrealizedPct *float64
	RealizedPct   *float64
	ClosedAt      *time.Time
}

// TradeRepository defines the interface for storing and retrieving tracked trades.
type TradeRepository interface {
	// Create saves a new trade and returns its assigned ID.
	Create(ctx context.Context, trade *domain.Trade) (int64, error)
	// Update persists the full current state of an existing trade.
	Update(ctx context.Context, trade *domain.Trade) error
	// FindByID retrieves a trade by its unique ID.
	// Returns nil, nil if not found.
	FindByID(ctx context.Context, id int64) (*domain.Trade, error)
	// FindByStatus retrieves all trades whose status matches one of the
	// given values, ordered by creation time ascending.
	FindByStatus(ctx context.Context, statuses ...domain.Status) ([]*domain.Trade, error)
	// FindAll retrieves all trades, ordered by creation time descending.
	FindAll(ctx context.Context) ([]*domain.Trade, error)
	// UpdateByStatus applies a partial update to every trade matching the
	// status filter and returns the number of affected rows.
	UpdateByStatus(ctx context.Context, filter []domain.Status, upd TradeUpdate) (int64, error)
	// Delete removes a single trade by ID.
	Delete(ctx context.Context, id int64) error
	// DeleteByStatus removes every trade matching the status filter and
	// returns the number of deleted rows.
	DeleteByStatus(ctx context.Context, filter []domain.Status) (int64, error)
}
