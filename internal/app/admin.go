package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tradeTracker/internal/domain"
	"tradeTracker/internal/ports"
)

// TradeService carries the explicit administrative operations on tracked
// trades: add, manual close, remove, and the bulk variants. The lifecycle
// engine owns all automatic transitions; these operations are the only
// other writers.
//
// An administrative write racing a tick is resolved by last-write-wins,
// matching the store's single-record read-then-write semantics.
type TradeService struct {
	logger ports.Logger
	repo   ports.TradeRepository
	now    func() time.Time
}

// NewTradeService creates the administrative service.
func NewTradeService(logger ports.Logger, repo ports.TradeRepository) (*TradeService, error) {
	if logger == nil || repo == nil {
		return nil, fmt.Errorf("missing required dependencies for TradeService")
	}
	return &TradeService{
		logger: logger,
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// AddTrade validates and creates a new tracked trade. The operator chooses
// whether it starts PENDING (entry watched by the worker) or directly OPEN.
// A trade created directly OPEN records its creation time as the entry hit.
func (s *TradeService) AddTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	op := "AddTrade"

	trade.Symbol = strings.ToUpper(strings.TrimSpace(trade.Symbol))
	if trade.Symbol == "" {
		return 0, fmt.Errorf("%s: symbol must not be empty: %w", op, ports.ErrInvalidRequest)
	}
	if !trade.Side.IsValid() {
		return 0, fmt.Errorf("%s: side must be LONG or SHORT: %w", op, ports.ErrInvalidRequest)
	}
	if trade.EntryPrice <= 0 || trade.TakeProfit <= 0 || trade.StopLoss <= 0 {
		return 0, fmt.Errorf("%s: entry, tp and sl prices must be positive: %w", op, ports.ErrInvalidRequest)
	}
	if trade.Quote == "" {
		trade.Quote = domain.DefaultQuote
	}
	trade.Quote = strings.ToUpper(trade.Quote)

	switch trade.Status {
	case "":
		trade.Status = domain.StatusPending
	case domain.StatusPending, domain.StatusOpen:
		// operator choice
	default:
		return 0, fmt.Errorf("%s: new trades must be PENDING or OPEN: %w", op, ports.ErrInvalidRequest)
	}

	now := s.now()
	trade.CreatedAt = now
	trade.UpdatedAt = now
	if trade.OpenedAt.IsZero() {
		trade.OpenedAt = now
	}
	if trade.Status == domain.StatusOpen && trade.EntryHitAt.IsZero() {
		trade.EntryHitAt = trade.OpenedAt
	}
	trade.UnrealizedPct = 0
	trade.RealizedPct = 0

	id, err := s.repo.Create(ctx, trade)
	if err != nil {
		s.logger.Error(ctx, err, op+": failed to create trade", map[string]interface{}{"symbol": trade.Symbol})
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, op+": trade created", map[string]interface{}{
		"tradeID": id,
		"symbol":  trade.Symbol,
		"side":    trade.Side,
		"status":  trade.Status,
	})
	return id, nil
}

// CloseTrade force-closes a non-terminal trade. When realizedPct is non-nil
// it is taken as the realized override; otherwise the last computed
// unrealized value is realized.
func (s *TradeService) CloseTrade(ctx context.Context, id int64, realizedPct *float64) (*domain.Trade, error) {
	op := "CloseTrade"

	trade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if trade == nil {
		return nil, fmt.Errorf("%s: trade %d: %w", op, id, ports.ErrNotFound)
	}
	if trade.IsClosed() {
		return nil, fmt.Errorf("%s: trade %d is already closed: %w", op, id, ports.ErrInvalidRequest)
	}

	delta := trade.UnrealizedPct
	if realizedPct != nil {
		delta = *realizedPct
	}
	trade.Close(delta, s.now())

	if err := s.repo.Update(ctx, trade); err != nil {
		s.logger.Error(ctx, err, op+": failed to persist manual close", map[string]interface{}{"tradeID": id})
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, op+": trade closed manually", map[string]interface{}{
		"tradeID":     id,
		"realizedPct": trade.RealizedPct,
	})
	return trade, nil
}

// RemovePending deletes a single PENDING trade. Trades that have opened are
// retained; only pending entries can be removed.
func (s *TradeService) RemovePending(ctx context.Context, id int64) error {
	op := "RemovePending"

	trade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if trade == nil {
		return fmt.Errorf("%s: trade %d: %w", op, id, ports.ErrNotFound)
	}
	if !trade.IsPending() {
		return fmt.Errorf("%s: trade %d is %s, only PENDING trades can be removed: %w", op, id, trade.Status, ports.ErrInvalidRequest)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error(ctx, err, op+": failed to delete trade", map[string]interface{}{"tradeID": id})
		return fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, op+": pending trade removed", map[string]interface{}{"tradeID": id})
	return nil
}

// CloseAllOpen bulk-closes every OPEN trade via a partial update. Already
// accumulated realized values are left untouched; unrealized figures are
// zeroed per the close invariant.
func (s *TradeService) CloseAllOpen(ctx context.Context) (int64, error) {
	op := "CloseAllOpen"

	closed := domain.StatusClosed
	zero := 0.0
	now := s.now()
	count, err := s.repo.UpdateByStatus(ctx, []domain.Status{domain.StatusOpen}, ports.TradeUpdate{
		Status:        &closed,
		UnrealizedPct: &zero,
		ClosedAt:      &now,
	})
	if err != nil {
		s.logger.Error(ctx, err, op+": bulk close failed")
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, op+": open trades closed", map[string]interface{}{"count": count})
	return count, nil
}

// PurgePending bulk-deletes every PENDING trade.
func (s *TradeService) PurgePending(ctx context.Context) (int64, error) {
	op := "PurgePending"

	count, err := s.repo.DeleteByStatus(ctx, []domain.Status{domain.StatusPending})
	if err != nil {
		s.logger.Error(ctx, err, op+": bulk delete failed")
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Info(ctx, op+": pending trades removed", map[string]interface{}{"count": count})
	return count, nil
}

// ListTrades returns all tracked trades, newest first.
func (s *TradeService) ListTrades(ctx context.Context) ([]*domain.Trade, error) {
	return s.repo.FindAll(ctx)
}
