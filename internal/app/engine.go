package app

import (
	"context"
	"fmt"
	"time"

	"tradeTracker/internal/domain"
	"tradeTracker/internal/ports"
)

const defaultPriceTimeout = 10 * time.Second

// Engine is the position-lifecycle state machine. Each tick it reads all
// PENDING and OPEN trades, decides transitions and PnL updates against the
// current spot price, writes the results back, and publishes a snapshot of
// the non-terminal trades.
//
// All dependencies are injected so the engine can be driven by fakes in
// tests. Each trade's read-price -> decide -> write sequence is an
// independent unit of work; a failure on one trade never blocks the others.
type Engine struct {
	logger       ports.Logger
	repo         ports.TradeRepository
	prices       ports.PriceSource
	broadcaster  ports.Broadcaster
	defaultQuote string
	priceTimeout time.Duration
	now          func() time.Time
}

// EngineConfig holds the dependencies and settings for the lifecycle engine.
type EngineConfig struct {
	Logger       ports.Logger
	Repo         ports.TradeRepository
	Prices       ports.PriceSource
	Broadcaster  ports.Broadcaster
	DefaultQuote string        // Quote currency used when a trade carries none
	PriceTimeout time.Duration // Per-fetch timeout, defaults to 10s
	Now          func() time.Time
}

// NewEngine creates a new lifecycle engine instance.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Logger == nil || cfg.Repo == nil || cfg.Prices == nil || cfg.Broadcaster == nil {
		return nil, fmt.Errorf("missing required dependencies for Engine")
	}
	defaultQuote := cfg.DefaultQuote
	if defaultQuote == "" {
		defaultQuote = domain.DefaultQuote
	}
	priceTimeout := cfg.PriceTimeout
	if priceTimeout <= 0 {
		priceTimeout = defaultPriceTimeout
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		logger:       cfg.Logger,
		repo:         cfg.Repo,
		prices:       cfg.Prices,
		broadcaster:  cfg.Broadcaster,
		defaultQuote: defaultQuote,
		priceTimeout: priceTimeout,
		now:          now,
	}, nil
}

// RunTick executes one pass of the lifecycle state machine. It is safe to
// invoke repeatedly; a tick that finds nothing to do writes nothing.
// An error is returned only when the initial read fails; per-trade failures
// are logged and the tick continues with the remaining trades.
func (e *Engine) RunTick(ctx context.Context) error {
	trades, err := e.repo.FindByStatus(ctx, domain.StatusPending, domain.StatusOpen)
	if err != nil {
		e.logger.Error(ctx, err, "tick: failed to read pending/open trades")
		return fmt.Errorf("tick: failed to read trades: %w", err)
	}

	for _, trade := range trades {
		switch trade.Status {
		case domain.StatusPending:
			e.evaluatePending(ctx, trade)
		case domain.StatusOpen:
			e.evaluateOpen(ctx, trade)
		}
	}

	e.publishSnapshot(ctx)
	return nil
}

// evaluatePending checks whether a pending trade's entry condition is met
// and, if so, transitions it to OPEN.
func (e *Engine) evaluatePending(ctx context.Context, trade *domain.Trade) {
	price, ok := e.fetchPrice(ctx, trade)
	if !ok {
		return // retried next tick
	}

	if !trade.EntryHit(price) {
		return
	}

	trade.MarkEntryHit(e.now())
	if err := e.repo.Update(ctx, trade); err != nil {
		e.logger.Error(ctx, err, "tick: failed to persist entry transition", map[string]interface{}{
			"tradeID": trade.ID,
			"symbol":  trade.Symbol,
		})
		return
	}
	e.logger.Info(ctx, "tick: entry hit, trade opened", map[string]interface{}{
		"tradeID":    trade.ID,
		"symbol":     trade.Symbol,
		"side":       trade.Side,
		"entryPrice": trade.EntryPrice,
		"price":      price,
	})
}

// evaluateOpen recomputes an open trade's unrealized PnL and closes it when
// a take-profit or stop-loss threshold is hit.
//
// TP and SL are evaluated independently and both contribute to the realized
// figure when a single tick's price satisfies both thresholds. With a
// normal band (TP beyond entry, SL behind it) the conditions are mutually
// exclusive; an inverted band can double-count on a gapped move. See
// DESIGN.md for why this is kept as is.
func (e *Engine) evaluateOpen(ctx context.Context, trade *domain.Trade) {
	price, ok := e.fetchPrice(ctx, trade)
	if !ok {
		return
	}

	tpHit := trade.TakeProfitHit(price)
	slHit := trade.StopLossHit(price)

	if tpHit || slHit {
		var realized float64
		if tpHit {
			realized += trade.TakeProfitPct()
		}
		if slHit {
			realized += trade.StopLossPct()
		}
		trade.Close(realized, e.now())
	} else {
		trade.UnrealizedPct = trade.UnrealizedAt(price)
	}

	if err := e.repo.Update(ctx, trade); err != nil {
		e.logger.Error(ctx, err, "tick: failed to persist open-trade update", map[string]interface{}{
			"tradeID": trade.ID,
			"symbol":  trade.Symbol,
			"status":  trade.Status,
		})
		return
	}

	if trade.IsClosed() {
		e.logger.Info(ctx, "tick: trade closed", map[string]interface{}{
			"tradeID":     trade.ID,
			"symbol":      trade.Symbol,
			"side":        trade.Side,
			"price":       price,
			"realizedPct": trade.RealizedPct,
			"tpHit":       tpHit,
			"slHit":       slHit,
		})
	}
}

// fetchPrice fetches the current spot price for the trade's pair with the
// engine's per-fetch timeout. A failure is logged and reported as not-ok;
// the trade is skipped for this tick and retried on the next one.
func (e *Engine) fetchPrice(ctx context.Context, trade *domain.Trade) (float64, bool) {
	quote := trade.Quote
	if quote == "" {
		quote = e.defaultQuote
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.priceTimeout)
	defer cancel()

	price, err := e.prices.GetSpotPrice(fetchCtx, trade.Symbol, quote)
	if err != nil {
		e.logger.Warn(ctx, "tick: price unavailable, skipping trade", map[string]interface{}{
			"tradeID": trade.ID,
			"symbol":  trade.Symbol,
			"quote":   quote,
			"error":   err.Error(),
		})
		return 0, false
	}
	return price, true
}

// publishSnapshot reads the current non-terminal trades and hands them to
// the broadcaster. Read failures are logged; the snapshot is simply not
// sent this tick.
func (e *Engine) publishSnapshot(ctx context.Context) {
	trades, err := e.repo.FindByStatus(ctx, domain.StatusPending, domain.StatusOpen)
	if err != nil {
		e.logger.Error(ctx, err, "tick: failed to read snapshot for broadcast")
		return
	}
	e.broadcaster.Publish(ctx, domain.NewTradeUpdateEvent(trades))
}
