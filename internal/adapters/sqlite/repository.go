package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tradeTracker/internal/domain"
	"tradeTracker/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.TradeRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trade_tracker.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency between the worker and admin commands
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally, but the Go driver benefits from limiting connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// NOTE: This is a basic approach. A proper migration tool is recommended for production.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		quote TEXT NOT NULL DEFAULT 'USDT',
		side TEXT NOT NULL,
		status TEXT NOT NULL,
		entry_price REAL NOT NULL,
		tp_price REAL NOT NULL,
		sl_price REAL NOT NULL,
		quantity REAL NOT NULL DEFAULT 0,
		opened_at TIMESTAMP NOT NULL,
		entry_hit_at TIMESTAMP DEFAULT NULL,
		closed_at TIMESTAMP DEFAULT NULL,
		pnl_unrealized_pct REAL NOT NULL DEFAULT 0,
		pnl_realized_pct REAL NOT NULL DEFAULT 0,
		post_url TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades (status);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol_status ON trades (symbol, status);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

const tradeColumns = `id, symbol, quote, side, status, entry_price, tp_price, sl_price,
	       quantity, opened_at, entry_hit_at, closed_at,
	       pnl_unrealized_pct, pnl_realized_pct, post_url, user_id, created_at, updated_at`

// Create saves a new trade and returns its assigned ID.
func (r *Repository) Create(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trades (symbol, quote, side, status, entry_price, tp_price, sl_price, quantity,
	                    opened_at, entry_hit_at, pnl_unrealized_pct, pnl_realized_pct,
	                    post_url, user_id, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		trade.Symbol, trade.Quote, trade.Side, trade.Status,
		trade.EntryPrice, trade.TakeProfit, trade.StopLoss, trade.Quantity,
		trade.OpenedAt, nullTime(trade.EntryHitAt), trade.UnrealizedPct, trade.RealizedPct,
		trade.PostURL, trade.UserID, trade.CreatedAt, trade.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade for symbol %s: %w", trade.Symbol, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade %s: %w", trade.Symbol, err)
	}
	trade.ID = id // Update the domain object with the ID
	r.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": id, "symbol": trade.Symbol, "status": trade.Status})
	return id, nil
}

// Update persists the full current state of an existing trade.
func (r *Repository) Update(ctx context.Context, trade *domain.Trade) error {
	const query = `
	UPDATE trades
	SET symbol = ?, quote = ?, side = ?, status = ?, entry_price = ?, tp_price = ?, sl_price = ?,
	    quantity = ?, opened_at = ?, entry_hit_at = ?, closed_at = ?,
	    pnl_unrealized_pct = ?, pnl_realized_pct = ?, post_url = ?, user_id = ?, updated_at = ?
	WHERE id = ?`

	trade.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		trade.Symbol, trade.Quote, trade.Side, trade.Status,
		trade.EntryPrice, trade.TakeProfit, trade.StopLoss,
		trade.Quantity, trade.OpenedAt, nullTime(trade.EntryHitAt), nullTime(trade.ClosedAt),
		trade.UnrealizedPct, trade.RealizedPct, trade.PostURL, trade.UserID, trade.UpdatedAt,
		trade.ID)
	if err != nil {
		return fmt.Errorf("failed to update trade ID %d: %w", trade.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for update trade ID %d: %w", trade.ID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade ID %d not found for update: %w", trade.ID, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade updated", map[string]interface{}{"tradeID": trade.ID, "symbol": trade.Symbol, "status": trade.Status})
	return nil
}

// FindByID retrieves a trade by its unique ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Trade not found by ID", map[string]interface{}{"tradeID": id})
			return nil, nil // Not an error, just not found
		}
		return nil, fmt.Errorf("failed to query trade by ID %d: %w", id, err)
	}
	return trade, nil
}

// FindByStatus retrieves all trades matching one of the given statuses,
// ordered by creation time ascending.
func (r *Repository) FindByStatus(ctx context.Context, statuses ...domain.Status) ([]*domain.Trade, error) {
	if len(statuses) == 0 {
		return []*domain.Trade{}, nil
	}

	query := `SELECT ` + tradeColumns + ` FROM trades WHERE status IN (` +
		placeholders(len(statuses)) + `) ORDER BY created_at ASC`

	args := make([]interface{}, 0, len(statuses))
	for _, st := range statuses {
		args = append(args, st)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades by status: %w", err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during FindByStatus: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// FindAll retrieves all trades, ordered by creation time descending.
func (r *Repository) FindAll(ctx context.Context) ([]*domain.Trade, error) {
	query := `SELECT ` + tradeColumns + ` FROM trades ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query all trades: %w", err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade during FindAll: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// UpdateByStatus applies a partial update to every trade matching the status
// filter and returns the number of affected rows.
func (r *Repository) UpdateByStatus(ctx context.Context, filter []domain.Status, upd ports.TradeUpdate) (int64, error) {
	if len(filter) == 0 {
		return 0, nil
	}

	sets := make([]string, 0, 5)
	args := make([]interface{}, 0, 8)
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.UnrealizedPct != nil {
		sets = append(sets, "pnl_unrealized_pct = ?")
		args = append(args, *upd.UnrealizedPct)
	}
	if upd.RealizedPct != nil {
		sets = append(sets, "pnl_realized_pct = ?")
		args = append(args, *upd.RealizedPct)
	}
	if upd.ClosedAt != nil {
		sets = append(sets, "closed_at = ?")
		args = append(args, *upd.ClosedAt)
	}
	if len(sets) == 0 {
		return 0, fmt.Errorf("no fields to update: %w", ports.ErrInvalidRequest)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC())

	for _, st := range filter {
		args = append(args, st)
	}

	query := `UPDATE trades SET ` + strings.Join(sets, ", ") +
		` WHERE status IN (` + placeholders(len(filter)) + `)`

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk update trades: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for bulk update: %w", err)
	}
	r.logger.Debug(ctx, "Trades bulk updated", map[string]interface{}{"count": count})
	return count, nil
}

// Delete removes a single trade by ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM trades WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete trade ID %d: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for delete trade ID %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("trade ID %d not found for delete: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade deleted", map[string]interface{}{"tradeID": id})
	return nil
}

// DeleteByStatus removes every trade matching the status filter and returns
// the number of deleted rows.
func (r *Repository) DeleteByStatus(ctx context.Context, filter []domain.Status) (int64, error) {
	if len(filter) == 0 {
		return 0, nil
	}

	query := `DELETE FROM trades WHERE status IN (` + placeholders(len(filter)) + `)`
	args := make([]interface{}, 0, len(filter))
	for _, st := range filter {
		args = append(args, st)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete trades: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for bulk delete: %w", err)
	}
	r.logger.Debug(ctx, "Trades bulk deleted", map[string]interface{}{"count": count})
	return count, nil
}

// --- Helpers ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanTrade scans a row into a domain.Trade struct.
func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var entryHitAt, closedAt sql.NullTime
	var side, status string
	err := s.Scan(
		&t.ID, &t.Symbol, &t.Quote, &side, &status, &t.EntryPrice, &t.TakeProfit, &t.StopLoss,
		&t.Quantity, &t.OpenedAt, &entryHitAt, &closedAt,
		&t.UnrealizedPct, &t.RealizedPct, &t.PostURL, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err // Handle sql.ErrNoRows in the caller
	}
	if entryHitAt.Valid {
		t.EntryHitAt = entryHitAt.Time
	}
	if closedAt.Valid {
		t.ClosedAt = closedAt.Time
	}
	t.Side = domain.Side(side)
	t.Status = domain.Status(status)
	return t, nil
}

// nullTime maps a zero time to NULL.
func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
