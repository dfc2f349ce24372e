package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"tradeTracker/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

const (
	// Base URLs
	baseURLProduction = "https://api.binance.com"
	baseURLTestnet    = "https://testnet.binance.vision"
)

// Client implements the ports.PriceSource interface using the go-binance library.
// Only public spot endpoints are used, so API keys are optional.
type Client struct {
	spotClient *binance.Client
	logger     ports.Logger
}

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a new Binance spot client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using the global binance.UseTestnet
	if cfg.UseTestnet {
		client.BaseURL = baseURLTestnet
		cfg.Logger.Info(context.Background(), "Binance client configured for Testnet", map[string]interface{}{"baseURL": client.BaseURL})
	} else {
		client.BaseURL = baseURLProduction
		cfg.Logger.Info(context.Background(), "Binance client configured for Production", map[string]interface{}{"baseURL": client.BaseURL})
	}

	return &Client{
		spotClient: client,
		logger:     cfg.Logger,
	}, nil
}

// handleError logs the underlying failure and reports it uniformly as
// ErrPriceUnavailable. The worker does not distinguish between failure
// modes; it skips the record and retries on the next tick.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message
	} else if errors.Is(err, context.DeadlineExceeded) {
		fields["reason"] = "timeout"
	} else if strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "connection reset by peer") ||
		strings.Contains(err.Error(), "use of closed network connection") {
		fields["reason"] = "connection failed"
	}

	c.logger.Warn(ctx, operation+" failed", fields)
	return fmt.Errorf("%s failed: %w: %v", operation, ports.ErrPriceUnavailable, err)
}

// GetSpotPrice retrieves the current spot price for a (ticker, quote) pair.
func (c *Client) GetSpotPrice(ctx context.Context, symbol, quote string) (float64, error) {
	op := "GetSpotPrice"
	if symbol == "" {
		return 0, fmt.Errorf("%s: symbol must not be empty: %w", op, ports.ErrInvalidRequest)
	}
	if quote == "" {
		quote = "USDT"
	}
	pair := strings.ToUpper(symbol) + strings.ToUpper(quote)

	prices, err := c.spotClient.NewListPricesService().Symbol(pair).Do(ctx)
	if err != nil {
		return 0, c.handleError(ctx, err, op)
	}
	if len(prices) == 0 {
		return 0, c.handleError(ctx, fmt.Errorf("no price data returned for pair %s", pair), op)
	}

	price, err := strconv.ParseFloat(prices[0].Price, 64)
	if err != nil {
		parseErr := fmt.Errorf("could not parse price '%s' for pair %s: %w", prices[0].Price, pair, err)
		return 0, c.handleError(ctx, parseErr, op)
	}
	if price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return 0, c.handleError(ctx, fmt.Errorf("non-positive or non-finite price %v for pair %s", price, pair), op)
	}
	return price, nil
}
