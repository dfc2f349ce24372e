package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEntryHit(t *testing.T) {
	tests := []struct {
		name  string
		side  Side
		entry float64
		price float64
		want  bool
	}{
		{"long hit at entry", SideLong, 50000, 50000, true},
		{"long hit above entry", SideLong, 50000, 50500, true},
		{"long not hit below entry", SideLong, 50000, 49999.99, false},
		{"short hit at entry", SideShort, 100, 100, true},
		{"short hit below entry", SideShort, 100, 95, true},
		{"short not hit above entry", SideShort, 100, 100.01, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := &Trade{Side: tt.side, EntryPrice: tt.entry}
			assert.Equal(t, tt.want, trade.EntryHit(tt.price))
		})
	}
}

func TestUnrealizedAt(t *testing.T) {
	tests := []struct {
		name  string
		side  Side
		entry float64
		price float64
		want  float64
	}{
		{"long gain", SideLong, 100, 110, 10},
		{"long loss", SideLong, 100, 95, -5},
		{"long flat", SideLong, 100, 100, 0},
		{"short gain", SideShort, 100, 95, 5},
		{"short loss", SideShort, 100, 110, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trade := &Trade{Side: tt.side, EntryPrice: tt.entry}
			assert.InDelta(t, tt.want, trade.UnrealizedAt(tt.price), 1e-9)
		})
	}
}

func TestThresholdPredicates(t *testing.T) {
	long := &Trade{Side: SideLong, EntryPrice: 100, TakeProfit: 110, StopLoss: 95}
	assert.True(t, long.TakeProfitHit(110))
	assert.True(t, long.TakeProfitHit(115))
	assert.False(t, long.TakeProfitHit(109.99))
	assert.True(t, long.StopLossHit(95))
	assert.True(t, long.StopLossHit(90))
	assert.False(t, long.StopLossHit(95.01))

	short := &Trade{Side: SideShort, EntryPrice: 100, TakeProfit: 90, StopLoss: 105}
	assert.True(t, short.TakeProfitHit(90))
	assert.True(t, short.TakeProfitHit(85))
	assert.False(t, short.TakeProfitHit(90.01))
	assert.True(t, short.StopLossHit(105))
	assert.True(t, short.StopLossHit(110))
	assert.False(t, short.StopLossHit(104.99))
}

func TestThresholdPcts(t *testing.T) {
	long := &Trade{Side: SideLong, EntryPrice: 100, TakeProfit: 110, StopLoss: 95}
	assert.InDelta(t, 10, long.TakeProfitPct(), 1e-9)
	assert.InDelta(t, -5, long.StopLossPct(), 1e-9)

	short := &Trade{Side: SideShort, EntryPrice: 100, TakeProfit: 90, StopLoss: 105}
	assert.InDelta(t, 10, short.TakeProfitPct(), 1e-9)
	assert.InDelta(t, -5, short.StopLossPct(), 1e-9)
}

func TestMarkEntryHit(t *testing.T) {
	openedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	hitAt := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

	trade := &Trade{Side: SideLong, Status: StatusPending, OpenedAt: openedAt}
	trade.MarkEntryHit(hitAt)

	assert.Equal(t, StatusOpen, trade.Status)
	assert.Equal(t, hitAt, trade.EntryHitAt)
	// OpenedAt keeps the value from creation time
	assert.Equal(t, openedAt, trade.OpenedAt)
}

func TestClose(t *testing.T) {
	now := time.Date(2025, 6, 3, 15, 0, 0, 0, time.UTC)

	trade := &Trade{
		Side:          SideLong,
		Status:        StatusOpen,
		EntryPrice:    100,
		UnrealizedPct: 7.5,
	}
	trade.Close(10, now)

	assert.Equal(t, StatusClosed, trade.Status)
	assert.InDelta(t, 10, trade.RealizedPct, 1e-9)
	assert.Zero(t, trade.UnrealizedPct)
	assert.Equal(t, now, trade.ClosedAt)
}

func TestCloseAccumulates(t *testing.T) {
	now := time.Now().UTC()

	// A gapped move that satisfies both thresholds adds both contributions.
	trade := &Trade{Side: SideLong, Status: StatusOpen, EntryPrice: 100, RealizedPct: 0}
	trade.Close(2+5, now)
	assert.InDelta(t, 7, trade.RealizedPct, 1e-9)
}

func TestPair(t *testing.T) {
	assert.Equal(t, "BTCUSDT", (&Trade{Symbol: "BTC", Quote: "USDT"}).Pair())
	assert.Equal(t, "ETHUSDT", (&Trade{Symbol: "ETH"}).Pair())
	assert.Equal(t, "SOLBUSD", (&Trade{Symbol: "sol", Quote: "busd"}).Pair())
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, (&Trade{Status: StatusPending}).IsPending())
	assert.True(t, (&Trade{Status: StatusOpen}).IsOpen())
	assert.True(t, (&Trade{Status: StatusClosed}).IsClosed())
	assert.False(t, (&Trade{Status: StatusOpen}).IsClosed())
}
