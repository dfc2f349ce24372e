package domain

// EventTypeTradeUpdate is the type tag carried by lifecycle snapshots.
const EventTypeTradeUpdate = "tradeUpdate"

// TradeUpdateEvent is the envelope broadcast to subscribers after each
// lifecycle tick. Payload holds the current non-terminal (PENDING/OPEN)
// trades.
type TradeUpdateEvent struct {
	Type    string   `json:"type"`
	Payload []*Trade `json:"payload"`
}

// NewTradeUpdateEvent wraps a snapshot of trades in the broadcast envelope.
func NewTradeUpdateEvent(trades []*Trade) TradeUpdateEvent {
	if trades == nil {
		trades = []*Trade{}
	}
	return TradeUpdateEvent{Type: EventTypeTradeUpdate, Payload: trades}
}
