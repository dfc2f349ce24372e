package domain

// Side represents the direction of a trade (LONG or SHORT).
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// IsValid checks if the side is one of the known values.
func (s Side) IsValid() bool {
	return s == SideLong || s == SideShort
}

// Status represents the lifecycle state of a trade.
// Transitions are monotonic: PENDING -> OPEN -> CLOSED. A PENDING trade
// may alternatively be removed without ever opening.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusOpen    Status = "OPEN"
	StatusClosed  Status = "CLOSED"
)

// DefaultQuote is the quote currency assumed when a trade does not carry one.
const DefaultQuote = "USDT"
