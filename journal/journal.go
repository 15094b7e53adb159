package journal

import "time"

const (
	StatusSubmitted = "submitted"
	StatusRejected  = "rejected"
)

// OrderRecord captures one order request the bot issued (or tried to issue)
// to the brokerage.
type OrderRecord struct {
	ClientOrderID string
	Symbol        string
	Side          string
	Type          string
	Notional      float64 // market orders; 0 for stops
	Qty           string  // trailing stops; decimal string, "" for notional orders
	TrailPercent  float64 // trailing stops; 0 otherwise
	Status        string
	Reason        string // signal name or failure detail
	Time          time.Time
}

// EquitySnapshot is one per-cycle account reading.
type EquitySnapshot struct {
	Time           time.Time
	Cash           float64
	PortfolioValue float64
	LastEquity     float64
}

type Journal interface {
	RecordOrder(OrderRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}
