package strategies

// Signal is the outcome of one crossover evaluation. It is derived fresh
// from a bar series every cycle and never stored.
type Signal int

const (
	None Signal = iota
	Buy
	Sell
)

func (s Signal) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "none"
	}
}
