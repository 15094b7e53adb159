package market

import "strings"

// AssetClass distinguishes the data path a symbol is served by.
type AssetClass int

const (
	Equity AssetClass = iota
	Crypto
)

func (c AssetClass) String() string {
	if c == Crypto {
		return "crypto"
	}
	return "equity"
}

// Instrument is a tradable symbol tagged with its asset class. The class is
// decided once, at universe construction, not per data call.
type Instrument struct {
	Symbol string
	Class  AssetClass
}

// NewInstrument classifies a symbol by syntax: crypto pairs carry a "/"
// separator (e.g. "BTC/USD"), everything else is an equity ticker.
func NewInstrument(symbol string) Instrument {
	class := Equity
	if strings.Contains(symbol, "/") {
		class = Crypto
	}
	return Instrument{Symbol: symbol, Class: class}
}
