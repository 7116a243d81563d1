package market

// ValidPrice reports whether p is a tradable binary-share price,
// strictly inside (0, 1). The boundaries are settlement values, not
// quotes.
func ValidPrice(p float64) bool { return p > 0 && p < 1 }

// ClampPrice caps p to the [0, 1] share-price domain. A slippage model
// can push an execution price past the economic bound; the cap is a
// documented policy so downstream P&L stays meaningful.
func ClampPrice(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
