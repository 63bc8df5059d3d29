package accum

import (
	"solana-predictor/internal/qmath"
)

// Feature bytes use 128 as the neutral reference for ratio-type features
// (price-vs-SMA, momentum, spread) and raw magnitude for volatility and
// liquidity. The vector is derived fresh each cycle and never persisted.

// PriceVsSMA is the newest price relative to the SMA, 128 = at SMA.
func PriceVsSMA(s State) uint8 {
	if s.SMA == 0 {
		return 128
	}
	p0 := int64(s.Last)
	sma := int64(s.SMA)
	return uint8(qmath.ClampByte(128 + qmath.FloorDiv((p0-sma)*100, sma)))
}

// Trend counts up-moves across the three newest ring slots and scales to
// one of {0, 85, 170}.
func Trend(s State) uint8 {
	up := 0
	if s.Last > s.Prev1 {
		up++
	}
	if s.Prev1 > s.Prev2 {
		up++
	}
	return uint8(85 * up)
}

// Features4 extracts the 4-feature vector used by the oracle-only models:
// price_vs_sma, momentum, volatility, trend.
func Features4(s State) []uint8 {
	return []uint8{PriceVsSMA(s), s.Momentum, s.Volatility, Trend(s)}
}

// Features6 extracts the 6-feature vector used by the v2 models:
// price_vs_sma, momentum, volatility, liquidity, spread, trend.
func Features6(s State) []uint8 {
	return []uint8{PriceVsSMA(s), s.Momentum, s.Volatility, s.Liquidity, s.Spread, Trend(s)}
}
