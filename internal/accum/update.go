package accum

import (
	"solana-predictor/internal/qmath"
)

// MarketData carries the DEX-side inputs of a v2 update. DexPriceCents must
// already have the zero-reserve fallback applied by the caller (the
// co-located oracle price).
type MarketData struct {
	DexPriceCents uint32
	Liquidity     uint8
}

// Update advances the accumulator by one cycle and returns the new state.
// It is a pure function: the caller commits the encoded result as a whole
// buffer. The ring always shifts by one slot before the new price is
// inserted, so after every update the ring holds exactly the 4 most recent
// samples in strict recency order.
//
// Derived values, all integer with floor division:
//
//	sma        = (p0+p1+p2+p3) // 4
//	volatility = clamp byte of (max-min)*1000 // sma   (0 when sma = 0)
//	momentum   = clamp byte of 128 + (p0-p3)*100 // p3 (128 when p3 = 0)
//	spread     = clamp byte of 128 + (dex-p0)*100 // p0 (128 when p0 = 0)
//
// market is nil for v1-style oracle-only cycles; liquidity, spread and the
// DEX price then keep their previous values.
func Update(s State, priceCents uint32, market *MarketData) State {
	// Ring shift, always before insert.
	s.Prev3 = s.Prev2
	s.Prev2 = s.Prev1
	s.Prev1 = s.Last
	s.Last = priceCents

	p0 := int64(s.Last)
	p1 := int64(s.Prev1)
	p2 := int64(s.Prev2)
	p3 := int64(s.Prev3)

	sma := (p0 + p1 + p2 + p3) / 4
	s.SMA = uint32(sma)

	mx, mn := p0, p0
	for _, p := range []int64{p1, p2, p3} {
		if p > mx {
			mx = p
		}
		if p < mn {
			mn = p
		}
	}
	if sma > 0 {
		s.Volatility = uint8(qmath.ClampByte(qmath.FloorDiv((mx-mn)*1000, sma)))
	} else {
		s.Volatility = 0
	}

	if p3 > 0 {
		s.Momentum = uint8(qmath.ClampByte(128 + qmath.FloorDiv((p0-p3)*100, p3)))
	} else {
		s.Momentum = 128
	}

	if market != nil && s.Version == V2 {
		s.Liquidity = market.Liquidity
		dex := int64(market.DexPriceCents)
		if p0 > 0 {
			s.Spread = uint8(qmath.ClampByte(128 + qmath.FloorDiv((dex-p0)*100, p0)))
		} else {
			s.Spread = 128
		}
		s.DexPrice = market.DexPriceCents
	}

	return s
}
