package oracle

import (
	"math"
	"math/bits"
)

// SPL token account layout (165 bytes):
//
//	[0-31]:  mint (PublicKey)
//	[32-63]: owner (PublicKey)
//	[64-71]: amount (u64, little-endian)
//	[72]:    delegate_option
//	...
const reserveAmountOffset = 64

// priceScale converts a reserve ratio into cents. With a 9-decimal base
// token and a 6-decimal quote token:
// (quote/1e6) / (base/1e9) * 100 = quote * 100000 / base.
const priceScale = 100000

// ReservePair holds the two vault balances of a constant-product pool.
// ReserveA is the base-token side, ReserveB the quote side.
type ReservePair struct {
	ReserveA uint64
	ReserveB uint64
}

// DecodeReserve reads the u64 token amount from a vault account buffer.
func DecodeReserve(data []byte) (uint64, error) {
	return readUint64LE(data, reserveAmountOffset, "reserve amount")
}

// DecodeReservePair decodes both vault buffers of a pool.
func DecodeReservePair(baseVault, quoteVault []byte) (ReservePair, error) {
	a, err := DecodeReserve(baseVault)
	if err != nil {
		return ReservePair{}, err
	}
	b, err := DecodeReserve(quoteVault)
	if err != nil {
		return ReservePair{}, err
	}
	return ReservePair{ReserveA: a, ReserveB: b}, nil
}

// SpotPriceCents returns the pool-implied price in cents:
// reserveB * 100000 // reserveA, floor division. ok is false when reserveA
// is zero; the price is undefined and the caller must substitute the
// co-located oracle price.
func (p ReservePair) SpotPriceCents() (cents int64, ok bool) {
	if p.ReserveA == 0 {
		return 0, false
	}
	// The 128-bit product keeps the quotient exact for deep pools where
	// reserveB * 100000 overflows 64 bits.
	hi, lo := bits.Mul64(p.ReserveB, priceScale)
	if hi >= p.ReserveA {
		return math.MaxInt64, true
	}
	q, _ := bits.Div64(hi, lo, p.ReserveA)
	if q > math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(q), true
}

// LiquidityMagnitude returns the bit length of reserveA (the number of
// right shifts until zero), saturated at 255. Zero reserve yields zero.
func (p ReservePair) LiquidityMagnitude() uint8 {
	n := bits.Len64(p.ReserveA)
	if n > 255 {
		n = 255
	}
	return uint8(n)
}
