// Package accum maintains the persistent rolling price-feature window.
// The state lives in a fixed-size account buffer; each crank cycle shifts a
// 4-slot price ring and refreshes the derived feature bytes.
package accum

import (
	"encoding/binary"
	"fmt"
)

// Version selects the account layout.
type Version int

const (
	// V1 is the 32-byte oracle-only layout.
	V1 Version = 1
	// V2 is the 48-byte layout extended with DEX liquidity and spread.
	V2 Version = 2
)

// Declared buffer sizes per version.
const (
	SizeV1 = 32
	SizeV2 = 48
)

// Size returns the buffer size the version declares.
func (v Version) Size() int {
	if v == V2 {
		return SizeV2
	}
	return SizeV1
}

// Field offsets. Each version's table is exact and independently specified;
// v1 and v2 deliberately disagree on the momentum offset.
//
// V1 (32 bytes):
//
//	[0:4] last, [4:8] prev1, [8:12] prev2, [12:16] prev3,
//	[16:20] sma, [20] volatility, [24] momentum
//
// V2 (48 bytes):
//
//	[0:4] last, [4:8] prev1, [8:12] prev2, [12:16] prev3,
//	[16:20] sma, [20] volatility, [21] momentum, [22] liquidity,
//	[23] spread, [24:28] dex price, [28:48] reserved/zero
const (
	offLast  = 0
	offPrev1 = 4
	offPrev2 = 8
	offPrev3 = 12
	offSMA   = 16
	offVol   = 20

	offMomentumV1 = 24

	offMomentumV2 = 21
	offLiquidity  = 22
	offSpread     = 23
	offDexPrice   = 24
)

// State is the decoded accumulator record. Prices are in integer cents.
type State struct {
	Version Version

	Last  uint32 // newest price (ring slot 0)
	Prev1 uint32
	Prev2 uint32
	Prev3 uint32 // oldest price (ring slot 3)

	SMA        uint32
	Volatility uint8
	Momentum   uint8

	// V2 only.
	Liquidity uint8
	Spread    uint8
	DexPrice  uint32
}

// Size returns the declared buffer size for the state's version.
func (s State) Size() int {
	if s.Version == V2 {
		return SizeV2
	}
	return SizeV1
}

// Decode parses an accumulator buffer. Unlike every other account layout, a
// short buffer is not an error here: the state self-initializes by padding
// with zero bytes to its declared size, so a freshly allocated account
// starts as an all-zero record.
func Decode(v Version, data []byte) (State, error) {
	size := SizeV1
	if v == V2 {
		size = SizeV2
	} else if v != V1 {
		return State{}, fmt.Errorf("unknown accumulator version %d", v)
	}

	buf := make([]byte, size)
	copy(buf, data)

	s := State{
		Version: v,
		Last:    binary.LittleEndian.Uint32(buf[offLast:]),
		Prev1:   binary.LittleEndian.Uint32(buf[offPrev1:]),
		Prev2:   binary.LittleEndian.Uint32(buf[offPrev2:]),
		Prev3:   binary.LittleEndian.Uint32(buf[offPrev3:]),
		SMA:     binary.LittleEndian.Uint32(buf[offSMA:]),
	}
	s.Volatility = buf[offVol]
	if v == V1 {
		s.Momentum = buf[offMomentumV1]
		return s, nil
	}
	s.Momentum = buf[offMomentumV2]
	s.Liquidity = buf[offLiquidity]
	s.Spread = buf[offSpread]
	s.DexPrice = binary.LittleEndian.Uint32(buf[offDexPrice:])
	return s, nil
}

// Encode serializes the state to its exact account layout. Reserved bytes
// are written as zero.
func (s State) Encode() []byte {
	buf := make([]byte, s.Size())
	binary.LittleEndian.PutUint32(buf[offLast:], s.Last)
	binary.LittleEndian.PutUint32(buf[offPrev1:], s.Prev1)
	binary.LittleEndian.PutUint32(buf[offPrev2:], s.Prev2)
	binary.LittleEndian.PutUint32(buf[offPrev3:], s.Prev3)
	binary.LittleEndian.PutUint32(buf[offSMA:], s.SMA)
	buf[offVol] = s.Volatility
	if s.Version == V1 {
		buf[offMomentumV1] = s.Momentum
		return buf
	}
	buf[offMomentumV2] = s.Momentum
	buf[offLiquidity] = s.Liquidity
	buf[offSpread] = s.Spread
	binary.LittleEndian.PutUint32(buf[offDexPrice:], s.DexPrice)
	return buf
}
