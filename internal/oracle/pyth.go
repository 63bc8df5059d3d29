// Package oracle decodes the two external price sources: a Pyth-style
// confidence-weighted price account and an AMM reserve pair.
package oracle

import (
	"encoding/binary"
	"fmt"

	"solana-predictor/internal/account"
	"solana-predictor/internal/qmath"
)

// Pyth price account field offsets (little-endian).
// Account structure: https://docs.pyth.network/price-feeds
const (
	exponentOffset   = 20  // i32 decimal exponent
	priceOffset      = 208 // i64 raw price value
	confidenceOffset = 216 // u64 confidence interval
)

// PriceSample is one decoded oracle reading. Immutable per read.
type PriceSample struct {
	Price      int64  // raw price scaled by 10^Exponent
	Exponent   int32  // decimal exponent, typically -8
	Confidence uint64 // confidence interval in raw price units
}

// DecodePriceSample parses a Pyth price account buffer. A buffer too short
// to contain any of the three fields is an unrecoverable decode error.
func DecodePriceSample(data []byte) (PriceSample, error) {
	expo, err := readInt32LE(data, exponentOffset, "exponent")
	if err != nil {
		return PriceSample{}, err
	}
	price, err := readInt64LE(data, priceOffset, "price")
	if err != nil {
		return PriceSample{}, err
	}
	conf, err := readUint64LE(data, confidenceOffset, "confidence")
	if err != nil {
		return PriceSample{}, err
	}
	return PriceSample{Price: price, Exponent: expo, Confidence: conf}, nil
}

// Cents converts the raw price to integer cents using floor division.
// For the usual exponent -8: cents = raw // 10^6. The truncation is exact
// floor, never rounding.
func (s PriceSample) Cents() int64 {
	// cents = raw * 10^expo * 100 = raw * 10^(expo+2)
	shift := int(s.Exponent) + 2
	if shift >= 0 {
		return s.Price * pow10(shift)
	}
	return qmath.FloorDiv(s.Price, pow10(-shift))
}

func pow10(n int) int64 {
	p := int64(1)
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

func readInt32LE(data []byte, offset int, field string) (int32, error) {
	if offset+4 > len(data) {
		return 0, fmt.Errorf("read %s at offset %d: have %d bytes: %w",
			field, offset, len(data), account.ErrShortBuffer)
	}
	return int32(binary.LittleEndian.Uint32(data[offset:])), nil
}

func readInt64LE(data []byte, offset int, field string) (int64, error) {
	u, err := readUint64LE(data, offset, field)
	return int64(u), err
}

func readUint64LE(data []byte, offset int, field string) (uint64, error) {
	if offset+8 > len(data) {
		return 0, fmt.Errorf("read %s at offset %d: have %d bytes: %w",
			field, offset, len(data), account.ErrShortBuffer)
	}
	return binary.LittleEndian.Uint64(data[offset:]), nil
}
