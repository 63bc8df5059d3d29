// Package qmath provides the integer primitives the on-chain programs are
// defined in terms of: floor division, hard byte clamps and signed
// reinterpretation of raw bytes.
package qmath

// FloorDiv divides a by b rounding toward negative infinity.
// Go's / operator truncates toward zero, which diverges from the account
// formulas whenever the numerator is negative: (100-150)*100/150 must be
// -34, not -33.
func FloorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// ClampByte clamps v to the unsigned byte range [0, 255].
func ClampByte(v int64) int64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// ClampUint16 clamps v to [0, 65535].
func ClampUint16(v int64) int64 {
	if v < 0 {
		return 0
	}
	if v > 65535 {
		return 65535
	}
	return v
}

// ReLU floors v at zero.
func ReLU(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// SignedByte reinterprets a raw byte as a signed 8-bit value.
// Quantized weight blobs store INT8 parameters as raw bytes: values above
// 127 wrap to their two's-complement negatives.
func SignedByte(b byte) int64 {
	if b > 127 {
		return int64(b) - 256
	}
	return int64(b)
}
