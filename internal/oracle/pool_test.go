package oracle

import (
	"encoding/binary"
	"errors"
	"testing"

	"solana-predictor/internal/account"
)

// buildVault builds an SPL token account buffer with the given amount.
func buildVault(amount uint64) []byte {
	data := make([]byte, 165)
	binary.LittleEndian.PutUint64(data[reserveAmountOffset:], amount)
	return data
}

func TestDecodeReservePair(t *testing.T) {
	pair, err := DecodeReservePair(buildVault(2000000000000), buildVault(248280000000))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pair.ReserveA != 2000000000000 || pair.ReserveB != 248280000000 {
		t.Errorf("unexpected reserves: %+v", pair)
	}
}

func TestDecodeReserve_ShortBuffer(t *testing.T) {
	_, err := DecodeReserve(make([]byte, 64))
	if !errors.Is(err, account.ErrShortBuffer) {
		t.Errorf("expected ErrShortBuffer, got %v", err)
	}
}

func TestSpotPriceCents(t *testing.T) {
	// 2000 SOL (1e9 lamports each) against 248,280 USDC (1e6 each):
	// 248280000000 * 100000 // 2000000000000 = 12414 cents.
	pair := ReservePair{ReserveA: 2000000000000, ReserveB: 248280000000}
	cents, ok := pair.SpotPriceCents()
	if !ok {
		t.Fatal("expected defined price")
	}
	if cents != 12414 {
		t.Errorf("SpotPriceCents() = %d, want 12414", cents)
	}
}

func TestSpotPriceCents_FloorDivision(t *testing.T) {
	pair := ReservePair{ReserveA: 3, ReserveB: 1}
	cents, ok := pair.SpotPriceCents()
	if !ok {
		t.Fatal("expected defined price")
	}
	// 100000 // 3 = 33333, floor not round.
	if cents != 33333 {
		t.Errorf("SpotPriceCents() = %d, want 33333", cents)
	}
}

func TestSpotPriceCents_ZeroReserve(t *testing.T) {
	pair := ReservePair{ReserveA: 0, ReserveB: 500}
	if _, ok := pair.SpotPriceCents(); ok {
		t.Error("price must be undefined when reserveA is zero")
	}
}

func TestSpotPriceCents_WideProduct(t *testing.T) {
	// reserveB * 100000 overflows 64 bits; the 128-bit path must stay exact.
	pair := ReservePair{ReserveA: 1 << 40, ReserveB: 1 << 50}
	cents, ok := pair.SpotPriceCents()
	if !ok {
		t.Fatal("expected defined price")
	}
	// (2^50 * 100000) / 2^40 = 2^10 * 100000 = 102400000.
	if cents != 102400000 {
		t.Errorf("SpotPriceCents() = %d, want 102400000", cents)
	}
}

func TestLiquidityMagnitude(t *testing.T) {
	cases := []struct {
		reserve uint64
		want    uint8
	}{
		{0, 0},
		{1, 1},
		{1023, 10},
		{1024, 11},
		{1<<63 + 1, 64},
	}
	for _, c := range cases {
		pair := ReservePair{ReserveA: c.reserve}
		if got := pair.LiquidityMagnitude(); got != c.want {
			t.Errorf("LiquidityMagnitude(%d) = %d, want %d", c.reserve, got, c.want)
		}
	}
}
