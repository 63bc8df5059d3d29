package feed

import (
	"context"
	"errors"
	"testing"

	"solana-predictor/internal/solana"
)

const (
	oracleAddr     = "H6ARHf6YXhGYeQfUzQNGk6rDNnLBQKrenN712K4AQJEG"
	baseVaultAddr  = "So11111111111111111111111111111111111111112"
	quoteVaultAddr = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
)

// stubRPC returns canned accounts keyed by pubkey.
type stubRPC struct {
	slot     int64
	accounts map[string][]byte
}

func (s *stubRPC) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	data, ok := s.accounts[pubkey]
	if !ok {
		return nil, nil
	}
	return &solana.AccountInfo{Pubkey: pubkey, Data: data, Slot: s.slot}, nil
}

func (s *stubRPC) GetMultipleAccounts(ctx context.Context, pubkeys []string) ([]*solana.AccountInfo, error) {
	infos := make([]*solana.AccountInfo, len(pubkeys))
	for i, pk := range pubkeys {
		info, _ := s.GetAccountInfo(ctx, pk)
		infos[i] = info
	}
	return infos, nil
}

func (s *stubRPC) GetSlot(context.Context) (int64, error) { return s.slot, nil }

func TestValidateAddress(t *testing.T) {
	valid := []string{oracleAddr, baseVaultAddr, "11111111111111111111111111111111"}
	for _, addr := range valid {
		if err := ValidateAddress(addr); err != nil {
			t.Errorf("%s rejected: %v", addr, err)
		}
	}

	invalid := []string{
		"",
		"not-base58-0OIl",
		"abc",                  // too short
		baseVaultAddr + "1111", // too long
	}
	for _, addr := range invalid {
		if err := ValidateAddress(addr); !errors.Is(err, ErrBadAddress) {
			t.Errorf("%q: got %v, want ErrBadAddress", addr, err)
		}
	}
}

func TestIsProgramDerived(t *testing.T) {
	// The system program key (all zero bytes) decodes to a curve point.
	if IsProgramDerived("11111111111111111111111111111111") {
		t.Error("system program key reported as off-curve")
	}
	// Malformed input is never a PDA.
	if IsProgramDerived("not-an-address") {
		t.Error("invalid input reported as program-derived")
	}
}

func TestSource_FetchWithPool(t *testing.T) {
	rpc := &stubRPC{
		slot: 777,
		accounts: map[string][]byte{
			oracleAddr:     make([]byte, 224),
			baseVaultAddr:  make([]byte, 165),
			quoteVaultAddr: make([]byte, 165),
		},
	}

	src, err := NewSource(rpc, oracleAddr, baseVaultAddr, quoteVaultAddr)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if !src.HasPool() {
		t.Fatal("source should have a pool")
	}

	snap, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if snap.Slot != 777 {
		t.Errorf("slot = %d, want 777", snap.Slot)
	}
	if len(snap.Oracle) != 224 || len(snap.BaseVault) != 165 || len(snap.QuoteVault) != 165 {
		t.Errorf("buffer sizes = %d/%d/%d", len(snap.Oracle), len(snap.BaseVault), len(snap.QuoteVault))
	}
}

func TestSource_OracleOnly(t *testing.T) {
	rpc := &stubRPC{
		slot:     1,
		accounts: map[string][]byte{oracleAddr: make([]byte, 224)},
	}

	src, err := NewSource(rpc, oracleAddr, "", "")
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if src.HasPool() {
		t.Fatal("oracle-only source must not report a pool")
	}

	snap, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if snap.BaseVault != nil || snap.QuoteVault != nil {
		t.Error("oracle-only snapshot must have nil vault buffers")
	}
}

func TestSource_MissingAccount(t *testing.T) {
	rpc := &stubRPC{slot: 1, accounts: map[string][]byte{}}

	src, err := NewSource(rpc, oracleAddr, "", "")
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	_, err = src.Fetch(context.Background())
	if !errors.Is(err, ErrAccountMissing) {
		t.Errorf("got %v, want ErrAccountMissing", err)
	}
}

func TestNewSource_RejectsBadAddresses(t *testing.T) {
	rpc := &stubRPC{}

	if _, err := NewSource(rpc, "garbage", "", ""); !errors.Is(err, ErrBadAddress) {
		t.Errorf("bad oracle: got %v, want ErrBadAddress", err)
	}
	// A pool needs both vaults valid.
	if _, err := NewSource(rpc, oracleAddr, baseVaultAddr, "garbage"); !errors.Is(err, ErrBadAddress) {
		t.Errorf("bad quote vault: got %v, want ErrBadAddress", err)
	}
	if _, err := NewSource(rpc, oracleAddr, "", quoteVaultAddr); !errors.Is(err, ErrBadAddress) {
		t.Errorf("empty base vault with quote set: got %v, want ErrBadAddress", err)
	}
}
