package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-predictor/internal/observability"
	"solana-predictor/internal/solana"
)

// ErrAccountMissing is returned when a watched account does not exist.
var ErrAccountMissing = errors.New("account not found on chain")

// Snapshot holds the raw buffers of one fetch, all from the same slot.
// QuoteVault and BaseVault are nil when the source has no pool configured.
type Snapshot struct {
	Slot       int64
	Oracle     []byte
	BaseVault  []byte
	QuoteVault []byte
}

// Source fetches account snapshots for one market.
type Source struct {
	rpc        solana.RPCClient
	oracle     string
	baseVault  string
	quoteVault string
}

// NewSource validates the addresses and builds a source. The vault pair is
// optional: pass empty strings to run on oracle data alone.
func NewSource(rpc solana.RPCClient, oracle, baseVault, quoteVault string) (*Source, error) {
	if err := ValidateAddress(oracle); err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	hasPool := baseVault != "" || quoteVault != ""
	if hasPool {
		if err := ValidateAddress(baseVault); err != nil {
			return nil, fmt.Errorf("base vault: %w", err)
		}
		if err := ValidateAddress(quoteVault); err != nil {
			return nil, fmt.Errorf("quote vault: %w", err)
		}
	}
	return &Source{
		rpc:        rpc,
		oracle:     oracle,
		baseVault:  baseVault,
		quoteVault: quoteVault,
	}, nil
}

// HasPool reports whether the source watches a vault pair.
func (s *Source) HasPool() bool { return s.baseVault != "" }

// Fetch retrieves all watched accounts in one RPC round trip so every
// buffer in the snapshot reflects the same slot.
func (s *Source) Fetch(ctx context.Context) (*Snapshot, error) {
	keys := []string{s.oracle}
	if s.HasPool() {
		keys = append(keys, s.baseVault, s.quoteVault)
	}

	start := time.Now()
	infos, err := s.rpc.GetMultipleAccounts(ctx, keys)
	observability.RecordRPCLatency("getMultipleAccounts", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch accounts: %w", err)
	}
	if len(infos) != len(keys) {
		return nil, fmt.Errorf("got %d accounts for %d keys", len(infos), len(keys))
	}
	for i, info := range infos {
		if info == nil {
			return nil, fmt.Errorf("%s: %w", keys[i], ErrAccountMissing)
		}
	}

	snap := &Snapshot{
		Slot:   infos[0].Slot,
		Oracle: infos[0].Data,
	}
	if s.HasPool() {
		snap.BaseVault = infos[1].Data
		snap.QuoteVault = infos[2].Data
	}
	return snap, nil
}
