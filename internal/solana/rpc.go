package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface the predictor needs.
// The pipeline only ever reads whole account buffers; transaction and
// block queries are out of scope.
type RPCClient interface {
	// GetAccountInfo retrieves one account by public key.
	// Returns nil if the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetMultipleAccounts retrieves several accounts in one request,
	// preserving order. Missing accounts come back as nil entries.
	GetMultipleAccounts(ctx context.Context, pubkeys []string) ([]*AccountInfo, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)
}

// AccountInfo represents a Solana account with its raw data decoded.
type AccountInfo struct {
	Pubkey     string
	Lamports   uint64
	Owner      string
	Data       []byte
	Executable bool
	RentEpoch  uint64
	Slot       int64
}
