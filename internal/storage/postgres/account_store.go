package postgres

import (
	"context"
	"fmt"
	"time"

	"solana-predictor/internal/observability"
	"solana-predictor/internal/storage"
)

// AccountStore implements storage.AccountStore using PostgreSQL.
type AccountStore struct {
	pool *Pool
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(pool *Pool) *AccountStore {
	return &AccountStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AccountStore = (*AccountStore)(nil)

// Put stores the record, replacing any previous buffer for the pubkey.
// Account mirrors are whole-buffer replacements, so this is an upsert.
func (s *AccountStore) Put(ctx context.Context, rec *storage.AccountRecord) error {
	if rec == nil || rec.Pubkey == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO account_mirror (pubkey, data, slot, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pubkey) DO UPDATE SET
			data = EXCLUDED.data,
			slot = EXCLUDED.slot,
			updated_at = EXCLUDED.updated_at
	`

	start := time.Now()
	_, err := s.pool.Exec(ctx, query, rec.Pubkey, rec.Data, rec.Slot, rec.UpdatedAt)
	observability.RecordDBQuery("postgres", "put_account", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("put account mirror: %w", err)
	}
	return nil
}

// Get retrieves the latest buffer for a pubkey. Returns ErrNotFound if the
// account was never stored.
func (s *AccountStore) Get(ctx context.Context, pubkey string) (*storage.AccountRecord, error) {
	query := `
		SELECT pubkey, data, slot, updated_at
		FROM account_mirror
		WHERE pubkey = $1
	`

	rec := &storage.AccountRecord{}
	start := time.Now()
	err := s.pool.QueryRow(ctx, query, pubkey).Scan(
		&rec.Pubkey, &rec.Data, &rec.Slot, &rec.UpdatedAt,
	)
	observability.RecordDBQuery("postgres", "get_account", time.Since(start).Seconds(), err)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get account mirror: %w", err)
	}
	return rec, nil
}
