package storage

import "context"

// AccountRecord mirrors one on-chain account buffer. Data is always the
// whole buffer as fetched; partial updates are not representable.
type AccountRecord struct {
	Pubkey    string
	Data      []byte
	Slot      int64
	UpdatedAt int64 // unix ms
}

// AccountStore mirrors accumulator and scratch account buffers so a crank
// restart resumes from the last committed state.
type AccountStore interface {
	// Put stores the record, replacing any previous buffer for the pubkey.
	Put(ctx context.Context, rec *AccountRecord) error

	// Get retrieves the latest buffer for a pubkey. Returns ErrNotFound
	// if the account was never stored.
	Get(ctx context.Context, pubkey string) (*AccountRecord, error)
}

// PredictionRecord is one completed prediction cycle.
type PredictionRecord struct {
	ModelID     string
	Slot        int64
	TimestampMs int64
	Features    []uint8
	Score       int64
	Confidence  int64
	Direction   uint8 // 1 = UP, 0 = DOWN
	Wire        int64
}

// PredictionStore provides access to prediction history.
type PredictionStore interface {
	// Insert adds one prediction. Returns ErrDuplicateKey if
	// (model_id, slot) exists.
	Insert(ctx context.Context, p *PredictionRecord) error

	// InsertBulk adds multiple predictions. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, preds []*PredictionRecord) error

	// GetByModelID retrieves all predictions for a model, ordered by slot ASC.
	GetByModelID(ctx context.Context, modelID string) ([]*PredictionRecord, error)

	// GetByTimeRange retrieves predictions for a model within [start, end]
	// milliseconds (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, modelID string, start, end int64) ([]*PredictionRecord, error)
}
