package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-predictor/internal/observability"
	"solana-predictor/internal/storage"
)

// PredictionStore implements storage.PredictionStore using ClickHouse.
// MergeTree does not enforce uniqueness at insert time, so duplicates are
// detected with an explicit existence check before each insert.
type PredictionStore struct {
	conn *Conn
}

// NewPredictionStore creates a new PredictionStore.
func NewPredictionStore(conn *Conn) *PredictionStore {
	return &PredictionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PredictionStore = (*PredictionStore)(nil)

// Insert adds one prediction. Returns ErrDuplicateKey if (model_id, slot) exists.
func (s *PredictionStore) Insert(ctx context.Context, p *storage.PredictionRecord) error {
	if p == nil || p.ModelID == "" {
		return storage.ErrInvalidInput
	}
	return s.InsertBulk(ctx, []*storage.PredictionRecord{p})
}

// InsertBulk adds multiple predictions. Fails entire batch on any duplicate.
func (s *PredictionStore) InsertBulk(ctx context.Context, preds []*storage.PredictionRecord) error {
	if len(preds) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		modelID string
		slot    int64
	}
	seen := make(map[key]struct{}, len(preds))
	for _, p := range preds {
		if p == nil || p.ModelID == "" {
			return storage.ErrInvalidInput
		}
		k := key{p.ModelID, p.Slot}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range preds {
		exists, err := s.exists(ctx, p.ModelID, p.Slot)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO predictions (
			model_id, slot, timestamp_ms, features, score, confidence, direction, wire
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range preds {
		err = batch.Append(
			p.ModelID, uint64(p.Slot), uint64(p.TimestampMs),
			p.Features, p.Score, p.Confidence, p.Direction, p.Wire,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	start := time.Now()
	err = batch.Send()
	observability.RecordDBQuery("clickhouse", "insert_predictions", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// exists checks whether a (model_id, slot) row is already present.
func (s *PredictionStore) exists(ctx context.Context, modelID string, slot int64) (bool, error) {
	query := `SELECT count() FROM predictions WHERE model_id = ? AND slot = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, modelID, uint64(slot)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByModelID retrieves all predictions for a model, ordered by slot ASC.
func (s *PredictionStore) GetByModelID(ctx context.Context, modelID string) ([]*storage.PredictionRecord, error) {
	query := `
		SELECT model_id, slot, timestamp_ms, features, score, confidence, direction, wire
		FROM predictions
		WHERE model_id = ?
		ORDER BY slot ASC
	`

	rows, err := s.conn.Query(ctx, query, modelID)
	if err != nil {
		return nil, fmt.Errorf("get predictions by model: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// GetByTimeRange retrieves predictions for a model within [start, end]
// milliseconds (inclusive), ordered by timestamp ASC.
func (s *PredictionStore) GetByTimeRange(ctx context.Context, modelID string, start, end int64) ([]*storage.PredictionRecord, error) {
	query := `
		SELECT model_id, slot, timestamp_ms, features, score, confidence, direction, wire
		FROM predictions
		WHERE model_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, modelID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("get predictions by time range: %w", err)
	}
	defer rows.Close()

	return scanPredictions(rows)
}

// rowScanner abstracts driver.Rows for scanning.
type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanPredictions(rows rowScanner) ([]*storage.PredictionRecord, error) {
	var result []*storage.PredictionRecord
	for rows.Next() {
		var (
			p           storage.PredictionRecord
			slot        uint64
			timestampMs uint64
		)
		if err := rows.Scan(
			&p.ModelID, &slot, &timestampMs, &p.Features,
			&p.Score, &p.Confidence, &p.Direction, &p.Wire,
		); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		p.Slot = int64(slot)
		p.TimestampMs = int64(timestampMs)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate predictions: %w", err)
	}
	return result, nil
}
