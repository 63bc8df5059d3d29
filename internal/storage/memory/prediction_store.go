package memory

import (
	"context"
	"sort"
	"sync"

	"solana-predictor/internal/storage"
)

type predictionKey struct {
	modelID string
	slot    int64
}

// PredictionStore is an in-memory implementation of storage.PredictionStore.
type PredictionStore struct {
	mu   sync.RWMutex
	data map[predictionKey]*storage.PredictionRecord
}

// NewPredictionStore creates a new in-memory prediction store.
func NewPredictionStore() *PredictionStore {
	return &PredictionStore{
		data: make(map[predictionKey]*storage.PredictionRecord),
	}
}

// Insert adds one prediction. Returns ErrDuplicateKey if (model_id, slot) exists.
func (s *PredictionStore) Insert(_ context.Context, p *storage.PredictionRecord) error {
	if p == nil || p.ModelID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(p)
}

// InsertBulk adds multiple predictions. Fails entire batch on any duplicate.
func (s *PredictionStore) InsertBulk(_ context.Context, preds []*storage.PredictionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before touching the map
	seen := make(map[predictionKey]struct{}, len(preds))
	for _, p := range preds {
		if p == nil || p.ModelID == "" {
			return storage.ErrInvalidInput
		}
		k := predictionKey{p.ModelID, p.Slot}
		if _, dup := seen[k]; dup {
			return storage.ErrDuplicateKey
		}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, p := range preds {
		if err := s.insertLocked(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *PredictionStore) insertLocked(p *storage.PredictionRecord) error {
	k := predictionKey{p.ModelID, p.Slot}
	if _, exists := s.data[k]; exists {
		return storage.ErrDuplicateKey
	}

	pCopy := *p
	pCopy.Features = append([]uint8(nil), p.Features...)
	s.data[k] = &pCopy
	return nil
}

// GetByModelID retrieves all predictions for a model, ordered by slot ASC.
func (s *PredictionStore) GetByModelID(_ context.Context, modelID string) ([]*storage.PredictionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.PredictionRecord
	for k, p := range s.data {
		if k.modelID == modelID {
			pCopy := *p
			pCopy.Features = append([]uint8(nil), p.Features...)
			result = append(result, &pCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Slot < result[j].Slot
	})

	return result, nil
}

// GetByTimeRange retrieves predictions for a model within [start, end] (inclusive).
func (s *PredictionStore) GetByTimeRange(_ context.Context, modelID string, start, end int64) ([]*storage.PredictionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.PredictionRecord
	for k, p := range s.data {
		if k.modelID == modelID && p.TimestampMs >= start && p.TimestampMs <= end {
			pCopy := *p
			pCopy.Features = append([]uint8(nil), p.Features...)
			result = append(result, &pCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.PredictionStore = (*PredictionStore)(nil)
