package memory

import (
	"context"
	"errors"
	"testing"

	"solana-predictor/internal/storage"
)

func samplePrediction(slot int64) *storage.PredictionRecord {
	return &storage.PredictionRecord{
		ModelID:     "direction-v1",
		Slot:        slot,
		TimestampMs: 1704067200000 + slot,
		Features:    []uint8{133, 140, 50, 41, 133, 170},
		Score:       42,
		Direction:   1,
		Wire:        1,
	}
}

func TestPredictionStore_InsertAndGetByModelID(t *testing.T) {
	store := NewPredictionStore()
	ctx := context.Background()

	// Insert out of slot order
	for _, slot := range []int64{30, 10, 20} {
		if err := store.Insert(ctx, samplePrediction(slot)); err != nil {
			t.Fatalf("Insert slot %d failed: %v", slot, err)
		}
	}

	got, err := store.GetByModelID(ctx, "direction-v1")
	if err != nil {
		t.Fatalf("GetByModelID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 predictions, got %d", len(got))
	}
	for i, wantSlot := range []int64{10, 20, 30} {
		if got[i].Slot != wantSlot {
			t.Errorf("position %d: slot %d, want %d (ascending order)", i, got[i].Slot, wantSlot)
		}
	}
}

func TestPredictionStore_DuplicateKey(t *testing.T) {
	store := NewPredictionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, samplePrediction(10)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, samplePrediction(10)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	// Same slot, different model is fine.
	other := samplePrediction(10)
	other.ModelID = "trend-demo"
	if err := store.Insert(ctx, other); err != nil {
		t.Errorf("different model same slot: %v", err)
	}
}

func TestPredictionStore_InsertBulkAtomic(t *testing.T) {
	store := NewPredictionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, samplePrediction(20)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Batch contains a record that collides with slot 20: nothing from the
	// batch may land.
	batch := []*storage.PredictionRecord{
		samplePrediction(5),
		samplePrediction(20),
		samplePrediction(25),
	}
	if err := store.InsertBulk(ctx, batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	got, _ := store.GetByModelID(ctx, "direction-v1")
	if len(got) != 1 {
		t.Errorf("failed batch must not partially apply: %d records", len(got))
	}
}

func TestPredictionStore_InsertBulkIntraBatchDuplicate(t *testing.T) {
	store := NewPredictionStore()

	batch := []*storage.PredictionRecord{
		samplePrediction(1),
		samplePrediction(1),
	}
	if err := store.InsertBulk(context.Background(), batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestPredictionStore_GetByTimeRange(t *testing.T) {
	store := NewPredictionStore()
	ctx := context.Background()

	for _, slot := range []int64{10, 20, 30, 40} {
		if err := store.Insert(ctx, samplePrediction(slot)); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	base := int64(1704067200000)
	got, err := store.GetByTimeRange(ctx, "direction-v1", base+20, base+30)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 predictions in range, got %d", len(got))
	}
	if got[0].Slot != 20 || got[1].Slot != 30 {
		t.Errorf("range bounds are inclusive: got slots %d, %d", got[0].Slot, got[1].Slot)
	}
}

func TestPredictionStore_InvalidInput(t *testing.T) {
	store := NewPredictionStore()

	if err := store.Insert(context.Background(), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil record: expected ErrInvalidInput, got %v", err)
	}
	if err := store.Insert(context.Background(), &storage.PredictionRecord{Slot: 1}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty model id: expected ErrInvalidInput, got %v", err)
	}
}
