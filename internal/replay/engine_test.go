package replay

import (
	"context"
	"errors"
	"testing"

	"solana-predictor/internal/accum"
	"solana-predictor/internal/nn"
	"solana-predictor/internal/storage"
	"solana-predictor/internal/storage/memory"
)

func sampleTicks() []Tick {
	market := &accum.MarketData{DexPriceCents: 1900000, Liquidity: 30}
	return []Tick{
		{Slot: 1, PriceCents: 1894000, Market: market},
		{Slot: 2, PriceCents: 1900000, Market: market},
		{Slot: 3, PriceCents: 1897500, Market: market},
		{Slot: 4, PriceCents: 1910000, Market: market},
		{Slot: 5, PriceCents: 1905000, Market: market},
	}
}

func TestEngine_Deterministic(t *testing.T) {
	engine := NewEngine(accum.V2, nn.TrainedDirectionModel())

	first, err := engine.Run(sampleTicks())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	second, err := engine.Run(sampleTicks())
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}

	if len(first) != 5 {
		t.Fatalf("expected 5 outcomes, got %d", len(first))
	}
	for i := range first {
		if first[i].Wire != second[i].Wire || first[i].Result != second[i].Result {
			t.Errorf("outcome %d diverged between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestEngine_MatchesIncrementalState(t *testing.T) {
	engine := NewEngine(accum.V2, nn.TrainedDirectionModel())
	ticks := sampleTicks()

	outcomes, err := engine.Run(ticks)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// Recompute the final tick by hand and compare.
	state, _ := accum.Decode(accum.V2, nil)
	for _, tick := range ticks {
		state = accum.Update(state, tick.PriceCents, tick.Market)
	}
	want, err := nn.TrainedDirectionModel().Evaluate(accum.Features6(state))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	last := outcomes[len(outcomes)-1]
	if last.Result != want {
		t.Errorf("final outcome %+v != hand-rolled %+v", last.Result, want)
	}
}

func TestEngine_FourInputModel(t *testing.T) {
	engine := NewEngine(accum.V1, nn.DemoTrendModel())

	ticks := []Tick{
		{Slot: 1, PriceCents: 12000},
		{Slot: 2, PriceCents: 12100},
	}
	outcomes, err := engine.Run(ticks)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(outcomes[0].Features) != 4 {
		t.Errorf("expected 4 features for the trend model, got %d", len(outcomes[0].Features))
	}
}

func TestVerifier_CleanHistoryPasses(t *testing.T) {
	ctx := context.Background()
	model := nn.TrainedDirectionModel()
	store := memory.NewPredictionStore()

	engine := NewEngine(accum.V2, model)
	outcomes, err := engine.Run(sampleTicks())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, o := range outcomes {
		err := store.Insert(ctx, &storage.PredictionRecord{
			ModelID:   "direction-v1",
			Slot:      o.Slot,
			Features:  o.Features,
			Score:     o.Result.Score,
			Direction: uint8(o.Result.Direction),
			Wire:      o.Wire,
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	res, err := NewVerifier(store, model).VerifyModel(ctx, "direction-v1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.OK() {
		t.Errorf("clean history flagged: %v", res.Divergences)
	}
	if res.Checked != len(outcomes) {
		t.Errorf("checked %d, want %d", res.Checked, len(outcomes))
	}
}

func TestVerifier_DetectsTamperedScore(t *testing.T) {
	ctx := context.Background()
	model := nn.TrainedDirectionModel()
	store := memory.NewPredictionStore()

	features := []uint8{128, 128, 128, 128, 128, 128}
	honest, err := model.Evaluate(features)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	err = store.Insert(ctx, &storage.PredictionRecord{
		ModelID:  "direction-v1",
		Slot:     7,
		Features: features,
		Score:    honest.Score + 1, // tampered
		Wire:     honest.Wire(),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	res, err := NewVerifier(store, model).VerifyModel(ctx, "direction-v1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.OK() {
		t.Fatal("tampered score not detected")
	}
	if res.Divergences[0].Field != "score" {
		t.Errorf("first divergence = %v, want score", res.Divergences[0])
	}
}

func TestVerifier_EmptyHistory(t *testing.T) {
	store := memory.NewPredictionStore()
	_, err := NewVerifier(store, nn.TrainedDirectionModel()).VerifyModel(context.Background(), "ghost")
	if !errors.Is(err, ErrNoPredictions) {
		t.Errorf("got %v, want ErrNoPredictions", err)
	}
}
