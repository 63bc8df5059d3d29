package replay

import (
	"context"
	"errors"
	"fmt"

	"solana-predictor/internal/nn"
	"solana-predictor/internal/storage"
)

// ErrNoPredictions is returned when a model has no stored history to verify.
var ErrNoPredictions = errors.New("no predictions stored for model")

// Divergence describes one stored prediction that does not match its
// recomputation.
type Divergence struct {
	Slot       int64
	Field      string
	Stored     int64
	Recomputed int64
}

func (d Divergence) String() string {
	return fmt.Sprintf("slot %d: %s stored=%d recomputed=%d", d.Slot, d.Field, d.Stored, d.Recomputed)
}

// VerificationResult summarizes a verification pass.
type VerificationResult struct {
	ModelID     string
	Checked     int
	Divergences []Divergence
}

// OK reports whether every checked prediction matched.
func (r *VerificationResult) OK() bool {
	return len(r.Divergences) == 0
}

// Verifier recomputes stored predictions from their recorded feature
// vectors and flags any mismatch.
type Verifier struct {
	predictions storage.PredictionStore
	model       *nn.Model
}

// NewVerifier creates a Verifier.
func NewVerifier(predictions storage.PredictionStore, model *nn.Model) *Verifier {
	return &Verifier{predictions: predictions, model: model}
}

// VerifyModel checks every stored prediction for a model.
func (v *Verifier) VerifyModel(ctx context.Context, modelID string) (*VerificationResult, error) {
	recs, err := v.predictions.GetByModelID(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s: %w", modelID, ErrNoPredictions)
	}

	result := &VerificationResult{ModelID: modelID}
	for _, rec := range recs {
		result.Checked++

		recomputed, err := v.model.Evaluate(rec.Features)
		if err != nil {
			return nil, fmt.Errorf("slot %d: evaluate: %w", rec.Slot, err)
		}

		if recomputed.Score != rec.Score {
			result.Divergences = append(result.Divergences, Divergence{
				Slot: rec.Slot, Field: "score", Stored: rec.Score, Recomputed: recomputed.Score,
			})
		}
		if recomputed.HasConfidence && recomputed.Confidence != rec.Confidence {
			result.Divergences = append(result.Divergences, Divergence{
				Slot: rec.Slot, Field: "confidence", Stored: rec.Confidence, Recomputed: recomputed.Confidence,
			})
		}
		if int64(recomputed.Direction) != int64(rec.Direction) {
			result.Divergences = append(result.Divergences, Divergence{
				Slot: rec.Slot, Field: "direction", Stored: int64(rec.Direction), Recomputed: int64(recomputed.Direction),
			})
		}
		if recomputed.Wire() != rec.Wire {
			result.Divergences = append(result.Divergences, Divergence{
				Slot: rec.Slot, Field: "wire", Stored: rec.Wire, Recomputed: recomputed.Wire(),
			})
		}
	}

	return result, nil
}
