// Package stage splits a network evaluation across ordered invocations
// once a single invocation's budget cannot cover the whole forward pass.
// Partial encode stages each own a contiguous range of hidden units and
// communicate through a persistent scratch region; a final decode stage
// reads the completed hidden vector and emits the signal.
package stage

import (
	"errors"
	"fmt"

	"solana-predictor/internal/nn"
)

// Scratch byte widths.
const (
	// Width1 stores one pre-clamped [0,255] byte per hidden unit.
	Width1 = 1
	// Width2 stores a little-endian 16-bit slot per unit. Combined with
	// DeferredReLU it lets a transient negative pre-activation survive a
	// stage boundary as signed int16.
	Width2 = 2
)

// Errors returned by plan validation and stage execution.
var (
	ErrBadPlan     = errors.New("invalid stage plan")
	ErrScratchSize = errors.New("scratch buffer does not match plan")
	ErrOutOfOrder  = errors.New("stage executed out of order")
)

// Plan fixes how one model's evaluation is partitioned.
type Plan struct {
	Model *nn.Model

	// EncodeStages is the number of partial-encode invocations; hidden
	// units are split into that many contiguous ranges.
	EncodeStages int

	// ScratchWidth is bytes per hidden unit in the scratch region.
	ScratchWidth int

	// DeferredReLU persists raw signed pre-activations from intermediate
	// stages; the final encode stage activates the whole vector. Requires
	// Width2.
	DeferredReLU bool
}

// Validate checks plan consistency.
func (p Plan) Validate() error {
	if p.Model == nil {
		return fmt.Errorf("plan has no model: %w", ErrBadPlan)
	}
	hidden := p.Model.Topology().Hidden
	if p.EncodeStages < 1 || p.EncodeStages > hidden {
		return fmt.Errorf("%d encode stages for %d hidden units: %w",
			p.EncodeStages, hidden, ErrBadPlan)
	}
	if p.ScratchWidth != Width1 && p.ScratchWidth != Width2 {
		return fmt.Errorf("scratch width %d: %w", p.ScratchWidth, ErrBadPlan)
	}
	if p.DeferredReLU && p.ScratchWidth != Width2 {
		return fmt.Errorf("deferred ReLU needs 2-byte scratch: %w", ErrBadPlan)
	}
	return nil
}

// ScratchSize returns the scratch region size: hidden units × byte width.
func (p Plan) ScratchSize() int {
	return p.Model.Topology().Hidden * p.ScratchWidth
}

// Range returns the half-open hidden-unit range owned by an encode stage.
// Units are split as evenly as possible, earlier stages taking the
// remainder.
func (p Plan) Range(stage int) (lo, hi int) {
	hidden := p.Model.Topology().Hidden
	base := hidden / p.EncodeStages
	rem := hidden % p.EncodeStages
	for s := 0; s <= stage; s++ {
		n := base
		if s < rem {
			n++
		}
		lo = hi
		hi += n
	}
	return lo, hi
}
