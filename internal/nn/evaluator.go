package nn

import (
	"fmt"

	"solana-predictor/internal/qmath"
)

// Result is the outcome of a full evaluation. Score is the raw first
// output; Direction is Up when Score > 0, Down otherwise (zero is not up).
// Confidence carries the optional second linear unit.
type Result struct {
	Score         int64
	Direction     Direction
	Confidence    int64
	HasConfidence bool
}

// Wire encodes the result as the single integer the invocation convention
// requires: score*1000+confidence for two-output models, the bare 0/1
// direction code otherwise.
func (r Result) Wire() int64 {
	if r.HasConfidence {
		return r.Score*1000 + r.Confidence
	}
	return int64(r.Direction)
}

// PreHidden computes pre-activation sums for hidden units [lo, hi).
// Exposed separately from activation so a staged evaluation can defer ReLU
// across an invocation boundary.
func (m *Model) PreHidden(features []uint8, lo, hi int) ([]int64, error) {
	t := m.spec.Topology
	if len(features) != t.Inputs {
		return nil, fmt.Errorf("got %d features for %d inputs: %w",
			len(features), t.Inputs, ErrFeatureCount)
	}
	if lo < 0 || hi > t.Hidden || lo >= hi {
		return nil, fmt.Errorf("hidden range [%d,%d) outside 0..%d", lo, hi, t.Hidden)
	}

	out := make([]int64, hi-lo)
	for j := lo; j < hi; j++ {
		sum := m.hiddenB[j]
		for i, f := range features {
			sum += m.term(m.input(f), m.hiddenWeight(j, i))
		}
		out[j-lo] = sum
	}
	return out, nil
}

// Activate applies the model's hidden activation: ReLU, then for Scaled128
// a clamp to the unsigned byte range. Activations are re-quantized unsigned
// even though weights are signed; the asymmetry is intentional.
func (m *Model) Activate(v int64) int64 {
	if m.spec.Arith == Scaled128 {
		return qmath.ClampByte(qmath.ReLU(v))
	}
	return qmath.ReLU(v)
}

// Hidden computes the full activated hidden vector.
func (m *Model) Hidden(features []uint8) ([]int64, error) {
	pre, err := m.PreHidden(features, 0, m.spec.Topology.Hidden)
	if err != nil {
		return nil, err
	}
	for i, v := range pre {
		pre[i] = m.Activate(v)
	}
	return pre, nil
}

// Output computes the linear output units from an activated hidden vector.
// No activation is applied to outputs.
func (m *Model) Output(hidden []int64) ([]int64, error) {
	t := m.spec.Topology
	if len(hidden) != t.Hidden {
		return nil, fmt.Errorf("got %d hidden values for %d units: %w",
			len(hidden), t.Hidden, ErrHiddenCount)
	}
	out := make([]int64, t.Outputs)
	for o := 0; o < t.Outputs; o++ {
		sum := m.outB[o]
		for j, h := range hidden {
			sum += m.term(h, m.outputWeight(o, j))
		}
		out[o] = sum
	}
	return out, nil
}

// Evaluate runs the whole network in one pass.
func (m *Model) Evaluate(features []uint8) (Result, error) {
	hidden, err := m.Hidden(features)
	if err != nil {
		return Result{}, err
	}
	outputs, err := m.Output(hidden)
	if err != nil {
		return Result{}, err
	}
	return ResultFrom(outputs), nil
}

// ResultFrom builds a Result from raw output units (direction score first,
// optional confidence second).
func ResultFrom(outputs []int64) Result {
	r := Result{Score: outputs[0]}
	if r.Score > 0 {
		r.Direction = Up
	}
	if len(outputs) > 1 {
		r.Confidence = outputs[1]
		r.HasConfidence = true
	}
	return r
}
