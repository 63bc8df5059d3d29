// Package nn evaluates small quantized feed-forward networks with
// integer-only arithmetic. Weights are signed 8-bit; the fixed-point
// convention divides each product by 128 before summation, which does not
// distribute over the sum for mixed-sign terms and therefore must be
// applied per term.
package nn

import (
	"errors"
	"fmt"

	"solana-predictor/internal/qmath"
)

// Errors returned when a model and its inputs disagree.
var (
	ErrBlobSize     = errors.New("weight blob size does not match topology")
	ErrFeatureCount = errors.New("feature count does not match topology")
	ErrHiddenCount  = errors.New("hidden vector length does not match topology")
)

// Direction is the binary trading signal.
type Direction int

const (
	Down Direction = 0
	Up   Direction = 1
)

func (d Direction) String() string {
	if d == Up {
		return "UP"
	}
	return "DOWN"
}

// Topology fixes the layer sizes of a deployed model.
type Topology struct {
	Inputs  int
	Hidden  int
	Outputs int
}

// BlobSize returns the expected weight blob length:
// hidden*inputs + hidden + outputs*hidden + outputs.
func (t Topology) BlobSize() int {
	return t.Hidden*t.Inputs + t.Hidden + t.Outputs*t.Hidden + t.Outputs
}

// InputConvention tags how feature bytes enter the dot product. It is a
// property of the deployed model, never inferred from data.
type InputConvention int

const (
	// CenteredInput shifts each feature byte by -128 before multiplying.
	CenteredInput InputConvention = iota
	// RawInput uses feature bytes directly as unsigned [0,255] values.
	RawInput
)

// Arithmetic tags the accumulation variant.
type Arithmetic int

const (
	// Scaled128 floor-divides every product by 128 before summation and
	// re-quantizes hidden activations to the unsigned byte range.
	Scaled128 Arithmetic = iota
	// RawAccumulate sums raw integer products with no normalization; hidden
	// activations get only a zero floor, and any rescaling is left to the
	// caller.
	RawAccumulate
)

// WeightOrder tags how a layer's weight segment is laid out.
type WeightOrder int

const (
	// UnitMajor stores all weights of one unit contiguously: W[unit*fan_in+input].
	UnitMajor WeightOrder = iota
	// InputMajor interleaves by input: W[input*units+unit].
	InputMajor
)

// Spec is the explicit descriptor of a deployed model. A weight blob is
// valid only under the descriptor it was trained for; dispatching is always
// by descriptor, never by sniffing the data.
type Spec struct {
	Topology    Topology
	Input       InputConvention
	Arith       Arithmetic
	HiddenOrder WeightOrder
	OutputOrder WeightOrder
}

// Model is a parsed, immutable weight set bound to its descriptor.
type Model struct {
	spec Spec

	hiddenW []int64 // hidden*inputs
	hiddenB []int64 // hidden
	outW    []int64 // outputs*hidden
	outB    []int64 // outputs
}

// New parses a weight blob under the given descriptor. Blob layout is
// always: hidden weights, hidden biases, output weights, output biases.
// Every byte is reinterpreted as signed 8-bit.
func New(spec Spec, blob []byte) (*Model, error) {
	t := spec.Topology
	if t.Inputs <= 0 || t.Hidden <= 0 || t.Outputs <= 0 {
		return nil, fmt.Errorf("invalid topology %+v", t)
	}
	if len(blob) != t.BlobSize() {
		return nil, fmt.Errorf("topology %dx%dx%d wants %d bytes, got %d: %w",
			t.Inputs, t.Hidden, t.Outputs, t.BlobSize(), len(blob), ErrBlobSize)
	}

	decoded := make([]int64, len(blob))
	for i, b := range blob {
		decoded[i] = qmath.SignedByte(b)
	}

	hw := t.Hidden * t.Inputs
	ow := t.Outputs * t.Hidden
	return &Model{
		spec:    spec,
		hiddenW: decoded[:hw],
		hiddenB: decoded[hw : hw+t.Hidden],
		outW:    decoded[hw+t.Hidden : hw+t.Hidden+ow],
		outB:    decoded[hw+t.Hidden+ow:],
	}, nil
}

// Spec returns the model descriptor.
func (m *Model) Spec() Spec { return m.spec }

// Topology returns the model layer sizes.
func (m *Model) Topology() Topology { return m.spec.Topology }

func (m *Model) input(f uint8) int64 {
	if m.spec.Input == CenteredInput {
		return int64(f) - 128
	}
	return int64(f)
}

func (m *Model) hiddenWeight(unit, input int) int64 {
	t := m.spec.Topology
	if m.spec.HiddenOrder == UnitMajor {
		return m.hiddenW[unit*t.Inputs+input]
	}
	return m.hiddenW[input*t.Hidden+unit]
}

func (m *Model) outputWeight(out, hidden int) int64 {
	t := m.spec.Topology
	if m.spec.OutputOrder == UnitMajor {
		return m.outW[out*t.Hidden+hidden]
	}
	return m.outW[hidden*t.Outputs+out]
}

func (m *Model) term(x, w int64) int64 {
	if m.spec.Arith == Scaled128 {
		return qmath.FloorDiv(x*w, 128)
	}
	return x * w
}
