package stage

import (
	"encoding/binary"
	"fmt"

	"solana-predictor/internal/account"
	"solana-predictor/internal/nn"
	"solana-predictor/internal/qmath"
)

// Runner drives the stage state machine. Each Run* call performs exactly
// one transition and persists its result before returning.
//
// The baseline scratch protocol has no way to detect out-of-order or
// repeated stage invocations: it would silently produce a wrong but
// plausible result. The runner therefore keeps a one-byte stage cursor in
// its own region (the scratch layout itself stays unchanged) and rejects
// unexpected transitions. WithoutMarker restores the unguarded baseline
// behavior.
type Runner struct {
	plan    Plan
	enforce bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithoutMarker disables stage-order enforcement, reproducing the baseline
// protocol that trusts the external scheduler entirely.
func WithoutMarker() Option {
	return func(r *Runner) { r.enforce = false }
}

// NewRunner validates the plan and builds a runner.
func NewRunner(plan Plan, opts ...Option) (*Runner, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{plan: plan, enforce: true}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Plan returns the runner's plan.
func (r *Runner) Plan() Plan { return r.plan }

// RunEncode executes encode stage `stage` (0-based): it computes the
// hidden units the stage owns, merges them into the scratch buffer and
// commits the whole buffer, leaving every other slot byte-identical.
func (r *Runner) RunEncode(stage int, features []uint8, scratch, cursor *account.Region) error {
	if stage < 0 || stage >= r.plan.EncodeStages {
		return fmt.Errorf("encode stage %d of %d: %w", stage, r.plan.EncodeStages, ErrBadPlan)
	}
	if err := r.checkCursor(cursor, stage); err != nil {
		return err
	}

	buf := scratch.Bytes()
	if len(buf) < r.plan.ScratchSize() {
		return fmt.Errorf("scratch has %d bytes, plan needs %d: %w",
			len(buf), r.plan.ScratchSize(), ErrScratchSize)
	}

	lo, hi := r.plan.Range(stage)
	pre, err := r.plan.Model.PreHidden(features, lo, hi)
	if err != nil {
		return err
	}

	final := stage == r.plan.EncodeStages-1
	for j := lo; j < hi; j++ {
		v := pre[j-lo]
		if r.plan.DeferredReLU && !final {
			// Persist the raw pre-activation; activation belongs to the
			// stage that last computes the unit.
			r.putSigned16(buf, j, v)
			continue
		}
		r.putActivated(buf, j, r.plan.Model.Activate(v))
	}

	if r.plan.DeferredReLU && final {
		// This stage is the last to touch the deferred units: activate
		// them in place.
		for j := 0; j < lo; j++ {
			raw := int64(int16(binary.LittleEndian.Uint16(buf[j*2:])))
			r.putActivated(buf, j, r.plan.Model.Activate(raw))
		}
	}

	if err := scratch.Commit(buf); err != nil {
		return err
	}
	return r.advanceCursor(cursor, stage+1)
}

// RunDecode executes the decode stage: it reads the completed hidden
// vector from scratch and computes the output units.
func (r *Runner) RunDecode(scratch, cursor *account.Region) (nn.Result, error) {
	if err := r.checkCursor(cursor, r.plan.EncodeStages); err != nil {
		return nn.Result{}, err
	}

	buf := scratch.Bytes()
	if len(buf) < r.plan.ScratchSize() {
		return nn.Result{}, fmt.Errorf("scratch has %d bytes, plan needs %d: %w",
			len(buf), r.plan.ScratchSize(), ErrScratchSize)
	}

	hiddenUnits := r.plan.Model.Topology().Hidden
	hidden := make([]int64, hiddenUnits)
	for j := 0; j < hiddenUnits; j++ {
		if r.plan.ScratchWidth == Width1 {
			hidden[j] = int64(buf[j])
		} else {
			hidden[j] = int64(binary.LittleEndian.Uint16(buf[j*2:]))
		}
	}

	outputs, err := r.plan.Model.Output(hidden)
	if err != nil {
		return nn.Result{}, err
	}
	// Cycle complete; rewind the cursor for the next one.
	if err := r.advanceCursor(cursor, 0); err != nil {
		return nn.Result{}, err
	}
	return nn.ResultFrom(outputs), nil
}

// putActivated writes an activated hidden value at its slot, clamped to
// the slot width.
func (r *Runner) putActivated(buf []byte, unit int, v int64) {
	if r.plan.ScratchWidth == Width1 {
		buf[unit] = byte(qmath.ClampByte(v))
		return
	}
	binary.LittleEndian.PutUint16(buf[unit*2:], uint16(qmath.ClampUint16(v)))
}

// putSigned16 writes a raw pre-activation as signed int16, saturating at
// the representable range.
func (r *Runner) putSigned16(buf []byte, unit int, v int64) {
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	binary.LittleEndian.PutUint16(buf[unit*2:], uint16(int16(v)))
}

func (r *Runner) checkCursor(cursor *account.Region, want int) error {
	if !r.enforce || cursor == nil {
		return nil
	}
	buf := cursor.Bytes()
	got := 0
	if len(buf) > 0 {
		got = int(buf[0])
	}
	if got != want {
		return fmt.Errorf("cursor at stage %d, expected %d: %w", got, want, ErrOutOfOrder)
	}
	return nil
}

func (r *Runner) advanceCursor(cursor *account.Region, next int) error {
	if !r.enforce || cursor == nil {
		return nil
	}
	return cursor.Commit([]byte{byte(next)})
}
