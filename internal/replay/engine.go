// Package replay re-runs recorded market data through the pure pipeline.
// Because every transform is integer arithmetic, a replay from the same
// ticks is bit-identical to the live run, which makes stored predictions
// independently checkable.
package replay

import (
	"fmt"

	"solana-predictor/internal/accum"
	"solana-predictor/internal/nn"
)

// Tick is one recorded market observation.
type Tick struct {
	Slot       int64
	PriceCents uint32
	Market     *accum.MarketData // nil for oracle-only replays
}

// Outcome is the pipeline result for one tick.
type Outcome struct {
	Slot     int64
	Features []uint8
	Result   nn.Result
	Wire     int64
}

// Engine replays ticks through an accumulator and model.
type Engine struct {
	version accum.Version
	model   *nn.Model
}

// NewEngine creates a replay engine.
func NewEngine(version accum.Version, model *nn.Model) *Engine {
	return &Engine{version: version, model: model}
}

// Run replays all ticks in order from a zero accumulator state and returns
// one outcome per tick.
func (e *Engine) Run(ticks []Tick) ([]Outcome, error) {
	state, err := accum.Decode(e.version, nil)
	if err != nil {
		return nil, fmt.Errorf("init state: %w", err)
	}

	outcomes := make([]Outcome, 0, len(ticks))
	for i, tick := range ticks {
		state = accum.Update(state, tick.PriceCents, tick.Market)

		features, err := e.features(state)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", i, err)
		}

		result, err := e.model.Evaluate(features)
		if err != nil {
			return nil, fmt.Errorf("tick %d: evaluate: %w", i, err)
		}

		outcomes = append(outcomes, Outcome{
			Slot:     tick.Slot,
			Features: features,
			Result:   result,
			Wire:     result.Wire(),
		})
	}
	return outcomes, nil
}

func (e *Engine) features(state accum.State) ([]uint8, error) {
	switch inputs := e.model.Topology().Inputs; inputs {
	case 4:
		return accum.Features4(state), nil
	case 6:
		return accum.Features6(state), nil
	default:
		return nil, fmt.Errorf("no feature mapping for %d model inputs", inputs)
	}
}
