// Package crank drives the prediction pipeline: fetch account buffers,
// update the rolling accumulator, run the staged network evaluation and
// record the resulting signal.
package crank

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"solana-predictor/internal/account"
	"solana-predictor/internal/accum"
	"solana-predictor/internal/feed"
	"solana-predictor/internal/nn"
	"solana-predictor/internal/observability"
	"solana-predictor/internal/oracle"
	"solana-predictor/internal/stage"
	"solana-predictor/internal/storage"
)

// Well-known store keys for the crank's own state buffers. On chain these
// would be separate accounts owned by the program; off chain they are rows
// in the account mirror.
const (
	accumKeySuffix   = ":accum"
	scratchKeySuffix = ":scratch"
	cursorKeySuffix  = ":cursor"
)

// Crank owns one market's prediction loop.
type Crank struct {
	source      *feed.Source
	accounts    storage.AccountStore
	predictions storage.PredictionStore
	runner      *stage.Runner
	modelID     string
	version     accum.Version
}

// Options for creating a Crank.
type Options struct {
	Source      *feed.Source
	Accounts    storage.AccountStore
	Predictions storage.PredictionStore
	Runner      *stage.Runner
	ModelID     string
	Version     accum.Version
}

// New creates a new Crank.
func New(opts Options) (*Crank, error) {
	if opts.Source == nil || opts.Accounts == nil || opts.Runner == nil {
		return nil, fmt.Errorf("source, accounts and runner are required")
	}
	if opts.ModelID == "" {
		return nil, fmt.Errorf("model id is required")
	}
	return &Crank{
		source:      opts.Source,
		accounts:    opts.Accounts,
		predictions: opts.Predictions,
		runner:      opts.Runner,
		modelID:     opts.ModelID,
		version:     opts.Version,
	}, nil
}

// CycleResult contains the outcome of one full prediction cycle.
type CycleResult struct {
	Slot       int64
	PriceCents int64
	Features   []uint8
	Result     nn.Result
	Wire       int64
}

// RunCycle executes one full prediction cycle and returns the wire-encoded
// signal. Every persisted buffer is committed whole before the next step
// starts, so a crash leaves the state machine resumable.
func (c *Crank) RunCycle(ctx context.Context) (*CycleResult, error) {
	start := time.Now()
	res, err := c.runCycle(ctx)
	if err != nil {
		observability.RecordCycle("error", time.Since(start).Seconds())
		return nil, err
	}
	observability.RecordCycle("ok", time.Since(start).Seconds())
	observability.DefaultMetrics.LastSuccessfulCycle.Set(float64(time.Now().Unix()))
	return res, nil
}

func (c *Crank) runCycle(ctx context.Context) (*CycleResult, error) {
	snap, err := c.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	observability.UpdateHighestSlot(snap.Slot)

	sample, err := oracle.DecodePriceSample(snap.Oracle)
	if err != nil {
		observability.RecordDecodeError("oracle")
		return nil, fmt.Errorf("decode oracle: %w", err)
	}
	cents := sample.Cents()
	observability.UpdatePriceCents(cents)

	market, err := c.marketData(snap, cents)
	if err != nil {
		return nil, err
	}

	state, err := c.updateAccumulator(ctx, snap.Slot, cents, market)
	if err != nil {
		return nil, err
	}

	features, err := c.features(state)
	if err != nil {
		return nil, err
	}

	result, err := c.runStages(ctx, snap.Slot, features)
	if err != nil {
		return nil, err
	}

	cr := &CycleResult{
		Slot:       snap.Slot,
		PriceCents: cents,
		Features:   features,
		Result:     result,
		Wire:       result.Wire(),
	}

	if err := c.recordPrediction(ctx, cr); err != nil {
		return nil, err
	}

	log.Printf("[INFO] cycle slot=%d price_cents=%d direction=%d wire=%d",
		cr.Slot, cr.PriceCents, cr.Result.Direction, cr.Wire)
	return cr, nil
}

// marketData derives pool-side inputs for the V2 accumulator. When the
// pool's base reserve is drained the oracle price stands in for the DEX
// price so the spread feature degrades to neutral instead of failing.
func (c *Crank) marketData(snap *feed.Snapshot, oracleCents int64) (*accum.MarketData, error) {
	if c.version != accum.V2 || !c.source.HasPool() {
		return nil, nil
	}

	pair, err := oracle.DecodeReservePair(snap.BaseVault, snap.QuoteVault)
	if err != nil {
		observability.RecordDecodeError("vault")
		return nil, fmt.Errorf("decode vaults: %w", err)
	}

	dexCents, ok := pair.SpotPriceCents()
	if !ok {
		log.Printf("[INFO] base reserve empty, using oracle price for spread")
		dexCents = oracleCents
	}

	return &accum.MarketData{
		DexPriceCents: uint32(dexCents),
		Liquidity:     pair.LiquidityMagnitude(),
	}, nil
}

// updateAccumulator loads the persisted accumulator buffer, applies one
// update and commits the new buffer back.
func (c *Crank) updateAccumulator(ctx context.Context, slot, cents int64, market *accum.MarketData) (accum.State, error) {
	key := c.modelID + accumKeySuffix

	buf, err := c.loadBuffer(ctx, key, c.version.Size())
	if err != nil {
		return accum.State{}, err
	}

	state, err := accum.Decode(c.version, buf)
	if err != nil {
		observability.RecordDecodeError("accumulator")
		return accum.State{}, fmt.Errorf("decode accumulator: %w", err)
	}

	next := accum.Update(state, uint32(cents), market)

	if err := c.putBuffer(ctx, key, next.Encode(), slot); err != nil {
		return accum.State{}, fmt.Errorf("commit accumulator: %w", err)
	}
	return next, nil
}

// features maps the accumulator to the vector the model's input width asks for.
func (c *Crank) features(state accum.State) ([]uint8, error) {
	switch inputs := c.runner.Plan().Model.Topology().Inputs; inputs {
	case 4:
		return accum.Features4(state), nil
	case 6:
		return accum.Features6(state), nil
	default:
		return nil, fmt.Errorf("no feature mapping for %d model inputs", inputs)
	}
}

// runStages drives the full stage sequence for one cycle, persisting the
// scratch and cursor buffers after every invocation.
func (c *Crank) runStages(ctx context.Context, slot int64, features []uint8) (nn.Result, error) {
	plan := c.runner.Plan()
	scratchKey := c.modelID + scratchKeySuffix
	cursorKey := c.modelID + cursorKeySuffix

	scratchBuf, err := c.loadBuffer(ctx, scratchKey, plan.ScratchSize())
	if err != nil {
		return nn.Result{}, err
	}
	cursorBuf, err := c.loadBuffer(ctx, cursorKey, 1)
	if err != nil {
		return nn.Result{}, err
	}

	scratch := account.NewRegion("scratch", scratchBuf)
	cursor := account.NewRegion("cursor", cursorBuf)

	for s := 0; s < plan.EncodeStages; s++ {
		if err := c.runner.RunEncode(s, features, scratch, cursor); err != nil {
			if errors.Is(err, stage.ErrOutOfOrder) {
				observability.RecordStageOrderFault()
			}
			return nn.Result{}, fmt.Errorf("encode stage %d: %w", s, err)
		}
		observability.RecordStageRun("encode")
		if err := c.persistStageState(ctx, scratchKey, cursorKey, scratch, cursor, slot); err != nil {
			return nn.Result{}, err
		}
	}

	result, err := c.runner.RunDecode(scratch, cursor)
	if err != nil {
		if errors.Is(err, stage.ErrOutOfOrder) {
			observability.RecordStageOrderFault()
		}
		return nn.Result{}, fmt.Errorf("decode stage: %w", err)
	}
	observability.RecordStageRun("decode")
	if err := c.persistStageState(ctx, scratchKey, cursorKey, scratch, cursor, slot); err != nil {
		return nn.Result{}, err
	}

	return result, nil
}

func (c *Crank) persistStageState(ctx context.Context, scratchKey, cursorKey string, scratch, cursor *account.Region, slot int64) error {
	if err := c.putBuffer(ctx, scratchKey, scratch.Bytes(), slot); err != nil {
		return fmt.Errorf("commit scratch: %w", err)
	}
	if err := c.putBuffer(ctx, cursorKey, cursor.Bytes(), slot); err != nil {
		return fmt.Errorf("commit cursor: %w", err)
	}
	return nil
}

func (c *Crank) recordPrediction(ctx context.Context, cr *CycleResult) error {
	if c.predictions == nil {
		return nil
	}

	rec := &storage.PredictionRecord{
		ModelID:     c.modelID,
		Slot:        cr.Slot,
		TimestampMs: time.Now().UnixMilli(),
		Features:    cr.Features,
		Score:       cr.Result.Score,
		Confidence:  cr.Result.Confidence,
		Direction:   uint8(cr.Result.Direction),
		Wire:        cr.Wire,
	}

	err := c.predictions.Insert(ctx, rec)
	if errors.Is(err, storage.ErrDuplicateKey) {
		// Same slot cranked twice; the first prediction stands.
		log.Printf("[INFO] prediction for slot %d already recorded", cr.Slot)
		return nil
	}
	if err != nil {
		return fmt.Errorf("record prediction: %w", err)
	}

	observability.RecordPrediction(directionLabel(cr.Result.Direction), cr.Result.Score)
	return nil
}

func directionLabel(d nn.Direction) string {
	if d == nn.Up {
		return "up"
	}
	return "down"
}

// loadBuffer fetches a persisted buffer, returning a zero buffer of the
// wanted size on first use.
func (c *Crank) loadBuffer(ctx context.Context, key string, size int) ([]byte, error) {
	rec, err := c.accounts.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return make([]byte, size), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if len(rec.Data) < size {
		// Buffer from an older layout; restart from zero state.
		log.Printf("[INFO] %s has %d bytes, want %d, resetting", key, len(rec.Data), size)
		return make([]byte, size), nil
	}
	return rec.Data, nil
}

func (c *Crank) putBuffer(ctx context.Context, key string, data []byte, slot int64) error {
	return c.accounts.Put(ctx, &storage.AccountRecord{
		Pubkey:    key,
		Data:      data,
		Slot:      slot,
		UpdatedAt: time.Now().UnixMilli(),
	})
}
