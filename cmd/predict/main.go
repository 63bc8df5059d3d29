// Package main runs a single prediction cycle against live chain state (or
// fixture account files) and prints the wire-encoded signal. State buffers
// live in memory only, so each run evaluates a fresh single-sample
// accumulator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"solana-predictor/internal/accum"
	"solana-predictor/internal/config"
	"solana-predictor/internal/crank"
	"solana-predictor/internal/feed"
	"solana-predictor/internal/nn"
	"solana-predictor/internal/solana"
	"solana-predictor/internal/stage"
	"solana-predictor/internal/storage/memory"
)

// fixtureClient serves account data from <dir>/<pubkey>.bin files instead of
// a live RPC endpoint. Missing files behave like missing accounts.
type fixtureClient struct {
	dir  string
	slot int64
}

func (f *fixtureClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, pubkey+".bin"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", pubkey, err)
	}
	return &solana.AccountInfo{Pubkey: pubkey, Data: data, Slot: f.slot}, nil
}

func (f *fixtureClient) GetMultipleAccounts(ctx context.Context, pubkeys []string) ([]*solana.AccountInfo, error) {
	infos := make([]*solana.AccountInfo, len(pubkeys))
	for i, pk := range pubkeys {
		info, err := f.GetAccountInfo(ctx, pk)
		if err != nil {
			return nil, err
		}
		infos[i] = info
	}
	return infos, nil
}

func (f *fixtureClient) GetSlot(context.Context) (int64, error) { return f.slot, nil }

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	fixtureDir := flag.String("fixture", "", "Directory of <pubkey>.bin account fixtures (skips live RPC)")
	fixtureSlot := flag.Int64("fixture-slot", 1, "Slot reported for fixture accounts")
	timeout := flag.Duration("timeout", 30*time.Second, "Cycle timeout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var rpc solana.RPCClient = solana.NewHTTPClient(cfg.Solana.RPCEndpoint)
	if *fixtureDir != "" {
		rpc = &fixtureClient{dir: *fixtureDir, slot: *fixtureSlot}
	}
	source, err := feed.NewSource(rpc, cfg.Market.Oracle, cfg.Market.BaseVault, cfg.Market.QuoteVault)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building source: %v\n", err)
		os.Exit(1)
	}

	model := nn.TrainedDirectionModel()
	if cfg.Model.BlobPath != "" {
		blob, err := os.ReadFile(cfg.Model.BlobPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading blob: %v\n", err)
			os.Exit(1)
		}
		model, err = nn.New(nn.TrainedDirectionSpec(), blob)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building model: %v\n", err)
			os.Exit(1)
		}
	}

	runner, err := stage.NewRunner(stage.Plan{
		Model:        model,
		EncodeStages: cfg.Model.EncodeStages,
		ScratchWidth: cfg.Model.ScratchWidth,
		DeferredReLU: cfg.Model.DeferredReLU,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building runner: %v\n", err)
		os.Exit(1)
	}

	c, err := crank.New(crank.Options{
		Source:      source,
		Accounts:    memory.NewAccountStore(),
		Predictions: memory.NewPredictionStore(),
		Runner:      runner,
		ModelID:     cfg.Model.ID,
		Version:     accum.Version(cfg.Accumulator.Version),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building crank: %v\n", err)
		os.Exit(1)
	}

	res, err := c.RunCycle(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cycle error: %v\n", err)
		os.Exit(1)
	}

	direction := "DOWN"
	if res.Result.Direction == nn.Up {
		direction = "UP"
	}

	fmt.Printf("slot:        %d\n", res.Slot)
	fmt.Printf("price_cents: %d\n", res.PriceCents)
	fmt.Printf("features:    %v\n", res.Features)
	fmt.Printf("score:       %d\n", res.Result.Score)
	if res.Result.HasConfidence {
		fmt.Printf("confidence:  %d\n", res.Result.Confidence)
	}
	fmt.Printf("direction:   %s\n", direction)
	fmt.Printf("wire:        %d\n", res.Wire)
}
