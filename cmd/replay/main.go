// Package main verifies stored prediction history: every record's feature
// vector is re-run through the model and compared field by field.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"solana-predictor/internal/config"
	"solana-predictor/internal/nn"
	"solana-predictor/internal/replay"
	"solana-predictor/internal/storage/clickhouse"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	modelID := flag.String("model", "", "Model ID to verify (defaults to configured model)")
	timeout := flag.Duration("timeout", 5*time.Minute, "Verification timeout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.ClickhouseDSN == "" {
		fmt.Fprintln(os.Stderr, "database.clickhouse_dsn is required: there is no history to verify without it")
		os.Exit(1)
	}

	id := *modelID
	if id == "" {
		id = cfg.Model.ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, err := clickhouse.NewConn(ctx, cfg.Database.ClickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting clickhouse: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

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

	verifier := replay.NewVerifier(clickhouse.NewPredictionStore(conn), model)
	result, err := verifier.VerifyModel(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Verification error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("model:   %s\n", result.ModelID)
	fmt.Printf("checked: %d\n", result.Checked)
	if result.OK() {
		fmt.Println("status:  OK")
		return
	}

	fmt.Printf("status:  %d divergences\n", len(result.Divergences))
	for _, d := range result.Divergences {
		fmt.Printf("  %s\n", d)
	}
	os.Exit(1)
}
