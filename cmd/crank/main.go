// Package main runs the prediction crank: scheduled cycles that fetch
// on-chain market data, advance the accumulator and record signals.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-predictor/internal/accum"
	"solana-predictor/internal/config"
	"solana-predictor/internal/crank"
	"solana-predictor/internal/feed"
	"solana-predictor/internal/nn"
	"solana-predictor/internal/observability"
	"solana-predictor/internal/solana"
	"solana-predictor/internal/stage"
	"solana-predictor/internal/storage"
	"solana-predictor/internal/storage/clickhouse"
	"solana-predictor/internal/storage/memory"
	"solana-predictor/internal/storage/migrations"
	"solana-predictor/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML config file")
	runOnStart := flag.Bool("run-on-start", false, "Run one cycle immediately before the schedule starts")
	watch := flag.Bool("watch", false, "Crank on oracle account updates over WebSocket instead of the cron schedule")
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("[INFO] received signal %v, shutting down", sig)
		cancel()
	}()

	c, cleanup, err := buildCrank(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building crank: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		log.Printf("[INFO] metrics listening on %s", cfg.Metrics.ListenAddr)
		if err := http.ListenAndServe(cfg.Metrics.ListenAddr, mux); err != nil {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()

	if *watch {
		if cfg.Solana.WSEndpoint == "" {
			fmt.Fprintln(os.Stderr, "solana.ws_endpoint is required for -watch")
			os.Exit(1)
		}
		ws, err := solana.NewWSClient(ctx, cfg.Solana.WSEndpoint, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting websocket: %v\n", err)
			os.Exit(1)
		}
		defer ws.Close()

		if err := crank.NewWatcher(ws, c, cfg.Market.Oracle).Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "Watcher error: %v\n", err)
			os.Exit(1)
		}
		log.Println("[INFO] crank stopped")
		return
	}

	sched := crank.NewScheduler(ctx, c)
	if err := sched.Register(cfg.Schedule.CycleCron); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering schedule: %v\n", err)
		os.Exit(1)
	}

	if *runOnStart {
		sched.RunCycleNow()
	}

	sched.Start()
	defer sched.Stop()

	<-ctx.Done()
	log.Println("[INFO] crank stopped")
}

// buildCrank wires the full dependency graph from config. Databases are
// optional: without DSNs everything runs on in-memory stores.
func buildCrank(ctx context.Context, cfg *config.Config) (*crank.Crank, func(), error) {
	cleanups := []func(){}
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	rpc := solana.NewHTTPClient(cfg.Solana.RPCEndpoint)

	source, err := feed.NewSource(rpc, cfg.Market.Oracle, cfg.Market.BaseVault, cfg.Market.QuoteVault)
	if err != nil {
		return nil, cleanup, fmt.Errorf("build source: %w", err)
	}

	model, blob, err := loadModel(cfg)
	if err != nil {
		return nil, cleanup, fmt.Errorf("load model: %w", err)
	}

	runner, err := stage.NewRunner(stage.Plan{
		Model:        model,
		EncodeStages: cfg.Model.EncodeStages,
		ScratchWidth: cfg.Model.ScratchWidth,
		DeferredReLU: cfg.Model.DeferredReLU,
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("build runner: %w", err)
	}

	var accounts storage.AccountStore = memory.NewAccountStore()
	if dsn := cfg.Database.PostgresDSN; dsn != "" {
		pool, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect postgres: %w", err)
		}
		cleanups = append(cleanups, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return nil, cleanup, fmt.Errorf("migrate postgres: %w", err)
		}
		accounts = postgres.NewAccountStore(pool)
	}

	// Mirror the deployed weight blob alongside the state buffers so the
	// account store holds the complete on-chain region set.
	err = accounts.Put(ctx, &storage.AccountRecord{
		Pubkey:    cfg.Model.ID + ":weights",
		Data:      blob,
		UpdatedAt: time.Now().UnixMilli(),
	})
	if err != nil {
		return nil, cleanup, fmt.Errorf("mirror weights: %w", err)
	}

	var predictions storage.PredictionStore = memory.NewPredictionStore()
	if dsn := cfg.Database.ClickhouseDSN; dsn != "" {
		conn, err := clickhouse.NewConn(ctx, dsn)
		if err != nil {
			return nil, cleanup, fmt.Errorf("connect clickhouse: %w", err)
		}
		cleanups = append(cleanups, func() { conn.Close() })
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			return nil, cleanup, fmt.Errorf("migrate clickhouse: %w", err)
		}
		predictions = clickhouse.NewPredictionStore(conn)
	}

	c, err := crank.New(crank.Options{
		Source:      source,
		Accounts:    accounts,
		Predictions: predictions,
		Runner:      runner,
		ModelID:     cfg.Model.ID,
		Version:     accum.Version(cfg.Accumulator.Version),
	})
	if err != nil {
		return nil, cleanup, err
	}
	return c, cleanup, nil
}

// loadModel reads the weight blob from disk, falling back to the built-in
// trained direction model when no path is configured.
func loadModel(cfg *config.Config) (*nn.Model, []byte, error) {
	blob := nn.TrainedDirectionBlob()
	if cfg.Model.BlobPath != "" {
		var err error
		blob, err = os.ReadFile(cfg.Model.BlobPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read blob: %w", err)
		}
	}
	model, err := nn.New(nn.TrainedDirectionSpec(), blob)
	if err != nil {
		return nil, nil, err
	}
	return model, blob, nil
}
