// Package main runs the copy-trading engine: track wallets, diff their
// holdings each cycle, and replicate their moves with AI-weighted sizing
// or direct mirroring.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-copybot/internal/ai"
	"solana-copybot/internal/analyzer"
	"solana-copybot/internal/config"
	"solana-copybot/internal/copybot"
	"solana-copybot/internal/executor"
	"solana-copybot/internal/observability"
	"solana-copybot/internal/price"
	"solana-copybot/internal/solana"
	"solana-copybot/internal/storage"
	chstore "solana-copybot/internal/storage/clickhouse"
	"solana-copybot/internal/storage/memory"
	pgstore "solana-copybot/internal/storage/postgres"
)

func main() {
	once := flag.Bool("once", false, "Run a single cycle and exit")
	rpcEndpoint := flag.String("rpc-endpoint", "", "Solana RPC HTTP endpoint (overrides RPC_ENDPOINT)")
	wsEndpoint := flag.String("ws-endpoint", "", "Solana WebSocket endpoint (overrides WS_ENDPOINT)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides POSTGRES_DSN)")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (overrides CLICKHOUSE_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	mirrorOnly := flag.Bool("mirror-only", false, "Disable AI analysis and mirror wallets directly")
	agentName := flag.String("agent-name", "copybot", "Agent name recorded on trade intents")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[copybot] ", log.LstdFlags|log.Lshortfile)
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if *rpcEndpoint != "" {
		cfg.RPCEndpoint = *rpcEndpoint
	}
	if *wsEndpoint != "" {
		cfg.WSEndpoint = *wsEndpoint
	}
	if *postgresDSN != "" {
		cfg.PostgresDSN = *postgresDSN
	}
	if *clickhouseDSN != "" {
		cfg.ClickhouseDSN = *clickhouseDSN
	}

	if err := cfg.Settings.Validate(); err != nil {
		logger.Fatalf("Invalid settings: %v", err)
	}

	wallets := validWallets(logger, cfg.Settings.WalletsToTrack)
	if len(wallets) == 0 {
		logger.Fatal("No valid wallets to track. Set WALLETS_TO_TRACK")
	}
	cfg.Settings.WalletsToTrack = wallets
	logger.Printf("Tracking %d wallet(s)", len(wallets))

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err := run(ctx, logger, slogger, cfg, runOptions{
		once:       *once,
		useMemory:  *useMemory,
		mirrorOnly: *mirrorOnly,
		agentName:  *agentName,
	})

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

type runOptions struct {
	once       bool
	useMemory  bool
	mirrorOnly bool
	agentName  string
}

func run(ctx context.Context, logger *log.Logger, slogger *slog.Logger, cfg *config.Config, opts runOptions) error {
	if cfg.RPCEndpoint == "" {
		return fmt.Errorf("RPC endpoint is required (RPC_ENDPOINT or -rpc-endpoint)")
	}
	if !opts.useMemory && cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (use -use-memory for in-memory storage)")
	}

	// Stores
	var snapshots storage.SnapshotStore = memory.NewSnapshotStore()
	var intents storage.IntentStore = memory.NewIntentStore()
	var changeLog storage.ChangeLogStore = memory.NewChangeLogStore()

	if !opts.useMemory {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		snapshots = pgstore.NewSnapshotStore(pool)

		if cfg.ClickhouseDSN != "" {
			conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
			if err != nil {
				return fmt.Errorf("connect to clickhouse: %w", err)
			}
			defer conn.Close()
			intents = chstore.NewIntentStore(conn)
			changeLog = chstore.NewChangeLogStore(conn)
		} else {
			logger.Println("CLICKHOUSE_DSN not set, audit history kept in memory")
		}
	}

	// Collaborators
	rpc := solana.NewHTTPClient(cfg.RPCEndpoint)
	quotes := price.NewCycleCache(price.NewBirdeyeClient(cfg.BirdeyeAPIKey))
	collector := solana.NewCollector(rpc, quotes, rpc, cfg.Settings, slogger)

	var gen analyzer.TextGenerator
	if !opts.mirrorOnly {
		var err error
		gen, err = ai.FromConfig(cfg.AI)
		if err != nil {
			return fmt.Errorf("configure AI provider: %w", err)
		}
	}
	if gen == nil {
		logger.Println("No AI provider configured, running in mirror-only mode")
	} else {
		logger.Printf("AI provider: %s (%s)", cfg.AI.Provider, cfg.AI.Model)
	}

	// Execution back-ends. Orders fill against a paper ledger; the ledger
	// doubles as the portfolio reader so sizing sees its own fills.
	spot := executor.NewPaperPlacer(cfg.Settings.MaxOrderSizeUSD, 1, slogger)
	leveraged := executor.NewPaperPlacer(cfg.Settings.MaxOrderSizeUSD, cfg.Settings.DefaultLeverage, slogger)
	placer, err := executor.PlacerFor(cfg.Settings.TradingMode, executor.Backends{
		Spot:     spot,
		Leverage: leveraged,
	})
	if err != nil {
		return fmt.Errorf("select order back-end: %w", err)
	}
	portfolio, ok := placer.(executor.PortfolioReader)
	if !ok {
		return fmt.Errorf("order back-end does not expose portfolio state")
	}

	var posAnalyzer *analyzer.PositionAnalyzer
	var aiTrader copybot.AITrader
	if gen != nil {
		posAnalyzer = analyzer.New(gen, cfg.Settings, slogger)
		aiTrader = executor.NewAIExecutor(placer, portfolio, quotes, cfg.Settings, opts.agentName, slogger)
	}
	mirror := executor.NewMirrorExecutor(placer, portfolio, quotes, cfg.Settings, opts.agentName, slogger)

	runner, err := copybot.NewRunner(copybot.Options{
		Snapshots:  snapshots,
		Intents:    intents,
		ChangeLog:  changeLog,
		Collector:  collector,
		Analyzer:   posAnalyzer,
		AI:         aiTrader,
		Mirror:     mirror,
		PriceCache: quotes,
		Settings:   cfg.Settings,
		Logger:     slogger,
		Observer:   copybot.MetricsObserver{},
	})
	if err != nil {
		return fmt.Errorf("build runner: %w", err)
	}

	if opts.once {
		result, err := runner.RunCycle(ctx)
		if err != nil {
			return err
		}
		logger.Printf("Cycle complete: mode=%s wallets_changed=%d trades=%d",
			result.Mode, result.WalletsChanged, len(result.Intents))
		return nil
	}

	// Wallet activity on the WebSocket triggers cycles between polls.
	var trigger <-chan string
	if cfg.WSEndpoint != "" {
		var watcher solana.AccountWatcher
		watcher, err = solana.NewWSWatcher(ctx, cfg.WSEndpoint, cfg.Settings.WalletsToTrack, nil)
		if err != nil {
			logger.Printf("WebSocket watcher unavailable, polling only: %v", err)
		} else {
			defer watcher.Close()
			trigger = watcher.Dirty()
		}
	}

	logger.Printf("Starting copy-trading engine (cycle interval %s)...", cfg.Settings.CycleInterval)
	return runner.Run(ctx, trigger)
}

// validWallets drops addresses that are not base58 ed25519 public keys.
func validWallets(logger *log.Logger, wallets []string) []string {
	valid := make([]string, 0, len(wallets))
	for _, w := range wallets {
		if err := solana.ValidateWalletAddress(w); err != nil {
			logger.Printf("Skipping invalid wallet %q: %v", w, err)
			continue
		}
		valid = append(valid, w)
	}
	return valid
}
