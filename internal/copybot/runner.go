// Package copybot drives the analysis cycle: snapshot, diff, analyze,
// execute. It owns mode selection between AI-weighted execution and pure
// wallet mirroring.
package copybot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"solana-copybot/internal/analyzer"
	"solana-copybot/internal/decision"
	"solana-copybot/internal/detector"
	"solana-copybot/internal/domain"
	"solana-copybot/internal/storage"
)

// HoldingsSource captures the current holdings of every tracked wallet.
type HoldingsSource interface {
	Collect(ctx context.Context, capturedAt int64) (domain.WalletSnapshot, error)
}

// AITrader executes AI recommendations for one wallet. Implementations
// skip individual failed orders themselves; a non-nil error means the
// batch was cut short by cancellation.
type AITrader interface {
	Execute(ctx context.Context, wallet string, recs []*domain.Recommendation, changes *domain.ChangeRecord) ([]*domain.TradeIntent, error)
}

// MirrorTrader replicates one wallet's change record directly.
type MirrorTrader interface {
	Execute(ctx context.Context, wallet string, changes *domain.ChangeRecord) []*domain.TradeIntent
}

// Resetter is implemented by per-cycle caches.
type Resetter interface {
	Reset()
}

// Options wires a Runner. Snapshots, Collector and Mirror are required;
// everything else degrades gracefully when absent.
type Options struct {
	Snapshots storage.SnapshotStore
	Intents   storage.IntentStore    // optional audit log
	ChangeLog storage.ChangeLogStore // optional audit log

	Collector HoldingsSource
	Analyzer  *analyzer.PositionAnalyzer // nil means mirror-only
	AI        AITrader                   // nil means mirror-only
	Mirror    MirrorTrader

	PriceCache Resetter // optional, reset at cycle start
	Settings   domain.Settings
	Logger     *slog.Logger
	Observer   Observer
}

// Errors returned when building a Runner.
var (
	ErrNoSnapshotStore = errors.New("runner requires a snapshot store")
	ErrNoCollector     = errors.New("runner requires a holdings collector")
	ErrNoMirrorTrader  = errors.New("runner requires a mirror trader")
)

// CycleResult summarizes one analysis cycle.
type CycleResult struct {
	Mode           domain.ExecutionMode
	Primed         bool // first cycle, snapshot stored, nothing diffed
	WalletsChanged int
	ChangesTotal   int
	TokensAnalyzed int
	Intents        []*domain.TradeIntent
}

// Runner executes analysis cycles. Steps within a cycle run in strict
// sequence; nothing mutates the snapshot store mid-cycle.
type Runner struct {
	opts Options

	log      *slog.Logger
	observer Observer
	now      func() int64

	ranOnce bool
}

// NewRunner validates the wiring and creates a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Snapshots == nil {
		return nil, ErrNoSnapshotStore
	}
	if opts.Collector == nil {
		return nil, ErrNoCollector
	}
	if opts.Mirror == nil {
		return nil, ErrNoMirrorTrader
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	return &Runner{
		opts:     opts,
		log:      opts.Logger,
		observer: opts.Observer,
		now:      func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// Run executes cycles until the context is cancelled. A dirty signal on
// trigger (may be nil) starts the next cycle early.
func (r *Runner) Run(ctx context.Context, trigger <-chan string) error {
	interval := r.opts.Settings.CycleInterval
	if interval <= 0 {
		interval = time.Minute
	}
	for {
		result, err := r.RunCycle(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Error("cycle failed", "error", err)
		} else {
			r.log.Info("cycle complete",
				"mode", result.Mode,
				"wallets_changed", result.WalletsChanged,
				"trades", len(result.Intents))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case wallet, ok := <-trigger:
			if !ok {
				trigger = nil
				continue
			}
			r.log.Info("wallet activity detected, running cycle early", "wallet", wallet)
			drainTrigger(trigger)
		case <-time.After(interval):
		}
	}
}

// drainTrigger clears queued dirty signals so one burst of activity does
// not schedule a cycle per event.
func drainTrigger(trigger <-chan string) {
	for {
		select {
		case _, ok := <-trigger:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// RunCycle executes one full cycle: capture, diff, persist, trade.
func (r *Runner) RunCycle(ctx context.Context) (*CycleResult, error) {
	started := time.Now()
	mode := r.mode()

	result, err := r.runCycle(ctx, mode)
	status := "ok"
	if err != nil {
		status = "error"
	} else if result.Mode != "" {
		mode = result.Mode
	}
	r.observer.CycleCompleted(mode, status, time.Since(started))
	return result, err
}

func (r *Runner) mode() domain.ExecutionMode {
	if r.opts.Analyzer != nil && r.opts.Analyzer.Available() && r.opts.AI != nil {
		return domain.ModeAI
	}
	return domain.ModeMirror
}

func (r *Runner) runCycle(ctx context.Context, mode domain.ExecutionMode) (*CycleResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.opts.PriceCache != nil {
		r.opts.PriceCache.Reset()
	}

	capturedAt := r.now()
	current, err := r.opts.Collector.Collect(ctx, capturedAt)
	if err != nil {
		return nil, fmt.Errorf("collect holdings: %w", err)
	}

	previous, _, err := r.opts.Snapshots.Latest(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		if saveErr := r.opts.Snapshots.Save(ctx, current, capturedAt); saveErr != nil {
			return nil, fmt.Errorf("save first snapshot: %w", saveErr)
		}
		r.ranOnce = true
		r.log.Info("snapshot store primed", "wallets", len(current))
		return &CycleResult{Mode: mode, Primed: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load previous snapshot: %w", err)
	}

	changes := detector.DetectChanges(previous, current)

	if err := r.opts.Snapshots.Save(ctx, current, capturedAt); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	firstRun := !r.ranOnce
	r.ranOnce = true

	r.recordChanges(ctx, changes, capturedAt)

	result := &CycleResult{Mode: mode, WalletsChanged: len(changes)}
	for _, rec := range changes {
		result.ChangesTotal += len(rec.NewTokens) + len(rec.RemovedTokens) + len(rec.ModifiedTokens)
	}

	if len(changes) == 0 {
		return result, nil
	}

	if firstRun && r.opts.Settings.SkipFirstRun {
		r.log.Info("first run, diff recorded but not traded",
			"wallets_changed", len(changes))
		return result, nil
	}

	if mode == domain.ModeAI {
		if r.runAI(ctx, current, changes, result) {
			r.persistIntents(ctx, result.Intents)
			return result, ctx.Err()
		}
		// Nothing cleared the confidence gate, which is what a full AI
		// outage looks like: every failed call defaults to NOTHING.
		result.Mode = domain.ModeMirror
	}

	r.runMirror(ctx, sortedWallets(changes), changes, result)
	r.persistIntents(ctx, result.Intents)
	return result, ctx.Err()
}

// runAI analyzes every changed token and executes the recommendations.
// It reports whether the AI path handled the cycle; false means no
// recommendation cleared the confidence gate and the caller should mirror
// the changes instead. Failed orders are skipped inside the trader, so an
// error here only ever means cancellation; trades already placed stay
// placed either way.
func (r *Runner) runAI(ctx context.Context, current domain.WalletSnapshot, changes map[string]*domain.ChangeRecord, result *CycleResult) bool {
	wallets := sortedWallets(changes)

	table := decision.NewTable()
	perWallet := make(map[string][]*domain.Recommendation)

	for _, wallet := range wallets {
		recs, err := r.analyzeWallet(ctx, wallet, current, changes[wallet], result)
		if err != nil {
			// Cancellation mid-analysis.
			return true
		}
		perWallet[wallet] = recs
		for _, rec := range recs {
			table.Append(rec)
		}
	}

	if len(decision.SelectActionable(table.All(), r.opts.Settings.MinConfidence)) == 0 {
		r.log.Info("no actionable AI recommendations this cycle, mirroring instead")
		return false
	}

	for _, wallet := range wallets {
		recs := perWallet[wallet]
		if len(recs) == 0 {
			continue
		}

		intents, err := r.opts.AI.Execute(ctx, wallet, recs, changes[wallet])
		r.collectIntents(result, intents)
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			// Mirroring this wallet now would re-trade whatever the
			// trader managed to place before the error.
			r.log.Error("AI execution aborted for wallet",
				"wallet", wallet, "error", err)
		}
	}

	return true
}

// analyzeWallet produces recommendations for one wallet's changed tokens,
// pacing requests with the configured inter-call delay.
func (r *Runner) analyzeWallet(ctx context.Context, wallet string, current domain.WalletSnapshot, changes *domain.ChangeRecord, result *CycleResult) ([]*domain.Recommendation, error) {
	type job struct {
		mint string
		wctx domain.WalletContext
	}

	var jobs []job
	for _, mint := range sortedKeys(changes.NewTokens) {
		jobs = append(jobs, job{mint, domain.WalletContext{Action: domain.WalletActionNew}})
	}
	for _, mint := range sortedKeys(changes.ModifiedTokens) {
		jobs = append(jobs, job{mint, domain.WalletContext{
			Action:    domain.WalletActionModified,
			PctChange: changes.ModifiedTokens[mint].PctChange,
		}})
	}
	for _, mint := range sortedKeys(changes.RemovedTokens) {
		jobs = append(jobs, job{mint, domain.WalletContext{Action: domain.WalletActionRemoved}})
	}

	var recs []*domain.Recommendation
	for i, j := range jobs {
		if i > 0 && r.opts.Settings.APICallDelay > 0 {
			select {
			case <-ctx.Done():
				return recs, ctx.Err()
			case <-time.After(r.opts.Settings.APICallDelay):
			}
		}
		if err := ctx.Err(); err != nil {
			return recs, err
		}

		holding := current.HoldingFor(wallet, j.mint)

		started := time.Now()
		rec, err := r.opts.Analyzer.Analyze(ctx, j.mint, holding, j.wctx, marketData(holding))
		if err != nil {
			if ctx.Err() != nil {
				return recs, err
			}
			r.log.Warn("analysis failed for token", "wallet", wallet, "mint", j.mint, "error", err)
			continue
		}
		r.observer.TokenAnalyzed(time.Since(started))
		result.TokensAnalyzed++

		if rec != nil {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

// runMirror replicates the given wallets' changes directly.
func (r *Runner) runMirror(ctx context.Context, wallets []string, changes map[string]*domain.ChangeRecord, result *CycleResult) {
	for _, wallet := range wallets {
		if ctx.Err() != nil {
			return
		}
		intents := r.opts.Mirror.Execute(ctx, wallet, changes[wallet])
		r.collectIntents(result, intents)
	}
}

func (r *Runner) collectIntents(result *CycleResult, intents []*domain.TradeIntent) {
	for _, intent := range intents {
		r.observer.TradeExecuted(intent.Mode, intent.Action)
	}
	result.Intents = append(result.Intents, intents...)
}

// recordChanges writes the flattened diff to the audit log and notifies
// the observer. Audit failures are logged, never fatal.
func (r *Runner) recordChanges(ctx context.Context, changes map[string]*domain.ChangeRecord, detectedAt int64) {
	var entries []*domain.ChangeLogEntry
	for wallet, rec := range changes {
		entries = append(entries, domain.FlattenChanges(wallet, rec, detectedAt)...)
	}

	for _, e := range entries {
		r.observer.ChangeDetected(e.Kind)
	}

	if r.opts.ChangeLog == nil || len(entries) == 0 {
		return
	}
	if err := r.opts.ChangeLog.InsertBulk(ctx, entries); err != nil {
		r.log.Error("change log write failed", "error", err)
	}
}

// persistIntents writes executed trades to the audit log. A write failure
// loses audit history, not money, so it is logged and swallowed.
func (r *Runner) persistIntents(ctx context.Context, intents []*domain.TradeIntent) {
	if r.opts.Intents == nil || len(intents) == 0 {
		return
	}
	if err := r.opts.Intents.InsertBulk(ctx, intents); err != nil {
		r.log.Error("intent log write failed", "error", err)
	}
}

// marketData renders the price context line for the analysis prompt.
func marketData(h *domain.TokenHolding) string {
	if h == nil || h.PriceUSD <= 0 {
		return "No market data available."
	}
	return fmt.Sprintf("Current price: $%.6f. Position value: $%.2f.", h.PriceUSD, h.USDValue())
}

func sortedWallets(changes map[string]*domain.ChangeRecord) []string {
	wallets := make([]string, 0, len(changes))
	for w := range changes {
		wallets = append(wallets, w)
	}
	sort.Strings(wallets)
	return wallets
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
