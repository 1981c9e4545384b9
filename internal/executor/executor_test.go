package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"solana-copybot/internal/domain"
)

type placedOrder struct {
	kind     string // "buy", "sellAll", "sellPartial"
	mint     string
	amount   float64
	fraction float64
}

type fakePlacer struct {
	orders   []placedOrder
	failMint string
}

func (p *fakePlacer) Buy(_ context.Context, mint string, amountUSD float64) error {
	if mint == p.failMint {
		return errors.New("order rejected")
	}
	p.orders = append(p.orders, placedOrder{kind: "buy", mint: mint, amount: amountUSD})
	return nil
}

func (p *fakePlacer) SellAll(_ context.Context, mint string) error {
	if mint == p.failMint {
		return errors.New("order rejected")
	}
	p.orders = append(p.orders, placedOrder{kind: "sellAll", mint: mint})
	return nil
}

func (p *fakePlacer) SellPartial(_ context.Context, mint string, fraction float64) error {
	if mint == p.failMint {
		return errors.New("order rejected")
	}
	p.orders = append(p.orders, placedOrder{kind: "sellPartial", mint: mint, fraction: fraction})
	return nil
}

type fakePortfolio struct {
	balances map[string]float64
}

func (f *fakePortfolio) TokenBalanceUSD(_ context.Context, mint string) (float64, error) {
	return f.balances[mint], nil
}

type fakePrices struct {
	prices map[string]float64
}

func (f *fakePrices) PriceOf(_ context.Context, mint string) (float64, error) {
	p, ok := f.prices[mint]
	if !ok {
		return 0, ErrPriceUnavailable
	}
	return p, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSettings() domain.Settings {
	s := domain.DefaultSettings()
	s.PortfolioSizeUSD = 30
	s.MaxPositionPct = 14
	s.MinConfidence = 80
	s.MinPositionUSD = 0.5
	s.MirrorPositionScale = 1.0
	s.MaxTokenAllocation = 0.2
	s.FallbackPositionUSD = 10
	return s
}

func TestPlacerFor(t *testing.T) {
	spot := &fakePlacer{}
	lev := &fakePlacer{}
	b := Backends{Spot: spot, Leverage: lev}

	got, err := PlacerFor(domain.TradingModeSpot, b)
	if err != nil || got != OrderPlacer(spot) {
		t.Fatalf("spot: got %v, %v", got, err)
	}

	got, err = PlacerFor(domain.TradingModeLeverage, b)
	if err != nil || got != OrderPlacer(lev) {
		t.Fatalf("leverage: got %v, %v", got, err)
	}

	_, err = PlacerFor(domain.TradingMode("margin"), b)
	if !errors.Is(err, ErrUnknownTradingMode) {
		t.Fatalf("expected ErrUnknownTradingMode, got %v", err)
	}

	_, err = PlacerFor(domain.TradingModeLeverage, Backends{Spot: spot})
	if !errors.Is(err, ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend, got %v", err)
	}
}

func TestAIExecutor_BuySizing(t *testing.T) {
	placer := &fakePlacer{}
	exec := NewAIExecutor(placer, &fakePortfolio{balances: map[string]float64{}}, nil, testSettings(), "copybot", testLogger())

	recs := []*domain.Recommendation{
		{Token: "MintA", Action: domain.ActionBuy, Confidence: 85, Reasoning: "strong signal"},
	}

	intents, err := exec.Execute(context.Background(), "W1", recs, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}

	// 30 * 0.14 * 0.85 = 3.57
	want := 3.57
	if diff := intents[0].AmountUSD - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("amount = %v, want %v", intents[0].AmountUSD, want)
	}
	if intents[0].Mode != domain.ModeAI {
		t.Errorf("mode = %v, want AI", intents[0].Mode)
	}
	if intents[0].AIAnalysis != "strong signal" {
		t.Errorf("analysis = %q", intents[0].AIAnalysis)
	}
	if len(placer.orders) != 1 || placer.orders[0].kind != "buy" {
		t.Fatalf("orders = %+v", placer.orders)
	}
}

func TestAIExecutor_BuyAtTargetIsNoop(t *testing.T) {
	placer := &fakePlacer{}
	portfolio := &fakePortfolio{balances: map[string]float64{"MintA": 4.2}} // 30*0.14 = 4.2 cap
	exec := NewAIExecutor(placer, portfolio, nil, testSettings(), "copybot", testLogger())

	recs := []*domain.Recommendation{
		{Token: "MintA", Action: domain.ActionBuy, Confidence: 100},
	}

	intents, err := exec.Execute(context.Background(), "W1", recs, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(intents) != 0 {
		t.Errorf("expected no intents, got %d", len(intents))
	}
	if len(placer.orders) != 0 {
		t.Errorf("expected no orders, got %+v", placer.orders)
	}
}

func TestAIExecutor_SellFullPosition(t *testing.T) {
	placer := &fakePlacer{}
	portfolio := &fakePortfolio{balances: map[string]float64{"MintA": 2.5}}
	exec := NewAIExecutor(placer, portfolio, nil, testSettings(), "copybot", testLogger())

	recs := []*domain.Recommendation{
		{Token: "MintA", Action: domain.ActionSell, Confidence: 90},
	}

	intents, err := exec.Execute(context.Background(), "W1", recs, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	if intents[0].AmountUSD != 2.5 || intents[0].SellFraction != 1.0 {
		t.Errorf("intent = %+v", intents[0])
	}
	if len(placer.orders) != 1 || placer.orders[0].kind != "sellAll" {
		t.Fatalf("orders = %+v", placer.orders)
	}
}

func TestAIExecutor_SellWithoutPositionIsNoop(t *testing.T) {
	placer := &fakePlacer{}
	exec := NewAIExecutor(placer, &fakePortfolio{balances: map[string]float64{}}, nil, testSettings(), "copybot", testLogger())

	recs := []*domain.Recommendation{
		{Token: "MintA", Action: domain.ActionSell, Confidence: 90},
	}

	intents, err := exec.Execute(context.Background(), "W1", recs, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(intents) != 0 || len(placer.orders) != 0 {
		t.Errorf("expected no-op, intents=%d orders=%d", len(intents), len(placer.orders))
	}
}

func TestAIExecutor_FiltersBelowMinConfidence(t *testing.T) {
	placer := &fakePlacer{}
	exec := NewAIExecutor(placer, &fakePortfolio{balances: map[string]float64{}}, nil, testSettings(), "copybot", testLogger())

	recs := []*domain.Recommendation{
		{Token: "MintA", Action: domain.ActionBuy, Confidence: 79},
		{Token: "MintB", Action: domain.ActionNothing, Confidence: 95},
	}

	intents, err := exec.Execute(context.Background(), "W1", recs, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(intents) != 0 || len(placer.orders) != 0 {
		t.Errorf("expected everything filtered, intents=%d orders=%d", len(intents), len(placer.orders))
	}
}

func TestAIExecutor_FailedOrderSkipsTokenAndContinues(t *testing.T) {
	placer := &fakePlacer{failMint: "MintB"}
	exec := NewAIExecutor(placer, &fakePortfolio{balances: map[string]float64{}}, nil, testSettings(), "copybot", testLogger())

	recs := []*domain.Recommendation{
		{Token: "MintA", Action: domain.ActionBuy, Confidence: 90},
		{Token: "MintB", Action: domain.ActionBuy, Confidence: 90},
		{Token: "MintC", Action: domain.ActionBuy, Confidence: 90},
	}

	intents, err := exec.Execute(context.Background(), "W1", recs, nil)
	if err != nil {
		t.Fatalf("a failed order must not abort the batch: %v", err)
	}
	// MintB's rejection is skipped; MintA stays placed and MintC is
	// still attempted.
	if len(intents) != 2 || intents[0].MintAddress != "MintA" || intents[1].MintAddress != "MintC" {
		t.Errorf("intents = %+v", intents)
	}
	if len(placer.orders) != 2 {
		t.Errorf("orders = %+v", placer.orders)
	}
}

func TestAIExecutor_CancelledContextReturnsError(t *testing.T) {
	placer := &fakePlacer{}
	exec := NewAIExecutor(placer, &fakePortfolio{balances: map[string]float64{}}, nil, testSettings(), "copybot", testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recs := []*domain.Recommendation{
		{Token: "MintA", Action: domain.ActionBuy, Confidence: 90},
	}
	intents, err := exec.Execute(ctx, "W1", recs, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(intents) != 0 || len(placer.orders) != 0 {
		t.Errorf("cancelled batch placed orders: %+v", placer.orders)
	}
}

func TestMirrorExecutor_NewTokenBuy(t *testing.T) {
	placer := &fakePlacer{}
	prices := &fakePrices{prices: map[string]float64{"MintA": 2.0}}
	exec := NewMirrorExecutor(placer, &fakePortfolio{balances: map[string]float64{}}, prices, testSettings(), "copybot", testLogger())

	changes := domain.NewChangeRecord()
	changes.NewTokens["MintA"] = domain.TokenChange{RawAmount: 3_000_000, UIAmount: 3.0, Decimals: 6, Symbol: "AAA"}

	intents := exec.Execute(context.Background(), "W1", changes)
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	// 3.0 tokens * $2.00 * scale 1.0 = $6.00
	if intents[0].AmountUSD != 6.0 {
		t.Errorf("amount = %v, want 6.0", intents[0].AmountUSD)
	}
	if intents[0].Mode != domain.ModeMirror || intents[0].Action != domain.ActionBuy {
		t.Errorf("intent = %+v", intents[0])
	}
	if intents[0].EntryPrice != 2.0 {
		t.Errorf("entry price = %v, want 2.0", intents[0].EntryPrice)
	}
}

func TestMirrorExecutor_DustSkip(t *testing.T) {
	s := testSettings()
	s.MinPositionUSD = 5.0
	placer := &fakePlacer{}
	prices := &fakePrices{prices: map[string]float64{"MintA": 1.0}}
	exec := NewMirrorExecutor(placer, &fakePortfolio{balances: map[string]float64{}}, prices, s, "copybot", testLogger())

	changes := domain.NewChangeRecord()
	changes.NewTokens["MintA"] = domain.TokenChange{UIAmount: 3.0} // $3 < $5 dust threshold

	intents := exec.Execute(context.Background(), "W1", changes)
	if len(intents) != 0 || len(placer.orders) != 0 {
		t.Errorf("expected dust skip, intents=%d orders=%+v", len(intents), placer.orders)
	}
}

func TestMirrorExecutor_NewTokenFallbackSize(t *testing.T) {
	placer := &fakePlacer{}
	exec := NewMirrorExecutor(placer, &fakePortfolio{balances: map[string]float64{}}, &fakePrices{}, testSettings(), "copybot", testLogger())

	changes := domain.NewChangeRecord()
	changes.NewTokens["MintA"] = domain.TokenChange{UIAmount: 100}

	intents := exec.Execute(context.Background(), "W1", changes)
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	if intents[0].AmountUSD != 10 { // FallbackPositionUSD
		t.Errorf("amount = %v, want fallback 10", intents[0].AmountUSD)
	}
	if intents[0].EntryPrice != 0 {
		t.Errorf("entry price = %v, want 0", intents[0].EntryPrice)
	}
}

func TestMirrorExecutor_RemovedTokenSellsAll(t *testing.T) {
	placer := &fakePlacer{}
	portfolio := &fakePortfolio{balances: map[string]float64{"MintA": 12.5}}
	exec := NewMirrorExecutor(placer, portfolio, nil, testSettings(), "copybot", testLogger())

	changes := domain.NewChangeRecord()
	changes.RemovedTokens["MintA"] = domain.TokenChange{RawAmount: 1_000_000, Symbol: "AAA"}

	intents := exec.Execute(context.Background(), "W1", changes)
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	if intents[0].Action != domain.ActionSell || intents[0].AmountUSD != 12.5 || intents[0].SellFraction != 1.0 {
		t.Errorf("intent = %+v", intents[0])
	}
	if len(placer.orders) != 1 || placer.orders[0].kind != "sellAll" {
		t.Fatalf("orders = %+v", placer.orders)
	}
}

func TestMirrorExecutor_RemovedWithoutPositionIsNoop(t *testing.T) {
	placer := &fakePlacer{}
	exec := NewMirrorExecutor(placer, &fakePortfolio{balances: map[string]float64{}}, nil, testSettings(), "copybot", testLogger())

	changes := domain.NewChangeRecord()
	changes.RemovedTokens["MintA"] = domain.TokenChange{}

	intents := exec.Execute(context.Background(), "W1", changes)
	if len(intents) != 0 || len(placer.orders) != 0 {
		t.Errorf("expected no-op, intents=%d orders=%+v", len(intents), placer.orders)
	}
}

func TestMirrorExecutor_ModifiedIncreaseBuysProportionally(t *testing.T) {
	placer := &fakePlacer{}
	portfolio := &fakePortfolio{balances: map[string]float64{"MintA": 2.0}}
	exec := NewMirrorExecutor(placer, portfolio, nil, testSettings(), "copybot", testLogger())

	changes := domain.NewChangeRecord()
	changes.ModifiedTokens["MintA"] = domain.ModifiedToken{PctChange: 20.0}

	intents := exec.Execute(context.Background(), "W1", changes)
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	// 2.0 * 20% = 0.40, well under the 0.2 * 30 = 6.0 allocation cap
	if diff := intents[0].AmountUSD - 0.4; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("amount = %v, want 0.4", intents[0].AmountUSD)
	}
}

func TestMirrorExecutor_ModifiedIncreaseCappedByAllocation(t *testing.T) {
	placer := &fakePlacer{}
	portfolio := &fakePortfolio{balances: map[string]float64{"MintA": 5.0}}
	exec := NewMirrorExecutor(placer, portfolio, nil, testSettings(), "copybot", testLogger())

	changes := domain.NewChangeRecord()
	changes.ModifiedTokens["MintA"] = domain.ModifiedToken{PctChange: 50.0}

	intents := exec.Execute(context.Background(), "W1", changes)
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	// Uncapped buy would be 2.50, but 0.2 * 30 = 6.0 cap leaves room for 1.0
	if diff := intents[0].AmountUSD - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("amount = %v, want 1.0", intents[0].AmountUSD)
	}
}

func TestMirrorExecutor_ModifiedDecreaseSellsFraction(t *testing.T) {
	placer := &fakePlacer{}
	portfolio := &fakePortfolio{balances: map[string]float64{"MintA": 10.0}}
	exec := NewMirrorExecutor(placer, portfolio, nil, testSettings(), "copybot", testLogger())

	changes := domain.NewChangeRecord()
	changes.ModifiedTokens["MintA"] = domain.ModifiedToken{PctChange: -50.0}

	intents := exec.Execute(context.Background(), "W1", changes)
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	if intents[0].SellFraction != 0.5 || intents[0].AmountUSD != 5.0 {
		t.Errorf("intent = %+v", intents[0])
	}
	if placer.orders[0].kind != "sellPartial" || placer.orders[0].fraction != 0.5 {
		t.Errorf("orders = %+v", placer.orders)
	}
}

func TestMirrorExecutor_DecreaseFractionClampedToFullPosition(t *testing.T) {
	placer := &fakePlacer{}
	portfolio := &fakePortfolio{balances: map[string]float64{"MintA": 10.0}}
	exec := NewMirrorExecutor(placer, portfolio, nil, testSettings(), "copybot", testLogger())

	changes := domain.NewChangeRecord()
	// Percentage below -100 can only happen with corrupt input; the sell
	// fraction still clamps to the whole position.
	changes.ModifiedTokens["MintA"] = domain.ModifiedToken{PctChange: -150.0}

	intents := exec.Execute(context.Background(), "W1", changes)
	if len(intents) != 1 {
		t.Fatalf("expected 1 intent, got %d", len(intents))
	}
	if intents[0].SellFraction != 1.0 {
		t.Errorf("fraction = %v, want 1.0", intents[0].SellFraction)
	}
}

func TestMirrorExecutor_PartialFailureContinues(t *testing.T) {
	placer := &fakePlacer{failMint: "MintB"}
	prices := &fakePrices{prices: map[string]float64{"MintA": 1, "MintB": 1, "MintC": 1}}
	exec := NewMirrorExecutor(placer, &fakePortfolio{balances: map[string]float64{}}, prices, testSettings(), "copybot", testLogger())

	changes := domain.NewChangeRecord()
	changes.NewTokens["MintA"] = domain.TokenChange{UIAmount: 5}
	changes.NewTokens["MintB"] = domain.TokenChange{UIAmount: 5}
	changes.NewTokens["MintC"] = domain.TokenChange{UIAmount: 5}

	intents := exec.Execute(context.Background(), "W1", changes)
	if len(intents) != 2 {
		t.Fatalf("expected 2 intents despite one failure, got %d", len(intents))
	}
	if intents[0].MintAddress != "MintA" || intents[1].MintAddress != "MintC" {
		t.Errorf("intents = %v, %v", intents[0].MintAddress, intents[1].MintAddress)
	}
}

func TestMirrorExecutor_ExcludedAndDisabledSkips(t *testing.T) {
	s := testSettings()
	s.AutoBuyNew = false
	placer := &fakePlacer{}
	portfolio := &fakePortfolio{balances: map[string]float64{domain.USDCMint: 50}}
	exec := NewMirrorExecutor(placer, portfolio, nil, s, "copybot", testLogger())

	changes := domain.NewChangeRecord()
	changes.NewTokens["MintA"] = domain.TokenChange{UIAmount: 100}        // AutoBuyNew off
	changes.RemovedTokens[domain.USDCMint] = domain.TokenChange{}        // excluded
	changes.ModifiedTokens[domain.WSOLMint] = domain.ModifiedToken{PctChange: 50} // excluded

	intents := exec.Execute(context.Background(), "W1", changes)
	if len(intents) != 0 || len(placer.orders) != 0 {
		t.Errorf("expected all skips, intents=%d orders=%+v", len(intents), placer.orders)
	}
}

func TestMirrorExecutor_EmptyRecord(t *testing.T) {
	exec := NewMirrorExecutor(&fakePlacer{}, &fakePortfolio{}, nil, testSettings(), "copybot", testLogger())

	if got := exec.Execute(context.Background(), "W1", nil); got != nil {
		t.Errorf("nil record: got %v", got)
	}
	if got := exec.Execute(context.Background(), "W1", domain.NewChangeRecord()); got != nil {
		t.Errorf("empty record: got %v", got)
	}
}
