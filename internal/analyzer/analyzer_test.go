package analyzer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"solana-copybot/internal/domain"
)

// fakeGenerator returns canned text or an error.
type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func testHolding(mint string) *domain.TokenHolding {
	return &domain.TokenHolding{
		Mint:     mint,
		Amount:   100,
		Decimals: 6,
		Symbol:   "TST",
		Name:     "Test Token",
		PriceUSD: 0.5,
	}
}

func TestAnalyze_ExcludedTokenSkipped(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.ExcludedTokens = []string{"excluded-mint"}
	gen := &fakeGenerator{response: "BUY\nConfidence: 90%"}
	a := New(gen, settings, nil)

	rec, err := a.Analyze(context.Background(), "excluded-mint", testHolding("excluded-mint"),
		domain.WalletContext{Action: domain.WalletActionNew}, "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if rec != nil {
		t.Error("excluded token must yield nil recommendation")
	}
	if len(gen.prompts) != 0 {
		t.Error("excluded token must not reach the AI collaborator")
	}
}

func TestAnalyze_NoHoldingData(t *testing.T) {
	a := New(&fakeGenerator{response: "BUY\nConfidence: 90%"}, domain.DefaultSettings(), nil)

	rec, err := a.Analyze(context.Background(), "m", nil,
		domain.WalletContext{Action: domain.WalletActionNew}, "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if rec != nil {
		t.Error("missing holding data must yield nil recommendation")
	}
}

func TestAnalyze_RemovedSynthesizesZeroHolding(t *testing.T) {
	gen := &fakeGenerator{response: "SELL\nWallet exited\nConfidence: 88%"}
	a := New(gen, domain.DefaultSettings(), nil)

	rec, err := a.Analyze(context.Background(), "m", nil,
		domain.WalletContext{Action: domain.WalletActionRemoved}, "")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if rec == nil {
		t.Fatal("removed token must still be analyzable")
	}
	if rec.Action != domain.ActionSell || rec.Confidence != 88 {
		t.Errorf("got %s/%d, want SELL/88", rec.Action, rec.Confidence)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "CLOSED this position") {
		t.Error("prompt must carry the removed-position hint")
	}
}

func TestAnalyze_GeneratorErrorDefaultsToNothing(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("timeout")}
	a := New(gen, domain.DefaultSettings(), nil)

	rec, err := a.Analyze(context.Background(), "m", testHolding("m"),
		domain.WalletContext{Action: domain.WalletActionModified, PctChange: 30}, "")
	if err != nil {
		t.Fatalf("Analyze must not propagate transport errors, got %v", err)
	}
	if rec == nil {
		t.Fatal("expected defaulted recommendation")
	}
	if rec.Action != domain.ActionNothing || rec.Confidence != DefaultConfidence {
		t.Errorf("got %s/%d, want NOTHING/%d", rec.Action, rec.Confidence, DefaultConfidence)
	}
}

func TestAnalyze_UnparseableResponseDiscarded(t *testing.T) {
	gen := &fakeGenerator{response: "MAYBE\nwho knows"}
	a := New(gen, domain.DefaultSettings(), nil)

	rec, err := a.Analyze(context.Background(), "m", testHolding("m"),
		domain.WalletContext{Action: domain.WalletActionNew}, "")
	if err != nil {
		t.Fatalf("parse failures must be recovered locally, got %v", err)
	}
	if rec != nil {
		t.Error("unparseable response must be discarded")
	}
}

func TestAnalyze_WalletHintStrength(t *testing.T) {
	cases := []struct {
		name string
		wctx domain.WalletContext
		want string
	}{
		{"new", domain.WalletContext{Action: domain.WalletActionNew}, "strong buy signal"},
		{"removed", domain.WalletContext{Action: domain.WalletActionRemoved}, "strong sell signal"},
		{"big increase", domain.WalletContext{Action: domain.WalletActionModified, PctChange: 45}, "strong buy signal"},
		{"small increase", domain.WalletContext{Action: domain.WalletActionModified, PctChange: 10}, "weak buy signal"},
		{"big decrease", domain.WalletContext{Action: domain.WalletActionModified, PctChange: -60}, "strong sell signal"},
		{"small decrease", domain.WalletContext{Action: domain.WalletActionModified, PctChange: -5}, "weak sell signal"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hint := walletHint(tc.wctx, 0.6)
			if !strings.Contains(hint, tc.want) {
				t.Errorf("hint %q does not contain %q", hint, tc.want)
			}
			if tc.wctx.Action != domain.WalletActionNone && !strings.Contains(hint, "0.60") {
				t.Errorf("hint %q does not carry the configured weight", hint)
			}
		})
	}
}

func TestAnalyzer_Unavailable(t *testing.T) {
	a := New(nil, domain.DefaultSettings(), nil)
	if a.Available() {
		t.Error("nil generator must report unavailable")
	}
	_, err := a.Analyze(context.Background(), "m", testHolding("m"), domain.WalletContext{}, "")
	if !errors.Is(err, ErrNoGenerator) {
		t.Errorf("expected ErrNoGenerator, got %v", err)
	}
}
