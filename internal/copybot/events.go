package copybot

import (
	"time"

	"solana-copybot/internal/domain"
	"solana-copybot/internal/observability"
)

// Observer receives engine lifecycle events. The runner never depends on a
// metrics backend directly; wiring one in is the caller's choice.
type Observer interface {
	CycleCompleted(mode domain.ExecutionMode, status string, duration time.Duration)
	ChangeDetected(kind domain.ChangeKind)
	TokenAnalyzed(latency time.Duration)
	TradeExecuted(mode domain.ExecutionMode, action domain.Action)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) CycleCompleted(domain.ExecutionMode, string, time.Duration) {}
func (NopObserver) ChangeDetected(domain.ChangeKind)                           {}
func (NopObserver) TokenAnalyzed(time.Duration)                                {}
func (NopObserver) TradeExecuted(domain.ExecutionMode, domain.Action)          {}

// MetricsObserver forwards events to the Prometheus metrics.
type MetricsObserver struct{}

func (MetricsObserver) CycleCompleted(mode domain.ExecutionMode, status string, duration time.Duration) {
	observability.RecordCycle(string(mode), status, duration.Seconds())
	observability.SetMirrorMode(mode == domain.ModeMirror)
	if status == "ok" {
		observability.DefaultMetrics.LastSuccessfulCycle.Set(float64(time.Now().Unix()))
	}
}

func (MetricsObserver) ChangeDetected(kind domain.ChangeKind) {
	observability.RecordChange(string(kind))
}

func (MetricsObserver) TokenAnalyzed(latency time.Duration) {
	observability.RecordAnalysis(latency.Seconds())
}

func (MetricsObserver) TradeExecuted(mode domain.ExecutionMode, action domain.Action) {
	observability.RecordTrade(string(mode), string(action))
}
