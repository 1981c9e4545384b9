// Package decision collects per-token recommendations and turns confidence
// into position sizes.
package decision

import (
	"sync"

	"solana-copybot/internal/domain"
)

// Table accumulates recommendations for one analysis cycle. It is reset at
// the start of each cycle. Appends are synchronized so per-token analysis
// may be parallelized without changing any invariant.
type Table struct {
	mu   sync.Mutex
	recs []*domain.Recommendation
}

// NewTable creates an empty recommendation table.
func NewTable() *Table {
	return &Table{}
}

// Append adds a recommendation. Nil entries are ignored.
func (t *Table) Append(rec *domain.Recommendation) {
	if rec == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recs = append(t.recs, rec)
}

// All returns a copy of the accumulated recommendations.
func (t *Table) All() []*domain.Recommendation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*domain.Recommendation, len(t.recs))
	copy(out, t.recs)
	return out
}

// Len returns the number of accumulated recommendations.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.recs)
}

// Reset discards all accumulated recommendations.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recs = nil
}

// SelectActionable filters out recommendations below the minimum confidence
// threshold and NOTHING actions. Blending of wallet-action weight into
// confidence already happened inside the AI prompt; this stage is pure
// thresholding.
func SelectActionable(recs []*domain.Recommendation, minConfidence int) []*domain.Recommendation {
	out := make([]*domain.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if rec.Action == domain.ActionNothing {
			continue
		}
		if rec.Confidence < minConfidence {
			continue
		}
		out = append(out, rec)
	}
	return out
}
