package domain

// Action is the trading action recommended for a position.
type Action string

const (
	ActionBuy     Action = "BUY"
	ActionSell    Action = "SELL"
	ActionNothing Action = "NOTHING"
)

// ValidAction reports whether a is one of the three known actions.
func ValidAction(a Action) bool {
	switch a {
	case ActionBuy, ActionSell, ActionNothing:
		return true
	}
	return false
}

// Recommendation is the analyzer output for one (token, wallet-context) pair.
// Recommendations accumulate in a per-cycle table and are discarded at the
// start of the next cycle.
type Recommendation struct {
	Token      string // mint address
	Action     Action
	Confidence int    // always within [0, 100]
	Reasoning  string // free text from the AI response
}

// ClampConfidence bounds a parsed confidence figure to [0, 100].
func ClampConfidence(c int) int {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}
