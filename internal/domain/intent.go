package domain

// ExecutionMode identifies which executor produced a trade intent.
type ExecutionMode string

const (
	ModeAI     ExecutionMode = "AI"
	ModeMirror ExecutionMode = "MIRROR"
)

// TradeIntent is emitted once per executed decision and handed to the order
// execution collaborator. The engine does not retain intents beyond emission;
// audit logging is handled by the intent store.
type TradeIntent struct {
	AgentName     string
	Mode          ExecutionMode
	Action        Action
	TokenName     string
	TokenSymbol   string
	MintAddress   string
	WalletAddress string   // the tracked wallet that triggered the intent
	AmountUSD     float64  // USD size for buys, position value for sells
	SellFraction  float64  // fraction sold for partial sells, 0 otherwise
	EntryPrice    float64  // 0 when no price was available
	ExitPrice     *float64 // nil for buys and open positions
	PnLValue      *float64 // nil when not computable
	PnLPercent    *float64 // nil when not computable
	AIAnalysis    string   // reasoning text, empty in mirror mode
	CreatedAt     int64    // Unix timestamp in milliseconds
}
