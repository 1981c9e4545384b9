// Package config loads engine settings and collaborator credentials from
// the environment, with an optional .env file for local runs.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"solana-copybot/internal/ai"
	"solana-copybot/internal/domain"
)

// Config is everything the process needs beyond command-line flags.
type Config struct {
	// Endpoints
	RPCEndpoint string
	WSEndpoint  string

	// Storage
	PostgresDSN   string
	ClickhouseDSN string

	// Collaborator credentials
	BirdeyeAPIKey string
	AI            ai.Config

	// Engine settings
	Settings domain.Settings
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	settings := domain.DefaultSettings()
	settings.WalletsToTrack = getEnvList("WALLETS_TO_TRACK")
	settings.MonitoredTokens = getEnvList("MONITORED_TOKENS")
	settings.DynamicMode = getEnvBool("DYNAMIC_MODE", true)
	if excluded := getEnvList("EXCLUDED_TOKENS"); len(excluded) > 0 {
		settings.ExcludedTokens = excluded
	}

	settings.MinTokenValueUSD = getEnvFloat("MIN_TOKEN_VALUE_USD", settings.MinTokenValueUSD)
	settings.PortfolioPctFilter = getEnvFloat("PORTFOLIO_PCT_FILTER", settings.PortfolioPctFilter)

	settings.MinConfidence = getEnvInt("MIN_CONFIDENCE", settings.MinConfidence)
	settings.WalletActionWeight = getEnvFloat("WALLET_ACTION_WEIGHT", settings.WalletActionWeight)

	settings.PortfolioSizeUSD = getEnvFloat("PORTFOLIO_SIZE_USD", settings.PortfolioSizeUSD)
	settings.MaxPositionPct = getEnvFloat("MAX_POSITION_PERCENTAGE", settings.MaxPositionPct)
	settings.MaxOrderSizeUSD = getEnvFloat("MAX_ORDER_SIZE_USD", settings.MaxOrderSizeUSD)

	settings.MirrorPositionScale = getEnvFloat("MIRROR_POSITION_SCALE", settings.MirrorPositionScale)
	settings.MinPositionUSD = getEnvFloat("MIN_POSITION_USD", settings.MinPositionUSD)
	settings.MaxTokenAllocation = getEnvFloat("MAX_TOKEN_ALLOCATION", settings.MaxTokenAllocation)
	settings.FallbackPositionUSD = getEnvFloat("FALLBACK_POSITION_USD", settings.FallbackPositionUSD)
	settings.AutoBuyNew = getEnvBool("AUTO_BUY_NEW", settings.AutoBuyNew)
	settings.AutoSellRemoved = getEnvBool("AUTO_SELL_REMOVED", settings.AutoSellRemoved)

	settings.TradingMode = domain.TradingMode(getEnv("TRADING_MODE", string(settings.TradingMode)))
	settings.DefaultLeverage = getEnvFloat("DEFAULT_LEVERAGE", settings.DefaultLeverage)

	settings.APICallDelay = getEnvDuration("API_CALL_DELAY", settings.APICallDelay)
	settings.CycleInterval = getEnvDuration("CYCLE_INTERVAL", settings.CycleInterval)
	settings.SkipFirstRun = getEnvBool("SKIP_FIRST_RUN", settings.SkipFirstRun)

	return &Config{
		RPCEndpoint: getEnv("RPC_ENDPOINT", "https://api.mainnet-beta.solana.com"),
		WSEndpoint:  os.Getenv("WS_ENDPOINT"),

		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN: os.Getenv("CLICKHOUSE_DSN"),

		BirdeyeAPIKey: os.Getenv("BIRDEYE_API_KEY"),
		AI: ai.Config{
			Provider: os.Getenv("AI_PROVIDER"),
			APIKey:   os.Getenv("AI_API_KEY"),
			Model:    os.Getenv("AI_MODEL"),
			BaseURL:  os.Getenv("AI_BASE_URL"),
		},

		Settings: settings,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
