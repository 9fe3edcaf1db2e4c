package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL            = "https://mainnet.helius-rpc.com/"
	DefaultMint               = "HUz9dMkUd1TiDzpm9nwkiQDUgUp9gazuVF59DyAjpump"
	DefaultRewardsWallet      = "85rjKGRFu9emw1Jyue3BfuJd3m8mqbhZQKrK7Gwfk7Jq"
	DefaultEpochRewardsWallet = "Ch8xxccjR5iYVwDrNmFdCt3tSX4VaVKfjAqMsoMNRmfv"
	PumpFunAMMWallet          = "GXz5QGRpugxBZ7V9S9YiJ27K5Zt7TqizqvrjZRVegeU5"
	DefaultUnitSize           = 1_000_000
)

// DefaultStrategies is the holder strategy order when none is configured.
var DefaultStrategies = []string{"program_accounts", "sliced_program_accounts", "largest_accounts"}

// setDefaults by default
func setDefaults(v *viper.Viper) {
	// Helius
	v.SetDefault("helius.api_key", "")
	v.SetDefault("helius.base_url", DefaultBaseURL)
	v.SetDefault("helius.max_attempts", 5)
	v.SetDefault("helius.base_delay_ms", 300)
	v.SetDefault("helius.max_jitter_ms", 250)
	v.SetDefault("helius.max_delay_ms", 5000)
	v.SetDefault("helius.request_timeout", 20)
	v.SetDefault("helius.rate_limit", 9.0)
	v.SetDefault("helius.burst", 9)
	v.SetDefault("helius.max_response_size", 64*1024*1024) // 64MB, program account scans are large

	// Token
	v.SetDefault("token.mint", DefaultMint)
	v.SetDefault("token.rewards_wallet", DefaultRewardsWallet)
	v.SetDefault("token.epoch_rewards_wallet", DefaultEpochRewardsWallet)
	v.SetDefault("token.excluded_wallets", []string{PumpFunAMMWallet})
	v.SetDefault("token.unit_size", DefaultUnitSize)

	// Holders
	v.SetDefault("holders.strategies", DefaultStrategies)
	v.SetDefault("holders.batch_size", 100)
	v.SetDefault("holders.hydrate_concurrency", 2)
	v.SetDefault("holders.owner_cache_size", 4096)

	v.SetDefault("epoch.default_slot_ms", 400.0)
	v.SetDefault("rewards.cycle_seconds", 1800)

	// Snapshot
	v.SetDefault("snapshot.concurrent", true)
	v.SetDefault("snapshot.cache_seconds", 30)
	v.SetDefault("snapshot.stale_seconds", 30)
	v.SetDefault("snapshot.region", "")

	v.SetDefault("server.addr", ":8080")

	// Telegram
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.interval_seconds", 1800)

	// App
	v.SetDefault("app.log_dir", "logs")
	v.SetDefault("app.data_dir", "data_out")
	v.SetDefault("app.log_level", "info")
}

// RegisterFlags adds the config flags to fs. Only flags the user changed override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("helius.api_key", "", "Helius API key (env: HELIUS_API_KEY)")
	fs.String("helius.base_url", DefaultBaseURL, "Helius RPC base URL (env: HELIUS_RPC_URL)")
	fs.Int("helius.max_attempts", 5, "Total attempts per RPC call (env: RPC_MAX_ATTEMPTS)")
	fs.Int("helius.request_timeout", 20, "Per-attempt request timeout in seconds")
	fs.Float64("helius.rate_limit", 9, "Outbound RPC requests per second")

	fs.String("token.mint", DefaultMint, "Tracked token mint (env: TRACKED_MINT)")
	fs.String("token.rewards_wallet", DefaultRewardsWallet, "GPU rewards wallet (env: SOL_WALLET)")
	fs.String("token.epoch_rewards_wallet", DefaultEpochRewardsWallet, "Epoch rewards wallet (env: EPOCH_REWARDS_WALLET)")
	fs.Int64("token.unit_size", DefaultUnitSize, "Tokens per GPU (env: TOKENS_PER_GPU)")

	fs.String("holders.strategies", "", "Comma-separated holder strategies in order (env: HOLDER_STRATEGIES)")

	fs.Bool("snapshot.concurrent", true, "Run snapshot RPC calls concurrently (env: SNAPSHOT_CONCURRENT)")
	fs.String("snapshot.region", "", "Region echoed in X-Snapshot-Region (env: REGION)")

	fs.String("server.addr", ":8080", "HTTP listen address (env: ADDR)")

	fs.String("telegram.bot_token", "", "Telegram bot token (env: TELEGRAM_BOT_TOKEN)")
	fs.String("telegram.chat_id", "", "Telegram chat ID (env: TELEGRAM_CHAT_ID)")
	fs.Int("telegram.interval_seconds", 1800, "Announcement interval in seconds")

	fs.String("app.log_dir", "logs", "Log directory, empty disables the file sink")
	fs.String("app.data_dir", "data_out", "Directory for rendered cards")
	fs.String("app.log_level", "info", "Log level: debug, info, warn, error")
}
