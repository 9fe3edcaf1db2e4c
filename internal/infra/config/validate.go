package config

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap/zapcore"
)

// mintPattern is the base-58 shape accepted for mint overrides.
var mintPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// IsMint reports whether s looks like a base-58 mint address (32 to 44 characters).
func IsMint(s string) bool {
	return mintPattern.MatchString(s)
}

// KnownStrategies lists the holder strategy names accepted in holders.strategies.
var KnownStrategies = []string{"program_accounts", "sliced_program_accounts", "largest_accounts"}

// Validate checks ranges and address formats. The API key is checked separately by RequireAPIKey.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Helius.BaseURL); err != nil {
		return &ConfigurationError{Key: "helius.base_url", Message: fmt.Sprintf("invalid helius.base_url %q: %v", c.Helius.BaseURL, err)}
	}
	if c.Helius.MaxAttempts < 1 {
		return &ConfigurationError{Key: "helius.max_attempts", Message: "helius.max_attempts must be at least 1"}
	}
	if c.Helius.BaseDelayMs < 0 || c.Helius.MaxJitterMs < 0 || c.Helius.MaxDelayMs < 0 {
		return &ConfigurationError{Key: "helius.base_delay_ms", Message: "retry delays must not be negative"}
	}
	if c.Helius.RequestTimeout <= 0 {
		return &ConfigurationError{Key: "helius.request_timeout", Message: "helius.request_timeout must be positive"}
	}
	if c.Helius.RateLimit <= 0 || c.Helius.Burst < 1 {
		return &ConfigurationError{Key: "helius.rate_limit", Message: "helius.rate_limit and helius.burst must be positive"}
	}
	if c.Helius.MaxResponseSize <= 0 {
		return &ConfigurationError{Key: "helius.max_response_size", Message: "helius.max_response_size must be positive"}
	}

	addresses := map[string]string{
		"token.mint":                 c.Token.Mint,
		"token.rewards_wallet":       c.Token.RewardsWallet,
		"token.epoch_rewards_wallet": c.Token.EpochRewardsWallet,
	}
	for key, addr := range addresses {
		if err := checkAddress(key, addr); err != nil {
			return err
		}
	}
	for _, addr := range c.Token.ExcludedWallets {
		if err := checkAddress("token.excluded_wallets", addr); err != nil {
			return err
		}
	}
	if c.Token.UnitSize <= 0 {
		return &ConfigurationError{Key: "token.unit_size", Message: "token.unit_size must be positive"}
	}

	if len(c.Holders.Strategies) == 0 {
		c.Holders.Strategies = slices.Clone(DefaultStrategies)
	}
	for _, name := range c.Holders.Strategies {
		if !slices.Contains(KnownStrategies, name) {
			return &ConfigurationError{Key: "holders.strategies", Message: fmt.Sprintf("unknown holder strategy %q", name)}
		}
	}
	if c.Holders.BatchSize < 1 || c.Holders.BatchSize > 100 {
		return &ConfigurationError{Key: "holders.batch_size", Message: "holders.batch_size must be within 1..100"}
	}
	if c.Holders.HydrateConcurrency < 1 {
		return &ConfigurationError{Key: "holders.hydrate_concurrency", Message: "holders.hydrate_concurrency must be at least 1"}
	}
	if c.Holders.OwnerCacheSize < 1 {
		return &ConfigurationError{Key: "holders.owner_cache_size", Message: "holders.owner_cache_size must be at least 1"}
	}

	if c.Epoch.DefaultSlotMs <= 0 {
		return &ConfigurationError{Key: "epoch.default_slot_ms", Message: "epoch.default_slot_ms must be positive"}
	}
	if c.Rewards.CycleSeconds <= 0 {
		return &ConfigurationError{Key: "rewards.cycle_seconds", Message: "rewards.cycle_seconds must be positive"}
	}
	if c.Snapshot.CacheSeconds < 0 || c.Snapshot.StaleSeconds < 0 {
		return &ConfigurationError{Key: "snapshot.cache_seconds", Message: "cache durations must not be negative"}
	}
	if c.Telegram.IntervalSeconds <= 0 {
		return &ConfigurationError{Key: "telegram.interval_seconds", Message: "telegram.interval_seconds must be positive"}
	}

	if _, err := zapcore.ParseLevel(c.App.LogLevel); err != nil {
		return &ConfigurationError{Key: "app.log_level", Message: fmt.Sprintf("invalid app.log_level %q", c.App.LogLevel)}
	}

	return nil
}

// RequireTelegram checks the settings the announcer needs.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return &ConfigurationError{Key: "telegram.bot_token", Message: "Missing TELEGRAM_BOT_TOKEN"}
	}
	if c.Telegram.ChatID == "" {
		return &ConfigurationError{Key: "telegram.chat_id", Message: "Missing TELEGRAM_CHAT_ID"}
	}
	return nil
}

func checkAddress(key, addr string) error {
	if _, err := solana.PublicKeyFromBase58(addr); err != nil {
		return &ConfigurationError{Key: key, Message: fmt.Sprintf("invalid %s %q: %v", key, addr, err)}
	}
	return nil
}
