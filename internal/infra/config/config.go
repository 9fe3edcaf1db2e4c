package config

// Configuration loading for all commands
// Precedence: flags > environment > .env > config.yaml > defaults
// Short env aliases (HELIUS_API_KEY, TRACKED_MINT, ...) are bound next to GPU_* names

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gpu-snapshot/internal/infra/retry"
)

type Config struct {
	Helius   HeliusConfig   `mapstructure:"helius"`
	Token    TokenConfig    `mapstructure:"token"`
	Holders  HoldersConfig  `mapstructure:"holders"`
	Epoch    EpochConfig    `mapstructure:"epoch"`
	Rewards  RewardsConfig  `mapstructure:"rewards"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Server   ServerConfig   `mapstructure:"server"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	App      AppConfig      `mapstructure:"app"`
}

type HeliusConfig struct {
	APIKey          string  `mapstructure:"api_key"`
	BaseURL         string  `mapstructure:"base_url"`
	MaxAttempts     int     `mapstructure:"max_attempts"`
	BaseDelayMs     int     `mapstructure:"base_delay_ms"`
	MaxJitterMs     int     `mapstructure:"max_jitter_ms"`
	MaxDelayMs      int     `mapstructure:"max_delay_ms"`
	RequestTimeout  int     `mapstructure:"request_timeout"` // seconds
	RateLimit       float64 `mapstructure:"rate_limit"`      // requests per second
	Burst           int     `mapstructure:"burst"`
	MaxResponseSize int64   `mapstructure:"max_response_size"`
}

type TokenConfig struct {
	Mint               string   `mapstructure:"mint"`
	RewardsWallet      string   `mapstructure:"rewards_wallet"`
	EpochRewardsWallet string   `mapstructure:"epoch_rewards_wallet"`
	ExcludedWallets    []string `mapstructure:"excluded_wallets"`
	UnitSize           int64    `mapstructure:"unit_size"`
}

type HoldersConfig struct {
	Strategies         []string `mapstructure:"strategies"`
	BatchSize          int      `mapstructure:"batch_size"`
	HydrateConcurrency int      `mapstructure:"hydrate_concurrency"`
	OwnerCacheSize     int      `mapstructure:"owner_cache_size"`
}

type EpochConfig struct {
	DefaultSlotMs float64 `mapstructure:"default_slot_ms"`
}

type RewardsConfig struct {
	CycleSeconds int `mapstructure:"cycle_seconds"`
}

type SnapshotConfig struct {
	Concurrent   bool   `mapstructure:"concurrent"`
	CacheSeconds int    `mapstructure:"cache_seconds"`
	StaleSeconds int    `mapstructure:"stale_seconds"`
	Region       string `mapstructure:"region"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelegramConfig struct {
	BotToken        string `mapstructure:"bot_token"`
	ChatID          string `mapstructure:"chat_id"`
	IntervalSeconds int    `mapstructure:"interval_seconds"`
}

type AppConfig struct {
	LogDir   string `mapstructure:"log_dir"`
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
}

// ConfigurationError reports a missing or unusable required setting.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// Load reads configuration. fs may be nil; when set, its flags are bound by key name.
func Load(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./etc")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	}

	v.SetEnvPrefix("GPU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setupEnvAliases(v)

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Token.ExcludedWallets = stringList(v.Get("token.excluded_wallets"))
	cfg.Holders.Strategies = stringList(v.Get("holders.strategies"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// stringList accepts comma separated strings (env, flags) as well as YAML lists.
func stringList(raw any) []string {
	var items []string
	switch v := raw.(type) {
	case string:
		items = strings.Split(v, ",")
	case []string:
		items = v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func setupEnvAliases(v *viper.Viper) {
	v.BindEnv("helius.api_key", "GPU_HELIUS_API_KEY", "HELIUS_API_KEY")
	v.BindEnv("helius.base_url", "GPU_HELIUS_BASE_URL", "HELIUS_RPC_URL")
	v.BindEnv("helius.max_attempts", "GPU_HELIUS_MAX_ATTEMPTS", "RPC_MAX_ATTEMPTS")

	v.BindEnv("token.mint", "GPU_TOKEN_MINT", "TRACKED_MINT")
	v.BindEnv("token.rewards_wallet", "GPU_TOKEN_REWARDS_WALLET", "SOL_WALLET")
	v.BindEnv("token.epoch_rewards_wallet", "GPU_TOKEN_EPOCH_REWARDS_WALLET", "EPOCH_REWARDS_WALLET")
	v.BindEnv("token.excluded_wallets", "GPU_TOKEN_EXCLUDED_WALLETS", "EXCLUDED_WALLETS")
	v.BindEnv("token.unit_size", "GPU_TOKEN_UNIT_SIZE", "TOKENS_PER_GPU")

	v.BindEnv("holders.strategies", "GPU_HOLDERS_STRATEGIES", "HOLDER_STRATEGIES")

	v.BindEnv("snapshot.concurrent", "GPU_SNAPSHOT_CONCURRENT", "SNAPSHOT_CONCURRENT")
	v.BindEnv("snapshot.cache_seconds", "GPU_SNAPSHOT_CACHE_SECONDS", "CACHE_S_MAXAGE")
	v.BindEnv("snapshot.stale_seconds", "GPU_SNAPSHOT_STALE_SECONDS", "CACHE_SWR")
	v.BindEnv("snapshot.region", "GPU_SNAPSHOT_REGION", "REGION")

	v.BindEnv("server.addr", "GPU_SERVER_ADDR", "ADDR")

	v.BindEnv("telegram.bot_token", "GPU_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	v.BindEnv("telegram.chat_id", "GPU_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
}

// RequireAPIKey returns a *ConfigurationError when the RPC key is absent.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.Helius.APIKey) == "" {
		return &ConfigurationError{Key: "helius.api_key", Message: "Missing HELIUS_API_KEY"}
	}
	return nil
}

// RPCEndpoint is the provider URL with the api-key query parameter set.
func (c *Config) RPCEndpoint() string {
	u, err := url.Parse(c.Helius.BaseURL)
	if err != nil {
		return c.Helius.BaseURL
	}
	q := u.Query()
	q.Set("api-key", c.Helius.APIKey)
	u.RawQuery = q.Encode()
	return u.String()
}

// RetryOptions converts the millisecond settings into retry.Options.
func (c *Config) RetryOptions() retry.Options {
	return retry.Options{
		MaxAttempts: c.Helius.MaxAttempts,
		BaseDelay:   time.Duration(c.Helius.BaseDelayMs) * time.Millisecond,
		MaxJitter:   time.Duration(c.Helius.MaxJitterMs) * time.Millisecond,
		MaxDelay:    time.Duration(c.Helius.MaxDelayMs) * time.Millisecond,
	}
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Helius.RequestTimeout) * time.Second
}

func (c *Config) RewardCycle() time.Duration {
	return time.Duration(c.Rewards.CycleSeconds) * time.Second
}

func (c *Config) AnnounceInterval() time.Duration {
	return time.Duration(c.Telegram.IntervalSeconds) * time.Second
}

// CacheControl is the header value for successful snapshot responses.
func (c *Config) CacheControl() string {
	return fmt.Sprintf("public, max-age=0, s-maxage=%d, stale-while-revalidate=%d",
		c.Snapshot.CacheSeconds, c.Snapshot.StaleSeconds)
}
