package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Password PasswordConfig `mapstructure:"password"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	FX       FXConfig       `mapstructure:"fx"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Currency CurrencyConfig `mapstructure:"currency"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	// StatementTimeout caps every statement server-side so a stuck ledger
	// transaction releases its row locks. 0 disables it.
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// PoolSize 0 keeps the go-redis default.
	PoolSize int `mapstructure:"pool_size"`
	// OpTimeout bounds every cache and limiter command.
	OpTimeout time.Duration `mapstructure:"op_timeout"`
}

// PasswordConfig holds the Argon2id cost parameters for new hashes.
type PasswordConfig struct {
	Time      uint32 `mapstructure:"time"`
	MemoryKiB uint32 `mapstructure:"memory_kib"`
	Threads   uint8  `mapstructure:"threads"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// FXConfig points at the external exchange-rate provider.
type FXConfig struct {
	RootURL       string        `mapstructure:"root_url"`
	APIKey        string        `mapstructure:"api_key"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	Timeout       time.Duration `mapstructure:"timeout"`
	WarmOnStartup bool          `mapstructure:"warm_on_startup"`
}

// LedgerConfig controls balance provisioning and the optimistic-lock retry loop.
type LedgerConfig struct {
	DefaultCurrency    string        `mapstructure:"default_currency"`
	SettlementCurrency string        `mapstructure:"settlement_currency"`
	OpeningBalance     string        `mapstructure:"opening_balance"`
	MockBalance        bool          `mapstructure:"mock_balance"` // random opening balance, never in release
	MaxRetries         int           `mapstructure:"max_retries"`
	RetryBackoff       time.Duration `mapstructure:"retry_backoff"`
}

// OpeningAmount parses OpeningBalance. Validate guarantees it succeeds.
func (l LedgerConfig) OpeningAmount() decimal.Decimal {
	d, err := decimal.NewFromString(l.OpeningBalance)
	if err != nil {
		return decimal.Zero
	}
	return d
}

type CurrencySeed struct {
	Code string `mapstructure:"code"`
	Name string `mapstructure:"name"`
}

type CurrencyConfig struct {
	LoadDefaults bool           `mapstructure:"load_defaults"`
	Seed         []CurrencySeed `mapstructure:"seed"`
}

// DefaultCurrencySeed is the catalog loaded when no seed list is configured.
var DefaultCurrencySeed = []CurrencySeed{
	{Code: "NGN", Name: "Nigerian Naira"},
	{Code: "USD", Name: "US Dollar"},
	{Code: "EUR", Name: "Euro"},
	{Code: "GBP", Name: "British Pound"},
	{Code: "GHS", Name: "Ghanaian Cedi"},
	{Code: "KES", Name: "Kenyan Shilling"},
	{Code: "ZAR", Name: "South African Rand"},
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: WL_ (Wallet Ledger).
// Nested keys use underscore: WL_DATABASE_HOST, WL_FX_API_KEY, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "wallet_ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.statement_timeout", "10s")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.op_timeout", "500ms")
	v.SetDefault("password.time", 1)
	v.SetDefault("password.memory_kib", 64*1024)
	v.SetDefault("password.threads", 4)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")
	v.SetDefault("jwt.issuer", "wallet-ledger")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("fx.root_url", "https://v6.exchangerate-api.com/v6")
	v.SetDefault("fx.api_key", "")
	v.SetDefault("fx.cache_ttl", "300s")
	v.SetDefault("fx.timeout", "5s")
	v.SetDefault("fx.warm_on_startup", false)
	v.SetDefault("ledger.default_currency", "NGN")
	v.SetDefault("ledger.settlement_currency", "NGN")
	v.SetDefault("ledger.opening_balance", "0")
	v.SetDefault("ledger.mock_balance", false)
	v.SetDefault("ledger.max_retries", 3)
	v.SetDefault("ledger.retry_backoff", "20ms")
	v.SetDefault("currency.load_defaults", true)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: WL_DATABASE_HOST -> database.host
	v.SetEnvPrefix("WL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required, env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if len(cfg.Currency.Seed) == 0 {
		cfg.Currency.Seed = append([]CurrencySeed(nil), DefaultCurrencySeed...)
	}

	return &cfg, nil
}

// Validate reports every startup misconfiguration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.FX.RootURL == "" {
		errs = append(errs, errors.New("fx.root_url is required"))
	}
	if c.FX.APIKey == "" {
		errs = append(errs, errors.New("fx.api_key is required"))
	}
	if c.FX.CacheTTL <= 0 {
		errs = append(errs, errors.New("fx.cache_ttl must be positive"))
	}
	if c.FX.Timeout <= 0 {
		errs = append(errs, errors.New("fx.timeout must be positive"))
	}
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	if c.Ledger.DefaultCurrency == "" {
		errs = append(errs, errors.New("ledger.default_currency is required"))
	}
	if c.Ledger.SettlementCurrency == "" {
		errs = append(errs, errors.New("ledger.settlement_currency is required"))
	}
	if d, err := decimal.NewFromString(c.Ledger.OpeningBalance); err != nil || d.IsNegative() {
		errs = append(errs, fmt.Errorf("ledger.opening_balance %q must be a non-negative decimal", c.Ledger.OpeningBalance))
	}
	if c.Ledger.MockBalance && c.Server.Mode == "release" {
		errs = append(errs, errors.New("ledger.mock_balance cannot be enabled in release mode"))
	}
	if c.Ledger.MaxRetries < 1 {
		errs = append(errs, errors.New("ledger.max_retries must be at least 1"))
	}

	if c.Password.Time < 1 || c.Password.Threads < 1 {
		errs = append(errs, errors.New("password.time and password.threads must be at least 1"))
	}
	if c.Password.MemoryKiB < 8*uint32(c.Password.Threads) {
		errs = append(errs, errors.New("password.memory_kib must be at least 8 per thread"))
	}

	seen := make(map[string]struct{}, len(c.Currency.Seed))
	for i, s := range c.Currency.Seed {
		if s.Code == "" || s.Name == "" {
			errs = append(errs, fmt.Errorf("currency.seed[%d]: code and name are required", i))
			continue
		}
		if _, dup := seen[s.Code]; dup {
			errs = append(errs, fmt.Errorf("currency.seed[%d]: duplicate code %s", i, s.Code))
		}
		seen[s.Code] = struct{}{}
	}

	return errors.Join(errs...)
}
