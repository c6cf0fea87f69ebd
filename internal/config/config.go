// Package config provides application configuration loaded from environment variables.
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        // e.g. "8080"
	Env          string        // "development" | "production"
	ReadTimeout  time.Duration // default 10s
	WriteTimeout time.Duration // default 30s (settlement requests are slow)
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	DSN             string        // full postgres DSN
	MaxOpenConns    int           // default 25
	MaxIdleConns    int           // default 10
	ConnMaxLifetime time.Duration // default 5m
}

// SolanaConfig holds chain RPC and operator signer settings.
type SolanaConfig struct {
	RPCURL              string        // full RPC endpoint incl. API key
	OperatorKey         string        // base58-encoded operator private key
	ConfirmTimeout      time.Duration // max wait for tx confirmation, default 60s
	ConfirmPollInterval time.Duration // signature status poll interval, default 2s
	SendMaxRetries      uint          // RPC-side resend budget, default 2
}

// GameConfig holds the deposit action settings for the current game round.
type GameConfig struct {
	GameID            int64  // game id encoded into deposit memos
	StakeLamports     uint64 // fixed stake per player, default 0.69 SOL
	CollectionAddress string // base58 address deposits are sent to
	ActionPriorityFee uint64 // µlamports per CU on the deposit transaction
}

// SwapConfig holds liquidity venue and conversion settings.
type SwapConfig struct {
	JupiterURL       string        // quote API base URL
	FetchTimeout     time.Duration // per-request HTTP timeout, default 10s
	InputMint        string        // wrapped native mint
	OutputMint       string        // reward token mint
	SlippageBps      int           // default 300 (3%)
	ComputeUnitLimit uint32        // default 400_000
	ComputeUnitPrice uint64        // µlamports per CU, default 1_000_000
	MaxAttempts      int           // retry budget for swap and transfer, default 3
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Solana SolanaConfig
	Game   GameConfig
	Swap   SwapConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// Returns the first validation error encountered.
func (c *Config) Validate() error {
	var errs []error

	if c.Game.CollectionAddress == "" {
		errs = append(errs, errors.New("GAME_COLLECTION_ADDRESS must be set"))
	}
	if c.Game.StakeLamports == 0 {
		errs = append(errs, errors.New("GAME_STAKE_LAMPORTS must be positive"))
	}

	// In production the chain credentials must be explicit
	if c.IsProd() {
		if c.DB.DSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN must be set in production"))
		}
		if c.Solana.OperatorKey == "" {
			errs = append(errs, errors.New("SOLANA_OPERATOR_KEY must be set in production"))
		}
	}

	if c.Swap.SlippageBps <= 0 || c.Swap.SlippageBps >= 10_000 {
		errs = append(errs, fmt.Errorf(
			"SWAP_SLIPPAGE_BPS must be between 0 and 10000 (exclusive), got %d",
			c.Swap.SlippageBps,
		))
	}
	if c.Swap.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("SWAP_MAX_ATTEMPTS must be at least 1, got %d", c.Swap.MaxAttempts))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment variables.
// Panics if loading fails — call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:         getEnv("SERVER_PORT", "8080"),
		Env:          getEnv("ENVIRONMENT", "development"),
		ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		// Build DSN from individual components for convenience in dev
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "squadgames"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	cfg.DB = DBConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	// ── Solana ────────────────────────────────────────────────────────────────
	sendRetries, err := getInt("SOLANA_SEND_MAX_RETRIES", 2)
	if err != nil {
		return nil, fmt.Errorf("SOLANA_SEND_MAX_RETRIES: %w", err)
	}

	cfg.Solana = SolanaConfig{
		RPCURL:              getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		OperatorKey:         getEnv("SOLANA_OPERATOR_KEY", ""),
		ConfirmTimeout:      getDuration("SOLANA_CONFIRM_TIMEOUT", 60*time.Second),
		ConfirmPollInterval: getDuration("SOLANA_CONFIRM_POLL_INTERVAL", 2*time.Second),
		SendMaxRetries:      uint(sendRetries),
	}

	// ── Game ──────────────────────────────────────────────────────────────────
	gameID, err := getInt64("GAME_ID", 1)
	if err != nil {
		return nil, fmt.Errorf("GAME_ID: %w", err)
	}
	stake, err := getUint64("GAME_STAKE_LAMPORTS", 690_000_000) // 0.69 SOL
	if err != nil {
		return nil, fmt.Errorf("GAME_STAKE_LAMPORTS: %w", err)
	}
	actionFee, err := getUint64("GAME_ACTION_PRIORITY_FEE", 1_000)
	if err != nil {
		return nil, fmt.Errorf("GAME_ACTION_PRIORITY_FEE: %w", err)
	}

	cfg.Game = GameConfig{
		GameID:            gameID,
		StakeLamports:     stake,
		CollectionAddress: getEnv("GAME_COLLECTION_ADDRESS", ""),
		ActionPriorityFee: actionFee,
	}

	// ── Swap ──────────────────────────────────────────────────────────────────
	slippage, err := getInt("SWAP_SLIPPAGE_BPS", 300)
	if err != nil {
		return nil, fmt.Errorf("SWAP_SLIPPAGE_BPS: %w", err)
	}
	cuLimit, err := getInt("SWAP_COMPUTE_UNIT_LIMIT", 400_000)
	if err != nil {
		return nil, fmt.Errorf("SWAP_COMPUTE_UNIT_LIMIT: %w", err)
	}
	cuPrice, err := getUint64("SWAP_COMPUTE_UNIT_PRICE", 1_000_000)
	if err != nil {
		return nil, fmt.Errorf("SWAP_COMPUTE_UNIT_PRICE: %w", err)
	}
	attempts, err := getInt("SWAP_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, fmt.Errorf("SWAP_MAX_ATTEMPTS: %w", err)
	}

	cfg.Swap = SwapConfig{
		JupiterURL:       getEnv("SWAP_JUPITER_URL", "https://quote-api.jup.ag/v6"),
		FetchTimeout:     getDuration("SWAP_FETCH_TIMEOUT", 10*time.Second),
		InputMint:        getEnv("SWAP_INPUT_MINT", "So11111111111111111111111111111111111111112"),
		OutputMint:       getEnv("SWAP_OUTPUT_MINT", "SENDdRQtYMWaQrBroBrJ2Q53fgVuq95CV9UPGEvpCxa"),
		SlippageBps:      slippage,
		ComputeUnitLimit: uint32(cuLimit),
		ComputeUnitPrice: cuPrice,
		MaxAttempts:      attempts,
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getInt64(key string, defaultVal int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getUint64(key string, defaultVal uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid unsigned integer %q", v)
	}
	return n, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// Falls back to defaultVal if the variable is unset or empty.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Log warning and fall back to default; do not crash on parse error
		return defaultVal
	}
	return d
}
