package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the claim service reads from the environment.
type Config struct {
	Port                string
	DatabaseURL         string
	AllowedOrigins      []string
	GatewayServiceToken string

	AuthURL    string
	AuthAPIKey string

	LogLevel  string
	LogFormat string
	LogFile   string

	Chain      ChainConfig
	Reconciler ReconcilerConfig
	Receipts   ReceiptsConfig
}

type ChainConfig struct {
	RPCURL          string
	ChainID         int64
	TokenAddress    string
	TokenSymbol     string
	DefaultDecimals uint8
	AdminPrivateKey string
	ConfirmTimeout  time.Duration
	PollInterval    time.Duration
}

type ReconcilerConfig struct {
	Interval     time.Duration
	StaleAfter   time.Duration
	AbandonAfter time.Duration
	BatchSize    int
}

// ReceiptsConfig points at an R2 bucket. Archiving is off when Bucket is empty.
type ReceiptsConfig struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
}

func (r ReceiptsConfig) Enabled() bool {
	return r.Bucket != ""
}

// Load reads the configuration from environment variables. The admin private key
// is optional here: a service without it still starts and answers claims with a
// configuration error.
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:                getEnv("PORT", "5200"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		AllowedOrigins:      splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		GatewayServiceToken: os.Getenv("GATEWAY_SERVICE_TOKEN"),
		AuthURL:             strings.TrimRight(os.Getenv("AUTH_URL"), "/"),
		AuthAPIKey:          os.Getenv("AUTH_API_KEY"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "console"),
		LogFile:             os.Getenv("LOG_FILE"),
		Chain: ChainConfig{
			RPCURL:          getEnv("CHAIN_RPC_URL", "https://bsc-dataseed.binance.org"),
			TokenAddress:    os.Getenv("CHAIN_TOKEN_ADDRESS"),
			TokenSymbol:     getEnv("CHAIN_TOKEN_SYMBOL", "CAMLY"),
			AdminPrivateKey: os.Getenv("ADMIN_WALLET_PRIVATE_KEY"),
		},
		Receipts: ReceiptsConfig{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_RECEIPTS_BUCKET"),
		},
	}

	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if cfg.AuthURL == "" {
		errs = append(errs, errors.New("AUTH_URL is required"))
	}

	var err error
	if cfg.Chain.ChainID, err = getInt64("CHAIN_ID", 56); err != nil {
		errs = append(errs, err)
	}
	decimals, err := getInt64("CHAIN_TOKEN_DEFAULT_DECIMALS", 18)
	if err != nil {
		errs = append(errs, err)
	} else if decimals < 0 || decimals > 36 {
		errs = append(errs, fmt.Errorf("CHAIN_TOKEN_DEFAULT_DECIMALS out of range: %d", decimals))
	} else {
		cfg.Chain.DefaultDecimals = uint8(decimals)
	}
	if cfg.Chain.ConfirmTimeout, err = getDuration("CHAIN_CONFIRM_TIMEOUT", 90*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.Chain.PollInterval, err = getDuration("CHAIN_POLL_INTERVAL", 2*time.Second); err != nil {
		errs = append(errs, err)
	}

	if cfg.Reconciler.Interval, err = getDuration("RECONCILE_INTERVAL", time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.Reconciler.StaleAfter, err = getDuration("RECONCILE_STALE_AFTER", 2*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.Reconciler.AbandonAfter, err = getDuration("RECONCILE_ABANDON_AFTER", 30*time.Minute); err != nil {
		errs = append(errs, err)
	}
	batch, err := getInt64("RECONCILE_BATCH_SIZE", 50)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.Reconciler.BatchSize = int(batch)

	// A claim must not look stale while its request is still waiting for the receipt.
	if cfg.Reconciler.StaleAfter <= cfg.Chain.ConfirmTimeout {
		errs = append(errs, fmt.Errorf("RECONCILE_STALE_AFTER (%s) must exceed CHAIN_CONFIRM_TIMEOUT (%s)",
			cfg.Reconciler.StaleAfter, cfg.Chain.ConfirmTimeout))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt64(key string, fallback int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
