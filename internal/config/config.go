package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                     string
	AllowedOrigin            string
	SecureCookies            bool
	BackendURL               string
	BackendTimeout           time.Duration
	BackendRatePerSecond     float64
	DatabaseURL              string
	RedisAddr                string
	RedisPassword            string
	RedisDB                  int
	CatalogTTLSeconds        int
	StoreID                  string
	TerminalID               string
	SessionTTLMinutes        int
	SupervisorPIN            string
	MaxManualDiscountPercent float64
	AMQPURL                  string
	PrintQueue               string
	StoreName                string
	ReceiptHeader            []string
	ReceiptFooter            []string
}

// fileOverlay is the optional YAML file named by TERMINAL_CONFIG. Only the
// fields present in the file replace env values.
type fileOverlay struct {
	StoreName                *string  `yaml:"store_name"`
	StoreID                  *string  `yaml:"store_id"`
	TerminalID               *string  `yaml:"terminal_id"`
	MaxManualDiscountPercent *float64 `yaml:"max_manual_discount_percent"`
	Receipt                  struct {
		Header []string `yaml:"header"`
		Footer []string `yaml:"footer"`
	} `yaml:"receipt"`
}

func Load() (Config, error) {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, err := strconv.Atoi(getEnv("CATALOG_TTL_SECONDS", "60"))
	if err != nil || ttl < 1 {
		ttl = 60
	}
	sessionTTL, err := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "480"))
	if err != nil || sessionTTL < 1 {
		sessionTTL = 480
	}
	timeout, err := time.ParseDuration(getEnv("BACKEND_TIMEOUT", "15s"))
	if err != nil || timeout <= 0 {
		timeout = 15 * time.Second
	}
	ratePerSecond, err := strconv.ParseFloat(getEnv("BACKEND_RATE_PER_SECOND", "20"), 64)
	if err != nil || ratePerSecond < 0 {
		ratePerSecond = 20
	}
	maxDiscount, err := strconv.ParseFloat(getEnv("MAX_MANUAL_DISCOUNT_PERCENT", "10"), 64)
	if err != nil || maxDiscount < 0 || maxDiscount > 100 {
		maxDiscount = 10
	}

	cfg := Config{
		Port:                     getEnv("PORT", "8090"),
		AllowedOrigin:            getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		SecureCookies:            strings.EqualFold(getEnv("COOKIE_SECURE", "false"), "true"),
		BackendURL:               getEnv("BACKEND_URL", "http://127.0.0.1:8080/api"),
		BackendTimeout:           timeout,
		BackendRatePerSecond:     ratePerSecond,
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		RedisAddr:                os.Getenv("REDIS_ADDR"),
		RedisPassword:            os.Getenv("REDIS_PASSWORD"),
		RedisDB:                  redisDB,
		CatalogTTLSeconds:        ttl,
		StoreID:                  getEnv("STORE_ID", "main-store"),
		TerminalID:               getEnv("TERMINAL_ID", "terminal-1"),
		SessionTTLMinutes:        sessionTTL,
		SupervisorPIN:            strings.TrimSpace(os.Getenv("SUPERVISOR_PIN")),
		MaxManualDiscountPercent: maxDiscount,
		AMQPURL:                  os.Getenv("AMQP_URL"),
		PrintQueue:               getEnv("PRINT_QUEUE", "tokobesi.print.jobs"),
		StoreName:                getEnv("STORE_NAME", "Toko Besi"),
	}

	if path := strings.TrimSpace(os.Getenv("TERMINAL_CONFIG")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read terminal config: %w", err)
	}
	var overlay fileOverlay
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("parse terminal config %s: %w", path, err)
	}

	if overlay.StoreName != nil {
		c.StoreName = *overlay.StoreName
	}
	if overlay.StoreID != nil {
		c.StoreID = *overlay.StoreID
	}
	if overlay.TerminalID != nil {
		c.TerminalID = *overlay.TerminalID
	}
	if overlay.MaxManualDiscountPercent != nil {
		if *overlay.MaxManualDiscountPercent < 0 || *overlay.MaxManualDiscountPercent > 100 {
			return fmt.Errorf("terminal config %s: max_manual_discount_percent must be between 0 and 100", path)
		}
		c.MaxManualDiscountPercent = *overlay.MaxManualDiscountPercent
	}
	if len(overlay.Receipt.Header) > 0 {
		c.ReceiptHeader = overlay.Receipt.Header
	}
	if len(overlay.Receipt.Footer) > 0 {
		c.ReceiptFooter = overlay.Receipt.Footer
	}
	return nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) CatalogTTL() time.Duration {
	return time.Duration(c.CatalogTTLSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
