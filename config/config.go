package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port        string `env:"PORT,default=8080"`
	Environment string `env:"ENVIRONMENT,default=development"`
	DBURL       string `env:"DB_URL"`
	JWTSecret   string `env:"JWT_SECRET"`
	CORSOrigin  string `env:"CORS_ORIGIN,default=http://localhost:5173"`
	AppURL      string `env:"APP_URL,default=http://localhost:5173"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	// Payments
	StripeSecretKey         string        `env:"STRIPE_SECRET_KEY"`
	WebhookSecret           string        `env:"PAYMENT_WEBHOOK_SECRET"`
	SignatureHeader         string        `env:"PAYMENT_SIGNATURE_HEADER,default=Stripe-Signature"`
	AllowTestSignatures     bool          `env:"PAYMENT_ALLOW_TEST_SIGNATURES,default=true"`
	SignatureTolerance      time.Duration `env:"PAYMENT_SIGNATURE_TOLERANCE,default=5m"`
	PaymentSucceededEvents  []string      `env:"PAYMENT_SUCCEEDED_EVENTS,default=checkout.session.completed;link.payment.paid"`
	Currency                string        `env:"CURRENCY,default=php"`
	PlatformFeeRateRaw      string        `env:"PLATFORM_FEE_RATE,default=0.15"`
	WebhookTimeout          time.Duration `env:"WEBHOOK_TIMEOUT,default=10s"`
	PlatformFeeRate         decimal.Decimal

	// Jobs
	ClearanceWindow           time.Duration `env:"CLEARANCE_WINDOW,default=168h"`
	AuctionCloseSchedule      string        `env:"AUCTION_CLOSE_SCHEDULE,default=@every 1m"`
	EarningsClearanceSchedule string        `env:"EARNINGS_CLEARANCE_SCHEDULE,default=@daily"`
	JobBatchSize              int           `env:"JOB_BATCH_SIZE,default=200"`

	// Bids
	BidRatePerSecond float64 `env:"BID_RATE_PER_SECOND,default=2"`
	BidRateBurst     int     `env:"BID_RATE_BURST,default=5"`

	// Optional infrastructure
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	NATSURL       string `env:"NATS_URL"`
}

// Load reads .env (if any) and the process environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(cfg.PlatformFeeRateRaw))
	if err != nil {
		return nil, fmt.Errorf("invalid PLATFORM_FEE_RATE %q: %w", cfg.PlatformFeeRateRaw, err)
	}
	cfg.PlatformFeeRate = rate

	if _, set := os.LookupEnv("PAYMENT_ALLOW_TEST_SIGNATURES"); !set && cfg.IsProduction() {
		cfg.AllowTestSignatures = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() {
		if c.WebhookSecret == "" {
			return fmt.Errorf("PAYMENT_WEBHOOK_SECRET is required in production")
		}
		if c.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
		}
		if c.AllowTestSignatures {
			return fmt.Errorf("PAYMENT_ALLOW_TEST_SIGNATURES must be false in production")
		}
	}
	if c.PlatformFeeRate.IsNegative() || c.PlatformFeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("PLATFORM_FEE_RATE must be in [0, 1)")
	}
	if c.ClearanceWindow < 0 {
		return fmt.Errorf("CLEARANCE_WINDOW must not be negative")
	}
	if c.WebhookTimeout <= 0 {
		return fmt.Errorf("WEBHOOK_TIMEOUT must be positive")
	}
	if c.JobBatchSize <= 0 {
		return fmt.Errorf("JOB_BATCH_SIZE must be positive")
	}
	if len(c.PaymentSucceededEvents) == 0 {
		return fmt.Errorf("PAYMENT_SUCCEEDED_EVENTS must name at least one event type")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
