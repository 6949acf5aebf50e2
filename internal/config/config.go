package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	GoEnv string `envconfig:"GO_ENV" default:"dev"` // dev/prod

	// DATABASE_URL があれば最優先で使う
	DatabaseURL      string `envconfig:"DATABASE_URL"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"postgres"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"postgres"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"app"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`

	JWTSecret     string        `envconfig:"JWT_SECRET"` // JWT署名シークレット
	AdminTokenTTL time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"12h"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	HomeCurrency string `envconfig:"HOME_CURRENCY" default:"INR"`

	// 決済。キーが空でも起動はする（リクエスト時にエラー）
	PaymentProvider      string        `envconfig:"PAYMENT_PROVIDER" default:"razorpay"`
	RazorpayKeyID        string        `envconfig:"RAZORPAY_KEY_ID"`
	RazorpayKeySecret    string        `envconfig:"RAZORPAY_KEY_SECRET"`
	RazorpayBaseURL      string        `envconfig:"RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	StripeSecretKey      string        `envconfig:"STRIPE_SECRET_KEY"`
	StripePublishableKey string        `envconfig:"STRIPE_PUBLISHABLE_KEY"`
	PaymentTimeout       time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"15s"`

	// 料金（最小通貨単位）
	ShippingFee           int64 `envconfig:"SHIPPING_FEE" default:"0"`
	// 0: 常に無料 / 負: 常に送料あり
	FreeShippingThreshold int64 `envconfig:"FREE_SHIPPING_THRESHOLD" default:"0"`
	TaxRateBps            int64 `envconfig:"TAX_RATE_BPS" default:"0"`

	// メール。SMTP_HOSTが空なら送らない
	SMTPHost      string `envconfig:"SMTP_HOST"`
	SMTPPort      int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername  string `envconfig:"SMTP_USERNAME"`
	SMTPPassword  string `envconfig:"SMTP_PASSWORD"`
	MailFrom      string `envconfig:"MAIL_FROM"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:3000"`

	LowStockThreshold int64 `envconfig:"LOW_STOCK_THRESHOLD" default:"20"`
}

// Loadは .env（あれば）と環境変数から読む
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	//必須チェック
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.TaxRateBps < 0 || cfg.ShippingFee < 0 {
		return Config{}, fmt.Errorf("pricing settings must not be negative")
	}
	switch cfg.PaymentProvider {
	case "razorpay", "stripe":
	default:
		return Config{}, fmt.Errorf("PAYMENT_PROVIDER must be razorpay or stripe: %q", cfg.PaymentProvider)
	}

	return cfg, nil
}

// DSN は gorm に渡す接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

func (c Config) MailEnabled() bool {
	return c.SMTPHost != ""
}
