package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type PaystackConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
	CallbackURL   string
}

type MonnifyConfig struct {
	APIKey        string
	SecretKey     string
	ContractCode  string
	WebhookSecret string
	BaseURL       string
}

// AgentConfig configures the realtime channel agent confirmations
// arrive on.
type AgentConfig struct {
	SubscribeKey string
	SecretKey    string
	UUID         string
	Channel      string
	CipherKey    string
}

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration (outbound user notifications)
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Gateways
	Paystack PaystackConfig
	Monnify  MonnifyConfig
	Agent    AgentConfig

	// Gateway call timeouts. The cold-start timeout covers the first
	// call after boot; steady state uses the shorter one.
	GatewayTimeout          time.Duration
	GatewayColdStartTimeout time.Duration

	// Polling verifier
	PollInterval time.Duration
	PollTimeout  time.Duration

	// Fees and referral, kobo
	TransactionFeeRate int // percent of subtotal
	TransactionFeeFlat int64
	ReferralBonus      int64

	// Wallet PIN guard
	PinMaxAttempts   int
	PinAttemptWindow time.Duration
	PinLockout       time.Duration

	// Payment session cache TTL
	PaymentSessionTTL time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		Paystack: PaystackConfig{
			SecretKey:     getEnv("PAYSTACK_SECRET_KEY", ""),
			WebhookSecret: getEnv("PAYSTACK_WEBHOOK_SECRET", ""),
			BaseURL:       getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			CallbackURL:   getEnv("PAYSTACK_CALLBACK_URL", ""),
		},
		Monnify: MonnifyConfig{
			APIKey:        getEnv("MONNIFY_API_KEY", ""),
			SecretKey:     getEnv("MONNIFY_SECRET_KEY", ""),
			ContractCode:  getEnv("MONNIFY_CONTRACT_CODE", ""),
			WebhookSecret: getEnv("MONNIFY_WEBHOOK_SECRET", ""),
			BaseURL:       getEnv("MONNIFY_BASE_URL", "https://api.monnify.com"),
		},
		Agent: AgentConfig{
			SubscribeKey: getEnv("AGENT_PN_SUBSCRIBE_KEY", ""),
			SecretKey:    getEnv("AGENT_PN_SECRET_KEY", ""),
			UUID:         getEnv("AGENT_PN_UUID", "spotix-settlement"),
			Channel:      getEnv("AGENT_PN_CHANNEL", "agent-payment-confirmations"),
			CipherKey:    getEnv("AGENT_PN_CIPHER_KEY", ""),
		},

		// Timeouts
		GatewayTimeout:          getEnvAsDuration("GATEWAY_TIMEOUT", "15s"),
		GatewayColdStartTimeout: getEnvAsDuration("GATEWAY_COLD_START_TIMEOUT", "45s"),
		PollInterval:            getEnvAsDuration("VERIFY_POLL_INTERVAL", "3s"),
		PollTimeout:             getEnvAsDuration("VERIFY_POLL_TIMEOUT", "30s"),

		// Money
		TransactionFeeRate: getEnvAsInt("TRANSACTION_FEE_RATE", 5),
		TransactionFeeFlat: getEnvAsInt64("TRANSACTION_FEE_FLAT", 50),
		ReferralBonus:      getEnvAsInt64("REFERRAL_BONUS", 20000), // NGN 200

		// PIN guard
		PinMaxAttempts:   getEnvAsInt("PIN_MAX_ATTEMPTS", 5),
		PinAttemptWindow: getEnvAsDuration("PIN_ATTEMPT_WINDOW", "10m"),
		PinLockout:       getEnvAsDuration("PIN_LOCKOUT", "30m"),

		PaymentSessionTTL: getEnvAsDuration("PAYMENT_SESSION_TTL", "30m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

// Validate enforces the fail-fast rule: a missing gateway secret must
// stop startup, not surface on the first request.
func (c *Config) Validate() error {
	if c.Paystack.SecretKey == "" {
		return errors.New("config: PAYSTACK_SECRET_KEY is required")
	}
	if c.Paystack.WebhookSecret == "" {
		return errors.New("config: PAYSTACK_WEBHOOK_SECRET is required")
	}
	return nil
}

// MonnifyEnabled reports whether the Monnify rail is configured.
func (c *Config) MonnifyEnabled() bool {
	return c.Monnify.APIKey != "" && c.Monnify.SecretKey != ""
}

// AgentEnabled reports whether the agent confirmation channel is configured.
func (c *Config) AgentEnabled() bool {
	return c.Agent.SubscribeKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
