package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	PMS      PMSConfig
	Booking  BookingConfig
	Currency CurrencyConfig
	NATS     NATSConfig
	Email    EmailConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PMSConfig struct {
	BaseURL        string
	APIKey         string
	PageSize       int
	RequestTimeout time.Duration
	CacheTTL       time.Duration // 0 = options cache never expires
}

type BookingConfig struct {
	DefaultSalesChannelID int64
	MaxGuestsPerRoom      int
	AllowEstimates        bool
	IdempotencyTTL        time.Duration
}

type CurrencyConfig struct {
	Target string // currency the converted total is quoted in
}

type NATSConfig struct {
	URL string // empty disables event publishing
}

type EmailConfig struct {
	MailerSendKey string
	FromName      string
	FromEmail     string
	DevMode       bool // print confirmation mails to logs instead of sending
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		PMS: PMSConfig{
			BaseURL:        getEnv("PMS_BASE_URL", "https://api.pms.example.com/v1"),
			APIKey:         getEnv("PMS_API_KEY", ""),
			PageSize:       getInt("PMS_PAGE_SIZE", 30),
			RequestTimeout: getDuration("PMS_REQUEST_TIMEOUT", 15*time.Second),
			CacheTTL:       getDuration("OPTIONS_CACHE_TTL", 0),
		},
		Booking: BookingConfig{
			DefaultSalesChannelID: getInt64("DEFAULT_SALES_CHANNEL_ID", 1),
			MaxGuestsPerRoom:      getInt("MAX_GUESTS_PER_ROOM", 4),
			AllowEstimates:        getBool("ALLOW_ESTIMATED_QUOTES", false),
			IdempotencyTTL:        getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		Currency: CurrencyConfig{
			Target: getEnv("CURRENCY_TARGET", "EUR"),
		},
		NATS: NATSConfig{
			URL: getEnv("NATS_URL", ""),
		},
		Email: EmailConfig{
			MailerSendKey: getEnv("MAILERSEND_API_KEY", ""),
			FromName:      getEnv("MAIL_FROM_NAME", "Reservations"),
			FromEmail:     getEnv("MAIL_FROM", ""),
			DevMode:       getBool("EMAIL_DEV_MODE", true),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
