package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Environment string   `env:"ENVIRONMENT" envDefault:"development"`
	Port        string   `env:"PORT" envDefault:"8080"`
	DatabaseURL string   `env:"DB_URL"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	Auth     Auth     `envPrefix:""`
	Redis    Redis    `envPrefix:"REDIS_"`
	Rabbit   Rabbit   `envPrefix:""`
	Push     Push     `envPrefix:""`
	Twilio   Twilio   `envPrefix:"TWILIO_"`
	Bookings Bookings `envPrefix:""`
}

type Auth struct {
	JWTSecret      string `env:"JWT_SECRET"`
	JWTExpiryHours int    `env:"JWT_EXPIRY_HOURS" envDefault:"24"`
	BcryptCost     int    `env:"BCRYPT_COST" envDefault:"14"`
	WebhookSecret  string `env:"WEBHOOK_SECRET"`
}

type Redis struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	PageTTL  time.Duration `env:"PAGE_CACHE_TTL" envDefault:"5m"`
}

type Rabbit struct {
	URL             string `env:"RABBIT_URL"`
	BookingExchange string `env:"BOOKING_EXCHANGE" envDefault:"booking.exchange"`
}

type Push struct {
	ExpoURL         string        `env:"EXPO_PUSH_URL" envDefault:"https://exp.host/--/api/v2/push/send"`
	ExpoAccessToken string        `env:"EXPO_ACCESS_TOKEN"`
	Timeout         time.Duration `env:"PUSH_TIMEOUT" envDefault:"5s"`
}

type Twilio struct {
	AccountSID  string `env:"ACCOUNT_SID"`
	AuthToken   string `env:"AUTH_TOKEN"`
	PhoneNumber string `env:"PHONE_NUMBER"`
}

func (t Twilio) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.PhoneNumber != ""
}

type Bookings struct {
	// Pending -> Completed without passing through Confirmed.
	AllowDirectComplete bool   `env:"BOOKING_ALLOW_DIRECT_COMPLETE" envDefault:"true"`
	ReminderSchedule    string `env:"REMINDER_SCHEDULE" envDefault:"0 9 * * *"`
}

// Load parses the process environment. Call godotenv first to pick up .env.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
