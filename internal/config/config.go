package config

import (
	"crypto/rsa"
	"encoding/base64"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/coralpointe/association-portal/internal/constants"
	"github.com/coralpointe/association-portal/internal/utils"
)

type Config struct {
	AppName string
	AppPort string
	AppUrl  string
	DBUrl   string

	RSAPublicKey *rsa.PublicKey

	StripeSecretKey     string
	StripeWebhookSecret string
	SendgridAPIKey      string
	SendgridFromEmail   string
	TwilioAccountSID    string
	TwilioAuthToken     string
	TwilioFromNumber    string

	MonthlyAssessment decimal.Decimal

	NotificationSandbox bool
	SeedDbWithTestData  bool
}

// LoadConfig reads the environment (a local .env is honored when
// present) and fails fast on anything required.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		utils.Logger.Info("No .env file found; relying on process environment")
	}

	cfg := &Config{
		AppName: constants.AppName,
		AppPort: mustGetenv("APP_PORT"),
		AppUrl:  mustGetenv("APP_URL"),
		DBUrl:   mustGetenv("DB_URL"),

		StripeSecretKey:     mustGetenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: mustGetenv("STRIPE_WEBHOOK_SECRET"),
		SendgridAPIKey:      mustGetenv("SENDGRID_API_KEY"),
		SendgridFromEmail:   mustGetenv("SENDGRID_FROM_EMAIL"),
		TwilioAccountSID:    mustGetenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:     mustGetenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:    mustGetenv("TWILIO_FROM_NUMBER"),

		NotificationSandbox: os.Getenv("NOTIFICATION_SANDBOX") == "true",
		SeedDbWithTestData:  os.Getenv("SEED_DB_WITH_TEST_DATA") == "true",
	}

	pubPEM, err := base64.StdEncoding.DecodeString(mustGetenv("RSA_PUBLIC_KEY_BASE64"))
	if err != nil {
		utils.Logger.WithError(err).Fatal("RSA_PUBLIC_KEY_BASE64 is not valid base64")
	}
	cfg.RSAPublicKey, err = jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	if raw := os.Getenv("MONTHLY_ASSESSMENT"); raw != "" {
		cfg.MonthlyAssessment, err = decimal.NewFromString(raw)
		if err != nil {
			utils.Logger.WithError(err).Fatal("MONTHLY_ASSESSMENT is not a valid decimal")
		}
	}

	return cfg
}

func mustGetenv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		utils.Logger.Fatalf("%s env var is missing", key)
	}
	return v
}
