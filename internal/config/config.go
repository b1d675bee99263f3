package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Payment  PaymentConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type PaymentConfig struct {
	// DefaultProvider is used when a checkout request does not name one.
	DefaultProvider string
	// SandboxMode switches every adapter to the provider's test environment.
	SandboxMode bool
	// CallbackBaseURL is the public base used to build redirect and webhook URLs.
	CallbackBaseURL string
	// CountryCallingCode replaces a leading national trunk digit when
	// normalizing phone numbers, e.g. "+254".
	CountryCallingCode string

	FlutterwaveSecretKey string
	PaystackSecretKey    string
	MidtransServerKey    string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "takahub://app"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "TakaHub"),
		},
		Payment: PaymentConfig{
			DefaultProvider:      getEnv("PAYMENT_DEFAULT_PROVIDER", "flutterwave"),
			SandboxMode:          getEnvAsBool("PAYMENT_SANDBOX_MODE", true),
			CallbackBaseURL:      getEnv("PAYMENT_CALLBACK_BASE_URL", getEnv("APP_BASE_URL", "http://localhost:3000")),
			CountryCallingCode:   getEnv("PAYMENT_COUNTRY_CALLING_CODE", "+254"),
			FlutterwaveSecretKey: getEnv("FLUTTERWAVE_SECRET_KEY", ""),
			PaystackSecretKey:    getEnv("PAYSTACK_SECRET_KEY", ""),
			MidtransServerKey:    getEnv("MIDTRANS_SERVER_KEY", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
