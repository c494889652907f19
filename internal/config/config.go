package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int

	DatabaseURL string

	JWTSecret     []byte
	RefreshSecret []byte

	KhaltiSecretKey  string
	KhaltiBaseURL    string
	KhaltiReturnURL  string
	KhaltiWebsiteURL string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string
	ES_INDEX    string

	KafkaBrokers []string

	LogLevel string
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "agri-backend"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 5000),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		RefreshSecret: []byte(os.Getenv("REFRESH_SECRET")),

		KhaltiSecretKey:  os.Getenv("KHALTI_SECRET_KEY"),
		KhaltiBaseURL:    EnvDefault("KHALTI_BASE_URL", "https://a.khalti.com/api/v2/epayment"),
		KhaltiReturnURL:  os.Getenv("KHALTI_RETURN_URL"),
		KhaltiWebsiteURL: EnvDefault("KHALTI_WEBSITE_URL", "http://localhost:3000"),

		ES_URL:      os.Getenv("ES_URL"),
		ES_USER:     os.Getenv("ES_USER"),
		ES_PASSWORD: os.Getenv("ES_PASSWORD"),
		ES_INDEX:    EnvDefault("ES_INDEX", "products"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		LogLevel: EnvDefault("LOG_LEVEL", "info"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if os.Getenv(key) != "" {
		return os.Getenv(key)
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
