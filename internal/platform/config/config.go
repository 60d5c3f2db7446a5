package config

import (
	"os"
	"strings"
)

// Server captures process-level configuration. All state backing the
// registry itself lives in explicit stores; this struct only wires them.
type Server struct {
	Addr          string
	AdminIdentity string
	JWTSigningKey string

	// DatabaseURL switches the registry from in-memory stores to Postgres
	// when non-empty.
	DatabaseURL string

	// Event surface sinks. Either may be empty to disable that sink.
	KafkaBrokers []string
	KafkaTopic   string
	RedisURL     string
	RedisStream  string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:          getenv("CERTLEDGER_ADDR", ":8080"),
		AdminIdentity: os.Getenv("CERTLEDGER_ADMIN_IDENTITY"),
		JWTSigningKey: getenv("CERTLEDGER_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		DatabaseURL:   os.Getenv("CERTLEDGER_DATABASE_URL"),
		KafkaTopic:    getenv("CERTLEDGER_KAFKA_TOPIC", "certledger.transitions"),
		RedisURL:      os.Getenv("CERTLEDGER_REDIS_URL"),
		RedisStream:   getenv("CERTLEDGER_REDIS_STREAM", "certledger:transitions"),
	}
	if brokers := os.Getenv("CERTLEDGER_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
