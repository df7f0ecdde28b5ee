package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	JournalDSN      string // postgres://... or sqlite:path; empty disables the journal
	JWTSecret       string
	ContractAddress string // identity the registry grants itself on tallies
	PaillierBits    int    // dev-only in-process key; production keys come from a ceremony
	SweepInterval   time.Duration
}

func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:            getEnv("APP_PORT", "8080"),
		JournalDSN:      getEnv("JOURNAL_DSN", ""),
		JWTSecret:       getEnv("JWT_SECRET", "dev-secret-change-me"),
		ContractAddress: getEnv("CONTRACT_ADDRESS", "0x766f74696e672d726f6f6d73"),
		PaillierBits:    getEnvInt("PAILLIER_BITS", 1024),
		SweepInterval:   getEnvDuration("SWEEP_INTERVAL", 30*time.Second),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("invalid %s=%q, using %d", key, v, def)
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid %s=%q, using %s", key, v, def)
	}
	return def
}
