package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config holds service configuration, all sourced from the environment.
type Config struct {
	DatabaseURL string
	Port        string

	// RequiredBufferMonths is the interest-buffer horizon the
	// survivability calculator checks the cash reserve against.
	RequiredBufferMonths int
}

const defaultRequiredBufferMonths = 12

func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		Port:                 envDefault("PORT", "8080"),
		RequiredBufferMonths: defaultRequiredBufferMonths,
	}

	var validationErrs []string
	requireEnv("DATABASE_URL", cfg.DatabaseURL, &validationErrs)

	if raw := strings.TrimSpace(os.Getenv("REQUIRED_INTEREST_BUFFER_MONTHS")); raw != "" {
		months, err := strconv.Atoi(raw)
		if err != nil || months <= 0 {
			validationErrs = append(validationErrs, "REQUIRED_INTEREST_BUFFER_MONTHS must be a positive integer")
		} else {
			cfg.RequiredBufferMonths = months
		}
	}

	if len(validationErrs) > 0 {
		return cfg, errors.New(strings.Join(validationErrs, "; "))
	}

	return cfg, nil
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(name, value string, errs *[]string) {
	if strings.TrimSpace(value) == "" {
		*errs = append(*errs, name+" is required")
	}
}
