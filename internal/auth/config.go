package auth

import (
	"time"

	"github.com/family-health-keeper/backend/internal/config"
)

// Issuer is the iss claim of every token this service signs.
const Issuer = "health-keeper-api"

// Config holds token signing configuration
type Config struct {
	SecretKey string
	Algorithm string
	TTL       time.Duration
	Issuer    string
}

// ConfigFromSettings reads SECRET_KEY, ALGORITHM and ACCESS_TOKEN_EXPIRE_MINUTES.
func ConfigFromSettings(s *config.Settings) Config {
	return Config{
		SecretKey: s.SecretKey,
		Algorithm: s.Algorithm,
		TTL:       s.AccessTokenTTL(),
		Issuer:    Issuer,
	}
}
