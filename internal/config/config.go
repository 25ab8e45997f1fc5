package config

import (
	"errors"
	"os"
	"strings"
	"time"
)

// Config holds all runtime configuration for the service.
type Config struct {
	Port           string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
}

var ErrMissingSecret = errors.New("config: JWT_SECRET is not set")

// Load reads configuration from the environment. The signing secret is
// mandatory: the process must not serve traffic with a guessable default.
func Load() (*Config, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, ErrMissingSecret
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	ttl := time.Hour
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.New("config: invalid TOKEN_TTL: " + v)
		}
		ttl = d
	}

	origins := []string{"http://localhost:3001"}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins = origins[:0]
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		Port:           port,
		JWTSecret:      secret,
		TokenTTL:       ttl,
		AllowedOrigins: origins,
	}, nil
}
