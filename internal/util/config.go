package util

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultServerAddr      = "localhost:8080"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second

	defaultAccessTTL          = 15 * time.Minute
	defaultRefreshTTL         = 7 * 24 * time.Hour
	defaultMaxRefreshLifetime = 7 * 24 * time.Hour
	defaultSweepInterval      = time.Hour

	defaultIssuer   = "planora-auth"
	defaultAudience = "planora"

	JWTLeeWay = 5 * time.Second
)

type ServerConfig struct {
	ServerAddr      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
}

func NewServerConfig() *ServerConfig {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = defaultServerAddr
	}

	return &ServerConfig{
		ServerAddr:      addr,
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
	}
}

type TokenConfig struct {
	JwtSecretKey []byte
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	Issuer       string
	Audience     string
}

func NewTokenConfig() *TokenConfig {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	issuer := os.Getenv("JWT_ISSUER")
	if issuer == "" {
		issuer = defaultIssuer
	}
	audience := os.Getenv("JWT_AUDIENCE")
	if audience == "" {
		audience = defaultAudience
	}

	return &TokenConfig{
		JwtSecretKey: []byte(secret),
		AccessTTL:    parseDurationOrDefault("ACCESS_TOKEN_TTL", defaultAccessTTL),
		RefreshTTL:   parseDurationOrDefault("REFRESH_TOKEN_TTL", defaultRefreshTTL),
		Issuer:       issuer,
		Audience:     audience,
	}
}

type RegistryConfig struct {
	MaxRefreshLifetime time.Duration
}

func NewRegistryConfig() *RegistryConfig {
	return &RegistryConfig{
		MaxRefreshLifetime: parseDurationOrDefault("MAX_REFRESH_LIFETIME", defaultMaxRefreshLifetime),
	}
}

type SweepConfig struct {
	Interval time.Duration
}

func NewSweepConfig() *SweepConfig {
	return &SweepConfig{
		Interval: parseDurationOrDefault("SWEEP_INTERVAL", defaultSweepInterval),
	}
}

// BlacklistBackend selects the deny-list implementation: "memory" (default)
// or "redis".
func BlacklistBackend() string {
	backend := os.Getenv("BLACKLIST_BACKEND")
	if backend == "" {
		return "memory"
	}
	return backend
}

// AlertWebhookURL is where security events are posted; empty disables alerts.
func AlertWebhookURL() string {
	return os.Getenv("ALERT_WEBHOOK_URL")
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}
