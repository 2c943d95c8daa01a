package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Identity IdentityConfig
	Avatar   AvatarConfig
	Stream   StreamConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all (e.g. http://localhost:3000)
	AuthRequired       bool   // when true the /api surface requires a session token
}

// RedisConfig holds Redis connection settings. An empty Addr disables the
// cross-instance event bridge; the studio runs standalone.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds session token signing settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// IdentityConfig holds the platform OAuth settings for the login
// callback.
type IdentityConfig struct {
	BaseURL      string
	ClientKey    string
	ClientSecret string
	RedirectURI  string
	TimeoutSec   int
}

// AvatarConfig points at the external avatar renderer/TTS backend. An
// empty BaseURL disables it.
type AvatarConfig struct {
	BaseURL    string
	TimeoutSec int
}

// StreamConfig holds the broadcast timing knobs.
type StreamConfig struct {
	SpeakCooldownSec     int
	AutoPitchIntervalMin int
	EngagementTickSec    int
	ReplyDelaySec        int
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
			AuthRequired:       getEnvBool("AUTH_REQUIRED", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		Identity: IdentityConfig{
			BaseURL:      getEnv("IDENTITY_BASE_URL", "https://open-api.tiktok.com"),
			ClientKey:    getEnv("IDENTITY_CLIENT_KEY", ""),
			ClientSecret: getEnv("IDENTITY_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("IDENTITY_REDIRECT_URI", "http://localhost:8080/auth/callback"),
			TimeoutSec:   getEnvInt("IDENTITY_TIMEOUT_SEC", 10),
		},
		Avatar: AvatarConfig{
			BaseURL:    getEnv("AVATAR_BASE_URL", "http://localhost:5000"),
			TimeoutSec: getEnvInt("AVATAR_TIMEOUT_SEC", 10),
		},
		Stream: StreamConfig{
			SpeakCooldownSec:     getEnvInt("SPEAK_COOLDOWN_SEC", 5),
			AutoPitchIntervalMin: getEnvInt("AUTO_PITCH_INTERVAL_MIN", 5),
			EngagementTickSec:    getEnvInt("ENGAGEMENT_TICK_SEC", 5),
			ReplyDelaySec:        getEnvInt("REPLY_DELAY_SEC", 1),
		},
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
