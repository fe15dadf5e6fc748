package userapi

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting. It is built once at startup and passed
// to constructors, nothing reads the environment after that.
type Config struct {
	ServerAddress string
	LogLevel      string

	Persistence Persistence
	Auth        AuthConfig
	Chat        ChatConfig
}

// AuthConfig carries the token and credential settings
type AuthConfig struct {
	SigningKey    string
	SigningMethod string
	Issuer        string
	ContextKey    string
	TokenTTL      time.Duration
	RefreshTTL    time.Duration
}

func (a AuthConfig) GetSigningKey() string        { return a.SigningKey }
func (a AuthConfig) GetSigningMethod() string     { return a.SigningMethod }
func (a AuthConfig) GetIssuer() string            { return a.Issuer }
func (a AuthConfig) GetContextKey() string        { return a.ContextKey }
func (a AuthConfig) GetTokenTTL() time.Duration   { return a.TokenTTL }
func (a AuthConfig) GetRefreshTTL() time.Duration { return a.RefreshTTL }

// Persistence carries database settings
type Persistence struct {
	Debug       bool
	Driver      string
	DSN         string
	PingTimeout time.Duration
}

func (p Persistence) GetDebug() bool                { return p.Debug }
func (p Persistence) GetDriver() string             { return p.Driver }
func (p Persistence) GetDSN() string                { return p.DSN }
func (p Persistence) GetServer() string             { return p.DSN }
func (p Persistence) GetOtelIdentifier() string     { return "" }
func (p Persistence) GetPingTimeout() time.Duration { return p.PingTimeout }

// ChatConfig carries the AI wrapper settings
type ChatConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	RequestTimeout     time.Duration
	MaxHistoryMessages int
	MaxConversations   int
}

func (c ChatConfig) GetAPIKey() string                { return c.APIKey }
func (c ChatConfig) GetBaseURL() string               { return c.BaseURL }
func (c ChatConfig) GetModel() string                 { return c.Model }
func (c ChatConfig) GetRequestTimeout() time.Duration { return c.RequestTimeout }
func (c ChatConfig) GetMaxHistoryMessages() int       { return c.MaxHistoryMessages }
func (c ChatConfig) GetMaxConversations() int         { return c.MaxConversations }

// LoadConfig reads the environment, loading a .env file first when present.
// Only HS256 is accepted as the signing method.
func LoadConfig() (*Config, error) {
	// missing .env is fine, the environment may be set by the runtime
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddress: envString("SERVER_ADDRESS", ":8080"),
		LogLevel:      envString("LOG_LEVEL", "info"),
		Persistence: Persistence{
			Debug:       envBool("DB_DEBUG", false),
			Driver:      envString("DB_DRIVER", "sqlite"),
			DSN:         envString("DATABASE_DSN", "file:users.db?cache=shared&_pragma=foreign_keys(1)"),
			PingTimeout: envDuration("DB_PING_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			SigningKey:    os.Getenv("JWT_SECRET"),
			SigningMethod: envString("JWT_ALGORITHM", "HS256"),
			Issuer:        envString("JWT_ISSUER", "go-users-api"),
			ContextKey:    envString("JWT_CONTEXT_KEY", DefaultContextKey),
			TokenTTL:      envSeconds("JWT_EXPIRE_SECONDS", 3600),
			RefreshTTL:    envSeconds("JWT_REFRESH_EXPIRE_SECONDS", 86400),
		},
		Chat: ChatConfig{
			APIKey:             os.Getenv("OPENAI_API_KEY"),
			BaseURL:            envString("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:              envString("OPENAI_MODEL", "gpt-3.5-turbo"),
			RequestTimeout:     envSeconds("AI_REQUEST_TIMEOUT", 60),
			MaxHistoryMessages: envInt("AI_MAX_HISTORY_MESSAGES", 10),
			MaxConversations:   envInt("AI_MAX_CONVERSATIONS", 100),
		},
	}

	if cfg.Auth.SigningKey == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.Auth.SigningMethod != "HS256" {
		return nil, fmt.Errorf("unsupported JWT algorithm %q, only HS256 is supported", cfg.Auth.SigningMethod)
	}

	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
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

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envSeconds(key string, def int) time.Duration {
	return time.Duration(envInt(key, def)) * time.Second
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
