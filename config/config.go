package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Upstream providers
const (
	ProviderHume   = "hume"   // EVI chat session
	ProviderRaw    = "raw"    // direct WebSocket to HUME_WEBSOCKET_URL
	ProviderGemini = "gemini" // Gemini Live session
	ProviderMock   = "mock"   // canned responder only
)

// Config holds all server configuration
type Config struct {
	Port             int
	PublicDir        string
	UpstreamProvider string

	HumeAPIKey       string
	HumeAPISecret    string
	HumeConfigID     string
	HumeAPIURL       string
	HumeWebSocketURL string
	GeminiAPIKey     string

	ForceAurora bool

	MockRepliesFile string
	MockReplyDelay  time.Duration
	MockAudioDelay  time.Duration

	RedisURL        string
	RedisPassword   string
	MaxSessions     int
	SessionTimeout  time.Duration
	AllowedOrigins  []string
	KeepAlivePeriod time.Duration
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Port:             3000,
		PublicDir:        "public",
		UpstreamProvider: ProviderHume,
		HumeAPIURL:       "wss://api.hume.ai/v0/evi/chat",
		MockReplyDelay:   time.Second,
		MockAudioDelay:   500 * time.Millisecond,
		RedisURL:         "localhost:6379",
		MaxSessions:      100,
		SessionTimeout:   30 * time.Minute,
		AllowedOrigins:   []string{"*"},
		KeepAlivePeriod:  30 * time.Second,
	}
}

// LoadConfig loads configuration from environment variables with defaults.
// Provider credentials are optional: without them sessions use the mock.
func LoadConfig() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	config := Default()

	config.HumeAPIKey = os.Getenv("HUME_API_KEY")
	config.HumeAPISecret = os.Getenv("HUME_API_SECRET")
	config.HumeConfigID = os.Getenv("HUME_CONFIG_ID")
	config.HumeWebSocketURL = os.Getenv("HUME_WEBSOCKET_URL")
	config.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	config.MockRepliesFile = os.Getenv("MOCK_REPLIES_FILE")
	config.ForceAurora = os.Getenv("FORCE_AURORA") == "true"

	if apiURL := os.Getenv("HUME_API_URL"); apiURL != "" {
		config.HumeAPIURL = apiURL
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		config.Port = p
	}

	if dir := os.Getenv("PUBLIC_DIR"); dir != "" {
		config.PublicDir = dir
	}

	// Optional: UPSTREAM_PROVIDER ("hume", "raw", "gemini" or "mock")
	if provider := os.Getenv("UPSTREAM_PROVIDER"); provider != "" {
		switch provider {
		case ProviderHume, ProviderRaw, ProviderGemini, ProviderMock:
			config.UpstreamProvider = provider
		default:
			return nil, fmt.Errorf("invalid UPSTREAM_PROVIDER %q: must be 'hume', 'raw', 'gemini' or 'mock'", provider)
		}
	}

	// Optional: MOCK_REPLY_DELAY_MS / MOCK_AUDIO_DELAY_MS
	if ms := os.Getenv("MOCK_REPLY_DELAY_MS"); ms != "" {
		d, err := strconv.Atoi(ms)
		if err != nil {
			return nil, fmt.Errorf("invalid MOCK_REPLY_DELAY_MS: %w", err)
		}
		config.MockReplyDelay = time.Duration(d) * time.Millisecond
	}
	if ms := os.Getenv("MOCK_AUDIO_DELAY_MS"); ms != "" {
		d, err := strconv.Atoi(ms)
		if err != nil {
			return nil, fmt.Errorf("invalid MOCK_AUDIO_DELAY_MS: %w", err)
		}
		config.MockAudioDelay = time.Duration(d) * time.Millisecond
	}

	// Optional: REDIS_URL, an explicitly empty value disables the registry
	if redisURL, ok := os.LookupEnv("REDIS_URL"); ok {
		config.RedisURL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.RedisPassword = redisPassword
	}

	if maxSessions := os.Getenv("MAX_SESSIONS"); maxSessions != "" {
		m, err := strconv.Atoi(maxSessions)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_SESSIONS: %w", err)
		}
		config.MaxSessions = m
	}

	// Optional: SESSION_TIMEOUT (in minutes)
	if timeout := os.Getenv("SESSION_TIMEOUT"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TIMEOUT: %w", err)
		}
		config.SessionTimeout = time.Duration(t) * time.Minute
	}

	// Optional: ALLOWED_ORIGINS (comma-separated)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		config.AllowedOrigins = strings.Split(origins, ",")
	}

	// Optional: KEEPALIVE_PERIOD (in seconds)
	if keepalive := os.Getenv("KEEPALIVE_PERIOD"); keepalive != "" {
		k, err := strconv.Atoi(keepalive)
		if err != nil {
			return nil, fmt.Errorf("invalid KEEPALIVE_PERIOD: %w", err)
		}
		config.KeepAlivePeriod = time.Duration(k) * time.Second
	}

	return config, nil
}

// HasHumeCredentials reports whether the Hume key pair is configured
func (c *Config) HasHumeCredentials() bool {
	return c.HumeAPIKey != "" && c.HumeAPISecret != ""
}

// OriginAllowed checks an Origin header against ALLOWED_ORIGINS
func (c *Config) OriginAllowed(origin string) bool {
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
