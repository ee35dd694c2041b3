package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates configuration for every binary in this repository.
type Config struct {
	Server ServerConfig
	Widget WidgetConfig
	AI     AIConfig
	Voice  VoiceConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	widget, err := loadWidgetConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	voice, err := loadVoiceConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Widget: widget, AI: ai, Voice: voice}, nil
}

// ServerConfig describes the devserver HTTP listener.
type ServerConfig struct {
	Addr string
	// Token is the bearer token the devserver expects; empty disables the check.
	Token string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" verbatim.
		return ServerConfig{Addr: port, Token: strings.TrimSpace(os.Getenv("AUTH_TOKEN"))}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, Token: strings.TrimSpace(os.Getenv("AUTH_TOKEN"))}, nil
}

// WidgetConfig describes the chat widget client.
type WidgetConfig struct {
	// BaseURL is the backend origin, including the API prefix.
	BaseURL string
	// Token is sent as a bearer token on every request.
	Token string
	// HTTPTimeout bounds every transport call except the profile fetch,
	// which carries its own shorter deadline.
	HTTPTimeout time.Duration
	// PollInterval is the human-mode history poll cadence.
	PollInterval time.Duration
	// DislikeThreshold is the dislike count at which escalation is suggested.
	DislikeThreshold int
}

func loadWidgetConfig() (WidgetConfig, error) {
	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("WIDGET_HTTP_TIMEOUT"); err != nil {
		return WidgetConfig{}, err
	} else if override != nil {
		timeoutSeconds = *override
	}

	pollSeconds := 4
	if override, err := parseOptionalIntEnv("WIDGET_POLL_INTERVAL"); err != nil {
		return WidgetConfig{}, err
	} else if override != nil {
		if *override < 1 {
			pollSeconds = 1
		} else {
			pollSeconds = *override
		}
	}

	threshold := 3
	if override, err := parseOptionalIntEnv("WIDGET_DISLIKE_THRESHOLD"); err != nil {
		return WidgetConfig{}, err
	} else if override != nil && *override > 0 {
		threshold = *override
	}

	return WidgetConfig{
		BaseURL:          getEnvOrDefault("WIDGET_BASE_URL", "https://kring.answer24.nl/api/v1"),
		Token:            strings.TrimSpace(os.Getenv("AUTH_TOKEN")),
		HTTPTimeout:      time.Duration(timeoutSeconds) * time.Second,
		PollInterval:     time.Duration(pollSeconds) * time.Second,
		DislikeThreshold: threshold,
	}, nil
}

// AIConfig describes the devserver's optional LLM responder.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds an Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials or model missing: provide ARK_API_KEY + Model, or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// VoiceConfig describes the widget's voice adapter.
type VoiceConfig struct {
	// Muted suppresses all playback.
	Muted bool
	// IdleTimeout is the silence window after the last transcript update
	// before the recognized text is auto-sent.
	IdleTimeout time.Duration
	// DefaultLanguage is used when the language heuristic has no opinion.
	DefaultLanguage string
}

func loadVoiceConfig() (VoiceConfig, error) {
	muted, err := parseBoolEnv("VOICE_MUTED", false)
	if err != nil {
		return VoiceConfig{}, err
	}

	idleMillis := 2000
	if override, err := parseOptionalIntEnv("VOICE_IDLE_TIMEOUT_MS"); err != nil {
		return VoiceConfig{}, err
	} else if override != nil && *override > 0 {
		idleMillis = *override
	}

	return VoiceConfig{
		Muted:           muted,
		IdleTimeout:     time.Duration(idleMillis) * time.Millisecond,
		DefaultLanguage: getEnvOrDefault("VOICE_DEFAULT_LANGUAGE", "en-US"),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
