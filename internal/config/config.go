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

// Config aggregates every setting the service consumes. All values are fixed
// at process start; nothing here is per-session data.
type Config struct {
	Server  ServerConfig
	AI      AIConfig
	Chat    ChatConfig
	Storage StorageConfig
	Mail    MailConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	chat, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	mail, err := loadMailConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		AI:      ai,
		Chat:    chat,
		Storage: loadStorageConfig(),
		Mail:    mail,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr       string
	CORSOrigin string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	cfg := ServerConfig{
		CORSOrigin: getEnvOrDefault("CORS_ORIGIN", "http://localhost:5173"),
	}

	if strings.Contains(port, ":") {
		// Allow passing ":5000" or "127.0.0.1:5000" directly.
		cfg.Addr = port
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	cfg.Addr = ":" + port
	return cfg, nil
}

// AIConfig describes the external completion service.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Stream      bool
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds the Ark chat model carrying the fixed invocation
// parameters. Temperature and the output cap are configuration, identical
// for every request.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("completion credentials missing: set ARK_API_KEY (or AK/SK) and ARK_MODEL")
	}

	temperature := float32(c.Temperature)
	maxTokens := c.MaxTokens

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	temp := 0.8
	if temperature != nil {
		temp = *temperature
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	tokens := 500
	if maxTokens != nil {
		tokens = *maxTokens
	}

	timeoutSec, err := parseOptionalIntEnv("AI_TIMEOUT_SECONDS")
	if err != nil {
		return AIConfig{}, err
	}
	timeout := 25 * time.Second
	if timeoutSec != nil && *timeoutSec > 0 {
		timeout = time.Duration(*timeoutSec) * time.Second
	}

	stream, err := parseBoolEnv("ARK_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temp,
		MaxTokens:   tokens,
		Timeout:     timeout,
		Stream:      stream,
	}, nil
}

// ChatConfig bounds the context window sent upstream.
type ChatConfig struct {
	HistoryWindow int
	SystemPrompt  string
}

func loadChatConfig() (ChatConfig, error) {
	window := 10
	if override, err := parseOptionalIntEnv("CHAT_HISTORY_WINDOW"); err != nil {
		return ChatConfig{}, err
	} else if override != nil {
		if *override < 1 {
			window = 1
		} else {
			window = *override
		}
	}

	return ChatConfig{
		HistoryWindow: window,
		SystemPrompt:  strings.TrimSpace(os.Getenv("ORVI_SYSTEM_PROMPT")),
	}, nil
}

// StorageConfig locates the SQLite database file.
type StorageConfig struct {
	DBPath string
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		DBPath: getEnvOrDefault("DB_PATH", "data/orvi.db"),
	}
}

// MailConfig describes the SMTP account used for welcome emails.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Enabled reports whether mail credentials were provided.
func (c MailConfig) Enabled() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

func loadMailConfig() (MailConfig, error) {
	port, err := parseOptionalIntEnv("SMTP_PORT")
	if err != nil {
		return MailConfig{}, err
	}
	smtpPort := 587
	if port != nil {
		smtpPort = *port
	}

	username := strings.TrimSpace(os.Getenv("SMTP_USER"))

	return MailConfig{
		Host:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		Port:     smtpPort,
		Username: username,
		Password: strings.TrimSpace(os.Getenv("SMTP_PASS")),
		From:     getEnvOrDefault("SMTP_FROM", username),
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
