package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the advisor system
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Tools     ToolsConfig     `mapstructure:"tools"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	MaxSessionTime time.Duration `mapstructure:"max_session_time"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type       string              `mapstructure:"type"` // openai, anthropic
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Models     map[string]LLMModel `mapstructure:"models"`
	MaxRetries int                 `mapstructure:"max_retries"`
	Timeout    time.Duration       `mapstructure:"timeout"`
}

// LLMModel represents a specific model configuration
type LLMModel struct {
	Name            string  `mapstructure:"name"`
	APIName         string  `mapstructure:"api_name"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
	CostPer1K       float64 `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64 `mapstructure:"cost_per_1k_output"`
}

// LLMRoutingConfig defines which model handles specialist work
type LLMRoutingConfig struct {
	Specialist string `mapstructure:"specialist"` // model for all specialist dispatches
	Fallback   string `mapstructure:"fallback"`
}

// AgentsConfig contains specialist agent settings
type AgentsConfig struct {
	MaxToolIterations int           `mapstructure:"max_tool_iterations"`
	AgentTimeout      time.Duration `mapstructure:"agent_timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	RepairRounds      int           `mapstructure:"repair_rounds"`
}

// ToolsConfig contains tool capability settings
type ToolsConfig struct {
	WebSearch WebSearchConfig `mapstructure:"web_search"`
	Cache     CacheConfig     `mapstructure:"cache"`
}

// WebSearchConfig contains web search settings
type WebSearchConfig struct {
	ExaAPIKey  string        `mapstructure:"exa_api_key"`
	MaxResults int           `mapstructure:"max_results"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// CacheConfig contains query cache settings
type CacheConfig struct {
	Backend string        `mapstructure:"backend"` // memory, redis
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TelemetryConfig contains telemetry and cost tracking settings
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	CostTracking bool `mapstructure:"cost_tracking"`
	PeriodicLogs bool `mapstructure:"periodic_logs"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("advisor_config")
		v.SetConfigType("json")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ADVISOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional - defaults plus env are enough to run
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	overrideFromEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// General defaults
	v.SetDefault("general.debug", false)
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.max_session_time", "15m")
	v.SetDefault("general.default_timeout", "30s")

	// LLM defaults
	v.SetDefault("llm.routing.specialist", "claude-sonnet")
	v.SetDefault("llm.routing.fallback", "claude-sonnet")
	v.SetDefault("llm.providers.anthropic.type", "anthropic")
	v.SetDefault("llm.providers.anthropic.max_retries", 3)
	v.SetDefault("llm.providers.anthropic.timeout", "2m")
	v.SetDefault("llm.providers.anthropic.models.claude-sonnet.name", "claude-sonnet")
	v.SetDefault("llm.providers.anthropic.models.claude-sonnet.api_name", "claude-3-7-sonnet-20250219")
	v.SetDefault("llm.providers.anthropic.models.claude-sonnet.max_tokens", 4096)
	v.SetDefault("llm.providers.anthropic.models.claude-sonnet.temperature", 0.2)
	v.SetDefault("llm.providers.anthropic.models.claude-sonnet.cost_per_1k_input", 0.003)
	v.SetDefault("llm.providers.anthropic.models.claude-sonnet.cost_per_1k_output", 0.015)

	// Agent defaults
	v.SetDefault("agents.max_tool_iterations", 8)
	v.SetDefault("agents.agent_timeout", "3m")
	v.SetDefault("agents.max_retries", 3)
	v.SetDefault("agents.retry_backoff", "500ms")
	v.SetDefault("agents.repair_rounds", 3)

	// Tool defaults
	v.SetDefault("tools.web_search.max_results", 5)
	v.SetDefault("tools.web_search.timeout", "30s")
	v.SetDefault("tools.cache.backend", "memory")
	v.SetDefault("tools.cache.ttl", "30m")
	v.SetDefault("tools.cache.redis.host", "localhost")
	v.SetDefault("tools.cache.redis.port", 6379)
	v.SetDefault("tools.cache.redis.db", 0)
	v.SetDefault("tools.cache.redis.timeout", "5s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.cost_tracking", true)
	v.SetDefault("telemetry.periodic_logs", false)
}

// overrideFromEnv overrides configuration with environment variables
func overrideFromEnv(v *viper.Viper) {
	// LLM API keys
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		v.Set("llm.providers.anthropic.api_key", apiKey)
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		v.Set("llm.providers.openai.api_key", apiKey)
		v.Set("llm.providers.openai.type", "openai")
	}

	// Search tool API keys
	if apiKey := os.Getenv("EXA_API_KEY"); apiKey != "" {
		v.Set("tools.web_search.exa_api_key", apiKey)
	}

	// Redis configuration
	if host := os.Getenv("REDIS_HOST"); host != "" {
		v.Set("tools.cache.redis.host", host)
		v.Set("tools.cache.backend", "redis")
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("tools.cache.redis.port", p)
		}
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		v.Set("tools.cache.redis.password", password)
	}
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if len(config.LLM.Providers) == 0 {
		return fmt.Errorf("at least one LLM provider must be configured")
	}

	routingModels := []string{
		config.LLM.Routing.Specialist,
		config.LLM.Routing.Fallback,
	}
	for _, model := range routingModels {
		if model == "" {
			continue
		}
		found := false
		for _, provider := range config.LLM.Providers {
			for _, providerModel := range provider.Models {
				if providerModel.Name == model {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return fmt.Errorf("routing model '%s' not found in any provider", model)
		}
	}

	if config.Agents.RepairRounds < 0 {
		return fmt.Errorf("agents.repair_rounds must not be negative")
	}
	if config.Agents.MaxToolIterations < 1 {
		return fmt.Errorf("agents.max_tool_iterations must be at least 1")
	}

	return nil
}
