package core

import (
	"fmt"
	"log"

	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/config"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/internal/advisor/telemetry"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/cache"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/cache/inmemory"
	redisstore "github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/cache/redis"
)

// NewLLMProvider creates the backend serving the routed specialist model.
// A provider without credentials is a ConfigurationError; nothing should be
// dispatched against a backend that cannot authenticate.
func NewLLMProvider(cfg *config.Config) (LLMProvider, string, error) {
	model := cfg.LLM.Routing.Specialist
	for name, providerCfg := range cfg.LLM.Providers {
		if _, ok := providerCfg.Models[model]; !ok {
			continue
		}
		if providerCfg.APIKey == "" {
			return nil, "", &ConfigurationError{Reason: fmt.Sprintf("provider %q serves model %q but has no API key", name, model)}
		}
		switch providerCfg.Type {
		case "anthropic":
			provider, err := NewAnthropicProvider(providerCfg)
			if err != nil {
				return nil, "", err
			}
			return provider, model, nil
		case "openai":
			provider, err := NewOpenAIProvider(providerCfg)
			if err != nil {
				return nil, "", err
			}
			return provider, model, nil
		default:
			return nil, "", &ConfigurationError{Reason: fmt.Sprintf("unsupported provider type %q", providerCfg.Type)}
		}
	}
	return nil, "", &ConfigurationError{Reason: fmt.Sprintf("no provider serves routing model %q", model)}
}

// NewCacheStore creates the search cache backend named by the tools config
func NewCacheStore(cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case "memory", "":
		return inmemory.NewStore(cfg.TTL), nil
	case "redis":
		store, err := redisstore.NewStore(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.TTL, cfg.Redis.Timeout)
		if err != nil {
			return nil, fmt.Errorf("creating redis cache: %w", err)
		}
		return store, nil
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unsupported cache backend %q", cfg.Backend)}
	}
}

// NewSpecialists builds one executor per roster entry, all sharing the same
// provider, tool set and cache
func NewSpecialists(cfg *config.Config, logger *log.Logger, tel *telemetry.Telemetry) (map[string]Specialist, error) {
	provider, model, err := NewLLMProvider(cfg)
	if err != nil {
		return nil, err
	}
	store, err := NewCacheStore(cfg.Tools.Cache)
	if err != nil {
		return nil, err
	}
	caps := NewToolCapabilities(cfg.Tools, store)

	specialists := make(map[string]Specialist)
	for _, spec := range DefaultRoster() {
		specialists[spec.Role] = NewSpecialistAgent(spec, provider, model, caps, cfg.Agents, tel, logger)
	}
	return specialists, nil
}
