package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.LLM.Routing.Specialist != "claude-sonnet" {
		t.Errorf("Expected default routing model claude-sonnet, got %q", cfg.LLM.Routing.Specialist)
	}
	provider, ok := cfg.LLM.Providers["anthropic"]
	if !ok {
		t.Fatal("Expected the default anthropic provider")
	}
	if provider.APIKey != "test-key" {
		t.Errorf("Expected the API key from env, got %q", provider.APIKey)
	}
	if cfg.Agents.MaxToolIterations != 8 {
		t.Errorf("Expected default max_tool_iterations 8, got %d", cfg.Agents.MaxToolIterations)
	}
	if cfg.Agents.RepairRounds != 3 {
		t.Errorf("Expected default repair_rounds 3, got %d", cfg.Agents.RepairRounds)
	}
	if cfg.Tools.Cache.Backend != "memory" {
		t.Errorf("Expected default cache backend memory, got %q", cfg.Tools.Cache.Backend)
	}
	if cfg.Tools.Cache.TTL != 30*time.Minute {
		t.Errorf("Expected default cache TTL 30m, got %v", cfg.Tools.Cache.TTL)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	content := `{
	  "agents": {
	    "max_tool_iterations": 2,
	    "repair_rounds": 1
	  },
	  "tools": {
	    "web_search": {"max_results": 3}
	  }
	}`
	path := filepath.Join(t.TempDir(), "advisor_config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Agents.MaxToolIterations != 2 {
		t.Errorf("Expected max_tool_iterations 2 from file, got %d", cfg.Agents.MaxToolIterations)
	}
	if cfg.Agents.RepairRounds != 1 {
		t.Errorf("Expected repair_rounds 1 from file, got %d", cfg.Agents.RepairRounds)
	}
	if cfg.Tools.WebSearch.MaxResults != 3 {
		t.Errorf("Expected max_results 3 from file, got %d", cfg.Tools.WebSearch.MaxResults)
	}
	// untouched values keep their defaults
	if cfg.Agents.MaxRetries != 3 {
		t.Errorf("Expected default max_retries 3, got %d", cfg.Agents.MaxRetries)
	}
}

func TestLoadConfigRejectsUnknownRoutingModel(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	content := `{"llm": {"routing": {"specialist": "no-such-model"}}}`
	path := filepath.Join(t.TempDir(), "advisor_config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation to reject an unknown routing model")
	}
}

func TestLoadConfigRejectsBadAgentSettings(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	content := `{"agents": {"max_tool_iterations": 0}}`
	path := filepath.Join(t.TempDir(), "advisor_config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("Expected validation to reject zero tool iterations")
	}
}

func TestLoadConfigRedisEnvSwitchesBackend(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Tools.Cache.Backend != "redis" {
		t.Errorf("Expected redis backend when REDIS_HOST is set, got %q", cfg.Tools.Cache.Backend)
	}
	if cfg.Tools.Cache.Redis.Host != "cache.internal" {
		t.Errorf("Expected redis host from env, got %q", cfg.Tools.Cache.Redis.Host)
	}
	if cfg.Tools.Cache.Redis.Port != 6380 {
		t.Errorf("Expected redis port from env, got %d", cfg.Tools.Cache.Redis.Port)
	}
}
