package telemetry

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// Config controls what the telemetry layer records. Everything is off when
// Enabled is false so tests can pass a zero value.
type Config struct {
	Enabled     bool
	LogEvents   bool
	TrackCosts  bool
	TrackTokens bool
}

// Telemetry collects per-session metrics: agent executions, tool calls,
// token usage and spend. All methods are safe for concurrent use.
type Telemetry struct {
	config  Config
	logger  *log.Logger
	metrics *Metrics
	costs   *CostTracker
}

type Metrics struct {
	mu              sync.Mutex
	AgentRuns       map[string]int
	AgentFailures   map[string]int
	AgentDurations  map[string]time.Duration
	ToolCalls       map[string]int
	ToolFailures    map[string]int
	CacheHits       int
	CacheMisses     int
	RepairRounds    int
	ValidationFails int
}

type CostTracker struct {
	mu           sync.Mutex
	TotalCost    float64
	TotalTokens  int
	CostByAgent  map[string]float64
	TokensByRole map[string]int
}

func New(config Config, logger *log.Logger) *Telemetry {
	if logger == nil {
		logger = log.Default()
	}
	return &Telemetry{
		config: config,
		logger: logger,
		metrics: &Metrics{
			AgentRuns:      make(map[string]int),
			AgentFailures:  make(map[string]int),
			AgentDurations: make(map[string]time.Duration),
			ToolCalls:      make(map[string]int),
			ToolFailures:   make(map[string]int),
		},
		costs: &CostTracker{
			CostByAgent:  make(map[string]float64),
			TokensByRole: make(map[string]int),
		},
	}
}

// RecordAgentExecution tracks one specialist run
func (t *Telemetry) RecordAgentExecution(role string, duration time.Duration, complete bool) {
	if !t.config.Enabled {
		return
	}
	t.metrics.mu.Lock()
	t.metrics.AgentRuns[role]++
	t.metrics.AgentDurations[role] += duration
	if !complete {
		t.metrics.AgentFailures[role]++
	}
	t.metrics.mu.Unlock()

	if t.config.LogEvents {
		status := "complete"
		if !complete {
			status = "incomplete"
		}
		t.logger.Printf("[TELEMETRY] Agent %s finished in %v (%s)", role, duration, status)
	}
}

// RecordToolCall tracks one tool invocation
func (t *Telemetry) RecordToolCall(tool string, duration time.Duration, cacheHit bool, err error) {
	if !t.config.Enabled {
		return
	}
	t.metrics.mu.Lock()
	t.metrics.ToolCalls[tool]++
	if err != nil {
		t.metrics.ToolFailures[tool]++
	}
	if cacheHit {
		t.metrics.CacheHits++
	} else {
		t.metrics.CacheMisses++
	}
	t.metrics.mu.Unlock()

	if t.config.LogEvents {
		if err != nil {
			t.logger.Printf("[TELEMETRY] Tool %s failed after %v: %v", tool, duration, err)
		} else {
			t.logger.Printf("[TELEMETRY] Tool %s took %v (cache hit: %v)", tool, duration, cacheHit)
		}
	}
}

// RecordCost tracks model spend for one specialist run
func (t *Telemetry) RecordCost(role, model string, tokens int, cost float64) {
	if !t.config.Enabled || !t.config.TrackCosts {
		return
	}
	t.costs.mu.Lock()
	t.costs.TotalCost += cost
	t.costs.CostByAgent[role] += cost
	if t.config.TrackTokens {
		t.costs.TotalTokens += tokens
		t.costs.TokensByRole[role] += tokens
	}
	t.costs.mu.Unlock()

	if t.config.LogEvents {
		t.logger.Printf("[TELEMETRY] %s used %d tokens on %s ($%.4f)", role, tokens, model, cost)
	}
}

// RecordRepairRound tracks one validation-driven repair pass
func (t *Telemetry) RecordRepairRound(missing int) {
	if !t.config.Enabled {
		return
	}
	t.metrics.mu.Lock()
	t.metrics.RepairRounds++
	t.metrics.ValidationFails += missing
	t.metrics.mu.Unlock()

	if t.config.LogEvents {
		t.logger.Printf("[TELEMETRY] Repair round dispatched for %d missing fields", missing)
	}
}

func (t *Telemetry) TotalCost() float64 {
	t.costs.mu.Lock()
	defer t.costs.mu.Unlock()
	return t.costs.TotalCost
}

func (t *Telemetry) TotalTokens() int {
	t.costs.mu.Lock()
	defer t.costs.mu.Unlock()
	return t.costs.TotalTokens
}

// PerformanceReport renders a human-readable summary of the session
func (t *Telemetry) PerformanceReport() string {
	if !t.config.Enabled {
		return "telemetry disabled"
	}
	t.metrics.mu.Lock()
	defer t.metrics.mu.Unlock()
	t.costs.mu.Lock()
	defer t.costs.mu.Unlock()

	report := "=== Performance Report ===\n"

	roles := make([]string, 0, len(t.metrics.AgentRuns))
	for role := range t.metrics.AgentRuns {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	for _, role := range roles {
		runs := t.metrics.AgentRuns[role]
		avg := t.metrics.AgentDurations[role] / time.Duration(runs)
		report += fmt.Sprintf("Agent %s: %d runs, avg %v, %d incomplete, $%.4f\n",
			role, runs, avg.Round(time.Millisecond), t.metrics.AgentFailures[role], t.costs.CostByAgent[role])
	}

	tools := make([]string, 0, len(t.metrics.ToolCalls))
	for tool := range t.metrics.ToolCalls {
		tools = append(tools, tool)
	}
	sort.Strings(tools)
	for _, tool := range tools {
		report += fmt.Sprintf("Tool %s: %d calls, %d failures\n",
			tool, t.metrics.ToolCalls[tool], t.metrics.ToolFailures[tool])
	}

	report += fmt.Sprintf("Cache: %d hits, %d misses\n", t.metrics.CacheHits, t.metrics.CacheMisses)
	report += fmt.Sprintf("Repair rounds: %d\n", t.metrics.RepairRounds)
	report += fmt.Sprintf("Total: %d tokens, $%.4f\n", t.costs.TotalTokens, t.costs.TotalCost)
	return report
}
