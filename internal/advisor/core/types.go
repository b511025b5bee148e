package core

import (
	"context"
	"time"
)

// Specialist role keys. These are stable identities used for routing findings
// into the structured plan and for targeting repair dispatches.
const (
	RoleMarketResearch     = "market_research"
	RoleCompetitorAnalysis = "competitor_analysis"
	RoleBusinessModel      = "business_model"
	RoleFinancialAnalysis  = "financial_analysis"
	RoleLegalCompliance    = "legal_compliance"
)

// AgentSpec is the static definition of one specialist: its role, mandate and
// tool access. Immutable once constructed; owned by the roster.
type AgentSpec struct {
	Role        string   `json:"role"`
	Name        string   `json:"name"`
	Mandate     string   `json:"mandate"`
	Tools       []string `json:"tools,omitempty"`
	IncludeDate bool     `json:"include_date,omitempty"`
	// Sections lists the top-level plan fields this specialist owns.
	Sections []string `json:"sections"`
}

// Task is one unit of work dispatched to a specialist
type Task struct {
	Spec        AgentSpec `json:"spec"`
	Instruction string    `json:"instruction"`
	Context     []Finding `json:"context,omitempty"`
	// RepairFields names the plan fields a targeted repair dispatch must fill.
	RepairFields []string `json:"repair_fields,omitempty"`
}

// Finding is the recorded output of one specialist dispatch. Append-only
// within a session; never mutated after creation.
type Finding struct {
	ID         string           `json:"id"`
	Role       string           `json:"role"`
	Text       string           `json:"text"`
	ToolCalls  []ToolInvocation `json:"tool_calls,omitempty"`
	Complete   bool             `json:"complete"`
	Error      string           `json:"error,omitempty"`
	ModelUsed  string           `json:"model_used,omitempty"`
	TokensUsed int64            `json:"tokens_used"`
	Cost       float64          `json:"cost"`
	Duration   time.Duration    `json:"duration"`
	CreatedAt  time.Time        `json:"created_at"`
}

// ToolInvocation records a single tool call for traceability
type ToolInvocation struct {
	Tool     string        `json:"tool"`
	Query    string        `json:"query"`
	Result   string        `json:"result"`
	CacheHit bool          `json:"cache_hit"`
	Duration time.Duration `json:"duration"`
}

// SessionState accumulates findings for one scenario. Created at session
// start, mutated only by the Coordinator, discarded at session end.
type SessionState struct {
	ID          string    `json:"id"`
	Scenario    string    `json:"scenario"`
	Findings    []Finding `json:"findings"`
	Completed   bool      `json:"completed"`
	TotalCost   float64   `json:"total_cost"`
	TotalTokens int64     `json:"total_tokens"`
	StartedAt   time.Time `json:"started_at"`
}

// Specialist is the contract for a specialist agent executor. Execute returns
// an error only for programming faults; tool and backend trouble degrade into
// incomplete findings instead.
type Specialist interface {
	Execute(ctx context.Context, task Task) (Finding, error)
}

// ChatMessage is one turn of a model conversation
type ChatMessage struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a backend request to invoke a named tool capability
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON
}

// ToolSpec describes a tool capability to the model backend
type ToolSpec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// ChatTurn is one backend response: either final text or tool-call requests
type ChatTurn struct {
	Text         string     `json:"text"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	InputTokens  int64      `json:"input_tokens"`
	OutputTokens int64      `json:"output_tokens"`
}

// LLMProvider interface defines the contract for model backends
type LLMProvider interface {
	// Chat sends a conversation with available tools and returns the next turn
	Chat(ctx context.Context, messages []ChatMessage, tools []ToolSpec, model string, options map[string]interface{}) (ChatTurn, error)

	// GetAvailableModels returns available models
	GetAvailableModels() []string

	// GetModelInfo returns information about a specific model
	GetModelInfo(model string) (ModelInfo, error)

	// CalculateCost calculates the cost for a given number of tokens
	CalculateCost(inputTokens, outputTokens int64, model string) float64
}

// ModelInfo contains information about an LLM model
type ModelInfo struct {
	Name            string  `json:"name"`
	Provider        string  `json:"provider"`
	MaxTokens       int     `json:"max_tokens"`
	CostPer1KInput  float64 `json:"cost_per_1k_input"`
	CostPer1KOutput float64 `json:"cost_per_1k_output"`
	Description     string  `json:"description"`
}

// ToolResult is the outcome of one tool capability invocation
type ToolResult struct {
	Text     string `json:"text"`
	CacheHit bool   `json:"cache_hit"`
}

// ToolCapability is an external lookup a specialist may invoke. Provider
// failures are returned as errors; the executor degrades them into text the
// model can reason about.
type ToolCapability interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Invoke(ctx context.Context, query string) (ToolResult, error)
}
