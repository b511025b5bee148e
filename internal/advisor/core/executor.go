package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/config"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/internal/advisor/telemetry"
)

// SpecialistAgent runs one specialist's bounded tool-call loop against an LLM
// backend. It never fails a session over tool or backend trouble: tool errors
// are fed back to the model as text, and a backend that stays down after
// retries yields an incomplete Finding that still carries whatever tool
// results were gathered.
type SpecialistAgent struct {
	spec      AgentSpec
	provider  LLMProvider
	model     string
	caps      map[string]ToolCapability
	cfg       config.AgentsConfig
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

func NewSpecialistAgent(spec AgentSpec, provider LLMProvider, model string, caps map[string]ToolCapability, cfg config.AgentsConfig, tel *telemetry.Telemetry, logger *log.Logger) *SpecialistAgent {
	if logger == nil {
		logger = log.Default()
	}
	return &SpecialistAgent{
		spec:      spec,
		provider:  provider,
		model:     model,
		caps:      caps,
		cfg:       cfg,
		telemetry: tel,
		logger:    logger,
	}
}

func (a *SpecialistAgent) Execute(ctx context.Context, task Task) (Finding, error) {
	start := time.Now()
	finding := Finding{
		ID:        uuid.New().String(),
		Role:      a.spec.Role,
		ModelUsed: a.model,
		CreatedAt: start,
	}

	if a.cfg.AgentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.AgentTimeout)
		defer cancel()
	}

	messages := a.buildMessages(task)
	tools := a.toolSpecs()

	var inputTokens, outputTokens int64
	for iteration := 0; iteration < a.cfg.MaxToolIterations; iteration++ {
		turn, err := a.generate(ctx, messages, tools)
		if err != nil {
			finding.Text = "The sub-task was not completed: the model backend was unavailable."
			finding.Error = fmt.Sprintf("backend failure: %v", err)
			finding.TokensUsed = inputTokens + outputTokens
			finding.Cost = a.provider.CalculateCost(inputTokens, outputTokens, a.model)
			finding.Duration = time.Since(start)
			a.record(finding)
			return finding, nil
		}
		inputTokens += turn.InputTokens
		outputTokens += turn.OutputTokens

		if len(turn.ToolCalls) == 0 {
			finding.Text = turn.Text
			finding.Complete = strings.TrimSpace(turn.Text) != ""
			if !finding.Complete {
				finding.Error = "backend returned an empty response"
			}
			finding.TokensUsed = inputTokens + outputTokens
			finding.Cost = a.provider.CalculateCost(inputTokens, outputTokens, a.model)
			finding.Duration = time.Since(start)
			a.record(finding)
			return finding, nil
		}

		messages = append(messages, ChatMessage{Role: "assistant", Content: turn.Text, ToolCalls: turn.ToolCalls})
		for _, call := range turn.ToolCalls {
			invocation, resultText := a.invokeTool(ctx, call)
			finding.ToolCalls = append(finding.ToolCalls, invocation)
			messages = append(messages, ChatMessage{Role: "tool", Content: resultText, ToolCallID: call.ID})
		}
	}

	// tool budget exhausted without a final answer
	finding.Text = "The sub-task was not completed: the tool budget was exhausted before a final answer."
	finding.Error = fmt.Sprintf("exceeded %d tool iterations without a final response", a.cfg.MaxToolIterations)
	finding.TokensUsed = inputTokens + outputTokens
	finding.Cost = a.provider.CalculateCost(inputTokens, outputTokens, a.model)
	finding.Duration = time.Since(start)
	a.record(finding)
	return finding, nil
}

// generate calls the backend with retry and exponential backoff
func (a *SpecialistAgent) generate(ctx context.Context, messages []ChatMessage, tools []ToolSpec) (ChatTurn, error) {
	var lastErr error
	backoff := a.cfg.RetryBackoff
	for attempt := 0; attempt <= a.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			a.logger.Printf("[%s] Retrying backend call (attempt %d/%d) after error: %v",
				a.spec.Role, attempt, a.cfg.MaxRetries, lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ChatTurn{}, ctx.Err()
			}
			backoff *= 2
		}
		turn, err := a.provider.Chat(ctx, messages, tools, a.model, nil)
		if err == nil {
			return turn, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ChatTurn{}, ctx.Err()
		}
	}
	return ChatTurn{}, fmt.Errorf("backend unavailable after %d retries: %w", a.cfg.MaxRetries, lastErr)
}

// invokeTool runs one requested tool call, degrading any failure into text
// the model can work around
func (a *SpecialistAgent) invokeTool(ctx context.Context, call ToolCall) (ToolInvocation, string) {
	toolStart := time.Now()

	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || strings.TrimSpace(args.Query) == "" {
		invocation := ToolInvocation{
			Tool:     call.Name,
			Result:   "tool call had no usable query argument",
			Duration: time.Since(toolStart),
		}
		return invocation, invocation.Result
	}

	capability, ok := a.caps[call.Name]
	if !ok || !a.allowed(call.Name) {
		invocation := ToolInvocation{
			Tool:     call.Name,
			Query:    args.Query,
			Result:   fmt.Sprintf("tool %s is not available; answer from your own knowledge", call.Name),
			Duration: time.Since(toolStart),
		}
		return invocation, invocation.Result
	}

	result, err := capability.Invoke(ctx, args.Query)
	duration := time.Since(toolStart)
	if a.telemetry != nil {
		a.telemetry.RecordToolCall(call.Name, duration, result.CacheHit, err)
	}
	if err != nil {
		a.logger.Printf("[%s] Tool %s failed: %v", a.spec.Role, call.Name, err)
		invocation := ToolInvocation{
			Tool:     call.Name,
			Query:    args.Query,
			Result:   fmt.Sprintf("search failed: %v; continue with your own knowledge", err),
			Duration: duration,
		}
		return invocation, invocation.Result
	}

	invocation := ToolInvocation{
		Tool:     call.Name,
		Query:    args.Query,
		Result:   result.Text,
		CacheHit: result.CacheHit,
		Duration: duration,
	}
	return invocation, result.Text
}

func (a *SpecialistAgent) allowed(tool string) bool {
	for _, name := range a.spec.Tools {
		if name == tool {
			return true
		}
	}
	return false
}

func (a *SpecialistAgent) buildMessages(task Task) []ChatMessage {
	var system strings.Builder
	system.WriteString(a.spec.Mandate)
	if a.spec.IncludeDate {
		fmt.Fprintf(&system, "\n\nToday's date is %s.", time.Now().Format("2006-01-02"))
	}
	if contract, ok := responseContracts[a.spec.Role]; ok {
		system.WriteString("\n\n")
		system.WriteString(contract)
	}

	var user strings.Builder
	user.WriteString(task.Instruction)
	if len(task.Context) > 0 {
		user.WriteString("\n\nFindings from earlier specialists:\n")
		for _, f := range task.Context {
			fmt.Fprintf(&user, "\n--- %s ---\n%s\n", f.Role, f.Text)
		}
	}
	if len(task.RepairFields) > 0 {
		fmt.Fprintf(&user, "\n\nYour previous response was missing or invalid for these fields: %s.\nProvide a complete response that fills them.",
			strings.Join(task.RepairFields, ", "))
	}

	return []ChatMessage{
		{Role: "system", Content: system.String()},
		{Role: "user", Content: user.String()},
	}
}

func (a *SpecialistAgent) toolSpecs() []ToolSpec {
	var specs []ToolSpec
	for _, name := range a.spec.Tools {
		capability, ok := a.caps[name]
		if !ok {
			continue
		}
		specs = append(specs, ToolSpec{
			Name:        capability.Name(),
			Description: capability.Description(),
			Parameters:  capability.Parameters(),
		})
	}
	return specs
}

func (a *SpecialistAgent) record(finding Finding) {
	if a.telemetry == nil {
		return
	}
	a.telemetry.RecordAgentExecution(a.spec.Role, finding.Duration, finding.Complete)
	a.telemetry.RecordCost(a.spec.Role, a.model, int(finding.TokensUsed), finding.Cost)
}
