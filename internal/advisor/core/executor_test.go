package core

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/config"
)

// scriptedProvider replays a fixed sequence of turns and errors
type scriptedProvider struct {
	turns    []ChatTurn
	errs     []error
	calls    int
	messages [][]ChatMessage
}

func (p *scriptedProvider) Chat(_ context.Context, messages []ChatMessage, _ []ToolSpec, _ string, _ map[string]interface{}) (ChatTurn, error) {
	idx := p.calls
	p.calls++
	copied := make([]ChatMessage, len(messages))
	copy(copied, messages)
	p.messages = append(p.messages, copied)
	if idx < len(p.errs) && p.errs[idx] != nil {
		return ChatTurn{}, p.errs[idx]
	}
	if idx < len(p.turns) {
		return p.turns[idx], nil
	}
	return ChatTurn{Text: "done"}, nil
}

func (p *scriptedProvider) GetAvailableModels() []string { return []string{"test-model"} }

func (p *scriptedProvider) GetModelInfo(model string) (ModelInfo, error) {
	return ModelInfo{Name: model}, nil
}

func (p *scriptedProvider) CalculateCost(inputTokens, outputTokens int64, _ string) float64 {
	return float64(inputTokens+outputTokens) / 1000 * 0.01
}

type fakeCapability struct {
	name    string
	result  ToolResult
	err     error
	queries []string
}

func (c *fakeCapability) Name() string        { return c.name }
func (c *fakeCapability) Description() string { return "test capability" }

func (c *fakeCapability) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{"type": "string"},
		},
		"required": []string{"query"},
	}
}

func (c *fakeCapability) Invoke(_ context.Context, query string) (ToolResult, error) {
	c.queries = append(c.queries, query)
	if c.err != nil {
		return ToolResult{}, c.err
	}
	return c.result, nil
}

func testAgentsConfig() config.AgentsConfig {
	return config.AgentsConfig{
		MaxToolIterations: 4,
		AgentTimeout:      time.Minute,
		MaxRetries:        2,
		RetryBackoff:      time.Millisecond,
		RepairRounds:      3,
	}
}

func testSpec() AgentSpec {
	return AgentSpec{
		Role:     RoleMarketResearch,
		Name:     "Market Research Specialist",
		Mandate:  "You research markets.",
		Tools:    []string{ToolWebSearch},
		Sections: []string{"industry", "market_analysis"},
	}
}

func TestExecuteToolLoop(t *testing.T) {
	provider := &scriptedProvider{
		turns: []ChatTurn{
			{
				ToolCalls:    []ToolCall{{ID: "call-1", Name: ToolWebSearch, Arguments: `{"query": "meal prep market size"}`}},
				InputTokens:  100,
				OutputTokens: 20,
			},
			{Text: `{"industry": "meal prep"}`, InputTokens: 150, OutputTokens: 50},
		},
	}
	capability := &fakeCapability{name: ToolWebSearch, result: ToolResult{Text: "market is $12B"}}
	agent := NewSpecialistAgent(testSpec(), provider, "test-model", map[string]ToolCapability{ToolWebSearch: capability}, testAgentsConfig(), nil, nil)

	finding, err := agent.Execute(context.Background(), Task{Spec: testSpec(), Instruction: "analyze"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !finding.Complete {
		t.Fatalf("Expected a complete finding, got error %q", finding.Error)
	}
	if len(capability.queries) != 1 || capability.queries[0] != "meal prep market size" {
		t.Errorf("Expected one tool call with the requested query, got %v", capability.queries)
	}
	if len(finding.ToolCalls) != 1 {
		t.Fatalf("Expected 1 recorded tool invocation, got %d", len(finding.ToolCalls))
	}
	if finding.ToolCalls[0].Result != "market is $12B" {
		t.Errorf("Expected tool result recorded, got %q", finding.ToolCalls[0].Result)
	}
	if finding.TokensUsed != 320 {
		t.Errorf("Expected 320 tokens across both turns, got %d", finding.TokensUsed)
	}

	// the tool result must have been fed back to the model
	last := provider.messages[len(provider.messages)-1]
	foundToolMsg := false
	for _, msg := range last {
		if msg.Role == "tool" && msg.Content == "market is $12B" && msg.ToolCallID == "call-1" {
			foundToolMsg = true
		}
	}
	if !foundToolMsg {
		t.Error("Expected the tool result in the follow-up conversation")
	}
}

func TestExecuteToolFailureDegradesToText(t *testing.T) {
	provider := &scriptedProvider{
		turns: []ChatTurn{
			{ToolCalls: []ToolCall{{ID: "call-1", Name: ToolWebSearch, Arguments: `{"query": "trends"}`}}},
			{Text: `{"industry": "meal prep"}`},
		},
	}
	capability := &fakeCapability{name: ToolWebSearch, err: fmt.Errorf("connection refused")}
	agent := NewSpecialistAgent(testSpec(), provider, "test-model", map[string]ToolCapability{ToolWebSearch: capability}, testAgentsConfig(), nil, nil)

	finding, err := agent.Execute(context.Background(), Task{Spec: testSpec(), Instruction: "analyze"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !finding.Complete {
		t.Fatalf("Tool failure must not fail the finding, got error %q", finding.Error)
	}
	if len(finding.ToolCalls) != 1 {
		t.Fatalf("Expected the failed invocation recorded, got %d", len(finding.ToolCalls))
	}
	if !strings.Contains(finding.ToolCalls[0].Result, "search failed") {
		t.Errorf("Expected a degraded failure message, got %q", finding.ToolCalls[0].Result)
	}

	last := provider.messages[len(provider.messages)-1]
	foundDegraded := false
	for _, msg := range last {
		if msg.Role == "tool" && strings.Contains(msg.Content, "search failed") {
			foundDegraded = true
		}
	}
	if !foundDegraded {
		t.Error("Expected the failure text fed back to the model")
	}
}

func TestExecuteUnknownToolRequested(t *testing.T) {
	provider := &scriptedProvider{
		turns: []ChatTurn{
			{ToolCalls: []ToolCall{{ID: "call-1", Name: "database_lookup", Arguments: `{"query": "anything"}`}}},
			{Text: `{"industry": "meal prep"}`},
		},
	}
	agent := NewSpecialistAgent(testSpec(), provider, "test-model", map[string]ToolCapability{}, testAgentsConfig(), nil, nil)

	finding, err := agent.Execute(context.Background(), Task{Spec: testSpec(), Instruction: "analyze"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !finding.Complete {
		t.Fatalf("Unknown tool must not fail the finding, got error %q", finding.Error)
	}
	if !strings.Contains(finding.ToolCalls[0].Result, "not available") {
		t.Errorf("Expected a not-available message, got %q", finding.ToolCalls[0].Result)
	}
}

func TestExecuteIterationCapExceeded(t *testing.T) {
	// every turn asks for another tool call, never finishing
	turns := make([]ChatTurn, 10)
	for i := range turns {
		turns[i] = ChatTurn{
			ToolCalls: []ToolCall{{ID: fmt.Sprintf("call-%d", i), Name: ToolWebSearch, Arguments: `{"query": "more"}`}},
		}
	}
	provider := &scriptedProvider{turns: turns}
	capability := &fakeCapability{name: ToolWebSearch, result: ToolResult{Text: "results"}}
	cfg := testAgentsConfig()
	cfg.MaxToolIterations = 3
	agent := NewSpecialistAgent(testSpec(), provider, "test-model", map[string]ToolCapability{ToolWebSearch: capability}, cfg, nil, nil)

	finding, err := agent.Execute(context.Background(), Task{Spec: testSpec(), Instruction: "analyze"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if finding.Complete {
		t.Fatal("Expected an incomplete finding after exceeding the iteration cap")
	}
	if !strings.Contains(finding.Error, "tool iterations") {
		t.Errorf("Expected the error to explain the cap, got %q", finding.Error)
	}
	if len(finding.ToolCalls) != 3 {
		t.Errorf("Expected the gathered invocations preserved, got %d", len(finding.ToolCalls))
	}
	if provider.calls != 3 {
		t.Errorf("Expected exactly 3 backend calls, got %d", provider.calls)
	}
}

func TestExecuteBackendRetrySucceeds(t *testing.T) {
	provider := &scriptedProvider{
		errs: []error{fmt.Errorf("rate limited"), nil},
		turns: []ChatTurn{
			{}, // consumed by the failed attempt
			{Text: `{"industry": "meal prep"}`, InputTokens: 80, OutputTokens: 40},
		},
	}
	agent := NewSpecialistAgent(testSpec(), provider, "test-model", map[string]ToolCapability{}, testAgentsConfig(), nil, nil)

	finding, err := agent.Execute(context.Background(), Task{Spec: testSpec(), Instruction: "analyze"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !finding.Complete {
		t.Fatalf("Expected success after retry, got error %q", finding.Error)
	}
	if provider.calls != 2 {
		t.Errorf("Expected 2 backend calls, got %d", provider.calls)
	}
}

func TestExecuteBackendExhaustedRetries(t *testing.T) {
	provider := &scriptedProvider{
		errs: []error{
			fmt.Errorf("unavailable"),
			fmt.Errorf("unavailable"),
			fmt.Errorf("unavailable"),
			fmt.Errorf("unavailable"),
		},
	}
	agent := NewSpecialistAgent(testSpec(), provider, "test-model", map[string]ToolCapability{}, testAgentsConfig(), nil, nil)

	finding, err := agent.Execute(context.Background(), Task{Spec: testSpec(), Instruction: "analyze"})
	if err != nil {
		t.Fatalf("Backend failure must degrade, not error: %v", err)
	}
	if finding.Complete {
		t.Fatal("Expected an incomplete finding after retries were exhausted")
	}
	if !strings.Contains(finding.Error, "backend failure") {
		t.Errorf("Expected a backend failure error, got %q", finding.Error)
	}
	// initial attempt plus MaxRetries
	if provider.calls != 3 {
		t.Errorf("Expected 3 backend calls, got %d", provider.calls)
	}
}

func TestExecuteRepairFieldsInPrompt(t *testing.T) {
	provider := &scriptedProvider{
		turns: []ChatTurn{{Text: `{"industry": "meal prep"}`}},
	}
	agent := NewSpecialistAgent(testSpec(), provider, "test-model", map[string]ToolCapability{}, testAgentsConfig(), nil, nil)

	_, err := agent.Execute(context.Background(), Task{
		Spec:         testSpec(),
		Instruction:  "redo your analysis",
		RepairFields: []string{"industry", "market_analysis.market_size"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	first := provider.messages[0]
	foundRepair := false
	for _, msg := range first {
		if msg.Role == "user" && strings.Contains(msg.Content, "market_analysis.market_size") {
			foundRepair = true
		}
	}
	if !foundRepair {
		t.Error("Expected repair fields named in the user prompt")
	}
}
