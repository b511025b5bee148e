package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/config"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider implements LLMProvider over the OpenAI chat completions API
type OpenAIProvider struct {
	cfg     config.LLMProvider
	baseURL string
	client  *http.Client
}

func NewOpenAIProvider(cfg config.LLMProvider) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Reason: "openai provider requires an API key"}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIProvider{
		cfg:     cfg,
		baseURL: baseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAITool struct {
	Type     string            `json:"type"`
	Function openAIToolDetails `json:"function"`
}

type openAIToolDetails struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (p *OpenAIProvider) Chat(ctx context.Context, messages []ChatMessage, tools []ToolSpec, model string, options map[string]interface{}) (ChatTurn, error) {
	modelCfg, ok := p.cfg.Models[model]
	if !ok {
		return ChatTurn{}, fmt.Errorf("unknown model: %s", model)
	}

	request := openAIRequest{
		Model:       modelCfg.APIName,
		MaxTokens:   modelCfg.MaxTokens,
		Temperature: modelCfg.Temperature,
	}
	for _, msg := range messages {
		m := openAIMessage{Role: msg.Role, Content: msg.Content, ToolCallID: msg.ToolCallID}
		for _, call := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, openAIToolCall{
				ID:   call.ID,
				Type: "function",
				Function: openAIFunction{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			})
		}
		request.Messages = append(request.Messages, m)
	}
	for _, tool := range tools {
		request.Tools = append(request.Tools, openAITool{
			Type: "function",
			Function: openAIToolDetails{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	body, err := json.Marshal(request)
	if err != nil {
		return ChatTurn{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return ChatTurn{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return ChatTurn{}, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ChatTurn{}, fmt.Errorf("reading response: %w", err)
	}

	var payload openAIResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ChatTurn{}, fmt.Errorf("decoding response: %w", err)
	}
	if payload.Error != nil {
		return ChatTurn{}, fmt.Errorf("openai error (%s): %s", payload.Error.Type, payload.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return ChatTurn{}, fmt.Errorf("openai returned %d: %s", resp.StatusCode, string(raw))
	}
	if len(payload.Choices) == 0 {
		return ChatTurn{}, fmt.Errorf("openai returned no choices")
	}

	message := payload.Choices[0].Message
	turn := ChatTurn{
		Text:         message.Content,
		InputTokens:  payload.Usage.PromptTokens,
		OutputTokens: payload.Usage.CompletionTokens,
	}
	for _, call := range message.ToolCalls {
		turn.ToolCalls = append(turn.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return turn, nil
}

func (p *OpenAIProvider) GetAvailableModels() []string {
	models := make([]string, 0, len(p.cfg.Models))
	for name := range p.cfg.Models {
		models = append(models, name)
	}
	sort.Strings(models)
	return models
}

func (p *OpenAIProvider) GetModelInfo(model string) (ModelInfo, error) {
	modelCfg, ok := p.cfg.Models[model]
	if !ok {
		return ModelInfo{}, fmt.Errorf("unknown model: %s", model)
	}
	return ModelInfo{
		Name:            modelCfg.Name,
		Provider:        "openai",
		MaxTokens:       modelCfg.MaxTokens,
		CostPer1KInput:  modelCfg.CostPer1K,
		CostPer1KOutput: modelCfg.CostPer1KOutput,
	}, nil
}

func (p *OpenAIProvider) CalculateCost(inputTokens, outputTokens int64, model string) float64 {
	modelCfg, ok := p.cfg.Models[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000*modelCfg.CostPer1K + float64(outputTokens)/1000*modelCfg.CostPer1KOutput
}
