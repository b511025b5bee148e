package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/config"
)

// AnthropicProvider implements LLMProvider over the Anthropic Messages API
type AnthropicProvider struct {
	client *anthropic.Client
	cfg    config.LLMProvider
}

func NewAnthropicProvider(cfg config.LLMProvider) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Reason: "anthropic provider requires an API key"}
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{client: &client, cfg: cfg}, nil
}

func (p *AnthropicProvider) Chat(ctx context.Context, messages []ChatMessage, tools []ToolSpec, model string, options map[string]interface{}) (ChatTurn, error) {
	modelCfg, ok := p.cfg.Models[model]
	if !ok {
		return ChatTurn{}, fmt.Errorf("unknown model: %s", model)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelCfg.APIName),
		MaxTokens:   int64(modelCfg.MaxTokens),
		Temperature: anthropic.Float(modelCfg.Temperature),
	}

	// system content is merged into the first user message; consecutive tool
	// results are batched into a single user message
	var system string
	var toolResults []anthropic.ContentBlockParamUnion
	flushToolResults := func() {
		if len(toolResults) > 0 {
			params.Messages = append(params.Messages, anthropic.NewUserMessage(toolResults...))
			toolResults = nil
		}
	}
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
		case "user":
			flushToolResults()
			content := msg.Content
			if system != "" {
				content = system + "\n\n" + content
				system = ""
			}
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(content)))
		case "assistant":
			flushToolResults()
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamOfRequestToolUseBlock(call.ID, json.RawMessage(call.Arguments), call.Name))
			}
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(blocks...))
		case "tool":
			toolResults = append(toolResults, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
		default:
			return ChatTurn{}, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}
	flushToolResults()

	for _, tool := range tools {
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := tool.Parameters["properties"]; ok {
			schema.Properties = props
		}
		union := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if union.OfTool != nil {
			union.OfTool.Description = anthropic.String(tool.Description)
		}
		params.Tools = append(params.Tools, union)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return ChatTurn{}, fmt.Errorf("anthropic request failed: %w", err)
	}

	turn := ChatTurn{
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}
	for _, content := range resp.Content {
		switch content.Type {
		case "text":
			turn.Text += content.AsResponseTextBlock().Text
		case "tool_use":
			block := content.AsResponseToolUseBlock()
			turn.ToolCalls = append(turn.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}
	return turn, nil
}

func (p *AnthropicProvider) GetAvailableModels() []string {
	models := make([]string, 0, len(p.cfg.Models))
	for name := range p.cfg.Models {
		models = append(models, name)
	}
	sort.Strings(models)
	return models
}

func (p *AnthropicProvider) GetModelInfo(model string) (ModelInfo, error) {
	modelCfg, ok := p.cfg.Models[model]
	if !ok {
		return ModelInfo{}, fmt.Errorf("unknown model: %s", model)
	}
	return ModelInfo{
		Name:            modelCfg.Name,
		Provider:        "anthropic",
		MaxTokens:       modelCfg.MaxTokens,
		CostPer1KInput:  modelCfg.CostPer1K,
		CostPer1KOutput: modelCfg.CostPer1KOutput,
	}, nil
}

func (p *AnthropicProvider) CalculateCost(inputTokens, outputTokens int64, model string) float64 {
	modelCfg, ok := p.cfg.Models[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000*modelCfg.CostPer1K + float64(outputTokens)/1000*modelCfg.CostPer1KOutput
}
