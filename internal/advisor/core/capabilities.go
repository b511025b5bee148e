package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/config"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/cache"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/web_search"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/web_search/duckduckgo"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/web_search/exa"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/web_search/models"
)

// searchCapability adapts a WebSearcher into a tool the specialists can call.
// Results are cached by tool name and query so identical lookups within a
// session (or across sessions, with the redis backend) hit the network once.
type searchCapability struct {
	name        string
	description string
	searcher    web_search.WebSearcher
	store       cache.Store
	maxResults  int
}

func (c *searchCapability) Name() string        { return c.name }
func (c *searchCapability) Description() string { return c.description }

func (c *searchCapability) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "The search query",
			},
		},
		"required": []string{"query"},
	}
}

func (c *searchCapability) Invoke(ctx context.Context, query string) (ToolResult, error) {
	key := c.name + ":" + query
	if c.store != nil {
		if cached, ok, err := c.store.Get(ctx, key); err == nil && ok {
			return ToolResult{Text: cached, CacheHit: true}, nil
		}
	}

	results, err := c.searcher.Search(ctx, query, c.maxResults)
	if err != nil {
		return ToolResult{}, fmt.Errorf("searching %q: %w", query, err)
	}

	text := formatResults(results)
	if c.store != nil {
		// a failed cache write only costs a repeat lookup later
		_ = c.store.Set(ctx, key, text)
	}
	return ToolResult{Text: text}, nil
}

func formatResults(results []models.Result) string {
	if len(results) == 0 {
		return "No results found."
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		if r.URL != "" {
			fmt.Fprintf(&b, "   %s\n", r.URL)
		}
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}
	return b.String()
}

// NewToolCapabilities builds the tool set available to specialists. The exa
// tool is only registered when an API key is configured; specialists that ask
// for it fall back to reasoning without search results.
func NewToolCapabilities(cfg config.ToolsConfig, store cache.Store) map[string]ToolCapability {
	capabilities := map[string]ToolCapability{
		ToolWebSearch: &searchCapability{
			name:        ToolWebSearch,
			description: "Search the web for current information. Use for market data, trends, statistics and regulations.",
			searcher:    duckduckgo.NewSearch(cfg.WebSearch.Timeout),
			store:       store,
			maxResults:  cfg.WebSearch.MaxResults,
		},
	}
	if cfg.WebSearch.ExaAPIKey != "" {
		capabilities[ToolExaSearch] = &searchCapability{
			name:        ToolExaSearch,
			description: "Neural web search that surfaces company and product pages. Use for competitor research.",
			searcher:    exa.NewSearch(cfg.WebSearch.ExaAPIKey, cfg.WebSearch.Timeout),
			store:       store,
			maxResults:  cfg.WebSearch.MaxResults,
		}
	}
	return capabilities
}
