package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/config"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/cache/inmemory"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/web_search/models"
)

type countingSearcher struct {
	calls   int
	results []models.Result
	err     error
}

func (s *countingSearcher) Search(_ context.Context, _ string, _ int) ([]models.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func TestSearchCapabilityCachesResults(t *testing.T) {
	searcher := &countingSearcher{
		results: []models.Result{{Title: "Report", URL: "https://example.com", Snippet: "market data"}},
	}
	capability := &searchCapability{
		name:       ToolWebSearch,
		searcher:   searcher,
		store:      inmemory.NewStore(time.Minute),
		maxResults: 5,
	}

	first, err := capability.Invoke(context.Background(), "meal prep market")
	if err != nil {
		t.Fatalf("First invoke failed: %v", err)
	}
	if first.CacheHit {
		t.Error("First invocation must miss the cache")
	}

	second, err := capability.Invoke(context.Background(), "meal prep market")
	if err != nil {
		t.Fatalf("Second invoke failed: %v", err)
	}
	if !second.CacheHit {
		t.Error("Second identical invocation must hit the cache")
	}
	if second.Text != first.Text {
		t.Errorf("Cached text differs: %q vs %q", second.Text, first.Text)
	}
	if searcher.calls != 1 {
		t.Errorf("Expected 1 external search, got %d", searcher.calls)
	}
}

func TestSearchCapabilityDistinctQueries(t *testing.T) {
	searcher := &countingSearcher{results: []models.Result{{Title: "Report"}}}
	capability := &searchCapability{
		name:       ToolWebSearch,
		searcher:   searcher,
		store:      inmemory.NewStore(time.Minute),
		maxResults: 5,
	}

	if _, err := capability.Invoke(context.Background(), "query one"); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if _, err := capability.Invoke(context.Background(), "query two"); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if searcher.calls != 2 {
		t.Errorf("Expected 2 external searches for distinct queries, got %d", searcher.calls)
	}
}

func TestSearchCapabilityPropagatesErrors(t *testing.T) {
	searcher := &countingSearcher{err: fmt.Errorf("timeout")}
	capability := &searchCapability{
		name:       ToolWebSearch,
		searcher:   searcher,
		store:      inmemory.NewStore(time.Minute),
		maxResults: 5,
	}

	if _, err := capability.Invoke(context.Background(), "anything"); err == nil {
		t.Fatal("Expected the search error propagated")
	}
}

func TestSearchCapabilityEmptyResults(t *testing.T) {
	searcher := &countingSearcher{}
	capability := &searchCapability{name: ToolWebSearch, searcher: searcher, maxResults: 5}

	result, err := capability.Invoke(context.Background(), "obscure query")
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if result.Text != "No results found." {
		t.Errorf("Expected the empty-results message, got %q", result.Text)
	}
}

func TestNewToolCapabilitiesExaRequiresKey(t *testing.T) {
	withoutKey := NewToolCapabilities(config.ToolsConfig{
		WebSearch: config.WebSearchConfig{MaxResults: 5, Timeout: time.Second},
	}, nil)
	if _, ok := withoutKey[ToolExaSearch]; ok {
		t.Error("Exa tool must not be registered without an API key")
	}
	if _, ok := withoutKey[ToolWebSearch]; !ok {
		t.Error("Web search must always be registered")
	}

	withKey := NewToolCapabilities(config.ToolsConfig{
		WebSearch: config.WebSearchConfig{ExaAPIKey: "key", MaxResults: 5, Timeout: time.Second},
	}, nil)
	if _, ok := withKey[ToolExaSearch]; !ok {
		t.Error("Exa tool must be registered when a key is configured")
	}
}
