package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/web_search/models"
	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/utils"
)

const endpoint = "https://api.duckduckgo.com/"

// Search queries the DuckDuckGo instant answer API. It needs no API key,
// which makes it the default searcher when no provider keys are configured.
type Search struct {
	client *http.Client
}

func NewSearch(timeout time.Duration) *Search {
	return &Search{client: &http.Client{Timeout: timeout}}
}

type response struct {
	Heading       string `json:"Heading"`
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (s *Search) Search(ctx context.Context, query string, maxResults int) ([]models.Result, error) {
	url := fmt.Sprintf("%s?q=%s&format=json&no_html=1&skip_disambig=1", endpoint, utils.UrlQuery(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying duckduckgo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("duckduckgo returned %d: %s", resp.StatusCode, string(body))
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding duckduckgo response: %w", err)
	}

	var results []models.Result
	if payload.AbstractText != "" {
		results = append(results, models.Result{
			Title:   payload.Heading,
			URL:     payload.AbstractURL,
			Snippet: payload.AbstractText,
		})
	}
	for _, topic := range payload.RelatedTopics {
		if len(results) >= maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, models.Result{
			Title:   topic.Text,
			URL:     topic.FirstURL,
			Snippet: topic.Text,
		})
	}
	return results, nil
}
