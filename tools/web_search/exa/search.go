package exa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/web_search/models"
)

const endpoint = "https://api.exa.ai/search"

// Search queries the Exa neural search API. Exa surfaces company and product
// pages well, which suits competitor lookups.
type Search struct {
	apiKey string
	client *http.Client
}

func NewSearch(apiKey string, timeout time.Duration) *Search {
	return &Search{apiKey: apiKey, client: &http.Client{Timeout: timeout}}
}

type request struct {
	Query      string   `json:"query"`
	NumResults int      `json:"numResults"`
	Contents   contents `json:"contents"`
}

type contents struct {
	Text bool `json:"text"`
}

type response struct {
	Results []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Text  string `json:"text"`
	} `json:"results"`
}

func (s *Search) Search(ctx context.Context, query string, maxResults int) ([]models.Result, error) {
	body, err := json.Marshal(request{Query: query, NumResults: maxResults, Contents: contents{Text: true}})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying exa: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("exa returned %d: %s", resp.StatusCode, string(raw))
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding exa response: %w", err)
	}

	results := make([]models.Result, 0, len(payload.Results))
	for _, r := range payload.Results {
		snippet := r.Text
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		results = append(results, models.Result{Title: r.Title, URL: r.URL, Snippet: snippet})
	}
	return results, nil
}
