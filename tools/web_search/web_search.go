package web_search

import (
	"context"

	"github.com/pathanjalisrinivasan/Business-Startup-Advisor/tools/web_search/models"
)

type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.Result, error)
}
