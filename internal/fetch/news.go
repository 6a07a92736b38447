package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	apperrors "pairsight/internal/errors"
	"pairsight/internal/models"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

// DefaultNewsQuery covers the markets the configured pairs trade in.
const DefaultNewsQuery = "forex OR cryptocurrency OR bitcoin OR ethereum OR \"federal reserve\" OR ECB OR \"interest rates\""

// NewsClient fetches market headlines from NewsAPI. Articles come back raw;
// relevance, sentiment and impact scoring happen in the news package.
type NewsClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	limiter    *RateLimiter
}

// NewNewsClient creates a NewsAPI client.
func NewNewsClient(httpClient *http.Client, apiKey string) *NewsClient {
	return &NewsClient{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    newsAPIBaseURL,
		limiter: NewRateLimiter(map[string]time.Duration{
			"newsapi": 1 * time.Second,
		}),
	}
}

// GetHeadlines returns up to limit recent English-language articles for the
// query, newest first.
func (n *NewsClient) GetHeadlines(ctx context.Context, query string, limit int) ([]models.NewsArticle, error) {
	if n.apiKey == "" {
		return nil, apperrors.Wrap(apperrors.ErrConfigInvalid, "newsapi key not configured")
	}
	if query == "" {
		query = DefaultNewsQuery
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	if err := n.limiter.Wait(ctx, "newsapi"); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/everything?q=%s&language=en&sortBy=publishedAt&pageSize=%d&apiKey=%s",
		n.baseURL, url.QueryEscape(query), limit, n.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "building newsapi request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewFetchError("newsapi", endpoint, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperrors.NewFetchError("newsapi", endpoint, resp.StatusCode, apperrors.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewFetchError("newsapi", endpoint, resp.StatusCode, nil)
	}

	var payload struct {
		Status   string `json:"status"`
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewFetchError("newsapi", endpoint, resp.StatusCode, err)
	}
	if payload.Status != "ok" {
		return nil, apperrors.NewFetchError("newsapi", endpoint, resp.StatusCode, apperrors.ErrDataNotFound)
	}

	articles := make([]models.NewsArticle, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		articles = append(articles, models.NewsArticle{
			Title:       a.Title,
			Description: a.Description,
			Source:      a.Source.Name,
			URL:         a.URL,
			PublishedAt: published.UTC(),
		})
	}
	return articles, nil
}
