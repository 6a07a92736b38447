package models

import "time"

// NewsArticle is a market news item scored for pair relevance and impact.
type NewsArticle struct {
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Source        string    `json:"source"`
	URL           string    `json:"url,omitempty"`
	PublishedAt   time.Time `json:"published_at"`
	Sentiment     float64   `json:"sentiment"`
	RelevantPairs []string  `json:"relevant_pairs"`
	ImpactScore   float64   `json:"impact_score"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}
