// Package news scores raw headlines for pair relevance, sentiment and
// market impact. Scoring is keyword-driven; there is no model behind it.
package news

import (
	"strings"
	"time"

	"pairsight/internal/models"
)

// pairKeywords maps each supported pair to the terms that make an article
// relevant to it. Matching is case-insensitive over title and description.
var pairKeywords = map[string][]string{
	"BTCUSDT":  {"bitcoin", "btc", "crypto", "cryptocurrency"},
	"ETHUSDT":  {"ethereum", "eth", "ether"},
	"ETCUSDT":  {"ethereum classic", "etc"},
	"SOLUSDT":  {"solana", "sol"},
	"DOGEUSDT": {"dogecoin", "doge"},
	"EURUSD":   {"euro", "eur", "ecb", "european central bank", "eurozone"},
	"GBPUSD":   {"pound", "sterling", "gbp", "bank of england", "boe"},
	"USDJPY":   {"yen", "jpy", "bank of japan", "boj"},
	"GBPJPY":   {"pound", "sterling", "yen", "jpy"},
	"AUDUSD":   {"australian dollar", "aud", "rba", "reserve bank of australia"},
	"USDCAD":   {"canadian dollar", "cad", "loonie", "bank of canada"},
}

// usdKeywords tag every USD-quoted pair when dollar-wide news breaks.
var usdKeywords = []string{"federal reserve", "fed ", "fomc", "us dollar", "interest rate decision"}

var positiveWords = []string{
	"surge", "surges", "rally", "rallies", "gain", "gains", "rise", "rises",
	"soar", "soars", "jump", "jumps", "bullish", "record high", "breakout",
	"optimism", "upbeat", "strong", "growth", "recovery", "boost", "beats",
}

var negativeWords = []string{
	"crash", "crashes", "plunge", "plunges", "fall", "falls", "drop", "drops",
	"slump", "slumps", "tumble", "tumbles", "bearish", "selloff", "sell-off",
	"fear", "fears", "weak", "recession", "decline", "losses", "misses", "warning",
}

// majorSources get an impact boost; moves reported there move markets.
var majorSources = map[string]bool{
	"reuters":         true,
	"bloomberg":       true,
	"financial times": true,
	"cnbc":            true,
	"the wall street journal": true,
	"coindesk":        true,
}

// Scorer annotates articles against a configured pair universe.
type Scorer struct {
	pairs []string
	now   func() time.Time
}

// NewScorer creates a scorer for the given pair universe.
func NewScorer(pairs []string) *Scorer {
	return &Scorer{pairs: pairs, now: time.Now}
}

// Score fills in RelevantPairs, Sentiment and ImpactScore on the article.
// Articles relevant to no configured pair come back with an empty pair list
// and zero impact.
func (s *Scorer) Score(article models.NewsArticle) models.NewsArticle {
	text := strings.ToLower(article.Title + " " + article.Description)

	article.RelevantPairs = s.relevantPairs(text)
	article.Sentiment = Sentiment(text)
	article.ImpactScore = s.impact(article, text)
	return article
}

// ScoreAll scores a batch and drops articles relevant to no pair.
func (s *Scorer) ScoreAll(articles []models.NewsArticle) []models.NewsArticle {
	scored := make([]models.NewsArticle, 0, len(articles))
	for _, a := range articles {
		a = s.Score(a)
		if len(a.RelevantPairs) == 0 {
			continue
		}
		scored = append(scored, a)
	}
	return scored
}

func (s *Scorer) relevantPairs(text string) []string {
	var relevant []string

	usdWide := containsAny(text, usdKeywords)
	for _, pair := range s.pairs {
		if usdWide && strings.Contains(pair, "USD") {
			relevant = append(relevant, pair)
			continue
		}
		if containsAny(text, pairKeywords[pair]) {
			relevant = append(relevant, pair)
		}
	}
	return relevant
}

// Sentiment returns a keyword-lexicon score in [-1, 1]. Zero means neutral
// or no signal either way.
func Sentiment(text string) float64 {
	text = strings.ToLower(text)

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(text, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(text, w) {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

// impact scores 0-10: base 3 for any relevant article, boosted by source
// reputation, recency and how many pairs it touches.
func (s *Scorer) impact(article models.NewsArticle, text string) float64 {
	if len(article.RelevantPairs) == 0 {
		return 0
	}

	score := 3.0

	if majorSources[strings.ToLower(article.Source)] {
		score += 2.0
	}

	if !article.PublishedAt.IsZero() {
		age := s.now().Sub(article.PublishedAt)
		switch {
		case age < time.Hour:
			score += 2.0
		case age < 6*time.Hour:
			score += 1.0
		}
	}

	// Breadth: news touching several pairs moves more of the book.
	if n := len(article.RelevantPairs); n >= 3 {
		score += 2.0
	} else if n == 2 {
		score += 1.0
	}

	// Strong sentiment in either direction reads as higher impact.
	if sent := Sentiment(text); sent > 0.5 || sent < -0.5 {
		score += 1.0
	}

	if score > 10 {
		score = 10
	}
	return score
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
