package news

import (
	"testing"
	"time"

	"pairsight/internal/models"
)

var testPairs = []string{"BTCUSDT", "ETHUSDT", "EURUSD", "GBPUSD", "USDJPY"}

func TestRelevantPairsKeywordMatch(t *testing.T) {
	s := NewScorer(testPairs)

	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{"bitcoin article", "Bitcoin rallies above 70k", []string{"BTCUSDT"}},
		{"euro article", "ECB leaves rates unchanged", []string{"EURUSD"}},
		{"yen article", "Bank of Japan intervenes in yen", []string{"USDJPY"}},
		{"irrelevant article", "Local bakery wins award", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(models.NewsArticle{Title: tt.title})
			if len(got.RelevantPairs) != len(tt.want) {
				t.Fatalf("pairs = %v, want %v", got.RelevantPairs, tt.want)
			}
			for i := range tt.want {
				if got.RelevantPairs[i] != tt.want[i] {
					t.Errorf("pairs = %v, want %v", got.RelevantPairs, tt.want)
				}
			}
		})
	}
}

func TestFedNewsTagsAllUSDPairs(t *testing.T) {
	s := NewScorer(testPairs)

	got := s.Score(models.NewsArticle{Title: "Federal Reserve signals rate cut"})
	if len(got.RelevantPairs) != len(testPairs) {
		t.Errorf("expected all USD pairs tagged, got %v", got.RelevantPairs)
	}
}

func TestSentimentBounds(t *testing.T) {
	tests := []struct {
		text string
		sign int
	}{
		{"Bitcoin surges to record high on ETF optimism", 1},
		{"Crypto crash deepens as selloff spreads", -1},
		{"Markets unchanged ahead of data", 0},
	}

	for _, tt := range tests {
		got := Sentiment(tt.text)
		if got < -1 || got > 1 {
			t.Errorf("Sentiment(%q) = %v out of [-1, 1]", tt.text, got)
		}
		switch {
		case tt.sign > 0 && got <= 0:
			t.Errorf("Sentiment(%q) = %v, want positive", tt.text, got)
		case tt.sign < 0 && got >= 0:
			t.Errorf("Sentiment(%q) = %v, want negative", tt.text, got)
		case tt.sign == 0 && got != 0:
			t.Errorf("Sentiment(%q) = %v, want zero", tt.text, got)
		}
	}
}

func TestImpactScoreBounds(t *testing.T) {
	s := NewScorer(testPairs)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	// Fresh, major source, multi-pair, strongly worded: should hit the cap.
	hot := s.Score(models.NewsArticle{
		Title:       "Federal Reserve shock: markets surge then crash after rate decision",
		Source:      "Reuters",
		PublishedAt: now.Add(-10 * time.Minute),
	})
	if hot.ImpactScore > 10 {
		t.Errorf("impact %v exceeds cap", hot.ImpactScore)
	}
	if hot.ImpactScore < 7 {
		t.Errorf("expected high impact for fresh major-source breadth article, got %v", hot.ImpactScore)
	}

	// Irrelevant article scores zero.
	cold := s.Score(models.NewsArticle{Title: "Gardening tips for June", Source: "blog"})
	if cold.ImpactScore != 0 {
		t.Errorf("expected 0 impact for irrelevant article, got %v", cold.ImpactScore)
	}

	// Stale minor-source single-pair article sits at the base.
	base := s.Score(models.NewsArticle{
		Title:       "Ethereum developers schedule next upgrade",
		Source:      "some blog",
		PublishedAt: now.Add(-48 * time.Hour),
	})
	if base.ImpactScore != 3 {
		t.Errorf("expected base impact 3, got %v", base.ImpactScore)
	}
}

func TestScoreAllDropsIrrelevant(t *testing.T) {
	s := NewScorer(testPairs)

	scored := s.ScoreAll([]models.NewsArticle{
		{Title: "Bitcoin rallies"},
		{Title: "Nothing to do with markets"},
		{Title: "Sterling gains against dollar"},
	})
	if len(scored) != 2 {
		t.Fatalf("expected 2 relevant articles, got %d", len(scored))
	}
	for _, a := range scored {
		if len(a.RelevantPairs) == 0 {
			t.Errorf("kept article with no relevant pairs: %q", a.Title)
		}
	}
}
