package scorers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/moonwatch/backend/pkg/httputil"
	"github.com/moonwatch/backend/pkg/logger"
)

// HeadlineScorer is a sentiment fallback that scrapes recent headlines for a
// ticker and scores them with a keyword lexicon. Used when no external
// sentiment service is configured; deliberately crude but deterministic.
type HeadlineScorer struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewHeadlineScorer creates a headline-based sentiment scorer.
func NewHeadlineScorer(httpClient *httputil.Client, log *logger.Logger, baseURL string) *HeadlineScorer {
	return &HeadlineScorer{
		httpClient: httpClient,
		logger:     log.WithField("scorer", "headline"),
		baseURL:    baseURL,
	}
}

var bullishWords = []string{
	"surge", "rally", "beat", "upgrade", "record", "soar", "jump", "buyback", "growth",
}

var bearishWords = []string{
	"plunge", "miss", "downgrade", "lawsuit", "recall", "slump", "drop", "cut", "probe",
}

// Score fetches the headline page for the ticker and returns the average
// per-headline lexicon score in [-1, 1].
func (s *HeadlineScorer) Score(ctx context.Context, ticker string, window time.Duration) (float64, error) {
	fullURL := fmt.Sprintf("%s/news/%s", s.baseURL, strings.ToLower(ticker))

	resp, err := s.httpClient.Get(ctx, fullURL)
	if err != nil {
		return 0, fmt.Errorf("%w: headline fetch for %s: %v", ErrScoreUnavailable, ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: headline page status %d", ErrScoreUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: headline parse: %v", ErrScoreUnavailable, err)
	}

	var headlines []string
	doc.Find("a.headline, h3.headline, .news-item .title").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			headlines = append(headlines, text)
		}
	})

	if len(headlines) == 0 {
		return 0, fmt.Errorf("%w: no headlines for %s", ErrScoreUnavailable, ticker)
	}

	var total float64
	for _, h := range headlines {
		total += scoreHeadline(h)
	}
	score := total / float64(len(headlines))

	s.logger.WithFields(map[string]interface{}{
		"ticker":    ticker,
		"headlines": len(headlines),
		"score":     score,
	}).Debug("headline sentiment scored")

	return score, nil
}

// scoreHeadline returns +1, -1 or 0 depending on lexicon hits. Mixed
// headlines cancel out.
func scoreHeadline(headline string) float64 {
	lower := strings.ToLower(headline)
	var score float64
	for _, w := range bullishWords {
		if strings.Contains(lower, w) {
			score++
			break
		}
	}
	for _, w := range bearishWords {
		if strings.Contains(lower, w) {
			score--
			break
		}
	}
	return score
}
