package predictor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/cfwarrior/tgbot/internal/config"
	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/domain"
	"github.com/cfwarrior/tgbot/internal/utils"
)

const cacheTTL = time.Minute

var _ secondary.DeltaPredictor = &Scraper{}

// Scraper pulls predicted rating changes from the third-party round
// results page. The page is a plain HTML table, parsed by streaming the
// body through a tokenizer rather than buffering the whole report.
//
// A single mutex serializes fetch+cache so duplicate concurrent requests
// for the same contest collapse into one upstream call.
type Scraper struct {
	pageURL    string
	httpClient *http.Client
	logger     primary.Logger

	mu    sync.Mutex
	cache *utils.TTLCache[int, map[string]domain.PredictedDelta]
}

func NewScraper(cfg *config.PredictorConfig, logger primary.Logger) *Scraper {
	return &Scraper{
		pageURL:    cfg.URL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		cache:      utils.NewTTLCache[int, map[string]domain.PredictedDelta](cacheTTL),
	}
}

// PredictedDeltas returns the prediction table for a contest keyed by
// handle, served from cache within the TTL.
func (s *Scraper) PredictedDeltas(ctx context.Context, contestID int) (map[string]domain.PredictedDelta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deltas, ok := s.cache.Get(contestID); ok {
		return deltas, nil
	}

	reqURL := s.pageURL + "?" + url.Values{"contestId": {strconv.Itoa(contestID)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predictor fetch failed: %w", err)
	}
	defer resp.Body.Close()

	deltas, err := parseResultsTable(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse predictor page: %w", err)
	}

	s.cache.Set(contestID, deltas)
	return deltas, nil
}

// parseResultsTable accumulates tbody rows of the form
// (rank, handle, delta, ...), keyed by handle.
func parseResultsTable(body io.Reader) (map[string]domain.PredictedDelta, error) {
	tokenizer := html.NewTokenizer(body)
	deltas := make(map[string]domain.PredictedDelta)

	var (
		inBody  bool
		inCell  bool
		row     []string
		content strings.Builder
	)

	flushRow := func() {
		if len(row) < 3 {
			return
		}
		rank, err := strconv.Atoi(row[0])
		if err != nil {
			return
		}
		change := row[2]
		if !strings.HasPrefix(change, "-") && !strings.HasPrefix(change, "+") {
			change = "+" + change
		}
		deltas[row[1]] = domain.PredictedDelta{
			Rank:   rank,
			Handle: row[1],
			Delta:  change,
		}
	}

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			if errors.Is(tokenizer.Err(), io.EOF) {
				return deltas, nil
			}
			return nil, tokenizer.Err()
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "tbody":
				inBody = true
			case "tr":
				row = row[:0]
			case "td":
				inCell = true
				content.Reset()
			}
		case html.TextToken:
			if inBody && inCell {
				content.Write(tokenizer.Text())
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch string(name) {
			case "td":
				if inBody && inCell {
					row = append(row, strings.TrimSpace(content.String()))
				}
				inCell = false
			case "tr":
				if inBody {
					flushRow()
				}
			case "tbody":
				inBody = false
			}
		}
	}
}
