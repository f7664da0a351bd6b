package clist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cfwarrior/tgbot/internal/config"
	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/domain"
	"github.com/cfwarrior/tgbot/internal/static/errs"
)

const clistTimeLayout = "2006-01-02T15:04:05"

// Contests further than this out are noise.
const upcomingHorizon = 14 * 24 * time.Hour

var _ secondary.ContestCalendar = &Client{}

// Client talks to the clist.by v2 API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     primary.Logger
}

func NewClient(cfg *config.ClistConfig, logger primary.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type contestObject struct {
	Event    string `json:"event"`
	Href     string `json:"href"`
	Resource string `json:"resource"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

func (c *Client) request(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "ApiKey "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		c.logger.Error("Clist sent non-JSON response", "endpoint", endpoint, "body", string(body))
		return fmt.Errorf("endpoint %s: %w", endpoint, errs.NonJSONResponse)
	}

	var data struct {
		Objects json.RawMessage `json:"objects"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error("Could not read JSON from response", "endpoint", endpoint, "body", string(body))
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}
	if err := json.Unmarshal(data.Objects, out); err != nil {
		return fmt.Errorf("failed to decode objects from %s: %w", endpoint, err)
	}
	return nil
}

// GetUpcomingContests lists upcoming contests on whitelisted platforms
// within the next two weeks, soonest first.
func (c *Client) GetUpcomingContests(ctx context.Context) ([]domain.UpcomingContest, error) {
	resources := make([]string, 0, len(domain.Resources))
	for resource := range domain.Resources {
		resources = append(resources, resource)
	}
	sort.Strings(resources)

	params := url.Values{
		"upcoming": {"true"},
		"resource": {strings.Join(resources, ",")},
	}

	var objects []contestObject
	if err := c.request(ctx, "contest", params, &objects); err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(upcomingHorizon)
	contests := make([]domain.UpcomingContest, 0, len(objects))
	for _, object := range objects {
		start, err := time.ParseInLocation(clistTimeLayout, object.Start, time.UTC)
		if err != nil {
			c.logger.Warn("Skipping contest with bad start time", "event", object.Event, "start", object.Start)
			continue
		}
		end, err := time.ParseInLocation(clistTimeLayout, object.End, time.UTC)
		if err != nil {
			c.logger.Warn("Skipping contest with bad end time", "event", object.Event, "end", object.End)
			continue
		}
		if start.After(cutoff) {
			continue
		}
		contests = append(contests, domain.UpcomingContest{
			Event:    object.Event,
			Href:     object.Href,
			Resource: object.Resource,
			Start:    start,
			End:      end,
		})
	}

	sort.Slice(contests, func(i, j int) bool {
		if !contests[i].Start.Equal(contests[j].Start) {
			return contests[i].Start.Before(contests[j].Start)
		}
		return contests[i].End.Before(contests[j].End)
	})
	return contests, nil
}
