package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cfwarrior/tgbot/internal/config"
	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/core/ports/secondary"
	"github.com/cfwarrior/tgbot/internal/domain"
	"github.com/cfwarrior/tgbot/internal/static/errs"
	"github.com/cfwarrior/tgbot/internal/utils"
)

const (
	contestsCacheTTL = 5 * time.Minute
	problemsCacheTTL = 10 * time.Minute
	usersCacheTTL    = time.Minute
)

var _ secondary.SubmissionSource = &Client{}

// Client talks to the Codeforces public REST API. Every endpoint answers
// a tagged OK/FAILED envelope which is decoded here, never propagated
// inward as raw maps.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     primary.Logger

	contestsCache *utils.TTLCache[string, []domain.Contest]
	problemsCache *utils.TTLCache[string, []domain.Problem]
	usersCache    *utils.TTLCache[string, domain.User]
}

func NewClient(cfg *config.CodeforcesConfig, logger primary.Logger) *Client {
	return &Client{
		baseURL:       cfg.BaseURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		logger:        logger,
		contestsCache: utils.NewTTLCache[string, []domain.Contest](contestsCacheTTL),
		problemsCache: utils.NewTTLCache[string, []domain.Problem](problemsCacheTTL),
		usersCache:    utils.NewTTLCache[string, domain.User](usersCacheTTL),
	}
}

type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

func (c *Client) request(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", endpoint, err)
	}

	text := string(body)
	contentType := resp.Header.Get("Content-Type")

	if strings.Contains(text, "Codeforces is temporarily unavailable.") {
		return errs.CodeforcesUnavailable
	}
	if strings.Contains(text, "504 Gateway Time-out") && strings.Contains(contentType, "text/html") {
		return fmt.Errorf("504 gateway timeout: %w", errs.CodeforcesUnavailable)
	}
	if !strings.Contains(contentType, "application/json") {
		c.logger.Error("Codeforces sent non-JSON response", "endpoint", endpoint, "body", text)
		return fmt.Errorf("endpoint %s: %w", endpoint, errs.NonJSONResponse)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.logger.Error("Could not read JSON from response", "endpoint", endpoint, "body", text)
		return fmt.Errorf("failed to decode response from %s: %w", endpoint, err)
	}

	if env.Status == "FAILED" {
		switch {
		case strings.Contains(strings.ToLower(env.Comment), "not found"):
			return errs.NotFound
		case strings.Contains(env.Comment, "Rating changes are unavailable"):
			return errs.RatingChangesUnavailable
		default:
			return fmt.Errorf("codeforces: %s", env.Comment)
		}
	}

	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("failed to decode result from %s: %w", endpoint, err)
		}
	}
	return nil
}

// GetStatus fetches the latest count submissions of a handle, most recent
// first.
func (c *Client) GetStatus(ctx context.Context, handle string, count int) ([]domain.Submission, error) {
	params := url.Values{"handle": {handle}}
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}

	var status []domain.Submission
	if err := c.request(ctx, "user.status", params, &status); err != nil {
		return nil, err
	}
	return status, nil
}

// GetContests lists contests of the main problemset, oldest first,
// optionally restricted to the given phases. Served from a short cache,
// contest metadata moves slowly.
func (c *Client) GetContests(ctx context.Context, phases ...domain.ContestPhase) ([]domain.Contest, error) {
	contests, ok := c.contestsCache.Get("contest.list")
	if !ok {
		if err := c.request(ctx, "contest.list", url.Values{"gym": {"false"}}, &contests); err != nil {
			return nil, err
		}
		// Oldest first; the API answers newest first.
		for i, j := 0, len(contests)-1; i < j; i, j = i+1, j-1 {
			contests[i], contests[j] = contests[j], contests[i]
		}
		c.contestsCache.Set("contest.list", contests)
	}

	if len(phases) == 0 {
		return contests, nil
	}
	var filtered []domain.Contest
	for _, contest := range contests {
		for _, phase := range phases {
			if contest.Phase == phase {
				filtered = append(filtered, contest)
				break
			}
		}
	}
	return filtered, nil
}

// GetContest resolves a single contest by id from the cached contest list.
func (c *Client) GetContest(ctx context.Context, contestID int) (*domain.Contest, error) {
	contests, err := c.GetContests(ctx)
	if err != nil {
		return nil, err
	}
	for i := range contests {
		if contests[i].ID == contestID {
			return &contests[i], nil
		}
	}
	return nil, fmt.Errorf("contest %d: %w", contestID, errs.NotFound)
}

// GetRatingChanges fetches official rating changes for a finished contest.
func (c *Client) GetRatingChanges(ctx context.Context, contestID int) ([]domain.RatingChange, error) {
	params := url.Values{"contestId": {strconv.Itoa(contestID)}}

	var changes []domain.RatingChange
	if err := c.request(ctx, "contest.ratingChanges", params, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// GetUser fetches a single user's profile.
func (c *Client) GetUser(ctx context.Context, handle string) (*domain.User, error) {
	if user, ok := c.usersCache.Get(handle); ok {
		return &user, nil
	}

	var users []domain.User
	if err := c.request(ctx, "user.info", url.Values{"handles": {handle}}, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errs.NotFound
	}
	c.usersCache.Set(handle, users[0])
	return &users[0], nil
}

// GetProblems fetches the main problemset.
func (c *Client) GetProblems(ctx context.Context) ([]domain.Problem, error) {
	if problems, ok := c.problemsCache.Get("problemset.problems"); ok {
		return problems, nil
	}

	var result struct {
		Problems []domain.Problem `json:"problems"`
	}
	if err := c.request(ctx, "problemset.problems", nil, &result); err != nil {
		return nil, err
	}

	problems := make([]domain.Problem, 0, len(result.Problems))
	for _, problem := range result.Problems {
		if problem.ProblemsetName == "" {
			problems = append(problems, problem)
		}
	}
	c.problemsCache.Set("problemset.problems", problems)
	return problems, nil
}
