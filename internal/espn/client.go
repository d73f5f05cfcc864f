package espn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultSiteBaseURL = "https://site.api.espn.com/apis/site/v2/sports"
	defaultCoreBaseURL = "https://sports.core.api.espn.com"
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 3
	defaultBackoff     = time.Second
	maxBackoff         = 10 * time.Second

	userAgent = "Mozilla/5.0 (compatible; PressboxBot/1.0)"
)

// Config controls Client behavior. Zero values fall back to defaults.
type Config struct {
	SiteBaseURL string
	CoreBaseURL string
	Timeout     time.Duration
	MaxRetries  int
	Backoff     time.Duration
	HTTPClient  *http.Client
}

// Client fetches sports data from the public ESPN APIs. Transient
// failures (timeouts, transport errors, 5xx) are retried with
// exponential backoff; 4xx responses fail immediately.
type Client struct {
	siteBaseURL string
	coreBaseURL string
	maxRetries  int
	backoff     time.Duration
	httpClient  *http.Client
}

// NewClient creates an ESPN API client.
func NewClient(cfg Config) *Client {
	if cfg.SiteBaseURL == "" {
		cfg.SiteBaseURL = defaultSiteBaseURL
	}
	if cfg.CoreBaseURL == "" {
		cfg.CoreBaseURL = defaultCoreBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Backoff == 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		siteBaseURL: cfg.SiteBaseURL,
		coreBaseURL: cfg.CoreBaseURL,
		maxRetries:  cfg.MaxRetries,
		backoff:     cfg.Backoff,
		httpClient:  cfg.HTTPClient,
	}
}

// Teams fetches the team directory for a league. ESPN truncates the
// list without an explicit limit.
func (c *Client) Teams(ctx context.Context, sport, league string) (*TeamsResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/teams", c.siteBaseURL, sport, league)
	params := url.Values{"limit": {"100"}}

	var out TeamsResponse
	if err := c.getJSON(ctx, endpoint, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Scoreboard fetches the scoreboard for a league. A zero date means
// ESPN's view of today.
func (c *Client) Scoreboard(ctx context.Context, sport, league string, date time.Time) (*Scoreboard, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/scoreboard", c.siteBaseURL, sport, league)

	var params url.Values
	if !date.IsZero() {
		params = url.Values{"dates": {date.Format("20060102")}}
	}

	var out Scoreboard
	if err := c.getJSON(ctx, endpoint, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TeamRoster fetches the current roster for a team.
func (c *Client) TeamRoster(ctx context.Context, sport, league, teamID string) (*RosterResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/teams/%s/roster", c.siteBaseURL, sport, league, teamID)

	var out RosterResponse
	if err := c.getJSON(ctx, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EventSummary fetches the summary for a single event.
func (c *Client) EventSummary(ctx context.Context, sport, league, eventID string) (*EventSummary, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/summary", c.siteBaseURL, sport, league)
	params := url.Values{"event": {eventID}}

	var out EventSummary
	if err := c.getJSON(ctx, endpoint, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LeagueInfo fetches league metadata from the core API.
func (c *Client) LeagueInfo(ctx context.Context, sport, league string) (*LeagueInfo, error) {
	endpoint := fmt.Sprintf("%s/v2/sports/%s/leagues/%s", c.coreBaseURL, sport, league)

	var out LeagueInfo
	if err := c.getJSON(ctx, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getJSON performs a GET with the retry policy and decodes the response
// body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay(attempt)):
			}
		}

		err := c.do(ctx, endpoint, out)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
	}

	return lastErr
}

func (c *Client) do(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("GET %s: %w", endpoint, ErrTimeout)
		}
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// retryDelay doubles per attempt from the configured base, capped at
// maxBackoff.
func (c *Client) retryDelay(attempt int) time.Duration {
	delay := c.backoff << (attempt - 1)
	if delay > maxBackoff {
		return maxBackoff
	}
	return delay
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func retryable(err error) bool {
	if errors.Is(err, ErrTimeout) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
