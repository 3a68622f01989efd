package onebusaway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/obatracker-data/internal/common/logger"
	"github.com/obatracker-data/pkg/onebusaway/models"
)

const (
	// requestTimeout bounds every request including the response body read.
	requestTimeout = 10 * time.Second

	// maxAttempts is the total number of tries for a rate-limited request.
	maxAttempts = 4

	userAgent = "obatracker-data/1.0"
)

// Client talks to a OneBusAway REST API instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     logger.Logger

	// retryDelay returns the sleep before retrying attempt n. Tests
	// shorten it.
	retryDelay func(attempt int) time.Duration
}

// NewClient creates a client for the API rooted at baseURL (including the
// /api prefix, without a trailing slash).
func NewClient(baseURL, apiKey string, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		logger: log,
		retryDelay: func(attempt int) time.Duration {
			return time.Duration(math.Pow(3, float64(attempt))) * time.Second
		},
	}
}

// ArrivalsForStop fetches the upcoming arrivals and departures for one
// stop together with the situations the payload references.
func (c *Client) ArrivalsForStop(ctx context.Context, stopID string) (*models.StopSnapshot, error) {
	var resp models.ArrivalsResponse
	if err := c.get(ctx, "/where/arrivals-and-departures-for-stop/"+url.PathEscape(stopID), &resp); err != nil {
		return nil, fmt.Errorf("fetching arrivals for stop %s: %w", stopID, err)
	}

	snapshot := &models.StopSnapshot{
		StopID:      resp.Data.Entry.StopID,
		CurrentTime: resp.CurrentTime,
		Arrivals:    resp.Data.Entry.ArrivalsAndDepartures,
		Situations:  resp.Data.References.Situations,
	}
	if snapshot.StopID == "" {
		snapshot.StopID = stopID
	}
	return snapshot, nil
}

// StopDetail fetches the static details of one stop.
func (c *Client) StopDetail(ctx context.Context, stopID string) (*models.Stop, error) {
	var resp models.StopResponse
	if err := c.get(ctx, "/where/stop/"+url.PathEscape(stopID), &resp); err != nil {
		return nil, fmt.Errorf("fetching stop %s: %w", stopID, err)
	}

	stop := resp.Data.Entry
	if stop.ID == "" {
		stop.ID = stopID
	}
	return &stop, nil
}

// get performs a GET against path, retrying rate-limited responses with an
// exponential backoff until maxAttempts is spent.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	requestURL := fmt.Sprintf("%s%s.json?key=%s", c.baseURL, path, url.QueryEscape(c.apiKey))

	for attempt := 1; ; attempt++ {
		err := c.doRequest(ctx, requestURL, out)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errRateLimited) {
			return err
		}
		if attempt >= maxAttempts {
			return fmt.Errorf("%w: rate limited after %d attempts", ErrCommunication, attempt)
		}

		delay := c.retryDelay(attempt)
		c.logger.Warn("Rate limited by API, backing off",
			"path", path,
			"attempt", attempt,
			"delay", delay.String())

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrCommunication, ctx.Err())
		case <-time.After(delay):
		}
	}
}

func (c *Client) doRequest(ctx context.Context, requestURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCommunication, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w (HTTP %d)", ErrAuthentication, resp.StatusCode)
	case http.StatusTooManyRequests:
		return errRateLimited
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
