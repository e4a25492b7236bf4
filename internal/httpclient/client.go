package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/cesargomez89/resonate/internal/constants"
)

// Client is an http.Client with a request rate limit and retries on network
// errors, 429 and 503.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retries    int
	backoff    time.Duration
}

// New allows perSecond requests per second; a non-positive rate disables the
// limit.
func New(httpClient *http.Client, perSecond float64) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		}
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	return &Client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
		retries:    constants.DefaultRetryCount,
		backoff:    constants.DefaultRetryBase,
	}
}

// Do sends a body-less request, retrying with linear backoff. A Retry-After
// header longer than the backoff wins.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		wait := time.Duration(attempt+1) * c.backoff
		resp, err := c.httpClient.Do(req.WithContext(ctx))
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests:
			if ra := parseRetryAfter(resp); ra > wait {
				wait = ra
			}
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("rate limited (status %d)", resp.StatusCode)
		default:
			return resp, nil
		}

		if attempt == c.retries-1 {
			break
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

// GetBytes fetches url and returns the body. An empty url yields nil.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", constants.UserAgent)

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return buf.Bytes(), nil
}

// parseRetryAfter reads a Retry-After header and returns the duration to wait.
func parseRetryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		return time.Until(t)
	}
	return 0
}
