package coolrom

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coolromdl/pkg/config"
	"coolromdl/pkg/errors"
	"coolromdl/pkg/logger"
	"coolromdl/pkg/ratelimit"
)

// Client talks to the catalog site. Every request carries the configured
// User-Agent; the remote host rejects default or empty agents.
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	baseURL     string
	pageTimeout time.Duration
	limiter     ratelimit.Limiter
	logger      logger.Logger
}

// NewClient creates a new catalog client
func NewClient(cfg config.CatalogConfig, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	userAgent := cfg.UserAgent
	if strings.TrimSpace(userAgent) == "" {
		userAgent = config.DefaultUserAgent
	}
	pageTimeout := cfg.PageTimeout
	if pageTimeout <= 0 {
		pageTimeout = config.DefaultPageTimeout
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		headers: map[string]string{
			"User-Agent": userAgent,
			// Content-Length must reach the fetcher untouched, so the
			// transport may not negotiate transparent gzip.
			"Accept-Encoding": "identity",
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		pageTimeout: pageTimeout,
		limiter:     limiter,
		logger:      log,
	}
}

// BaseURL returns the site root without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// classify maps a transport failure to a typed error. Only a cancelled
// context is a cancellation; an expired page deadline is a network failure.
func classify(ctx context.Context, err error, url string) error {
	if stderrors.Is(ctx.Err(), context.Canceled) || stderrors.Is(err, context.Canceled) {
		return errors.Wrap(errors.ErrorTypeCancelled, err, "request to %s cancelled", url)
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrorTypeNetwork, err, "request to %s timed out", url)
	}
	return errors.Wrap(errors.ErrorTypeNetwork, err, "request to %s failed", url)
}

// wait blocks until the rate limiter admits one more request
func (c *Client) wait(ctx context.Context, url string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return classify(ctx, err, url)
	}
	return nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, classify(ctx, err, req.URL.String())
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, float64(duration.Microseconds())/1000)
	return resp, nil
}

// checkResponseStatus turns non-success statuses into network errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &errors.Error{
		Type:    errors.ErrorTypeNetwork,
		Message: fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, resp.Request.URL),
		Code:    resp.StatusCode,
	}
}

// Open issues a GET and returns the response with a successful status.
// The caller owns the body. An empty referer sends no Referer header.
// No deadline applies beyond ctx, so long binary streams are never cut off.
func (c *Client) Open(ctx context.Context, url, referer string) (*http.Response, error) {
	if err := c.wait(ctx, url); err != nil {
		return nil, err
	}
	return c.send(ctx, url, referer)
}

func (c *Client) send(ctx context.Context, url, referer string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "failed to create request")
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := c.checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// GetPage fetches url and returns the body as text. The request and the
// body read share a deadline of the configured page timeout; time spent
// waiting on the rate limiter does not count against it.
func (c *Client) GetPage(ctx context.Context, url, referer string) (string, error) {
	if err := c.wait(ctx, url); err != nil {
		return "", err
	}

	pageCtx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	resp, err := c.send(pageCtx, url, referer)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(pageCtx, err, url)
	}
	return string(body), nil
}
