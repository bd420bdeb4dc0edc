package instagram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"igcomments/pkg/config"
	errs "igcomments/pkg/errors"
	"igcomments/pkg/logger"
)

// maxBodyPreview bounds the response text copied into parse error logs
const maxBodyPreview = 200

// Client represents an Instagram web API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	sessionID  string
	csrfToken  string
	logger     logger.Logger
}

// NewClient creates a new Instagram API client
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
			"Accept":           "*/*",
			"Accept-Language":  "en-US,en;q=0.9",
			"Cache-Control":    "no-cache",
			"Pragma":           "no-cache",
			"Sec-Fetch-Dest":   "empty",
			"Sec-Fetch-Mode":   "cors",
			"Sec-Fetch-Site":   "same-origin",
			"X-Requested-With": "XMLHttpRequest",
		},
		baseURL: BaseURL,
		logger:  log,
	}
}

// NewClientFromConfig creates a client with the session, user agent, app id
// and base URL from cfg
func NewClientFromConfig(cfg config.InstagramConfig, log logger.Logger) *Client {
	c := NewClient(cfg.Timeout, log)
	if cfg.UserAgent != "" {
		c.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.AppID != "" {
		c.SetHeader("X-IG-App-ID", cfg.AppID)
	}
	if cfg.BaseURL != "" {
		c.SetBaseURL(cfg.BaseURL)
	}
	c.SetSession(cfg.SessionID, cfg.CSRFToken)
	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Headers returns a copy of the headers sent with every request, including
// the session cookie
func (c *Client) Headers() map[string]string {
	out := make(map[string]string, len(c.headers)+2)
	for k, v := range c.headers {
		out[k] = v
	}
	if cookie := c.cookieHeader(); cookie != "" {
		out["Cookie"] = cookie
	}
	if c.csrfToken != "" {
		out["X-CSRFToken"] = c.csrfToken
	}
	return out
}

// SetBaseURL points the client at a different host
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SetSession sets the logged-in session used for authenticated endpoints
func (c *Client) SetSession(sessionID, csrfToken string) {
	c.sessionID = sessionID
	c.csrfToken = csrfToken
}

// HasSession reports whether a session id is configured
func (c *Client) HasSession() bool {
	return c.sessionID != ""
}

func (c *Client) cookieHeader() string {
	var parts []string
	if c.sessionID != "" {
		parts = append(parts, "sessionid="+c.sessionID)
	}
	if c.csrfToken != "" {
		parts = append(parts, "csrftoken="+c.csrfToken)
	}
	return strings.Join(parts, "; ")
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.Headers() {
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
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "request failed")
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// Get performs a GET request to the specified URL and checks its status
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: "failed to read response body",
			Code:    resp.StatusCode,
			Err:     err,
		}
	}
	return body, nil
}

// checkResponseStatus maps non-2xx responses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	fields := map[string]interface{}{
		"status": resp.StatusCode,
		"url":    resp.Request.URL.String(),
	}

	errType := errs.FromStatusCode(resp.StatusCode)
	e := &errs.Error{Type: errType, Code: resp.StatusCode}

	switch errType {
	case errs.ErrorTypeAuth:
		c.logger.WarnWithFields("authentication error", fields)
		e.Message = "authentication required; refresh the session id and csrf token"
	case errs.ErrorTypeNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		e.Message = "post not found"
	case errs.ErrorTypeRateLimit:
		e.Message = "rate limit exceeded"
		e.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		logger.LogRateLimit(c.logger, resp.Request.URL.Path, e.RetryAfter)
	case errs.ErrorTypeServerError:
		c.logger.ErrorWithFields("server error", fields)
		e.Message = "server error"
	default:
		c.logger.ErrorWithFields("unexpected API error", fields)
		e.Message = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	}
	return e
}

// parseRetryAfter reads a Retry-After header given in seconds
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// FetchComments fetches one page of a post's parent comments, starting after
// the given cursor ("" for the first page)
func (c *Client) FetchComments(ctx context.Context, shortcode, after string, limit int) (*CommentPage, error) {
	url := GetCommentsURL(c.baseURL, shortcode, after, limit)

	c.logger.DebugWithFields("fetching comments", map[string]interface{}{
		"shortcode": shortcode,
		"after":     after,
	})

	body, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	page, err := ParseResponse(body)
	if err != nil {
		if errs.Is(err, errs.ErrorTypeParsing) {
			preview := string(body)
			if len(preview) > maxBodyPreview {
				preview = preview[:maxBodyPreview] + "..."
			}
			c.logger.ErrorWithFields("failed to parse comments response", map[string]interface{}{
				"shortcode":    shortcode,
				"error":        err.Error(),
				"body_preview": preview,
			})
		}
		return nil, err
	}

	if page.Dropped > 0 {
		c.logger.DebugWithFields("dropped incomplete comment nodes", map[string]interface{}{
			"shortcode": shortcode,
			"dropped":   page.Dropped,
		})
	}

	c.logger.DebugWithFields("fetched comments page", map[string]interface{}{
		"shortcode":     shortcode,
		"records":       len(page.Records),
		"has_next_page": page.HasNextPage,
	})
	return page, nil
}
