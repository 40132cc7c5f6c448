package flickr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"photonotes/pkg/callcache"
	apperrors "photonotes/pkg/errors"
	"photonotes/pkg/logger"
	"photonotes/pkg/ratelimit"
)

// Client is a Flickr REST API client. Every REST call flows through the
// run cache and the rate limiter: a cached response costs nothing, a
// miss waits for limiter capacity before going out. When a session is
// installed, calls are signed with OAuth 1.0a so non-public data
// becomes visible.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	apiKey     string
	apiSecret  string

	oauthToken       string
	oauthTokenSecret string

	requestTokenURL string
	authorizeURL    string
	accessTokenURL  string

	limiter ratelimit.Limiter
	cache   *callcache.Cache
	logger  logger.Logger
}

// NewClient creates a Flickr API client with a fresh run cache and the
// default hourly rate limit
func NewClient(apiKey, apiSecret string, timeout time.Duration, log logger.Logger) *Client {
	// Use default logger if none provided
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient:      &http.Client{Timeout: timeout},
		baseURL:         BaseURL,
		userAgent:       "photonotes/1.0",
		apiKey:          apiKey,
		apiSecret:       apiSecret,
		requestTokenURL: requestTokenURL,
		authorizeURL:    authorizeURL,
		accessTokenURL:  accessTokenURL,
		limiter:         ratelimit.NewSlidingWindow(DefaultCallsPerHour, time.Hour),
		cache:           callcache.New(),
		logger:          log,
	}
}

// SetBaseURL overrides the REST endpoint, mainly for tests
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// SetLimiter replaces the rate limiter
func (c *Client) SetLimiter(limiter ratelimit.Limiter) {
	c.limiter = limiter
}

// SetCache replaces the run cache
func (c *Client) SetCache(cache *callcache.Cache) {
	c.cache = cache
}

// Cache returns the run cache, read at the end of a run for the
// hit/miss report
func (c *Client) Cache() *callcache.Cache {
	return c.cache
}

// SetSession installs OAuth session credentials. Subsequent API calls
// are signed with them.
func (c *Client) SetSession(token, tokenSecret string) {
	c.oauthToken = token
	c.oauthTokenSecret = tokenSecret
}

// HasSession reports whether OAuth session credentials are installed
func (c *Client) HasSession() bool {
	return c.oauthToken != ""
}

// Call performs a Flickr REST method call and returns the raw JSON body.
// The run cache is consulted first; only a miss consumes rate-limiter
// capacity and goes over the wire.
func (c *Client) Call(ctx context.Context, method string, params url.Values) ([]byte, error) {
	merged := url.Values{}
	for name, values := range params {
		merged[name] = values
	}

	key := callcache.Key(method, merged)
	if body, ok := c.cache.Get(key); ok {
		logger.LogAPICall(c.logger, method, true, nil)
		return body, nil
	}

	waited := time.Now()
	c.limiter.Wait()
	if wait := time.Since(waited); wait >= time.Second {
		logger.LogRateLimit(c.logger, method, wait)
	}

	merged.Set("method", method)
	merged.Set("format", "json")
	merged.Set("nojsoncallback", "1")
	merged.Set("api_key", c.apiKey)
	if c.oauthToken != "" {
		c.sign(c.baseURL, merged)
	}

	body, err := c.fetch(ctx, c.baseURL+"?"+merged.Encode())
	if err != nil {
		return nil, err
	}

	if err := checkFail(method, body); err != nil {
		retryable := apperrors.IsRetryable(apperrors.TypeOf(err))
		logger.LogAPICall(c.logger.WithField("retryable", retryable), method, false, err)
		return nil, err
	}

	c.cache.Put(key, body)
	logger.LogAPICall(c.logger, method, false, nil)
	return body, nil
}

// callJSON performs a call and decodes the JSON response into target
func (c *Client) callJSON(ctx context.Context, method string, params url.Values, target interface{}) error {
	body, err := c.Call(ctx, method, params)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		// Create a preview of the body for debugging
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"method":       method,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return apperrors.Wrap(apperrors.ErrorTypeParsing,
			fmt.Sprintf("failed to parse %s response", method), err)
	}

	return nil
}

// DownloadImage fetches a raw image (thumbnails, archive copies).
// Static image hosts do not count against the API quota, so downloads
// bypass both the cache and the limiter.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	c.logger.DebugWithFields("downloading image", map[string]interface{}{
		"url": imageURL,
	})

	data, err := c.fetch(ctx, imageURL)
	if err != nil {
		c.logger.ErrorWithFields("failed to download image", map[string]interface{}{
			"url":   imageURL,
			"error": err.Error(),
		})
		return nil, err
	}

	c.logger.DebugWithFields("successfully downloaded image", map[string]interface{}{
		"url":  imageURL,
		"size": len(data),
	})

	return data, nil
}

// fetch performs a GET request and returns the response body
func (c *Client) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeUnknown, "failed to create request", err)
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
		return nil, &apperrors.Error{
			Type:    apperrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return body, nil
}

// fetchForm performs a GET request and parses a form-encoded response,
// the format of the OAuth token endpoints
func (c *Client) fetchForm(ctx context.Context, requestURL string) (url.Values, error) {
	body, err := c.fetch(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrorTypeParsing, "invalid token response", err)
	}

	return values, nil
}

// doRequest performs an HTTP request with standard headers and logging.
// The logged URL is stripped of its query string, which carries the API
// key and OAuth signature.
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	loggedURL := req.URL.Scheme + "://" + req.URL.Host + req.URL.Path

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    loggedURL,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      loggedURL,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &apperrors.Error{
			Type:    apperrors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Err:     err,
		}
	}

	// Log successful response
	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      loggedURL,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// checkResponseStatus maps non-2xx responses onto typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	errType := apperrors.TypeFromStatusCode(resp.StatusCode)
	c.logger.WarnWithFields("request rejected", map[string]interface{}{
		"status": resp.StatusCode,
		"type":   string(errType),
	})
	return &apperrors.Error{
		Type:    errType,
		Message: fmt.Sprintf("unexpected status: %s", resp.Status),
		Code:    resp.StatusCode,
	}
}

// checkFail maps Flickr's {"stat":"fail"} envelope onto typed errors
func checkFail(method string, body []byte) error {
	var env failEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return apperrors.Wrap(apperrors.ErrorTypeParsing,
			fmt.Sprintf("invalid %s response", method), err)
	}
	if env.Stat != "fail" {
		return nil
	}

	errType := apperrors.ErrorTypeUnknown
	switch env.Code {
	case 1:
		errType = apperrors.ErrorTypeNotFound
	case 98, 99, 100:
		errType = apperrors.ErrorTypeAuth
	case 105, 106:
		errType = apperrors.ErrorTypeServerError
	}

	return &apperrors.Error{
		Type:    errType,
		Message: fmt.Sprintf("%s: %s", method, env.Message),
		Code:    env.Code,
	}
}
