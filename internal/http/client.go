// Package http implements the signed JSON transport used by the client.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/hexo-client/internal/constants"
	"github.com/fivetwenty-io/hexo-client/pkg/hexo"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// Static errors for err113 compliance.
var (
	ErrTooManyRedirects = errors.New("stopped after too many redirects")
)

// Signer stamps credentials onto an outgoing request. It is called again
// for every retry and redirect so timestamps stay fresh.
type Signer interface {
	Sign(req *http.Request)
}

// Client is the HTTP transport. It resolves paths against the base URL,
// signs each request, and classifies responses.
type Client struct {
	baseURL      string
	signer       Signer
	httpClient   *retryablehttp.Client
	logger       hexo.Logger
	debug        bool
	userAgent    string
	apiVersion   string
	interceptors *hexo.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger hexo.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response debug logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithAPIVersion sends X-HexoAPIVersion on every request.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		c.apiVersion = version
	}
}

// WithRetryConfig enables retries for transient failures.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithSkipTLSVerify disables certificate verification.
func WithSkipTLSVerify(skip bool) Option {
	return func(c *Client) {
		if !skip {
			return
		}

		transport, ok := c.httpClient.HTTPClient.Transport.(*http.Transport)
		if !ok {
			transport = http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert
		} else {
			transport = transport.Clone()
		}

		// #nosec G402 -- only reachable in development mode
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		c.httpClient.HTTPClient.Transport = transport
	}
}

// WithInterceptors runs chain around every request.
func WithInterceptors(chain *hexo.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient.HTTPClient = httpClient
	}
}

// NewClient creates a transport for baseURL. signer may be nil.
func NewClient(baseURL string, signer Signer, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.CheckRetry = retryablehttp.DefaultRetryPolicy
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	client := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		signer:     signer,
		httpClient: retryClient,
		userAgent:  constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil && client.httpClient.RetryMax > 0 {
		client.httpClient.Logger = &leveledLogger{logger: client.logger}
	}

	client.httpClient.HTTPClient.CheckRedirect = client.checkRedirect

	if signer != nil {
		client.httpClient.PrepareRetry = func(req *http.Request) error {
			signer.Sign(req)

			return nil
		}
	}

	return client
}

// BaseURL returns the scheme and host requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request represents an HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Do executes req. For statuses of 400 and above the response is returned
// together with a *hexo.HTTPError.
//
//nolint:funlen
func (c *Client) Do(ctx context.Context, req *Request) (*hexo.Response, error) {
	fullURL, err := c.resolve(req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	method := strings.ToUpper(req.Method)

	intercepted := &hexo.Request{
		Method:   method,
		URL:      fullURL,
		Headers:  make(http.Header),
		Metadata: make(map[string]interface{}),
	}

	for key, value := range req.Headers {
		intercepted.Headers.Set(key, value)
	}

	if c.interceptors != nil {
		err = c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, err
		}
	}

	var body io.Reader

	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		body = bytes.NewReader(payload)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(constants.HeaderAccept, constants.MediaTypeJSON)
	httpReq.Header.Set(constants.HeaderContentType, constants.MediaTypeJSON)
	httpReq.Header.Set(constants.HeaderUserAgent, c.userAgent)

	if c.apiVersion != "" {
		httpReq.Header.Set(constants.HeaderAPIVersion, c.apiVersion)
	}

	for key, values := range intercepted.Headers {
		httpReq.Header[key] = values
	}

	if c.signer != nil {
		c.signer.Sign(httpReq.Request)
	}

	requestID := uuid.NewString()
	start := time.Now()

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"request_id": requestID,
			"method":     method,
			"url":        fullURL,
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, fullURL, err)
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	responseURL := fullURL
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		responseURL = httpResp.Request.URL.String()
	}

	resp := hexo.NewResponse(method, responseURL, httpResp.StatusCode, httpResp.Header, respBody)

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"request_id":  requestID,
			"status_code": resp.StatusCode,
			"duration":    time.Since(start).String(),
		})
	}

	if c.interceptors != nil {
		err = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, resp)
		if err != nil {
			return resp, err
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return resp, hexo.NewHTTPError(resp)
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*hexo.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*hexo.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*hexo.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*hexo.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*hexo.Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// resolve joins path onto the base URL unless it is already absolute. The
// query string is only rebuilt when there are parameters to add, so
// server-issued cursors are sent exactly as received.
func (c *Client) resolve(path string, query url.Values) (string, error) {
	fullURL := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		fullURL = c.baseURL + path
	}

	if len(query) == 0 {
		return fullURL, nil
	}

	parsed, err := url.Parse(fullURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL %q: %w", fullURL, err)
	}

	values := parsed.Query()
	for key, vals := range query {
		values[key] = vals
	}

	parsed.RawQuery = values.Encode()

	return parsed.String(), nil
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	// via holds every request already sent, the original included.
	if len(via) > constants.MaxRedirects {
		return fmt.Errorf("%w (%d)", ErrTooManyRedirects, constants.MaxRedirects)
	}

	if c.signer != nil {
		c.signer.Sign(req)
	}

	return nil
}

// leveledLogger adapts hexo.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger hexo.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fieldsFrom(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fieldsFrom(keysAndValues))
}

func (l *leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, fieldsFrom(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fieldsFrom(keysAndValues))
}

func fieldsFrom(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
