package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/musicbox/internal/models"
	"github.com/desertthunder/musicbox/internal/shared"
)

// errorDetailRule picks the server-provided detail appended to error messages.
var errorDetailRule = models.Rule{Paths: []string{"detail", "message", "error"}, Truthy: true}

// Client performs requests against the backend API.
type Client struct {
	cfg        shared.APIConfig
	getenv     func(string) string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a [Client].
//
// A nil httpClient gets one with the configured timeout; a nil logger discards output.
func NewClient(cfg shared.APIConfig, httpClient *http.Client, logger *log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout()}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}
}

// WithEnv returns a copy of c that reads environment variables through getenv.
func (c *Client) WithEnv(getenv func(string) string) *Client {
	cp := *c
	cp.getenv = getenv
	return &cp
}

// BaseURL resolves the API base URL from the environment and configuration.
func (c *Client) BaseURL() shared.BaseURL {
	return shared.ResolveBaseURL(c.cfg, c.getenv)
}

// StreamURL returns the absolute stream URL for a song, with the id percent-encoded.
func (c *Client) StreamURL(songID string) string {
	return fmt.Sprintf("%s/songs/%s/stream", c.BaseURL().URL, url.PathEscape(songID))
}

// RequestOpts configures a single [Client.Request] call.
type RequestOpts struct {
	Method    string // defaults to GET
	Headers   map[string]string
	Body      any // JSON-encoded unless it is a [*MultipartBody]
	AuthToken string
	TokenType string // defaults to Bearer
}

// Result is a successful response.
//
// JSON holds the decoded body for JSON content types; Text holds the raw body
// otherwise. Both are zero for 204 or empty responses.
type Result struct {
	StatusCode int
	Header     http.Header
	JSON       any
	Text       string
}

// Empty reports whether the response carried no content.
func (r *Result) Empty() bool {
	return r.JSON == nil && r.Text == ""
}

// Request performs an HTTP request to the backend and returns the parsed body.
//
// Transport failures return [*shared.TransportError]; non-2xx statuses return [*shared.APIError].
func (c *Client) Request(ctx context.Context, path string, opts RequestOpts) (*Result, error) {
	base := c.BaseURL()
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	fullURL := base.URL + path

	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := encodeBody(opts.Body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	if opts.AuthToken != "" {
		tok := &oauth2.Token{AccessToken: opts.AuthToken, TokenType: opts.TokenType}
		tok.SetAuthHeader(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "url", fullURL, "source", base.Source, "error", err)
		return nil, &shared.TransportError{URL: fullURL, Base: base, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("request", "method", method, "url", fullURL, "status", resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &shared.TransportError{URL: fullURL, Base: base, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, buildAPIError(resp, data)
	}

	result := &Result{StatusCode: resp.StatusCode, Header: resp.Header}
	if resp.StatusCode == http.StatusNoContent || len(data) == 0 {
		return result, nil
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		if err := json.Unmarshal(data, &result.JSON); err != nil {
			return nil, fmt.Errorf("%w: invalid JSON response from %s: %v", shared.ErrAPIRequest, fullURL, err)
		}
		return result, nil
	}

	result.Text = string(data)
	return result, nil
}

// encodeBody returns the request body and the content type it implies.
func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *MultipartBody:
		r, err := b.Reader()
		if err != nil {
			return nil, "", err
		}
		return r, b.ContentType(), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// buildAPIError formats "Request failed (<code> <status>)" with an optional detail suffix.
func buildAPIError(resp *http.Response, data []byte) *shared.APIError {
	status := resp.Status
	if status == "" {
		status = strings.TrimSpace(strconv.Itoa(resp.StatusCode) + " " + http.StatusText(resp.StatusCode))
	}
	apiErr := &shared.APIError{
		Message:    fmt.Sprintf("Request failed (%s)", status),
		StatusCode: resp.StatusCode,
	}

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		// Unparseable error bodies only get the status message.
		return apiErr
	}
	apiErr.Payload = payload

	obj, ok := payload.(map[string]any)
	if !ok {
		return apiErr
	}

	detail, ok := errorDetailRule.Find(obj)
	if !ok {
		return apiErr
	}

	switch d := detail.(type) {
	case string:
		if strings.TrimSpace(d) != "" {
			apiErr.Message += ": " + d
		}
	case []any:
		if len(d) > 0 {
			if enc, err := json.Marshal(d); err == nil {
				apiErr.Message += ": " + string(enc)
			}
		}
	}
	return apiErr
}
