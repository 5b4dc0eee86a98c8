// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dimapi is an HTTP client for the Dimensions Analytics API.
// It handles key-based authentication, raw DSL query submission, and
// decoding of the response envelope into a tabular ResultSet. It
// satisfies the dsl.Runner interface.
package dimapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/dimensions-go/internal/httputil"
	"github.com/pdiddy/dimensions-go/pkg/types"
)

// DefaultEndpoint is the production Analytics API base URL.
const DefaultEndpoint = "https://app.dimensions.ai"

const (
	authPath = "/api/auth.json"
	dslPath  = "/api/dsl.json"

	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "dimensions-go/0.1"
)

// Client talks to the Analytics API. Construct with NewClient and
// authenticate with Login before calling Run. A Client is not safe for
// concurrent use while logging in.
type Client struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	maxRetries int
	token      string
}

// NewClient builds a client from the API configuration, applying
// defaults for endpoint, timeout, and user agent.
func NewClient(cfg types.APIConfig) *Client {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		userAgent:  userAgent,
		maxRetries: cfg.MaxRetries,
	}
}

// Login exchanges the API key for a session token. The token is held on
// the client and sent with every subsequent Run call.
func (c *Client) Login(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("API key is empty: set DIMENSIONS_API_KEY or .secrets/dimensions-api-key")
	}

	body, err := json.Marshal(map[string]string{"key": apiKey})
	if err != nil {
		return fmt.Errorf("marshaling auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+authPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("authentication failed: Analytics API returned HTTP %d", resp.StatusCode)
	}

	var ar authResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return fmt.Errorf("parsing auth response: %w", err)
	}
	if ar.Token == "" {
		return fmt.Errorf("authentication failed: no token in response")
	}

	c.token = ar.Token
	return nil
}

// LoggedIn reports whether a session token is held.
func (c *Client) LoggedIn() bool { return c.token != "" }

// Run submits a raw DSL query string and decodes the response into a
// ResultSet. HTTP 429 responses are retried with backoff; all other
// failures are returned to the caller.
func (c *Client) Run(ctx context.Context, query string) (*types.ResultSet, error) {
	if c.token == "" {
		return nil, fmt.Errorf("not logged in: call Login before Run")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+dslPath, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("creating DSL request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Authorization", "JWT "+c.token)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("Analytics API request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("Analytics API rate limit exceeded (HTTP 429)")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("Analytics API rejected the session token (HTTP %d)", resp.StatusCode)
	default:
		return nil, fmt.Errorf("Analytics API returned HTTP %d: %s", resp.StatusCode, remoteErrorDetail(resp.Body))
	}

	var envelope map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("parsing Analytics API response: %w", err)
	}

	return decodeEnvelope(envelope)
}

// decodeEnvelope maps the response envelope into a ResultSet. The
// envelope carries the record array under the searched scope's key
// (e.g. "publications"), plus _stats, _warnings, and errors siblings.
func decodeEnvelope(envelope map[string]json.RawMessage) (*types.ResultSet, error) {
	rs := &types.ResultSet{Rows: []types.Row{}}

	if raw, ok := envelope["_stats"]; ok {
		var stats dslStats
		if err := json.Unmarshal(raw, &stats); err != nil {
			return nil, fmt.Errorf("parsing _stats: %w", err)
		}
		rs.Total = stats.TotalCount
	}

	if raw, ok := envelope["_warnings"]; ok {
		rs.Warnings = append(rs.Warnings, decodeMessages(raw)...)
	}
	// A 200 response may still carry an errors member for non-fatal
	// conditions; surface it as a warning rather than swallowing it.
	if raw, ok := envelope["errors"]; ok {
		rs.Warnings = append(rs.Warnings, decodeMessages(raw)...)
	}

	for key, raw := range envelope {
		if strings.HasPrefix(key, "_") || key == "errors" {
			continue
		}
		var rows []types.Row
		if err := json.Unmarshal(raw, &rows); err != nil {
			// Scalar siblings (e.g. "total_count" shortcuts) are not the
			// record array.
			continue
		}
		rs.Scope = key
		rs.Rows = rows
		break
	}

	return rs, nil
}

// remoteErrorDetail extracts a short human-readable message from an
// error response body, falling back to a body snippet.
func remoteErrorDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return "no error detail"
	}

	var er errorResponse
	if json.Unmarshal(data, &er) == nil {
		if er.Errors.Query.Header != "" {
			msg := er.Errors.Query.Header
			if len(er.Errors.Query.Details) > 0 {
				msg += ": " + strings.Join(er.Errors.Query.Details, "; ")
			}
			return msg
		}
	}
	return strings.TrimSpace(string(data))
}

// decodeMessages flattens a _warnings or errors member into strings. The
// API emits these as plain strings, objects with a message field, or
// nested maps depending on the condition.
func decodeMessages(raw json.RawMessage) []string {
	var asStrings []string
	if json.Unmarshal(raw, &asStrings) == nil {
		return asStrings
	}

	var asObjects []map[string]any
	if json.Unmarshal(raw, &asObjects) == nil {
		var out []string
		for _, o := range asObjects {
			if m, ok := o["message"].(string); ok {
				out = append(out, m)
			} else {
				out = append(out, fmt.Sprintf("%v", o))
			}
		}
		return out
	}

	var asMap map[string]any
	if json.Unmarshal(raw, &asMap) == nil {
		var out []string
		for _, v := range asMap {
			out = append(out, fmt.Sprintf("%v", v))
		}
		return out
	}

	return []string{string(raw)}
}

// Analytics API JSON structures.
type authResponse struct {
	Token string `json:"token"`
}

type dslStats struct {
	TotalCount int `json:"total_count"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
}

type errorResponse struct {
	Errors struct {
		Query struct {
			Header  string   `json:"header"`
			Details []string `json:"details"`
		} `json:"query"`
	} `json:"errors"`
}
