// Package gateway implements the HTTP client for the remote healthcare MCP
// tool gateway, including the response normalization heuristic its callers
// rely on.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// callToolPath is owned by the external gateway's contract.
	callToolPath = "/mcp/call-tool"

	defaultTimeout = 30 * time.Second
)

// Options control client construction.
type Options struct {
	// HTTPClient overrides the default 30 second timeout client.
	HTTPClient *http.Client
	// Cache overrides the default result cache. Set Disable to skip caching.
	Cache        *ResultCache
	DisableCache bool
}

// Client invokes tools on the remote gateway. Responses are normalized before
// being returned; transport and server failures surface as errors.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *ResultCache
}

// NewClient creates a gateway client for the given base URL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("gateway: base URL is required")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	cache := opts.Cache
	if cache == nil && !opts.DisableCache {
		cache = NewResultCache(256, 5*time.Minute)
	}

	return &Client{baseURL: baseURL, http: httpClient, cache: cache}, nil
}

// callToolRequest is the gateway's wire envelope. Field names must be
// preserved bit-for-bit for interoperability with the existing server.
type callToolRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	SessionID string         `json:"session_id,omitempty"`
}

// CallTool invokes a named tool and returns the normalized result. Identical
// invocations within a session are served from the result cache.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any, sessionID string) (any, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("gateway: tool name is required")
	}
	if arguments == nil {
		arguments = map[string]any{}
	}

	key := ""
	if c.cache != nil {
		key = cacheKey(name, arguments, sessionID)
		if cached, ok := c.cache.Get(key); ok {
			return cached, nil
		}
	}

	payload, err := json.Marshal(callToolRequest{Name: name, Arguments: arguments, SessionID: sessionID})
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+callToolPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: call tool %s: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("gateway: read response for %s: %w", name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway: tool %s returned status %d: %s", name, resp.StatusCode, snippet(body))
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		// The gateway occasionally sends bare strings that are not valid
		// JSON documents; hand them to the normalizer as-is.
		raw = string(body)
	}

	result := Normalize(raw)
	if c.cache != nil {
		c.cache.Set(key, result)
	}
	return result, nil
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
