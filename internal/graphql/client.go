package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client executes GraphQL queries against a single indexer endpoint. All
// requests pass through the shared Deduper so identical in-flight queries
// collapse into one network call.
type Client struct {
	endpoint string
	httpc    *http.Client
	dedup    *Deduper
	logger   *zap.Logger
}

// NewClient creates a client for one endpoint. A zero timeout means requests
// are never cancelled by the client.
func NewClient(endpoint string, dedup *Deduper, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dedup == nil {
		dedup = NewDeduper()
	}
	return &Client{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: timeout},
		dedup:    dedup,
		logger:   logger,
	}
}

// Endpoint returns the endpoint URL the client is bound to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Query posts the query with its variables and decodes the response data
// envelope into out. Concurrent callers issuing the same query with the same
// variables share a single round trip; each caller still gets its own decoded
// copy of the payload.
func (c *Client) Query(ctx context.Context, query string, vars map[string]any, out any) error {
	key, err := Fingerprint(c.endpoint, query, vars)
	if err != nil {
		return fmt.Errorf("fingerprint request: %w", err)
	}

	data, err := c.dedup.Do(key, func() ([]byte, error) {
		return c.post(ctx, query, vars)
	})
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, query string, vars map[string]any) ([]byte, error) {
	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post query: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var envelope response
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("response has no data")
	}

	c.logger.Debug("query complete",
		zap.String("endpoint", c.endpoint),
		zap.Int("bytes", len(envelope.Data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return envelope.Data, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Nodes is the standard {nodes: [...]} collection envelope every indexer
// wraps its results in.
type Nodes[T any] struct {
	Nodes []T `json:"nodes"`
}
