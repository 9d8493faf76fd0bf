// Package sparql is a small client for the SPARQL 1.1 protocol,
// sufficient for issuing SELECT and ASK queries against an HTTP
// endpoint (e.g. Apache Jena Fuseki) and decoding JSON results.
package sparql

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultMaxSize = 8 << 20 // 8 MB

	ContentTypeQuery   = "application/sparql-query"
	ContentTypeResults = "application/sparql-results+json"
)

// Returned when the endpoint responds with anything but 200 OK.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	Endpoint   string
	HTTPClient *http.Client

	// Responses larger than this are truncated (and so fail to
	// decode). 0 means no limit.
	MaxSize int
}

// Creates a client for the query endpoint at the given URL.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		Endpoint: endpoint,
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		MaxSize: DefaultMaxSize,
	}
}

// Runs a SELECT query.
func (c *Client) Query(ctx context.Context, query string) (*Results, error) {
	body, err := c.post(ctx, query)
	if err != nil {
		return nil, err
	}

	return DecodeResults(body)
}

// Runs an ASK query.
func (c *Client) Ask(ctx context.Context, query string) (bool, error) {
	body, err := c.post(ctx, query)
	if err != nil {
		return false, err
	}

	return DecodeBoolean(body)
}

func (c *Client) post(ctx context.Context, query string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", ContentTypeQuery)
	req.Header.Set("Accept", ContentTypeResults)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if c.MaxSize > 0 {
		reader = io.LimitReader(resp.Body, int64(c.MaxSize))
	}

	if resp.StatusCode != http.StatusOK {
		// Fuseki puts the parse error in the body, which
		// is worth keeping around.
		msg, _ := io.ReadAll(io.LimitReader(reader, 512))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}

	return body, nil
}
