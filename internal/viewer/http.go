package viewer

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

	runerrors "runtrack/internal/errors"
)

const (
	// DefaultMaxResponseBytes caps the viewer response body.
	DefaultMaxResponseBytes int64 = 1 << 20

	viewerQuery = `query Viewer { viewer { id entity flags } }`
)

// ResponseTooLargeError reports that the response body exceeded the limit.
type ResponseTooLargeError struct {
	Limit int64
}

func (e ResponseTooLargeError) Error() string {
	return fmt.Sprintf("response body exceeded limit of %d bytes", e.Limit)
}

// HTTPClient queries the tracking server's GraphQL endpoint.
type HTTPClient struct {
	baseURL          string
	apiKey           string
	userAgent        string
	maxResponseBytes int64
	client           *http.Client
}

// HTTPOption customises an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithMaxResponseBytes overrides the response size cap.
func WithMaxResponseBytes(limit int64) HTTPOption {
	return func(c *HTTPClient) { c.maxResponseBytes = limit }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(agent string) HTTPOption {
	return func(c *HTTPClient) { c.userAgent = agent }
}

// NewHTTPClient builds a client for baseURL authenticated with apiKey.
func NewHTTPClient(baseURL, apiKey string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:          strings.TrimRight(baseURL, "/"),
		apiKey:           apiKey,
		userAgent:        "runtrack",
		maxResponseBytes: DefaultMaxResponseBytes,
		client:           &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type graphQLResponse struct {
	Data struct {
		Viewer *struct {
			ID     string          `json:"id"`
			Entity *string         `json:"entity"`
			Flags  json.RawMessage `json:"flags"`
		} `json:"viewer"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Query fetches the viewer. Status codes are classified with
// runerrors.FromHTTPStatus.
func (c *HTTPClient) Query(ctx context.Context) (Result, error) {
	body, err := json.Marshal(graphQLRequest{Query: viewerQuery})
	if err != nil {
		return Result{}, fmt.Errorf("encode viewer query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build viewer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.SetBasicAuth("api", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("viewer request: %w", err)
	}
	defer resp.Body.Close()

	data, err := readAllWithLimit(resp.Body, c.maxResponseBytes)
	if err != nil {
		return Result{}, fmt.Errorf("read viewer response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, runerrors.FromHTTPStatus(resp.StatusCode,
			fmt.Errorf("viewer query: status %d: %s", resp.StatusCode, truncate(string(data), 200)))
	}

	var parsed graphQLResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Result{}, &runerrors.PermanentError{Err: fmt.Errorf("decode viewer response: %w", err)}
	}
	if len(parsed.Errors) > 0 {
		return Result{}, &runerrors.PermanentError{Err: fmt.Errorf("viewer query: %s", parsed.Errors[0].Message)}
	}

	viewer := parsed.Data.Viewer
	if viewer == nil {
		return Result{Outcome: OutcomeOK}, nil
	}

	result := Result{Outcome: OutcomeOK}
	if viewer.Entity != nil && *viewer.Entity != "" {
		result.Entity = *viewer.Entity
		result.HasEntity = true
	}
	flags, err := decodeFlags(viewer.Flags)
	if err != nil {
		return Result{}, &runerrors.PermanentError{Err: err}
	}
	result.Flags = flags
	return result, nil
}

// decodeFlags accepts flags as a JSON object or as a JSON string holding one.
func decodeFlags(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("decode viewer flags: %w", err)
		}
		if strings.TrimSpace(encoded) == "" {
			return nil, nil
		}
		raw = json.RawMessage(encoded)
	}
	var flags map[string]any
	if err := json.Unmarshal(raw, &flags); err != nil {
		return nil, fmt.Errorf("decode viewer flags: %w", err)
	}
	return flags, nil
}

func readAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(&io.LimitedReader{R: r, N: limit + 1})
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ResponseTooLargeError{Limit: limit}
	}
	return data, nil
}

// IsResponseTooLarge reports whether err came from the response size cap.
func IsResponseTooLarge(err error) bool {
	var limitErr ResponseTooLargeError
	return errors.As(err, &limitErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
