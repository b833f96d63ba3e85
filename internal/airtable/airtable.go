package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"brandforge/internal/config"
	"brandforge/internal/logger"
)

// MaxBatchSize is the remote store's hard cap on records per create, update
// or delete call. Callers with larger batches must chunk (see Chunk).
const MaxBatchSize = 10

var (
	// ErrRateLimited is returned when the remote store answers 429.
	ErrRateLimited = errors.New("remote store rate limit exceeded")

	// ErrBatchTooLarge is returned when a write exceeds MaxBatchSize.
	ErrBatchTooLarge = fmt.Errorf("batch exceeds the %d record limit", MaxBatchSize)
)

// Record is one remote store record. ID is the store's own opaque
// identifier and is never used as an entity's identity inside the content
// graph; IdentityResolver translates between the two.
type Record struct {
	ID     string         `json:"id,omitempty"`
	Fields map[string]any `json:"fields"`
}

// Client is a minimal REST client for an Airtable-style record store.
type Client struct {
	apiKey     string
	baseID     string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a client for the configured base.
func NewClient(cfg config.Airtable) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.airtable.com/v0"
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseID:     cfg.BaseID,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "airtable",
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     60 * time.Second,
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Warn("remote store circuit breaker state changed", "from", from.String(), "to", to.String())
			},
		}),
	}
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

type writeRequest struct {
	Records []Record `json:"records"`
}

type writeResponse struct {
	Records []Record `json:"records"`
}

type deleteResponse struct {
	Records []struct {
		ID      string `json:"id"`
		Deleted bool   `json:"deleted"`
	} `json:"records"`
}

// ListRecords fetches all records of a table matching the filter formula,
// following pagination. An empty formula matches everything; a non-empty
// fields list projects the response down to those fields.
func (c *Client) ListRecords(ctx context.Context, table, filterFormula string, fields []string) ([]Record, error) {
	var all []Record
	offset := ""
	for {
		params := url.Values{}
		if filterFormula != "" {
			params.Set("filterByFormula", filterFormula)
		}
		for _, f := range fields {
			params.Add("fields[]", f)
		}
		if offset != "" {
			params.Set("offset", offset)
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, table, params, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Records...)
		if page.Offset == "" {
			return all, nil
		}
		offset = page.Offset
	}
}

// CreateRecords inserts up to MaxBatchSize records and returns them with
// their store-assigned ids.
func (c *Client) CreateRecords(ctx context.Context, table string, records []Record) ([]Record, error) {
	if len(records) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}
	var resp writeResponse
	if err := c.do(ctx, http.MethodPost, table, nil, writeRequest{Records: records}, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// UpdateRecords patches up to MaxBatchSize records by their store ids.
func (c *Client) UpdateRecords(ctx context.Context, table string, records []Record) ([]Record, error) {
	if len(records) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}
	var resp writeResponse
	if err := c.do(ctx, http.MethodPatch, table, nil, writeRequest{Records: records}, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

// DeleteRecords deletes up to MaxBatchSize records by their store ids.
func (c *Client) DeleteRecords(ctx context.Context, table string, recordIDs []string) error {
	if len(recordIDs) > MaxBatchSize {
		return ErrBatchTooLarge
	}
	params := url.Values{}
	for _, id := range recordIDs {
		params.Add("records[]", id)
	}
	var resp deleteResponse
	return c.do(ctx, http.MethodDelete, table, params, nil, &resp)
}

func (c *Client) do(ctx context.Context, method, table string, params url.Values, body, out any) error {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, c.baseID, url.PathEscape(table))
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	_, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("remote store request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, ErrRateLimited
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			return nil, fmt.Errorf("remote store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return nil, fmt.Errorf("failed to decode response: %w", err)
			}
		}
		return nil, nil
	})
	return err
}

// Chunk splits records into batches of at most MaxBatchSize.
func Chunk(records []Record) [][]Record {
	var chunks [][]Record
	for len(records) > MaxBatchSize {
		chunks = append(chunks, records[:MaxBatchSize])
		records = records[MaxBatchSize:]
	}
	if len(records) > 0 {
		chunks = append(chunks, records)
	}
	return chunks
}

// EqualsFormula builds a filter formula matching records whose field equals
// the value.
func EqualsFormula(field, value string) string {
	return fmt.Sprintf("{%s} = '%s'", field, escapeFormulaValue(value))
}

// OrEqualsFormula builds a single formula matching records whose field
// equals any of the values, so a batch lookup costs one request instead of
// one per value.
func OrEqualsFormula(field string, values []string) string {
	if len(values) == 1 {
		return EqualsFormula(field, values[0])
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = EqualsFormula(field, v)
	}
	return "OR(" + strings.Join(parts, ", ") + ")"
}

// RecordIDFormula builds a single formula matching records by their
// store-assigned ids, for reverse id resolution.
func RecordIDFormula(recordIDs []string) string {
	parts := make([]string, len(recordIDs))
	for i, id := range recordIDs {
		parts[i] = fmt.Sprintf("RECORD_ID() = '%s'", escapeFormulaValue(id))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "OR(" + strings.Join(parts, ", ") + ")"
}

func escapeFormulaValue(value string) string {
	return strings.ReplaceAll(value, "'", "\\'")
}
