package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/prodfilter/backend/internal/domain"
)

// DefaultBaseURL is the Google Sheets REST endpoint
const DefaultBaseURL = "https://sheets.googleapis.com"

// maxErrorBody bounds how much of an error response is logged
const maxErrorBody = 1024

// maxAttempts is the number of tries for retryable failures
const maxAttempts = 3

// ValueRange is the Sheets API response for a values read
type ValueRange struct {
	Range          string  `json:"range"`
	MajorDimension string  `json:"majorDimension"`
	Values         [][]any `json:"values"`
}

var _ domain.TableSource = (*Client)(nil)

// Client reads sheet values from the Google Sheets API with an API key.
// It is a read-only domain.TableSource.
type Client struct {
	httpClient    *http.Client
	apiKey        string
	baseURL       string
	spreadsheetID string
	rateLimiter   *rate.Limiter
	debug         bool
}

// NewClient creates a new Sheets API client for one spreadsheet
func NewClient(apiKey, baseURL, spreadsheetID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	// Sheets allows 300 read requests per minute per project
	limiter := rate.NewLimiter(rate.Limit(5), 10) // burst of 10 requests

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:        apiKey,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		spreadsheetID: spreadsheetID,
		rateLimiter:   limiter,
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[SHEETS DEBUG] "+format, args...)
	}
}

// ReadTable reads the named sheet; the first row is the header row
func (c *Client) ReadTable(ctx context.Context, name string) (*domain.Table, error) {
	values, err := c.GetValues(ctx, name)
	if err != nil {
		return nil, err
	}

	table := MapToTable(name, values)
	log.Printf("[SHEETS] Read sheet %q (%d columns, %d rows)", name, len(table.Headers), len(table.Products))
	return table, nil
}

// GetValues fetches every cell of the named sheet as unformatted values
func (c *Client) GetValues(ctx context.Context, sheet string) (*ValueRange, error) {
	log.Printf("[SHEETS] GetValues called for sheet: %q", sheet)

	reqURL := c.valuesURL(sheet)
	c.debugLog("GET %s", strings.Replace(reqURL, c.apiKey, "***", 1))

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			sleep(ctx, exponentialBackoff(attempt-1))
		}

		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[SHEETS] Rate limiter error: %v", err)
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			log.Printf("[SHEETS] Request error (attempt %d): %v", attempt, err)
			lastErr = err
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := readLimitedBody(resp.Body, maxErrorBody)
			resp.Body.Close()
			log.Printf("[SHEETS] API error (attempt %d) - Status: %d, Body: %s", attempt, resp.StatusCode, string(body))

			if isMissingSheet(resp.StatusCode, body) {
				return nil, fmt.Errorf("%w: %s", domain.ErrMissingTable, sheet)
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrSourceFailure, resp.StatusCode)
			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
			continue
		}

		var values ValueRange
		err = json.NewDecoder(resp.Body).Decode(&values)
		resp.Body.Close()
		if err != nil {
			log.Printf("[SHEETS] JSON decode error: %v", err)
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		c.debugLog("Range %s returned %d rows", values.Range, len(values.Values))
		return &values, nil
	}

	log.Printf("[SHEETS] All retries failed for sheet: %q", sheet)
	return nil, lastErr
}

// valuesURL builds the values endpoint URL; the whole sheet is the A1 range 'name'
func (c *Client) valuesURL(sheet string) string {
	a1 := "'" + strings.ReplaceAll(sheet, "'", "''") + "'"

	params := url.Values{}
	params.Add("key", c.apiKey)
	params.Add("valueRenderOption", "UNFORMATTED_VALUE")
	params.Add("majorDimension", "ROWS")

	return fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?%s",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(a1), params.Encode())
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "ProdFilter/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceFailure, err)
	}

	return resp, nil
}

// isMissingSheet reports whether the API rejected the request because the
// spreadsheet (404) or the sheet range (400 "Unable to parse range") does not exist
func isMissingSheet(status int, body []byte) bool {
	if status == http.StatusNotFound {
		return true
	}
	return status == http.StatusBadRequest && strings.Contains(string(body), "Unable to parse range")
}

// retryable reports whether a status is worth another attempt: 429 and 5xx
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// exponentialBackoff returns the wait before the next attempt: 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func readLimitedBody(body io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, limit))
}
