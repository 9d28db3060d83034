package toggl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"horas/internal/model"
)

const defaultBaseURL = "https://api.track.toggl.com/api/v9"

// Client is a thin HTTP client for the time-entry provider. It knows the
// two endpoints this tool consumes and maps the provider's documented
// error conditions onto the typed errors in this package. It performs no
// retrying or throttling itself; that is SyncClient's job.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a provider client. baseURL may be empty to use the
// public API endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// FetchDirectory returns the authenticated identity with all related data:
// workspaces, clients, projects and tags. This is the lookup directory
// used for entry enrichment.
func (c *Client) FetchDirectory(ctx context.Context, token string) (*model.Directory, error) {
	body, err := c.get(ctx, token, "/me", url.Values{"with_related_data": {"true"}})
	if err != nil {
		return nil, err
	}

	var dir model.Directory
	if err := json.Unmarshal(body, &dir); err != nil {
		return nil, fmt.Errorf("decoding identity response: %w", err)
	}
	return &dir, nil
}

// FetchEntries returns all time entries for the authenticated identity
// between start and end (inclusive ISO dates). The provider accepts no
// pagination token (a single call returns the full result for its span),
// so callers must keep spans within the provider's range cap (see Chunk).
// Entries for all of the identity's workspaces are returned; filtering by
// workspace happens client-side.
func (c *Client) FetchEntries(ctx context.Context, token string, start, end time.Time) ([]model.TimeEntry, error) {
	q := url.Values{
		"start_date": {start.Format("2006-01-02")},
		"end_date":   {end.Format("2006-01-02")},
	}
	body, err := c.get(ctx, token, "/me/time_entries", q)
	if err != nil {
		return nil, err
	}

	var entries []model.TimeEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decoding entries response: %w", err)
	}
	return entries, nil
}

// ProbeRange issues an entries request for the span and reports only the
// provider's verdict; the payload is discarded. Used by MinDateCache.
func (c *Client) ProbeRange(ctx context.Context, token string, start, end time.Time) error {
	_, err := c.FetchEntries(ctx, token, start, end)
	return err
}

// get performs an authenticated GET and returns the response body, or a
// typed error for the provider's documented failure conditions.
func (c *Client) get(ctx context.Context, token, path string, query url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	// The provider authenticates with Basic auth, the token as username
	// and the literal string "api_token" as password.
	req.SetBasicAuth(token, "api_token")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientNetworkError{Err: err}
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, &TransientNetworkError{Err: fmt.Errorf("reading response body: %w", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	return nil, c.mapError(path, resp, string(body))
}

// mapError converts a non-2xx provider response into a typed error.
func (c *Client) mapError(path string, resp *http.Response, body string) error {
	text := strings.ToLower(body)

	// Quota exhaustion. The provider tracks two quotas; which one was hit
	// is determined by which endpoint was called.
	if resp.StatusCode == http.StatusTooManyRequests || strings.Contains(text, "hourly limit") {
		return &ThrottledError{
			Scope:      scopeFor(path),
			RetryAfter: retryAfter(resp),
		}
	}

	// Date floor rejection, with the corrected minimum as a parseable
	// substring of the error text.
	if min := parseMinDate(body); !min.IsZero() {
		return &DateRangeRejectedError{MinDate: min}
	}

	if resp.StatusCode >= 500 {
		return &TransientNetworkError{Err: fmt.Errorf("provider returned %d: %s", resp.StatusCode, strings.TrimSpace(body))}
	}

	return fmt.Errorf("provider error %d on %s: %s", resp.StatusCode, path, strings.TrimSpace(body))
}

// scopeFor maps an endpoint path to the quota it consumes.
func scopeFor(path string) Scope {
	if strings.HasPrefix(path, "/workspaces") || strings.HasPrefix(path, "/organizations") {
		return ScopeWorkspace
	}
	return ScopeIdentity
}

// retryAfter reads the Retry-After header, falling back to the full
// sliding window when the provider gives no hint.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return Window
}
