package toggl

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Scope identifies which of the provider's two independently-refilling
// quotas a request consumes. Identity endpoints (/me/...) draw from the
// identity quota; workspace and organization endpoints draw from the
// workspace quota.
type Scope string

const (
	ScopeIdentity  Scope = "identity"
	ScopeWorkspace Scope = "workspace"
)

// Window is the provider's sliding rate-limit window. The permitted-call
// count is evaluated over the trailing window from the current moment,
// not from a fixed clock boundary.
const Window = time.Hour

// ThrottledError reports that the provider refused (or would refuse) a
// call because a quota is exhausted. RetryAfter is the earliest time a
// new attempt might succeed, not a guarantee of success.
type ThrottledError struct {
	Scope      Scope
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("provider %s quota exhausted, retry after %s", e.Scope, e.RetryAfter.Truncate(time.Second))
}

// IsThrottled reports whether err is a ThrottledError.
func IsThrottled(err error) bool {
	var te *ThrottledError
	return errors.As(err, &te)
}

// DateRangeRejectedError reports that the provider refused a start_date as
// too early. MinDate carries the corrected floor parsed from the error text.
type DateRangeRejectedError struct {
	MinDate time.Time
}

func (e *DateRangeRejectedError) Error() string {
	return fmt.Sprintf("start_date must not be earlier than %s", e.MinDate.Format("2006-01-02"))
}

// TransientNetworkError wraps a retryable failure with no known delay:
// connection errors and provider 5xx responses.
type TransientNetworkError struct {
	Err error
}

func (e *TransientNetworkError) Error() string { return "transient provider error: " + e.Err.Error() }
func (e *TransientNetworkError) Unwrap() error { return e.Err }

// ConfigError reports that a source configuration references a missing
// account or workspace. Not retryable; the configuration is skipped.
type ConfigError struct {
	ConfigID string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("source configuration %s: %s", e.ConfigID, e.Reason)
}

var minDatePattern = regexp.MustCompile(`start_date must not be earlier than (\d{4}-\d{2}-\d{2})`)

// parseMinDate extracts the minimum permitted date from a provider
// rejection body. Returns the zero time if the body carries no floor.
func parseMinDate(body string) time.Time {
	m := minDatePattern.FindStringSubmatch(body)
	if m == nil {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return time.Time{}
	}
	return t
}
