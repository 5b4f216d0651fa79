package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"DailyBriefing/internal/domain"
	"DailyBriefing/internal/ports"
)

// BackendRemoteAPI is the Backend() name of RemoteAPI.
const BackendRemoteAPI = "remote-api"

const (
	remoteMaxRetries = 3
	maxErrorBody     = 512
)

// APIError represents a non-2xx upstream response.
type APIError struct {
	StatusCode int
	Body       string // first 512 bytes
	retryAfter string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// RemoteAPI reads briefings from an upstream briefing endpoint. It is
// read-only.
type RemoteAPI struct {
	endpoint   string
	httpClient *http.Client
	backoff    func(attempt int, lastErr *APIError) time.Duration
}

var _ ports.BriefingStore = (*RemoteAPI)(nil)

// RemoteOption configures RemoteAPI behavior.
type RemoteOption func(*RemoteAPI)

// WithBackoff overrides the retry delay schedule.
func WithBackoff(fn func(attempt int, lastErr *APIError) time.Duration) RemoteOption {
	return func(r *RemoteAPI) { r.backoff = fn }
}

// NewRemoteAPI creates a store reading endpoint?date=<key>.
func NewRemoteAPI(endpoint string, timeout time.Duration, opts ...RemoteOption) *RemoteAPI {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	r := &RemoteAPI{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		backoff:    backoffDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Backend implements ports.BriefingStore.
func (r *RemoteAPI) Backend() string { return BackendRemoteAPI }

// Put always fails: the upstream is read-only.
func (r *RemoteAPI) Put(context.Context, string, domain.BriefingDocument) error {
	return unsupported(BackendRemoteAPI, "put")
}

// Get fetches the document for dateKey. A 404 or a document for another
// date is reported as not found. Retries on 429 and 5xx.
func (r *RemoteAPI) Get(ctx context.Context, dateKey string) (domain.BriefingDocument, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return domain.BriefingDocument{}, r.readErr(fmt.Errorf("parse endpoint: %w", err))
	}
	q := u.Query()
	q.Set("date", dateKey)
	u.RawQuery = q.Encode()

	body, err := r.getWithRetry(ctx, u.String())
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return domain.BriefingDocument{}, domain.ErrNotFound
		}
		return domain.BriefingDocument{}, r.readErr(err)
	}

	doc, err := parseDocument(BackendRemoteAPI, body)
	if err != nil {
		return domain.BriefingDocument{}, err
	}
	// Some upstreams answer unknown dates with their latest document.
	if doc.DateKey != dateKey {
		return domain.BriefingDocument{}, domain.ErrNotFound
	}
	return doc, nil
}

func (r *RemoteAPI) getWithRetry(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr *APIError
	for attempt := 0; attempt <= remoteMaxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(r.backoff(attempt, lastErr))
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := r.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Body: clipBody(body, maxErrorBody)}
		if resp.StatusCode == http.StatusTooManyRequests {
			apiErr.retryAfter = resp.Header.Get("Retry-After")
			lastErr = apiErr
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = apiErr
			continue
		}
		return nil, apiErr
	}
	return nil, lastErr
}

func (r *RemoteAPI) readErr(err error) error {
	return &domain.StorageError{Kind: domain.StorageRead, Backend: BackendRemoteAPI, Cause: err}
}

// clipBody keeps at most max bytes of body without splitting a rune.
func clipBody(body []byte, max int) string {
	if len(body) <= max {
		return string(body)
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut])
}

// backoffDelay honours Retry-After on 429, otherwise 1s, 2s, 4s.
func backoffDelay(attempt int, lastErr *APIError) time.Duration {
	if lastErr != nil && lastErr.StatusCode == http.StatusTooManyRequests && lastErr.retryAfter != "" {
		if secs, err := strconv.Atoi(lastErr.retryAfter); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(1<<(attempt-1)) * time.Second
}
