package webclient

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// Options configures the shared HTTP clients.
type Options struct {
	// RequestTimeout bounds each request end to end, including retries
	// of the individual attempt bodies.
	RequestTimeout time.Duration

	// ConnectTimeout bounds TCP connection establishment.
	ConnectTimeout time.Duration

	// RetryAttempts is how many additional attempts are made after the
	// first one fails with a retryable error.
	RetryAttempts int

	// RetryBaseDelay is the backoff before the first retry; it doubles
	// per attempt. Exposed so tests can shrink it.
	RetryBaseDelay time.Duration
}

// DefaultOptions returns the transport options used in production.
func DefaultOptions() Options {
	return Options{
		RequestTimeout: 60 * time.Second,
		ConnectTimeout: 5 * time.Second,
		RetryAttempts:  3,
		RetryBaseDelay: 500 * time.Millisecond,
	}
}

// New creates the shared redirect-following HTTP client.
func New(opts Options) *http.Client {
	return &http.Client{
		Timeout:   opts.RequestTimeout,
		Transport: newRetryTransport(opts),
	}
}

// NewNoRedirect creates a client sharing the given client's transport
// but never following redirects. The authentication flow reads the
// authorization code from the Location header of a redirect that points
// at a non-HTTP app scheme, so following it would fail anyway.
func NewNoRedirect(base *http.Client) *http.Client {
	return &http.Client{
		Timeout:   base.Timeout,
		Transport: base.Transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// retryTransport retries requests on server-side errors and transport
// failures with exponential backoff. Requests with a non-rewindable body
// are never retried after the body has been consumed; callers that POST
// must set Request.GetBody (http.NewRequest does this for the common
// body types).
type retryTransport struct {
	base     http.RoundTripper
	attempts int
	delay    time.Duration
}

func newRetryTransport(opts Options) *retryTransport {
	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	base := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.RequestTimeout,
	}
	return &retryTransport{
		base:     base,
		attempts: opts.RetryAttempts + 1,
		delay:    opts.RetryBaseDelay,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error
	var lastResp *http.Response

	for attempt := 0; attempt < t.attempts; attempt++ {
		if attempt > 0 {
			if err := t.backoff(req, attempt); err != nil {
				break
			}
			var rewindErr error
			req, rewindErr = rewind(req)
			if rewindErr != nil {
				// Body cannot be replayed; surface the previous failure.
				break
			}
		}

		resp, err := t.base.RoundTrip(req)
		if err != nil {
			lastErr = err
			lastResp = nil
			continue
		}
		if resp.StatusCode >= 500 && attempt < t.attempts-1 {
			// Drain so the connection can be reused, then retry.
			resp.Body.Close()
			lastResp = resp
			lastErr = nil
			continue
		}
		return resp, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	if lastResp != nil {
		return nil, fmt.Errorf("request failed after %d attempts: HTTP status %d", t.attempts, lastResp.StatusCode)
	}
	return nil, errors.New("request failed: body not replayable")
}

// backoff sleeps for the exponential delay of the given attempt, with a
// small jitter, honoring request cancellation.
func (t *retryTransport) backoff(req *http.Request, attempt int) error {
	d := t.delay << (attempt - 1)
	if t.delay > 0 {
		d += time.Duration(rand.Int63n(int64(t.delay)/2 + 1)) //nolint:gosec // Jitter, not cryptography
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-req.Context().Done():
		return req.Context().Err()
	case <-timer.C:
		return nil
	}
}

// rewind returns a request whose body is reset for another attempt.
func rewind(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return req, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body is not replayable")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}
