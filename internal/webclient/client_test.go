package webclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// testOptions returns options with no backoff delay for fast tests.
func testOptions(retries int) Options {
	return Options{
		RequestTimeout: 5 * time.Second,
		ConnectTimeout: 1 * time.Second,
		RetryAttempts:  retries,
		RetryBaseDelay: 0,
	}
}

// TestRetryOnServerError verifies that 5xx responses are retried and a
// later success is returned.
func TestRetryOnServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(testOptions(3))
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

// TestRetryExhaustion verifies that a persistent 5xx eventually fails
// after the configured attempts.
func TestRetryExhaustion(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(testOptions(2))
	resp, err := client.Get(srv.URL)
	if err == nil {
		resp.Body.Close()
		t.Fatal("Get() should fail after exhausting retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3 (1 + 2 retries)", got)
	}
}

// TestClientErrorNotRetried verifies that 4xx responses pass through
// without retries.
func TestClientErrorNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := New(testOptions(3))
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d calls, want 1", got)
	}
}

// TestPostBodyReplayedOnRetry verifies that form POSTs are replayed with
// their full body on retry.
func TestPostBodyReplayedOnRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	var lastBody atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		lastBody.Store(r.PostForm.Get("username"))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(testOptions(2))
	resp, err := client.Post(srv.URL, "application/x-www-form-urlencoded",
		strings.NewReader("username=crawler&password=x"))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	defer resp.Body.Close()

	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d calls, want 2", got)
	}
	if got := lastBody.Load(); got != "crawler" {
		t.Errorf("retried body username = %v, want crawler", got)
	}
}

// TestNoRedirectClient verifies that the non-following client surfaces
// the redirect response itself.
func TestNoRedirectClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Location", "app.example://authorize_callback?code=xyz")
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	client := NewNoRedirect(New(testOptions(0)))
	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want 302", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "app.example://authorize_callback?code=xyz" {
		t.Errorf("Location = %q", got)
	}
}
