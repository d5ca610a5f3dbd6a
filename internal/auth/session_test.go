package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/miyata-dev/campuscrawl/internal/webclient"
)

// fakeRealm is an httptest server that mimics the OpenID Connect realm:
// an authorization page with a login form, a login action that redirects
// with a code, and a token endpoint.
type fakeRealm struct {
	srv *httptest.Server

	// loginForms counts authorization page fetches.
	loginForms atomic.Int32

	// tokenCalls counts token endpoint hits.
	tokenCalls atomic.Int32

	// lastGrant holds the grant_type of the last token request.
	lastGrant atomic.Value

	// noForm makes the authorization page render without a form.
	noForm bool

	// noCode makes the login action redirect without a code parameter.
	noCode bool
}

func newFakeRealm(t *testing.T) *fakeRealm {
	t.Helper()
	r := &fakeRealm{}

	mux := http.NewServeMux()
	mux.HandleFunc("/realms/campus/protocol/openid-connect/auth", func(w http.ResponseWriter, _ *http.Request) {
		r.loginForms.Add(1)
		if r.noForm {
			fmt.Fprint(w, `<html><body><p>maintenance</p></body></html>`)
			return
		}
		fmt.Fprintf(w, `<html><body>
			<form id="kc-form-login" action="%s/realms/campus/login-actions/authenticate" method="post">
				<input name="username"/><input name="password" type="password"/>
			</form></body></html>`, r.srv.URL)
	})
	mux.HandleFunc("/realms/campus/login-actions/authenticate", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.PostForm.Get("username") != "crawler" || req.PostForm.Get("password") != "secret" {
			fmt.Fprint(w, `<html><body><form action="/retry"></form></body></html>`)
			return
		}
		location := "app.example://authorize_callback?session_state=abc&code=auth-code-1"
		if r.noCode {
			location = "app.example://authorize_callback?error=access_denied"
		}
		w.Header().Set("Location", location)
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/realms/campus/protocol/openid-connect/token", func(w http.ResponseWriter, req *http.Request) {
		r.tokenCalls.Add(1)
		if err := req.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		grant := req.PostForm.Get("grant_type")
		r.lastGrant.Store(grant)

		switch grant {
		case "authorization_code":
			if req.PostForm.Get("code") != "auth-code-1" {
				http.Error(w, "bad code", http.StatusBadRequest)
				return
			}
		case "refresh_token":
			if req.PostForm.Get("refresh_token") == "" {
				http.Error(w, "no refresh token", http.StatusBadRequest)
				return
			}
		default:
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]any{
			"access_token":       "access-" + grant,
			"expires_in":         300,
			"refresh_token":      "refresh-" + grant,
			"refresh_expires_in": 1800,
			"token_type":         "Bearer",
			"scope":              "openid",
		}); err != nil {
			t.Errorf("encoding token response: %v", err)
		}
	})

	r.srv = httptest.NewServer(mux)
	t.Cleanup(r.srv.Close)
	return r
}

func (r *fakeRealm) authority() string {
	return r.srv.URL + "/realms/campus"
}

func newTestSession(r *fakeRealm) *Session {
	client := webclient.New(webclient.Options{
		RequestTimeout: 5 * time.Second,
		ConnectTimeout: 1 * time.Second,
	})
	return NewSession(client, r.authority(), "app-x-android", "app.example://authorize_callback",
		"crawler", "secret", WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

// TestLogin verifies the full authorization-code exchange.
func TestLogin(t *testing.T) {
	t.Parallel()

	realm := newFakeRealm(t)
	session := newTestSession(realm)

	if err := session.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if got := session.AccessToken(); got != "access-authorization_code" {
		t.Errorf("AccessToken() = %q", got)
	}
	if got := realm.lastGrant.Load(); got != "authorization_code" {
		t.Errorf("last grant = %v", got)
	}
}

// TestLoginNoForm verifies the fatal missing-form condition.
func TestLoginNoForm(t *testing.T) {
	t.Parallel()

	realm := newFakeRealm(t)
	realm.noForm = true
	session := newTestSession(realm)

	if err := session.Login(context.Background()); !errors.Is(err, ErrNoLoginForm) {
		t.Errorf("Login() error = %v, want ErrNoLoginForm", err)
	}
}

// TestLoginNoCode verifies the fatal missing-code condition.
func TestLoginNoCode(t *testing.T) {
	t.Parallel()

	realm := newFakeRealm(t)
	realm.noCode = true
	session := newTestSession(realm)

	if err := session.Login(context.Background()); !errors.Is(err, ErrNoAuthCode) {
		t.Errorf("Login() error = %v, want ErrNoAuthCode", err)
	}
	if got := session.AccessToken(); got != "" {
		t.Errorf("AccessToken() = %q after failed login, want empty", got)
	}
}

// TestRefresh verifies the refresh exchange and its precondition.
func TestRefresh(t *testing.T) {
	t.Parallel()

	t.Run("without login", func(t *testing.T) {
		t.Parallel()

		session := newTestSession(newFakeRealm(t))
		if err := session.Refresh(context.Background()); !errors.Is(err, ErrNoRefreshToken) {
			t.Errorf("Refresh() error = %v, want ErrNoRefreshToken", err)
		}
	})

	t.Run("after login", func(t *testing.T) {
		t.Parallel()

		realm := newFakeRealm(t)
		session := newTestSession(realm)

		if err := session.Login(context.Background()); err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		if err := session.Refresh(context.Background()); err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}

		if got := session.AccessToken(); got != "access-refresh_token" {
			t.Errorf("AccessToken() = %q, want refreshed token", got)
		}
		if got := realm.lastGrant.Load(); got != "refresh_token" {
			t.Errorf("last grant = %v", got)
		}
	})
}

// TestEnsureAuthenticated verifies that login happens lazily and only once.
func TestEnsureAuthenticated(t *testing.T) {
	t.Parallel()

	realm := newFakeRealm(t)
	session := newTestSession(realm)

	for range 3 {
		if err := session.EnsureAuthenticated(context.Background()); err != nil {
			t.Fatalf("EnsureAuthenticated() error = %v", err)
		}
	}

	if got := realm.loginForms.Load(); got != 1 {
		t.Errorf("authorization page fetched %d times, want 1", got)
	}
	if got := realm.tokenCalls.Load(); got != 1 {
		t.Errorf("token endpoint hit %d times, want 1", got)
	}
}

// TestFirstFormAction verifies form discovery in isolation.
func TestFirstFormAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want string
	}{
		{"simple form", `<form action="/login"></form>`, "/login"},
		{"first of two", `<form action="/a"></form><form action="/b"></form>`, "/a"},
		{"form without action", `<form method="post"></form>`, ""},
		{"no form", `<div>nothing here</div>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := firstFormAction(strings.NewReader(tt.html))
			if err != nil {
				t.Fatalf("firstFormAction() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("firstFormAction() = %q, want %q", got, tt.want)
			}
		})
	}
}
