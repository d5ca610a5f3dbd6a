package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/miyata-dev/campuscrawl/internal/webclient"
)

// tokenResponse is the token endpoint payload. It is owned exclusively
// by Session and replaced wholesale on every login and refresh.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
}

// Session performs the authorization-code flow against the OpenID
// Connect realm and holds the resulting token pair. It is safe for use
// by concurrent pipelines; the token is guarded by a mutex and Login
// runs at most once under EnsureAuthenticated.
type Session struct {
	// client follows redirects; used for the authorization page and the
	// token endpoint.
	client *http.Client

	// noRedirect shares client's transport but surfaces redirects, so
	// the authorization code can be read from the Location header. The
	// redirect target is an app-scheme URI that cannot be fetched.
	noRedirect *http.Client

	authorityURL string
	clientID     string
	redirectURI  string
	username     string
	password     string

	logger *slog.Logger

	mu    sync.Mutex
	token *tokenResponse
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a Session. No network call is made until Login or
// EnsureAuthenticated.
func NewSession(client *http.Client, authorityURL, clientID, redirectURI, username, password string, opts ...Option) *Session {
	s := &Session{
		client:       client,
		noRedirect:   webclient.NewNoRedirect(client),
		authorityURL: strings.TrimSuffix(authorityURL, "/"),
		clientID:     clientID,
		redirectURI:  redirectURI,
		username:     username,
		password:     password,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// authorizationEndpoint returns the OIDC authorization URL.
func (s *Session) authorizationEndpoint() string {
	return s.authorityURL + "/protocol/openid-connect/auth"
}

// tokenEndpoint returns the OIDC token URL.
func (s *Session) tokenEndpoint() string {
	return s.authorityURL + "/protocol/openid-connect/token"
}

// Login runs the full authorization-code exchange: fetch the login
// form, submit credentials to its action URL, capture the code from
// the redirect, and trade it for a token pair.
func (s *Session) Login(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loginLocked(ctx)
}

func (s *Session) loginLocked(ctx context.Context) error {
	actionURL, err := s.fetchLoginFormAction(ctx)
	if err != nil {
		return err
	}

	code, err := s.submitCredentials(ctx, actionURL)
	if err != nil {
		return err
	}

	token, err := s.exchange(ctx, url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {s.clientID},
		"redirect_uri": {s.redirectURI},
		"code":         {code},
	})
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	s.token = token
	s.logger.Info("directory session established")
	return nil
}

// Refresh exchanges the stored refresh token for a new token pair.
// It fails with ErrNoRefreshToken if Login has never succeeded.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil || s.token.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	token, err := s.exchange(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {s.clientID},
		"refresh_token": {s.token.RefreshToken},
	})
	if err != nil {
		return fmt.Errorf("token refresh failed: %w", err)
	}

	s.token = token
	s.logger.Debug("directory session refreshed")
	return nil
}

// EnsureAuthenticated logs in lazily: the first caller without a held
// token performs Login; everyone else returns immediately.
func (s *Session) EnsureAuthenticated(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != nil {
		return nil
	}
	return s.loginLocked(ctx)
}

// AccessToken returns the current bearer token, or empty if no login
// has happened.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == nil {
		return ""
	}
	return s.token.AccessToken
}

// fetchLoginFormAction fetches the authorization page and returns the
// submission target of its first form.
func (s *Session) fetchLoginFormAction(ctx context.Context) (string, error) {
	authURL := s.authorizationEndpoint() + "?" + url.Values{
		"client_id":     {s.clientID},
		"response_type": {"code"},
		"redirect_uri":  {s.redirectURI},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("authorization request failed: %w", err)
	}
	defer resp.Body.Close()

	action, err := firstFormAction(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing authorization page: %w", err)
	}
	if action == "" {
		return "", ErrNoLoginForm
	}
	return action, nil
}

// submitCredentials posts the account credentials to the form action
// and extracts the authorization code from the redirect Location.
func (s *Session) submitCredentials(ctx context.Context, actionURL string) (string, error) {
	form := url.Values{
		"username":     {s.username},
		"password":     {s.password},
		"credentialId": {""},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, actionURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.noRedirect.Do(req)
	if err != nil {
		return "", fmt.Errorf("credential submission failed: %w", err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if location == "" {
		return "", ErrNoAuthCode
	}

	loc, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parsing login redirect: %w", err)
	}
	code := loc.Query().Get("code")
	if code == "" {
		return "", ErrNoAuthCode
	}
	return code, nil
}

// exchange posts a form to the token endpoint and decodes the token
// response.
func (s *Session) exchange(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenEndpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned HTTP status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	return &token, nil
}

// firstFormAction parses HTML and returns the action attribute of the
// first form element, or empty if there is none.
func firstFormAction(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var action string
	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.Data == "form" {
			for _, attr := range n.Attr {
				if attr.Key == "action" {
					action = attr.Val
				}
			}
			found = true
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if !found {
		return "", nil
	}
	return action, nil
}
