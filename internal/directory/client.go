package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/miyata-dev/campuscrawl/internal/model"
)

// authenticator supplies bearer tokens. Satisfied by *auth.Session.
type authenticator interface {
	EnsureAuthenticated(ctx context.Context) error
	AccessToken() string
}

// Client calls the directory API's dump endpoints.
type Client struct {
	client  *http.Client
	baseURL string
	session authenticator
}

// NewClient creates a directory Client rooted at baseURL.
func NewClient(client *http.Client, baseURL string, session authenticator) *Client {
	return &Client{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		session: session,
	}
}

// Search queries the directory by display name and returns all matches
// in API order. An empty result is not an error.
func (c *Client) Search(ctx context.Context, name string) ([]model.DirectoryMatch, error) {
	endpoint := c.baseURL + "/v3/dump/search?" + url.Values{"q": {name}}.Encode()

	var matches []model.DirectoryMatch
	if err := c.getJSON(ctx, endpoint, &matches); err != nil {
		return nil, fmt.Errorf("directory search for %q: %w", name, err)
	}
	return matches, nil
}

// ProfileByEmail fetches the canonical identity record keyed by
// institutional email.
func (c *Client) ProfileByEmail(ctx context.Context, email string) (*model.IdentityProfile, error) {
	endpoint := c.baseURL + "/v3/dump/email/" + url.PathEscape(email)

	var profile model.IdentityProfile
	if err := c.getJSON(ctx, endpoint, &profile); err != nil {
		return nil, fmt.Errorf("directory profile for %q: %w", email, err)
	}
	return &profile, nil
}

// Me returns the directory's record of the authenticated account.
func (c *Client) Me(ctx context.Context) (*model.Account, error) {
	var account model.Account
	if err := c.getJSON(ctx, c.baseURL+"/v3/dump/me", &account); err != nil {
		return nil, fmt.Errorf("directory self lookup: %w", err)
	}
	return &account, nil
}

// getJSON performs an authenticated GET and decodes the JSON body into
// out. Login happens lazily on the first call.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := c.session.EnsureAuthenticated(ctx); err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.session.AccessToken())
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
