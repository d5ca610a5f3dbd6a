package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/miyata-dev/campuscrawl/internal/model"
)

// Localized banner substrings the portal uses for non-viewable
// accounts. Matching is substring-based: the banner often carries
// extra navigation text around the message.
const (
	bannerPermissionDenied = "Информация о данном пользователе Вам не доступна."
	bannerUserDeleted      = "Учетная запись пользователя была удалена"
	bannerInvalidUser      = "Некорректный пользователь"
)

// browserHeaders is sent with every profile request. The portal serves
// a reduced page to clients that do not look like a desktop browser.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (X11; Linux x86_64; rv:145.0) Gecko/20100101 Firefox/145.0",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "ru,en-US;q=0.7,en;q=0.3",
	"DNT":                       "1",
	"Sec-GPC":                   "1",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Priority":                  "u=0, i",
}

// Resolver fetches and classifies portal profile pages.
type Resolver struct {
	client        *http.Client
	portalURL     string
	sessionCookie string
	logger        *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver for the portal at portalURL,
// authenticating with the given session cookie value.
func NewResolver(client *http.Client, portalURL, sessionCookie string, opts ...Option) *Resolver {
	r := &Resolver{
		client:        client,
		portalURL:     strings.TrimSuffix(portalURL, "/"),
		sessionCookie: sessionCookie,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Resolve fetches the profile page for id and classifies it. The
// classification depends only on the response: status first, then the
// error banner, then the profile heading. Any failure along the way is
// an OtherError outcome, never a returned error.
func (r *Resolver) Resolve(ctx context.Context, id int) model.ResolutionOutcome {
	pageURL := fmt.Sprintf("%s/user/profile.php?id=%d", r.portalURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return model.OtherError{Message: err.Error()}
	}
	for key, value := range browserHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("Cookie", "MoodleSession="+r.sessionCookie)

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		return model.OtherError{Message: err.Error()}
	}
	defer resp.Body.Close()

	r.logger.Info("profile page fetched",
		slog.Int("id", id),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.OtherError{Message: fmt.Sprintf("HTTP status: %d", resp.StatusCode)}
	}

	outcome, err := classify(resp.Body)
	if err != nil {
		return model.OtherError{Message: err.Error()}
	}
	return outcome
}

// classify maps a successful profile page response body to an outcome.
// Banner checks run before the heading check: a restricted profile can
// render both a banner and a partial card.
func classify(body io.Reader) (model.ResolutionOutcome, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parsing profile page: %w", err)
	}

	if banner := findFirst(doc, isErrorBanner); banner != nil {
		text := strings.TrimSpace(collectText(banner))
		switch {
		case strings.Contains(text, bannerPermissionDenied):
			return model.PermissionDenied{}, nil
		case strings.Contains(text, bannerUserDeleted):
			return model.UserDeleted{}, nil
		case strings.Contains(text, bannerInvalidUser):
			return model.InvalidUser{}, nil
		default:
			return model.OtherError{Message: text}, nil
		}
	}

	if card := findFirst(doc, hasClass("card-profile")); card != nil {
		if heading := findFirst(card, isElement("h3")); heading != nil {
			if name := strings.TrimSpace(collectText(heading)); name != "" {
				return model.Success{Name: name}, nil
			}
		}
	}
	return model.NotFound{}, nil
}

// isErrorBanner matches an element carrying both alert classes.
func isErrorBanner(n *html.Node) bool {
	classes := nodeClasses(n)
	return classes["alert"] && classes["alert-danger"]
}

// hasClass returns a predicate matching elements with the given class.
func hasClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return nodeClasses(n)[class]
	}
}

// isElement returns a predicate matching elements by tag name.
func isElement(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Data == tag
	}
}

// nodeClasses returns the element's class attribute as a set.
func nodeClasses(n *html.Node) map[string]bool {
	classes := make(map[string]bool)
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, class := range strings.Fields(attr.Val) {
			classes[class] = true
		}
	}
	return classes
}

// findFirst returns the first element node in document order for which
// match returns true, or nil.
func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// collectText concatenates all text nodes under n.
func collectText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
