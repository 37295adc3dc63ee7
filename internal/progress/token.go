package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/publicsuffix"
)

// ErrNoToken is returned when the hosting page carries no anti-forgery token.
var ErrNoToken = errors.New("no csrf token found")

const (
	csrfFormField  = "csrfmiddlewaretoken"
	csrfCookieName = "csrftoken"
)

// TokenSource supplies the per-request anti-forgery token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a token taken from configuration.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}

// NewHTTPClient returns an http.Client with a cookie jar, so the session and
// csrf cookies set by the hosting page are sent back with progress reports.
func NewHTTPClient(timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &http.Client{Jar: jar, Timeout: timeout}, nil
}

// PageToken reads the token from the hosting page: the hidden
// csrfmiddlewaretoken input, or failing that the csrftoken cookie.
// The first token found is cached.
type PageToken struct {
	pageURL    string
	httpClient *http.Client

	mu    sync.Mutex
	token string
}

// NewPageToken creates a PageToken. httpClient should be the client that
// sends the reports (see NewHTTPClient) so cookies are shared.
func NewPageToken(pageURL string, httpClient *http.Client) *PageToken {
	return &PageToken{pageURL: pageURL, httpClient: httpClient}
}

func (p *PageToken) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" {
		return p.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("page token: create request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("page token: fetching %s: %w: %w", p.pageURL, ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("page token: %s returned %d: %s", p.pageURL, resp.StatusCode, body)
	}

	token, err := extractFormToken(resp.Body)
	if err != nil {
		return "", fmt.Errorf("page token: parsing page: %w", err)
	}
	if token == "" {
		token = p.cookieToken()
	}
	if token == "" {
		return "", ErrNoToken
	}
	p.token = token
	return token, nil
}

func (p *PageToken) cookieToken() string {
	if p.httpClient.Jar == nil {
		return ""
	}
	u, err := url.Parse(p.pageURL)
	if err != nil {
		return ""
	}
	for _, c := range p.httpClient.Jar.Cookies(u) {
		if c.Name == csrfCookieName {
			return c.Value
		}
	}
	return ""
}

// extractFormToken returns the value of the first <input name="csrfmiddlewaretoken">.
func extractFormToken(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return "", nil
			}
			return "", z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "input" {
				continue
			}
			var name, value string
			for _, a := range tok.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					name = a.Val
				case "value":
					value = a.Val
				}
			}
			if name == csrfFormField && value != "" {
				return value, nil
			}
		}
	}
}
