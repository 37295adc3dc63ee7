package progress

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

const sessionPage = `<!DOCTYPE html>
<html><body>
<form id="timer-form">
  <input type="hidden" name="csrfmiddlewaretoken" value="page-token-abc">
</form>
</body></html>`

// TestExtractFormToken finds the hidden input and ignores unrelated inputs.
func TestExtractFormToken(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{"hidden input", sessionPage, "page-token-abc"},
		{"self closing", `<input name="q"/><input value="x" name="csrfmiddlewaretoken"/>`, "x"},
		{"absent", `<p>no form here</p>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractFormToken(strings.NewReader(tt.page))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestPageTokenFetchesOnce verifies the page is fetched a single time and the
// token cached for later reports.
func TestPageTokenFetchesOnce(t *testing.T) {
	hits := 0
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/workout/session/42/": func(w http.ResponseWriter, r *http.Request) {
			hits++
			_, _ = w.Write([]byte(sessionPage))
		},
	})
	hc, err := NewHTTPClient(5 * time.Second)
	if err != nil {
		t.Fatal(err)
	}
	src := NewPageToken(ts.URL+"/workout/session/42/", hc)

	for i := 0; i < 3; i++ {
		tok, err := src.Token(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok != "page-token-abc" {
			t.Errorf("token = %q", tok)
		}
	}
	if hits != 1 {
		t.Errorf("page fetched %d times, want 1", hits)
	}
}

// TestPageTokenCookieFallback uses the csrftoken cookie when the page has no form.
func TestPageTokenCookieFallback(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/page/": func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "cookie-token", Path: "/"})
			_, _ = w.Write([]byte("<html></html>"))
		},
	})
	hc, err := NewHTTPClient(5 * time.Second)
	if err != nil {
		t.Fatal(err)
	}

	tok, err := NewPageToken(ts.URL+"/page/", hc).Token(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok != "cookie-token" {
		t.Errorf("token = %q, want cookie-token", tok)
	}
}

// TestPageTokenMissing reports ErrNoToken when neither form nor cookie carry one.
func TestPageTokenMissing(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/page/": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html></html>"))
		},
	})
	hc, _ := NewHTTPClient(5 * time.Second)
	if _, err := NewPageToken(ts.URL+"/page/", hc).Token(context.Background()); !errors.Is(err, ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
}
