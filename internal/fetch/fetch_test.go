package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/blog-autopilot/internal/logger"
)

func TestURL_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, server.URL, result.URL)
	assert.Contains(t, result.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.False(t, result.Rendered)
}

func TestURL_CacheBust(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.NotEmpty(t, r.URL.Query().Get(cacheBustParam))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	_, err := URL(context.Background(), server.URL+"/blog?page=2", &Options{CacheBust: true})
	require.NoError(t, err)
}

func TestURL_InvalidURL(t *testing.T) {
	_, err := URL(context.Background(), "not-a-valid-url", nil)
	require.Error(t, err)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "invalid URL")
}

func TestURL_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := URL(context.Background(), server.URL, nil)
	require.Error(t, err)
	assert.NotNil(t, result) // Result is returned even on error
	assert.Equal(t, http.StatusNotFound, result.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
}

func TestExtractMainText(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		selectors   []string
		contains    []string
		notContains []string
	}{
		{
			name:        "main element wins over chrome",
			html:        `<html><body><nav>Navigation</nav><main><h1>Main Content</h1><p>This is the important text.</p></main><footer>Footer</footer></body></html>`,
			selectors:   DefaultTextSelectors(),
			contains:    []string{"Main Content", "important text"},
			notContains: []string{"Navigation", "Footer"},
		},
		{
			name:      "fallback to body",
			html:      `<html><body><div>Some content here.</div></body></html>`,
			selectors: DefaultTextSelectors(),
			contains:  []string{"Some content here"},
		},
		{
			name:        "blog listing container",
			html:        `<html><body><div class="sidebar">Sidebar junk</div><div class="blog-grid"><h2>Premier article du blog</h2></div></body></html>`,
			selectors:   BlogListingSelectors(),
			contains:    []string{"Premier article du blog"},
			notContains: []string{"Sidebar junk"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := ExtractMainText(tt.html, tt.selectors)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, text, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, text, s)
			}
		})
	}
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("  short  "))
	assert.False(t, ShouldUseBrowser(strings.Repeat("x", MinContentLength)))
}

func stubRenderer(t *testing.T, html string, err error) *int {
	t.Helper()
	calls := 0
	original := renderPage
	renderPage = func(_ context.Context, _ string, _ time.Duration, _ *logger.Logger) (string, error) {
		calls++
		return html, err
	}
	t.Cleanup(func() { renderPage = original })
	return &calls
}

func TestPage_BrowserFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="root"></div></body></html>`))
	}))
	defer server.Close()

	rendered := `<html><body><main><h2>Article rendu côté client</h2></main></body></html>`

	tests := []struct {
		name         string
		opts         *Options
		renderErr    error
		wantCalls    int
		wantRendered bool
	}{
		{name: "thin body is rendered", opts: DefaultOptions(), wantCalls: 1, wantRendered: true},
		{name: "browser disabled", opts: &Options{}, wantCalls: 0},
		{name: "browser failure keeps HTTP body", opts: DefaultOptions(), renderErr: errors.New("no chrome"), wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := stubRenderer(t, rendered, tt.renderErr)

			result, err := Page(context.Background(), server.URL, tt.opts, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, *calls)
			assert.Equal(t, tt.wantRendered, result.Rendered)
			if tt.wantRendered {
				assert.Contains(t, result.Text, "Article rendu côté client")
				assert.Contains(t, result.HTML, "<h2>")
			}
		})
	}
}

func TestPage_RichBodySkipsBrowser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><main><p>" + strings.Repeat("contenu ", 100) + "</p></main></body></html>"))
	}))
	defer server.Close()

	calls := stubRenderer(t, "", nil)
	result, err := Page(context.Background(), server.URL, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, *calls)
	assert.False(t, result.Rendered)
}
