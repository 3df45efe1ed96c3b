// Package fetch downloads web pages and reduces them to readable text,
// rendering them in a headless browser when the plain HTTP body is too thin.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonathan/blog-autopilot/internal/logger"
)

// MinContentLength is the minimum extracted text length to consider HTTP fetch successful.
// If content is shorter, we should fall back to browser rendering.
const MinContentLength = 500

// ShouldUseBrowser returns true if the extracted text is too short,
// indicating the page is likely rendered client-side.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// renderPage is swapped out in tests so they don't need a Chrome binary
var renderPage = WithBrowser

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, timeout time.Duration, log *logger.Logger) (string, error) {
	log = logger.OrNop(log)
	log.Debug("starting headless browser", "url", url)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// listing cards are usually hydrated after the first paint
		chromedp.Sleep(3*time.Second),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_ = chromedp.Click(`button[id*="accept"], button[class*="accept"]`, chromedp.NodeVisible, chromedp.AtLeast(0)).Do(ctx)
			return nil
		}),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	log.Debug("rendered page", "url", url, "bytes", len(html))
	return html, nil
}

// Page fetches url over HTTP and, when the readable text is too thin and the
// browser is enabled, renders it again in a headless browser. A browser failure
// keeps the HTTP result.
func Page(ctx context.Context, url string, opts *Options, log *logger.Logger) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	log = logger.OrNop(log)

	result, err := URL(ctx, url, opts)
	if err != nil {
		return result, err
	}

	result.Text, err = ExtractMainText(result.HTML, DefaultTextSelectors())
	if err != nil {
		return result, &Error{URL: url, Message: "failed to extract text", Cause: err}
	}
	if !opts.Browser || !ShouldUseBrowser(result.Text) {
		return result, nil
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	html, err := renderPage(ctx, url, timeout, log)
	if err != nil {
		log.Warn("browser fallback failed, keeping HTTP body", "url", url, "error", err)
		return result, nil
	}

	text, err := ExtractMainText(html, DefaultTextSelectors())
	if err != nil {
		log.Warn("failed to extract rendered text", "url", url, "error", err)
		return result, nil
	}
	result.HTML = html
	result.Text = text
	result.Rendered = true
	return result, nil
}
