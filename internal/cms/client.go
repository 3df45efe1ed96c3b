// Package cms publishes articles to a Sanity dataset.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/blog-autopilot/internal/logger"
	"github.com/jonathan/blog-autopilot/internal/types"
)

// Sanity defaults
const (
	DefaultAPIVersion = "v2025-12-11"
	DefaultDataset    = "production"
	DefaultSiteURL    = "https://callrounded.com"
	DefaultTimeout    = 30 * time.Second
)

const referencesQuery = `{"category": *[_type == "category" && slug.current == $category][0]._id, ` +
	`"author": *[_type == "author" && name == $author][0]._id}`

// Config configures a Sanity client
type Config struct {
	ProjectID     string
	Dataset       string
	Token         string
	APIVersion    string
	BaseURL       string // overrides https://{project}.api.sanity.io/{version}
	RevalidateURL string
	AuthorName    string
	CategorySlug  string
	SiteURL       string
	HTTPClient    *http.Client
}

// Client talks to the Sanity HTTP API
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	log     *logger.Logger
	now     func() time.Time
	newKey  func() string
}

// PublishResult describes a successful publish
type PublishResult struct {
	DocumentID    string         `json:"document_id"`
	Slug          string         `json:"slug"`
	Language      types.Language `json:"language"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Revalidated   bool           `json:"revalidated"`
}

// New creates a Sanity client
func New(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.ProjectID == "" && cfg.BaseURL == "" {
		return nil, &Error{Operation: "config", Message: "project ID is required"}
	}
	if cfg.Dataset == "" {
		cfg.Dataset = DefaultDataset
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.SiteURL == "" {
		cfg.SiteURL = DefaultSiteURL
	}

	base := cfg.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.api.sanity.io/%s", cfg.ProjectID, cfg.APIVersion)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(base, "/"),
		http:    httpClient,
		log:     logger.OrNop(log),
		now:     time.Now,
		newKey:  NewKey,
	}, nil
}

// FetchReferences looks up the category id for categorySlug and the configured author id.
// Missing documents come back as empty ids.
func (c *Client) FetchReferences(ctx context.Context, categorySlug string) (types.References, error) {
	if categorySlug == "" {
		categorySlug = c.cfg.CategorySlug
	}
	payload := map[string]any{
		"query": referencesQuery,
		"params": map[string]string{
			"category": categorySlug,
			"author":   c.cfg.AuthorName,
		},
	}

	var out struct {
		Result struct {
			Category *string `json:"category"`
			Author   *string `json:"author"`
		} `json:"result"`
	}
	if err := c.post(ctx, "query", "/data/query/"+c.cfg.Dataset, payload, &out); err != nil {
		return types.References{}, err
	}

	refs := types.References{}
	if out.Result.Category != nil {
		refs.Category = *out.Result.Category
	}
	if out.Result.Author != nil {
		refs.Author = *out.Result.Author
	}
	return refs, nil
}

// PublishDocument writes doc as a post in lang. Publishing the same slug twice
// replaces the post. A failed revalidation is logged and reported, not returned.
func (c *Client) PublishDocument(ctx context.Context, doc types.Document, meta types.ArticleMetadata, lang types.Language, refs types.References) (*PublishResult, error) {
	post := BuildPost(doc, meta, lang, refs, PostOptions{
		SiteURL: c.cfg.SiteURL,
		Now:     c.now(),
		NewKey:  c.newKey,
	})
	if err := post.Validate(); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"mutations": []map[string]any{{"createOrReplace": post}},
	}
	var out struct {
		TransactionID string `json:"transactionId"`
	}
	if err := c.post(ctx, "mutate", "/data/mutate/"+c.cfg.Dataset, payload, &out); err != nil {
		return nil, err
	}

	result := &PublishResult{
		DocumentID:    post.ID,
		Slug:          post.Slug.Current,
		Language:      lang,
		TransactionID: out.TransactionID,
	}
	c.log.Info("published post", "document_id", post.ID, "language", lang, "blocks", len(post.Body))

	if c.cfg.RevalidateURL != "" {
		if err := c.Revalidate(ctx, post.Slug.Current); err != nil {
			c.log.Warn("revalidation failed", "slug", post.Slug.Current, "error", err)
		} else {
			result.Revalidated = true
		}
	}
	return result, nil
}

// PublishArticle converts the article body and publishes it
func (c *Client) PublishArticle(ctx context.Context, meta types.ArticleMetadata, lang types.Language, refs types.References) (*PublishResult, error) {
	return c.PublishDocument(ctx, DocumentFromMetadata(meta), meta, lang, refs)
}

// Revalidate asks the site to rebuild the page for slug
func (c *Client) Revalidate(ctx context.Context, slug string) error {
	body, err := json.Marshal(map[string]string{"slug": slug})
	if err != nil {
		return &Error{Operation: "revalidate", Message: "failed to encode request", Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.RevalidateURL, bytes.NewReader(body))
	if err != nil {
		return &Error{Operation: "revalidate", Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Operation: "revalidate", Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return &Error{Operation: "revalidate", StatusCode: resp.StatusCode, Message: "unexpected status"}
	}
	return nil
}

func (c *Client) post(ctx context.Context, op, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Operation: op, Message: "failed to encode request", Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &Error{Operation: op, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Operation: op, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Operation: op, Message: "failed to read response body", Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &Error{Operation: op, StatusCode: resp.StatusCode, Message: truncateRunes(string(respBody), 300)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Operation: op, Message: "failed to decode response", Cause: err}
	}
	return nil
}
