// Package topics keeps track of already published articles and flags new
// topics that would duplicate one of them.
package topics

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Article is one entry of the published-articles knowledge base.
// Field names follow the existing French-keyed file format.
type Article struct {
	Date        string `json:"date"`
	Author      string `json:"auteur"`
	Title       string `json:"titre"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// Catalog is a JSON file of published articles
type Catalog struct {
	path     string
	mu       sync.Mutex
	articles []Article
}

// LoadCatalog reads the knowledge base at path. A missing file is an empty catalog.
func LoadCatalog(path string) (*Catalog, error) {
	c := &Catalog{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read article catalog: %w", err)
	}
	if err := json.Unmarshal(data, &c.articles); err != nil {
		return nil, fmt.Errorf("failed to parse article catalog %s: %w", path, err)
	}
	return c, nil
}

// Articles returns a copy of the catalog entries
func (c *Catalog) Articles() []Article {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Article(nil), c.articles...)
}

// Titles returns the non-empty titles in catalog order
func (c *Catalog) Titles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	titles := make([]string, 0, len(c.articles))
	for _, a := range c.articles {
		if a.Title != "" {
			titles = append(titles, a.Title)
		}
	}
	return titles
}

// Add appends a unless an entry with the same title or slug exists.
// A blank date defaults to today. It reports whether a was added.
func (c *Catalog) Add(a Article) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.articles {
		if existing.Title == a.Title || (a.Slug != "" && existing.Slug == a.Slug) {
			return false
		}
	}
	if a.Date == "" {
		a.Date = time.Now().Format(time.DateOnly)
	}
	c.articles = append(c.articles, a)
	return true
}

// Save writes the catalog back to its file
func (c *Catalog) Save() error {
	c.mu.Lock()
	articles := c.articles
	if articles == nil {
		articles = []Article{}
	}
	data, err := json.MarshalIndent(articles, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to encode article catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write article catalog: %w", err)
	}
	return nil
}
