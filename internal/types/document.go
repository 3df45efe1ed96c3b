// Package types provides type definitions for structured data used throughout the blog pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

// BlockStyle is the structural style of a block
type BlockStyle string

const (
	StyleHeading2 BlockStyle = "h2"
	StyleHeading3 BlockStyle = "h3"
	StyleNormal   BlockStyle = "normal"
)

// IsHeading reports whether the style is a heading level
func (s BlockStyle) IsHeading() bool {
	return s == StyleHeading2 || s == StyleHeading3
}

// ListItem marks a block as a list row
type ListItem string

const (
	ListNone   ListItem = ""
	ListBullet ListItem = "bullet"
)

// MarkBold is the mark tag for bold emphasis. Any other mark on a span is a link key.
const MarkBold = "strong"

// StyledSpan is a contiguous run of text sharing the same marks
type StyledSpan struct {
	Text  string   `json:"text"`
	Marks []string `json:"marks"`
}

// IsBold reports whether the span carries the bold mark
func (s StyledSpan) IsBold() bool {
	for _, m := range s.Marks {
		if m == MarkBold {
			return true
		}
	}
	return false
}

// LinkKey returns the first link key among the span marks, if any
func (s StyledSpan) LinkKey() (string, bool) {
	for _, m := range s.Marks {
		if m != MarkBold {
			return m, true
		}
	}
	return "", false
}

// LinkAnnotation is a link target owned by exactly one block
type LinkAnnotation struct {
	Key  string `json:"key"`
	Href string `json:"href"`
}

// RawBlock is a segmented block whose text has not been mark-parsed yet
type RawBlock struct {
	Style    BlockStyle `json:"style"`
	ListItem ListItem   `json:"list_item,omitempty"`
	Text     string     `json:"text"`
}

// Block is one structural unit of a document
type Block struct {
	Style    BlockStyle                `json:"style"`
	ListItem ListItem                  `json:"list_item,omitempty"`
	Spans    []StyledSpan              `json:"spans"`
	Links    map[string]LinkAnnotation `json:"links,omitempty"`
}

// PlainText returns the concatenated span text of the block
func (b Block) PlainText() string {
	var n int
	for _, s := range b.Spans {
		n += len(s.Text)
	}
	buf := make([]byte, 0, n)
	for _, s := range b.Spans {
		buf = append(buf, s.Text...)
	}
	return string(buf)
}

// Document is an ordered sequence of blocks
type Document struct {
	Blocks []Block `json:"blocks"`
}

// Styles returns the style sequence of the document, with list rows reported as "bullet"
func (d Document) Styles() []string {
	out := make([]string, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		if b.ListItem == ListBullet {
			out = append(out, string(ListBullet))
			continue
		}
		out = append(out, string(b.Style))
	}
	return out
}

// IsEmpty reports whether the document carries no visible text
func (d Document) IsEmpty() bool {
	for _, b := range d.Blocks {
		if b.PlainText() != "" {
			return false
		}
	}
	return true
}
